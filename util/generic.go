// util/generic.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"cmp"
	"maps"
	"slices"
)

// Select is a conditional expression.
func Select[T any](sel bool, a, b T) T {
	if !sel {
		return b
	}
	return a
}

// SortedMapKeys gives deterministic iteration over m.
func SortedMapKeys[K cmp.Ordered, V any](m map[K]V) []K {
	return slices.Sorted(maps.Keys(m))
}
