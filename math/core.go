// math/core.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	gomath "math"

	"golang.org/x/exp/constraints"
)

// Positions and headings are float32 throughout; these wrappers save
// the float64 round trips through the standard math package.

func Mod(a, b float32) float32 {
	return float32(gomath.Mod(float64(a), float64(b)))
}

func Floor(v float32) float32 {
	return float32(gomath.Floor(float64(v)))
}

func Abs[V constraints.Signed | constraints.Float](x V) V {
	if x < 0 {
		x = -x
	}
	return x
}

func Sqr[V constraints.Integer | constraints.Float](v V) V { return v * v }

// Clamp limits x to [low, high].
func Clamp[T constraints.Ordered](x, low, high T) T {
	return min(max(x, low), high)
}
