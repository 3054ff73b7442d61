// flightplan/check_on.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

//go:build fplcheck

package flightplan

// assertionsEnabled is true when plans check their invariants after
// every structural change.
const assertionsEnabled = true
