// flightplan/check_off.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

//go:build !fplcheck

package flightplan

// assertionsEnabled is false in regular builds.
const assertionsEnabled = false
