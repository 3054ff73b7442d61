// aviation/errors.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package aviation

import "errors"

var (
	ErrBadMagneticGrid       = errors.New("Malformed magnetic grid")
	ErrOutsideMagneticGrid   = errors.New("Lookup point outside sampled grid")
	ErrNoCIFPFiles           = errors.New("No CIFP files specified")
	ErrUnknownAirport        = errors.New("Unknown airport")
	ErrUnknownFix            = errors.New("Unknown fix")
	ErrUnknownPathTerminator = errors.New("Unknown path terminator")
	ErrUnknownProcedure      = errors.New("Unknown procedure")
	ErrUnknownRunway         = errors.New("Unknown runway")
	ErrUnknownTransition     = errors.New("Unknown transition")
)
