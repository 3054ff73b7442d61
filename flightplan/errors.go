// flightplan/errors.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package flightplan

import "errors"

var (
	ErrCorruptSegments     = errors.New("Flight plan segments are inconsistent")
	ErrDirectToOrigin      = errors.New("Cannot proceed direct to the origin")
	ErrEmptySegment        = errors.New("No segment of that kind exists")
	ErrInvalidSegmentKind  = errors.New("Invalid segment kind")
	ErrNilWaypoint         = errors.New("Nil waypoint")
	ErrNoPosition          = errors.New("No current position available")
	ErrNoTemporaryPlan     = errors.New("No temporary flight plan")
	ErrNoWaypoint          = errors.New("No waypoint at that index")
	ErrSaveVersion         = errors.New("Unsupported saved flight plan version")
	ErrTemporaryPlanExists = errors.New("Temporary flight plan already exists")
	ErrUnknownWaypointType = errors.New("Unknown waypoint type")
)
