// flightplan/invariants.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package flightplan

import (
	"fmt"
)

// CheckInvariants verifies the plan's structure: segments are ordered by
// kind with no duplicates, the enroute segment exists, offsets are
// contiguous starting after the origin, and the active waypoint index
// refers to a waypoint if there are any.
func (fp *FlightPlan) CheckInvariants() error {
	if EmptySegment.Kind != SegmentNone || EmptySegment.Offset != -1 || len(EmptySegment.Waypoints) != 0 {
		return fmt.Errorf("empty segment sentinel was modified: %w", ErrCorruptSegments)
	}

	idx := 0
	if fp.Origin != nil {
		idx = 1
	}
	sawEnroute := false
	for i, seg := range fp.Segments {
		if seg == nil || !seg.Kind.Valid() {
			return fmt.Errorf("segment %d: %w", i, ErrInvalidSegmentKind)
		}
		if i > 0 && fp.Segments[i-1].Kind >= seg.Kind {
			return fmt.Errorf("%s segment follows %s: %w", seg.Kind, fp.Segments[i-1].Kind, ErrCorruptSegments)
		}
		if seg.Offset != idx {
			return fmt.Errorf("%s segment offset %d, expected %d: %w", seg.Kind, seg.Offset, idx, ErrCorruptSegments)
		}
		for _, wp := range seg.Waypoints {
			if wp == nil {
				return fmt.Errorf("%s segment: %w", seg.Kind, ErrNilWaypoint)
			}
		}
		sawEnroute = sawEnroute || seg.Kind == SegmentEnroute
		idx += seg.Len()
	}
	if !sawEnroute {
		return fmt.Errorf("no enroute segment: %w", ErrCorruptSegments)
	}
	if fp.Destination != nil {
		idx++
	}
	if n := fp.Length(); idx != n {
		return fmt.Errorf("segments cover %d waypoints, plan has %d: %w", idx, n, ErrCorruptSegments)
	}

	if n := fp.Length(); fp.ActiveWaypointIndex < 0 || (n > 0 && fp.ActiveWaypointIndex >= n) {
		return fmt.Errorf("active waypoint %d of %d: %w", fp.ActiveWaypointIndex, n, ErrCorruptSegments)
	}
	return nil
}

// assertInvariants panics if the plan is inconsistent in builds with
// the fplcheck tag.
func (fp *FlightPlan) assertInvariants() {
	if !assertionsEnabled {
		return
	}
	if err := fp.CheckInvariants(); err != nil {
		fp.lg.Error("flight plan invariant violated", "error", err, "plan", fp)
		panic(err)
	}
}
