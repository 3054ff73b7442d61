// flightplan/edit.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package flightplan

import (
	"log/slog"
	"slices"

	av "github.com/mmp/fmc/aviation"
	"github.com/mmp/fmc/math"
	"github.com/mmp/fmc/util"
)

type insertOptions struct {
	index    int
	hasIndex bool
	kind     SegmentKind
	hasKind  bool
}

type InsertOption func(*insertOptions)

// AtIndex gives the flattened index the waypoint should end up at.
// Indices past the end of the target segment append to it.
func AtIndex(i int) InsertOption {
	return func(o *insertOptions) { o.index, o.hasIndex = i, true }
}

// InSegment forces insertion into the segment of the given kind.
func InSegment(kind SegmentKind) InsertOption {
	return func(o *insertOptions) { o.kind, o.hasKind = kind, true }
}

// AddWaypoint inserts wp into the plan.
//
// An airport added at index 0 becomes the origin and an airport added
// without an index becomes the destination; either replaces the existing
// one and resets the corresponding procedure selections. Any other
// waypoint goes into a segment: the one given by InSegment, or else the
// one containing the index. A waypoint added exactly at the start of a
// procedure segment that follows the enroute segment goes at the end of
// the enroute segment instead. Without an index, the waypoint is
// appended to the target segment, which defaults to enroute.
func (fp *FlightPlan) AddWaypoint(wp *av.Waypoint, opts ...InsertOption) error {
	if wp == nil {
		return ErrNilWaypoint
	}

	var o insertOptions
	for _, opt := range opts {
		opt(&o)
	}

	oldActive, oldLength := fp.ActiveWaypointIndex, fp.Length()

	if wp.IsAirport() && !o.hasKind {
		if o.hasIndex && o.index == 0 {
			grew := fp.Origin == nil
			fp.Origin = wp
			fp.Procedures.resetDeparture()
			fp.reflowSegments()
			fp.ReflowDistances()
			if grew {
				fp.adjustActiveAfterInsert(0, wp, SegmentNone, oldActive, oldLength)
			}
			fp.lg.Debug("set origin", slog.String("origin", wp.Ident))
			return nil
		}
		if !o.hasIndex {
			fp.Destination = wp
			fp.Procedures.resetArrival()
			fp.reflowSegments()
			fp.ReflowDistances()
			if fp.ActiveWaypointIndex == 0 && fp.Length() > 1 {
				fp.SetActiveWaypointIndex(1)
			}
			fp.lg.Debug("set destination", slog.String("destination", wp.Ident))
			return nil
		}
	}

	var seg *Segment
	if o.hasKind {
		seg = fp.Segment(o.kind)
		if seg.Absent() {
			return ErrEmptySegment
		}
	} else if o.hasIndex {
		seg = fp.FindSegmentByIndex(o.index)
		if seg.Kind != SegmentEnroute && o.index == seg.Offset {
			if prev := fp.segmentBefore(seg); prev != nil && prev.Kind == SegmentEnroute {
				seg = prev
			}
		}
	} else {
		seg = fp.Segment(SegmentEnroute)
	}

	local := seg.Len()
	if o.hasIndex {
		local = math.Clamp(o.index-seg.Offset, 0, seg.Len())
	}
	seg.Waypoints = slices.Insert(seg.Waypoints, local, wp)
	fp.reflowSegments()

	flat := seg.Offset + local
	if prev := fp.Waypoint(flat - 1); prev != nil && prev.Discontinuity() {
		// The discontinuity moves forward to the last waypoint before the
		// break.
		if !wp.Discontinuity() {
			wp.MarkDiscontinuity(prev.DiscontinuityClearable())
		}
		prev.ClearDiscontinuityFlags()
	}

	fp.ReflowDistances()
	fp.adjustActiveAfterInsert(flat, wp, seg.Kind, oldActive, oldLength)

	fp.lg.Debug("added waypoint", slog.Any("waypoint", wp), slog.Int("index", flat),
		slog.String("segment", seg.Kind.String()))
	return nil
}

func (fp *FlightPlan) adjustActiveAfterInsert(flat int, wp *av.Waypoint, kind SegmentKind, oldActive, oldLength int) {
	switch {
	case oldActive == 0 && fp.Length() > 1:
		// Never leave the origin active once there is somewhere to go.
		fp.SetActiveWaypointIndex(1)
	case oldActive == 1 && wp.IsRunway() && kind == SegmentDeparture:
		fp.SetActiveWaypointIndex(2)
	case flat < oldActive && oldActive < oldLength:
		// Keep the same waypoint active.
		fp.SetActiveWaypointIndex(oldActive + 1)
	}
}

// RemoveWaypoint removes and returns the waypoint at index i, or returns
// nil if there is none. The waypoint before it is left with a
// discontinuity: the removed waypoint's own if it had one, otherwise a
// new clearable one.
func (fp *FlightPlan) RemoveWaypoint(i int) *av.Waypoint {
	return fp.removeWaypoint(i, true)
}

func (fp *FlightPlan) removeWaypoint(i int, markDiscontinuity bool) *av.Waypoint {
	n := fp.Length()
	if i < 0 || i >= n {
		return nil
	}

	var removed *av.Waypoint
	if i == 0 && fp.Origin != nil {
		removed, fp.Origin = fp.Origin, nil
	} else if i == n-1 && fp.Destination != nil {
		removed, fp.Destination = fp.Destination, nil
	} else {
		seg := fp.FindSegmentByIndex(i)
		local := i - seg.Offset
		removed = seg.Waypoints[local]
		seg.Waypoints = slices.Delete(seg.Waypoints, local, local+1)
		if seg.Len() == 0 && seg.Kind != SegmentEnroute {
			fp.Segments = slices.DeleteFunc(fp.Segments, func(s *Segment) bool { return s == seg })
		}
	}

	// reflowSegments clamps the active index to the shorter plan, so the
	// adjustment is made from the index before removal.
	oldActive := fp.ActiveWaypointIndex
	fp.reflowSegments()
	fp.SetActiveWaypointIndex(oldActive - util.Select(i < oldActive, 1, 0))

	if markDiscontinuity {
		if prev := fp.Waypoint(i - 1); prev != nil {
			prev.MarkDiscontinuity(!removed.Discontinuity() || removed.DiscontinuityClearable())
		}
	}

	fp.ReflowDistances()

	fp.lg.Debug("removed waypoint", slog.Any("waypoint", removed), slog.Int("index", i))
	return removed
}

// TruncateSegment clears the segment of the given kind so that it can
// be rebuilt. If the active waypoint is in the segment, the waypoints up
// to and including it are kept and the last one is marked with a
// discontinuity; otherwise the segment is removed entirely. The enroute
// segment is emptied but never removed.
func (fp *FlightPlan) TruncateSegment(kind SegmentKind) {
	seg := fp.Segment(kind)
	if seg.Absent() {
		return
	}

	start := seg.Offset
	if seg.Contains(fp.ActiveWaypointIndex) {
		start = fp.ActiveWaypointIndex + 1
	}

	for range seg.End() - start {
		fp.removeWaypoint(start, false)
	}

	if seg = fp.Segment(kind); !seg.Absent() {
		if seg.Len() == 0 {
			if kind != SegmentEnroute {
				fp.RemoveSegment(kind)
			}
		} else if wp := fp.Waypoint(start - 1); wp != nil {
			wp.MarkDiscontinuity(true)
		}
	}

	fp.lg.Debug("truncated segment", slog.String("segment", kind.String()), slog.Int("start", start))
}
