// flightplan/segment.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package flightplan

import (
	"log/slog"

	av "github.com/mmp/fmc/aviation"
)

// SegmentKind identifies a segment of the route. Segments are always
// ordered by kind in a flight plan.
type SegmentKind int8

const (
	SegmentNone SegmentKind = iota - 1
	SegmentDeparture
	SegmentEnroute
	SegmentArrival
	SegmentApproach
	SegmentMissed
)

func (k SegmentKind) String() string {
	switch k {
	case SegmentDeparture:
		return "departure"
	case SegmentEnroute:
		return "enroute"
	case SegmentArrival:
		return "arrival"
	case SegmentApproach:
		return "approach"
	case SegmentMissed:
		return "missed"
	default:
		return "none"
	}
}

// ParseSegmentKind is the inverse of SegmentKind.String.
func ParseSegmentKind(s string) (SegmentKind, bool) {
	for k := SegmentDeparture; k <= SegmentMissed; k++ {
		if k.String() == s {
			return k, true
		}
	}
	return SegmentNone, false
}

func (k SegmentKind) Valid() bool {
	return k >= SegmentDeparture && k <= SegmentMissed
}

// Segment is a contiguous run of waypoints in a flight plan. Offset is
// the index of its first waypoint in the flattened plan; it is only
// valid after the plan has reflowed its segments.
type Segment struct {
	Kind      SegmentKind
	Offset    int
	Waypoints []*av.Waypoint
}

// EmptySegment is returned when a plan has no segment of a requested
// kind. It must never be modified.
var EmptySegment = &Segment{Kind: SegmentNone, Offset: -1}

// Absent reports whether s stands for a segment that does not exist.
func (s *Segment) Absent() bool {
	return s == nil || s == EmptySegment || s.Kind == SegmentNone
}

func (s *Segment) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Waypoints)
}

// End returns the flattened index one past the segment's last waypoint.
func (s *Segment) End() int {
	return s.Offset + s.Len()
}

func (s *Segment) Contains(i int) bool {
	return !s.Absent() && i >= s.Offset && i < s.End()
}

func (s *Segment) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("kind", s.Kind.String()),
		slog.Int("offset", s.Offset),
		slog.Int("length", s.Len()))
}
