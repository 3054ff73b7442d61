// flightplan/flightplan.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package flightplan

import (
	"iter"
	"log/slog"
	"slices"

	av "github.com/mmp/fmc/aviation"
	"github.com/mmp/fmc/log"
	"github.com/mmp/fmc/math"
)

// ProcedureSelection records which procedures, transitions, and runways
// have been selected. -1 means unselected for every field.
type ProcedureSelection struct {
	OriginRunwayIndex        int
	DepartureIndex           int
	DepartureRunwayIndex     int
	DepartureTransitionIndex int

	ArrivalIndex           int
	ArrivalRunwayIndex     int
	ArrivalTransitionIndex int

	ApproachIndex           int
	ApproachTransitionIndex int

	DestinationRunwayIndex     int
	DestinationRunwayExtension float32 // nm
}

func MakeProcedureSelection() ProcedureSelection {
	var ps ProcedureSelection
	ps.resetDeparture()
	ps.resetArrival()
	return ps
}

func (ps *ProcedureSelection) resetDeparture() {
	ps.OriginRunwayIndex = -1
	ps.DepartureIndex = -1
	ps.DepartureRunwayIndex = -1
	ps.DepartureTransitionIndex = -1
}

func (ps *ProcedureSelection) resetArrival() {
	ps.ArrivalIndex = -1
	ps.ArrivalRunwayIndex = -1
	ps.ArrivalTransitionIndex = -1
	ps.ApproachIndex = -1
	ps.ApproachTransitionIndex = -1
	ps.DestinationRunwayIndex = -1
	ps.DestinationRunwayExtension = -1
}

// DirectTo records the most recent direct-to.
type DirectTo struct {
	Active          bool
	TargetIdent     string
	TargetIndex     int
	TurnPoint       math.Point2LL
	InterceptPoints []math.Point2LL
	Course          float32 // magnetic, from the turn point
}

// FlightPlan is an ordered route from an optional origin to an optional
// destination airport, organized into segments. The flattened order is
// the origin, the segments in kind order, and then the destination.
//
// A FlightPlan is not safe for concurrent use; see Manager.
type FlightPlan struct {
	Origin              *av.Waypoint
	Destination         *av.Waypoint
	Segments            []*Segment
	ActiveWaypointIndex int
	CruiseAltitude      int
	Procedures          ProcedureSelection
	DirectTo            DirectTo

	geo Geodesy
	lg  *log.Logger
}

type Option func(*FlightPlan)

func WithGeodesy(g Geodesy) Option {
	return func(fp *FlightPlan) { fp.geo = g }
}

func WithLogger(lg *log.Logger) Option {
	return func(fp *FlightPlan) { fp.lg = lg }
}

func New(opts ...Option) *FlightPlan {
	fp := &FlightPlan{
		Segments:   []*Segment{{Kind: SegmentEnroute}},
		Procedures: MakeProcedureSelection(),
		geo:        EarthGeodesy{},
	}
	for _, opt := range opts {
		opt(fp)
	}
	fp.reflowSegments()
	return fp
}

// Clear removes all waypoints and selections, leaving an empty enroute
// segment.
func (fp *FlightPlan) Clear() {
	fp.Origin, fp.Destination = nil, nil
	fp.Segments = []*Segment{{Kind: SegmentEnroute}}
	fp.ActiveWaypointIndex = 0
	fp.Procedures = MakeProcedureSelection()
	fp.DirectTo = DirectTo{}
	fp.reflowSegments()
}

func (fp *FlightPlan) Length() int {
	n := 0
	if fp.Origin != nil {
		n++
	}
	for _, seg := range fp.Segments {
		n += seg.Len()
	}
	if fp.Destination != nil {
		n++
	}
	return n
}

// AllWaypoints returns the waypoints in flattened order.
func (fp *FlightPlan) AllWaypoints() iter.Seq2[int, *av.Waypoint] {
	return func(yield func(int, *av.Waypoint) bool) {
		i := 0
		if fp.Origin != nil {
			if !yield(i, fp.Origin) {
				return
			}
			i++
		}
		for _, seg := range fp.Segments {
			for _, wp := range seg.Waypoints {
				if !yield(i, wp) {
					return
				}
				i++
			}
		}
		if fp.Destination != nil {
			yield(i, fp.Destination)
		}
	}
}

// Waypoints returns the flattened list of waypoints. The slice is new but
// the waypoints are the plan's own.
func (fp *FlightPlan) Waypoints() []*av.Waypoint {
	wps := make([]*av.Waypoint, 0, fp.Length())
	for _, wp := range fp.AllWaypoints() {
		wps = append(wps, wp)
	}
	return wps
}

// Waypoint returns the waypoint at the given flattened index, or nil if
// there is none.
func (fp *FlightPlan) Waypoint(i int) *av.Waypoint {
	if i < 0 {
		return nil
	}
	if fp.Origin != nil {
		if i == 0 {
			return fp.Origin
		}
		i--
	}
	for _, seg := range fp.Segments {
		if i < seg.Len() {
			return seg.Waypoints[i]
		}
		i -= seg.Len()
	}
	if i == 0 && fp.Destination != nil {
		return fp.Destination
	}
	return nil
}

// IndexOf returns the flattened index of wp, or -1.
func (fp *FlightPlan) IndexOf(wp *av.Waypoint) int {
	for i, w := range fp.AllWaypoints() {
		if w == wp {
			return i
		}
	}
	return -1
}

func (fp *FlightPlan) ActiveWaypoint() *av.Waypoint {
	return fp.Waypoint(fp.ActiveWaypointIndex)
}

// SetActiveWaypointIndex sets the active waypoint, clamping to the
// waypoints in the plan.
func (fp *FlightPlan) SetActiveWaypointIndex(i int) {
	fp.ActiveWaypointIndex = math.Clamp(i, 0, max(0, fp.Length()-1))
}

// reflowSegments sorts the segments by kind and recomputes their
// offsets. It must be called after any change to the number of
// waypoints in the plan.
func (fp *FlightPlan) reflowSegments() {
	slices.SortStableFunc(fp.Segments, func(a, b *Segment) int { return int(a.Kind) - int(b.Kind) })

	idx := 0
	if fp.Origin != nil {
		idx = 1
	}
	for _, seg := range fp.Segments {
		seg.Offset = idx
		idx += seg.Len()
	}

	fp.SetActiveWaypointIndex(fp.ActiveWaypointIndex)
	fp.assertInvariants()
}

// Segment returns the segment of the given kind or EmptySegment if the
// plan doesn't have one.
func (fp *FlightPlan) Segment(kind SegmentKind) *Segment {
	for _, seg := range fp.Segments {
		if seg.Kind == kind {
			return seg
		}
	}
	return EmptySegment
}

func (fp *FlightPlan) HasSegment(kind SegmentKind) bool {
	return !fp.Segment(kind).Absent()
}

// AddSegment returns the segment of the given kind, creating an empty
// one if necessary.
func (fp *FlightPlan) AddSegment(kind SegmentKind) (*Segment, error) {
	if !kind.Valid() {
		return EmptySegment, ErrInvalidSegmentKind
	}
	if seg := fp.Segment(kind); !seg.Absent() {
		return seg, nil
	}

	seg := &Segment{Kind: kind}
	fp.Segments = append(fp.Segments, seg)
	fp.reflowSegments()
	return seg, nil
}

// RemoveSegment deletes the segment of the given kind and its
// waypoints. The enroute segment is emptied rather than removed.
func (fp *FlightPlan) RemoveSegment(kind SegmentKind) {
	seg := fp.Segment(kind)
	if seg.Absent() {
		return
	}
	if kind == SegmentEnroute {
		seg.Waypoints = nil
	} else {
		fp.Segments = slices.DeleteFunc(fp.Segments, func(s *Segment) bool { return s == seg })
	}
	fp.reflowSegments()
	fp.ReflowDistances()
}

// FindSegmentByIndex returns the segment that contains the waypoint at
// flattened index i. Indices past the end of all segments map to the last
// segment; callers should treat that as appending to it.
func (fp *FlightPlan) FindSegmentByIndex(i int) *Segment {
	for _, seg := range fp.Segments {
		if seg.End() > i {
			return seg
		}
	}
	return fp.Segments[len(fp.Segments)-1]
}

// segmentBefore returns the segment preceding seg in the plan, or nil.
func (fp *FlightPlan) segmentBefore(seg *Segment) *Segment {
	if idx := slices.Index(fp.Segments, seg); idx > 0 {
		return fp.Segments[idx-1]
	}
	return nil
}

// ClearDiscontinuity removes a clearable discontinuity from the
// waypoint at index i. It returns false if there was nothing to clear.
func (fp *FlightPlan) ClearDiscontinuity(i int) bool {
	wp := fp.Waypoint(i)
	if wp == nil || !wp.Discontinuity() || !wp.DiscontinuityClearable() {
		return false
	}
	wp.ClearDiscontinuityFlags()
	return true
}

func (fp *FlightPlan) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("length", fp.Length()),
		slog.Int("active", fp.ActiveWaypointIndex),
	}
	if fp.Origin != nil {
		attrs = append(attrs, slog.String("origin", fp.Origin.Ident))
	}
	if fp.Destination != nil {
		attrs = append(attrs, slog.String("destination", fp.Destination.Ident))
	}
	for _, seg := range fp.Segments {
		attrs = append(attrs, slog.Any(seg.Kind.String(), seg))
	}
	return slog.GroupValue(attrs...)
}
