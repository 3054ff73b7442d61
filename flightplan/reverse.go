// flightplan/reverse.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package flightplan

import (
	"log/slog"
	"slices"

	av "github.com/mmp/fmc/aviation"
	"github.com/mmp/fmc/util"
)

// Reverse turns the plan around for the return flight: the origin and
// destination are swapped and the enroute waypoints reversed. Procedure
// segments and selections belong to a particular airport and runway, so
// they are removed. The first waypoint after the origin becomes active.
func (fp *FlightPlan) Reverse() {
	fp.Segments = slices.DeleteFunc(fp.Segments, func(s *Segment) bool { return s.Kind != SegmentEnroute })
	if !fp.HasSegment(SegmentEnroute) {
		fp.Segments = append(fp.Segments, &Segment{Kind: SegmentEnroute})
	}
	enroute := fp.Segment(SegmentEnroute)

	var route []*av.Waypoint
	if fp.Origin != nil {
		route = append(route, fp.Origin)
	}
	route = append(route, enroute.Waypoints...)
	if fp.Destination != nil {
		route = append(route, fp.Destination)
	}

	// A discontinuity after route[j] separates it from route[j+1]; once
	// reversed, that break follows route[j+1].
	type disco struct{ set, clearable bool }
	discos := make([]disco, len(route))
	for j, wp := range route {
		discos[j] = disco{wp.Discontinuity(), wp.DiscontinuityClearable()}
		wp.ClearDiscontinuityFlags()
		wp.SetPassed(false)
	}
	for j := 0; j+1 < len(route); j++ {
		if discos[j].set {
			route[j+1].MarkDiscontinuity(discos[j].clearable)
		}
	}

	fp.Origin, fp.Destination = fp.Destination, fp.Origin
	slices.Reverse(enroute.Waypoints)

	fp.Procedures = MakeProcedureSelection()
	fp.DirectTo = DirectTo{}
	fp.reflowSegments()
	fp.SetActiveWaypointIndex(util.Select(fp.Origin != nil, 1, 0))
	fp.ReflowDistances()

	fp.lg.Info("reversed flight plan", slog.Any("plan", fp))
}
