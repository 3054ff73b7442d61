// flightplan/distance.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package flightplan

import "github.com/mmp/fmc/math"

// ReflowDistances recomputes the inbound bearing, leg distance, and
// cumulative distance of every waypoint in a single pass from the start
// of the plan. The first waypoint's fields are zeroed. Bearings are
// magnetic, using the variation at the start of each leg.
func (fp *FlightPlan) ReflowDistances() {
	var prev *math.Point2LL
	var cumulative float32
	for _, wp := range fp.AllWaypoints() {
		if prev == nil {
			wp.ResetLeg()
		} else {
			hdg := fp.geo.Heading(*prev, wp.Location)
			wp.Bearing = math.NormalizeHeading(trueToMagnetic(fp.geo, hdg, *prev))
			wp.Distance = fp.geo.Distance(*prev, wp.Location)
			cumulative += wp.Distance
			wp.CumulativeDistance = cumulative
		}
		prev = &wp.Location
	}
}

// DistanceToGo returns the distance along the route from the given
// position through the active waypoint to the end of the plan.
func (fp *FlightPlan) DistanceToGo(p math.Point2LL) float32 {
	active := fp.ActiveWaypoint()
	if active == nil {
		return 0
	}
	var total float32
	if last := fp.Waypoint(fp.Length() - 1); last != nil {
		total = last.CumulativeDistance - active.CumulativeDistance
	}
	return total + fp.geo.Distance(p, active.Location)
}
