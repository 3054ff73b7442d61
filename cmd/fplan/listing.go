// cmd/fplan/listing.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"encoding/json"
	"strings"

	"github.com/mmp/fmc/flightplan"

	"github.com/iancoleman/orderedmap"
)

// planListing returns an indented JSON listing of the plan with the keys
// of each waypoint in a fixed, readable order.
func planListing(fp *flightplan.FlightPlan) ([]byte, error) {
	s := fp.Snapshot()

	plan := orderedmap.New()
	plan.SetEscapeHTML(false)
	if s.Origin != nil {
		plan.Set("origin", s.Origin.Ident)
	}
	if s.Destination != nil {
		plan.Set("destination", s.Destination.Ident)
	}
	plan.Set("cruise_altitude", s.CruiseAltitude)
	plan.Set("active_waypoint", s.ActiveWaypointIndex)
	plan.Set("procedures", procedureListing(fp))
	if s.DirectTo.Active {
		dt := orderedmap.New()
		dt.Set("target", s.DirectTo.TargetIdent)
		dt.Set("course", s.DirectTo.Course)
		plan.Set("direct_to", dt)
	}

	var wps []*orderedmap.OrderedMap
	segmentName := func(i int) string {
		switch {
		case s.Origin != nil && i == 0:
			return "origin"
		case s.Destination != nil && i == fp.Length()-1:
			return "destination"
		default:
			return fp.FindSegmentByIndex(i).Kind.String()
		}
	}
	for i, wp := range s.Waypoints() {
		w := orderedmap.New()
		w.Set("index", i)
		w.Set("ident", wp.Ident)
		w.Set("segment", segmentName(i))
		w.Set("type", wp.Type)
		w.Set("latitude", wp.Latitude)
		w.Set("longitude", wp.Longitude)
		if wp.Altitude != 0 {
			w.Set("altitude", wp.Altitude)
		}
		if c := fp.Waypoint(i).Constraint; c.Valid() {
			w.Set("constraint", c.Encoded())
		}
		w.Set("bearing", wp.Bearing)
		w.Set("distance", wp.Distance)
		w.Set("cumulative_distance", wp.CumulativeDistance)
		if flags := waypointFlags(wp); flags != "" {
			w.Set("flags", flags)
		}
		wps = append(wps, w)
	}
	plan.Set("waypoints", wps)

	return json.MarshalIndent(plan, "", "  ")
}

func procedureListing(fp *flightplan.FlightPlan) *orderedmap.OrderedMap {
	p := orderedmap.New()
	ps := fp.Procedures
	for _, sel := range []struct {
		name  string
		index int
	}{
		{"origin_runway", ps.OriginRunwayIndex},
		{"departure", ps.DepartureIndex},
		{"departure_runway", ps.DepartureRunwayIndex},
		{"departure_transition", ps.DepartureTransitionIndex},
		{"arrival", ps.ArrivalIndex},
		{"arrival_transition", ps.ArrivalTransitionIndex},
		{"arrival_runway", ps.ArrivalRunwayIndex},
		{"approach", ps.ApproachIndex},
		{"approach_transition", ps.ApproachTransitionIndex},
		{"destination_runway", ps.DestinationRunwayIndex},
	} {
		if sel.index != -1 {
			p.Set(sel.name, sel.index)
		}
	}
	if ps.DestinationRunwayExtension > 0 {
		p.Set("destination_runway_extension", ps.DestinationRunwayExtension)
	}
	return p
}

func waypointFlags(wp flightplan.WaypointRecord) string {
	var f []string
	for _, flag := range []struct {
		set  bool
		name string
	}{
		{wp.Runway, "runway"},
		{wp.VectorsToFinal, "vectors"},
		{wp.Discontinuity && wp.DiscontinuityClearable, "discontinuity (clearable)"},
		{wp.Discontinuity && !wp.DiscontinuityClearable, "discontinuity"},
		{wp.FlyOver, "flyover"},
		{wp.TurnPoint, "turn point"},
		{wp.Passed, "passed"},
	} {
		if flag.set {
			f = append(f, flag.name)
		}
	}
	return strings.Join(f, ",")
}
