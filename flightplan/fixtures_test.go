// flightplan/fixtures_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package flightplan

import (
	"slices"
	"testing"

	av "github.com/mmp/fmc/aviation"
	"github.com/mmp/fmc/math"
)

var (
	fixA     = math.Point2LL{-72.95, 40.10}
	fixB     = math.Point2LL{-72.80, 40.25}
	fixC     = math.Point2LL{-72.50, 40.40}
	fixFAF   = math.Point2LL{-71.10, 41.10}
	fixMissX = math.Point2LL{-71.00, 40.80}
)

func fixLeg(pt av.PathTerminator, ident string, p math.Point2LL) av.Leg {
	return av.Leg{Type: pt, Fix: ident, FixLocation: p, FixKind: av.InfoIntersection}
}

func originAirport() *av.Waypoint {
	info := &av.AirportInfo{
		Name:      "ORIGIN",
		Elevation: 100,
		Runways: []av.Runway{
			{Id: "4L", Heading: 40, Threshold: math.Point2LL{-73.00, 40.00}, Elevation: 100},
			{Id: "22R", Heading: 220, Threshold: math.Point2LL{-72.9791, 40.0191}, Elevation: 100},
			{Id: "13", Heading: 130, Threshold: math.Point2LL{-73.01, 40.01}, Elevation: 100},
		},
		Departures: []av.Departure{{
			Name: "DEP1",
			RunwayTransitions: []av.RunwayTransition{{
				Runway: "RW04L",
				Legs: []av.Leg{
					{Type: av.PathTerminatorCA, Course: 40,
						Constraint: av.AltitudeConstraint{Description: av.AltitudeAtOrAbove, Altitude1: 1500}},
					fixLeg(av.PathTerminatorDF, "FIXA", fixA),
				},
			}},
			CommonLegs:         []av.Leg{fixLeg(av.PathTerminatorTF, "FIXB", fixB)},
			EnrouteTransitions: []av.Transition{{Name: "FIXC", Legs: []av.Leg{fixLeg(av.PathTerminatorTF, "FIXC", fixC)}}},
		}},
	}
	return av.MakeAirportWaypoint("AAAA", math.Point2LL{-73.00, 40.00}, info)
}

func destinationAirport() *av.Waypoint {
	faf := fixLeg(av.PathTerminatorIF, "APFAF", fixFAF)
	faf.Constraint = av.AtAltitude(2000)

	info := &av.AirportInfo{
		Name:      "DESTINATION",
		Elevation: 20,
		Runways: []av.Runway{
			{Id: "4", Heading: 40, Threshold: math.Point2LL{-71.00, 41.00}, Elevation: 20},
			{Id: "22R", Heading: 220, Threshold: math.Point2LL{-70.98, 41.02}, Elevation: 20},
			{Id: "13", Heading: 130, Threshold: math.Point2LL{-71.01, 41.01}, Elevation: 20},
		},
		Arrivals: []av.Arrival{{
			Name: "ARR1",
			EnrouteTransitions: []av.Transition{{Name: "FIXC",
				Legs: []av.Leg{fixLeg(av.PathTerminatorIF, "FIXC", fixC), fixLeg(av.PathTerminatorTF, "ARRA", math.Point2LL{-71.5, 40.9})}}},
			CommonLegs: []av.Leg{fixLeg(av.PathTerminatorTF, "ARRB", math.Point2LL{-71.3, 41.0})},
			RunwayTransitions: []av.RunwayTransition{{Runway: "RW22R",
				Legs: []av.Leg{fixLeg(av.PathTerminatorTF, "ARRC", math.Point2LL{-71.2, 41.2})}}},
		}},
		Approaches: []av.Approach{{
			Name:      "I22R",
			Runway:    "22R",
			FinalLegs: []av.Leg{faf},
			MissedLegs: []av.Leg{
				{Type: av.PathTerminatorCA, Course: 220,
					Constraint: av.AltitudeConstraint{Description: av.AltitudeAtOrAbove, Altitude1: 1000}},
				fixLeg(av.PathTerminatorDF, "MISSX", fixMissX),
			},
		}},
	}
	return av.MakeAirportWaypoint("ZZZZ", math.Point2LL{-71.00, 41.00}, info)
}

func enrouteWaypoint(ident string, lon, lat float32) *av.Waypoint {
	return av.MakeWaypoint(ident, math.Point2LL{lon, lat})
}

// makeTestPlan returns a plan from AAAA to ZZZZ with the given enroute
// waypoints, spaced out between the two airports.
func makeTestPlan(t *testing.T, enroute ...string) *FlightPlan {
	t.Helper()

	fp := New()
	if err := fp.AddWaypoint(originAirport(), AtIndex(0)); err != nil {
		t.Fatalf("adding origin: %v", err)
	}
	for i, id := range enroute {
		wp := enrouteWaypoint(id, -72.5+float32(i)*0.2, 40.5+float32(i)*0.05)
		if err := fp.AddWaypoint(wp); err != nil {
			t.Fatalf("adding %s: %v", id, err)
		}
	}
	if err := fp.AddWaypoint(destinationAirport()); err != nil {
		t.Fatalf("adding destination: %v", err)
	}
	return fp
}

func idents(wps []*av.Waypoint) []string {
	var s []string
	for _, wp := range wps {
		s = append(s, wp.Ident)
	}
	return s
}

func expectIdents(t *testing.T, what string, wps []*av.Waypoint, expected ...string) {
	t.Helper()
	if got := idents(wps); !slices.Equal(got, expected) {
		t.Errorf("%s: got %v, expected %v", what, got, expected)
	}
}

func checkPlan(t *testing.T, fp *FlightPlan) {
	t.Helper()
	if err := fp.CheckInvariants(); err != nil {
		t.Fatalf("invariants: %v", err)
	}
}
