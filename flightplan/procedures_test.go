// flightplan/procedures_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package flightplan

import (
	"testing"

	av "github.com/mmp/fmc/aviation"
	"github.com/mmp/fmc/math"
)

func TestBuildDepartureRunwayOnly(t *testing.T) {
	fp := makeTestPlan(t)
	fp.SetOriginRunwayIndex(0)
	if err := fp.BuildDeparture(); err != nil {
		t.Fatal(err)
	}

	seg := fp.Segment(SegmentDeparture)
	expectIdents(t, "departure", seg.Waypoints, "RW04L", "(1500)")
	if len(seg.Waypoints) != 2 {
		return
	}

	rwy, climb := seg.Waypoints[0], seg.Waypoints[1]
	if !rwy.IsRunway() {
		t.Errorf("expected runway waypoint to be flagged as a runway")
	}
	if climb.Constraint.Description != av.AltitudeAtOrAbove || climb.Constraint.Altitude1 != 1600 {
		t.Errorf("got climb constraint %+v, expected 1600+", climb.Constraint)
	}
	if !climb.Discontinuity() || !climb.DiscontinuityClearable() {
		t.Errorf("expected clearable discontinuity after climb fix")
	}
	d := math.NMDistance2LL(rwy.Location, climb.Location)
	if expected := float32(InitialClimbAltitude) / ClimbGradient; math.Abs(d-expected) > 0.01 {
		t.Errorf("got climb fix %f nm from runway, expected %f", d, expected)
	}
	if h := math.GreatCircleHeading(rwy.Location, climb.Location); math.HeadingDifference(h, 40) > 0.5 {
		t.Errorf("got climb fix bearing %f, expected 40", h)
	}
	checkPlan(t, fp)
}

func TestBuildDeparture(t *testing.T) {
	fp := makeTestPlan(t)
	fp.SetOriginRunwayIndex(0)
	fp.SetDepartureIndex(0)
	if fp.Procedures.DepartureRunwayIndex != 0 {
		t.Errorf("got departure runway index %d, expected 0", fp.Procedures.DepartureRunwayIndex)
	}
	fp.SetDepartureTransitionIndex(0)

	if err := fp.BuildDeparture(); err != nil {
		t.Fatal(err)
	}
	expectIdents(t, "departure", fp.Segment(SegmentDeparture).Waypoints, "RW04L", "(1500)", "FIXA", "FIXB", "FIXC")
	if wp := fp.Waypoint(2); wp == nil || wp.Altitude != 1500 {
		t.Errorf("got %v, expected climb to 1500", wp)
	}
	checkPlan(t, fp)

	// Rebuilding with the active waypoint in the departure keeps what has
	// been flown so far.
	fp.SetActiveWaypointIndex(3)
	fp.SetDepartureTransitionIndex(-1)
	if err := fp.BuildDeparture(); err != nil {
		t.Fatal(err)
	}
	expectIdents(t, "departure", fp.Segment(SegmentDeparture).Waypoints, "RW04L", "(1500)", "FIXA", "FIXB")
	if a := fp.ActiveWaypoint(); a == nil || a.Ident != "FIXA" {
		t.Errorf("got active %v, expected FIXA", a)
	}
	checkPlan(t, fp)

	// A full rebuild starts over.
	fp.SetActiveWaypointIndex(fp.Length() - 1)
	fp.SetDepartureTransitionIndex(0)
	if err := fp.BuildDeparture(); err != nil {
		t.Fatal(err)
	}
	expectIdents(t, "departure", fp.Segment(SegmentDeparture).Waypoints, "RW04L", "(1500)", "FIXA", "FIXB", "FIXC")
	checkPlan(t, fp)
}

func TestBuildApproachRunwayExtension(t *testing.T) {
	fp := makeTestPlan(t, "E1")
	fp.SetDestinationRunwayIndex(2, 5)
	if err := fp.BuildApproach(); err != nil {
		t.Fatal(err)
	}

	seg := fp.Segment(SegmentApproach)
	expectIdents(t, "approach", seg.Waypoints, "RX13", "RW13")
	if len(seg.Waypoints) != 2 {
		return
	}
	ext, rwy := seg.Waypoints[0], seg.Waypoints[1]
	if ext.IsRunway() || !rwy.IsRunway() {
		t.Errorf("expected only the threshold to be flagged as a runway")
	}
	if d := math.NMDistance2LL(ext.Location, rwy.Location); math.Abs(d-5) > 0.01 {
		t.Errorf("got extension %f nm from threshold, expected 5", d)
	}
	if c := rwy.Constraint; c.Description != av.AltitudeAt || c.Altitude1 != 20+GoAroundMargin {
		t.Errorf("got runway constraint %+v, expected at %d", c, 20+GoAroundMargin)
	}
	if fp.HasSegment(SegmentMissed) {
		t.Errorf("unexpected missed approach segment")
	}
	expectIdents(t, "waypoints", fp.Waypoints(), "AAAA", "E1", "RX13", "RW13", "ZZZZ")
	checkPlan(t, fp)
}

func TestBuildApproach(t *testing.T) {
	fp := makeTestPlan(t, "E1")
	fp.SetApproachIndex(0)
	if fp.Procedures.DestinationRunwayIndex != 1 {
		t.Errorf("got destination runway %d, expected 1", fp.Procedures.DestinationRunwayIndex)
	}
	if err := fp.BuildApproach(); err != nil {
		t.Fatal(err)
	}

	expectIdents(t, "approach", fp.Segment(SegmentApproach).Waypoints, "APFAF", "RW22R")
	expectIdents(t, "missed", fp.Segment(SegmentMissed).Waypoints, "(1000)", "MISSX")
	expectIdents(t, "waypoints", fp.Waypoints(), "AAAA", "E1", "APFAF", "RW22R", "(1000)", "MISSX", "ZZZZ")
	if wp := fp.Waypoint(2); wp.Constraint != av.AtAltitude(2000) {
		t.Errorf("got FAF constraint %+v, expected at 2000", wp.Constraint)
	}
	checkPlan(t, fp)

	// Rebuilding doesn't duplicate anything.
	if err := fp.BuildApproach(); err != nil {
		t.Fatal(err)
	}
	expectIdents(t, "waypoints", fp.Waypoints(), "AAAA", "E1", "APFAF", "RW22R", "(1000)", "MISSX", "ZZZZ")
	checkPlan(t, fp)
}

func TestBuildArrival(t *testing.T) {
	fp := makeTestPlan(t)
	if err := fp.AddWaypoint(av.MakeWaypoint("FIXC", fixC)); err != nil {
		t.Fatal(err)
	}
	fp.SetArrivalIndex(0)
	fp.SetArrivalTransitionIndex(0)
	fp.SetApproachIndex(0)
	if fp.Procedures.ArrivalRunwayIndex != 0 {
		t.Errorf("got arrival runway index %d, expected 0", fp.Procedures.ArrivalRunwayIndex)
	}

	if err := fp.BuildArrival(); err != nil {
		t.Fatal(err)
	}
	// The transition starts at the last enroute waypoint, which isn't
	// repeated.
	expectIdents(t, "arrival", fp.Segment(SegmentArrival).Waypoints, "ARRA", "ARRB", "ARRC")
	checkPlan(t, fp)

	if err := fp.BuildApproach(); err != nil {
		t.Fatal(err)
	}
	expectIdents(t, "waypoints", fp.Waypoints(), "AAAA", "FIXC", "ARRA", "ARRB", "ARRC", "APFAF", "RW22R",
		"(1000)", "MISSX", "ZZZZ")
	checkPlan(t, fp)
}

func TestBuildMissingSelections(t *testing.T) {
	fp := makeTestPlan(t, "E1")

	for _, build := range []func() error{fp.BuildDeparture, fp.BuildArrival, fp.BuildApproach} {
		if err := build(); err != nil {
			t.Errorf("unexpected error %v", err)
		}
	}
	if len(fp.Segments) != 1 {
		t.Errorf("got %d segments, expected only enroute", len(fp.Segments))
	}

	// Selections that don't refer to anything contribute no legs.
	fp.SetDepartureIndex(7)
	if err := fp.BuildDeparture(); err != nil {
		t.Fatal(err)
	}
	if fp.HasSegment(SegmentDeparture) {
		t.Errorf("unexpected departure segment")
	}

	fp.SetArrivalIndex(0)
	fp.SetArrivalTransitionIndex(9)
	if err := fp.BuildArrival(); err != nil {
		t.Fatal(err)
	}
	expectIdents(t, "arrival", fp.Segment(SegmentArrival).Waypoints, "ARRB")
	checkPlan(t, fp)
}

func TestSelectionResets(t *testing.T) {
	fp := makeTestPlan(t)
	fp.SetDepartureIndex(0)
	fp.SetDepartureTransitionIndex(0)
	fp.SetDepartureIndex(0)
	if fp.Procedures.DepartureTransitionIndex != -1 {
		t.Errorf("departure transition not reset")
	}

	fp.SetArrivalIndex(0)
	fp.SetArrivalTransitionIndex(0)
	fp.SetArrivalRunwayIndex(0)
	fp.SetArrivalIndex(0)
	if fp.Procedures.ArrivalTransitionIndex != -1 || fp.Procedures.ArrivalRunwayIndex != -1 {
		t.Errorf("arrival selections not reset: %+v", fp.Procedures)
	}

	fp.SetApproachIndex(0)
	fp.SetApproachTransitionIndex(0)
	fp.SetApproachIndex(0)
	if fp.Procedures.ApproachTransitionIndex != -1 {
		t.Errorf("approach transition not reset")
	}
}

func TestRunwayCourseUsesOppositeEnd(t *testing.T) {
	rw9 := av.Runway{Id: "9", Heading: 100, Threshold: math.Point2LL{-73.00, 40.00}, Elevation: 100}
	rw27 := av.Runway{Id: "27", Heading: 280, Threshold: math.Point2LL{-72.95, 40.00}, Elevation: 100}

	for _, test := range []struct {
		name    string
		runways []av.Runway
		climb   float32
		ext     float32
	}{
		// The threshold-to-threshold line is due east, ten degrees off
		// the published heading.
		{name: "both ends", runways: []av.Runway{rw9, rw27}, climb: 90, ext: 270},
		{name: "single end", runways: []av.Runway{rw9}, climb: 100, ext: 280},
	} {
		t.Run(test.name, func(t *testing.T) {
			fp := New()
			info := &av.AirportInfo{Elevation: 100, Runways: test.runways}
			if err := fp.AddWaypoint(av.MakeAirportWaypoint("AAAA", rw9.Threshold, info), AtIndex(0)); err != nil {
				t.Fatal(err)
			}
			if err := fp.AddWaypoint(av.MakeAirportWaypoint("ZZZZ", rw9.Threshold, info)); err != nil {
				t.Fatal(err)
			}

			fp.SetOriginRunwayIndex(0)
			if err := fp.BuildDeparture(); err != nil {
				t.Fatal(err)
			}
			dep := fp.Segment(SegmentDeparture).Waypoints
			expectIdents(t, "departure", dep, "RW09", "(1500)")
			if len(dep) == 2 {
				if h := math.GreatCircleHeading(dep[0].Location, dep[1].Location); math.HeadingDifference(h, test.climb) > 0.5 {
					t.Errorf("got climb bearing %f, expected %f", h, test.climb)
				}
			}

			fp.SetDestinationRunwayIndex(0, 5)
			if err := fp.BuildApproach(); err != nil {
				t.Fatal(err)
			}
			appr := fp.Segment(SegmentApproach).Waypoints
			expectIdents(t, "approach", appr, "RX09", "RW09")
			if len(appr) == 2 {
				if h := math.GreatCircleHeading(appr[1].Location, appr[0].Location); math.HeadingDifference(h, test.ext) > 0.5 {
					t.Errorf("got extension bearing %f, expected %f", h, test.ext)
				}
			}
		})
	}
}
