// flightplan/directto_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package flightplan

import (
	"errors"
	"testing"

	"github.com/mmp/fmc/math"
)

func TestAddDirectTo(t *testing.T) {
	fp := makeTestPlan(t, "E1", "E2", "E3")
	fp.Waypoint(2).MarkDiscontinuity(true)
	pos := math.Point2LL{-72.6, 40.4}

	if err := fp.AddDirectTo(3, FixedPosition(pos)); err != nil {
		t.Fatal(err)
	}
	expectIdents(t, "waypoints", fp.Waypoints(), "AAAA", "E1", "E2", "T-P", "E3", "ZZZZ")

	if a := fp.ActiveWaypoint(); a == nil || a.Ident != "E3" {
		t.Errorf("got active %v, expected E3", a)
	}
	tp := fp.Waypoint(3)
	if !tp.TurnPoint() || tp.Location != pos {
		t.Errorf("got turn point %+v, expected at %v", tp, pos)
	}
	if tp.Discontinuity() || fp.Waypoint(2).Discontinuity() {
		t.Errorf("expected no discontinuity before the direct-to leg")
	}
	for _, i := range []int{1, 2} {
		if !fp.Waypoint(i).Passed() {
			t.Errorf("expected %s to be passed", fp.Waypoint(i).Ident)
		}
	}
	if fp.Waypoint(4).Passed() || fp.Origin.Passed() {
		t.Errorf("unexpected waypoints marked as passed")
	}

	dt := fp.DirectTo
	if !dt.Active || dt.TargetIdent != "E3" || dt.TargetIndex != 4 || dt.TurnPoint != pos {
		t.Errorf("got direct-to %+v", dt)
	}
	if h := math.GreatCircleHeading(pos, fp.Waypoint(4).Location); math.HeadingDifference(h, dt.Course) > 0.01 {
		t.Errorf("got course %f, expected %f", dt.Course, h)
	}
	if len(dt.InterceptPoints) != 2 {
		t.Errorf("got %d intercept points, expected 2", len(dt.InterceptPoints))
	}
	checkPlan(t, fp)
}

func TestAddDirectToDestination(t *testing.T) {
	fp := makeTestPlan(t, "E1")
	n := fp.Length()
	if err := fp.AddDirectTo(n-1, FixedPosition{-72, 40.5}); err != nil {
		t.Fatal(err)
	}
	expectIdents(t, "waypoints", fp.Waypoints(), "AAAA", "E1", "T-P", "ZZZZ")
	if a := fp.ActiveWaypoint(); a != fp.Destination {
		t.Errorf("got active %v, expected destination", a)
	}
	checkPlan(t, fp)
}

func TestAddDirectToErrors(t *testing.T) {
	fp := makeTestPlan(t, "E1")
	pos := FixedPosition{-72, 40.5}

	if err := fp.AddDirectTo(0, pos); !errors.Is(err, ErrDirectToOrigin) {
		t.Errorf("got %v, expected %v", err, ErrDirectToOrigin)
	}
	if err := fp.AddDirectTo(10, pos); !errors.Is(err, ErrNoWaypoint) {
		t.Errorf("got %v, expected %v", err, ErrNoWaypoint)
	}
	noPos := PositionFunc(func() (math.Point2LL, bool) { return math.Point2LL{}, false })
	if err := fp.AddDirectTo(1, noPos); !errors.Is(err, ErrNoPosition) {
		t.Errorf("got %v, expected %v", err, ErrNoPosition)
	}
	if err := fp.AddDirectTo(1, nil); !errors.Is(err, ErrNoPosition) {
		t.Errorf("got %v, expected %v", err, ErrNoPosition)
	}
	if fp.Length() != 3 || fp.DirectTo.Active {
		t.Errorf("plan modified by failed direct-to")
	}
}

func TestReverse(t *testing.T) {
	fp := makeTestPlan(t, "E1", "E2")
	fp.SetOriginRunwayIndex(0)
	if err := fp.BuildDeparture(); err != nil {
		t.Fatal(err)
	}
	fp.Waypoint(fp.IndexOf(fp.Segment(SegmentEnroute).Waypoints[0])).MarkDiscontinuity(false)

	fp.Reverse()

	expectIdents(t, "waypoints", fp.Waypoints(), "ZZZZ", "E2", "E1", "AAAA")
	if fp.HasSegment(SegmentDeparture) {
		t.Errorf("departure segment not removed")
	}
	if fp.Procedures != MakeProcedureSelection() {
		t.Errorf("got procedures %+v, expected none selected", fp.Procedures)
	}
	if fp.ActiveWaypointIndex != 1 {
		t.Errorf("got active %d, expected 1", fp.ActiveWaypointIndex)
	}
	// The break between E1 and E2 is now after E2.
	if e2 := fp.Waypoint(1); !e2.Discontinuity() || e2.DiscontinuityClearable() {
		t.Errorf("expected non-clearable discontinuity on E2")
	}
	if fp.Waypoint(2).Discontinuity() {
		t.Errorf("unexpected discontinuity on E1")
	}
	if fp.Origin.Distance != 0 || fp.Waypoint(1).Distance == 0 {
		t.Errorf("distances not reflowed")
	}
	checkPlan(t, fp)

	fp.Reverse()
	expectIdents(t, "waypoints", fp.Waypoints(), "AAAA", "E1", "E2", "ZZZZ")
	checkPlan(t, fp)
}
