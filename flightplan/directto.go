// flightplan/directto.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package flightplan

import (
	"log/slog"

	av "github.com/mmp/fmc/aviation"
	"github.com/mmp/fmc/math"
)

// PositionProvider supplies the aircraft's current position.
type PositionProvider interface {
	Position() (math.Point2LL, bool)
}

// PositionFunc adapts a function to PositionProvider.
type PositionFunc func() (math.Point2LL, bool)

func (f PositionFunc) Position() (math.Point2LL, bool) { return f() }

// FixedPosition is a PositionProvider that always returns the same
// position.
type FixedPosition math.Point2LL

func (p FixedPosition) Position() (math.Point2LL, bool) { return math.Point2LL(p), true }

// AddDirectTo proceeds directly from the current position to the waypoint
// at index i. A turn point at the current position is inserted before it
// and the target becomes the active waypoint. Waypoints between the old
// active waypoint and the target are marked as passed but are left in the
// plan.
func (fp *FlightPlan) AddDirectTo(i int, pp PositionProvider) error {
	if fp.Origin != nil && i == 0 {
		return ErrDirectToOrigin
	}
	target := fp.Waypoint(i)
	if target == nil {
		return ErrNoWaypoint
	}
	if pp == nil {
		return ErrNoPosition
	}
	pos, ok := pp.Position()
	if !ok {
		return ErrNoPosition
	}

	oldActive := fp.ActiveWaypointIndex

	tp := av.MakeWaypoint("T-P", pos)
	tp.SetTurnPoint(true)
	if active := fp.ActiveWaypoint(); active != nil {
		tp.Altitude = active.Altitude
	}
	if err := fp.AddWaypoint(tp, AtIndex(i)); err != nil {
		return err
	}
	tp.ClearDiscontinuityFlags()

	// The turn point may have landed somewhere other than i if i was past
	// the end of its segment.
	tpIndex := fp.IndexOf(tp)
	targetIndex := fp.IndexOf(target)

	for j := oldActive; j < tpIndex; j++ {
		if wp := fp.Waypoint(j); wp != nil && wp != fp.Origin {
			wp.SetPassed(true)
		}
	}
	fp.SetActiveWaypointIndex(targetIndex)
	fp.ReflowDistances()

	hdg := fp.geo.Heading(pos, target.Location)
	fp.DirectTo = DirectTo{
		Active:          true,
		TargetIdent:     target.Ident,
		TargetIndex:     targetIndex,
		TurnPoint:       pos,
		InterceptPoints: []math.Point2LL{pos, target.Location},
		Course:          math.NormalizeHeading(trueToMagnetic(fp.geo, hdg, pos)),
	}

	fp.lg.Info("direct to", slog.String("target", target.Ident), slog.Int("index", targetIndex),
		slog.Float64("course", float64(fp.DirectTo.Course)))
	return nil
}
