// aviation/waypoint.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package aviation

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/mmp/fmc/math"

	"github.com/brunoga/deep"
)

type WaypointFlags uint32

const (
	WaypointFlagRunway WaypointFlags = 1 << iota
	WaypointFlagVectorsToFinal
	WaypointFlagDiscontinuity
	WaypointFlagDiscontinuityClearable
	WaypointFlagFlyOver
	WaypointFlagTurnPoint
	WaypointFlagPassed
)

// Waypoint is a single point in a flight plan. Bearing, Distance, and
// CumulativeDistance describe the leg that ends at the waypoint; they are
// recomputed whenever the plan's structure changes.
type Waypoint struct {
	Ident      string
	ICAO       string // empty for constructed and user waypoints
	Location   math.Point2LL
	Altitude   float32
	Constraint AltitudeConstraint
	Flags      WaypointFlags
	Info       WaypointInfo

	Bearing            float32 // inbound, magnetic
	Distance           float32 // nm
	CumulativeDistance float32 // nm
}

// Flag readers (value receiver)
func (wp Waypoint) IsRunway() bool               { return wp.Flags&WaypointFlagRunway != 0 }
func (wp Waypoint) VectorsToFinal() bool         { return wp.Flags&WaypointFlagVectorsToFinal != 0 }
func (wp Waypoint) Discontinuity() bool          { return wp.Flags&WaypointFlagDiscontinuity != 0 }
func (wp Waypoint) DiscontinuityClearable() bool { return wp.Flags&WaypointFlagDiscontinuityClearable != 0 }
func (wp Waypoint) FlyOver() bool                { return wp.Flags&WaypointFlagFlyOver != 0 }
func (wp Waypoint) TurnPoint() bool              { return wp.Flags&WaypointFlagTurnPoint != 0 }
func (wp Waypoint) Passed() bool                 { return wp.Flags&WaypointFlagPassed != 0 }

func (wp Waypoint) IsAirport() bool { return wp.Info.Kind == InfoAirport }

// Flag setters (pointer receiver)
func (wp *Waypoint) setFlag(f WaypointFlags, v bool) {
	if v {
		wp.Flags |= f
	} else {
		wp.Flags &^= f
	}
}

func (wp *Waypoint) SetRunway(v bool)                 { wp.setFlag(WaypointFlagRunway, v) }
func (wp *Waypoint) SetVectorsToFinal(v bool)         { wp.setFlag(WaypointFlagVectorsToFinal, v) }
func (wp *Waypoint) SetDiscontinuity(v bool)          { wp.setFlag(WaypointFlagDiscontinuity, v) }
func (wp *Waypoint) SetDiscontinuityClearable(v bool) { wp.setFlag(WaypointFlagDiscontinuityClearable, v) }
func (wp *Waypoint) SetFlyOver(v bool)                { wp.setFlag(WaypointFlagFlyOver, v) }
func (wp *Waypoint) SetTurnPoint(v bool)              { wp.setFlag(WaypointFlagTurnPoint, v) }
func (wp *Waypoint) SetPassed(v bool)                 { wp.setFlag(WaypointFlagPassed, v) }

// MarkDiscontinuity flags the waypoint as the last one before a break in
// the route.
func (wp *Waypoint) MarkDiscontinuity(clearable bool) {
	wp.SetDiscontinuity(true)
	wp.SetDiscontinuityClearable(clearable)
}

func (wp *Waypoint) ClearDiscontinuityFlags() {
	wp.Flags &^= WaypointFlagDiscontinuity | WaypointFlagDiscontinuityClearable
}

// ResetLeg zeroes the fields computed when distances are reflowed.
func (wp *Waypoint) ResetLeg() {
	wp.Bearing, wp.Distance, wp.CumulativeDistance = 0, 0, 0
}

// Copy returns a deep copy of the waypoint; nothing is shared with the
// original, including the airport and navaid info.
func (wp *Waypoint) Copy() *Waypoint {
	if wp == nil {
		return nil
	}
	c := deep.MustCopy(*wp)
	return &c
}

func (wp Waypoint) String() string {
	s := wp.Ident
	if wp.Constraint.Valid() {
		s += "/" + wp.Constraint.Encoded()
	}
	if wp.Discontinuity() {
		s += " DISCO"
	}
	return s
}

func (wp Waypoint) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("ident", wp.Ident),
		slog.String("kind", wp.Info.Kind.String()),
		slog.String("location", wp.Location.DDString()),
	}
	if wp.ICAO != "" {
		attrs = append(attrs, slog.String("icao", wp.ICAO))
	}
	if wp.Constraint.Valid() {
		attrs = append(attrs, slog.String("constraint", wp.Constraint.Encoded()))
	}
	if wp.Flags != 0 {
		attrs = append(attrs, slog.String("flags", fmt.Sprintf("%#x", wp.Flags)))
	}
	attrs = append(attrs, slog.Float64("bearing", float64(wp.Bearing)),
		slog.Float64("distance", float64(wp.Distance)),
		slog.Float64("cumulative_distance", float64(wp.CumulativeDistance)))
	return slog.GroupValue(attrs...)
}

// MakeWaypoint returns a generic waypoint at the given location.
func MakeWaypoint(ident string, p math.Point2LL) *Waypoint {
	return &Waypoint{Ident: ident, Location: p, Info: WaypointInfo{Kind: InfoGeneric}}
}

// MakeAirportWaypoint returns a waypoint for the given airport; icao is
// used for both its identifier and ICAO code.
func MakeAirportWaypoint(icao string, p math.Point2LL, ap *AirportInfo) *Waypoint {
	if ap == nil {
		ap = &AirportInfo{}
	}
	return &Waypoint{
		Ident:    icao,
		ICAO:     icao,
		Location: p,
		Altitude: ap.Elevation,
		Info:     WaypointInfo{Kind: InfoAirport, Airport: ap},
	}
}

///////////////////////////////////////////////////////////////////////////
// AltitudeConstraint

type AltitudeDescription uint8

const (
	AltitudeUnconstrained AltitudeDescription = iota
	AltitudeAt
	AltitudeAtOrAbove
	AltitudeAtOrBelow
	AltitudeBetween
)

// AltitudeConstraint is a leg altitude restriction. For AltitudeBetween,
// Altitude1 is the upper limit and Altitude2 the lower, matching the
// order they are given in ARINC-424.
type AltitudeConstraint struct {
	Description AltitudeDescription
	Altitude1   float32
	Altitude2   float32
}

func (ac AltitudeConstraint) Valid() bool {
	return ac.Description != AltitudeUnconstrained
}

// Encoded returns the constraint in the conventional compact form:
// "5000", "5000+", "5000-", or "7000-5000" for a block.
func (ac AltitudeConstraint) Encoded() string {
	f := func(v float32) string { return strconv.Itoa(int(v)) }
	switch ac.Description {
	case AltitudeAt:
		return f(ac.Altitude1)
	case AltitudeAtOrAbove:
		return f(ac.Altitude1) + "+"
	case AltitudeAtOrBelow:
		return f(ac.Altitude1) + "-"
	case AltitudeBetween:
		return f(ac.Altitude1) + "-" + f(ac.Altitude2)
	default:
		return ""
	}
}

// TargetAltitude returns the altitude an aircraft should plan to cross
// the constrained point at, given its current altitude.
func (ac AltitudeConstraint) TargetAltitude(alt float32) float32 {
	switch ac.Description {
	case AltitudeAt:
		return ac.Altitude1
	case AltitudeAtOrAbove:
		return max(alt, ac.Altitude1)
	case AltitudeAtOrBelow:
		return min(alt, ac.Altitude1)
	case AltitudeBetween:
		return math.Clamp(alt, ac.Altitude2, ac.Altitude1)
	default:
		return alt
	}
}

func AtAltitude(alt float32) AltitudeConstraint {
	return AltitudeConstraint{Description: AltitudeAt, Altitude1: alt}
}
