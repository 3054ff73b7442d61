// flightplan/procedures.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package flightplan

import (
	"fmt"
	"log/slog"
	"slices"

	av "github.com/mmp/fmc/aviation"
	"github.com/mmp/fmc/math"
)

// Selection setters only record the selection; the corresponding Build
// method must be called to update the route. Selecting a procedure resets
// the selections that depend on it.

func (fp *FlightPlan) SetOriginRunwayIndex(i int) {
	fp.Procedures.OriginRunwayIndex = i
	// Pick up the departure's transition for the runway, if it has one.
	if dep := fp.departure(); dep != nil {
		if rwy := fp.originRunway(); rwy != nil {
			fp.Procedures.DepartureRunwayIndex = av.RunwayTransitionIndex(dep.RunwayTransitions, rwy.Id)
		}
	}
}

func (fp *FlightPlan) SetDepartureIndex(i int) {
	fp.Procedures.DepartureIndex = i
	fp.Procedures.DepartureRunwayIndex = -1
	fp.Procedures.DepartureTransitionIndex = -1
	if dep := fp.departure(); dep != nil {
		if rwy := fp.originRunway(); rwy != nil {
			fp.Procedures.DepartureRunwayIndex = av.RunwayTransitionIndex(dep.RunwayTransitions, rwy.Id)
		}
	}
}

func (fp *FlightPlan) SetDepartureRunwayIndex(i int) {
	fp.Procedures.DepartureRunwayIndex = i
}

func (fp *FlightPlan) SetDepartureTransitionIndex(i int) {
	fp.Procedures.DepartureTransitionIndex = i
}

func (fp *FlightPlan) SetArrivalIndex(i int) {
	fp.Procedures.ArrivalIndex = i
	fp.Procedures.ArrivalRunwayIndex = -1
	fp.Procedures.ArrivalTransitionIndex = -1
}

func (fp *FlightPlan) SetArrivalRunwayIndex(i int) {
	fp.Procedures.ArrivalRunwayIndex = i
}

func (fp *FlightPlan) SetArrivalTransitionIndex(i int) {
	fp.Procedures.ArrivalTransitionIndex = i
}

// SetApproachIndex selects an approach; its runway also becomes the
// destination runway and picks the arrival's runway transition.
func (fp *FlightPlan) SetApproachIndex(i int) {
	fp.Procedures.ApproachIndex = i
	fp.Procedures.ApproachTransitionIndex = -1
	if appr := fp.approach(); appr != nil {
		ap := fp.destinationAirport()
		fp.Procedures.DestinationRunwayIndex = ap.RunwayIndex(appr.Runway)
		fp.Procedures.DestinationRunwayExtension = -1
		if arr := fp.arrival(); arr != nil {
			fp.Procedures.ArrivalRunwayIndex = av.RunwayTransitionIndex(arr.RunwayTransitions, appr.Runway)
		}
	}
}

func (fp *FlightPlan) SetApproachTransitionIndex(i int) {
	fp.Procedures.ApproachTransitionIndex = i
}

// SetDestinationRunwayIndex selects the landing runway. extension, if
// positive, is the length in nm of a final approach course to build to the
// runway when no approach is selected.
func (fp *FlightPlan) SetDestinationRunwayIndex(i int, extension float32) {
	fp.Procedures.DestinationRunwayIndex = i
	fp.Procedures.DestinationRunwayExtension = extension
}

///////////////////////////////////////////////////////////////////////////
// Selection resolution. Indices that don't refer to anything resolve to
// nil or no legs.

func airportInfo(wp *av.Waypoint) *av.AirportInfo {
	if wp == nil || !wp.IsAirport() {
		return nil
	}
	return wp.Info.Airport
}

func (fp *FlightPlan) originAirport() *av.AirportInfo      { return airportInfo(fp.Origin) }
func (fp *FlightPlan) destinationAirport() *av.AirportInfo { return airportInfo(fp.Destination) }

func element[T any](s []T, i int) *T {
	if i < 0 || i >= len(s) {
		return nil
	}
	return &s[i]
}

func (fp *FlightPlan) departure() *av.Departure {
	if ap := fp.originAirport(); ap != nil {
		return element(ap.Departures, fp.Procedures.DepartureIndex)
	}
	return nil
}

func (fp *FlightPlan) arrival() *av.Arrival {
	if ap := fp.destinationAirport(); ap != nil {
		return element(ap.Arrivals, fp.Procedures.ArrivalIndex)
	}
	return nil
}

func (fp *FlightPlan) approach() *av.Approach {
	if ap := fp.destinationAirport(); ap != nil {
		return element(ap.Approaches, fp.Procedures.ApproachIndex)
	}
	return nil
}

// originRunway returns the selected departure runway: the explicitly
// selected one, or else the one served by the selected runway transition.
func (fp *FlightPlan) originRunway() *av.Runway {
	ap := fp.originAirport()
	if ap == nil {
		return nil
	}
	if rwy := element(ap.Runways, fp.Procedures.OriginRunwayIndex); rwy != nil {
		return rwy
	}
	if dep := fp.departure(); dep != nil {
		if rt := element(dep.RunwayTransitions, fp.Procedures.DepartureRunwayIndex); rt != nil {
			if rwy, ok := av.GetRunway(ap.Runways, rt.Runway); ok {
				return rwy
			}
		}
	}
	return nil
}

// destinationRunway returns the approach's runway if an approach is
// selected and otherwise the explicitly selected runway.
func (fp *FlightPlan) destinationRunway() *av.Runway {
	ap := fp.destinationAirport()
	if ap == nil {
		return nil
	}
	if appr := fp.approach(); appr != nil {
		if rwy, ok := av.GetRunway(ap.Runways, appr.Runway); ok {
			return rwy
		}
	}
	return element(ap.Runways, fp.Procedures.DestinationRunwayIndex)
}

// DepartureLegs returns the legs of the selected departure: the runway
// transition, then the common route, then the enroute transition.
func (fp *FlightPlan) DepartureLegs() []av.Leg {
	dep := fp.departure()
	if dep == nil {
		return nil
	}
	var legs []av.Leg
	if rt := element(dep.RunwayTransitions, fp.Procedures.DepartureRunwayIndex); rt != nil {
		legs = append(legs, rt.Legs...)
	}
	legs = append(legs, dep.CommonLegs...)
	if t := element(dep.EnrouteTransitions, fp.Procedures.DepartureTransitionIndex); t != nil {
		legs = append(legs, t.Legs...)
	}
	return legs
}

// ArrivalLegs returns the legs of the selected arrival: the enroute
// transition, then the common route, then the runway transition.
func (fp *FlightPlan) ArrivalLegs() []av.Leg {
	arr := fp.arrival()
	if arr == nil {
		return nil
	}
	var legs []av.Leg
	if t := element(arr.EnrouteTransitions, fp.Procedures.ArrivalTransitionIndex); t != nil {
		legs = append(legs, t.Legs...)
	}
	legs = append(legs, arr.CommonLegs...)
	if rt := element(arr.RunwayTransitions, fp.Procedures.ArrivalRunwayIndex); rt != nil {
		legs = append(legs, rt.Legs...)
	}
	return legs
}

// ApproachLegs returns the legs of the selected approach transition
// followed by the final approach legs.
func (fp *FlightPlan) ApproachLegs() []av.Leg {
	appr := fp.approach()
	if appr == nil {
		return nil
	}
	var legs []av.Leg
	if t := element(appr.Transitions, fp.Procedures.ApproachTransitionIndex); t != nil {
		legs = append(legs, t.Legs...)
	}
	return append(legs, appr.FinalLegs...)
}

///////////////////////////////////////////////////////////////////////////
// Building segments

// rebuildStart truncates the segment of the given kind and returns the
// legs that remain to be flown. If the active waypoint is in the segment
// and one of the legs ends at it, the legs through it are dropped since
// those waypoints were kept.
func (fp *FlightPlan) rebuildStart(kind SegmentKind, legs []av.Leg) (partial bool, remaining []av.Leg) {
	fp.TruncateSegment(kind)

	seg := fp.Segment(kind)
	if seg.Absent() {
		return false, legs
	}
	if active := fp.ActiveWaypoint(); active != nil {
		if idx := slices.IndexFunc(legs, func(l av.Leg) bool { return l.Fix == active.Ident }); idx != -1 {
			legs = legs[idx+1:]
		}
	}
	return true, legs
}

// appendExpanded expands the legs after the last waypoint of the segment
// (or the waypoint before it if it is empty) and appends the results to
// the segment.
func (fp *FlightPlan) appendExpanded(seg *Segment, legs []av.Leg) error {
	anchor := fp.Waypoint(seg.End() - 1)
	if anchor == nil {
		anchor = fp.Origin
	}
	idx := seg.End()
	for wp := range NewProcedureExpander(legs, anchor, fp.geo, fp.lg).All() {
		if err := fp.AddWaypoint(wp, AtIndex(idx), InSegment(seg.Kind)); err != nil {
			return err
		}
		idx++
	}
	return nil
}

// runwayCourse returns the true course along the runway. It follows the
// line to the opposite threshold when the airport has that runway and
// falls back to the runway's magnetic heading otherwise.
func (fp *FlightPlan) runwayCourse(ap *av.AirportInfo, rwy *av.Runway) float32 {
	if ap != nil {
		if opp, ok := av.GetRunway(ap.Runways, av.OppositeRunwayId(rwy.Id)); ok && opp.Threshold != rwy.Threshold {
			return fp.geo.Heading(rwy.Threshold, opp.Threshold)
		}
	}
	return magneticToTrue(fp.geo, rwy.Heading, rwy.Threshold)
}

func runwayWaypoint(rwy *av.Runway) *av.Waypoint {
	wp := av.MakeWaypoint(rwy.Ident(), rwy.Threshold)
	wp.Altitude = float32(rwy.Elevation)
	wp.SetRunway(true)
	return wp
}

// BuildDeparture rebuilds the departure segment from the selected
// departure and runway. With a runway but no departure, the segment is
// the runway followed by a climb fix straight out.
func (fp *FlightPlan) BuildDeparture() error {
	partial, legs := fp.rebuildStart(SegmentDeparture, fp.DepartureLegs())
	rwy := fp.originRunway()
	if len(legs) == 0 && rwy == nil {
		fp.lg.Debug("no departure to build")
		return nil
	}

	seg, err := fp.AddSegment(SegmentDeparture)
	if err != nil {
		return err
	}

	if !partial && rwy != nil {
		if err := fp.AddWaypoint(runwayWaypoint(rwy), AtIndex(seg.Offset), InSegment(SegmentDeparture)); err != nil {
			return err
		}
	}

	if fp.departure() == nil {
		if rwy != nil && !partial {
			dist := float32(InitialClimbAltitude) / ClimbGradient
			hdg := fp.runwayCourse(fp.originAirport(), rwy)
			alt := float32(rwy.Elevation + InitialClimbAltitude)
			wp := av.MakeWaypoint(fmt.Sprintf("(%d)", InitialClimbAltitude),
				math.GreatCircleOffset(rwy.Threshold, hdg, dist))
			wp.Altitude = alt
			wp.Constraint = av.AltitudeConstraint{Description: av.AltitudeAtOrAbove, Altitude1: alt}
			wp.MarkDiscontinuity(true)
			if err := fp.AddWaypoint(wp, AtIndex(seg.End()), InSegment(SegmentDeparture)); err != nil {
				return err
			}
		}
	} else if err := fp.appendExpanded(seg, legs); err != nil {
		return err
	}
	fp.removeIfEmpty(SegmentDeparture)

	fp.lg.Info("built departure", slog.Any("segment", fp.Segment(SegmentDeparture)))
	return nil
}

// BuildArrival rebuilds the arrival segment from the selected arrival
// and its transitions.
func (fp *FlightPlan) BuildArrival() error {
	_, legs := fp.rebuildStart(SegmentArrival, fp.ArrivalLegs())
	if len(legs) == 0 {
		fp.lg.Debug("no arrival to build")
		return nil
	}

	seg, err := fp.AddSegment(SegmentArrival)
	if err != nil {
		return err
	}
	if err := fp.appendExpanded(seg, legs); err != nil {
		return err
	}
	fp.removeIfEmpty(SegmentArrival)

	fp.lg.Info("built arrival", slog.Any("segment", fp.Segment(SegmentArrival)))
	return nil
}

// BuildApproach rebuilds the approach segment from the selected approach
// and destination runway, ending at the runway threshold, and the
// missed approach segment from the approach's missed approach legs.
func (fp *FlightPlan) BuildApproach() error {
	fp.TruncateSegment(SegmentMissed)
	partial, legs := fp.rebuildStart(SegmentApproach, fp.ApproachLegs())
	rwy := fp.destinationRunway()
	if len(legs) == 0 && rwy == nil {
		fp.lg.Debug("no approach to build")
		return nil
	}

	seg, err := fp.AddSegment(SegmentApproach)
	if err != nil {
		return err
	}
	if err := fp.appendExpanded(seg, legs); err != nil {
		return err
	}

	if rwy != nil && !(partial && fp.hasRunwayWaypoint(seg)) {
		if fp.approach() == nil && fp.Procedures.DestinationRunwayExtension > 0 {
			ext := fp.Procedures.DestinationRunwayExtension
			hdg := fp.runwayCourse(fp.destinationAirport(), rwy)
			p := math.GreatCircleOffset(rwy.Threshold, math.OppositeHeading(hdg), ext)
			wp := av.MakeWaypoint("RX"+rwy.Ident()[2:], p)
			// Roughly a three degree glidepath.
			wp.Altitude = float32(rwy.Elevation) + 100*math.Floor(ext*318/100)
			wp.Constraint = av.AltitudeConstraint{Description: av.AltitudeAtOrAbove, Altitude1: wp.Altitude}
			if err := fp.AddWaypoint(wp, AtIndex(seg.End()), InSegment(SegmentApproach)); err != nil {
				return err
			}
		}

		wp := runwayWaypoint(rwy)
		wp.Constraint = av.AtAltitude(float32(rwy.Elevation + GoAroundMargin))
		if err := fp.AddWaypoint(wp, AtIndex(seg.End()), InSegment(SegmentApproach)); err != nil {
			return err
		}
	}
	fp.removeIfEmpty(SegmentApproach)

	if appr := fp.approach(); appr != nil && len(appr.MissedLegs) > 0 {
		missed, err := fp.AddSegment(SegmentMissed)
		if err != nil {
			return err
		}
		if err := fp.appendExpanded(missed, appr.MissedLegs); err != nil {
			return err
		}
		fp.removeIfEmpty(SegmentMissed)
	}

	fp.lg.Info("built approach", slog.Any("segment", fp.Segment(SegmentApproach)),
		slog.Any("missed", fp.Segment(SegmentMissed)))
	return nil
}

func (fp *FlightPlan) hasRunwayWaypoint(seg *Segment) bool {
	return slices.ContainsFunc(seg.Waypoints, func(wp *av.Waypoint) bool { return wp.IsRunway() })
}

// removeIfEmpty deletes a procedure segment that ended up with no
// waypoints, for example when none of its legs could be constructed.
func (fp *FlightPlan) removeIfEmpty(kind SegmentKind) {
	if seg := fp.Segment(kind); !seg.Absent() && seg.Len() == 0 && kind != SegmentEnroute {
		fp.RemoveSegment(kind)
	}
}
