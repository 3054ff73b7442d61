// flightplan/expander.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package flightplan

import (
	"fmt"
	"iter"
	"log/slog"

	av "github.com/mmp/fmc/aviation"
	"github.com/mmp/fmc/log"
	"github.com/mmp/fmc/math"
)

const (
	// ClimbGradient is the climb performance assumed when placing
	// altitude-terminated legs, in feet per nm.
	ClimbGradient = 500
	// InitialClimbAltitude is the height above the runway of the climb
	// fix added when a runway is selected without a departure.
	InitialClimbAltitude = 1500
	// GoAroundMargin is added to the runway elevation for the runway
	// waypoint's altitude constraint.
	GoAroundMargin = 50
	// ManualLegLength is how far along the course a manually-terminated
	// leg's waypoint is placed, in nm.
	ManualLegLength = 1
	// MaxDMESearch bounds the along-course search for DME-terminated legs,
	// in nm.
	MaxDMESearch = 100
	// LegSpeed is the groundspeed assumed for timed legs, in knots.
	LegSpeed = 180
)

// ProcedureExpander turns procedure legs into waypoints, one leg at a
// time, starting from an anchor waypoint. Legs that end at fixes give
// those fixes; other legs give waypoints constructed along the leg's
// course. Legs that can't be constructed give no waypoints.
type ProcedureExpander struct {
	legs    []av.Leg
	geo     Geodesy
	lg      *log.Logger
	next    int
	pending []*av.Waypoint

	pos      math.Point2LL
	altitude float32
	anchor   *av.Waypoint
	last     *av.Waypoint
}

func NewProcedureExpander(legs []av.Leg, anchor *av.Waypoint, geo Geodesy, lg *log.Logger) *ProcedureExpander {
	e := &ProcedureExpander{legs: legs, geo: geo, lg: lg}
	if anchor != nil {
		e.pos = anchor.Location
		e.altitude = anchor.Altitude
		e.anchor, e.last = anchor, anchor
	}
	return e
}

// Next returns the next waypoint, or false when the legs are exhausted.
func (e *ProcedureExpander) Next() (*av.Waypoint, bool) {
	for len(e.pending) == 0 {
		if e.next >= len(e.legs) {
			return nil, false
		}
		i := e.next
		e.next++
		e.expand(i)
	}

	wp := e.pending[0]
	e.pending = e.pending[1:]
	return wp, true
}

// All returns the remaining waypoints as a sequence.
func (e *ProcedureExpander) All() iter.Seq[*av.Waypoint] {
	return func(yield func(*av.Waypoint) bool) {
		for {
			wp, ok := e.Next()
			if !ok || !yield(wp) {
				return
			}
		}
	}
}

func (e *ProcedureExpander) emit(wp *av.Waypoint) {
	if wp.Constraint.Valid() {
		e.altitude = wp.Constraint.TargetAltitude(e.altitude)
	}
	e.pos = wp.Location
	e.last = wp
	e.pending = append(e.pending, wp)
}

func (e *ProcedureExpander) fail(leg av.Leg, reason string) {
	e.lg.Warn("unable to construct leg", slog.String("leg", leg.String()), slog.String("reason", reason))
}

func (e *ProcedureExpander) trueCourse(leg av.Leg, p math.Point2LL) float32 {
	return magneticToTrue(e.geo, leg.Course, p)
}

func (e *ProcedureExpander) fixWaypoint(leg av.Leg) *av.Waypoint {
	wp := &av.Waypoint{
		Ident:      leg.Fix,
		ICAO:       leg.FixICAO,
		Location:   leg.FixLocation,
		Constraint: leg.Constraint,
	}
	if leg.Constraint.Valid() {
		wp.Altitude = leg.Constraint.TargetAltitude(e.altitude)
	}
	wp.SetFlyOver(leg.FlyOver)

	switch leg.FixKind {
	case av.InfoVOR:
		wp.Info = av.WaypointInfo{Kind: av.InfoVOR, VOR: &av.NavaidInfo{}}
	case av.InfoNDB:
		wp.Info = av.WaypointInfo{Kind: av.InfoNDB, NDB: &av.NavaidInfo{}}
	case av.InfoIntersection:
		wp.Info = av.WaypointInfo{Kind: av.InfoIntersection, Intersection: &av.IntersectionInfo{}}
	default:
		wp.Info = av.WaypointInfo{Kind: av.InfoGeneric}
	}
	return wp
}

// ensureFix emits the leg's fix unless the previous waypoint is already
// there. Consecutive legs often repeat the fix that joins them, for
// example at the end of a transition and the start of the common route.
func (e *ProcedureExpander) ensureFix(leg av.Leg) bool {
	if !leg.HasFix() {
		e.fail(leg, "fix not resolved")
		return false
	}
	if e.last != nil && e.last.Ident == leg.Fix && e.last.Location == leg.FixLocation {
		if e.last != e.anchor && leg.Constraint.Valid() && e.last.Constraint != leg.Constraint {
			e.last.Constraint = leg.Constraint
			e.altitude = leg.Constraint.TargetAltitude(e.altitude)
		}
		return true
	}
	e.emit(e.fixWaypoint(leg))
	return true
}

// startFix returns the fix a leg starts from; the leg's constraint
// applies to where it ends, not to the fix.
func startFix(leg av.Leg) av.Leg {
	leg.Constraint = av.AltitudeConstraint{}
	leg.FlyOver = false
	return leg
}

func constructed(ident string, p math.Point2LL, leg av.Leg) *av.Waypoint {
	wp := av.MakeWaypoint(ident, p)
	wp.Constraint = leg.Constraint
	return wp
}

func (e *ProcedureExpander) expand(i int) {
	leg := e.legs[i]

	switch leg.Type {
	case av.PathTerminatorIF, av.PathTerminatorTF, av.PathTerminatorCF, av.PathTerminatorDF,
		av.PathTerminatorAF, av.PathTerminatorRF, av.PathTerminatorHA, av.PathTerminatorHF,
		av.PathTerminatorHM, av.PathTerminatorPI:
		e.ensureFix(leg)

	case av.PathTerminatorCA, av.PathTerminatorVA:
		e.courseToAltitude(leg, e.pos)

	case av.PathTerminatorFA:
		if e.ensureFix(startFix(leg)) {
			e.courseToAltitude(leg, leg.FixLocation)
		}

	case av.PathTerminatorFC:
		if e.ensureFix(startFix(leg)) {
			dist := leg.Distance
			if leg.DistanceIsTime {
				dist = leg.Distance * LegSpeed / 60
			}
			p := math.GreatCircleOffset(leg.FixLocation, e.trueCourse(leg, leg.FixLocation), dist)
			e.emit(constructed(fmt.Sprintf("%s/%02d", leg.Fix, int(dist+0.5)), p, leg))
		}

	case av.PathTerminatorCD, av.PathTerminatorVD:
		e.courseToDME(leg, e.pos)

	case av.PathTerminatorFD:
		if e.ensureFix(startFix(leg)) {
			e.courseToDME(leg, leg.FixLocation)
		}

	case av.PathTerminatorCR, av.PathTerminatorVR:
		if !leg.HasNavaid() {
			e.fail(leg, "navaid not resolved")
			return
		}
		radial := magneticToTrue(e.geo, leg.Theta, leg.NavaidLocation)
		p, ok := math.CourseIntersection(e.pos, e.trueCourse(leg, e.pos), leg.NavaidLocation, radial)
		if !ok {
			e.fail(leg, "course does not intercept radial")
			return
		}
		e.emit(constructed(fmt.Sprintf("%s%03d", leg.Navaid, int(leg.Theta+0.5)), p, leg))

	case av.PathTerminatorCI, av.PathTerminatorVI:
		e.courseToIntercept(i)

	case av.PathTerminatorFM, av.PathTerminatorVM:
		start := e.pos
		if leg.Type == av.PathTerminatorFM {
			if !e.ensureFix(startFix(leg)) {
				return
			}
			start = leg.FixLocation
		}
		p := math.GreatCircleOffset(start, e.trueCourse(leg, start), ManualLegLength)
		wp := constructed("(VECT)", p, leg)
		wp.MarkDiscontinuity(true)
		wp.SetVectorsToFinal(leg.Type == av.PathTerminatorVM)
		e.emit(wp)

	default:
		e.fail(leg, "unsupported leg type")
	}
}

func (e *ProcedureExpander) courseToAltitude(leg av.Leg, start math.Point2LL) {
	target := leg.Constraint.TargetAltitude(e.altitude)
	if !leg.Constraint.Valid() || target <= e.altitude {
		e.lg.Debug("altitude leg already satisfied", slog.String("leg", leg.String()),
			slog.Float64("altitude", float64(e.altitude)))
		return
	}

	dist := (target - e.altitude) / ClimbGradient
	p := math.GreatCircleOffset(start, e.trueCourse(leg, start), dist)
	wp := constructed(fmt.Sprintf("(%d)", int(target)), p, leg)
	wp.Altitude = target
	e.emit(wp)
}

// courseToDME follows the leg's course from start until reaching the
// leg's distance from its navaid.
func (e *ProcedureExpander) courseToDME(leg av.Leg, start math.Point2LL) {
	if !leg.HasNavaid() {
		e.fail(leg, "navaid not resolved")
		return
	}

	crs := e.trueCourse(leg, start)
	f := func(s float32) float32 {
		return e.geo.Distance(math.GreatCircleOffset(start, crs, s), leg.NavaidLocation) - leg.Distance
	}

	// Step along the course until the sign changes, then bisect.
	const step = 0.5
	lo, flo := float32(0), f(0)
	for hi := float32(step); hi <= MaxDMESearch; hi += step {
		fhi := f(hi)
		if (flo <= 0) != (fhi <= 0) {
			for range 24 {
				mid := (lo + hi) / 2
				if fmid := f(mid); (flo <= 0) == (fmid <= 0) {
					lo, flo = mid, fmid
				} else {
					hi = mid
				}
			}
			p := math.GreatCircleOffset(start, crs, (lo+hi)/2)
			e.emit(constructed(fmt.Sprintf("%s/%02d", leg.Navaid, int(leg.Distance+0.5)), p, leg))
			return
		}
		lo, flo = hi, fhi
	}
	e.fail(leg, "course never reaches DME distance")
}

// courseToIntercept follows the leg's course until it intercepts the
// inbound course of the following leg.
func (e *ProcedureExpander) courseToIntercept(i int) {
	leg := e.legs[i]
	if i+1 >= len(e.legs) || !e.legs[i+1].HasFix() {
		e.lg.Debug("intercept leg without following fix", slog.String("leg", leg.String()))
		return
	}
	next := e.legs[i+1]

	switch next.Type {
	case av.PathTerminatorCF, av.PathTerminatorFA, av.PathTerminatorFC, av.PathTerminatorFD, av.PathTerminatorFM:
	default:
		// Without a course to intercept, the following leg goes direct.
		e.lg.Debug("intercept leg followed by leg without course", slog.String("leg", leg.String()),
			slog.String("next", next.String()))
		return
	}
	inbound := magneticToTrue(e.geo, next.Course, next.FixLocation)

	p, ok := math.CourseIntersection(e.pos, e.trueCourse(leg, e.pos), next.FixLocation, math.OppositeHeading(inbound))
	if !ok {
		e.fail(leg, "course does not intercept following leg")
		return
	}
	e.emit(constructed("(INTC)", p, leg))
}
