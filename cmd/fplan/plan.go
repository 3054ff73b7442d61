// cmd/fplan/plan.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"errors"
	"fmt"
	"slices"

	av "github.com/mmp/fmc/aviation"
	"github.com/mmp/fmc/flightplan"
	"github.com/mmp/fmc/math"
)

var (
	errNoOrigin         = errors.New("No origin airport given")
	errNoDestination    = errors.New("No destination airport given")
	errNoPosition       = errors.New("-position must be given for -direct")
	errInvalidPosition  = errors.New("Invalid position")
	errWaypointNotFound = errors.New("Waypoint not found in flight plan")
)

// PlanRequest describes a flight plan by name; empty fields are left
// unselected.
type PlanRequest struct {
	Origin, Destination string
	Route               []string
	CruiseAltitude      int

	DepartureRunway     string
	Departure           string
	DepartureTransition string

	Arrival            string
	ArrivalTransition  string
	Approach           string
	ApproachTransition string
	ArrivalRunway      string
	RunwayExtension    float32

	DirectTo string
	Position string
	Reverse  bool
}

type navDatabase interface {
	Airport(icao string) (*av.Waypoint, error)
	LookupFix(id string) (*av.Waypoint, error)
	LookupRunway(icao, rwy string) (av.Runway, error)
}

// runwayIndex resolves a runway name through the database and returns
// its index in the airport's runway list.
func runwayIndex(db navDatabase, icao string, ap *av.AirportInfo, name string) (int, error) {
	rwy, err := db.LookupRunway(icao, name)
	if err != nil {
		return -1, err
	}
	i := slices.IndexFunc(ap.Runways, func(r av.Runway) bool { return r.Id == rwy.Id })
	if i == -1 {
		return -1, fmt.Errorf("%s: %s: %w", icao, name, av.ErrUnknownRunway)
	}
	return i, nil
}

func buildPlan(db navDatabase, req PlanRequest, opts ...flightplan.Option) (*flightplan.FlightPlan, error) {
	fp := flightplan.New(opts...)
	fp.CruiseAltitude = req.CruiseAltitude

	if req.Origin != "" {
		wp, err := db.Airport(req.Origin)
		if err != nil {
			return nil, err
		}
		if err := fp.AddWaypoint(wp, flightplan.AtIndex(0)); err != nil {
			return nil, err
		}
	}
	for _, id := range req.Route {
		wp, err := db.LookupFix(id)
		if err != nil {
			return nil, err
		}
		if err := fp.AddWaypoint(wp, flightplan.InSegment(flightplan.SegmentEnroute)); err != nil {
			return nil, fmt.Errorf("%s: %w", id, err)
		}
	}
	if req.Destination != "" {
		wp, err := db.Airport(req.Destination)
		if err != nil {
			return nil, err
		}
		if err := fp.AddWaypoint(wp); err != nil {
			return nil, err
		}
	}

	if err := selectDeparture(db, fp, req); err != nil {
		return nil, err
	}
	if err := selectArrival(db, fp, req); err != nil {
		return nil, err
	}

	if req.DirectTo != "" {
		if err := directTo(fp, req); err != nil {
			return nil, err
		}
	}
	if req.Reverse {
		fp.Reverse()
	}
	return fp, nil
}

func selectDeparture(db navDatabase, fp *flightplan.FlightPlan, req PlanRequest) error {
	if req.DepartureRunway == "" && req.Departure == "" {
		return nil
	}
	if fp.Origin == nil {
		return errNoOrigin
	}
	ap := fp.Origin.Info.Airport

	if req.DepartureRunway != "" {
		i, err := runwayIndex(db, fp.Origin.Ident, ap, req.DepartureRunway)
		if err != nil {
			return err
		}
		fp.SetOriginRunwayIndex(i)
	}
	if req.Departure != "" {
		i := ap.DepartureIndex(req.Departure)
		if i == -1 {
			return fmt.Errorf("%s: %s: %w", fp.Origin.Ident, req.Departure, av.ErrUnknownProcedure)
		}
		fp.SetDepartureIndex(i)

		if req.DepartureTransition != "" {
			ti := av.TransitionIndex(ap.Departures[i].EnrouteTransitions, req.DepartureTransition)
			if ti == -1 {
				return fmt.Errorf("%s: %s: %w", req.Departure, req.DepartureTransition, av.ErrUnknownTransition)
			}
			fp.SetDepartureTransitionIndex(ti)
		}
	}
	return fp.BuildDeparture()
}

func selectArrival(db navDatabase, fp *flightplan.FlightPlan, req PlanRequest) error {
	if req.Arrival == "" && req.Approach == "" && req.ArrivalRunway == "" {
		return nil
	}
	if fp.Destination == nil {
		return errNoDestination
	}
	ap := fp.Destination.Info.Airport

	if req.Arrival != "" {
		i := ap.ArrivalIndex(req.Arrival)
		if i == -1 {
			return fmt.Errorf("%s: %s: %w", fp.Destination.Ident, req.Arrival, av.ErrUnknownProcedure)
		}
		fp.SetArrivalIndex(i)

		arr := ap.Arrivals[i]
		if req.ArrivalTransition != "" {
			ti := av.TransitionIndex(arr.EnrouteTransitions, req.ArrivalTransition)
			if ti == -1 {
				return fmt.Errorf("%s: %s: %w", req.Arrival, req.ArrivalTransition, av.ErrUnknownTransition)
			}
			fp.SetArrivalTransitionIndex(ti)
		}
		if req.ArrivalRunway != "" {
			fp.SetArrivalRunwayIndex(av.RunwayTransitionIndex(arr.RunwayTransitions, req.ArrivalRunway))
		}
	}

	if req.ArrivalRunway != "" {
		i, err := runwayIndex(db, fp.Destination.Ident, ap, req.ArrivalRunway)
		if err != nil {
			return err
		}
		fp.SetDestinationRunwayIndex(i, req.RunwayExtension)
	}

	// The approach's runway overrides -arrrwy.
	if req.Approach != "" {
		i := ap.ApproachIndex(req.Approach)
		if i == -1 {
			return fmt.Errorf("%s: %s: %w", fp.Destination.Ident, req.Approach, av.ErrUnknownProcedure)
		}
		fp.SetApproachIndex(i)

		if req.ApproachTransition != "" {
			ti := av.TransitionIndex(ap.Approaches[i].Transitions, req.ApproachTransition)
			if ti == -1 {
				return fmt.Errorf("%s: %s: %w", req.Approach, req.ApproachTransition, av.ErrUnknownTransition)
			}
			fp.SetApproachTransitionIndex(ti)
		}
	}

	if req.Arrival != "" {
		if err := fp.BuildArrival(); err != nil {
			return err
		}
	}
	return fp.BuildApproach()
}

// directTo goes direct to the first waypoint at or after the active one
// with the requested identifier.
func directTo(fp *flightplan.FlightPlan, req PlanRequest) error {
	if req.Position == "" {
		return errNoPosition
	}
	p, err := parsePosition(req.Position)
	if err != nil {
		return err
	}

	target := -1
	for i, wp := range fp.AllWaypoints() {
		if i >= fp.ActiveWaypointIndex && wp.Ident == req.DirectTo {
			target = i
			break
		}
	}
	if target == -1 {
		return fmt.Errorf("%s: %w", req.DirectTo, errWaypointNotFound)
	}
	return fp.AddDirectTo(target, flightplan.FixedPosition(p))
}

// parsePosition parses a "latitude,longitude" pair, given either in
// decimal degrees or as N40.37.58.400,W073.46.17.000.
func parsePosition(s string) (math.Point2LL, error) {
	p, err := math.ParseLatLong([]byte(s))
	if err != nil {
		return math.Point2LL{}, fmt.Errorf("%w: %v", errInvalidPosition, err)
	}
	return p, nil
}
