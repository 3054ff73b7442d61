// flightplan/snapshot.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package flightplan

import (
	"fmt"
	"slices"

	av "github.com/mmp/fmc/aviation"
	"github.com/mmp/fmc/math"

	"github.com/brunoga/deep"
)

// Copy returns a deep copy of the plan that shares nothing with the
// original. The copy uses the same geodesy and logger.
func (fp *FlightPlan) Copy() *FlightPlan {
	c := &FlightPlan{
		Origin:              fp.Origin.Copy(),
		Destination:         fp.Destination.Copy(),
		ActiveWaypointIndex: fp.ActiveWaypointIndex,
		CruiseAltitude:      fp.CruiseAltitude,
		Procedures:          fp.Procedures,
		DirectTo:            fp.DirectTo,
		geo:                 fp.geo,
		lg:                  fp.lg,
	}
	c.DirectTo.InterceptPoints = slices.Clone(fp.DirectTo.InterceptPoints)

	for _, seg := range fp.Segments {
		cs := &Segment{Kind: seg.Kind, Offset: seg.Offset}
		for _, wp := range seg.Waypoints {
			cs.Waypoints = append(cs.Waypoints, wp.Copy())
		}
		c.Segments = append(c.Segments, cs)
	}
	return c
}

// Snapshot is a plain copy of a flight plan made of records with no
// pointers into the plan, suitable for handing to other goroutines,
// persisting, or sending to the host.
type Snapshot struct {
	Origin              *WaypointRecord `msgpack:",omitempty"`
	Destination         *WaypointRecord `msgpack:",omitempty"`
	Segments            []SegmentRecord
	ActiveWaypointIndex int
	CruiseAltitude      int
	Procedures          ProcedureSelection
	DirectTo            DirectTo
}

type SegmentRecord struct {
	Kind      string
	Offset    int
	Waypoints []WaypointRecord
}

// WaypointRecord is the snapshot form of a waypoint. Type names the kind
// of facility and determines which of the optional records are present.
type WaypointRecord struct {
	Ident     string
	ICAO      string
	Type      string
	Latitude  float32
	Longitude float32
	Altitude  float32

	ConstraintDescription av.AltitudeDescription
	ConstraintAltitude1   float32
	ConstraintAltitude2   float32

	Runway                 bool
	VectorsToFinal         bool
	Discontinuity          bool
	DiscontinuityClearable bool
	FlyOver                bool
	TurnPoint              bool
	Passed                 bool

	Bearing            float32
	Distance           float32
	CumulativeDistance float32

	Airport      *AirportRecord      `msgpack:",omitempty"`
	Navaid       *NavaidRecord       `msgpack:",omitempty"`
	Intersection *IntersectionRecord `msgpack:",omitempty"`
}

type AirportRecord struct {
	Name       string
	Elevation  float32
	Runways    []av.Runway
	Departures []av.Departure
	Arrivals   []av.Arrival
	Approaches []av.Approach
}

type NavaidRecord struct {
	Name      string
	Frequency float32
}

type IntersectionRecord struct {
	Region string
}

// Snapshot returns a snapshot of the plan. It doesn't modify the plan.
func (fp *FlightPlan) Snapshot() Snapshot {
	s := Snapshot{
		Origin:              makeWaypointRecordPtr(fp.Origin),
		Destination:         makeWaypointRecordPtr(fp.Destination),
		ActiveWaypointIndex: fp.ActiveWaypointIndex,
		CruiseAltitude:      fp.CruiseAltitude,
		Procedures:          fp.Procedures,
		DirectTo:            fp.DirectTo,
	}
	s.DirectTo.InterceptPoints = slices.Clone(fp.DirectTo.InterceptPoints)

	for _, seg := range fp.Segments {
		sr := SegmentRecord{Kind: seg.Kind.String(), Offset: seg.Offset}
		for _, wp := range seg.Waypoints {
			sr.Waypoints = append(sr.Waypoints, MakeWaypointRecord(wp))
		}
		s.Segments = append(s.Segments, sr)
	}
	return s
}

// Waypoints returns the snapshot's waypoints in flattened order.
func (s Snapshot) Waypoints() []WaypointRecord {
	var wps []WaypointRecord
	if s.Origin != nil {
		wps = append(wps, *s.Origin)
	}
	for _, seg := range s.Segments {
		wps = append(wps, seg.Waypoints...)
	}
	if s.Destination != nil {
		wps = append(wps, *s.Destination)
	}
	return wps
}

func makeWaypointRecordPtr(wp *av.Waypoint) *WaypointRecord {
	if wp == nil {
		return nil
	}
	r := MakeWaypointRecord(wp)
	return &r
}

func MakeWaypointRecord(wp *av.Waypoint) WaypointRecord {
	r := WaypointRecord{
		Ident:                  wp.Ident,
		ICAO:                   wp.ICAO,
		Type:                   wp.Info.Kind.String(),
		Latitude:               wp.Location.Latitude(),
		Longitude:              wp.Location.Longitude(),
		Altitude:               wp.Altitude,
		ConstraintDescription:  wp.Constraint.Description,
		ConstraintAltitude1:    wp.Constraint.Altitude1,
		ConstraintAltitude2:    wp.Constraint.Altitude2,
		Runway:                 wp.IsRunway(),
		VectorsToFinal:         wp.VectorsToFinal(),
		Discontinuity:          wp.Discontinuity(),
		DiscontinuityClearable: wp.DiscontinuityClearable(),
		FlyOver:                wp.FlyOver(),
		TurnPoint:              wp.TurnPoint(),
		Passed:                 wp.Passed(),
		Bearing:                wp.Bearing,
		Distance:               wp.Distance,
		CumulativeDistance:     wp.CumulativeDistance,
	}

	switch wp.Info.Kind {
	case av.InfoAirport:
		if ap := wp.Info.Airport; ap != nil {
			r.Airport = &AirportRecord{
				Name:       ap.Name,
				Elevation:  ap.Elevation,
				Runways:    deep.MustCopy(ap.Runways),
				Departures: deep.MustCopy(ap.Departures),
				Arrivals:   deep.MustCopy(ap.Arrivals),
				Approaches: deep.MustCopy(ap.Approaches),
			}
		}
	case av.InfoVOR, av.InfoNDB:
		nav := wp.Info.VOR
		if wp.Info.Kind == av.InfoNDB {
			nav = wp.Info.NDB
		}
		if nav != nil {
			r.Navaid = &NavaidRecord{Name: nav.Name, Frequency: nav.Frequency}
		}
	case av.InfoIntersection:
		if is := wp.Info.Intersection; is != nil {
			r.Intersection = &IntersectionRecord{Region: is.Region}
		}
	}
	return r
}

// Waypoint rebuilds a waypoint from the record.
func (r WaypointRecord) Waypoint() (*av.Waypoint, error) {
	kind, ok := av.ParseInfoKind(r.Type)
	if !ok {
		return nil, fmt.Errorf("%s: %q: %w", r.Ident, r.Type, ErrUnknownWaypointType)
	}

	wp := &av.Waypoint{
		Ident:    r.Ident,
		ICAO:     r.ICAO,
		Location: math.Point2LL{r.Longitude, r.Latitude},
		Altitude: r.Altitude,
		Constraint: av.AltitudeConstraint{
			Description: r.ConstraintDescription,
			Altitude1:   r.ConstraintAltitude1,
			Altitude2:   r.ConstraintAltitude2,
		},
		Info:               av.WaypointInfo{Kind: kind},
		Bearing:            r.Bearing,
		Distance:           r.Distance,
		CumulativeDistance: r.CumulativeDistance,
	}
	wp.SetRunway(r.Runway)
	wp.SetVectorsToFinal(r.VectorsToFinal)
	wp.SetDiscontinuity(r.Discontinuity)
	wp.SetDiscontinuityClearable(r.DiscontinuityClearable)
	wp.SetFlyOver(r.FlyOver)
	wp.SetTurnPoint(r.TurnPoint)
	wp.SetPassed(r.Passed)

	switch kind {
	case av.InfoAirport:
		ap := &av.AirportInfo{}
		if r.Airport != nil {
			ap = &av.AirportInfo{
				Name:       r.Airport.Name,
				Elevation:  r.Airport.Elevation,
				Runways:    deep.MustCopy(r.Airport.Runways),
				Departures: deep.MustCopy(r.Airport.Departures),
				Arrivals:   deep.MustCopy(r.Airport.Arrivals),
				Approaches: deep.MustCopy(r.Airport.Approaches),
			}
		}
		wp.Info.Airport = ap
	case av.InfoVOR, av.InfoNDB:
		nav := &av.NavaidInfo{}
		if r.Navaid != nil {
			nav.Name, nav.Frequency = r.Navaid.Name, r.Navaid.Frequency
		}
		if kind == av.InfoVOR {
			wp.Info.VOR = nav
		} else {
			wp.Info.NDB = nav
		}
	case av.InfoIntersection:
		is := &av.IntersectionInfo{}
		if r.Intersection != nil {
			is.Region = r.Intersection.Region
		}
		wp.Info.Intersection = is
	}
	return wp, nil
}

// Restore rebuilds a flight plan from a snapshot. The recorded distances
// are kept as they are. The rebuilt plan is checked for consistency.
func Restore(s Snapshot, opts ...Option) (*FlightPlan, error) {
	fp := New(opts...)
	fp.Segments = nil

	var err error
	if s.Origin != nil {
		if fp.Origin, err = s.Origin.Waypoint(); err != nil {
			return nil, err
		}
	}
	if s.Destination != nil {
		if fp.Destination, err = s.Destination.Waypoint(); err != nil {
			return nil, err
		}
	}

	for _, sr := range s.Segments {
		kind, ok := ParseSegmentKind(sr.Kind)
		if !ok {
			return nil, fmt.Errorf("%q: %w", sr.Kind, ErrInvalidSegmentKind)
		}
		if fp.HasSegment(kind) {
			return nil, fmt.Errorf("duplicate %s segment: %w", kind, ErrCorruptSegments)
		}
		seg := &Segment{Kind: kind}
		for _, wr := range sr.Waypoints {
			wp, err := wr.Waypoint()
			if err != nil {
				return nil, fmt.Errorf("%s: %w", kind, err)
			}
			seg.Waypoints = append(seg.Waypoints, wp)
		}
		fp.Segments = append(fp.Segments, seg)
	}
	if !fp.HasSegment(SegmentEnroute) {
		fp.Segments = append(fp.Segments, &Segment{Kind: SegmentEnroute})
	}

	fp.CruiseAltitude = s.CruiseAltitude
	fp.Procedures = s.Procedures
	fp.DirectTo = s.DirectTo
	fp.DirectTo.InterceptPoints = slices.Clone(s.DirectTo.InterceptPoints)
	fp.ActiveWaypointIndex = s.ActiveWaypointIndex

	fp.reflowSegments()
	if err := fp.CheckInvariants(); err != nil {
		return nil, err
	}
	return fp, nil
}
