// aviation/info.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package aviation

// InfoKind discriminates the WaypointInfo variants.
type InfoKind uint8

const (
	InfoGeneric InfoKind = iota
	InfoAirport
	InfoIntersection
	InfoVOR
	InfoNDB
)

var infoKindNames = [...]string{
	InfoGeneric:      "generic",
	InfoAirport:      "airport",
	InfoIntersection: "intersection",
	InfoVOR:          "vor",
	InfoNDB:          "ndb",
}

func (k InfoKind) String() string {
	if int(k) < len(infoKindNames) {
		return infoKindNames[k]
	}
	return "unknown"
}

// ParseInfoKind is the inverse of InfoKind.String.
func ParseInfoKind(s string) (InfoKind, bool) {
	for i, n := range infoKindNames {
		if n == s {
			return InfoKind(i), true
		}
	}
	return InfoGeneric, false
}

// WaypointInfo carries what is known about the facility a waypoint
// refers to. Only the pointer matching Kind is non-nil.
type WaypointInfo struct {
	Kind         InfoKind
	Airport      *AirportInfo      `msgpack:",omitempty"`
	VOR          *NavaidInfo       `msgpack:",omitempty"`
	NDB          *NavaidInfo       `msgpack:",omitempty"`
	Intersection *IntersectionInfo `msgpack:",omitempty"`
}

type AirportInfo struct {
	Name       string
	Elevation  float32
	Runways    []Runway
	Departures []Departure
	Arrivals   []Arrival
	Approaches []Approach
}

type NavaidInfo struct {
	Name      string
	Frequency float32
}

type IntersectionInfo struct {
	Region string
}

func (ap *AirportInfo) DepartureIndex(name string) int {
	if ap != nil {
		for i, d := range ap.Departures {
			if d.Name == name {
				return i
			}
		}
	}
	return -1
}

func (ap *AirportInfo) ArrivalIndex(name string) int {
	if ap != nil {
		for i, a := range ap.Arrivals {
			if a.Name == name {
				return i
			}
		}
	}
	return -1
}

func (ap *AirportInfo) ApproachIndex(name string) int {
	if ap != nil {
		for i, a := range ap.Approaches {
			if a.Name == name {
				return i
			}
		}
	}
	return -1
}

// RunwayIndex returns the index of the named runway in ap.Runways, or -1.
func (ap *AirportInfo) RunwayIndex(name string) int {
	if ap == nil {
		return -1
	}
	if r, ok := GetRunway(ap.Runways, name); ok {
		for i := range ap.Runways {
			if &ap.Runways[i] == r {
				return i
			}
		}
	}
	return -1
}
