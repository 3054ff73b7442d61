// hostsync/route.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package hostsync

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mmp/fmc/flightplan"
)

// Host is the host's own navigation system. It only takes complete
// routes: SetRoute stages a route, replacing anything staged before, and
// Commit makes the staged route the one the host flies.
type Host interface {
	SetRoute(ctx context.Context, r Route) error
	Commit(ctx context.Context) error
}

type EntryKind int

const (
	// EntryLookup entries are resolved by the host from its own database
	// using the ICAO code.
	EntryLookup EntryKind = iota
	// EntryCoordinates entries are flown to the given position; they are
	// used for constructed and user waypoints that the host can't look up.
	EntryCoordinates
)

func (k EntryKind) String() string {
	switch k {
	case EntryLookup:
		return "lookup"
	case EntryCoordinates:
		return "coordinates"
	default:
		return "unknown"
	}
}

type RouteEntry struct {
	Kind      EntryKind
	Ident     string
	ICAO      string `msgpack:",omitempty"`
	Latitude  float32
	Longitude float32
	Altitude  float32

	Discontinuity bool
}

func (e RouteEntry) String() string {
	if e.Kind == EntryLookup {
		return e.Ident + "/" + e.ICAO
	}
	return e.Ident
}

type Route struct {
	Entries     []RouteEntry
	ActiveIndex int
}

// RouteFromSnapshot returns the route for the given flight plan snapshot.
// Waypoints that have an ICAO code are sent as lookups; everything else
// is sent with its coordinates.
func RouteFromSnapshot(s flightplan.Snapshot) Route {
	wps := s.Waypoints()
	r := Route{
		Entries:     make([]RouteEntry, 0, len(wps)),
		ActiveIndex: s.ActiveWaypointIndex,
	}
	for _, wp := range wps {
		e := RouteEntry{
			Kind:          EntryCoordinates,
			Ident:         wp.Ident,
			Latitude:      wp.Latitude,
			Longitude:     wp.Longitude,
			Altitude:      wp.Altitude,
			Discontinuity: wp.Discontinuity,
		}
		if wp.ICAO != "" && !wp.TurnPoint {
			e.Kind = EntryLookup
			e.ICAO = wp.ICAO
		}
		r.Entries = append(r.Entries, e)
	}
	if len(r.Entries) == 0 {
		r.ActiveIndex = 0
	}
	return r
}

// Validate checks the route for problems that would keep the host from
// flying it.
func (r Route) Validate() error {
	if len(r.Entries) == 0 {
		if r.ActiveIndex != 0 {
			return ErrInvalidRoute
		}
		return nil
	}
	if r.ActiveIndex < 0 || r.ActiveIndex >= len(r.Entries) {
		return ErrInvalidRoute
	}
	for _, e := range r.Entries {
		switch e.Kind {
		case EntryLookup:
			if e.ICAO == "" {
				return ErrInvalidRoute
			}
		case EntryCoordinates:
			if e.Ident == "" {
				return ErrInvalidRoute
			}
		default:
			return ErrInvalidRoute
		}
	}
	return nil
}

func (r Route) String() string {
	var sb strings.Builder
	for i, e := range r.Entries {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if i == r.ActiveIndex {
			sb.WriteByte('*')
		}
		sb.WriteString(e.String())
		if e.Discontinuity {
			sb.WriteString(" ---")
		}
	}
	return sb.String()
}

func (r Route) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("entries", len(r.Entries)),
		slog.Int("active_index", r.ActiveIndex),
		slog.String("route", r.String()))
}
