// aviation/database.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package aviation

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"time"

	"github.com/mmp/fmc/log"
	"github.com/mmp/fmc/math"
	"github.com/mmp/fmc/util"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/errgroup"
)

// Database holds navigation data loaded from one or more CIFP files.
// Procedure legs have their fix and navaid locations resolved. After
// loading, the database is read-only and safe for concurrent use.
type Database struct {
	Airports      map[string]*Airport
	Navaids       map[string]Navaid
	Fixes         map[string]Fix
	TerminalFixes map[string]map[string]Fix
	Magnetic      MagneticModel

	runways *expirable.LRU[string, *Runway]
	lg      *log.Logger
}

func newDatabase(lg *log.Logger) *Database {
	return &Database{
		Airports:      make(map[string]*Airport),
		Navaids:       make(map[string]Navaid),
		Fixes:         make(map[string]Fix),
		TerminalFixes: make(map[string]map[string]Fix),
		Magnetic:      FixedVariation(0),
		runways:       expirable.NewLRU[string, *Runway](256, nil, time.Hour),
		lg:            lg,
	}
}

// NewDatabase assembles a database from already-parsed CIFP results;
// later results take precedence over earlier ones.
func NewDatabase(lg *log.Logger, results ...ARINC424Result) *Database {
	db := newDatabase(lg)
	for _, r := range results {
		db.merge(r)
	}

	var e util.ErrorLogger
	db.resolve(&e)
	if e.HaveErrors() {
		lg.Warn("unresolved procedure fixes", slog.Int("count", len(e.Errors())))
		e.PrintErrors(lg)
	}
	return db
}

// LoadDatabase reads the given CIFP files, which may be zstd-compressed,
// in parallel.
func LoadDatabase(ctx context.Context, lg *log.Logger, paths ...string) (*Database, error) {
	if len(paths) == 0 {
		return nil, ErrNoCIFPFiles
	}

	start := time.Now()
	results := make([]ARINC424Result, len(paths))
	eg, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			r, err := util.OpenFile(path)
			if err != nil {
				return err
			}
			defer r.Close()

			var e util.ErrorLogger
			e.Push(path)
			results[i] = ParseARINC424(r, &e)
			e.Pop()
			if e.HaveErrors() {
				lg.Warn("CIFP parse problems", slog.String("path", path), slog.Int("count", len(e.Errors())))
				e.PrintErrors(lg)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("loading CIFP: %w", err)
	}

	db := NewDatabase(lg, results...)
	lg.Info("loaded navigation database", slog.Int("airports", len(db.Airports)),
		slog.Int("fixes", len(db.Fixes)), slog.Int("navaids", len(db.Navaids)),
		slog.Duration("elapsed", time.Since(start)))
	return db, nil
}

func (db *Database) merge(r ARINC424Result) {
	maps.Copy(db.Airports, r.Airports)
	maps.Copy(db.Navaids, r.Navaids)
	maps.Copy(db.Fixes, r.Fixes)
	for icao, fixes := range r.TerminalFixes {
		if db.TerminalFixes[icao] == nil {
			db.TerminalFixes[icao] = make(map[string]Fix)
		}
		maps.Copy(db.TerminalFixes[icao], fixes)
	}
}

// resolve fills in the fix and navaid locations of every procedure leg.
func (db *Database) resolve(e *util.ErrorLogger) {
	for _, icao := range util.SortedMapKeys(db.Airports) {
		ap := db.Airports[icao]
		e.Push(icao)

		resolveLegs := func(legs []Leg) {
			for i := range legs {
				db.resolveLeg(ap, &legs[i], e)
			}
		}
		for _, d := range ap.Info.Departures {
			e.Push(d.Name)
			for _, rt := range d.RunwayTransitions {
				resolveLegs(rt.Legs)
			}
			resolveLegs(d.CommonLegs)
			for _, t := range d.EnrouteTransitions {
				resolveLegs(t.Legs)
			}
			e.Pop()
		}
		for _, a := range ap.Info.Arrivals {
			e.Push(a.Name)
			for _, t := range a.EnrouteTransitions {
				resolveLegs(t.Legs)
			}
			resolveLegs(a.CommonLegs)
			for _, rt := range a.RunwayTransitions {
				resolveLegs(rt.Legs)
			}
			e.Pop()
		}
		for _, appr := range ap.Info.Approaches {
			e.Push(appr.Name)
			for _, t := range appr.Transitions {
				resolveLegs(t.Legs)
			}
			resolveLegs(appr.FinalLegs)
			resolveLegs(appr.MissedLegs)
			e.Pop()
		}

		e.Pop()
	}
}

func (db *Database) resolveLeg(ap *Airport, leg *Leg, e *util.ErrorLogger) {
	if leg.Fix != "" {
		if p, ok := db.locate(ap, leg.Fix); ok {
			leg.FixLocation = p.Location
			leg.FixICAO = p.ICAO
		} else {
			e.ErrorString("%s: %s", leg.Fix, ErrUnknownFix)
		}
	}
	if leg.Navaid != "" {
		if p, ok := db.locate(ap, leg.Navaid); ok {
			leg.NavaidLocation = p.Location
		} else {
			e.ErrorString("%s: %s", leg.Navaid, ErrUnknownFix)
		}
	}
}

type location struct {
	Location math.Point2LL
	ICAO     string
}

func (db *Database) locate(ap *Airport, id string) (location, bool) {
	if strings.HasPrefix(id, "RW") {
		if rwy, ok := GetRunway(ap.Info.Runways, id); ok {
			return location{Location: rwy.Threshold}, true
		}
	}
	if f, ok := db.TerminalFixes[ap.ICAO][id]; ok {
		return location{Location: f.Location}, true
	}
	if f, ok := db.Fixes[id]; ok {
		return location{Location: f.Location}, true
	}
	if n, ok := db.Navaids[id]; ok {
		return location{Location: n.Location}, true
	}
	if a, ok := db.Airports[id]; ok {
		return location{Location: a.Location, ICAO: a.ICAO}, true
	}
	return location{}, false
}

// Airport returns a new waypoint for the given airport. The returned
// waypoint's AirportInfo is shared with the database and must not be
// modified.
func (db *Database) Airport(icao string) (*Waypoint, error) {
	ap, ok := db.Airports[icao]
	if !ok {
		return nil, fmt.Errorf("%s: %w", icao, ErrUnknownAirport)
	}
	return MakeAirportWaypoint(ap.ICAO, ap.Location, ap.Info), nil
}

// LookupFix returns a new waypoint for the named navaid, enroute fix, or
// airport.
func (db *Database) LookupFix(id string) (*Waypoint, error) {
	if n, ok := db.Navaids[id]; ok {
		wp := &Waypoint{Ident: n.Id, ICAO: n.Id, Location: n.Location}
		info := &NavaidInfo{Name: n.Name, Frequency: n.Frequency}
		if n.Type == "NDB" {
			wp.Info = WaypointInfo{Kind: InfoNDB, NDB: info}
		} else {
			wp.Info = WaypointInfo{Kind: InfoVOR, VOR: info}
		}
		return wp, nil
	}
	if f, ok := db.Fixes[id]; ok {
		return &Waypoint{
			Ident:    f.Id,
			ICAO:     f.Region + f.Id,
			Location: f.Location,
			Info:     WaypointInfo{Kind: InfoIntersection, Intersection: &IntersectionInfo{Region: f.Region}},
		}, nil
	}
	if _, ok := db.Airports[id]; ok {
		return db.Airport(id)
	}
	return nil, fmt.Errorf("%s: %w", id, ErrUnknownFix)
}

// LookupRunway returns the named runway at the given airport. Results
// are memoized since runway names go through normalization on each
// search.
func (db *Database) LookupRunway(icao, rwy string) (Runway, error) {
	key := icao + "/" + rwy
	if r, ok := db.runways.Get(key); ok {
		if r == nil {
			return Runway{}, fmt.Errorf("%s: %w", key, ErrUnknownRunway)
		}
		return *r, nil
	}

	ap, ok := db.Airports[icao]
	if !ok {
		return Runway{}, fmt.Errorf("%s: %w", icao, ErrUnknownAirport)
	}
	r, ok := GetRunway(ap.Info.Runways, rwy)
	db.runways.Add(key, r)
	if !ok {
		return Runway{}, fmt.Errorf("%s: %w", key, ErrUnknownRunway)
	}
	return *r, nil
}
