// hostsync/hostsync_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package hostsync

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	av "github.com/mmp/fmc/aviation"
	"github.com/mmp/fmc/flightplan"
	"github.com/mmp/fmc/math"
)

func testPlan(t *testing.T) *flightplan.FlightPlan {
	t.Helper()

	fix := av.MakeWaypoint("MERIT", math.Point2LL{-73.2, 41.1})
	fix.ICAO = "K6MERIT"
	fix.Info = av.WaypointInfo{Kind: av.InfoIntersection, Intersection: &av.IntersectionInfo{Region: "K6"}}

	fp := flightplan.New()
	for _, wp := range []*av.Waypoint{
		av.MakeAirportWaypoint("KAAA", math.Point2LL{-73.8, 40.6}, nil),
		fix,
		av.MakeWaypoint("USR1", math.Point2LL{-72.5, 41.5}),
	} {
		if err := fp.AddWaypoint(wp, flightplan.AtIndex(fp.Length())); err != nil {
			t.Fatal(err)
		}
	}
	if err := fp.AddWaypoint(av.MakeAirportWaypoint("KZZZ", math.Point2LL{-71.0, 42.3}, nil)); err != nil {
		t.Fatal(err)
	}
	fp.Waypoint(2).MarkDiscontinuity(false)
	return fp
}

func TestRouteFromSnapshot(t *testing.T) {
	r := RouteFromSnapshot(testPlan(t).Snapshot())

	expected := []RouteEntry{
		{Kind: EntryLookup, Ident: "KAAA", ICAO: "KAAA", Latitude: 40.6, Longitude: -73.8},
		{Kind: EntryLookup, Ident: "MERIT", ICAO: "K6MERIT", Latitude: 41.1, Longitude: -73.2},
		{Kind: EntryCoordinates, Ident: "USR1", Latitude: 41.5, Longitude: -72.5, Discontinuity: true},
		{Kind: EntryLookup, Ident: "KZZZ", ICAO: "KZZZ", Latitude: 42.3, Longitude: -71.0},
	}
	if len(r.Entries) != len(expected) {
		t.Fatalf("got %d entries, expected %d", len(r.Entries), len(expected))
	}
	for i, e := range r.Entries {
		if e != expected[i] {
			t.Errorf("%d: got %+v, expected %+v", i, e, expected[i])
		}
	}
	if r.ActiveIndex != 1 {
		t.Errorf("got active index %d, expected 1", r.ActiveIndex)
	}
	if s := r.String(); s != "KAAA/KAAA *MERIT/K6MERIT USR1 --- KZZZ/KZZZ" {
		t.Errorf("got %q", s)
	}

	if r := RouteFromSnapshot(flightplan.New().Snapshot()); len(r.Entries) != 0 || r.ActiveIndex != 0 {
		t.Errorf("got %+v for empty plan", r)
	}
}

func TestRouteValidate(t *testing.T) {
	lookup := RouteEntry{Kind: EntryLookup, Ident: "KAAA", ICAO: "KAAA"}
	coords := RouteEntry{Kind: EntryCoordinates, Ident: "USR1"}

	for _, test := range []struct {
		route Route
		valid bool
	}{
		{Route{}, true},
		{Route{ActiveIndex: 1}, false},
		{Route{Entries: []RouteEntry{lookup, coords}, ActiveIndex: 1}, true},
		{Route{Entries: []RouteEntry{lookup, coords}, ActiveIndex: 2}, false},
		{Route{Entries: []RouteEntry{lookup}, ActiveIndex: -1}, false},
		{Route{Entries: []RouteEntry{{Kind: EntryLookup, Ident: "X"}}}, false},
		{Route{Entries: []RouteEntry{{Kind: EntryCoordinates}}}, false},
		{Route{Entries: []RouteEntry{{Kind: EntryKind(7), Ident: "X"}}}, false},
	} {
		err := test.route.Validate()
		if test.valid && err != nil {
			t.Errorf("%+v: unexpected error %v", test.route, err)
		} else if !test.valid && !errors.Is(err, ErrInvalidRoute) {
			t.Errorf("%+v: got %v, expected %v", test.route, err, ErrInvalidRoute)
		}
	}
}

func pipeHost(t *testing.T, apply func(Route) error) (*RPCHost, *Receiver) {
	t.Helper()

	recv := NewReceiver(apply, nil)
	sc, cc := net.Pipe()
	go func() {
		if err := recv.ServeConn("test", sc); err != nil {
			t.Error(err)
		}
	}()

	host := NewRPCHost("test", cc, nil)
	t.Cleanup(func() { host.Close() })
	return host, recv
}

func TestRPCHost(t *testing.T) {
	var applied []Route
	host, recv := pipeHost(t, func(r Route) error {
		applied = append(applied, r)
		return nil
	})
	ctx := context.Background()

	if err := host.Commit(ctx); !errors.Is(err, ErrNoPendingRoute) {
		t.Errorf("got %v, expected %v", err, ErrNoPendingRoute)
	}

	route := RouteFromSnapshot(testPlan(t).Snapshot())
	if err := host.SetRoute(ctx, route); err != nil {
		t.Fatal(err)
	}
	if _, n := recv.Route(); n != 0 {
		t.Errorf("route applied before commit")
	}
	if err := host.Commit(ctx); err != nil {
		t.Fatal(err)
	}

	got, n := recv.Route()
	if n != 1 || len(applied) != 1 {
		t.Errorf("got %d commits and %d applied, expected 1", n, len(applied))
	}
	if got.String() != route.String() || got.ActiveIndex != route.ActiveIndex {
		t.Errorf("got route %q, expected %q", got, route)
	}

	// The committed route isn't committed again.
	if err := host.Commit(ctx); !errors.Is(err, ErrNoPendingRoute) {
		t.Errorf("got %v, expected %v", err, ErrNoPendingRoute)
	}

	if err := host.SetRoute(ctx, Route{ActiveIndex: 3}); !errors.Is(err, ErrInvalidRoute) {
		t.Errorf("got %v, expected %v", err, ErrInvalidRoute)
	}
}

func TestRPCHostApplyError(t *testing.T) {
	fail := true
	host, recv := pipeHost(t, func(r Route) error {
		if fail {
			return errors.New("nav database unavailable")
		}
		return nil
	})
	ctx := context.Background()

	if err := host.SetRoute(ctx, Route{}); err != nil {
		t.Fatal(err)
	}
	if err := host.Commit(ctx); err == nil || err.Error() != "nav database unavailable" {
		t.Errorf("got %v, expected apply error", err)
	}
	if _, n := recv.Route(); n != 0 {
		t.Errorf("failed commit was counted")
	}

	// The route is still staged.
	fail = false
	if err := host.Commit(ctx); err != nil {
		t.Errorf("unexpected error %v", err)
	}
}

func TestRPCHostTimeout(t *testing.T) {
	sc, cc := net.Pipe()
	go io.Copy(io.Discard, sc)
	defer sc.Close()

	host := NewRPCHost("test", cc, nil)
	defer host.Close()
	host.Timeout = 20 * time.Millisecond

	if err := host.Commit(context.Background()); !errors.Is(err, ErrRPCTimeout) {
		t.Errorf("got %v, expected %v", err, ErrRPCTimeout)
	}

	host.Timeout = time.Minute
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := host.SetRoute(ctx, Route{}); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, expected %v", err, context.Canceled)
	}

	host.Close()
	if err := host.Commit(context.Background()); !errors.Is(err, ErrHostDisconnected) {
		t.Errorf("got %v, expected %v", err, ErrHostDisconnected)
	}
}

func TestServe(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("unable to listen: %v", err)
	}

	recv := NewReceiver(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error)
	go func() { served <- recv.Serve(ctx, l) }()

	host, err := Dial(context.Background(), "tcp", l.Addr().String(), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer host.Close()

	m := flightplan.NewManager(testPlan(t), nil)
	if err := NewSyncer(m, host, nil).PushNow(context.Background()); err != nil {
		t.Fatal(err)
	}
	if r, n := recv.Route(); n != 1 || len(r.Entries) != 4 {
		t.Errorf("got %d commits of %d entries, expected 1 of 4", n, len(r.Entries))
	}

	cancel()
	select {
	case err := <-served:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("got %v, expected %v", err, context.Canceled)
		}
	case <-time.After(5 * time.Second):
		t.Errorf("Serve didn't return after cancel")
	}
}

// failingListener fails every Accept and reports calls to Close.
type failingListener struct {
	err    error
	closed chan struct{}
}

func (l *failingListener) Accept() (net.Conn, error) { return nil, l.err }
func (l *failingListener) Addr() net.Addr            { return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)} }

func (l *failingListener) Close() error {
	l.closed <- struct{}{}
	return nil
}

func TestServeAcceptError(t *testing.T) {
	l := &failingListener{err: errors.New("accept failed"), closed: make(chan struct{}, 1)}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := NewReceiver(nil, nil).Serve(ctx, l); !errors.Is(err, l.err) {
		t.Errorf("got %v, expected %v", err, l.err)
	}

	// Nothing is left waiting on ctx to close the listener.
	cancel()
	select {
	case <-l.closed:
		t.Errorf("listener closed after Serve returned")
	case <-time.After(100 * time.Millisecond):
	}
}

// fakeHost records the routes committed to it and fails the first
// failures calls to SetRoute.
type fakeHost struct {
	mu        sync.Mutex
	staged    *Route
	committed []Route
	failures  int
	commits   chan struct{}
}

func newFakeHost(failures int) *fakeHost {
	return &fakeHost{failures: failures, commits: make(chan struct{}, 16)}
}

func (h *fakeHost) SetRoute(ctx context.Context, r Route) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.failures > 0 {
		h.failures--
		return ErrHostDisconnected
	}
	h.staged = &r
	return nil
}

func (h *fakeHost) Commit(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.staged == nil {
		return ErrNoPendingRoute
	}
	h.committed = append(h.committed, *h.staged)
	h.staged = nil
	h.commits <- struct{}{}
	return nil
}

func (h *fakeHost) numCommits() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.committed)
}

func waitForCommit(t *testing.T, h *fakeHost) {
	t.Helper()
	select {
	case <-h.commits:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for commit")
	}
}

func TestSyncerRun(t *testing.T) {
	m := flightplan.NewManager(testPlan(t), nil)
	host := newFakeHost(2)
	s := NewSyncer(m, host, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- s.Run(ctx, 5*time.Millisecond) }()

	// The first two attempts fail and are retried.
	waitForCommit(t, host)

	// Nothing is sent while the plan is unchanged.
	time.Sleep(50 * time.Millisecond)
	if n := host.numCommits(); n != 1 {
		t.Errorf("got %d commits of an unchanged plan, expected 1", n)
	}

	if err := m.Modify(func(fp *flightplan.FlightPlan) error {
		fp.RemoveWaypoint(2)
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	waitForCommit(t, host)

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, expected %v", err, context.Canceled)
	}

	host.mu.Lock()
	defer host.mu.Unlock()
	if len(host.committed) != 2 {
		t.Fatalf("got %d commits, expected 2", len(host.committed))
	}
	if n := len(host.committed[1].Entries); n != 3 {
		t.Errorf("got %d entries after removal, expected 3", n)
	}
}

func TestSyncerPushNow(t *testing.T) {
	m := flightplan.NewManager(testPlan(t), nil)
	host := newFakeHost(1)
	s := NewSyncer(m, host, nil)

	if err := s.PushNow(context.Background()); !errors.Is(err, ErrHostDisconnected) {
		t.Errorf("got %v, expected %v", err, ErrHostDisconnected)
	}
	for range 2 {
		if err := s.PushNow(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	if n := host.numCommits(); n != 2 {
		t.Errorf("got %d commits, expected 2", n)
	}
}
