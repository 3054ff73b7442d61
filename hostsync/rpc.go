// hostsync/rpc.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package hostsync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/rpc"
	"time"

	"github.com/mmp/fmc/log"
	"github.com/mmp/fmc/util"
)

const (
	SetRouteRPC = "Host.SetRoute"
	CommitRPC   = "Host.Commit"
)

const DefaultRPCTimeout = 5 * time.Second

///////////////////////////////////////////////////////////////////////////
// RPCHost

// RPCHost is a Host that is reached over net/rpc with msgpack encoding.
type RPCHost struct {
	client  *rpc.Client
	Timeout time.Duration
	lg      *log.Logger
}

// Dial connects to a host listening at the given address. The connection
// is compressed; the host must be served by Serve.
func Dial(ctx context.Context, network, address string, lg *log.Logger) (*RPCHost, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, network, address)
	if err != nil {
		return nil, err
	}
	cc, err := util.MakeCompressedConn(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return NewRPCHost(address, cc, lg), nil
}

// NewRPCHost returns an RPCHost that issues calls over conn; label is
// used in log messages.
func NewRPCHost(label string, conn io.ReadWriteCloser, lg *log.Logger) *RPCHost {
	codec := util.MakeLoggingClientCodec(label, util.MakeMessagepackClientCodec(conn), lg)
	return &RPCHost{
		client:  rpc.NewClientWithCodec(codec),
		Timeout: DefaultRPCTimeout,
		lg:      lg,
	}
}

func (h *RPCHost) SetRoute(ctx context.Context, r Route) error {
	return h.callWithTimeout(ctx, SetRouteRPC, r, nil)
}

func (h *RPCHost) Commit(ctx context.Context) error {
	return h.callWithTimeout(ctx, CommitRPC, struct{}{}, nil)
}

func (h *RPCHost) Close() error {
	return h.client.Close()
}

func (h *RPCHost) callWithTimeout(ctx context.Context, serviceMethod string, args any, reply any) error {
	call := h.client.Go(serviceMethod, args, reply, nil)

	timer := time.NewTimer(h.Timeout)
	defer timer.Stop()

	select {
	case <-call.Done:
		return TryDecodeError(call.Error)
	case <-timer.C:
		return fmt.Errorf("%s: %w", serviceMethod, ErrRPCTimeout)
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", serviceMethod, ctx.Err())
	}
}

///////////////////////////////////////////////////////////////////////////
// Receiver

// Receiver is the host side of the RPC interface. Routes are staged with
// SetRoute and passed to the apply function when they are committed.
type Receiver struct {
	mu        util.LoggingMutex
	pending   *Route
	committed Route
	commits   int
	apply     func(Route) error
	lg        *log.Logger
}

// NewReceiver returns a Receiver that calls apply, if non-nil, with each
// committed route. An error from apply is returned to the caller of
// Commit and the route stays staged.
func NewReceiver(apply func(Route) error, lg *log.Logger) *Receiver {
	return &Receiver{
		mu:    util.LoggingMutex{Name: "hostsync.Receiver"},
		apply: apply,
		lg:    lg,
	}
}

func (r *Receiver) SetRoute(route Route, _ *struct{}) error {
	defer r.lg.CatchAndReportCrash()

	if err := route.Validate(); err != nil {
		r.lg.Warn("rejected route", slog.Any("route", route), slog.Any("error", err))
		return err
	}

	r.mu.Lock(r.lg)
	defer r.mu.Unlock(r.lg)

	r.pending = &route
	return nil
}

func (r *Receiver) Commit(_ struct{}, _ *struct{}) error {
	defer r.lg.CatchAndReportCrash()

	r.mu.Lock(r.lg)
	defer r.mu.Unlock(r.lg)

	if r.pending == nil {
		return ErrNoPendingRoute
	}
	if r.apply != nil {
		if err := r.apply(*r.pending); err != nil {
			r.lg.Errorf("applying route: %v", err)
			return err
		}
	}
	r.committed = *r.pending
	r.pending = nil
	r.commits++
	r.lg.Info("route committed", slog.Any("route", r.committed))
	return nil
}

// Route returns the most recently committed route and the number of
// commits so far.
func (r *Receiver) Route() (Route, int) {
	r.mu.Lock(r.lg)
	defer r.mu.Unlock(r.lg)

	return r.committed, r.commits
}

func (r *Receiver) newServer() (*rpc.Server, error) {
	server := rpc.NewServer()
	if err := server.RegisterName("Host", r); err != nil {
		return nil, err
	}
	return server, nil
}

// ServeConn serves RPCs from a single connection until it is closed.
func (r *Receiver) ServeConn(label string, conn io.ReadWriteCloser) error {
	server, err := r.newServer()
	if err != nil {
		return err
	}
	codec := util.MakeLoggingServerCodec(label, util.MakeMessagepackServerCodec(conn, r.lg), r.lg)
	server.ServeCodec(codec)
	return nil
}

// Serve accepts compressed connections from l and serves RPCs on them
// until ctx is canceled or l fails.
func (r *Receiver) Serve(ctx context.Context, l net.Listener) error {
	server, err := r.newServer()
	if err != nil {
		return err
	}

	// The watcher is gone by the time Serve returns, whichever way it
	// returns.
	done, stopped := make(chan struct{}), make(chan struct{})
	go func() {
		defer close(stopped)
		select {
		case <-ctx.Done():
			l.Close()
		case <-done:
		}
	}()
	defer func() {
		close(done)
		<-stopped
	}()

	for {
		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return ctx.Err()
			}
			return err
		}

		cc, err := util.MakeCompressedConn(conn)
		if err != nil {
			r.lg.Errorf("MakeCompressedConn: %v", err)
			conn.Close()
			continue
		}
		label := conn.RemoteAddr().String()
		r.lg.Info("host connection", slog.String("remote", label))
		codec := util.MakeLoggingServerCodec(label, util.MakeMessagepackServerCodec(cc, r.lg), r.lg)
		go server.ServeCodec(codec)
	}
}
