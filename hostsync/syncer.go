// hostsync/syncer.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package hostsync

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mmp/fmc/flightplan"
	"github.com/mmp/fmc/log"
)

// Syncer pushes the active flight plan of a Manager to a Host.
type Syncer struct {
	manager *flightplan.Manager
	host    Host
	lg      *log.Logger

	mu         sync.Mutex
	pushed     bool
	generation uint64
}

func NewSyncer(m *flightplan.Manager, host Host, lg *log.Logger) *Syncer {
	return &Syncer{manager: m, host: host, lg: lg}
}

// PushNow sends the active plan to the host and commits it, whether or
// not it has changed since the last push.
func (s *Syncer) PushNow(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.push(ctx)
}

func (s *Syncer) push(ctx context.Context) error {
	snap, gen := s.manager.VersionedSnapshot()
	route := RouteFromSnapshot(snap)

	if err := s.host.SetRoute(ctx, route); err != nil {
		return fmt.Errorf("SetRoute: %w", err)
	}
	if err := s.host.Commit(ctx); err != nil {
		return fmt.Errorf("Commit: %w", err)
	}

	s.lg.Debug("pushed flight plan", slog.Uint64("generation", gen), slog.Any("route", route))
	s.pushed = true
	s.generation = gen
	return nil
}

// Run pushes the active plan every interval until ctx is canceled. A push
// is skipped if the plan hasn't been modified since the last successful
// one; failed pushes are logged and retried at the next interval.
func (s *Syncer) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		s.mu.Lock()
		if !s.pushed || s.manager.Generation() != s.generation {
			if err := s.push(ctx); err != nil && ctx.Err() == nil {
				s.lg.Warn("flight plan sync failed", slog.Any("error", err))
			}
		}
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
