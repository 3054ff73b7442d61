// flightplan/manager.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package flightplan

import (
	"log/slog"

	"github.com/mmp/fmc/log"
	"github.com/mmp/fmc/util"
)

// Manager owns the active flight plan and an optional temporary copy of
// it that edits can be staged in before they are committed. All access to
// the plans goes through the Manager, which serializes it; FlightPlan
// itself isn't safe for concurrent use.
type Manager struct {
	mu         util.LoggingMutex
	active     *FlightPlan
	temporary  *FlightPlan
	generation uint64
	lg         *log.Logger
}

// NewManager returns a Manager for the given plan. If fp is nil, an empty
// plan is created.
func NewManager(fp *FlightPlan, lg *log.Logger) *Manager {
	if fp == nil {
		fp = New(WithLogger(lg))
	}
	return &Manager{
		mu:     util.LoggingMutex{Name: "flightplan.Manager"},
		active: fp,
		lg:     lg,
	}
}

// Modify calls f with the active plan. The plan's generation is advanced
// whether or not f succeeds, since f may have modified it before failing.
func (m *Manager) Modify(f func(fp *FlightPlan) error) error {
	m.mu.Lock(m.lg)
	defer m.mu.Unlock(m.lg)

	m.generation++
	return f(m.active)
}

// ModifyTemporary calls f with the temporary plan.
func (m *Manager) ModifyTemporary(f func(fp *FlightPlan) error) error {
	m.mu.Lock(m.lg)
	defer m.mu.Unlock(m.lg)

	if m.temporary == nil {
		return ErrNoTemporaryPlan
	}
	return f(m.temporary)
}

// Read calls f with the active plan; f must not modify it.
func (m *Manager) Read(f func(fp *FlightPlan)) {
	m.mu.Lock(m.lg)
	defer m.mu.Unlock(m.lg)

	f(m.active)
}

// BeginTemporary starts a temporary plan as a copy of the active plan.
func (m *Manager) BeginTemporary() error {
	m.mu.Lock(m.lg)
	defer m.mu.Unlock(m.lg)

	if m.temporary != nil {
		return ErrTemporaryPlanExists
	}
	m.temporary = m.active.Copy()
	m.lg.Debug("began temporary flight plan")
	return nil
}

func (m *Manager) HasTemporary() bool {
	m.mu.Lock(m.lg)
	defer m.mu.Unlock(m.lg)

	return m.temporary != nil
}

// CommitTemporary makes the temporary plan the active plan.
func (m *Manager) CommitTemporary() error {
	m.mu.Lock(m.lg)
	defer m.mu.Unlock(m.lg)

	if m.temporary == nil {
		return ErrNoTemporaryPlan
	}
	m.active, m.temporary = m.temporary, nil
	m.generation++
	m.lg.Info("committed temporary flight plan", slog.Any("plan", m.active))
	return nil
}

// DiscardTemporary throws away the temporary plan, if any.
func (m *Manager) DiscardTemporary() {
	m.mu.Lock(m.lg)
	defer m.mu.Unlock(m.lg)

	if m.temporary != nil {
		m.temporary = nil
		m.lg.Debug("discarded temporary flight plan")
	}
}

// Snapshot returns a snapshot of the active plan.
func (m *Manager) Snapshot() Snapshot {
	s, _ := m.VersionedSnapshot()
	return s
}

// TemporarySnapshot returns a snapshot of the temporary plan.
func (m *Manager) TemporarySnapshot() (Snapshot, error) {
	m.mu.Lock(m.lg)
	defer m.mu.Unlock(m.lg)

	if m.temporary == nil {
		return Snapshot{}, ErrNoTemporaryPlan
	}
	return m.temporary.Snapshot(), nil
}

// VersionedSnapshot returns a snapshot of the active plan along with its
// generation, which changes whenever the active plan may have changed.
func (m *Manager) VersionedSnapshot() (Snapshot, uint64) {
	m.mu.Lock(m.lg)
	defer m.mu.Unlock(m.lg)

	return m.active.Snapshot(), m.generation
}

func (m *Manager) Generation() uint64 {
	m.mu.Lock(m.lg)
	defer m.mu.Unlock(m.lg)

	return m.generation
}
