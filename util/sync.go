// util/sync.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"log/slog"
	gomath "math"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/mmp/fmc/log"

	"github.com/shirou/gopsutil/cpu"
)

const (
	// MutexStallTimeout is how long Lock waits before reporting that a
	// mutex seems to be stuck.
	MutexStallTimeout = 10 * time.Second
	// MutexLongHold is the wait or hold time past which a warning is logged.
	MutexLongHold = time.Second
)

// held tracks the LoggingMutexes that are currently locked so that stall
// reports can show what else is held.
var held struct {
	sync.Mutex
	m map[*LoggingMutex]struct{}
}

// LoggingMutex is a sync.Mutex that logs acquisition and release at
// debug level and warns about long waits and holds.
type LoggingMutex struct {
	sync.Mutex
	Name string

	acq      time.Time
	acqStack []log.StackFrame
}

func (l *LoggingMutex) Lock(lg *log.Logger) {
	start := time.Now()
	lg.Debug("acquiring mutex", slog.String("mutex", l.Name))

	if !l.Mutex.TryLock() {
		l.lockSlow(lg)
	}

	held.Lock()
	if held.m == nil {
		held.m = make(map[*LoggingMutex]struct{})
	}
	held.m[l] = struct{}{}
	held.Unlock()

	l.acq = time.Now()
	l.acqStack = log.Callstack(l.acqStack)
	if w := l.acq.Sub(start); w > MutexLongHold {
		lg.Warn("long wait to acquire mutex", slog.Any("mutex", l), slog.Duration("wait", w))
	}
}

// lockSlow blocks until the mutex is acquired, reporting once if that
// takes longer than MutexStallTimeout.
func (l *LoggingMutex) lockSlow(lg *log.Logger) {
	locked := make(chan struct{})
	go func() {
		l.Mutex.Lock()
		close(locked)
	}()

	t := time.NewTimer(MutexStallTimeout)
	defer t.Stop()
	select {
	case <-locked:
	case <-t.C:
		lg.Error("mutex stalled", slog.Any("mutex", l), slog.Any("held_mutexes", HeldMutexes()))
		logSystemLoad(lg)
		<-locked
	}
}

func (l *LoggingMutex) Unlock(lg *log.Logger) {
	held.Lock()
	if _, ok := held.m[l]; !ok {
		lg.Error("unlocking mutex that isn't held", slog.String("mutex", l.Name))
	}
	delete(held.m, l)
	held.Unlock()

	if d := time.Since(l.acq); d > MutexLongHold {
		lg.Warn("mutex held for a long time", slog.Any("mutex", l), slog.Duration("held", d))
	}
	l.acq = time.Time{}
	l.acqStack = l.acqStack[:0]
	l.Mutex.Unlock()

	lg.Debug("released mutex", slog.String("mutex", l.Name))
}

func (l *LoggingMutex) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("name", l.Name),
		slog.Time("acquired", l.acq),
		slog.Any("stack", l.acqStack))
}

// HeldMutexes returns the sorted names of the LoggingMutexes that are
// currently locked.
func HeldMutexes() []string {
	held.Lock()
	defer held.Unlock()

	names := make([]string, 0, len(held.m))
	for l := range held.m {
		names = append(names, l.Name)
	}
	slices.Sort(names)
	return names
}

func logSystemLoad(lg *log.Logger) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	usage := -1
	if pct, err := cpu.Percent(time.Second, false); err == nil && len(pct) > 0 {
		usage = int(gomath.Round(pct[0]))
	}
	lg.Error("system load", slog.Int("cpu_percent", usage),
		slog.Uint64("alloc_mb", m.Alloc>>20), slog.Uint64("sys_mb", m.Sys>>20),
		slog.Int("goroutines", runtime.NumGoroutine()))
}
