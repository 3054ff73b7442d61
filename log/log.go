// log/log.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

type Logger struct {
	*slog.Logger
	LogFile string
	LogDir  string
	Start   time.Time
}

// ParseLevel maps the level names accepted on the command line to slog
// levels; unknown names give LevelInfo and an error.
func ParseLevel(level string) (slog.Level, error) {
	switch level {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%s: invalid log level", level)
	}
}

// New returns a Logger that writes JSON records to a rotating log file in
// the given directory. If dir is empty, the user's config directory is
// used.
func New(level string, dir string) *Logger {
	if dir == "" {
		var err error
		dir, err = os.UserConfigDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Unable to find user config dir: %v", err)
			dir = "."
		}
		dir = filepath.Join(dir, "fmc")
	}

	w := &lumberjack.Logger{
		Filename:   filepath.Join(dir, "fmc.slog"),
		MaxSize:    32, // MB
		MaxBackups: 1,
	}
	if level == "debug" {
		w.MaxSize = 512
	}

	lvl, err := ParseLevel(level)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}

	l := &Logger{
		Logger:  slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})),
		LogFile: w.Filename,
		LogDir:  dir,
		Start:   time.Now(),
	}

	l.logStartup()
	return l
}

// logStartup records the platform and the module versions of the build
// so that a log file can be matched to the binary that wrote it.
func (l *Logger) logStartup() {
	attrs := []any{
		slog.String("goos", runtime.GOOS),
		slog.String("goarch", runtime.GOARCH),
		slog.Int("cpus", runtime.NumCPU()),
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		mods := make([]any, 0, len(bi.Deps))
		for _, m := range bi.Deps {
			mods = append(mods, slog.String(m.Path, m.Version))
		}
		attrs = append(attrs, slog.String("go", bi.GoVersion), slog.String("main", bi.Path),
			slog.Group("modules", mods...))
	}
	l.Info("logging started", attrs...)
}

// NewWriter returns a Logger that writes text records to w; it is mostly
// useful for tests and command-line tools that log to stderr.
func NewWriter(w io.Writer, level slog.Level) *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})),
		Start:  time.Now(),
	}
}

// emit adds the caller's stack to the record. A nil *Logger drops debug
// and info messages and sends warnings and errors to slog's default
// logger.
func (l *Logger) emit(level slog.Level, msg string, args []any) {
	ctx := context.Background()
	sl := slog.Default()
	if l != nil {
		sl = l.Logger
	} else if level < slog.LevelWarn {
		return
	}
	if !sl.Enabled(ctx, level) {
		return
	}
	args = append([]any{slog.Any("callstack", callstack(4, nil))}, args...)
	sl.Log(ctx, level, msg, args...)
}

// Only the leveled methods below carry call stacks; DebugContext, Log and
// the rest of the embedded slog.Logger API do not.

func (l *Logger) Debug(msg string, args ...any) { l.emit(slog.LevelDebug, msg, args) }
func (l *Logger) Info(msg string, args ...any)  { l.emit(slog.LevelInfo, msg, args) }
func (l *Logger) Warn(msg string, args ...any)  { l.emit(slog.LevelWarn, msg, args) }
func (l *Logger) Error(msg string, args ...any) { l.emit(slog.LevelError, msg, args) }

func (l *Logger) Debugf(msg string, args ...any) {
	l.emit(slog.LevelDebug, fmt.Sprintf(msg, args...), nil)
}

func (l *Logger) Infof(msg string, args ...any) {
	l.emit(slog.LevelInfo, fmt.Sprintf(msg, args...), nil)
}

func (l *Logger) Warnf(msg string, args ...any) {
	l.emit(slog.LevelWarn, fmt.Sprintf(msg, args...), nil)
}

func (l *Logger) Errorf(msg string, args ...any) {
	l.emit(slog.LevelError, fmt.Sprintf(msg, args...), nil)
}

// With returns a Logger that includes the given attributes in each
// record. It is safe to call with a nil receiver, in which case nil is
// returned.
func (l *Logger) With(args ...any) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{
		Logger:  l.Logger.With(args...),
		LogFile: l.LogFile,
		LogDir:  l.LogDir,
		Start:   l.Start,
	}
}

// CatchAndReportCrash recovers from a panic, logging it along with the
// stack and saving a crash report in the log directory. It must be called
// directly via defer. The recovered value is returned so that callers
// that have more to clean up can check for it.
func (l *Logger) CatchAndReportCrash() any {
	err := recover()
	if err == nil {
		return nil
	}

	report := fmt.Sprintf("Crashed: %v\n", err)
	report += "Sys: " + runtime.GOARCH + "/" + runtime.GOOS + "\n"
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range bi.Settings {
			report += setting.Key + ": " + setting.Value + "\n"
		}
	}
	report += string(debug.Stack())

	l.Errorf("Crashed: %v", err)
	if l != nil && l.LogDir != "" {
		fn := filepath.Join(l.LogDir, "crash-"+time.Now().Format("20060102-150405")+".txt")
		if werr := os.WriteFile(fn, []byte(report), 0o600); werr != nil {
			l.Errorf("%s: %v", fn, werr)
		}
	} else {
		fmt.Fprintln(os.Stderr, report)
	}
	return err
}
