// log/stack.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package log

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

type StackFrame struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Function string `json:"function"`
}

func (f StackFrame) String() string {
	return fmt.Sprintf("%s:%d:%s", f.File, f.Line, f.Function)
}

// Callstack returns the stack starting at the caller of the function that
// called Callstack. fr's storage is reused if it is large enough.
func Callstack(fr []StackFrame) []StackFrame {
	return callstack(4, fr)
}

// callstack skips the given number of frames, counting runtime.Callers
// and callstack itself, and stops at main.main or the test harness.
func callstack(skip int, fr []StackFrame) []StackFrame {
	var pcs [16]uintptr
	n := runtime.Callers(skip, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	fr = fr[:0]
	for {
		frame, more := frames.Next()
		if frame.Function == "" {
			break
		}
		name := strings.TrimPrefix(frame.Function, "github.com/mmp/fmc/")
		fr = append(fr, StackFrame{
			File:     filepath.Base(frame.File),
			Line:     frame.Line,
			Function: strings.TrimPrefix(name, "main."),
		})
		if !more || frame.Function == "main.main" || strings.HasPrefix(frame.Function, "testing.") {
			break
		}
	}
	return fr
}
