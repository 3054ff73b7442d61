// util/error.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mmp/fmc/log"
)

// ErrorLogger collects the problems found while loading navigation data
// so that loading can continue past them. Each one is tagged with the
// Push()ed context, e.g. "KJFK / SID SKORR5", that was current when it
// was reported.
type ErrorLogger struct {
	context []string
	errs    []error
}

type contextError struct {
	context string
	err     error
}

func (c contextError) Error() string {
	if c.context == "" {
		return c.err.Error()
	}
	return c.context + ": " + c.err.Error()
}

func (c contextError) Unwrap() error { return c.err }

func (e *ErrorLogger) Push(s string) {
	e.context = append(e.context, s)
}

func (e *ErrorLogger) Pop() {
	e.context = e.context[:len(e.context)-1]
}

func (e *ErrorLogger) ErrorString(s string, args ...any) {
	e.Error(fmt.Errorf(s, args...))
}

func (e *ErrorLogger) Error(err error) {
	e.errs = append(e.errs, contextError{context: strings.Join(e.context, " / "), err: err})
}

func (e *ErrorLogger) HaveErrors() bool {
	return len(e.errs) > 0
}

func (e *ErrorLogger) Errors() []error {
	return e.errs
}

// Err returns all of the reported errors joined together, or nil if
// there were none.
func (e *ErrorLogger) Err() error {
	return errors.Join(e.errs...)
}

func (e *ErrorLogger) PrintErrors(lg *log.Logger) {
	for _, err := range e.errs {
		lg.Warnf("%v", err)
	}
}

func (e *ErrorLogger) String() string {
	if err := e.Err(); err != nil {
		return err.Error()
	}
	return ""
}

func (e *ErrorLogger) CurrentDepth() int {
	if e == nil {
		return 0
	}
	return len(e.context)
}
