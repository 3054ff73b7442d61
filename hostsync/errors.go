// hostsync/errors.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package hostsync

import (
	"errors"
	"net/rpc"
)

var (
	ErrHostDisconnected = errors.New("Host disconnected")
	ErrInvalidRoute     = errors.New("Invalid route")
	ErrNoPendingRoute   = errors.New("No route to commit")
	ErrRPCTimeout       = errors.New("RPC call timed out")
)

// Errors lose their identity when they cross the RPC boundary; they are
// mapped back to the sentinels here using their strings.
var errorStringToError = map[string]error{
	ErrHostDisconnected.Error(): ErrHostDisconnected,
	ErrInvalidRoute.Error():     ErrInvalidRoute,
	ErrNoPendingRoute.Error():   ErrNoPendingRoute,
	ErrRPCTimeout.Error():       ErrRPCTimeout,
}

func TryDecodeError(e error) error {
	if e == nil {
		return nil
	}
	if errors.Is(e, rpc.ErrShutdown) {
		return ErrHostDisconnected
	}
	if err, ok := errorStringToError[e.Error()]; ok {
		return err
	}
	return e
}
