// Copyright 2016 Aleksandr Demakin. All rights reserved.

package registry

import (
	"context"

	"github.com/shirou/gopsutil/v3/process"
)

// LivenessChecker tells whether a process exists.
type LivenessChecker interface {
	// Alive returns true, if the process with the given pid exists.
	// If an error is returned, the result is ignored and the process is considered alive.
	Alive(ctx context.Context, pid int32) (bool, error)
}

// CheckerFunc is an adapter to use ordinary functions as LivenessChecker.
type CheckerFunc func(ctx context.Context, pid int32) (bool, error)

// Alive calls f(ctx, pid).
func (f CheckerFunc) Alive(ctx context.Context, pid int32) (bool, error) {
	return f(ctx, pid)
}

// ProcessChecker checks processes with an existence-only probe. It never signals
// or otherwise disturbs the target. A process, which exists, but cannot be
// accessed by the caller, is alive.
type ProcessChecker struct{}

// Alive implements LivenessChecker.
func (ProcessChecker) Alive(ctx context.Context, pid int32) (bool, error) {
	return process.PidExistsWithContext(ctx, pid)
}
