// Copyright 2016 Aleksandr Demakin. All rights reserved.

// Package registry implements a registry of alive processes in a shared memory region.
//
// Every participant joins the registry by name, registers its pid, and periodically
// removes pids of processes, which no longer exist. The first process creates
// the region and owns it, others attach to it.
//
// Access to the region is not synchronized. Updates are made with per-field atomic
// loads and stores, so readers never see torn values, but concurrent updates
// from several processes may be lost. The creator clears the record after the region
// becomes visible to others, so a pid registered by another process during Join
// of the creator may be wiped as well.
package registry

import (
	"context"
	"reflect"
	"sync/atomic"
	"time"

	shmregion "github.com/nxgtw/go-shmregion"
	"github.com/nxgtw/go-shmregion/internal/allocator"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	// MaxPIDs is the capacity of a registry.
	MaxPIDs = 100
	// DefaultName is the name of a registry, if no name is given.
	DefaultName = "/MySharedMem"

	defaultJoinAttempts = 16
	defaultJoinInterval = 10 * time.Millisecond
)

var (
	// ErrFull is returned by Register, if there are no free slots.
	ErrFull = errors.New("registry is full")
	// ErrInvalidPID is returned by Register for non-positive pids.
	ErrInvalidPID = errors.New("invalid pid")
	// ErrLayoutMismatch is returned by Join, if the existing region is too small for a registry.
	ErrLayoutMismatch = errors.New("region does not fit registry layout")
	// ErrClosed is returned by operations on a closed registry.
	ErrClosed = errors.New("registry is closed")
)

// layout is the record stored in the region.
// Count is the number of non-zero slots, free slots are 0.
type layout struct {
	Count int32
	PIDs  [MaxPIDs]int32
}

var layoutType = reflect.TypeOf(layout{})

// LayoutSize is the size of the registry record in bytes.
var LayoutSize = allocator.ObjectSize(layoutType)

// Config is a set of parameters for Join. Zero values are replaced with defaults.
type Config struct {
	// Name of the shared memory region. DefaultName, if empty.
	Name string
	// Platform to create regions with. shmregion.DefaultPlatform(), if nil.
	Platform shmregion.Platform
	// Checker is used by Prune. ProcessChecker, if nil.
	Checker LivenessChecker
	// Logger for registry messages. logrus.StandardLogger(), if nil.
	Logger logrus.FieldLogger
	// JoinAttempts is the number of create-then-attach attempts.
	JoinAttempts int
	// JoinInterval is the delay between join attempts.
	JoinInterval time.Duration
}

func (cfg *Config) setDefaults() {
	if len(cfg.Name) == 0 {
		cfg.Name = DefaultName
	}
	if cfg.Platform == nil {
		cfg.Platform = shmregion.DefaultPlatform()
	}
	if cfg.Checker == nil {
		cfg.Checker = ProcessChecker{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	if cfg.JoinAttempts <= 0 {
		cfg.JoinAttempts = defaultJoinAttempts
	}
	if cfg.JoinInterval <= 0 {
		cfg.JoinInterval = defaultJoinInterval
	}
}

// Snapshot is a view of the registry at some moment.
type Snapshot struct {
	// PIDs are non-zero slots in slot order.
	PIDs []int32
	// Count is the stored number of registered processes.
	Count int
}

// Registry is a handle to a shared registry of processes.
type Registry struct {
	region  *shmregion.Region
	data    *layout
	name    string
	checker LivenessChecker
	log     logrus.FieldLogger
}

// Join creates a registry with the given name, or attaches to an existing one.
// The creator initializes the record and becomes the owner of the region,
// attached processes never reinitialize it. If the owner removes the region between
// the two steps, the whole sequence is repeated.
func Join(cfg Config) (*Registry, error) {
	cfg.setDefaults()
	log := cfg.Logger.WithField("registry", cfg.Name)
	var region *shmregion.Region
	op := func() error {
		var err error
		region, err = shmregion.NewRegionPlatform(cfg.Platform, cfg.Name, shmregion.O_CREATE_ONLY, LayoutSize)
		if err == nil {
			return nil
		}
		if !errors.Is(err, shmregion.ErrAlreadyExists) {
			return backoff.Permanent(err)
		}
		region, err = shmregion.NewRegionPlatform(cfg.Platform, cfg.Name, shmregion.O_OPEN_ONLY, LayoutSize)
		if err == nil {
			return nil
		}
		// the owner has gone between the two calls, or has not resized the object yet.
		if errors.Is(err, shmregion.ErrNotFound) || errors.Is(err, shmregion.ErrSizeMismatch) {
			return err
		}
		return backoff.Permanent(err)
	}
	b := backoff.WithMaxRetries(backoff.NewConstantBackOff(cfg.JoinInterval), uint64(cfg.JoinAttempts-1))
	notify := func(err error, d time.Duration) {
		log.WithError(err).Debugf("failed to join registry, retrying in %v", d)
	}
	if err := backoff.RetryNotify(op, b, notify); err != nil {
		return nil, errors.Wrapf(err, "failed to join registry %q", cfg.Name)
	}
	ptr, err := allocator.Overlay(region.Data(), layoutType)
	if err != nil {
		region.Close()
		return nil, errors.Wrap(ErrLayoutMismatch, err.Error())
	}
	r := &Registry{
		region:  region,
		data:    (*layout)(ptr),
		name:    cfg.Name,
		checker: cfg.Checker,
		log:     log,
	}
	role := "attached"
	if region.Owner() {
		role = "owner"
		r.reset()
	}
	joins.WithLabelValues(r.name, role).Inc()
	acquireGauge(r.name)
	r.updateGauge()
	log.WithField("role", role).Debug("joined registry")
	return r, nil
}

// Name returns the name of the registry.
func (r *Registry) Name() string {
	return r.name
}

// Owner returns true, if the registry was created by this handle.
// The region is removed, when the owner is closed.
func (r *Registry) Owner() bool {
	return r.region.Owner()
}

// Register puts pid into the first free slot and returns the slot index.
func (r *Registry) Register(pid int32) (int, error) {
	if pid <= 0 {
		return -1, errors.Wrapf(ErrInvalidPID, "pid %d", pid)
	}
	if r.data == nil {
		return -1, ErrClosed
	}
	for i := range r.data.PIDs {
		slot := &r.data.PIDs[i]
		if atomic.LoadInt32(slot) == 0 {
			atomic.StoreInt32(slot, pid)
			atomic.StoreInt32(&r.data.Count, atomic.LoadInt32(&r.data.Count)+1)
			r.updateGauge()
			r.log.WithFields(logrus.Fields{"pid": pid, "slot": i}).Debug("registered")
			return i, nil
		}
	}
	return -1, errors.Wrapf(ErrFull, "failed to register pid %d", pid)
}

// Unregister frees the first slot holding pid.
// It returns false, if pid was not found.
func (r *Registry) Unregister(pid int32) bool {
	if pid <= 0 || r.data == nil || !r.remove(pid) {
		return false
	}
	r.updateGauge()
	r.log.WithField("pid", pid).Debug("unregistered")
	return true
}

// PIDs returns registered pids in slot order. It returns nil for a closed registry.
func (r *Registry) PIDs() []int32 {
	if r.data == nil {
		return nil
	}
	var result []int32
	for i := range r.data.PIDs {
		if pid := atomic.LoadInt32(&r.data.PIDs[i]); pid != 0 {
			result = append(result, pid)
		}
	}
	return result
}

// Count returns the stored number of registered processes, or 0 for a closed registry.
func (r *Registry) Count() int {
	if r.data == nil {
		return 0
	}
	return int(atomic.LoadInt32(&r.data.Count))
}

// Snapshot returns current pids and count.
func (r *Registry) Snapshot() Snapshot {
	return Snapshot{PIDs: r.PIDs(), Count: r.Count()}
}

// Prune checks every registered process and removes the ones, which do not exist.
// A process, which could not be checked, is kept. Removed pids are returned.
func (r *Registry) Prune(ctx context.Context) []int32 {
	if r.data == nil {
		return nil
	}
	var pruned []int32
	for i := range r.data.PIDs {
		pid := atomic.LoadInt32(&r.data.PIDs[i])
		if pid == 0 {
			continue
		}
		alive, err := r.checker.Alive(ctx, pid)
		if err != nil {
			probeErrors.WithLabelValues(r.name).Inc()
			r.log.WithError(err).WithField("pid", pid).Debug("liveness probe failed")
			continue
		}
		if alive {
			continue
		}
		if r.remove(pid) {
			pruned = append(pruned, pid)
			r.log.WithField("pid", pid).Info("removed dead process")
		}
	}
	if len(pruned) > 0 {
		prunedPIDs.WithLabelValues(r.name).Add(float64(len(pruned)))
		r.updateGauge()
	}
	return pruned
}

// Run calls report with a snapshot of the registry, and then prunes it, every interval.
// It returns ctx.Err(), when ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration, report func(Snapshot)) error {
	if interval <= 0 {
		return errors.Errorf("invalid interval %v", interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if r.data == nil {
			return ErrClosed
		}
		if report != nil {
			report(r.Snapshot())
		}
		r.Prune(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Close releases the region. If the registry is the owner, the region is removed.
// Other operations on a closed registry return ErrClosed or empty results.
func (r *Registry) Close() error {
	if r.data == nil {
		return nil
	}
	r.data = nil
	releaseGauge(r.name)
	return r.region.Close()
}

// remove frees the first slot holding pid and decrements the count.
func (r *Registry) remove(pid int32) bool {
	for i := range r.data.PIDs {
		slot := &r.data.PIDs[i]
		if atomic.LoadInt32(slot) == pid {
			atomic.StoreInt32(slot, 0)
			if count := atomic.LoadInt32(&r.data.Count); count > 0 {
				atomic.StoreInt32(&r.data.Count, count-1)
			}
			return true
		}
	}
	return false
}

func (r *Registry) reset() {
	atomic.StoreInt32(&r.data.Count, 0)
	for i := range r.data.PIDs {
		atomic.StoreInt32(&r.data.PIDs[i], 0)
	}
}

func (r *Registry) updateGauge() {
	registeredPIDs.WithLabelValues(r.name).Set(float64(r.Count()))
}
