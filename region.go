// Copyright 2016 Aleksandr Demakin. All rights reserved.

package shmregion

import (
	"runtime"

	"github.com/nxgtw/go-shmregion/internal/common"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Region is a named shared memory object mapped into the address space of the process.
// Regions must not be copied. To pass the ownership to another variable, use Move.
// A region has a finalizer set, which closes it, if it becomes unreachable,
// so do not use its Data() after the region itself is no longer referenced.
type Region struct {
	platform Platform
	name     string
	view     View
	size     int
	backing  Backing
	owner    bool
}

// NewRegion creates or opens a shared memory object and maps it for reading and writing.
//	name - object name. On unix it may start with '/' and must not contain other '/'.
//	mode - O_CREATE_ONLY or O_OPEN_ONLY.
//	size - region size, must be > 0. When an existing object is opened, this value is ignored,
//	and the size of the object is used.
// If any step fails, everything acquired before is released, and no region is returned.
func NewRegion(name string, mode int, size int) (*Region, error) {
	return NewRegionPlatform(DefaultPlatform(), name, mode, size)
}

// NewRegionPlatform is like NewRegion, but uses the given platform.
func NewRegionPlatform(p Platform, name string, mode int, size int) (*Region, error) {
	if size <= 0 {
		return nil, newRegionError("new", name, ErrInvalidArgument, errors.Errorf("invalid size %d", size))
	}
	if len(name) == 0 {
		return nil, newRegionError("new", name, ErrInvalidArgument, errors.New("empty name"))
	}
	if p == nil {
		return nil, newRegionError("new", name, ErrInvalidArgument, errors.New("nil platform"))
	}
	create, err := common.IsCreateMode(mode)
	if err != nil {
		return nil, newRegionError("new", name, ErrInvalidArgument, err)
	}
	op := "open"
	if create {
		op = "create"
	}
	fields := logrus.Fields{"name": name, "size": size}
	logger.WithFields(fields).Debugf("attempting to %s shared memory", op)

	backing, err := p.CreateOrOpen(name, size, create)
	if err != nil {
		return nil, translateError(op, name, err)
	}
	region := &Region{
		platform: p,
		name:     name,
		backing:  backing,
		owner:    create,
	}
	if region.size, err = resolveSize(backing, size, create); err != nil {
		region.release()
		return nil, newRegionError(op, name, ErrSizeMismatch, err)
	}
	if region.view, err = p.MapView(backing, region.size); err != nil {
		region.release()
		return nil, newRegionError("map", name, ErrMapFailed, err)
	}
	fields["size"] = region.size
	logger.WithFields(fields).Debug("shared memory mapped")
	runtime.SetFinalizer(region, (*Region).finalize)
	return region, nil
}

// resolveSize returns the actual size of the object, which overrides the requested one.
// The system may round the size of a created object up, but never down.
func resolveSize(backing Backing, requested int, create bool) (int, error) {
	actual, err := backing.Size()
	if err != nil {
		return 0, errors.Wrap(err, "failed to get object size")
	}
	if actual <= 0 {
		return 0, errors.Errorf("object has invalid size %d", actual)
	}
	if create && actual < int64(requested) {
		return 0, errors.Errorf("object size %d is less than requested %d", actual, requested)
	}
	if int64(int(actual)) != actual {
		return 0, errors.Errorf("object size %d is too big", actual)
	}
	return int(actual), nil
}

// WithRegion creates or opens a region, calls f, and closes the region on every exit path.
func WithRegion(name string, mode int, size int, f func(*Region) error) error {
	region, err := NewRegion(name, mode, size)
	if err != nil {
		return err
	}
	defer region.Close()
	return f(region)
}

// Remove removes the object with the given name from the system.
// It can be used to clear an object, which was left by a crashed owner.
// It is not an error, if there is no such object.
func Remove(name string) error {
	return RemovePlatform(DefaultPlatform(), name)
}

// RemovePlatform is like Remove, but uses the given platform.
func RemovePlatform(p Platform, name string) error {
	if len(name) == 0 {
		return newRegionError("remove", name, ErrInvalidArgument, errors.New("empty name"))
	}
	if err := p.Remove(name); err != nil {
		return translateError("remove", name, err)
	}
	return nil
}

// Name returns the name of the region. It is empty after the region has been moved.
func (r *Region) Name() string {
	return r.name
}

// Data returns mapped memory. It is nil after the region has been closed or moved.
func (r *Region) Data() []byte {
	if r.view == nil {
		return nil
	}
	return r.view.Data()
}

// Size returns the actual size of the region. It is 0 after the region has been closed or moved.
func (r *Region) Size() int {
	return r.size
}

// Owner returns true, if the region created the object and will remove it on Close.
func (r *Region) Owner() bool {
	return r.owner
}

// Closed returns true, if the region holds no mapping.
func (r *Region) Closed() bool {
	return r.view == nil && r.backing == nil
}

// Move transfers the mapping, the object and the ownership to a new region.
// The source region becomes empty: closing it does nothing.
func (r *Region) Move() *Region {
	moved := &Region{
		platform: r.platform,
		name:     r.name,
		view:     r.view,
		size:     r.size,
		backing:  r.backing,
		owner:    r.owner,
	}
	runtime.SetFinalizer(r, nil)
	r.name, r.view, r.size, r.backing, r.owner = "", nil, 0, nil, false
	if !moved.Closed() {
		runtime.SetFinalizer(moved, (*Region).finalize)
	}
	return moved
}

// Close unmaps the region and releases the object. If the region is the owner,
// the object is removed from the system. Failures are logged, and Close always returns nil.
// It is safe to call Close several times.
func (r *Region) Close() error {
	if r == nil {
		return nil
	}
	runtime.SetFinalizer(r, nil)
	r.release()
	return nil
}

func (r *Region) finalize() {
	logger.WithField("name", r.name).Warn("shared memory region was not closed")
	r.release()
}

// release runs all cleanup steps, even if some of them fail.
func (r *Region) release() {
	fields := logrus.Fields{"name": r.name}
	if r.view != nil {
		if err := r.platform.UnmapView(r.view); err != nil {
			logger.WithFields(fields).WithError(err).Warn("failed to unmap shared memory")
		}
		r.view = nil
	}
	if r.backing != nil {
		if err := r.backing.Close(); err != nil {
			logger.WithFields(fields).WithError(err).Warn("failed to close shared memory object")
		}
		r.backing = nil
		if r.owner {
			if err := r.platform.Remove(r.name); err != nil {
				logger.WithFields(fields).WithError(err).Warn("failed to remove shared memory object")
			} else {
				logger.WithFields(fields).Debug("shared memory object removed")
			}
		}
	}
	r.owner = false
	r.size = 0
}
