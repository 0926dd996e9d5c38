// Copyright 2016 Aleksandr Demakin. All rights reserved.

package shmregion

import (
	"github.com/nxgtw/go-shmregion/mmf"

	"github.com/pkg/errors"
)

// Backing is a system object, which anchors a shared memory region.
type Backing interface {
	Name() string
	// Size returns the actual size of the object.
	Size() (int64, error)
	// Close releases the reference to the object. It does not remove the object.
	Close() error
}

// View is a mapping of a backing object into the address space of the process.
type View interface {
	Data() []byte
	Size() int
}

// Platform is a system namespace of shared memory objects.
type Platform interface {
	// CreateOrOpen creates a new object of the given size, if create is true,
	// or opens an existing one. Errors must satisfy os.IsExist, when an object being created exists,
	// and os.IsNotExist, when an object being opened does not exist.
	// If create is true, and the object could not be resized, the implementation
	// removes the object before returning an error.
	CreateOrOpen(name string, size int, create bool) (Backing, error)
	// MapView maps size bytes of the object for reading and writing.
	// Changes are visible to all processes, which map the same object.
	MapView(b Backing, size int) (View, error)
	// UnmapView releases a view returned by MapView.
	UnmapView(v View) error
	// Remove removes an object from the namespace. It is not an error, if there is no such object.
	Remove(name string) error
}

// DefaultPlatform returns a platform, which uses system shared memory objects.
func DefaultPlatform() Platform {
	return systemPlatform
}

// mmfViews maps objects with mmf. It is shared by system platforms.
type mmfViews struct{}

func (mmfViews) MapView(b Backing, size int) (View, error) {
	obj, ok := b.(mmf.Mappable)
	if !ok {
		return nil, errors.Errorf("%T cannot be mapped", b)
	}
	region, err := mmf.NewMemoryRegion(obj, mmf.MEM_READWRITE, size)
	if err != nil {
		return nil, err
	}
	return region, nil
}

func (mmfViews) UnmapView(v View) error {
	region, ok := v.(*mmf.MemoryRegion)
	if !ok {
		return errors.Errorf("%T is not a mapped region", v)
	}
	return region.Close()
}
