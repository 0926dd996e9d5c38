// Copyright 2015 Aleksandr Demakin. All rights reserved.

package mmf

import (
	"os"
	"runtime"

	"github.com/pkg/errors"
)

// constants for memory regions
const (
	MEM_READ_ONLY = 0x00000001
	MEM_READWRITE = 0x00000004
)

// MemoryRegion is a mmapped area of a memory object.
// Warning. The internal object has a finalizer set,
// so the region will be unmapped during the gc.
// Thus, you should be carefull getting internal data.
// For example, the following code may crash:
//	func f() {
//		region := NewMemoryRegion(...)
//		return g(region.Data())
//	}
// region may be gc'ed while its data is used by g().
// To avoid this, keep the region alive with runtime.KeepAlive or use region readers/writers.
type MemoryRegion struct {
	*memoryRegion
}

// Mappable is an object, which can return a handle,
// that can be used as a file descriptor for mmap.
// On windows it must be a handle of a file mapping object.
type Mappable interface {
	Fd() uintptr
}

// NewMemoryRegion maps an object into the address space of the process.
//	obj - an object to mmap.
//	mode - open mode. see MEM_* constants.
//	size - mapping size. if it is 0, the size of the object is used.
// The mapping always starts at the beginning of the object.
func NewMemoryRegion(obj Mappable, mode int, size int) (*MemoryRegion, error) {
	size, err := checkMmapSize(obj, size)
	if err != nil {
		return nil, errors.Wrap(err, "size check failed")
	}
	impl, err := newMemoryRegion(obj, mode, size)
	if err != nil {
		return nil, err
	}
	result := &MemoryRegion{impl}
	runtime.SetFinalizer(impl, func(region *memoryRegion) {
		region.Close()
	})
	return result, nil
}

// Close unmaps the region so that it cannot be longer used.
func (region *MemoryRegion) Close() error {
	runtime.SetFinalizer(region.memoryRegion, nil)
	return region.memoryRegion.Close()
}

// objectSizer is implemented by shared memory objects.
type objectSizer interface {
	Size() (int64, error)
}

// fileInfoGetter is implemented by *os.File.
type fileInfoGetter interface {
	Stat() (os.FileInfo, error)
}

// objectSize returns the size of the object, if it can be obtained.
// ok is false, if the object does not provide its size.
func objectSize(obj Mappable) (size int64, ok bool, err error) {
	switch typed := obj.(type) {
	case objectSizer:
		size, err = typed.Size()
		return size, true, err
	case fileInfoGetter:
		var fi os.FileInfo
		if fi, err = typed.Stat(); err != nil {
			return 0, true, err
		}
		return fi.Size(), true, nil
	}
	return 0, false, nil
}

func checkMmapSize(obj Mappable, size int) (int, error) {
	if size < 0 {
		return 0, errors.Errorf("invalid mapping size %d", size)
	}
	objSize, ok, err := objectSize(obj)
	if err != nil {
		return 0, err
	}
	if !ok {
		if size == 0 && runtime.GOOS != "windows" {
			return 0, errors.New("must provide a valid mapping size")
		}
		return size, nil
	}
	if size == 0 {
		if objSize == 0 {
			return 0, errors.New("cannot map an empty object")
		}
		return int(objSize), nil
	}
	// you can actually mmap more bytes, then the size of the object,
	// which can cause unexpected problems (SIGBUS on unix).
	if int64(size) > objSize {
		return 0, errors.Errorf("invalid mapping length: %d > %d", size, objSize)
	}
	return size, nil
}
