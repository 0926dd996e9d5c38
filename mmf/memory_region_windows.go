// Copyright 2015 Aleksandr Demakin. All rights reserved.

package mmf

import (
	"os"
	"unsafe"

	"github.com/nxgtw/go-shmregion/internal/allocator"
	"github.com/nxgtw/go-shmregion/internal/sys/windows"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"
)

type memoryRegion struct {
	data []byte
	size int
}

func newMemoryRegion(obj Mappable, mode int, size int) (*memoryRegion, error) {
	access, err := memAccessFromMode(mode)
	if err != nil {
		return nil, errors.Wrap(err, "memory region flags check failed")
	}
	// the whole object is mapped, as views are rounded up to the page size anyway.
	addr, err := windows.MapViewOfFile(windows.Handle(obj.Fd()), access, 0, 0, 0)
	if err != nil {
		return nil, os.NewSyscallError("MapViewOfFile", err)
	}
	viewSize, err := sys.ViewSize(addr)
	if err != nil {
		windows.UnmapViewOfFile(addr)
		return nil, err
	}
	if size == 0 {
		size = viewSize
	} else if size > viewSize {
		windows.UnmapViewOfFile(addr)
		return nil, errors.Errorf("invalid mapping length: %d > %d", size, viewSize)
	}
	return &memoryRegion{
		data: allocator.ByteSliceFromUnsafePointer(unsafe.Pointer(addr), size, size),
		size: size,
	}, nil
}

func (region *memoryRegion) Close() error {
	if region.data == nil {
		return nil
	}
	err := windows.UnmapViewOfFile(uintptr(allocator.ByteSliceData(region.data)))
	region.data = nil
	region.size = 0
	if err != nil {
		return os.NewSyscallError("UnmapViewOfFile", err)
	}
	return nil
}

func (region *memoryRegion) Data() []byte {
	return region.data
}

func (region *memoryRegion) Size() int {
	return region.size
}

func memAccessFromMode(mode int) (uint32, error) {
	switch mode {
	case MEM_READ_ONLY:
		return windows.FILE_MAP_READ, nil
	case MEM_READWRITE:
		return windows.FILE_MAP_WRITE | windows.FILE_MAP_READ, nil
	default:
		return 0, errors.Errorf("invalid memory region flags %d", mode)
	}
}
