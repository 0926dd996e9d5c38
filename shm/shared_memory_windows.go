// Copyright 2016 Aleksandr Demakin. All rights reserved.

package shm

import (
	"os"

	"github.com/nxgtw/go-shmregion/internal/common"
	"github.com/nxgtw/go-shmregion/internal/sys/windows"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"
)

// memoryObject is a standart windows shm implementation backed by a paging file.
// It does not follow the usual memory object semantics: it is destroyed only when all its handles are closed,
// and its size is set once, when it is created.
type memoryObject struct {
	name   string
	handle windows.Handle
}

// NewWindowsNativeMemoryObject creates or opens a named file mapping backed by the paging file.
//	name - object name.
//	flag - combination of open flags from 'os' package.
//	size - mapping size. it is used only if the object is created.
// If O_CREATE|O_EXCL is passed, and the object exists, the error satisfies os.IsExist.
// If O_CREATE is not passed, and the object does not exist, the error satisfies os.IsNotExist.
func NewWindowsNativeMemoryObject(name string, flag, size int) (*MemoryObject, error) {
	if len(name) == 0 {
		return nil, errors.New("invalid shm name")
	}
	prot, access, err := sysProtAndAccessFromFlag(flag)
	if err != nil {
		return nil, errors.Wrap(err, "windows native shm flags check failed")
	}
	var handle windows.Handle
	if common.IsCreate(flag) {
		maxSizeHigh := uint32((int64(size)) >> 32)
		maxSizeLow := uint32((int64(size)) & 0xFFFFFFFF)
		handle, err = sys.CreateFileMapping(windows.InvalidHandle, nil, prot, maxSizeHigh, maxSizeLow, name)
		if os.IsExist(err) {
			windows.CloseHandle(handle)
			if flag&os.O_EXCL == 0 {
				// the mapping is opened with the same access.
				handle, err = sys.OpenFileMapping(access, 0, name)
			}
		}
	} else {
		handle, err = sys.OpenFileMapping(access, 0, name)
	}
	if err != nil {
		return nil, err
	}
	return newMemoryObjectWrapper(&memoryObject{name: name, handle: handle}), nil
}

// Name returns the name of the object as it was given to NewWindowsNativeMemoryObject().
func (obj *memoryObject) Name() string {
	return obj.name
}

// Fd returns the handle of the mapping object.
func (obj *memoryObject) Fd() uintptr {
	return uintptr(obj.handle)
}

// Size maps the object and returns the size of the view, which is rounded up to the page size.
func (obj *memoryObject) Size() (int64, error) {
	addr, err := windows.MapViewOfFile(obj.handle, windows.FILE_MAP_READ, 0, 0, 0)
	if err != nil {
		return 0, os.NewSyscallError("MapViewOfFile", err)
	}
	defer windows.UnmapViewOfFile(addr)
	size, err := sys.ViewSize(addr)
	if err != nil {
		return 0, err
	}
	return int64(size), nil
}

// Close closes mapping file object.
func (obj *memoryObject) Close() error {
	if obj.handle == windows.InvalidHandle {
		return nil
	}
	err := windows.CloseHandle(obj.handle)
	obj.handle = windows.InvalidHandle
	if err != nil {
		return errors.Wrap(err, "close handle failed")
	}
	return nil
}

// Truncate returns an error. The size is set when calling NewWindowsNativeMemoryObject.
func (obj *memoryObject) Truncate(size int64) error {
	return errors.New("truncate cannot be done on windows shared memory")
}

// Destroy closes the handle. The system removes the object, when its last handle is closed.
func (obj *memoryObject) Destroy() error {
	return obj.Close()
}

func destroyMemoryObject(name string) error {
	return nil
}

func sysProtAndAccessFromFlag(flag int) (prot uint32, access uint32, err error) {
	switch common.FlagsForAccess(flag) {
	case os.O_RDONLY:
		prot = windows.PAGE_READONLY
		access = windows.FILE_MAP_READ
	case os.O_RDWR:
		prot = windows.PAGE_READWRITE
		access = windows.FILE_MAP_WRITE | windows.FILE_MAP_READ
	default:
		err = errors.Errorf("invalid shm access flags %d", flag)
	}
	return
}
