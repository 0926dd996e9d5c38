// Copyright 2016 Aleksandr Demakin. All rights reserved.

package sys

import (
	"os"
	"unsafe"

	"github.com/nxgtw/go-shmregion/internal/allocator"

	"golang.org/x/sys/windows"
)

var (
	modkernel32           = windows.NewLazySystemDLL("kernel32.dll")
	procOpenFileMapping   = modkernel32.NewProc("OpenFileMappingW")
	procCreateFileMapping = modkernel32.NewProc("CreateFileMappingW")
)

// OpenFileMapping is a wraper for windows syscall.
func OpenFileMapping(access uint32, inheritHandle uint32, name string) (windows.Handle, error) {
	namep, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return 0, err
	}
	nameu := unsafe.Pointer(namep)
	r1, _, err := procOpenFileMapping.Call(uintptr(access), uintptr(inheritHandle), uintptr(nameu))
	allocator.Use(nameu)
	if r1 == 0 {
		if err == windows.ERROR_FILE_NOT_FOUND {
			return 0, &os.PathError{Path: name, Op: "OpenFileMapping", Err: err}
		}
		return 0, os.NewSyscallError("OpenFileMapping", err)
	}
	return windows.Handle(r1), nil
}

// CreateFileMapping is a wraper for windows syscall.
// CreateFileMapping may return a valid handle along with ERROR_ALREADY_EXISTS.
// In this case the handle is returned with an *os.PathError, so that os.IsExist(err) is true,
// and the caller is responsible for closing the handle.
func CreateFileMapping(fhandle windows.Handle, sa *windows.SecurityAttributes, prot uint32, maxSizeHigh uint32, maxSizeLow uint32, name string) (handle windows.Handle, err error) {
	var namep *uint16
	if len(name) > 0 {
		namep, err = windows.UTF16PtrFromString(name)
		if err != nil {
			return 0, err
		}
	}
	nameu := unsafe.Pointer(namep)
	sau := unsafe.Pointer(sa)
	r1, _, err := procCreateFileMapping.Call(uintptr(fhandle), uintptr(sau), uintptr(prot), uintptr(maxSizeHigh), uintptr(maxSizeLow), uintptr(nameu))
	allocator.Use(sau)
	allocator.Use(nameu)
	if r1 == 0 {
		return 0, os.NewSyscallError("CreateFileMapping", err)
	}
	if err == windows.ERROR_ALREADY_EXISTS {
		return windows.Handle(r1), &os.PathError{Path: name, Op: "CreateFileMapping", Err: err}
	}
	return windows.Handle(r1), nil
}

// ViewSize returns the size of a view mapped at addr, rounded up to the page size.
func ViewSize(addr uintptr) (int, error) {
	var info windows.MemoryBasicInformation
	if err := windows.VirtualQuery(addr, &info, unsafe.Sizeof(info)); err != nil {
		return 0, os.NewSyscallError("VirtualQuery", err)
	}
	return int(info.RegionSize), nil
}
