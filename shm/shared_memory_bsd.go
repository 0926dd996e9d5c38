// Copyright 2015 Aleksandr Demakin. All rights reserved.

//go:build darwin || freebsd

package shm

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"syscall"
	"unsafe"

	"github.com/nxgtw/go-shmregion/internal/allocator"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

func doDestroyMemoryObject(path string) error {
	err := shmUnlink(path)
	if os.IsNotExist(err) {
		err = nil
	}
	return err
}

func shmName(name string) (string, error) {
	const maxNameLen = 30
	name = strings.TrimPrefix(name, "/")
	if len(name) == 0 || strings.Contains(name, "/") {
		return "", errors.Errorf("invalid shm name %q", name)
	}
	// workaround from http://www.opensource.apple.com/source/Libc/Libc-320/sys/shm_open.c
	if runtime.GOOS == "darwin" {
		newName := fmt.Sprintf("%s\t%d", name, unix.Geteuid())
		if len(newName) < maxNameLen {
			name = newName
		}
	}
	return "/" + name, nil
}

func shmOpen(path string, flag int, perm os.FileMode) (*os.File, error) {
	flag |= unix.O_CLOEXEC
	fd, err := sysShmOpen(path, flag, int(perm))
	if err != nil {
		return nil, err
	}
	return os.NewFile(fd, path), nil
}

// syscalls

func sysShmOpen(name string, flags, mode int) (uintptr, error) {
	nameBytes, err := unix.BytePtrFromString(name)
	if err != nil {
		return 0, err
	}
	bytes := unsafe.Pointer(nameBytes)
	fd, _, errno := unix.Syscall(unix.SYS_SHM_OPEN, uintptr(bytes), uintptr(flags), uintptr(mode))
	allocator.Use(bytes)
	if errno != syscall.Errno(0) {
		return 0, &os.PathError{Path: name, Op: "shm_open", Err: errno}
	}
	return fd, nil
}

func shmUnlink(name string) error {
	nameBytes, err := unix.BytePtrFromString(name)
	if err != nil {
		return err
	}
	bytes := unsafe.Pointer(nameBytes)
	_, _, errno := unix.Syscall(unix.SYS_SHM_UNLINK, uintptr(bytes), 0, 0)
	allocator.Use(bytes)
	if errno != syscall.Errno(0) {
		return &os.PathError{Path: name, Op: "shm_unlink", Err: errno}
	}
	return nil
}
