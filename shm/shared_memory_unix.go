// Copyright 2015 Aleksandr Demakin. All rights reserved.

//go:build darwin || freebsd || linux

package shm

import (
	"os"

	"github.com/pkg/errors"
)

type memoryObject struct {
	file *os.File
	name string
}

// NewMemoryObject creates or opens a shared memory object.
//	name - a name of the object. it may start with '/', should not contain other '/' and exceed 255 symbols.
//	flag - combination of open flags from 'os' package.
//	perm - object's mode and permission bits.
// If O_CREATE|O_EXCL is passed, and the object exists, the error satisfies os.IsExist.
// If O_CREATE is not passed, and the object does not exist, the error satisfies os.IsNotExist.
func NewMemoryObject(name string, flag int, perm os.FileMode) (*MemoryObject, error) {
	path, err := shmName(name)
	if err != nil {
		return nil, err
	}
	file, err := shmOpen(path, flag, perm)
	if err != nil {
		return nil, err
	}
	return newMemoryObjectWrapper(&memoryObject{file: file, name: name}), nil
}

func (obj *memoryObject) Destroy() error {
	if err := obj.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return errors.Wrap(err, "close failed")
	}
	return doDestroyMemoryObject(obj.file.Name())
}

// Name returns the name of the object as it was given to NewMemoryObject().
func (obj *memoryObject) Name() string {
	return obj.name
}

func (obj *memoryObject) Close() error {
	return obj.file.Close()
}

func (obj *memoryObject) Truncate(size int64) error {
	return obj.file.Truncate(size)
}

func (obj *memoryObject) Size() (int64, error) {
	fileInfo, err := obj.file.Stat()
	if err != nil {
		return 0, errors.Wrap(err, "stat failed")
	}
	return fileInfo.Size(), nil
}

func (obj *memoryObject) Fd() uintptr {
	return obj.file.Fd()
}

func destroyMemoryObject(name string) error {
	path, err := shmName(name)
	if err != nil {
		return err
	}
	return doDestroyMemoryObject(path)
}
