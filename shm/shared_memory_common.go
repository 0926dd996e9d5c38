// Copyright 2015 Aleksandr Demakin. All rights reserved.

package shm

// this is to ensure, that all implementations of shm-related structs
// satisfy the same minimal interface
var (
	_ SharedMemoryObject = (*MemoryObject)(nil)
)

// SharedMemoryObject is an interface, which must be implemented
// by any implemetation of an object used for mapping into memory.
type SharedMemoryObject interface {
	Name() string
	Size() (int64, error)
	Truncate(size int64) error
	Close() error
	Destroy() error
	Fd() uintptr
}
