// Copyright 2015 Aleksandr Demakin. All rights reserved.

package shm

import (
	"runtime"
)

// MemoryObject represents an object which can be used to
// map shared memory regions into the process' address space.
type MemoryObject struct {
	*memoryObject
}

func newMemoryObjectWrapper(impl *memoryObject) *MemoryObject {
	result := &MemoryObject{impl}
	runtime.SetFinalizer(impl, func(memObject *memoryObject) {
		memObject.Close()
	})
	return result
}

// Close closes object's handle. The object itself is not removed.
func (obj *MemoryObject) Close() error {
	runtime.SetFinalizer(obj.memoryObject, nil)
	return obj.memoryObject.Close()
}

// Destroy closes the object and removes it permanently.
func (obj *MemoryObject) Destroy() error {
	runtime.SetFinalizer(obj.memoryObject, nil)
	return obj.memoryObject.Destroy()
}

// DestroyMemoryObject permanently removes given memory object.
// It is not an error, if the object does not exist.
func DestroyMemoryObject(name string) error {
	return destroyMemoryObject(name)
}
