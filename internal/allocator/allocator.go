// Copyright 2015 Aleksandr Demakin. All rights reserved.

package allocator

import (
	"reflect"
	"runtime"
	"unsafe"

	"github.com/pkg/errors"
)

// ByteSliceFromUnsafePointer returns a slice of bytes with given length and capacity.
// Memory pointed by the unsafe.Pointer is used for the slice.
func ByteSliceFromUnsafePointer(memory unsafe.Pointer, length, capacity int) []byte {
	if memory == nil {
		return nil
	}
	return unsafe.Slice((*byte)(memory), capacity)[:length]
}

// ByteSliceData returns a pointer to the data of the given byte slice.
func ByteSliceData(slice []byte) unsafe.Pointer {
	return unsafe.Pointer(unsafe.SliceData(slice))
}

// Use ensures that p is kept live until that point.
func Use(p unsafe.Pointer) {
	runtime.KeepAlive(p)
}

// ObjectSize returns the size of a value of the given type.
// If t is a pointer type, the size of the pointed type is returned.
func ObjectSize(t reflect.Type) int {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return int(t.Size())
}

// Overlay returns a pointer to the beginning of memory, so that an object
// of type t could be placed there byte by byte.
// t must not contain reference types like maps, slices, or strings,
// and a pointer is allowed at the top level only.
// Overlay also fails, if the memory is too small.
func Overlay(memory []byte, t reflect.Type) (unsafe.Pointer, error) {
	if t == nil {
		return nil, errors.New("nil overlay type")
	}
	if err := checkType(t, 0); err != nil {
		return nil, errors.Wrap(err, "invalid overlay type")
	}
	size := ObjectSize(t)
	if len(memory) < size {
		return nil, errors.Errorf("the memory is too small for the object: %d < %d", len(memory), size)
	}
	return ByteSliceData(memory), nil
}

func checkType(t reflect.Type, depth int) error {
	kind := t.Kind()
	if kind == reflect.Array {
		return checkType(t.Elem(), depth+1)
	}
	if kind == reflect.Ptr {
		if depth != 0 {
			return errors.New("unexpected pointer type")
		}
		return checkType(t.Elem(), depth+1)
	}
	if kind == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if err := checkType(field.Type, depth+1); err != nil {
				return errors.Wrapf(err, "field %s", field.Name)
			}
		}
		return nil
	}
	return checkNumericType(kind)
}

func checkNumericType(kind reflect.Kind) error {
	if kind >= reflect.Bool && kind <= reflect.Complex128 {
		return nil
	}
	return errors.Errorf("unsupported type %q", kind.String())
}
