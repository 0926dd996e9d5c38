// Copyright 2016 Aleksandr Demakin. All rights reserved.

package common

import (
	"os"

	"github.com/pkg/errors"
)

// open modes for regions. there is no open-or-create mode:
// callers, which need it, try to create first and then open.
const (
	O_CREATE_ONLY = 0x00000002
	O_OPEN_ONLY   = 0x00000004
)

// IsCreateMode checks the mode and returns true, if it requests exclusive creation.
func IsCreateMode(mode int) (bool, error) {
	switch mode {
	case O_CREATE_ONLY:
		return true, nil
	case O_OPEN_ONLY:
		return false, nil
	default:
		return false, errors.Errorf("unknown open mode %d", mode)
	}
}

// OsFlags returns flags, which can be passed to os.OpenFile and similar calls.
// The object is always opened for reading and writing.
func OsFlags(create bool) int {
	if create {
		return os.O_CREATE | os.O_EXCL | os.O_RDWR
	}
	return os.O_RDWR
}

// FlagsForAccess extracts os access flags from the given value.
func FlagsForAccess(flag int) int {
	return flag & (os.O_RDONLY | os.O_WRONLY | os.O_RDWR)
}

// IsCreate returns true, if flag requests creation of an object.
func IsCreate(flag int) bool {
	return flag&os.O_CREATE != 0
}
