// Copyright 2016 Aleksandr Demakin. All rights reserved.

package shmregion

import (
	"github.com/nxgtw/go-shmregion/internal/common"
	"github.com/nxgtw/go-shmregion/shm"
)

var systemPlatform Platform = windowsPlatform{}

// windowsPlatform uses named file mappings backed by the paging file.
// The system destroys such an object, when its last handle is closed,
// so Remove has nothing to do.
type windowsPlatform struct {
	mmfViews
}

func (windowsPlatform) CreateOrOpen(name string, size int, create bool) (Backing, error) {
	obj, err := shm.NewWindowsNativeMemoryObject(name, common.OsFlags(create), size)
	if err != nil {
		return nil, err
	}
	return obj, nil
}

func (windowsPlatform) Remove(name string) error {
	return shm.DestroyMemoryObject(name)
}
