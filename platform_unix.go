// Copyright 2016 Aleksandr Demakin. All rights reserved.

//go:build darwin || freebsd || linux

package shmregion

import (
	"os"

	"github.com/nxgtw/go-shmregion/internal/common"
	"github.com/nxgtw/go-shmregion/shm"

	"github.com/sirupsen/logrus"
)

var systemPlatform Platform = posixPlatform{perm: DefaultPerm}

// posixPlatform uses posix shared memory objects.
type posixPlatform struct {
	mmfViews
	perm os.FileMode
}

func (p posixPlatform) CreateOrOpen(name string, size int, create bool) (Backing, error) {
	obj, err := shm.NewMemoryObject(name, common.OsFlags(create), p.perm)
	if err != nil {
		return nil, err
	}
	if !create {
		return obj, nil
	}
	if err = obj.Truncate(int64(size)); err != nil {
		if destroyErr := obj.Destroy(); destroyErr != nil {
			logger.WithFields(logrus.Fields{
				"name":  name,
				"error": destroyErr,
			}).Warn("failed to remove shared memory object after resize error")
		}
		return nil, newRegionError("truncate", name, ErrResizeFailed, err)
	}
	return obj, nil
}

func (p posixPlatform) Remove(name string) error {
	return shm.DestroyMemoryObject(name)
}
