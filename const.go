// Copyright 2015 Aleksandr Demakin. All rights reserved.

package shmregion

import (
	"os"

	"github.com/nxgtw/go-shmregion/internal/common"
)

// open modes for regions.
const (
	// O_CREATE_ONLY creates a new object. It fails, if the object exists.
	O_CREATE_ONLY = common.O_CREATE_ONLY
	// O_OPEN_ONLY opens an existing object. It fails, if there is no such object.
	O_OPEN_ONLY = common.O_OPEN_ONLY
)

// DefaultPerm is the permission set for created objects.
const DefaultPerm os.FileMode = 0600
