// Copyright 2015 Aleksandr Demakin. All rights reserved.

package shmregion

import (
	"fmt"

	testutil "github.com/nxgtw/go-shmregion/internal/test"
)

const (
	shmProgName = "./internal/test/shm/main.go"
)

// Shared memory test program

func argsForShmCreateCommand(name string, size int) []string {
	return []string{shmProgName, "-object=" + name, "create", fmt.Sprintf("%d", size)}
}

func argsForShmSizeCommand(name string) []string {
	return []string{shmProgName, "-object=" + name, "size"}
}

func argsForShmReadCommand(name string, offset int, length int) []string {
	return []string{shmProgName, "-object=" + name, "read", fmt.Sprintf("%d", offset), fmt.Sprintf("%d", length)}
}

func argsForShmTestCommand(name string, offset int, data []byte) []string {
	return []string{shmProgName, "-object=" + name, "test", fmt.Sprintf("%d", offset), testutil.BytesToString(data)}
}

func argsForShmWriteCommand(name string, offset int, data []byte) []string {
	return []string{shmProgName, "-object=" + name, "write", fmt.Sprintf("%d", offset), testutil.BytesToString(data)}
}

func argsForShmHoldCommand(name string, size int, duration string) []string {
	return []string{shmProgName, "-object=" + name, "hold", fmt.Sprintf("%d", size), duration}
}
