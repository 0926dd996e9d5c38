// Copyright 2015 Aleksandr Demakin. All rights reserved.

package shm

import (
	"bufio"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

const (
	maxNameLen       = 255
	defaultShmPath   = "/dev/shm/"
	cShmfsSuperMagic = 0x01021994
	cRamfsMagic      = 0x858458f6
)

var (
	shmPathOnce sync.Once
	shmPath     string
)

// mount is a record from /proc/mounts or /etc/fstab.
type mount struct {
	dir    string
	fstype string
}

func doDestroyMemoryObject(path string) error {
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// glibc/sysdeps/posix/shm_open.c
func shmOpen(path string, flag int, perm os.FileMode) (*os.File, error) {
	return os.OpenFile(path, flag|unix.O_CLOEXEC|unix.O_NOFOLLOW, perm)
}

// glibc/sysdeps/posix/shm-directory.h
func shmName(name string) (string, error) {
	name = strings.TrimPrefix(name, "/")
	nameLen := len(name)
	if nameLen == 0 || nameLen >= maxNameLen || strings.Contains(name, "/") || name == "." || name == ".." {
		return "", errors.Errorf("invalid shm name %q", name)
	}
	dir, err := shmDirectory()
	if err != nil {
		return "", errors.Wrap(err, "error building shared memory name")
	}
	return dir + name, nil
}

func shmDirectory() (string, error) {
	shmPathOnce.Do(locateShmFs)
	if len(shmPath) == 0 {
		return "", errors.New("error locating the shared memory path")
	}
	return shmPath, nil
}

// glibc/sysdeps/unix/sysv/linux/shm-directory.c
func locateShmFs() {
	if checkShmPath(defaultShmPath) {
		shmPath = defaultShmPath
	} else {
		shmPath = shmFsFromMounts()
	}
}

func checkShmPath(path string) bool {
	if len(path) == 0 {
		return false
	}
	var statfs unix.Statfs_t
	if err := unix.Statfs(path, &statfs); err != nil {
		return false
	}
	// statfs.Type has different types on different platforms.
	return isShmFs(int64(statfs.Type))
}

func isShmFs(fsType int64) bool {
	return fsType == cShmfsSuperMagic || fsType == cRamfsMagic
}

func shmFsFromMounts() string {
	for _, name := range []string{"/proc/mounts", "/etc/fstab"} {
		fsFile, err := os.Open(name)
		if err != nil {
			continue
		}
		result := shmFsFromReader(fsFile, checkShmPath)
		fsFile.Close()
		if len(result) > 0 {
			return result
		}
	}
	return ""
}

// shmFsFromReader returns the first tmpfs or shm mount point,
// which passes the check.
func shmFsFromReader(r io.Reader, check func(string) bool) string {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		record := scanMountRecord(scanner.Text())
		if record == nil || (record.fstype != "tmpfs" && record.fstype != "shm") {
			continue
		}
		if !check(record.dir) {
			continue
		}
		result := record.dir
		if !strings.HasSuffix(result, "/") {
			result += "/"
		}
		return result
	}
	return ""
}

// scanMountRecord parses a line in fstab format:
//	fsname dir type opts freq passno
// it returns nil for comments and incomplete records.
func scanMountRecord(record string) *mount {
	fields := strings.Fields(record)
	if len(fields) < 3 || strings.HasPrefix(fields[0], "#") {
		return nil
	}
	return &mount{dir: fields[1], fstype: fields[2]}
}
