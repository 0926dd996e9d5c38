// Copyright 2015 Aleksandr Demakin. All rights reserved.

package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	shmregion "github.com/nxgtw/go-shmregion"
	testutil "github.com/nxgtw/go-shmregion/internal/test"
	"github.com/nxgtw/go-shmregion/mmf"

	"github.com/pkg/errors"
)

var (
	objName = flag.String("object", "", "shared memory object name")
)

const usage = `test program for shared memory regions.
available commands:
  create size
  size
  read offset len
  test offset {expected values byte array}
  write offset {values byte array}
  hold size duration
byte array should be passed as a continuous string of 2-symbol hex byte values like '01020A'
`

func create() error {
	if flag.NArg() != 2 {
		return errors.New("create: must provide exactly one argument")
	}
	size, err := strconv.Atoi(flag.Arg(1))
	if err != nil {
		return err
	}
	region, err := shmregion.NewRegion(*objName, shmregion.O_CREATE_ONLY, size)
	if err != nil {
		return err
	}
	return region.Close()
}

func size() error {
	if flag.NArg() != 1 {
		return errors.New("size: must not provide any arguments")
	}
	return shmregion.WithRegion(*objName, shmregion.O_OPEN_ONLY, 1, func(region *shmregion.Region) error {
		fmt.Println(region.Size())
		return nil
	})
}

func read() error {
	if flag.NArg() != 3 {
		return errors.New("read: must provide exactly two arguments")
	}
	offset, err := strconv.Atoi(flag.Arg(1))
	if err != nil {
		return err
	}
	length, err := strconv.Atoi(flag.Arg(2))
	if err != nil {
		return err
	}
	return shmregion.WithRegion(*objName, shmregion.O_OPEN_ONLY, 1, func(region *shmregion.Region) error {
		if length < 0 {
			return errors.Errorf("invalid length %d", length)
		}
		buf := make([]byte, length)
		if _, err := mmf.NewRegionReader(region).ReadAt(buf, int64(offset)); err != nil {
			return errors.Wrapf(err, "failed to read [%d, %d) from region of size %d", offset, offset+length, region.Size())
		}
		fmt.Println(testutil.BytesToString(buf))
		return nil
	})
}

func test() error {
	if flag.NArg() != 3 {
		return errors.New("test: must provide exactly two arguments")
	}
	offset, err := strconv.Atoi(flag.Arg(1))
	if err != nil {
		return err
	}
	data, err := testutil.StringToBytes(flag.Arg(2))
	if err != nil {
		return err
	}
	return shmregion.WithRegion(*objName, shmregion.O_OPEN_ONLY, 1, func(region *shmregion.Region) error {
		rd := mmf.NewRegionReader(region)
		if _, err := rd.Seek(int64(offset), io.SeekStart); err != nil {
			return err
		}
		actual := make([]byte, len(data))
		if _, err := io.ReadFull(rd, actual); err != nil {
			return errors.Wrapf(err, "failed to read at %d from region of size %d", offset, region.Size())
		}
		for i, value := range actual {
			if value != data[i] {
				return errors.Errorf("invalid value at %d. expected '%d', got '%d'", i, data[i], value)
			}
		}
		return nil
	})
}

func write() error {
	if flag.NArg() != 3 {
		return errors.New("write: must provide exactly two arguments")
	}
	offset, err := strconv.Atoi(flag.Arg(1))
	if err != nil {
		return err
	}
	data, err := testutil.StringToBytes(flag.Arg(2))
	if err != nil {
		return err
	}
	return shmregion.WithRegion(*objName, shmregion.O_OPEN_ONLY, 1, func(region *shmregion.Region) error {
		if offset < 0 || offset+len(data) > region.Size() {
			return errors.Errorf("invalid offset %d for region of size %d", offset, region.Size())
		}
		wr := mmf.NewRegionWriter(region)
		if _, err := wr.Seek(int64(offset), io.SeekStart); err != nil {
			return err
		}
		_, err := wr.Write(data)
		return err
	})
}

// hold creates a region and keeps it for the given time, or until killed.
func hold() error {
	if flag.NArg() != 3 {
		return errors.New("hold: must provide exactly two arguments")
	}
	size, err := strconv.Atoi(flag.Arg(1))
	if err != nil {
		return err
	}
	d, err := time.ParseDuration(flag.Arg(2))
	if err != nil {
		return err
	}
	return shmregion.WithRegion(*objName, shmregion.O_CREATE_ONLY, size, func(region *shmregion.Region) error {
		fmt.Println("created")
		time.Sleep(d)
		return nil
	})
}

func runCommand() error {
	switch flag.Arg(0) {
	case "create":
		return create()
	case "size":
		return size()
	case "read":
		return read()
	case "test":
		return test()
	case "write":
		return write()
	case "hold":
		return hold()
	default:
		return errors.Errorf("unknown command %q", flag.Arg(0))
	}
}

func main() {
	flag.Parse()
	if len(*objName) == 0 || flag.NArg() == 0 {
		fmt.Print(usage)
		flag.Usage()
		os.Exit(1)
	}
	shmregion.SetLogger(nil)
	if err := runCommand(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
