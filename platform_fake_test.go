// Copyright 2016 Aleksandr Demakin. All rights reserved.

package shmregion

import (
	"os"
	"sync"

	"github.com/pkg/errors"
)

// fakePlatform is an in-memory namespace of objects.
type fakePlatform struct {
	mu      sync.Mutex
	objects map[string]*fakeObject
	// pageSize, if set, is used to round sizes of created objects up.
	pageSize int

	failResize bool
	failStat   bool
	failMap    bool
	failUnmap  bool
	failRemove bool

	opens   int
	maps    int
	unmaps  int
	closes  int
	removes int
}

type fakeObject struct {
	data []byte
}

type fakeBacking struct {
	p      *fakePlatform
	name   string
	obj    *fakeObject
	closed bool
}

type fakeView struct {
	data []byte
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{objects: make(map[string]*fakeObject)}
}

func (p *fakePlatform) exists(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.objects[name]
	return ok
}

func (p *fakePlatform) CreateOrOpen(name string, size int, create bool) (Backing, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.opens++
	obj, ok := p.objects[name]
	if create {
		if ok {
			return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrExist}
		}
		if p.failResize {
			return nil, newRegionError("truncate", name, ErrResizeFailed, errors.New("no space left"))
		}
		if p.pageSize > 0 && size%p.pageSize != 0 {
			size += p.pageSize - size%p.pageSize
		}
		obj = &fakeObject{data: make([]byte, size)}
		p.objects[name] = obj
	} else if !ok {
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrNotExist}
	}
	return &fakeBacking{p: p, name: name, obj: obj}, nil
}

func (p *fakePlatform) MapView(b Backing, size int) (View, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failMap {
		return nil, errors.New("out of address space")
	}
	fb := b.(*fakeBacking)
	if size > len(fb.obj.data) {
		return nil, errors.New("invalid mapping length")
	}
	p.maps++
	return &fakeView{data: fb.obj.data[:size]}, nil
}

func (p *fakePlatform) UnmapView(v View) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.unmaps++
	if p.failUnmap {
		return errors.New("munmap failed")
	}
	return nil
}

func (p *fakePlatform) Remove(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.removes++
	if p.failRemove {
		return errors.New("permission denied")
	}
	delete(p.objects, name)
	return nil
}

func (b *fakeBacking) Name() string {
	return b.name
}

func (b *fakeBacking) Size() (int64, error) {
	if b.p.failStat {
		return 0, errors.New("fstat failed")
	}
	return int64(len(b.obj.data)), nil
}

func (b *fakeBacking) Close() error {
	b.p.mu.Lock()
	defer b.p.mu.Unlock()
	b.p.closes++
	if b.closed {
		return errors.New("already closed")
	}
	b.closed = true
	return nil
}

func (v *fakeView) Data() []byte {
	return v.data
}

func (v *fakeView) Size() int {
	return len(v.data)
}
