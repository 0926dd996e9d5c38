// Copyright 2016 Aleksandr Demakin. All rights reserved.

//go:build darwin || freebsd || linux

package shmregion

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRegionName = "go-shmregion-test"

func TestSystemRegionCreateAndOpen(t *testing.T) {
	a := assert.New(t)
	Remove(testRegionName)
	creator, err := NewRegion(testRegionName, O_CREATE_ONLY, 4096)
	require.NoError(t, err)
	defer creator.Close()
	a.True(creator.Size() >= 4096)
	a.True(creator.Owner())

	_, err = NewRegion(testRegionName, O_CREATE_ONLY, 4096)
	a.True(errors.Is(err, ErrAlreadyExists))

	attacher, err := NewRegion(testRegionName, O_OPEN_ONLY, 1)
	require.NoError(t, err)
	a.Equal(creator.Size(), attacher.Size())
	copy(creator.Data()[10:], []byte{1, 2, 3})
	a.Equal([]byte{1, 2, 3}, attacher.Data()[10:13])
	a.NoError(attacher.Close())

	a.NoError(creator.Close())
	_, err = NewRegion(testRegionName, O_OPEN_ONLY, 4096)
	a.True(errors.Is(err, ErrNotFound))
}

func TestSystemRegionOpenMissing(t *testing.T) {
	Remove(testRegionName)
	region, err := NewRegion(testRegionName, O_OPEN_ONLY, 4096)
	assert.Nil(t, region)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSystemRegionZeroSize(t *testing.T) {
	Remove(testRegionName)
	_, err := NewRegion(testRegionName, O_CREATE_ONLY, 0)
	assert.True(t, errors.Is(err, ErrInvalidArgument))
	_, err = NewRegion(testRegionName, O_OPEN_ONLY, 1)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestWithRegion(t *testing.T) {
	a := assert.New(t)
	Remove(testRegionName)
	fErr := errors.New("callback failed")
	err := WithRegion(testRegionName, O_CREATE_ONLY, 1024, func(r *Region) error {
		a.True(r.Owner())
		r.Data()[0] = 1
		return fErr
	})
	a.Equal(fErr, err)
	// the region has been closed by the owner.
	_, err = NewRegion(testRegionName, O_OPEN_ONLY, 1024)
	a.True(errors.Is(err, ErrNotFound))
}

func TestRemoveLeftObject(t *testing.T) {
	a := assert.New(t)
	Remove(testRegionName)
	creator, err := NewRegion(testRegionName, O_CREATE_ONLY, 1024)
	require.NoError(t, err)
	// simulate a crashed owner: the mapping is released, but the object stays.
	creator.owner = false
	a.NoError(creator.Close())
	attacher, err := NewRegion(testRegionName, O_OPEN_ONLY, 1024)
	require.NoError(t, err)
	a.NoError(attacher.Close())
	a.NoError(Remove(testRegionName))
	a.NoError(Remove(testRegionName))
	_, err = NewRegion(testRegionName, O_OPEN_ONLY, 1024)
	a.True(errors.Is(err, ErrNotFound))
}
