// Copyright 2016 Aleksandr Demakin. All rights reserved.

package registry

import (
	"context"
	"os/exec"
	"testing"

	shmregion "github.com/nxgtw/go-shmregion"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinInvalidName(t *testing.T) {
	p := &racyPlatform{Platform: shmregion.DefaultPlatform()}
	_, err := Join(Config{Name: "a/b/c", Platform: p})
	assert.Error(t, err)
	assert.Equal(t, 1, p.creates)
}

func TestJoinLayoutMismatch(t *testing.T) {
	a := assert.New(t)
	const name = "shmreg-small"
	shmregion.Remove(name)
	region, err := shmregion.NewRegion(name, shmregion.O_CREATE_ONLY, 16)
	require.NoError(t, err)
	defer region.Close()
	r, err := Join(Config{Name: name})
	a.Nil(r)
	a.True(errors.Is(err, ErrLayoutMismatch))
	// the attached handle has been released, the object is still there.
	attached, err := shmregion.NewRegion(name, shmregion.O_OPEN_ONLY, 1)
	if a.NoError(err) {
		attached.Close()
	}
}

func TestPruneDeadProcess(t *testing.T) {
	a := assert.New(t)
	const name = "shmreg-dead"
	shmregion.Remove(name)
	cmd := exec.Command("true")
	require.NoError(t, cmd.Run())
	dead := int32(cmd.Process.Pid)
	alive, err := ProcessChecker{}.Alive(context.Background(), dead)
	require.NoError(t, err)
	if alive {
		t.Skipf("pid %d has been reused", dead)
	}

	r := joinTest(t, name, nil)
	defer r.Close()
	self, err := r.Register(int32(1))
	require.NoError(t, err)
	a.Equal(0, self)
	_, err = r.Register(dead)
	require.NoError(t, err)
	a.Equal([]int32{dead}, r.Prune(context.Background()))
	a.Equal([]int32{1}, r.PIDs())
}
