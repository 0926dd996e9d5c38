// Copyright 2016 Aleksandr Demakin. All rights reserved.

//go:build darwin || freebsd || linux

package main

import (
	"bufio"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	shmregion "github.com/nxgtw/go-shmregion"
	testutil "github.com/nxgtw/go-shmregion/internal/test"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const outputTimeout = 10 * time.Second

// pidregProcess is a running pidreg, which reports its stdout line by line.
type pidregProcess struct {
	cmd   *exec.Cmd
	pid   string
	lines chan string
}

func buildPidreg(t *testing.T) string {
	if testing.Short() {
		t.Skip("skipping multi-process test in short mode")
	}
	bin := filepath.Join(t.TempDir(), "pidreg")
	require.NoError(t, testutil.BuildTestApp(".", bin))
	return bin
}

func startPidreg(t *testing.T, bin string, args ...string) *pidregProcess {
	cmd := exec.Command(bin, args...)
	stdout, err := cmd.StdoutPipe()
	require.NoError(t, err)
	require.NoError(t, cmd.Start())
	p := &pidregProcess{
		cmd:   cmd,
		pid:   strconv.Itoa(cmd.Process.Pid),
		lines: make(chan string, 1024),
	}
	go func() {
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			p.lines <- scanner.Text()
		}
		close(p.lines)
	}()
	t.Cleanup(func() {
		if cmd.ProcessState == nil {
			cmd.Process.Kill()
			p.wait()
		}
	})
	return p
}

// nextLine returns the next report of the process.
func (p *pidregProcess) nextLine(t *testing.T) string {
	select {
	case line, ok := <-p.lines:
		require.True(t, ok, "pidreg %s exited", p.pid)
		return line
	case <-time.After(outputTimeout):
		require.FailNow(t, "no output from pidreg", p.pid)
	}
	return ""
}

// wait returns the remaining output after the process exits.
func (p *pidregProcess) wait() ([]string, error) {
	var lines []string
	for line := range p.lines {
		lines = append(lines, line)
	}
	return lines, p.cmd.Wait()
}

// reportedPIDs returns pids listed in a report line.
func reportedPIDs(t *testing.T, line string) []string {
	start := strings.Index(line, "PIDs:")
	end := strings.LastIndex(line, "(Total:")
	require.True(t, start >= 0 && end > start, "unexpected report %q", line)
	return strings.Fields(line[start+len("PIDs:") : end])
}

func requireRegionGone(t *testing.T, name string) {
	_, err := shmregion.NewRegion(name, shmregion.O_OPEN_ONLY, 1)
	require.True(t, errors.Is(err, shmregion.ErrNotFound), "%v", err)
}

func TestRunSeesOtherProcesses(t *testing.T) {
	a := assert.New(t)
	bin := buildPidreg(t)
	const name = "pidreg-run"
	shmregion.Remove(name)
	defer shmregion.Remove(name)

	first := startPidreg(t, bin, "run", "--name="+name, "--interval=50ms")
	a.Equal("Process "+first.pid+" sees PIDs: "+first.pid+" (Total: 1)", first.nextLine(t))

	second := startPidreg(t, bin, "run", "--name="+name, "--interval=50ms", "--iterations=4")
	lines, err := second.wait()
	require.NoError(t, err)
	require.Len(t, lines, 4)
	for _, line := range lines {
		a.True(strings.HasPrefix(line, "Process "+second.pid+" sees PIDs: "), line)
		pids := reportedPIDs(t, line)
		a.Contains(pids, first.pid)
		a.Contains(pids, second.pid)
	}

	// a killed process is removed by the others.
	killed := startPidreg(t, bin, "run", "--name="+name, "--interval=50ms")
	a.Contains(reportedPIDs(t, killed.nextLine(t)), killed.pid)
	require.NoError(t, killed.cmd.Process.Kill())
	killed.wait()
	time.Sleep(500 * time.Millisecond)

	third := startPidreg(t, bin, "run", "--name="+name, "--iterations=1")
	lines, err = third.wait()
	require.NoError(t, err)
	require.Len(t, lines, 1)
	pids := reportedPIDs(t, lines[0])
	a.Contains(pids, first.pid)
	a.Contains(pids, third.pid)
	a.NotContains(pids, second.pid)
	a.NotContains(pids, killed.pid)

	require.NoError(t, first.cmd.Process.Signal(os.Interrupt))
	lines, err = first.wait()
	require.NoError(t, err)
	var sawSecond bool
	for _, line := range lines {
		a.True(strings.HasPrefix(line, "Process "+first.pid+" sees PIDs: "), line)
		for _, pid := range reportedPIDs(t, line) {
			sawSecond = sawSecond || pid == second.pid
		}
	}
	a.True(sawSecond, "%s never saw %s", first.pid, second.pid)

	// the owner has removed the region on exit.
	requireRegionGone(t, name)
}

func TestClearCrashedOwner(t *testing.T) {
	a := assert.New(t)
	bin := buildPidreg(t)
	const name = "pidreg-clear"
	shmregion.Remove(name)
	defer shmregion.Remove(name)

	owner := startPidreg(t, bin, "run", "--name="+name, "--interval=50ms")
	owner.nextLine(t)
	require.NoError(t, owner.cmd.Process.Kill())
	owner.wait()

	// the object survives the crash, and the dead owner is pruned by the next process.
	attacher := startPidreg(t, bin, "run", "--name="+name, "--interval=50ms", "--iterations=2")
	lines, err := attacher.wait()
	require.NoError(t, err)
	require.Len(t, lines, 2)
	a.Contains(reportedPIDs(t, lines[0]), owner.pid)
	a.Equal([]string{attacher.pid}, reportedPIDs(t, lines[1]))
	region, err := shmregion.NewRegion(name, shmregion.O_OPEN_ONLY, 1)
	require.NoError(t, err)
	a.False(region.Owner())
	a.NoError(region.Close())

	out, err := exec.Command(bin, "clear", "--name="+name).CombinedOutput()
	require.NoError(t, err, string(out))
	requireRegionGone(t, name)

	// clearing a missing registry is not an error.
	out, err = exec.Command(bin, "clear", "--name="+name).CombinedOutput()
	a.NoError(err, string(out))
}
