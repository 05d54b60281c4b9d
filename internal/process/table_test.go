package process

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/launchpad/internal/agent"
	"github.com/mattjoyce/launchpad/internal/approval"
	"github.com/mattjoyce/launchpad/internal/env"
	"github.com/mattjoyce/launchpad/internal/events"
)

type allowAll struct{}

func (allowAll) RequestApproval(_ context.Context, req approval.Request) (approval.Response, error) {
	return approval.Response{ProcessID: req.ProcessID, Tool: req.Tool, Decision: approval.Approved}, nil
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func spawnScript(t *testing.T, body string) *agent.SpawnedChild {
	t.Helper()
	path := filepath.Join(t.TempDir(), "agent.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))

	a, err := agent.New(agent.KindOpencode, agent.Config{CmdOverrides: agent.CmdOverrides{BaseCommandOverride: "/bin/sh " + path}})
	require.NoError(t, err)
	a.UseApprovals(allowAll{})
	child, err := a.Spawn(context.Background(), t.TempDir(), "the prompt", env.New())
	require.NoError(t, err)
	return child
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestTrackCapturesOutputAndExitCode(t *testing.T) {
	hub := events.NewHub(16)
	table := NewTable(WithEvents(hub))

	child := spawnScript(t, "cat\necho oops >&2\nexit 4\n")
	snap := table.Track(child, "OPENCODE")
	assert.Equal(t, StatusRunning, snap.Status)
	assert.Equal(t, agent.KindOpencode, snap.Executor)
	assert.Nil(t, snap.ExitCode)

	done, err := table.Wait(waitCtx(t), child.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusExited, done.Status)
	require.NotNil(t, done.ExitCode)
	assert.Equal(t, 4, *done.ExitCode)
	assert.Equal(t, "the prompt", done.Stdout)
	assert.Equal(t, "oops\n", done.Stderr)
	assert.NotNil(t, done.ExitedAt)

	evs := hub.SnapshotSince(0, nil)
	require.Len(t, evs, 1)
	assert.Equal(t, events.ProcessExited, evs[0].Type)
	assert.Contains(t, string(evs[0].Data), child.ID)
}

func TestTrackMirrorsOutput(t *testing.T) {
	table := NewTable()
	var stdout, stderr syncBuffer

	child := spawnScript(t, "echo to-out\necho to-err >&2\n")
	table.Track(child, "OPENCODE", WithMirror(&stdout, &stderr))

	_, err := table.Wait(waitCtx(t), child.ID)
	require.NoError(t, err)
	assert.Equal(t, "to-out\n", stdout.String())
	assert.Equal(t, "to-err\n", stderr.String())
}

func TestTailBufferKeepsLastBytes(t *testing.T) {
	table := NewTable(WithTailBytes(8))
	child := spawnScript(t, "printf '0123456789abcdef'\n")
	table.Track(child, "OPENCODE")

	done, err := table.Wait(waitCtx(t), child.ID)
	require.NoError(t, err)
	assert.Equal(t, "89abcdef", done.Stdout)
	assert.True(t, done.Truncated)
}

func TestTailBufferWrite(t *testing.T) {
	b := newTailBuffer(4)
	for _, chunk := range []string{"ab", "cd", "efg", "h"} {
		n, err := b.Write([]byte(chunk))
		require.NoError(t, err)
		assert.Equal(t, len(chunk), n)
	}
	assert.Equal(t, "efgh", b.String())
	assert.Equal(t, int64(4), b.Dropped())
}

func TestKillMarksProcessKilled(t *testing.T) {
	table := NewTable()
	child := spawnScript(t, "exec sleep 30\n")
	table.Track(child, "OPENCODE")
	assert.Equal(t, 1, table.Running())

	require.NoError(t, table.Kill(child.ID))
	done, err := table.Wait(waitCtx(t), child.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusKilled, done.Status)
	assert.Equal(t, 0, table.Running())

	// A second kill after exit is a no-op.
	assert.NoError(t, table.Kill(child.ID))
}

func TestUnknownProcess(t *testing.T) {
	table := NewTable()
	_, err := table.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, table.Kill("nope"), ErrNotFound)
	_, err = table.Wait(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWaitHonorsContext(t *testing.T) {
	table := NewTable()
	child := spawnScript(t, "exec sleep 30\n")
	table.Track(child, "OPENCODE")
	t.Cleanup(func() { _ = table.Kill(child.ID) })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := table.Wait(ctx, child.ID)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestListIsOrderedAndShutdownKillsAll(t *testing.T) {
	table := NewTable()
	var ids []string
	for range 3 {
		child := spawnScript(t, "exec sleep 30\n")
		table.Track(child, "OPENCODE")
		ids = append(ids, child.ID)
	}

	list := table.List()
	require.Len(t, list, 3)
	for i := 1; i < len(list); i++ {
		assert.False(t, list[i].StartedAt.Before(list[i-1].StartedAt))
	}
	for _, s := range list {
		assert.Empty(t, s.Stdout, "List omits output")
	}

	require.NoError(t, table.Shutdown(waitCtx(t)))
	for _, id := range ids {
		s, err := table.Get(id)
		require.NoError(t, err)
		assert.Equal(t, StatusKilled, s.Status, id)
	}
	assert.Equal(t, 0, table.Running())
}

func TestGetWhileRunningHasPartialOutput(t *testing.T) {
	table := NewTable()
	child := spawnScript(t, "echo started\nexec sleep 30\n")
	table.Track(child, "OPENCODE")
	t.Cleanup(func() { _ = table.Kill(child.ID) })

	require.Eventually(t, func() bool {
		s, err := table.Get(child.ID)
		return err == nil && strings.Contains(s.Stdout, "started")
	}, 5*time.Second, 10*time.Millisecond)

	s, err := table.Get(child.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, s.Status)
}

func TestExitedProcessesAreEvictedOldestFirst(t *testing.T) {
	table := NewTable(WithRetain(3))

	sleeper := spawnScript(t, "exec sleep 30\n")
	table.Track(sleeper, "OPENCODE")
	t.Cleanup(func() { _ = table.Kill(sleeper.ID) })

	var ids []string
	for range 10 {
		child := spawnScript(t, "exit 0\n")
		table.Track(child, "OPENCODE")
		_, err := table.Wait(waitCtx(t), child.ID)
		require.NoError(t, err)
		ids = append(ids, child.ID)
	}

	assert.Equal(t, 1, table.Running())
	list := table.List()
	require.Len(t, list, 4, "running process plus the last three exited")

	var kept []string
	for _, s := range list {
		kept = append(kept, s.ID)
	}
	assert.Contains(t, kept, sleeper.ID)
	assert.ElementsMatch(t, append([]string{sleeper.ID}, ids[7:]...), kept)

	_, err := table.Get(ids[0])
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDefaultRetainBoundsHistory(t *testing.T) {
	table := NewTable()
	assert.Equal(t, DefaultRetain, table.retain)

	assert.Equal(t, 1, NewTable(WithRetain(0)).retain)
}

func TestShutdownWithEvictionDuringReap(t *testing.T) {
	table := NewTable(WithRetain(1))
	for range 4 {
		table.Track(spawnScript(t, "exec sleep 30\n"), "OPENCODE")
	}

	require.NoError(t, table.Shutdown(waitCtx(t)))
	assert.Equal(t, 0, table.Running())
	assert.Len(t, table.List(), 1)
}
