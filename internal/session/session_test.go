package session

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	mr := miniredis.RunT(t)
	return NewStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	require.NoError(t, s.Start(ctx, "run1", "talk.mp4", 3))

	snap, err := s.Snapshot(ctx, "run1")
	require.NoError(t, err)
	assert.Equal(t, StateRunning, snap.State)
	assert.Equal(t, "talk.mp4", snap.Source)
	assert.Equal(t, 3, snap.Requested)
	assert.Equal(t, 0, snap.Produced)
	assert.Equal(t, "queued", snap.Message)

	require.NoError(t, s.Progress(ctx, "run1", 42.5, "clip 2/3: encoding"))
	require.NoError(t, s.ClipReady(ctx, "run1", "clip-001.mp4"))
	require.NoError(t, s.ClipReady(ctx, "run1", "clip-002.mp4"))

	snap, err = s.Snapshot(ctx, "run1")
	require.NoError(t, err)
	assert.Equal(t, 42.5, snap.Pct)
	assert.Equal(t, "clip 2/3: encoding", snap.Message)
	assert.Equal(t, 2, snap.Produced)
	assert.Equal(t, []string{"clip-001.mp4", "clip-002.mp4"}, snap.Clips)

	require.NoError(t, s.Complete(ctx, "run1", 2))

	snap, err = s.Snapshot(ctx, "run1")
	require.NoError(t, err)
	assert.Equal(t, StateDone, snap.State)
	assert.Equal(t, 100.0, snap.Pct)
}

func TestSessionFail(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	require.NoError(t, s.Start(ctx, "run2", "talk.mp4", 1))
	require.NoError(t, s.Fail(ctx, "run2", errors.New("engine busy")))

	snap, err := s.Snapshot(ctx, "run2")
	require.NoError(t, err)
	assert.Equal(t, StateFailed, snap.State)
	assert.Contains(t, snap.Message, "engine busy")
}

func TestSnapshotNotFound(t *testing.T) {
	s := testStore(t)

	_, err := s.Snapshot(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
