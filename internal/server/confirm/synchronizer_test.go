package confirm

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filedepot/internal/kvstore"
	"filedepot/internal/logging"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))
}

func newTestSynchronizer(store kvstore.Store) *Synchronizer {
	return NewSynchronizer(store, 300*time.Millisecond, 10*time.Millisecond, testLogger())
}

func TestKey(t *testing.T) {
	assert.Equal(t, "file:sync_confirm:u1:report.pdf", Key("u1", "report.pdf"))
}

func TestAwait_MarkerAlreadyPresent(t *testing.T) {
	store := kvstore.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, Key("u1", "a.txt"), "file-123", 0))

	s := newTestSynchronizer(store)
	id, err := s.Await(ctx, "u1", "a.txt")
	require.NoError(t, err)
	assert.Equal(t, "file-123", id)

	// consumed exactly once: the key must be gone
	ok, err := store.Exists(ctx, Key("u1", "a.txt"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAwait_MarkerAppearsLater(t *testing.T) {
	store := kvstore.NewMemoryStore()
	ctx := context.Background()

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = store.Set(ctx, Key("u1", "b.txt"), "file-456", 0)
	}()

	s := newTestSynchronizer(store)
	id, err := s.Await(ctx, "u1", "b.txt")
	require.NoError(t, err)
	assert.Equal(t, "file-456", id)
}

func TestAwait_TimeoutReturnsPending(t *testing.T) {
	s := newTestSynchronizer(kvstore.NewMemoryStore())

	start := time.Now()
	id, err := s.Await(context.Background(), "u1", "never.txt")
	require.NoError(t, err)
	assert.Empty(t, id)
	assert.GreaterOrEqual(t, time.Since(start), 300*time.Millisecond)
}

func TestAwait_SecondReadObservesAbsent(t *testing.T) {
	store := kvstore.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, Key("u1", "c.txt"), "file-789", 0))

	s := newTestSynchronizer(store)

	id, err := s.Await(ctx, "u1", "c.txt")
	require.NoError(t, err)
	assert.Equal(t, "file-789", id)

	id, err = s.Await(ctx, "u1", "c.txt")
	require.NoError(t, err)
	assert.Empty(t, id, "stale marker must never be observed twice")
}

func TestAwait_CanceledContextPropagates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := newTestSynchronizer(kvstore.NewMemoryStore())
	_, err := s.Await(ctx, "u1", "d.txt")
	assert.Error(t, err)
}
