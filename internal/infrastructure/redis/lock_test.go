package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mediocregopher/radix/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubStore answers the handful of commands the locker sends.
type stubStore struct {
	mu   sync.Mutex
	keys map[string]string
	seen [][]string
}

func (s *stubStore) handle(args []string) interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, args)
	switch args[0] {
	case "SET":
		if _, ok := s.keys[args[1]]; ok {
			return nil
		}
		s.keys[args[1]] = args[2]
		return "OK"
	case "EVALSHA", "EVAL":
		// args: cmd, sha/script, numkeys, key, token
		key, token := args[3], args[4]
		if s.keys[key] == token {
			delete(s.keys, key)
			return 1
		}
		return 0
	}
	return nil
}

func newStubLocker() (*Locker, *stubStore) {
	store := &stubStore{keys: map[string]string{}}
	conn := radix.Stub("tcp", "127.0.0.1:6379", store.handle)
	return NewLocker(conn, zap.NewNop()), store
}

func TestTryLock_AcquireAndRelease(t *testing.T) {
	l, store := newStubLocker()

	unlock, ok, err := l.TryLock(context.Background(), "billing:verify:pi_1", 30*time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, store.keys, "billing:verify:pi_1")

	set := store.seen[0]
	assert.Equal(t, []string{"SET", "billing:verify:pi_1"}, set[:2])
	assert.Equal(t, []string{"NX", "PX", "30000"}, set[3:])

	_, ok, err = l.TryLock(context.Background(), "billing:verify:pi_1", 30*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	unlock()
	assert.NotContains(t, store.keys, "billing:verify:pi_1")

	_, ok, err = l.TryLock(context.Background(), "billing:verify:pi_1", 30*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTryLock_ReleaseKeepsForeignToken(t *testing.T) {
	l, store := newStubLocker()

	unlock, ok, err := l.TryLock(context.Background(), "k", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	store.keys["k"] = "someone-else"
	unlock()
	assert.Equal(t, "someone-else", store.keys["k"])
}

func TestTryLock_CancelledContext(t *testing.T) {
	l, store := newStubLocker()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok, err := l.TryLock(ctx, "k", time.Second)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ok)
	assert.Empty(t, store.seen)
}
