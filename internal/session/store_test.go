package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_TTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewMemoryStore()
	s.now = func() time.Time { return now }

	require.NoError(t, s.Put(ctx, State{SessionID: "a", Present: true}, time.Minute))

	st, ok, err := s.Get(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, st.Present)

	now = now.Add(time.Minute)
	_, ok, err = s.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	s, err := NewRedisStore(ctx, mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	in := State{SessionID: "sid", Present: true, Email: "user@example.com", Version: 7, Reason: ReasonSignup}
	require.NoError(t, s.Put(ctx, in, time.Minute))

	out, ok, err := s.Get(ctx, "sid")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, in.Email, out.Email)
	assert.Equal(t, in.Version, out.Version)
	assert.Equal(t, ReasonSignup, out.Reason)

	mr.FastForward(2 * time.Minute)
	_, ok, err = s.Get(ctx, "sid")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewRedisStore_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := NewRedisStore(ctx, "127.0.0.1:1")
	assert.Error(t, err)
}
