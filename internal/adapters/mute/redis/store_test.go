package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"medcare/internal/ports/mute"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRedis struct {
	err   error
	keys  map[string]time.Time
	calls int
}

func newFakeRedis() *fakeRedis { return &fakeRedis{keys: map[string]time.Time{}} }

func (f *fakeRedis) SetArgs(ctx context.Context, key string, _ any, a goredis.SetArgs) *goredis.StatusCmd {
	f.calls++
	cmd := goredis.NewStatusCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	f.keys[key] = a.ExpireAt
	cmd.SetVal("OK")
	return cmd
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *goredis.IntCmd {
	f.calls++
	cmd := goredis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.keys[k]; ok {
			delete(f.keys, k)
			n++
		}
	}
	cmd.SetVal(n)
	return cmd
}

func (f *fakeRedis) Exists(ctx context.Context, keys ...string) *goredis.IntCmd {
	f.calls++
	cmd := goredis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.keys[k]; ok {
			n++
		}
	}
	cmd.SetVal(n)
	return cmd
}

var key = mute.Key{UserID: "u1", DetailID: "d1", Date: time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)}

func TestStore_RoundTrip(t *testing.T) {
	fr := newFakeRedis()
	s := newStore(fr, Config{KeyPrefix: "t:"}, nil)
	ctx := context.Background()
	until := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.Mute(ctx, key, until))
	assert.Equal(t, until, fr.keys["t:mute:u1:d1:2026-03-11"])

	muted, err := s.IsMuted(ctx, key)
	require.NoError(t, err)
	assert.True(t, muted)

	require.NoError(t, s.Unmute(ctx, key))
	muted, err = s.IsMuted(ctx, key)
	require.NoError(t, err)
	assert.False(t, muted)
}

func TestStore_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	fr := newFakeRedis()
	fr.err = errors.New("connection refused")
	s := newStore(fr, Config{MaxFailures: 2, OpenTimeout: time.Minute}, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := s.IsMuted(ctx, key)
		require.Error(t, err)
		assert.NotErrorIs(t, err, gobreaker.ErrOpenState)
	}
	assert.Equal(t, gobreaker.StateOpen, s.State())

	err := s.Mute(ctx, key, time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, fr.calls, "open breaker short-circuits redis")
}
