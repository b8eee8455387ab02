package settings

import (
	"context"
	"testing"
	"time"

	"medcare/internal/platform/apperr"
	"medcare/internal/platform/clock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	byUser  map[string]Settings
	creates int
}

func newTestRepo() *testRepo {
	return &testRepo{byUser: map[string]Settings{}}
}

func (r *testRepo) Get(_ context.Context, userID string) (Settings, error) {
	s, ok := r.byUser[userID]
	if !ok {
		return Settings{}, ErrNotFound
	}
	return s, nil
}

func (r *testRepo) Save(_ context.Context, s Settings) error {
	r.byUser[s.UserID] = s
	return nil
}

func (r *testRepo) CreateIfAbsent(_ context.Context, s Settings) (Settings, error) {
	if cur, ok := r.byUser[s.UserID]; ok {
		return cur, nil
	}
	r.creates++
	r.byUser[s.UserID] = s
	return s, nil
}

var t0 = time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func TestGet_CreatesDefaultsOnce(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo).WithClock(clock.Fixed(t0))
	ctx := context.Background()

	s, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, Defaults("u1", t0), s)

	_, err = svc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.creates)

	_, err = svc.Get(ctx, " ")
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestUpdate_PartialPatch(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo).WithClock(clock.Fixed(t0))
	ctx := context.Background()

	_, err := svc.Update(ctx, "u1", UpdateInput{})
	require.ErrorIs(t, err, ErrNothingToPatch)

	s, err := svc.Update(ctx, "u1", UpdateInput{AlarmSound: strPtr(" chime ")})
	require.NoError(t, err)
	assert.Equal(t, "chime", s.AlarmSound)
	assert.Equal(t, DefaultSound, s.NotificationSound)
	assert.Equal(t, s, repo.byUser["u1"])

	_, err = svc.Update(ctx, "u1", UpdateInput{NotificationSound: strPtr("")})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Equal(t, DefaultSound, repo.byUser["u1"].NotificationSound)
}
