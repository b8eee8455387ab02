package memory

import (
	"context"
	"time"

	"medcare/internal/platform/clock"
	"medcare/internal/ports/mute"

	"github.com/patrickmn/go-cache"
)

// Store guarda mutes en proceso con TTL por entrada. Sirve para dev y para
// una sola réplica; con varias réplicas usar el store de Redis.
type Store struct {
	c     *cache.Cache
	clock clock.Clock
}

func NewStore(c clock.Clock) *Store {
	if c == nil {
		c = clock.System()
	}
	return &Store{
		c:     cache.New(cache.NoExpiration, 10*time.Minute),
		clock: c,
	}
}

func (s *Store) Mute(_ context.Context, k mute.Key, until time.Time) error {
	ttl := until.Sub(s.clock.Now())
	if ttl <= 0 {
		s.c.Delete(k.String())
		return nil
	}
	s.c.Set(k.String(), until, ttl)
	return nil
}

func (s *Store) Unmute(_ context.Context, k mute.Key) error {
	s.c.Delete(k.String())
	return nil
}

// IsMuted compara contra el reloj inyectado además del TTL real del cache.
func (s *Store) IsMuted(_ context.Context, k mute.Key) (bool, error) {
	v, ok := s.c.Get(k.String())
	if !ok {
		return false, nil
	}
	until, _ := v.(time.Time)
	return s.clock.Now().Before(until), nil
}
