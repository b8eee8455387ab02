package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"medcare/internal/ports/mute"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// commands es el subconjunto de redis.Cmdable que usa el store.
type commands interface {
	SetArgs(ctx context.Context, key string, value any, a goredis.SetArgs) *goredis.StatusCmd
	Del(ctx context.Context, keys ...string) *goredis.IntCmd
	Exists(ctx context.Context, keys ...string) *goredis.IntCmd
}

type Config struct {
	URL         string
	KeyPrefix   string
	OpenTimeout time.Duration // tiempo en open antes de probar half-open
	MaxFailures uint32        // fallas consecutivas para abrir
}

// Store persiste mutes en Redis con EXAT = fin del mute. Todas las llamadas
// pasan por un circuit breaker.
type Store struct {
	rdb    commands
	cb     *gobreaker.CircuitBreaker
	prefix string
	close  func() error
}

func Open(ctx context.Context, cfg Config, log *zap.Logger) (*Store, error) {
	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	s := newStore(client, cfg, log)
	s.close = client.Close
	return s, nil
}

func newStore(rdb commands, cfg Config, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "medcare:"
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 15 * time.Second
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "redis-mute",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= cfg.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return &Store{rdb: rdb, cb: cb, prefix: cfg.KeyPrefix}
}

func (s *Store) key(k mute.Key) string { return s.prefix + k.String() }

func (s *Store) Mute(ctx context.Context, k mute.Key, until time.Time) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.rdb.SetArgs(ctx, s.key(k), until.Unix(), goredis.SetArgs{ExpireAt: until}).Err()
	})
	return wrap("mute", err)
}

func (s *Store) Unmute(ctx context.Context, k mute.Key) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.rdb.Del(ctx, s.key(k)).Err()
	})
	return wrap("unmute", err)
}

func (s *Store) IsMuted(ctx context.Context, k mute.Key) (bool, error) {
	n, err := s.cb.Execute(func() (interface{}, error) {
		return s.rdb.Exists(ctx, s.key(k)).Result()
	})
	if err != nil {
		return false, wrap("is muted", err)
	}
	return n.(int64) > 0, nil
}

// Ping lo usa /ready.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.IsMuted(ctx, mute.Key{UserID: "ready", DetailID: "ready", Date: time.Unix(0, 0)})
	return err
}

func (s *Store) State() gobreaker.State { return s.cb.State() }

func (s *Store) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("redis %s: circuit open: %w", op, err)
	}
	return fmt.Errorf("redis %s: %w", op, err)
}
