package replay

import (
	"context"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
)

const redisKeyPrefix = "oddslock:replay:"

// RedisStore is the shared replay backend. Every operation carries a
// short timeout and runs behind a circuit breaker: a dead Redis degrades
// to cache misses instead of stalling the decision pipeline.
type RedisStore struct {
	client  *redis.Client
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker
}

// NewRedisStore connects a replay store to the given Redis address.
func NewRedisStore(addr string, timeout time.Duration) *RedisStore {
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	return &RedisStore{
		client:  redis.NewClient(&redis.Options{Addr: addr}),
		timeout: timeout,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "replay-redis",
			Timeout: 10 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	res, err := s.breaker.Execute(func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		return s.client.Get(ctx, redisKeyPrefix+key).Bytes()
	})
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return res.([]byte), true, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, val []byte) error {
	// Replay records never expire: TTL 0.
	_, err := s.breaker.Execute(func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		return nil, s.client.Set(ctx, redisKeyPrefix+key, val, 0).Err()
	})
	return err
}

func (s *RedisStore) Clear(ctx context.Context) error {
	_, err := s.breaker.Execute(func() (interface{}, error) {
		iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
		for iter.Next(ctx) {
			if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
				return nil, err
			}
		}
		return nil, iter.Err()
	})
	return err
}
