package core

import (
	"context"
	"time"

	"github.com/go-redis/redis/v9"
)

// Semaphore bounds the number of concurrent embedding calls so one bulk
// ingestion cannot starve the provider quota.
type Semaphore interface {
	Acquire(ctx context.Context) error
	Release()
}

// DistributedSemaphore counts permits in redis so the bound holds across
// every service instance.
type DistributedSemaphore struct {
	redis      redis.UniversalClient
	key        string
	maxPermits int
	ttl        time.Duration
}

func NewDistributedSemaphore(cli redis.UniversalClient, key string, maxPermits int, ttl time.Duration) *DistributedSemaphore {
	return &DistributedSemaphore{
		redis:      cli,
		key:        key,
		maxPermits: maxPermits,
		ttl:        ttl,
	}
}

// tryAcquire increments under the permit cap. The Lua script keeps the check
// and the increment atomic.
func (s *DistributedSemaphore) tryAcquire(ctx context.Context) bool {
	script := `
		local key = KEYS[1]
		local max_permits = tonumber(ARGV[1])
		local ttl = tonumber(ARGV[2])

		local current = tonumber(redis.call('GET', key) or '0')

		if current < max_permits then
			redis.call('INCR', key)
			redis.call('EXPIRE', key, ttl)
			return 1
		else
			return 0
		end
	`

	result, err := s.redis.Eval(ctx, script, []string{s.key}, s.maxPermits, int(s.ttl.Seconds())).Int()
	if err != nil {
		return false
	}
	return result == 1
}

func (s *DistributedSemaphore) Acquire(ctx context.Context) error {
	ticker := time.NewTicker(time.Millisecond * 100)
	defer ticker.Stop()

	for {
		if s.tryAcquire(ctx) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *DistributedSemaphore) Release() {
	script := `
		local key = KEYS[1]
		local current = tonumber(redis.call('GET', key) or '0')

		if current > 0 then
			redis.call('DECR', key)
			return 1
		else
			return 0
		end
	`

	s.redis.Eval(context.Background(), script, []string{s.key})
}

// LocalSemaphore is the single-instance fallback when redis is not
// configured.
type LocalSemaphore struct {
	permits chan struct{}
}

func NewLocalSemaphore(maxPermits int) *LocalSemaphore {
	if maxPermits <= 0 {
		maxPermits = 1
	}
	return &LocalSemaphore{permits: make(chan struct{}, maxPermits)}
}

func (s *LocalSemaphore) Acquire(ctx context.Context) error {
	select {
	case s.permits <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *LocalSemaphore) Release() {
	select {
	case <-s.permits:
	default:
	}
}
