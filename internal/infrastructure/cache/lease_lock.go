package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lease only when the caller still holds it. A
// sweep that outlived its TTL must not release a lease another process has
// since acquired.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

// RedisLeaseLock is a best-effort distributed lease on Redis SETNX. It keeps
// periodic jobs single-flight across instances: whoever sets the key first
// runs, everyone else skips the cycle.
type RedisLeaseLock struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisLeaseLock creates a lease lock sharing an existing Redis client
func NewRedisLeaseLock(client *redis.Client, keyPrefix string) *RedisLeaseLock {
	if keyPrefix == "" {
		keyPrefix = "lease:"
	}
	return &RedisLeaseLock{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Lease is a held lock. Release it when the job finishes.
type Lease struct {
	lock  *RedisLeaseLock
	key   string
	token string
}

// Acquire attempts to take the named lease for ttl. Returns (nil, false, nil)
// when another process holds it.
func (l *RedisLeaseLock) Acquire(ctx context.Context, name string, ttl time.Duration) (*Lease, bool, error) {
	key := l.keyPrefix + name
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire lease %q: %w", name, err)
	}
	if !ok {
		return nil, false, nil
	}
	return &Lease{lock: l, key: key, token: token}, true, nil
}

// Release gives the lease back if this holder still owns it.
func (le *Lease) Release(ctx context.Context) error {
	err := le.lock.client.Eval(ctx, releaseScript, []string{le.key}, le.token).Err()
	if err != nil {
		return fmt.Errorf("failed to release lease %q: %w", le.key, err)
	}
	return nil
}
