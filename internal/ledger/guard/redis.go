package guard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"fundledger/pkg/platform/sentinel"
)

const (
	defaultLockKey = "fundledger:withdraw:lock"
	defaultLockTTL = 30 * time.Second
)

// releaseScript deletes the lock only when it still holds our token, so an
// expired holder cannot free a lock taken over by someone else.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis guards withdrawals across every process sharing one Redis.
type Redis struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

type RedisOption func(*Redis)

// WithTTL bounds how long a crashed holder can block withdrawals.
func WithTTL(ttl time.Duration) RedisOption {
	return func(g *Redis) {
		if ttl > 0 {
			g.ttl = ttl
		}
	}
}

func WithKey(key string) RedisOption {
	return func(g *Redis) {
		if key != "" {
			g.key = key
		}
	}
}

func NewRedis(client *redis.Client, opts ...RedisOption) *Redis {
	g := &Redis{client: client, key: defaultLockKey, ttl: defaultLockTTL}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Acquire sets the lock key with SET NX PX. It returns sentinel.ErrLocked when
// the key is held and sentinel.ErrUnavailable when Redis cannot be reached.
func (g *Redis) Acquire(ctx context.Context) (Release, error) {
	token := uuid.NewString()
	ok, err := g.client.SetNX(ctx, g.key, token, g.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire withdrawal lock: %w", errors.Join(sentinel.ErrUnavailable, err))
	}
	if !ok {
		return nil, sentinel.ErrLocked
	}

	var (
		once   sync.Once
		relErr error
	)
	return func(ctx context.Context) error {
		once.Do(func() {
			ctx = context.WithoutCancel(ctx)
			if err := releaseScript.Run(ctx, g.client, []string{g.key}, token).Err(); err != nil {
				relErr = fmt.Errorf("release withdrawal lock: %w", err)
			}
		})
		return relErr
	}, nil
}
