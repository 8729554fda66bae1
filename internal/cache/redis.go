package cache

import (
	"context"
	"errors"
	"time"

	"cyber_cricket/internal/logger"

	redis "github.com/redis/go-redis/v9"
)

// Connect returns a client for addr, or nil when addr is empty or the server
// does not answer. Callers treat nil as "run without Redis".
func Connect(addr, password string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, continuing without it", "addr", addr, "error", err)
		_ = client.Close()
		return nil
	}
	logger.Info("redis connected", "addr", addr)
	return client
}

var ErrLockHeld = errors.New("lock held by another owner")

// releaseScript deletes the key only if it still belongs to the caller.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RunLock keeps a single simulation running across server instances. A nil
// client makes every operation succeed locally.
type RunLock struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func NewRunLock(client *redis.Client, key string, ttl time.Duration) *RunLock {
	return &RunLock{client: client, key: key, ttl: ttl}
}

func (l *RunLock) Acquire(ctx context.Context, owner string) error {
	if l.client == nil {
		return nil
	}
	ok, err := l.client.SetNX(ctx, l.key, owner, l.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrLockHeld
	}
	return nil
}

// Refresh extends the lock while owner still holds it.
func (l *RunLock) Refresh(ctx context.Context, owner string) error {
	if l.client == nil {
		return nil
	}
	cur, err := l.client.Get(ctx, l.key).Result()
	if errors.Is(err, redis.Nil) {
		return l.Acquire(ctx, owner)
	}
	if err != nil {
		return err
	}
	if cur != owner {
		return ErrLockHeld
	}
	return l.client.Expire(ctx, l.key, l.ttl).Err()
}

func (l *RunLock) Release(ctx context.Context, owner string) error {
	if l.client == nil {
		return nil
	}
	return releaseScript.Run(ctx, l.client, []string{l.key}, owner).Err()
}

// Hold refreshes the lock every ttl/3 until ctx is done, then releases it.
func (l *RunLock) Hold(ctx context.Context, owner string) {
	if l.client == nil {
		return
	}
	tick := time.NewTicker(l.ttl / 3)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			if err := l.Release(releaseCtx, owner); err != nil {
				logger.Warn("run lock release failed", "key", l.key, "error", err)
			}
			cancel()
			return
		case <-tick.C:
			if err := l.Refresh(ctx, owner); err != nil && ctx.Err() == nil {
				logger.Warn("run lock refresh failed", "key", l.key, "error", err)
			}
		}
	}
}
