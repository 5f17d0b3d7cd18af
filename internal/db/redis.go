package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// UpdateChannel carries notices of moderation changes between instances.
const UpdateChannel = "adminserve-updates"

const busyPrefix = "busy:"

// UpdateMessage announces that an entity changed on the backend.
type UpdateMessage struct {
	Entity string `json:"entity"`
	Action string `json:"action"`
	ID     int64  `json:"id"`
	Origin string `json:"origin,omitempty"`
}

// RedisStore wraps a redis client and context for operations.
type RedisStore struct {
	Client *redis.Client
	Ctx    context.Context
}

// InitRedis initializes a Redis client and returns a RedisStore.
func InitRedis(addr string) (*RedisStore, error) {
	rs := &RedisStore{
		Client: redis.NewClient(&redis.Options{Addr: addr}),
		Ctx:    context.Background(),
	}

	// Add OpenTelemetry instrumentation to Redis client
	if err := redisotel.InstrumentTracing(rs.Client); err != nil {
		return nil, fmt.Errorf("failed to instrument redis tracing: %w", err)
	}

	if err := rs.Client.Ping(rs.Ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	zap.L().Info("Connected to Redis", zap.String("addr", addr))
	return rs, nil
}

// unlockScript deletes a lock only while it still holds the caller's token,
// so an expired lock taken over by someone else is left alone.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// TryLock takes the busy lock for key if nobody holds it. The lock expires
// after ttl in case the holder dies. The returned token releases it.
func (r *RedisStore) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := r.Client.SetNX(ctx, busyPrefix+key, token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("lock %s: %w", key, err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Unlock releases a lock taken with TryLock.
func (r *RedisStore) Unlock(ctx context.Context, key, token string) error {
	if err := unlockScript.Run(ctx, r.Client, []string{busyPrefix + key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("unlock %s: %w", key, err)
	}
	return nil
}

// Locked reports whether key is currently held by anyone.
func (r *RedisStore) Locked(ctx context.Context, key string) (bool, error) {
	n, err := r.Client.Exists(ctx, busyPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("exists %s: %w", key, err)
	}
	return n > 0, nil
}

// PublishUpdate broadcasts msg on UpdateChannel.
func (r *RedisStore) PublishUpdate(ctx context.Context, msg UpdateMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal update message: %w", err)
	}
	if err := r.Client.Publish(ctx, UpdateChannel, payload).Err(); err != nil {
		return fmt.Errorf("publish update message: %w", err)
	}
	return nil
}

// SubscribeUpdates calls handle for every message on UpdateChannel until ctx
// is cancelled. It returns once the subscription is confirmed; delivery runs
// in its own goroutine.
func (r *RedisStore) SubscribeUpdates(ctx context.Context, logger *zap.Logger, handle func(UpdateMessage)) error {
	sub := r.Client.Subscribe(ctx, UpdateChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", UpdateChannel, err)
	}

	go func() {
		defer func() {
			if err := sub.Close(); err != nil {
				logger.Warn("failed to close subscription", zap.Error(err))
			}
		}()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok {
					return
				}
				var msg UpdateMessage
				if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
					logger.Warn("invalid update message", zap.String("payload", m.Payload), zap.Error(err))
					continue
				}
				handle(msg)
			}
		}
	}()
	return nil
}

// Close shuts down the Redis client.
func (r *RedisStore) Close() {
	if r != nil && r.Client != nil {
		if err := r.Client.Close(); err != nil {
			zap.L().Error("redis close", zap.Error(err))
		}
	}
}
