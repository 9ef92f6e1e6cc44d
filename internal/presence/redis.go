package presence

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const onlineSetKey = "presence:online"

// RedisRegistry keeps presence in a Redis set so that multiple server
// instances see the same state. SADD/SREM are idempotent, matching the
// Registry contract.
type RedisRegistry struct {
	client *redis.Client
	log    *zerolog.Logger
}

// NewRedisRegistry connects to redisURL and verifies the connection.
func NewRedisRegistry(ctx context.Context, redisURL string, logger *zerolog.Logger) (*RedisRegistry, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisRegistry{client: client, log: logger}, nil
}

// MarkOnline adds the user to the shared online set.
func (r *RedisRegistry) MarkOnline(ctx context.Context, userID int64) error {
	if err := r.client.SAdd(ctx, onlineSetKey, userID).Err(); err != nil {
		return fmt.Errorf("mark online: %w", err)
	}
	return nil
}

// MarkOffline removes the user from the shared online set.
func (r *RedisRegistry) MarkOffline(ctx context.Context, userID int64) error {
	if err := r.client.SRem(ctx, onlineSetKey, userID).Err(); err != nil {
		return fmt.Errorf("mark offline: %w", err)
	}
	return nil
}

// IsOnline reports whether the user is in the shared online set.
// Lookup failures are logged and read as offline.
func (r *RedisRegistry) IsOnline(ctx context.Context, userID int64) bool {
	ok, err := r.client.SIsMember(ctx, onlineSetKey, userID).Result()
	if err != nil {
		r.log.Warn().Err(err).Int64("user_id", userID).Msg("presence lookup failed")
		return false
	}
	return ok
}

// Close releases the Redis connection.
func (r *RedisRegistry) Close() error {
	return r.client.Close()
}
