package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LatestKey always holds the most recent fix from any session.
const LatestKey = "nmea:fix:latest"

// RedisClient is the subset of go-redis used here.
type RedisClient interface {
	Ping(ctx context.Context) *redis.StatusCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Close() error
}

// Redis keeps the latest fix per session and overall.
type Redis struct {
	client RedisClient
	ttl    time.Duration
}

func NewRedis(addr string, ttl time.Duration) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisWithClient(client, ttl), nil
}

// NewRedisWithClient wraps an existing client (useful for testing).
func NewRedisWithClient(client RedisClient, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Redis{client: client, ttl: ttl}
}

func SessionKey(session string) string {
	return "nmea:fix:" + session
}

func (r *Redis) Name() string { return "redis" }

func (r *Redis) Publish(ctx context.Context, msg Message) error {
	data, err := msg.marshal()
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, SessionKey(msg.Session), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session fix: %w", err)
	}
	if err := r.client.Set(ctx, LatestKey, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store latest fix: %w", err)
	}
	return nil
}

// Latest returns the most recent message, or ok=false when none is stored.
func (r *Redis) Latest(ctx context.Context) (Message, bool, error) {
	data, err := r.client.Get(ctx, LatestKey).Bytes()
	if err == redis.Nil {
		return Message{}, false, nil
	}
	if err != nil {
		return Message{}, false, fmt.Errorf("failed to get latest fix: %w", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Message{}, false, fmt.Errorf("failed to unmarshal latest fix: %w", err)
	}
	return msg, true, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
