package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/standin-bot/standin/pkg/convo"
)

const defaultKeyPrefix = "convo:"

// RedisStore persists conversation turns as one JSON blob per key, so
// history survives process restarts and the response-delay gate stays
// idempotent across them.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisOptions configures the store. A zero TTL keeps conversations
// forever.
type RedisOptions struct {
	KeyPrefix string
	TTL       time.Duration
}

func NewRedisStore(rdb *redis.Client, opts RedisOptions) *RedisStore {
	prefix := opts.KeyPrefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &RedisStore{rdb: rdb, prefix: prefix, ttl: opts.TTL}
}

// DialRedis connects and pings a redis server from a URL.
func DialRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (s *RedisStore) Load(ctx context.Context, key convo.Key) ([]convo.Turn, error) {
	data, err := s.rdb.Get(ctx, s.prefix+key.String()).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	var turns []convo.Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, fmt.Errorf("unmarshal conversation: %w", err)
	}
	return turns, nil
}

func (s *RedisStore) Save(ctx context.Context, key convo.Key, turns []convo.Turn) error {
	data, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("marshal conversation: %w", err)
	}
	if err := s.rdb.Set(ctx, s.prefix+key.String(), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save conversation: %w", err)
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
