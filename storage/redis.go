package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"argus/core"
)

const resultKeyPrefix = "argus:result:"

// RedisStoreConfig configures the Redis result store.
type RedisStoreConfig struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
	// TTL expires results so a long-running deployment does not grow the
	// keyspace unbounded. Zero means no expiration.
	TTL    time.Duration
	Logger *zap.SugaredLogger
}

// RedisStore publishes results to Redis as JSON values, one key per
// pipeline ID, for consumption by downstream systems.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.SugaredLogger
}

func NewRedisStore(cfg *RedisStoreConfig) (*RedisStore, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis store config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", cfg.Addr, err)
	}

	logger.Infow("redis result store ready", "addr", cfg.Addr, "db", cfg.DB)
	return &RedisStore{client: client, ttl: cfg.TTL, logger: logger}, nil
}

func (s *RedisStore) Name() string { return "redis" }

func (s *RedisStore) Save(ctx context.Context, result *core.PipelineResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("%w: marshal result %s: %v", core.ErrPersistence, result.PipelineID, err)
	}

	key := resultKeyPrefix + result.PipelineID
	// SetNX preserves write-once semantics for duplicate pipeline IDs.
	if err := s.client.SetNX(ctx, key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: set %s: %v", core.ErrPersistence, key, err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, pipelineID string) (*core.PipelineResult, error) {
	raw, err := s.client.Get(ctx, resultKeyPrefix+pipelineID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get result %s: %w", pipelineID, err)
	}

	var result core.PipelineResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("decode result %s: %w", pipelineID, err)
	}
	return &result, nil
}

func (s *RedisStore) Close() error { return s.client.Close() }
