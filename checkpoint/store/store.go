// Package store provides RedisCheckpointStore, a reference host-side
// persistence adapter for checkpoint.Checkpoint values. The ASC's
// checkpoint package itself performs no I/O (spec §5); this package is
// the optional, swappable place a host wires persistence, grounded
// directly on orchestration/hitl_checkpoint_store.go's Redis-backed
// reference implementation (key layout, env-var precedence, distributed
// claim mechanism via SETNX+Lua).
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/agentsafe/asc/checkpoint"
	"github.com/agentsafe/asc/core"
)

// RedisCheckpointStore persists checkpoint.Checkpoint values in Redis.
type RedisCheckpointStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
	redisURL  string

	logger    core.Logger
	instanceID string
}

type config struct {
	redisURL   string
	redisDB    int
	keyPrefix  string
	ttl        time.Duration
	logger     core.Logger
	instanceID string
}

// Option configures NewRedisCheckpointStore.
type Option func(*config)

// WithRedisURL overrides the Redis connection URL (else REDIS_URL env var,
// else redis://localhost:6379).
func WithRedisURL(url string) Option { return func(c *config) { c.redisURL = url } }

// WithRedisDB overrides the Redis logical database number.
func WithRedisDB(db int) Option { return func(c *config) { c.redisDB = db } }

// WithKeyPrefix overrides the Redis key prefix.
func WithKeyPrefix(prefix string) Option { return func(c *config) { c.keyPrefix = prefix } }

// WithTTL overrides the per-checkpoint TTL.
func WithTTL(ttl time.Duration) Option { return func(c *config) { c.ttl = ttl } }

// WithInstanceID sets a deterministic instance ID for the distributed
// claim mechanism; tests should set this explicitly rather than relying
// on the hostname-derived default.
func WithInstanceID(id string) Option { return func(c *config) { c.instanceID = id } }

// WithLogger attaches a logger, scoped to "asc/checkpoint/store" if it
// implements core.ComponentAwareLogger.
func WithLogger(l core.Logger) Option {
	return func(c *config) { c.logger = core.ScopedLogger(l, "checkpoint/store") }
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func generateInstanceID() string {
	hostname, _ := os.Hostname()
	id := uuid.New().String()
	return fmt.Sprintf("%s-%s", hostname, id[:8])
}

// New builds a Redis-backed checkpoint store.
//
// Configuration priority (spec-style "environment variable precedence"
// from hitl_checkpoint_store.go): explicit Option > environment variable
// > default.
//
//	REDIS_URL                     - connection URL (default redis://localhost:6379)
//	ASC_CHECKPOINT_REDIS_DB       - logical DB number (default 7)
//	ASC_CHECKPOINT_KEY_PREFIX     - key prefix (default "asc:checkpoint")
//	ASC_CHECKPOINT_TTL            - per-checkpoint TTL (default 168h)
func New(ctx context.Context, opts ...Option) (*RedisCheckpointStore, error) {
	cfg := &config{
		redisURL:  getEnv("REDIS_URL", "redis://localhost:6379"),
		redisDB:   getEnvInt("ASC_CHECKPOINT_REDIS_DB", 7),
		keyPrefix: getEnv("ASC_CHECKPOINT_KEY_PREFIX", "asc:checkpoint"),
		ttl:       getEnvDuration("ASC_CHECKPOINT_TTL", 7*24*time.Hour),
		logger:    &core.NoOpLogger{},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	redisOpts, err := redis.ParseURL(cfg.redisURL)
	if err != nil {
		return nil, fmt.Errorf("checkpoint/store: parse REDIS_URL %q: %w", cfg.redisURL, err)
	}
	redisOpts.DB = cfg.redisDB
	client := redis.NewClient(redisOpts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("checkpoint/store: connect to %q: %w", cfg.redisURL, err)
	}

	instanceID := cfg.instanceID
	if instanceID == "" {
		instanceID = generateInstanceID()
	}

	return &RedisCheckpointStore{
		client:     client,
		keyPrefix:  cfg.keyPrefix,
		ttl:        cfg.ttl,
		redisURL:   cfg.redisURL,
		logger:     cfg.logger,
		instanceID: instanceID,
	}, nil
}

func (s *RedisCheckpointStore) checkpointKey(id string) string {
	return fmt.Sprintf("%s:checkpoint:%s", s.keyPrefix, id)
}

func (s *RedisCheckpointStore) indexKey() string {
	return s.keyPrefix + ":index"
}

func (s *RedisCheckpointStore) childrenKey(parentID string) string {
	return fmt.Sprintf("%s:children:%s", s.keyPrefix, parentID)
}

// Save persists cp, indexing it for ListAll and, if it has a parent, for
// Children lookup.
func (s *RedisCheckpointStore) Save(ctx context.Context, cp checkpoint.Checkpoint) error {
	raw, err := checkpoint.Serialize(cp)
	if err != nil {
		return fmt.Errorf("checkpoint/store: serialize %s: %w", cp.ID, err)
	}

	if err := s.client.Set(ctx, s.checkpointKey(cp.ID), raw, s.ttl).Err(); err != nil {
		s.logger.Error("failed to save checkpoint", map[string]interface{}{
			"operation":    "checkpoint.store.Save",
			"checkpointId": cp.ID,
			"error":        err.Error(),
		})
		return fmt.Errorf("checkpoint/store: save %s to %s: %w", cp.ID, s.redisURL, err)
	}

	if err := s.client.SAdd(ctx, s.indexKey(), cp.ID).Err(); err != nil {
		s.logger.Warn("failed to update checkpoint index", map[string]interface{}{
			"operation":    "checkpoint.store.Save",
			"checkpointId": cp.ID,
			"error":        err.Error(),
		})
	}

	if cp.HasParent {
		if err := s.client.SAdd(ctx, s.childrenKey(cp.ParentID), cp.ID).Err(); err != nil {
			s.logger.Warn("failed to update children index", map[string]interface{}{
				"operation":    "checkpoint.store.Save",
				"checkpointId": cp.ID,
				"parentId":     cp.ParentID,
				"error":        err.Error(),
			})
		}
	}
	return nil
}

// Load retrieves a checkpoint by ID.
func (s *RedisCheckpointStore) Load(ctx context.Context, id string) (*checkpoint.Checkpoint, error) {
	data, err := s.client.Get(ctx, s.checkpointKey(id)).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("checkpoint/store: %s: %w", id, os.ErrNotExist)
	}
	if err != nil {
		return nil, fmt.Errorf("checkpoint/store: load %s from %s: %w", id, s.redisURL, err)
	}
	cp, err := checkpoint.Deserialize(string(data))
	if err != nil {
		return nil, err
	}
	return cp, nil
}

// Delete removes a checkpoint and its index entries.
func (s *RedisCheckpointStore) Delete(ctx context.Context, id string) error {
	cp, err := s.Load(ctx, id)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := s.client.Del(ctx, s.checkpointKey(id)).Err(); err != nil {
		return fmt.Errorf("checkpoint/store: delete %s: %w", id, err)
	}
	s.client.SRem(ctx, s.indexKey(), id)
	if cp != nil && cp.HasParent {
		s.client.SRem(ctx, s.childrenKey(cp.ParentID), id)
	}
	return nil
}

// ListAll returns every checkpoint ID currently indexed.
func (s *RedisCheckpointStore) ListAll(ctx context.Context) ([]string, error) {
	ids, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("checkpoint/store: list: %w", err)
	}
	return ids, nil
}

// Children returns the IDs of checkpoints whose ParentID is parentID.
func (s *RedisCheckpointStore) Children(ctx context.Context, parentID string) ([]string, error) {
	ids, err := s.client.SMembers(ctx, s.childrenKey(parentID)).Result()
	if err != nil {
		return nil, fmt.Errorf("checkpoint/store: children of %s: %w", parentID, err)
	}
	return ids, nil
}

// LoadAll loads every indexed checkpoint, skipping (and de-indexing) IDs
// whose entry expired via TTL since indexing.
func (s *RedisCheckpointStore) LoadAll(ctx context.Context) ([]checkpoint.Checkpoint, error) {
	ids, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]checkpoint.Checkpoint, 0, len(ids))
	for _, id := range ids {
		cp, err := s.Load(ctx, id)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				s.client.SRem(ctx, s.indexKey(), id)
				continue
			}
			s.logger.Warn("failed to load checkpoint during LoadAll", map[string]interface{}{
				"operation":    "checkpoint.store.LoadAll",
				"checkpointId": id,
				"error":        err.Error(),
			})
			continue
		}
		out = append(out, *cp)
	}
	return out, nil
}

// Close closes the underlying Redis client.
func (s *RedisCheckpointStore) Close() error {
	return s.client.Close()
}
