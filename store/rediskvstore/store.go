// Package rediskvstore provides a Redis-backed store.Store, grounded on
// the a5c-ai-hub stack's redis.Client wiring (options, Ping on
// construction). Records live in a per-uuid sorted set (ZADD keyed by
// index, so ZREVRANGE gives the latest generation cheaply) plus a plain
// string key per (uuid, index) holding the JSON-encoded record.
package rediskvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xperrylinn/jobflow/store"
)

// Store is the Redis store.Store implementation.
type Store struct {
	client *redis.Client
	prefix string
}

// Option configures a Store.
type Option func(*Store)

// WithPrefix namespaces every key the Store writes, for sharing a Redis
// database across multiple jobflow deployments.
func WithPrefix(prefix string) Option { return func(s *Store) { s.prefix = prefix } }

// New connects to addr and returns a Store, failing fast if the initial
// Ping does not succeed (mirrors a5c-ai-hub's RedisService constructor).
func New(addr, password string, db int, opts ...Option) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("rediskvstore: connect: %w", err)
	}

	s := &Store{client: client}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) indexKey(uuid string) string {
	return s.prefix + "jobflow:index:" + uuid
}

func (s *Store) recordKey(uuid string, index int) string {
	return fmt.Sprintf("%sjobflow:record:%s:%d", s.prefix, uuid, index)
}

type document struct {
	Output      any            `json:"output"`
	CompletedAt int64          `json:"completedAt"`
	Metadata    map[string]any `json:"metadata"`
}

// GetOutput implements store.Store.
func (s *Store) GetOutput(ctx context.Context, uuid string, which any, _ bool) (any, error) {
	index, err := s.resolveIndex(ctx, uuid, which)
	if err != nil {
		return nil, err
	}

	raw, err := s.client.Get(ctx, s.recordKey(uuid, index)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, &store.ErrNotFound{UUID: uuid, Which: which}
	}
	if err != nil {
		return nil, fmt.Errorf("rediskvstore: get: %w", err)
	}

	var doc document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("rediskvstore: decode: %w", err)
	}
	return doc.Output, nil
}

func (s *Store) resolveIndex(ctx context.Context, uuid string, which any) (int, error) {
	if idx, ok := which.(int); ok {
		return idx, nil
	}

	members, err := s.client.ZRevRangeWithScores(ctx, s.indexKey(uuid), 0, 0).Result()
	if err != nil {
		return 0, fmt.Errorf("rediskvstore: latest index: %w", err)
	}
	if len(members) == 0 {
		return 0, &store.ErrNotFound{UUID: uuid, Which: which}
	}
	return int(members[0].Score), nil
}

// Update implements store.Store: writes the record and advances the
// uuid's sorted-set pointer for cheap "latest" lookups.
func (s *Store) Update(ctx context.Context, rec store.Record, _ store.DataSelector) error {
	doc := document{
		Output:      rec.Output,
		CompletedAt: rec.CompletedAt.UnixNano(),
		Metadata:    rec.Metadata,
	}
	encoded, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("rediskvstore: encode: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.recordKey(rec.UUID, rec.Index), encoded, 0)
	pipe.ZAdd(ctx, s.indexKey(rec.UUID), redis.Z{Score: float64(rec.Index), Member: rec.Index})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("rediskvstore: upsert: %w", err)
	}
	return nil
}
