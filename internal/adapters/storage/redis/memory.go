package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/PabloGalante/solace/internal/domain"
)

const (
	defaultPrefix = "solace"
	// defaultMaxEntries bounds each user's log in Redis.
	defaultMaxEntries = 1000
)

// Config holds the Redis connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
	// Prefix namespaces every key, e.g. "solace" -> "solace:memory:<user>".
	Prefix     string
	MaxEntries int
}

// MemoryBackend stores each user's log as a sorted set scored by timestamp
// and the derived profile as a JSON string.
type MemoryBackend struct {
	client     *redis.Client
	prefix     string
	maxEntries int64
}

// New connects to Redis. The connection is lazy; Ping is left to the caller.
func New(cfg Config) (*MemoryBackend, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return NewWithClient(client, cfg.Prefix, cfg.MaxEntries), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, prefix string, maxEntries int) *MemoryBackend {
	if prefix == "" {
		prefix = defaultPrefix
	}
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	return &MemoryBackend{
		client:     client,
		prefix:     prefix,
		maxEntries: int64(maxEntries),
	}
}

// Ping checks connectivity.
func (b *MemoryBackend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

func (b *MemoryBackend) Close() error {
	return b.client.Close()
}

func (b *MemoryBackend) SaveMemory(ctx context.Context, entry *domain.MemoryEntry) error {
	val, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode memory entry: %w", err)
	}

	key := b.memoryKey(entry.UserID)
	_, err = b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, key, redis.Z{
			Score:  float64(entry.Timestamp.UnixNano()),
			Member: val,
		})
		// Keep only the newest maxEntries.
		pipe.ZRemRangeByRank(ctx, key, 0, -b.maxEntries-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis SaveMemory: %w", err)
	}
	return nil
}

func (b *MemoryBackend) RecentMemories(ctx context.Context, userID domain.UserID, limit int) ([]*domain.MemoryEntry, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}

	vals, err := b.client.ZRevRange(ctx, b.memoryKey(userID), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("redis RecentMemories: %w", err)
	}

	out := make([]*domain.MemoryEntry, 0, len(vals))
	// ZRevRange is newest first; callers want oldest first.
	for i := len(vals) - 1; i >= 0; i-- {
		var e domain.MemoryEntry
		if err := json.Unmarshal([]byte(vals[i]), &e); err != nil {
			return nil, fmt.Errorf("decode memory entry: %w", err)
		}
		out = append(out, &e)
	}
	return out, nil
}

func (b *MemoryBackend) UpsertProfile(ctx context.Context, profile *domain.UserProfile) error {
	val, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := b.client.Set(ctx, b.profileKey(profile.UserID), val, 0).Err(); err != nil {
		return fmt.Errorf("redis UpsertProfile: %w", err)
	}
	return nil
}

// GetProfile returns nil without error for unknown users.
func (b *MemoryBackend) GetProfile(ctx context.Context, userID domain.UserID) (*domain.UserProfile, error) {
	val, err := b.client.Get(ctx, b.profileKey(userID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis GetProfile: %w", err)
	}

	var p domain.UserProfile
	if err := json.Unmarshal([]byte(val), &p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &p, nil
}

func (b *MemoryBackend) memoryKey(userID domain.UserID) string {
	return b.prefix + ":memory:" + string(userID)
}

func (b *MemoryBackend) profileKey(userID domain.UserID) string {
	return b.prefix + ":profile:" + string(userID)
}
