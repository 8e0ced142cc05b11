package data

import (
	"context"
	"log/slog"
	"time"

	"github.com/target/checkqueue/internal/core"
)

// TextCacheKeyPrefix namespaces cached texts in Redis.
const TextCacheKeyPrefix = "checkqueue:text:"

const defaultTextCacheTTL = time.Hour

// RedisTextCacheOptions configures a RedisTextCache.
type RedisTextCacheOptions struct {
	Store  core.TextStore
	Cache  core.CacheRepository
	TTL    time.Duration
	Logger *slog.Logger
}

// RedisTextCache is a read-through cache in front of a TextStore. Texts are
// immutable once hashed, so cached entries never need invalidation; the TTL
// only bounds memory. Cache failures fall back to the store.
type RedisTextCache struct {
	store  core.TextStore
	cache  core.CacheRepository
	ttl    time.Duration
	logger *slog.Logger
}

var _ core.TextStore = (*RedisTextCache)(nil)

// NewRedisTextCache constructs a RedisTextCache.
func NewRedisTextCache(opts RedisTextCacheOptions) *RedisTextCache {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = defaultTextCacheTTL
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisTextCache{
		store:  opts.Store,
		cache:  opts.Cache,
		ttl:    ttl,
		logger: logger.With("component", "text_cache"),
	}
}

// Put writes through to the store. Writes may be part of an uncommitted
// transaction, so they are not cached.
func (c *RedisTextCache) Put(ctx context.Context, q core.Querier, text string) (string, error) {
	return c.store.Put(ctx, q, text)
}

// Get serves the text from Redis when present, otherwise from the store.
func (c *RedisTextCache) Get(ctx context.Context, hash string) (string, error) {
	if hash == "" {
		return "", nil
	}
	if body, ok := c.lookup(ctx, hash); ok {
		return body, nil
	}

	body, err := c.store.Get(ctx, hash)
	if err != nil {
		return "", err
	}
	c.remember(ctx, hash, body)
	return body, nil
}

// GetMany resolves cached hashes from Redis and the rest from the store in one query.
func (c *RedisTextCache) GetMany(ctx context.Context, hashes []string) (map[string]string, error) {
	out := make(map[string]string, len(hashes))
	var misses []string
	for _, h := range hashes {
		if h == "" {
			continue
		}
		if body, ok := c.lookup(ctx, h); ok {
			out[h] = body
			continue
		}
		misses = append(misses, h)
	}
	if len(misses) == 0 {
		return out, nil
	}

	loaded, err := c.store.GetMany(ctx, misses)
	if err != nil {
		return nil, err
	}
	for h, body := range loaded {
		out[h] = body
		c.remember(ctx, h, body)
	}
	return out, nil
}

func (c *RedisTextCache) lookup(ctx context.Context, hash string) (string, bool) {
	raw, err := c.cache.Get(ctx, TextCacheKeyPrefix+hash)
	if err != nil {
		c.logger.WarnContext(ctx, "text cache read failed", "hash", hash, "error", err)
		return "", false
	}
	if raw == nil {
		return "", false
	}
	return string(raw), true
}

func (c *RedisTextCache) remember(ctx context.Context, hash, body string) {
	if body == "" {
		return
	}
	if err := c.cache.Set(ctx, TextCacheKeyPrefix+hash, []byte(body), c.ttl); err != nil {
		c.logger.WarnContext(ctx, "text cache write failed", "hash", hash, "error", err)
	}
}
