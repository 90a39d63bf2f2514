package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/turtacn/proteingraph/internal/domain/graph"
	"github.com/turtacn/proteingraph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/proteingraph/pkg/errors"
)

// ErrCacheMiss is returned by Get when the key is absent.
var ErrCacheMiss = errors.NotFound("graph cache miss")

// GraphCache keeps JSON-encoded graph documents in Redis.
type GraphCache struct {
	client     *Client
	logger     logging.Logger
	prefix     string
	defaultTTL time.Duration
	jitter     float64
	group      singleflight.Group
}

type CacheOption func(*GraphCache)

func WithPrefix(prefix string) CacheOption {
	return func(c *GraphCache) { c.prefix = prefix }
}

func WithDefaultTTL(ttl time.Duration) CacheOption {
	return func(c *GraphCache) { c.defaultTTL = ttl }
}

// WithJitter spreads expiries by ±fraction of the TTL. Zero disables it.
func WithJitter(fraction float64) CacheOption {
	return func(c *GraphCache) { c.jitter = fraction }
}

// NewGraphCache builds a cache over client. The prefix and TTL default to the
// client's configuration.
func NewGraphCache(client *Client, log logging.Logger, opts ...CacheOption) *GraphCache {
	c := &GraphCache{
		client:     client,
		logger:     logging.OrDefault(log),
		prefix:     client.config.KeyPrefix,
		defaultTTL: client.config.DefaultTTL,
		jitter:     0.1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *GraphCache) fullKey(key string) string {
	return c.prefix + "graph:" + key
}

func (c *GraphCache) ttl() time.Duration {
	if c.defaultTTL <= 0 || c.jitter == 0 {
		return c.defaultTTL
	}
	delta := float64(c.defaultTTL) * c.jitter * (rand.Float64()*2 - 1)
	return c.defaultTTL + time.Duration(delta)
}

// Get returns the cached document for key, or ErrCacheMiss.
func (c *GraphCache) Get(ctx context.Context, key string) (*graph.Document, error) {
	data, err := c.client.Get(ctx, c.fullKey(key)).Bytes()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCacheError, "failed to get graph from cache")
	}
	var doc graph.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "cached graph is not a valid document")
	}
	return &doc, nil
}

// Set stores doc under key with the default TTL.
func (c *GraphCache) Set(ctx context.Context, key string, doc *graph.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode graph document")
	}
	if err := c.client.Set(ctx, c.fullKey(key), data, c.ttl()).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to write graph to cache")
	}
	return nil
}

// Delete removes the given keys.
func (c *GraphCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.fullKey(k)
	}
	if err := c.client.Del(ctx, full...).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to delete cached graphs")
	}
	return nil
}

// GetOrBuild returns the cached document for key, or runs build once per key
// across concurrent callers and caches its result. Cache read and write
// failures are logged and do not fail the call.
func (c *GraphCache) GetOrBuild(ctx context.Context, key string, build func(context.Context) (*graph.Document, error)) (*graph.Document, error) {
	doc, err := c.Get(ctx, key)
	if err == nil {
		return doc, nil
	}
	if !errors.IsNotFound(err) {
		c.logger.Warn("graph cache read failed", logging.String("key", key), logging.Err(err))
	}

	v, err, shared := c.group.Do(key, func() (interface{}, error) {
		// a build that finished since the first read has already stored it
		if doc, err := c.Get(ctx, key); err == nil {
			return doc, nil
		}
		built, err := build(ctx)
		if err != nil {
			return nil, err
		}
		if setErr := c.Set(ctx, key, built); setErr != nil {
			c.logger.Warn("graph cache write failed", logging.String("key", key), logging.Err(setErr))
		}
		return built, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.Debug("graph build shared", logging.String("key", key))
	}
	return v.(*graph.Document), nil
}
