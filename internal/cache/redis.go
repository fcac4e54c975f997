package cache

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const generationKey = "socialfeed:feed:gen"

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Redis shares feed pages across API replicas. Invalidation bumps a
// generation counter that is part of every key, so stale pages simply stop
// being addressed and expire on their own TTL.
type Redis struct {
	redisdb *redis.Client
	ttl     time.Duration
}

func NewRedis(cfg RedisConfig) *Redis {
	redisdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &Redis{redisdb: redisdb, ttl: ttl}
}

func (c *Redis) Ping(ctx context.Context) error {
	return c.redisdb.Ping(ctx).Err()
}

func (c *Redis) Close() error {
	return c.redisdb.Close()
}

func (c *Redis) generation(ctx context.Context) (int64, error) {
	gen, err := c.redisdb.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *Redis) key(gen int64, key string) string {
	return "socialfeed:" + strconv.FormatInt(gen, 10) + ":" + key
}

// Get treats any redis failure as a miss; the store stays the source of truth.
// A generation of -1 tells Set not to write.
func (c *Redis) Get(ctx context.Context, key string) ([]byte, int64, bool) {
	gen, err := c.generation(ctx)
	if err != nil {
		slog.Default().WarnContext(ctx, "feed cache generation read failed", "err", err)
		return nil, -1, false
	}

	b, err := c.redisdb.Get(ctx, c.key(gen, key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Default().WarnContext(ctx, "feed cache read failed", "key", key, "err", err)
		}
		return nil, gen, false
	}

	return b, gen, true
}

// Set writes under the generation the caller read with Get. If an Invalidate
// bumped it in between, the entry lands under a key nobody reads and ages out.
func (c *Redis) Set(ctx context.Context, key string, gen int64, val []byte) {
	if gen < 0 {
		return
	}

	if err := c.redisdb.Set(ctx, c.key(gen, key), val, c.ttl).Err(); err != nil {
		slog.Default().WarnContext(ctx, "feed cache write failed", "key", key, "err", err)
	}
}

func (c *Redis) Invalidate(ctx context.Context) {
	if err := c.redisdb.Incr(ctx, generationKey).Err(); err != nil {
		slog.Default().WarnContext(ctx, "feed cache invalidation failed", "err", err)
	}
}
