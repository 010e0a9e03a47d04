package cache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const generationKey = "availability:generation"

// Connect returns a client for addr, or nil when addr is empty or the server
// does not answer. A nil client turns caching off.
func Connect(addr string) *redis.Client {
	if addr == "" {
		log.Println("⚠️ REDIS_ADDR is not set, availability caching is disabled")
		return nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Printf("⚠️ Could not reach Redis at %s, availability caching is disabled: %v", addr, err)
		_ = rdb.Close()
		return nil
	}
	log.Println("✅ Redis connected successfully")
	return rdb
}

// Availability caches serialised availability queries in Redis. Every write
// to windows or sessions bumps a generation counter that is part of each key,
// so one INCR drops all cached results at once. A nil *Availability is a no-op.
type Availability struct {
	rdb *redis.Client
	ttl time.Duration
}

func New(rdb *redis.Client, ttl time.Duration) *Availability {
	if rdb == nil {
		return nil
	}
	return &Availability{rdb: rdb, ttl: ttl}
}

// Get looks key up under the current generation and returns that generation
// even on a miss, so the caller can hand it back to Set. The generation is -1
// when Redis could not be read.
func (c *Availability) Get(ctx context.Context, key string) ([]byte, int64, bool) {
	if c == nil {
		return nil, -1, false
	}
	gen, err := c.generation(ctx)
	if err != nil {
		return nil, -1, false
	}
	k := versionedKey(key, gen)
	v, err := c.rdb.Get(ctx, k).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("⚠️ Redis GET %s failed: %v", k, err)
		}
		return nil, gen, false
	}
	return v, gen, true
}

// Set stores value under the generation a previous Get returned. If a write
// bumped the generation in between, the entry is simply never read.
func (c *Availability) Set(ctx context.Context, key string, gen int64, value []byte) {
	if c == nil || gen < 0 {
		return
	}
	k := versionedKey(key, gen)
	if err := c.rdb.Set(ctx, k, value, c.ttl).Err(); err != nil {
		log.Printf("⚠️ Redis SET %s failed: %v", k, err)
	}
}

func (c *Availability) Invalidate(ctx context.Context) {
	if c == nil {
		return
	}
	if err := c.rdb.Incr(ctx, generationKey).Err(); err != nil {
		log.Printf("⚠️ Redis INCR %s failed: %v", generationKey, err)
	}
}

func (c *Availability) generation(ctx context.Context) (int64, error) {
	gen, err := c.rdb.Get(ctx, generationKey).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		log.Printf("⚠️ Redis GET %s failed: %v", generationKey, err)
		return 0, err
	}
	return gen, nil
}

func versionedKey(key string, gen int64) string {
	return fmt.Sprintf("%s:g%d", key, gen)
}
