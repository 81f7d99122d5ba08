// Package cache is a best-effort read-through layer in front of the durable
// store and the chain. It is strictly advisory: a miss or a backend failure
// means a cold read, never an error, and nothing here is authoritative for
// authorization decisions.
package cache

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// memoryLimit caps the fallback map before expired entries are swept.
const memoryLimit = 1000

type memoryEntry struct {
	data    []byte
	expires time.Time
}

// Cache wraps Redis with an in-memory fallback used when Redis is not
// configured or unreachable at startup.
type Cache struct {
	rdb *redis.Client

	mu  sync.Mutex
	mem map[string]memoryEntry
}

// New connects to redisURL. An empty URL or a failed ping degrades to the
// in-memory fallback rather than failing startup.
func New(ctx context.Context, redisURL string) *Cache {
	c := &Cache{mem: make(map[string]memoryEntry)}

	if redisURL == "" {
		log.Println("redis not configured, using in-memory cache fallback")
		return c
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Printf("invalid redis url, using in-memory cache fallback: %v", err)
		return c
	}
	opt.MaxRetries = 3

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("redis unavailable, using in-memory cache fallback: %v", err)
		rdb.Close()
		return c
	}

	c.rdb = rdb
	return c
}

// Get unmarshals the cached value for key into dest and reports whether a
// live entry was found. Backend failures count as a miss.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) bool {
	var data []byte

	if c.rdb != nil {
		b, err := c.rdb.Get(ctx, key).Bytes()
		if err != nil {
			if err != redis.Nil {
				log.Printf("redis get error: %v", err)
			}
			return false
		}
		data = b
	} else {
		c.mu.Lock()
		entry, ok := c.mem[key]
		if ok && entry.expires.Before(time.Now()) {
			delete(c.mem, key)
			ok = false
		}
		c.mu.Unlock()
		if !ok {
			return false
		}
		data = entry.data
	}

	return json.Unmarshal(data, dest) == nil
}

// Set stores v under key for ttl. Failures are logged and swallowed.
func (c *Cache) Set(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("cache marshal error for %s: %v", key, err)
		return
	}

	if c.rdb != nil {
		if err := c.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
			log.Printf("redis set error: %v", err)
		}
		return
	}

	c.mu.Lock()
	c.mem[key] = memoryEntry{data: data, expires: time.Now().Add(ttl)}
	if len(c.mem) > memoryLimit {
		now := time.Now()
		for k, e := range c.mem {
			if e.expires.Before(now) {
				delete(c.mem, k)
			}
		}
	}
	c.mu.Unlock()
}

// Delete drops key from the cache.
func (c *Cache) Delete(ctx context.Context, key string) {
	if c.rdb != nil {
		if err := c.rdb.Del(ctx, key).Err(); err != nil {
			log.Printf("redis delete error: %v", err)
		}
		return
	}
	c.mu.Lock()
	delete(c.mem, key)
	c.mu.Unlock()
}

// Close releases the Redis connection if one is held.
func (c *Cache) Close() {
	if c.rdb != nil {
		c.rdb.Close()
	}
}
