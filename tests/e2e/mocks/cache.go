package mocks

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// InMemoryCache stores values as JSON and reports misses with redis.Nil, the
// way the redis-backed cache does.
type InMemoryCache struct {
	mu       sync.Mutex
	data     map[string]cacheEntry
	GetCalls int
	SetCalls int
}

type cacheEntry struct {
	value  []byte
	expiry time.Time
}

func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{data: make(map[string]cacheEntry)}
}

func (c *InMemoryCache) Get(_ context.Context, key string, dest any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.GetCalls++
	entry, ok := c.data[key]
	if !ok || (!entry.expiry.IsZero() && time.Now().After(entry.expiry)) {
		return redis.Nil
	}
	return json.Unmarshal(entry.value, dest)
}

func (c *InMemoryCache) Set(_ context.Context, key string, value any, exp time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.SetCalls++
	entry := cacheEntry{value: b}
	if exp > 0 {
		entry.expiry = time.Now().Add(exp)
	}
	c.data[key] = entry
	return nil
}

func (c *InMemoryCache) Incr(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int64
	if entry, ok := c.data[key]; ok {
		if err := json.Unmarshal(entry.value, &n); err != nil {
			return 0, err
		}
	}
	n++
	c.data[key] = cacheEntry{value: []byte(strconv.FormatInt(n, 10))}
	return n, nil
}

func (c *InMemoryCache) Close() error {
	return nil
}
