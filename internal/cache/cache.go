package cache

import (
	"context"
	"sync"
	"time"
)

// Memory is a process-local TTL cache. Values are copied in and out so
// callers can't mutate what is stored.
type Memory struct {
	mu  sync.RWMutex
	ttl time.Duration
	gen int64
	m   map[string]entry
	now func() time.Time
}

type entry struct {
	val []byte
	exp time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &Memory{
		ttl: ttl,
		m:   make(map[string]entry),
		now: time.Now,
	}
}

// Get returns the entry for key and the generation it was looked up in.
// The generation is returned on a miss too; hand it back to Set.
func (c *Memory) Get(_ context.Context, key string) ([]byte, int64, bool) {
	now := c.now()
	c.mu.RLock()
	e, ok := c.m[key]
	gen := c.gen
	c.mu.RUnlock()
	if !ok {
		return nil, gen, false
	}

	if now.After(e.exp) {
		c.mu.Lock()
		if cur, still := c.m[key]; still && cur.exp == e.exp {
			delete(c.m, key)
		}
		c.mu.Unlock()
		return nil, gen, false
	}

	return append([]byte(nil), e.val...), gen, true
}

// Set stores val only if no Invalidate ran since gen was read, so a page
// built from pre-invalidation reads is dropped.
func (c *Memory) Set(_ context.Context, key string, gen int64, val []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		return
	}

	c.m[key] = entry{val: append([]byte(nil), val...), exp: c.now().Add(c.ttl)}
}

// Invalidate drops every cached page and starts a new generation.
func (c *Memory) Invalidate(_ context.Context) {
	c.mu.Lock()
	c.gen++
	c.m = make(map[string]entry)
	c.mu.Unlock()
}
