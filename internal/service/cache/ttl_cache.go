package cache

import (
	"sync"
	"time"
)

type entry struct {
	v   []byte
	exp time.Time
}

func (e entry) expiredAt(now time.Time) bool { return !e.exp.IsZero() && now.After(e.exp) }

// TTLCache is an in-process byte cache. When maxEntries is reached, expired
// entries are swept before the new key is admitted.
type TTLCache struct {
	mu         sync.RWMutex
	m          map[string]entry
	maxEntries int
	now        func() time.Time
}

func NewTTLCache() *TTLCache {
	return NewBoundedTTLCache(0)
}

// NewBoundedTTLCache caps the number of live entries; 0 means unbounded.
func NewBoundedTTLCache(maxEntries int) *TTLCache {
	return &TTLCache{m: make(map[string]entry), maxEntries: maxEntries, now: time.Now}
}

func (c *TTLCache) GetBytes(key string) ([]byte, bool, error) {
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.expiredAt(c.now()) {
		return e.v, true, nil
	}

	// Recheck under the write lock: a SetBytes may have landed in between.
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok = c.m[key]
	if !ok {
		return nil, false, nil
	}
	if e.expiredAt(c.now()) {
		delete(c.m, key)
		return nil, false, nil
	}
	return e.v, true, nil
}

func (c *TTLCache) SetBytes(key string, value []byte, ttl time.Duration) error {
	var exp time.Time
	if ttl > 0 {
		exp = c.now().Add(ttl)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.m[key]; !exists && c.maxEntries > 0 && len(c.m) >= c.maxEntries {
		c.sweepLocked()
		if len(c.m) >= c.maxEntries {
			return nil
		}
	}
	c.m[key] = entry{v: value, exp: exp}
	return nil
}

// Len is the number of stored entries, including expired ones not yet swept.
func (c *TTLCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

func (c *TTLCache) sweepLocked() {
	now := c.now()
	for k, e := range c.m {
		if e.expiredAt(now) {
			delete(c.m, k)
		}
	}
}
