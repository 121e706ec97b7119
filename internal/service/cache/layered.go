package cache

import "time"

// Layered is a two-level cache: a local L1 in front of a shared L2.
// Writes go through to both; L2 hits backfill L1 for at most l1TTL.
type Layered struct {
	l1    BytesCache
	l2    BytesCache
	l1TTL time.Duration
}

func NewLayered(l1, l2 BytesCache, l1TTL time.Duration) *Layered {
	if l1TTL <= 0 {
		l1TTL = 30 * time.Second
	}
	return &Layered{l1: l1, l2: l2, l1TTL: l1TTL}
}

func (c *Layered) GetBytes(key string) ([]byte, bool, error) {
	if b, ok, err := c.l1.GetBytes(key); err == nil && ok {
		return b, true, nil
	}
	b, ok, err := c.l2.GetBytes(key)
	if err != nil || !ok {
		return nil, false, err
	}
	_ = c.l1.SetBytes(key, b, c.l1TTL)
	return b, true, nil
}

// SetBytes writes L2 first so a failed shared write never leaves a value
// visible only locally.
func (c *Layered) SetBytes(key string, value []byte, ttl time.Duration) error {
	if err := c.l2.SetBytes(key, value, ttl); err != nil {
		return err
	}
	l1 := c.l1TTL
	if ttl > 0 && ttl < l1 {
		l1 = ttl
	}
	return c.l1.SetBytes(key, value, l1)
}
