package cache

import (
	"encoding/json"
	"time"
)

// BytesCache is a minimal cache API storing raw bytes with TTL.
// A nil BytesCache is never passed to adapters; use Nop instead.
type BytesCache interface {
	GetBytes(key string) (b []byte, ok bool, err error)
	SetBytes(key string, value []byte, ttl time.Duration) error
}

// Nop is a cache that never hits.
type Nop struct{}

func (Nop) GetBytes(string) ([]byte, bool, error)        { return nil, false, nil }
func (Nop) SetBytes(string, []byte, time.Duration) error { return nil }

// GetJSON decodes a cached JSON value into dest. A decode failure is a miss.
func GetJSON(c BytesCache, key string, dest interface{}) (bool, error) {
	if c == nil {
		return false, nil
	}
	b, ok, err := c.GetBytes(key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(b, dest); err != nil {
		return false, nil
	}
	return true, nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(c BytesCache, key string, v interface{}, ttl time.Duration) error {
	if c == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.SetBytes(key, b, ttl)
}

// Prefixed namespaces every key of an underlying cache.
type Prefixed struct {
	Prefix string
	Inner  BytesCache
}

func (p Prefixed) GetBytes(key string) ([]byte, bool, error) {
	return p.Inner.GetBytes(p.Prefix + key)
}

func (p Prefixed) SetBytes(key string, value []byte, ttl time.Duration) error {
	return p.Inner.SetBytes(p.Prefix+key, value, ttl)
}
