package cache

import (
	"context"
	"encoding/json"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const (
	memoryDefaultTTL      = 5 * time.Minute
	memoryCleanupInterval = 10 * time.Minute
)

// Memory is a process-local Cache. Values are stored as their JSON encoding
// so Get decodes into caller-owned values, matching the Redis backend.
type Memory struct {
	c *gocache.Cache
}

var _ Cache = (*Memory)(nil)

func NewMemory() *Memory {
	return NewMemoryWithCleanup(memoryDefaultTTL, memoryCleanupInterval)
}

// NewMemoryWithCleanup purges expired entries every cleanup interval.
// A non-positive interval disables the janitor.
func NewMemoryWithCleanup(defaultTTL, cleanup time.Duration) *Memory {
	return &Memory{c: gocache.New(defaultTTL, cleanup)}
}

func (m *Memory) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return false, nil
	}
	data, ok := v.([]byte)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetWithTTL stores value for ttl. A non-positive ttl uses the default.
func (m *Memory) SetWithTTL(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	m.c.Set(key, data, ttl)
	return nil
}

func (m *Memory) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		m.c.Delete(k)
	}
	return nil
}

// Len counts held entries, including expired ones not yet purged.
func (m *Memory) Len() int {
	return m.c.ItemCount()
}
