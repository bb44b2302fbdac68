package devicestore

import (
	"context"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryKV keeps values in process memory. Entries never expire; it backs
// tests and single-instance deployments without Redis.
type MemoryKV struct {
	c *gocache.Cache
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{c: gocache.New(gocache.NoExpiration, 0)}
}

func (m *MemoryKV) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return "", false, nil
	}
	s, _ := v.(string)
	return s, true, nil
}

func (m *MemoryKV) Set(_ context.Context, key, value string) error {
	m.c.Set(key, value, gocache.NoExpiration)
	return nil
}

func (m *MemoryKV) Remove(_ context.Context, key string) error {
	m.c.Delete(key)
	return nil
}
