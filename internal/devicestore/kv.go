// Package devicestore persists the per-device state of a guest: a generated
// device identifier, an optional phone number and the cached copy of the
// last reserved challenge. It never talks to the remote data store.
package devicestore

import "context"

// KeyValue is the device-local persistent key space: string keys, string
// values, scoped to one device profile.
type KeyValue interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

type prefixedKV struct {
	inner  KeyValue
	prefix string
}

// WithPrefix scopes every key of kv under prefix, so several device
// profiles can share one backend.
func WithPrefix(kv KeyValue, prefix string) KeyValue {
	return &prefixedKV{inner: kv, prefix: prefix}
}

func (p *prefixedKV) Get(ctx context.Context, key string) (string, bool, error) {
	return p.inner.Get(ctx, p.prefix+key)
}

func (p *prefixedKV) Set(ctx context.Context, key, value string) error {
	return p.inner.Set(ctx, p.prefix+key, value)
}

func (p *prefixedKV) Remove(ctx context.Context, key string) error {
	return p.inner.Remove(ctx, p.prefix+key)
}
