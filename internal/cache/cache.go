package cache

import (
	"context"
	"time"
)

// Cache stores serialized read results under short TTLs. Reconciliation
// results are cached by (scope, window) key; writes invalidate the whole
// namespace prefix.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, prefix string) error
}

// Noop is used when no Redis address is configured and in tests that do
// not exercise caching.
type Noop struct{}

func (Noop) Get(_ context.Context, _ string, _ interface{}) (bool, error) {
	return false, nil
}

func (Noop) Set(_ context.Context, _ string, _ interface{}, _ time.Duration) error {
	return nil
}

func (Noop) Invalidate(_ context.Context, _ string) error {
	return nil
}
