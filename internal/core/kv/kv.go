// Package kv defines the persistent key-value port used for board storage.
package kv

import (
	"context"
	"errors"
)

// ErrNotFound is wrapped by Get when a key does not exist.
var ErrNotFound = errors.New("kv: key not found")

// KV is the interface for a persistent key-value store.
// Keys are strings, values are JSON-serializable.
type KV interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
	Has(ctx context.Context, key string) (bool, error)
	// ListKeys returns the keys starting with prefix in sorted order.
	ListKeys(ctx context.Context, prefix string) ([]string, error)
}
