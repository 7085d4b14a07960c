package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Provider.Get when the key is absent.
var ErrNotFound = errors.New("key not found")

// Provider is a raw key-value backing store. Values are opaque JSON documents.
// Implementations must be safe for concurrent use; none offers multi-key
// transactions.
type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Items
	Get(ctx context.Context, key string) ([]byte, error)
	GetAll(ctx context.Context) (map[string][]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, keys ...string) error
	Clear(ctx context.Context) error

	// Utils
	GetConfigPath() string
}
