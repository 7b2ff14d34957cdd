// Package metadata persists small named values (credential, cached profile,
// sync timestamps) in the local SQLite file.
package metadata

import (
	"context"
)

// Repository is a durable key/value table. Get returns (nil, nil) for a
// missing key and a non-nil empty slice for a key stored with no bytes.
// Delete and Clear are idempotent.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}
