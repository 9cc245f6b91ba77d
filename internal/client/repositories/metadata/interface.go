// Package metadata is the durable key/value store behind the client session:
// a single SQLite table of string keys and string values.
package metadata

import (
	"context"
)

type Repository interface {
	// Get returns the value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string) error
	// Delete removes the given keys; missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
	List(ctx context.Context) (map[string]string, error)
	Clear(ctx context.Context) error
}
