// Package storage defines the key-value repository used by the record stores.
//
// Each collection is persisted as a single JSON blob under one key, e.g. the
// compliance directives under "complianceDirectives" and each role's work
// cards under "workCards_<role>". Writes replace the whole blob; the last
// writer wins.
package storage

import "context"

// KV is a key-value repository holding full JSON-serialized collections.
type KV interface {
	// Get returns the payload stored under key. The boolean reports whether
	// the key exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Put stores the payload under key, replacing any previous value.
	Put(ctx context.Context, key string, payload []byte) error

	// Delete removes the key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys returns all stored keys.
	Keys(ctx context.Context) ([]string, error)
}
