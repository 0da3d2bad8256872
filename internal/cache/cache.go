// Package cache provides the TTL result cache keyed by user and endpoint
package cache

import (
	"context"
	"strings"
)

// Cache is the result cache seam, backends degrade to miss on failure
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, val []byte)
	Delete(ctx context.Context, key string)
	Len() int
}

// Key builds the canonical cache key for a user and endpoint signature
func Key(username, signature string) string {
	return strings.ToLower(username) + "|" + signature
}

type bypassKey struct{}

// WithBypass marks the context so cached reads are skipped
// writers still refresh the entry, no_cache is a force refresh
func WithBypass(ctx context.Context) context.Context {
	return context.WithValue(ctx, bypassKey{}, true)
}

// Bypassed reports whether the caller asked to skip cached reads
func Bypassed(ctx context.Context) bool {
	v, _ := ctx.Value(bypassKey{}).(bool)
	return v
}

// None is a Cache that stores nothing, every lookup misses
type None struct{}

// Get implements Cache
func (None) Get(context.Context, string) ([]byte, bool) { return nil, false }

// Set implements Cache
func (None) Set(context.Context, string, []byte) {}

// Delete implements Cache
func (None) Delete(context.Context, string) {}

// Len implements Cache
func (None) Len() int { return 0 }
