// Package cache provides the block caches backing blobstore read-through
// caching. Values are immutable byte blocks keyed by blob name and block
// index.
package cache

import "context"

// Key identifies one cached block of one blob.
type Key struct {
	// Path identifies the source blob.
	Path string
	// Block is the block index within the blob.
	Block uint64
}

// BlockCache is a byte-oriented cache for immutable blocks. Returned slices
// must be treated as read-only.
type BlockCache interface {
	// Get returns a cached block, ok=false if missing.
	Get(ctx context.Context, key Key) (b []byte, ok bool)
	// Set caches a block. The caller must not mutate b afterwards.
	Set(ctx context.Context, key Key, b []byte)
	// Invalidate removes entries matching the predicate.
	Invalidate(predicate func(key Key) bool)
	// Stats returns hit and miss counters.
	Stats() (hits, misses int64)
	// Close releases resources.
	Close() error
}
