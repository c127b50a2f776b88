package cache

import (
	"context"
	"hash/maphash"

	"github.com/dataview-go/dataview/resource"
)

const numShards = 64

// Sharded distributes entries across 64 LRU shards to reduce lock
// contention under concurrent fills. Capacity is split evenly.
type Sharded struct {
	shards [numShards]*LRU
	seed   maphash.Seed
}

// NewSharded creates a sharded LRU cache with the given total capacity.
func NewSharded(capacity int64, rc *resource.Controller) *Sharded {
	shardCapacity := capacity / numShards
	if shardCapacity < 1 {
		shardCapacity = 1
	}

	s := &Sharded{seed: maphash.MakeSeed()}
	for i := range numShards {
		s.shards[i] = NewLRU(shardCapacity, rc)
	}
	return s
}

func (s *Sharded) shard(key Key) *LRU {
	var h maphash.Hash
	h.SetSeed(s.seed)
	_, _ = h.WriteString(key.Path)

	var buf [8]byte
	for i := range buf {
		buf[i] = byte(key.Block >> (8 * i))
	}
	_, _ = h.Write(buf[:])

	return s.shards[h.Sum64()%numShards]
}

// Get returns a cached block.
func (s *Sharded) Get(ctx context.Context, key Key) ([]byte, bool) {
	return s.shard(key).Get(ctx, key)
}

// Set caches a block.
func (s *Sharded) Set(ctx context.Context, key Key, b []byte) {
	s.shard(key).Set(ctx, key, b)
}

// Invalidate removes entries matching the predicate from all shards.
func (s *Sharded) Invalidate(predicate func(key Key) bool) {
	for _, sh := range s.shards {
		sh.Invalidate(predicate)
	}
}

// Stats sums hit and miss counters across shards.
func (s *Sharded) Stats() (hits, misses int64) {
	for _, sh := range s.shards {
		h, m := sh.Stats()
		hits += h
		misses += m
	}
	return hits, misses
}

// Close releases all shards.
func (s *Sharded) Close() error {
	for _, sh := range s.shards {
		_ = sh.Close()
	}
	return nil
}
