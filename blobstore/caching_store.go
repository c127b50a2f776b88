package blobstore

import (
	"context"
	"errors"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/dataview-go/dataview/internal/cache"
)

// fetchConcurrency bounds parallel backend reads per ReadAt so a cold read
// of a large range cannot exhaust connections.
const fetchConcurrency = 16

// defaultCacheCapacity is the byte budget of the cache built when the
// caller passes none.
const defaultCacheCapacity = 64 << 20

// CachingStore wraps a Store and adds read-through block caching. Blobs
// are assumed immutable while open; Put and Delete invalidate any cached
// blocks for the written name.
type CachingStore struct {
	inner     Store
	cache     cache.BlockCache
	blockSize int64
}

// NewCachingStore creates a new CachingStore.
// A nil cache gets a sharded LRU with a 64 MiB budget; concurrent block
// fills spread across its shards. blockSize defaults to 4KB if <= 0.
func NewCachingStore(inner Store, bc cache.BlockCache, blockSize int64) *CachingStore {
	if bc == nil {
		bc = cache.NewSharded(defaultCacheCapacity, nil)
	}
	if blockSize <= 0 {
		blockSize = 4096
	}
	return &CachingStore{
		inner:     inner,
		cache:     bc,
		blockSize: blockSize,
	}
}

func (s *CachingStore) Open(ctx context.Context, name string) (Blob, error) {
	b, err := s.inner.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	return &CachingBlob{
		inner:     b,
		cache:     s.cache,
		name:      name,
		blockSize: s.blockSize,
	}, nil
}

// Create passes through. Writes are not cached.
func (s *CachingStore) Create(ctx context.Context, name string) (WritableBlob, error) {
	return s.inner.Create(ctx, name)
}

func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	s.invalidate(name)
	return s.inner.Put(ctx, name, data)
}

func (s *CachingStore) Delete(ctx context.Context, name string) error {
	s.invalidate(name)
	return s.inner.Delete(ctx, name)
}

func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

func (s *CachingStore) invalidate(name string) {
	s.cache.Invalidate(func(key cache.Key) bool {
		return key.Path == name
	})
}

// CachingBlob serves reads block-wise from the cache and fetches missing
// blocks from the inner blob.
type CachingBlob struct {
	inner     Blob
	cache     cache.BlockCache
	name      string
	blockSize int64
}

func (b *CachingBlob) Close() error {
	return b.inner.Close()
}

func (b *CachingBlob) Size() int64 {
	return b.inner.Size()
}

func (b *CachingBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	startBlock := off / b.blockSize
	endBlock := (off + int64(len(p)) - 1) / b.blockSize

	if err := b.fillCache(ctx, startBlock, endBlock); err != nil {
		return 0, err
	}

	totalRead := 0
	for blk := startBlock; blk <= endBlock; blk++ {
		blkStart := blk * b.blockSize

		// Intersect [blkStart, blkStart+blockSize) with [off, off+len(p)).
		intersectStart := max(blkStart, off)
		intersectEnd := min(blkStart+b.blockSize, off+int64(len(p)))
		if intersectEnd <= intersectStart {
			continue
		}

		blockData, err := b.fetchBlock(ctx, blk)
		if err != nil {
			return totalRead, err
		}

		srcOffset := intersectStart - blkStart
		copySize := intersectEnd - intersectStart
		// The last block of the blob may be short.
		if srcOffset+copySize > int64(len(blockData)) {
			copySize = int64(len(blockData)) - srcOffset
		}
		if copySize <= 0 {
			break
		}

		dstOffset := intersectStart - off
		totalRead += copy(p[dstOffset:dstOffset+copySize], blockData[srcOffset:])
	}

	if totalRead < len(p) {
		return totalRead, io.EOF
	}
	return totalRead, nil
}

type blockRun struct {
	start, count int64
}

// fillCache loads the uncached blocks in [startBlock, endBlock] by fetching
// contiguous runs of missing blocks, one backend request per run, in
// parallel.
func (b *CachingBlob) fillCache(ctx context.Context, startBlock, endBlock int64) error {
	var missing []blockRun
	run := blockRun{start: -1}
	for blk := startBlock; blk <= endBlock; blk++ {
		key := cache.Key{Path: b.name, Block: uint64(blk)}
		if _, ok := b.cache.Get(ctx, key); ok {
			if run.start != -1 {
				missing = append(missing, run)
				run = blockRun{start: -1}
			}
			continue
		}
		if run.start == -1 {
			run = blockRun{start: blk, count: 1}
		} else {
			run.count++
		}
	}
	if run.start != -1 {
		missing = append(missing, run)
	}
	if len(missing) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for _, run := range missing {
		g.Go(func() error {
			return b.fetchRun(gctx, run)
		})
	}
	return g.Wait()
}

// fetchRun reads one contiguous run of blocks from the inner blob and
// splits it into cache entries.
func (b *CachingBlob) fetchRun(ctx context.Context, run blockRun) error {
	byteStart := run.start * b.blockSize
	byteSize := run.count * b.blockSize

	size := b.Size()
	if byteStart >= size {
		return nil
	}
	if byteStart+byteSize > size {
		byteSize = size - byteStart
	}

	buf := make([]byte, byteSize)
	n, err := b.inner.ReadAt(ctx, buf, byteStart)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	if n == 0 {
		return nil
	}
	data := buf[:n]

	for i := int64(0); i < run.count; i++ {
		blockStart := i * b.blockSize
		if blockStart >= int64(len(data)) {
			break
		}
		blockEnd := min(blockStart+b.blockSize, int64(len(data)))

		// Copy each block out so the cache does not pin the run buffer.
		block := make([]byte, blockEnd-blockStart)
		copy(block, data[blockStart:blockEnd])

		key := cache.Key{Path: b.name, Block: uint64(run.start + i)}
		b.cache.Set(ctx, key, block)
	}
	return nil
}

// fetchBlock returns one block, reading through to the inner blob on a
// cache miss.
func (b *CachingBlob) fetchBlock(ctx context.Context, blk int64) ([]byte, error) {
	key := cache.Key{Path: b.name, Block: uint64(blk)}
	if data, ok := b.cache.Get(ctx, key); ok {
		return data, nil
	}

	buf := make([]byte, b.blockSize)
	n, err := b.inner.ReadAt(ctx, buf, blk*b.blockSize)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	data := buf[:n]
	if n > 0 {
		b.cache.Set(ctx, key, data)
	}
	return data, nil
}

// ReadRange serves the range through the block cache.
//
// TODO: bypass the cache for ranges larger than the cache capacity.
func (b *CachingBlob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	if off >= b.Size() {
		return nil, io.EOF
	}
	return io.NopCloser(&contextSectionReader{blob: b, ctx: ctx, off: off, limit: off + length}), nil
}

// contextSectionReader adapts the context-aware ReadAt to io.Reader.
type contextSectionReader struct {
	blob  *CachingBlob
	ctx   context.Context
	off   int64
	limit int64
}

func (r *contextSectionReader) Read(p []byte) (n int, err error) {
	if r.off >= r.limit {
		return 0, io.EOF
	}
	if remaining := r.limit - r.off; int64(len(p)) > remaining {
		p = p[:remaining]
	}
	n, err = r.blob.ReadAt(r.ctx, p, r.off)
	r.off += int64(n)
	return
}
