package blobstore

import (
	"context"
	"errors"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/imagevault/internal/blockcache"
)

// fillConcurrency bounds parallel backend reads per blob to avoid FD
// exhaustion and backend rate limits.
const fillConcurrency = 16

// CachingStore wraps a BlobStore and adds block-level read caching.
// Writes pass through and invalidate the cached blocks of the blob.
//
// Worth stacking on the remote backends, where every read is a network
// round trip. The local backends read fast enough without it.
type CachingStore struct {
	inner     BlobStore
	cache     blockcache.BlockCache
	blockSize int64
}

// NewCachingStore creates a new CachingStore.
// blockSize defaults to 4KB if <= 0.
func NewCachingStore(inner BlobStore, cache blockcache.BlockCache, blockSize int64) *CachingStore {
	if blockSize <= 0 {
		blockSize = 4096
	}
	return &CachingStore{
		inner:     inner,
		cache:     cache,
		blockSize: blockSize,
	}
}

// Open opens a blob whose reads go through the block cache.
func (s *CachingStore) Open(ctx context.Context, name string) (Blob, error) {
	b, err := s.inner.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	return &cachingBlob{
		inner:     b,
		cache:     s.cache,
		name:      name,
		blockSize: s.blockSize,
	}, nil
}

// Put writes through and drops the blob's cached blocks.
func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	s.cache.Invalidate(func(key blockcache.Key) bool {
		return key.Name == name
	})
	return s.inner.Put(ctx, name, data)
}

// Delete removes the blob and drops its cached blocks.
func (s *CachingStore) Delete(ctx context.Context, name string) error {
	s.cache.Invalidate(func(key blockcache.Key) bool {
		return key.Name == name
	})
	return s.inner.Delete(ctx, name)
}

// List delegates to the inner store.
func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

// cachingBlob serves ReadAt from cached blocks, fetching missing runs of
// blocks from the inner blob in coalesced backend reads.
type cachingBlob struct {
	inner     Blob
	cache     blockcache.BlockCache
	name      string
	blockSize int64
}

func (b *cachingBlob) Close() error {
	return b.inner.Close()
}

func (b *cachingBlob) Size() int64 {
	return b.inner.Size()
}

func (b *cachingBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
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

		// Intersection of this block with the requested range.
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
		copySize := int(intersectEnd - intersectStart)

		// The last block of a blob may be short.
		if srcOffset+int64(copySize) > int64(len(blockData)) {
			copySize = len(blockData) - int(srcOffset)
		}

		if copySize > 0 {
			dstOffset := intersectStart - off
			totalRead += copy(p[dstOffset:dstOffset+int64(copySize)], blockData[srcOffset:])
		}
	}

	if totalRead < len(p) {
		return totalRead, io.EOF
	}

	return totalRead, nil
}

type blockRun struct {
	start, count int64
}

// fillCache loads the missing blocks of the given range into the cache,
// fetching contiguous runs of missing blocks in single backend reads.
func (b *cachingBlob) fillCache(ctx context.Context, startBlock, endBlock int64) error {
	var missing []blockRun

	run := blockRun{start: -1}
	for blk := startBlock; blk <= endBlock; blk++ {
		if _, ok := b.cache.Get(blockcache.Key{Name: b.name, Block: blk}); ok {
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
	g.SetLimit(fillConcurrency)

	for _, run := range missing {
		g.Go(func() error {
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
			n, err := b.inner.ReadAt(gctx, buf, byteStart)
			if err != nil && !errors.Is(err, io.EOF) {
				return err
			}
			if n == 0 {
				return nil
			}

			valid := buf[:n]

			for i := int64(0); i < run.count; i++ {
				blockStart := i * b.blockSize
				if blockStart >= int64(len(valid)) {
					break
				}
				blockEnd := min(blockStart+b.blockSize, int64(len(valid)))

				// Copy so a short tail block does not pin the run buffer.
				block := make([]byte, blockEnd-blockStart)
				copy(block, valid[blockStart:blockEnd])

				b.cache.Set(blockcache.Key{Name: b.name, Block: run.start + i}, block)
			}

			return nil
		})
	}

	return g.Wait()
}

func (b *cachingBlob) fetchBlock(ctx context.Context, blk int64) ([]byte, error) {
	key := blockcache.Key{Name: b.name, Block: blk}

	if data, ok := b.cache.Get(key); ok {
		return data, nil
	}

	buf := make([]byte, b.blockSize)
	n, err := b.inner.ReadAt(ctx, buf, blk*b.blockSize)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	valid := buf[:n]
	if n > 0 {
		b.cache.Set(key, valid)
	}

	return valid, nil
}
