package blobstore

import (
	"context"
	"errors"
	"io"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"
)

const (
	defaultBlockSize = 64 * 1024
	defaultMaxBlocks = 1024

	// fetchConcurrency bounds parallel backend reads during a cache fill,
	// to avoid FD exhaustion and remote rate limits.
	fetchConcurrency = 16
)

// CachingStore wraps a BlobStore with an LRU block cache. It pays off for
// remote backends (S3, MinIO) where repeated partial reads of the same
// dataset would otherwise hit the network every time.
type CachingStore struct {
	inner     BlobStore
	blocks    *lru.Cache[blockKey, []byte]
	blockSize int64
}

// blockKey addresses one cached block of one blob.
type blockKey struct {
	name  string
	index int64
}

// NewCachingStore creates a CachingStore holding at most maxBlocks blocks of
// blockSize bytes each. Non-positive arguments select the defaults
// (1024 blocks of 64KB).
func NewCachingStore(inner BlobStore, maxBlocks int, blockSize int64) (*CachingStore, error) {
	if maxBlocks <= 0 {
		maxBlocks = defaultMaxBlocks
	}

	if blockSize <= 0 {
		blockSize = defaultBlockSize
	}

	blocks, err := lru.New[blockKey, []byte](maxBlocks)
	if err != nil {
		return nil, err
	}

	return &CachingStore{
		inner:     inner,
		blocks:    blocks,
		blockSize: blockSize,
	}, nil
}

// Open opens a blob whose reads go through the block cache.
func (s *CachingStore) Open(ctx context.Context, name string) (Blob, error) {
	b, err := s.inner.Open(ctx, name)
	if err != nil {
		return nil, err
	}

	return &cachingBlob{
		inner: b,
		store: s,
		name:  name,
	}, nil
}

// Create passes through to the inner store. Cached blocks for the name are
// dropped when the writer commits, so overwrites never serve stale data.
func (s *CachingStore) Create(ctx context.Context, name string) (WritableBlob, error) {
	w, err := s.inner.Create(ctx, name)
	if err != nil {
		return nil, err
	}

	return &invalidatingWriter{WritableBlob: w, store: s, name: name}, nil
}

// Put invalidates cached blocks for the name and writes through.
func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	s.invalidate(name)
	return s.inner.Put(ctx, name, data)
}

// Delete invalidates cached blocks for the name and deletes through.
func (s *CachingStore) Delete(ctx context.Context, name string) error {
	s.invalidate(name)
	return s.inner.Delete(ctx, name)
}

// List passes through to the inner store.
func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

func (s *CachingStore) invalidate(name string) {
	for _, key := range s.blocks.Keys() {
		if key.name == name {
			s.blocks.Remove(key)
		}
	}
}

type invalidatingWriter struct {
	WritableBlob
	store *CachingStore
	name  string
}

func (w *invalidatingWriter) Close() error {
	err := w.WritableBlob.Close()
	w.store.invalidate(w.name)

	return err
}

type cachingBlob struct {
	inner Blob
	store *CachingStore
	name  string
}

func (b *cachingBlob) Size() int64 {
	return b.inner.Size()
}

func (b *cachingBlob) Close() error {
	return b.inner.Close()
}

func (b *cachingBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	if off < 0 || off >= b.inner.Size() {
		return 0, io.EOF
	}

	blockSize := b.store.blockSize
	first := off / blockSize
	last := (off + int64(len(p)) - 1) / blockSize

	if err := b.fill(ctx, first, last); err != nil {
		return 0, err
	}

	total := 0

	for blk := first; blk <= last; blk++ {
		data, err := b.block(ctx, blk)
		if err != nil {
			return total, err
		}

		blkStart := blk * blockSize

		// Intersection of this block with the requested range.
		lo := max(blkStart, off)
		hi := min(blkStart+blockSize, off+int64(len(p)))

		src := lo - blkStart
		if src >= int64(len(data)) {
			break // Past the end of the blob.
		}

		if hi-blkStart > int64(len(data)) {
			hi = blkStart + int64(len(data))
		}

		total += copy(p[lo-off:hi-off], data[src:hi-blkStart])
	}

	if total < len(p) {
		return total, io.EOF
	}

	return total, nil
}

// fill loads the missing blocks in [first, last] into the cache, coalescing
// contiguous runs of misses into single backend reads.
func (b *cachingBlob) fill(ctx context.Context, first, last int64) error {
	type run struct {
		start, count int64
	}

	var missing []run

	runStart, runCount := int64(-1), int64(0)

	for blk := first; blk <= last; blk++ {
		if b.store.blocks.Contains(blockKey{name: b.name, index: blk}) {
			if runStart != -1 {
				missing = append(missing, run{start: runStart, count: runCount})
				runStart, runCount = -1, 0
			}
			continue
		}

		if runStart == -1 {
			runStart, runCount = blk, 1
		} else {
			runCount++
		}
	}

	if runStart != -1 {
		missing = append(missing, run{start: runStart, count: runCount})
	}

	if len(missing) == 0 {
		return nil
	}

	blockSize := b.store.blockSize

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)

	for _, r := range missing {
		r := r
		g.Go(func() error {
			start := r.start * blockSize
			size := r.count * blockSize

			if total := b.inner.Size(); start+size > total {
				size = total - start
			}
			if size <= 0 {
				return nil
			}

			buf := make([]byte, size)

			n, err := b.inner.ReadAt(gctx, buf, start)
			if err != nil && !errors.Is(err, io.EOF) {
				return err
			}

			// Re-slice per block so the cache never pins the full run buffer.
			for i := int64(0); i*blockSize < int64(n); i++ {
				lo := i * blockSize
				hi := min(lo+blockSize, int64(n))

				block := make([]byte, hi-lo)
				copy(block, buf[lo:hi])

				b.store.blocks.Add(blockKey{name: b.name, index: r.start + i}, block)
			}

			return nil
		})
	}

	return g.Wait()
}

// block returns one cached block, refetching if it was evicted between fill
// and assembly.
func (b *cachingBlob) block(ctx context.Context, index int64) ([]byte, error) {
	key := blockKey{name: b.name, index: index}

	if data, ok := b.store.blocks.Get(key); ok {
		return data, nil
	}

	buf := make([]byte, b.store.blockSize)

	n, err := b.inner.ReadAt(ctx, buf, index*b.store.blockSize)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	data := buf[:n]
	if n > 0 {
		b.store.blocks.Add(key, data)
	}

	return data, nil
}
