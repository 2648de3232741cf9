package blobstore

import (
	"context"

	"golang.org/x/time/rate"
)

// ThrottledStore caps the read and write throughput of an inner store with a
// shared token bucket. Useful when dataset staging shares bandwidth with a
// latency-sensitive serving path.
type ThrottledStore struct {
	inner   BlobStore
	limiter *rate.Limiter
}

// NewThrottledStore wraps inner with the given limiter. The limiter charges
// one token per byte moved. A nil limiter disables throttling.
func NewThrottledStore(inner BlobStore, limiter *rate.Limiter) *ThrottledStore {
	return &ThrottledStore{
		inner:   inner,
		limiter: limiter,
	}
}

// wait charges n bytes against the limiter, splitting requests larger than
// the burst so WaitN never fails outright on big reads.
func (s *ThrottledStore) wait(ctx context.Context, n int) error {
	if s.limiter == nil || n <= 0 {
		return nil
	}

	burst := s.limiter.Burst()

	for n > 0 {
		chunk := n
		if burst > 0 && chunk > burst {
			chunk = burst
		}

		if err := s.limiter.WaitN(ctx, chunk); err != nil {
			return err
		}

		n -= chunk
	}

	return nil
}

// Open opens a blob whose reads are throttled.
func (s *ThrottledStore) Open(ctx context.Context, name string) (Blob, error) {
	b, err := s.inner.Open(ctx, name)
	if err != nil {
		return nil, err
	}

	return &throttledBlob{inner: b, store: s}, nil
}

// Create starts a write whose chunks are throttled.
func (s *ThrottledStore) Create(ctx context.Context, name string) (WritableBlob, error) {
	w, err := s.inner.Create(ctx, name)
	if err != nil {
		return nil, err
	}

	return &throttledWriter{inner: w, store: s, ctx: ctx}, nil
}

// Put charges the full payload before writing through.
func (s *ThrottledStore) Put(ctx context.Context, name string, data []byte) error {
	if err := s.wait(ctx, len(data)); err != nil {
		return err
	}

	return s.inner.Put(ctx, name, data)
}

// Delete passes through to the inner store.
func (s *ThrottledStore) Delete(ctx context.Context, name string) error {
	return s.inner.Delete(ctx, name)
}

// List passes through to the inner store.
func (s *ThrottledStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

type throttledBlob struct {
	inner Blob
	store *ThrottledStore
}

func (b *throttledBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	// Charge only what can actually be read.
	n := int64(len(p))
	if remaining := b.inner.Size() - off; remaining < n {
		n = remaining
	}

	if err := b.store.wait(ctx, int(n)); err != nil {
		return 0, err
	}

	return b.inner.ReadAt(ctx, p, off)
}

func (b *throttledBlob) Size() int64 {
	return b.inner.Size()
}

func (b *throttledBlob) Close() error {
	return b.inner.Close()
}

type throttledWriter struct {
	inner WritableBlob
	store *ThrottledStore
	ctx   context.Context
}

func (w *throttledWriter) Write(p []byte) (int, error) {
	if err := w.store.wait(w.ctx, len(p)); err != nil {
		return 0, err
	}

	return w.inner.Write(p)
}

func (w *throttledWriter) Sync() error {
	return w.inner.Sync()
}

func (w *throttledWriter) Close() error {
	return w.inner.Close()
}
