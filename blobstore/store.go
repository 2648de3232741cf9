package blobstore

import (
	"context"
	"errors"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// ErrClosed is returned when reading from or writing to a blob that has
// already been closed.
var ErrClosed = errors.New("blobstore: blob already closed")

// BlobStore is a flat namespace of immutable blobs (datasets, result files).
// Implementations must be safe for concurrent use.
type BlobStore interface {
	// Open opens an existing blob for reading.
	Open(ctx context.Context, name string) (Blob, error)

	// Create starts a streaming write. The blob becomes visible only after
	// the returned writer is closed without error.
	Create(ctx context.Context, name string) (WritableBlob, error)

	// Put writes a small blob in a single call.
	Put(ctx context.Context, name string, data []byte) error

	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the blob names under prefix in lexical order.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to a stored blob.
type Blob interface {
	// ReadAt reads len(p) bytes at offset off. It returns io.EOF when the
	// read extends past the end of the blob, like io.ReaderAt.
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)

	// Size returns the size of the blob in bytes.
	Size() int64

	io.Closer
}

// WritableBlob is a streaming write handle. Data is committed by Close.
type WritableBlob interface {
	io.WriteCloser

	// Sync flushes buffered data where the backend supports it.
	Sync() error
}

// Mappable is an optional interface for Blobs that support zero-copy access
// to their full contents. The slice is valid until the Blob is closed.
type Mappable interface {
	Bytes() ([]byte, error)
}

// ReadAll reads the entire blob into a freshly allocated byte slice.
func ReadAll(ctx context.Context, b Blob) ([]byte, error) {
	if m, ok := b.(Mappable); ok {
		if data, err := m.Bytes(); err == nil {
			out := make([]byte, len(data))
			copy(out, data)
			return out, nil
		}
		// Mapping failed; fall back to ReadAt.
	}

	buf := make([]byte, b.Size())

	total := 0
	for total < len(buf) {
		n, err := b.ReadAt(ctx, buf[total:], int64(total))
		total += n
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		if n == 0 {
			break
		}
	}

	return buf[:total], nil
}

// NewReader adapts a blob to io.Reader for sequential consumers such as
// decompressors and CSV parsers.
func NewReader(ctx context.Context, b Blob) io.Reader {
	return &blobReader{ctx: ctx, blob: b}
}

type blobReader struct {
	ctx  context.Context
	blob Blob
	off  int64
}

func (r *blobReader) Read(p []byte) (int, error) {
	if r.off >= r.blob.Size() {
		return 0, io.EOF
	}

	n, err := r.blob.ReadAt(r.ctx, p, r.off)
	r.off += int64(n)

	return n, err
}
