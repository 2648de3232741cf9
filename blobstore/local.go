package blobstore

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/hupe1980/treesearch/internal/mmap"
)

// LocalStore stores blobs as files under a root directory. Reads are
// memory-mapped, which is the cheapest way to hand large datasets to the
// parsers without double-buffering. Writes go through a temp file and are
// renamed into place on Close, so readers never observe partial blobs.
type LocalStore struct {
	root string
}

// NewLocalStore creates a LocalStore rooted at the given directory.
func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

func (s *LocalStore) path(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}

// Open memory-maps the blob for reading.
func (s *LocalStore) Open(_ context.Context, name string) (Blob, error) {
	m, err := mmap.Open(s.path(name))
	if err != nil {
		return nil, err
	}

	return &localBlob{m: m}, nil
}

// Create opens a temp file next to the target. Close renames it into place.
func (s *LocalStore) Create(_ context.Context, name string) (WritableBlob, error) {
	target := s.path(name)

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, err
	}

	f, err := os.CreateTemp(filepath.Dir(target), ".tmp-*")
	if err != nil {
		return nil, err
	}

	return &localWriter{f: f, target: target}, nil
}

// Put writes a blob atomically via temp file and rename.
func (s *LocalStore) Put(ctx context.Context, name string, data []byte) error {
	w, err := s.Create(ctx, name)
	if err != nil {
		return err
	}

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return err
	}

	return w.Close()
}

// Delete removes a blob. Missing blobs are ignored.
func (s *LocalStore) Delete(_ context.Context, name string) error {
	err := os.Remove(s.path(name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return nil
}

// List walks the root directory and returns relative file paths with the
// given prefix in lexical order.
func (s *LocalStore) List(_ context.Context, prefix string) ([]string, error) {
	var names []string

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil // Empty root.
			}
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}

		name := filepath.ToSlash(rel)
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(names)

	return names, nil
}

type localBlob struct {
	m *mmap.Mapping
}

func (b *localBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	n, err := b.m.ReadAt(p, off)
	if errors.Is(err, mmap.ErrClosed) {
		return n, ErrClosed
	}

	return n, err
}

func (b *localBlob) Size() int64 {
	return int64(b.m.Size())
}

func (b *localBlob) Close() error {
	return b.m.Close()
}

// Bytes exposes the mapping for zero-copy consumers.
func (b *localBlob) Bytes() ([]byte, error) {
	data := b.m.Bytes()
	if data == nil && b.m.Size() > 0 {
		return nil, ErrClosed
	}

	return data, nil
}

// Advise passes an access-pattern hint to the kernel for the mapped region.
func (b *localBlob) Advise(pattern mmap.AccessPattern) error {
	err := b.m.Advise(pattern)
	if errors.Is(err, mmap.ErrClosed) {
		return ErrClosed
	}

	return err
}

type localWriter struct {
	f      *os.File
	target string
	closed atomic.Bool
}

func (w *localWriter) Write(p []byte) (int, error) {
	if w.closed.Load() {
		return 0, ErrClosed
	}

	return w.f.Write(p)
}

func (w *localWriter) Sync() error {
	if w.closed.Load() {
		return ErrClosed
	}

	return w.f.Sync()
}

func (w *localWriter) Close() error {
	if !w.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}

	tmp := w.f.Name()

	if err := w.f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	if err := os.Rename(tmp, w.target); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	return nil
}
