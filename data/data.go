package data

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hupe1980/treesearch"
	"github.com/hupe1980/treesearch/blobstore"
	miniostore "github.com/hupe1980/treesearch/blobstore/minio"
	s3store "github.com/hupe1980/treesearch/blobstore/s3"
	"github.com/hupe1980/treesearch/internal/mmap"
	"github.com/hupe1980/treesearch/matrix"
	"github.com/klauspost/compress/gzip"
	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type format int

const (
	formatCSV format = iota
	formatTSV
	formatTXT
	formatBin
)

func (f format) String() string {
	switch f {
	case formatCSV:
		return "csv"
	case formatTSV:
		return "tsv"
	case formatTXT:
		return "txt"
	case formatBin:
		return "bin"
	default:
		return "unknown"
	}
}

// Options configure Load and Save.
type Options struct {
	// Store overrides URL resolution: the path, stripped of any scheme and
	// bucket, is used as the blob name in this store. Required for mem://
	// paths.
	Store blobstore.BlobStore

	// Codec selects the payload compression Save uses for .bin files.
	Codec Codec
}

// Option mutates Options.
type Option func(*Options)

// WithStore routes Load and Save through an explicit blob store instead of
// resolving the path.
func WithStore(store blobstore.BlobStore) Option {
	return func(o *Options) {
		o.Store = store
	}
}

// WithCodec sets the binary payload compression for Save.
func WithCodec(codec Codec) Option {
	return func(o *Options) {
		o.Codec = codec
	}
}

// Load reads a matrix from a file path or URL. The format is chosen by
// extension: .csv, .tsv, .txt (whitespace-delimited), .bin, each optionally
// wrapped in .gz. Supported URL schemes are s3://bucket/key,
// minio://bucket/key and mem://name; everything else is a local path.
func Load(ctx context.Context, path string, optFns ...Option) (*matrix.Dense, error) {
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}

	f, gzipped, err := detectFormat(path)
	if err != nil {
		return nil, err
	}

	store, name, err := resolve(ctx, path, opts)
	if err != nil {
		return nil, err
	}

	blob, err := store.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("data: open %s: %w", path, err)
	}
	defer blob.Close()

	if f == formatBin && !gzipped {
		return loadBinaryBlob(ctx, blob)
	}

	var r io.Reader = blobstore.NewReader(ctx, blob)

	if gzipped {
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("data: open gzip %s: %w", path, err)
		}
		defer zr.Close()

		r = zr
	}

	if f == formatBin {
		raw, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("data: read %s: %w", path, err)
		}

		return decodeBinary(raw)
	}

	return decodeText(r, f, path)
}

// loadBinaryBlob reads an uncompressed-container binary blob. Memory-mapped
// blobs get a sequential-access hint so the kernel reads ahead during the
// single decode pass.
func loadBinaryBlob(ctx context.Context, blob blobstore.Blob) (*matrix.Dense, error) {
	if a, ok := blob.(interface {
		Advise(pattern mmap.AccessPattern) error
	}); ok {
		_ = a.Advise(mmap.AccessSequential)
	}

	raw, err := blobstore.ReadAll(ctx, blob)
	if err != nil {
		return nil, err
	}

	return decodeBinary(raw)
}

// Save writes a matrix to a file path or URL, dispatching on extension like
// Load. The blob is committed atomically: a failed save never leaves a
// partial file behind.
func Save(ctx context.Context, path string, m *matrix.Dense, optFns ...Option) error {
	if m == nil {
		return &treesearch.ParameterError{Name: "m", Reason: "must not be nil"}
	}

	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}

	f, gzipped, err := detectFormat(path)
	if err != nil {
		return err
	}

	store, name, err := resolve(ctx, path, opts)
	if err != nil {
		return err
	}

	var buf bytes.Buffer

	var w io.Writer = &buf

	var zw *gzip.Writer
	if gzipped {
		zw = gzip.NewWriter(w)
		w = zw
	}

	if f == formatBin {
		raw, err := encodeBinary(m, opts.Codec)
		if err != nil {
			return err
		}

		if _, err := w.Write(raw); err != nil {
			return err
		}
	} else if err := encodeText(w, m, f); err != nil {
		return err
	}

	if zw != nil {
		if err := zw.Close(); err != nil {
			return err
		}
	}

	if err := store.Put(ctx, name, buf.Bytes()); err != nil {
		return fmt.Errorf("data: save %s: %w", path, err)
	}

	return nil
}

// detectFormat maps a path to its format and whether it is gzip-wrapped.
// Extensions are case-insensitive.
func detectFormat(path string) (format, bool, error) {
	base := path

	gzipped := false
	if strings.EqualFold(filepath.Ext(base), ".gz") {
		gzipped = true
		base = base[:len(base)-len(".gz")]
	}

	switch strings.ToLower(filepath.Ext(base)) {
	case ".csv":
		return formatCSV, gzipped, nil
	case ".tsv":
		return formatTSV, gzipped, nil
	case ".txt":
		return formatTXT, gzipped, nil
	case ".bin":
		return formatBin, gzipped, nil
	default:
		return 0, false, fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(base))
	}
}

// resolve maps a path or URL to a blob store and the blob name within it.
func resolve(ctx context.Context, path string, opts Options) (blobstore.BlobStore, string, error) {
	scheme, rest, found := strings.Cut(path, "://")
	if !found {
		if opts.Store != nil {
			return opts.Store, filepath.ToSlash(path), nil
		}

		return blobstore.NewLocalStore(filepath.Dir(path)), filepath.Base(path), nil
	}

	switch scheme {
	case "mem":
		if opts.Store == nil {
			return nil, "", &treesearch.ParameterError{Name: "path", Reason: "mem:// URLs need WithStore"}
		}

		return opts.Store, rest, nil

	case "s3":
		bucket, key, ok := strings.Cut(rest, "/")
		if !ok || bucket == "" || key == "" {
			return nil, "", &treesearch.ParameterError{Name: "path", Reason: "s3:// URLs must look like s3://bucket/key"}
		}

		if opts.Store != nil {
			return opts.Store, key, nil
		}

		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, "", fmt.Errorf("data: load aws config: %w", err)
		}

		return s3store.NewStore(awss3.NewFromConfig(cfg), bucket, ""), key, nil

	case "minio":
		bucket, key, ok := strings.Cut(rest, "/")
		if !ok || bucket == "" || key == "" {
			return nil, "", &treesearch.ParameterError{Name: "path", Reason: "minio:// URLs must look like minio://bucket/key"}
		}

		if opts.Store != nil {
			return opts.Store, key, nil
		}

		endpoint := os.Getenv("MINIO_ENDPOINT")
		if endpoint == "" {
			return nil, "", &treesearch.ParameterError{Name: "path", Reason: "minio:// URLs need MINIO_ENDPOINT or WithStore"}
		}

		client, err := miniogo.New(endpoint, &miniogo.Options{
			Creds:  credentials.NewEnvMinio(),
			Secure: os.Getenv("MINIO_SECURE") == "true",
		})
		if err != nil {
			return nil, "", fmt.Errorf("data: minio client: %w", err)
		}

		return miniostore.NewStore(client, bucket, ""), key, nil

	default:
		return nil, "", &treesearch.ParameterError{Name: "path", Reason: fmt.Sprintf("unknown scheme %q", scheme)}
	}
}
