package s3

import (
	"bytes"
	"context"
	"encoding/base64"
	"hash/crc32"
	"io"
	"sync"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/hupe1980/treesearch/blobstore"
)

// UploadConfig tunes how Create and Put move data to S3.
type UploadConfig struct {
	// PartSize is the part size for multipart uploads.
	// Default: 8MB (above the SDK default of 5MB, fewer round trips for
	// large datasets).
	PartSize int64

	// Concurrency is the number of parts uploaded in parallel.
	// Default: 5 (the SDK default).
	Concurrency int

	// EnableChecksum turns on CRC32C integrity validation.
	// Default: true.
	EnableChecksum bool

	// LeavePartsOnError keeps uploaded parts around after a failed
	// multipart upload instead of aborting it.
	// Default: false.
	LeavePartsOnError bool
}

// DefaultUploadConfig returns the default upload settings.
func DefaultUploadConfig() UploadConfig {
	return UploadConfig{
		PartSize:          8 * 1024 * 1024,
		Concurrency:       5,
		EnableChecksum:    true,
		LeavePartsOnError: false,
	}
}

func newUploader(client Client, cfg UploadConfig) *manager.Uploader {
	return manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = cfg.PartSize
		u.Concurrency = cfg.Concurrency
		u.LeavePartsOnError = cfg.LeavePartsOnError
	})
}

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// checksumCRC32C computes the CRC32C of data in the format S3 expects:
// base64-encoded big-endian bytes.
func checksumCRC32C(data []byte) string {
	sum := crc32.Checksum(data, castagnoli)

	return base64.StdEncoding.EncodeToString([]byte{
		byte(sum >> 24), byte(sum >> 16), byte(sum >> 8), byte(sum),
	})
}

// putObject uploads a small blob in one request.
func putObject(ctx context.Context, client Client, bucket, key string, data []byte, checksum bool) error {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}

	if checksum {
		input.ChecksumCRC32C = aws.String(checksumCRC32C(data))
	}

	_, err := client.PutObject(ctx, input)

	return err
}

// streamingBlob pipes written data into a background multipart upload. The
// upload is only finalized when Close is called; Close reports the upload
// result.
type streamingBlob struct {
	pw *io.PipeWriter

	done     chan error
	closed   atomic.Bool
	closeErr error
	closeMu  sync.Mutex
}

func newStreamingBlob(ctx context.Context, uploader *manager.Uploader, bucket, key string, checksum bool) *streamingBlob {
	pr, pw := io.Pipe()

	b := &streamingBlob{
		pw:   pw,
		done: make(chan error, 1),
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   pr,
	}

	if checksum {
		input.ChecksumAlgorithm = types.ChecksumAlgorithmCrc32c
	}

	go func() {
		_, err := uploader.Upload(ctx, input)

		// Unblock any writer stuck on a full pipe.
		_ = pr.CloseWithError(err)

		b.done <- err
	}()

	return b
}

func (b *streamingBlob) Write(p []byte) (int, error) {
	if b.closed.Load() {
		return 0, blobstore.ErrClosed
	}

	return b.pw.Write(p)
}

func (b *streamingBlob) Close() error {
	b.closeMu.Lock()
	defer b.closeMu.Unlock()

	if !b.closed.CompareAndSwap(false, true) {
		return b.closeErr
	}

	// Closing the write end signals EOF to the uploader.
	if err := b.pw.Close(); err != nil {
		b.closeErr = err
		return err
	}

	b.closeErr = <-b.done

	return b.closeErr
}

// Sync is a no-op: S3 only commits data on Close.
func (b *streamingBlob) Sync() error {
	return nil
}
