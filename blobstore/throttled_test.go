package blobstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestThrottledStoreNilLimiterPassesThrough(t *testing.T) {
	ctx := context.Background()
	store := NewThrottledStore(NewMemoryStore(), nil)

	require.NoError(t, store.Put(ctx, "blob", []byte("unthrottled")))

	blob, err := store.Open(ctx, "blob")
	require.NoError(t, err)
	defer blob.Close()

	got, err := ReadAll(ctx, blob)
	require.NoError(t, err)
	assert.Equal(t, []byte("unthrottled"), got)
}

func TestThrottledStoreChunksLargeRequests(t *testing.T) {
	ctx := context.Background()

	// Burst far below the payload size; WaitN must be split to succeed.
	limiter := rate.NewLimiter(rate.Limit(1<<26), 128)
	store := NewThrottledStore(NewMemoryStore(), limiter)

	payload := make([]byte, 4096)
	for i := range payload {
		payload[i] = byte(i)
	}

	require.NoError(t, store.Put(ctx, "big", payload))

	blob, err := store.Open(ctx, "big")
	require.NoError(t, err)
	defer blob.Close()

	buf := make([]byte, len(payload))
	n, err := blob.ReadAt(ctx, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, len(payload), n)
	assert.Equal(t, payload, buf)
}

func TestThrottledStoreHonorsCancellation(t *testing.T) {
	// One byte per second: the second chunk cannot be granted in time.
	limiter := rate.NewLimiter(rate.Limit(1), 1)
	store := NewThrottledStore(NewMemoryStore(), limiter)

	require.NoError(t, store.Put(context.Background(), "slow", []byte("abcdef")))

	blob, err := store.Open(context.Background(), "slow")
	require.NoError(t, err)
	defer blob.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = blob.ReadAt(ctx, make([]byte, 6), 0)
	assert.Error(t, err)
}

func TestThrottledStoreDelaysWrites(t *testing.T) {
	// 1KB/s with a 256 byte burst: writing 768 bytes needs ~500ms of refill.
	limiter := rate.NewLimiter(rate.Limit(1024), 256)
	store := NewThrottledStore(NewMemoryStore(), limiter)

	start := time.Now()
	require.NoError(t, store.Put(context.Background(), "paced", make([]byte, 768)))

	assert.GreaterOrEqual(t, time.Since(start), 400*time.Millisecond)
}
