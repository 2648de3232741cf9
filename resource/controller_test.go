package resource

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestControllerMemory(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 100})

	err := c.AcquireMemory(context.Background(), 50)
	require.NoError(t, err)
	assert.Equal(t, int64(50), c.MemoryUsage())

	err = c.AcquireMemory(context.Background(), 40)
	require.NoError(t, err)
	assert.Equal(t, int64(90), c.MemoryUsage())

	// Over the limit: non-blocking fails, blocking times out.
	assert.False(t, c.TryAcquireMemory(20))
	assert.Equal(t, int64(90), c.MemoryUsage())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err = c.AcquireMemory(ctx, 20)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	c.ReleaseMemory(50)
	assert.Equal(t, int64(40), c.MemoryUsage())

	err = c.AcquireMemory(context.Background(), 20)
	require.NoError(t, err)
	assert.Equal(t, int64(60), c.MemoryUsage())
}

func TestControllerUnlimitedMemory(t *testing.T) {
	c := NewController(Config{})

	err := c.AcquireMemory(context.Background(), 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), c.MemoryUsage())

	c.ReleaseMemory(500)
	assert.Equal(t, int64(500), c.MemoryUsage())
}

func TestControllerSlots(t *testing.T) {
	c := NewController(Config{MaxConcurrent: 2})

	require.NoError(t, c.AcquireSlot(context.Background()))
	require.NoError(t, c.AcquireSlot(context.Background()))

	assert.False(t, c.TryAcquireSlot())

	c.ReleaseSlot()

	assert.True(t, c.TryAcquireSlot())
}

func TestControllerWaitIOChunksLargeRequests(t *testing.T) {
	// Burst equals the per-second limit, so a single request above it must
	// be split instead of erroring.
	c := NewController(Config{IOBytesPerSec: 64 * 1024})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, c.WaitIO(ctx, 80*1024))
}

func TestControllerNilIsUnlimited(t *testing.T) {
	var c *Controller

	require.NoError(t, c.AcquireMemory(context.Background(), 1<<40))
	assert.True(t, c.TryAcquireMemory(1<<40))
	c.ReleaseMemory(1 << 40)
	assert.Equal(t, int64(0), c.MemoryUsage())

	require.NoError(t, c.AcquireSlot(context.Background()))
	assert.True(t, c.TryAcquireSlot())
	c.ReleaseSlot()

	require.NoError(t, c.WaitIO(context.Background(), 1<<30))
	assert.Nil(t, c.IOLimiter())
}

func TestReaderPacesAgainstBudget(t *testing.T) {
	// 1 KiB/s with a matching burst: the first KiB is free, the second
	// needs a refill, so reading 1.5 KiB takes at least ~400ms.
	c := NewController(Config{IOBytesPerSec: 1024})

	src := strings.NewReader(strings.Repeat("x", 1536))
	r := NewReader(context.Background(), c, src)

	start := time.Now()
	data, err := io.ReadAll(r)
	require.NoError(t, err)

	assert.Len(t, data, 1536)
	assert.GreaterOrEqual(t, time.Since(start), 400*time.Millisecond)
}

func TestWriterHonorsCancellation(t *testing.T) {
	c := NewController(Config{IOBytesPerSec: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	var buf bytes.Buffer
	w := NewWriter(ctx, c, &buf)

	_, err := w.Write(make([]byte, 1024))
	require.Error(t, err)
}

func TestWriterPassesThroughWithoutLimit(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(context.Background(), nil, &buf)

	n, err := w.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", buf.String())
}
