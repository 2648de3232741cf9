// Package resource bounds what batch search jobs may consume: resident
// dataset memory, concurrently running searches, and IO throughput for
// dataset staging. A nil *Controller is valid and enforces nothing, so
// callers can thread one through unconditionally.
package resource

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds resource limits. Zero values mean unlimited.
type Config struct {
	// MemoryLimitBytes caps the total bytes of loaded datasets. If 0 the
	// controller only tracks usage.
	MemoryLimitBytes int64

	// MaxConcurrent caps the number of searches running at once. If 0 it
	// defaults to 1.
	MaxConcurrent int64

	// IOBytesPerSec caps dataset read/write throughput. If 0, unlimited.
	IOBytesPerSec int64
}

// Controller enforces Config across the searches of a job.
type Controller struct {
	cfg Config

	memSem  *semaphore.Weighted // nil if unlimited
	memUsed atomic.Int64

	slots *semaphore.Weighted

	ioLimiter *rate.Limiter
}

// NewController creates a controller for the given limits.
func NewController(cfg Config) *Controller {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}

	c := &Controller{
		cfg:   cfg,
		slots: semaphore.NewWeighted(cfg.MaxConcurrent),
	}

	if cfg.MemoryLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}

	if cfg.IOBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOBytesPerSec), int(cfg.IOBytesPerSec))
	}

	return c
}

// AcquireMemory reserves bytes of dataset memory, blocking until the
// reservation fits under the limit or ctx is canceled.
func (c *Controller) AcquireMemory(ctx context.Context, bytes int64) error {
	if c == nil || bytes <= 0 {
		return nil
	}

	if c.memSem != nil {
		if err := c.memSem.Acquire(ctx, bytes); err != nil {
			return err
		}
	}

	c.memUsed.Add(bytes)

	return nil
}

// TryAcquireMemory reserves bytes without blocking. It reports whether the
// reservation succeeded.
func (c *Controller) TryAcquireMemory(bytes int64) bool {
	if c == nil || bytes <= 0 {
		return true
	}

	if c.memSem != nil && !c.memSem.TryAcquire(bytes) {
		return false
	}

	c.memUsed.Add(bytes)

	return true
}

// ReleaseMemory returns a reservation made by AcquireMemory.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}

	if c.memSem != nil {
		c.memSem.Release(bytes)
	}

	c.memUsed.Add(-bytes)
}

// MemoryUsage returns the bytes currently reserved.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}

	return c.memUsed.Load()
}

// AcquireSlot blocks until a search slot is free.
func (c *Controller) AcquireSlot(ctx context.Context) error {
	if c == nil {
		return nil
	}

	return c.slots.Acquire(ctx, 1)
}

// TryAcquireSlot reserves a search slot without blocking.
func (c *Controller) TryAcquireSlot() bool {
	if c == nil {
		return true
	}

	return c.slots.TryAcquire(1)
}

// ReleaseSlot returns a slot taken by AcquireSlot.
func (c *Controller) ReleaseSlot() {
	if c == nil {
		return
	}

	c.slots.Release(1)
}

// WaitIO blocks until the IO budget allows n more bytes. Requests larger
// than the limiter burst are split, so any n is valid.
func (c *Controller) WaitIO(ctx context.Context, n int) error {
	if c == nil || c.ioLimiter == nil || n <= 0 {
		return nil
	}

	burst := c.ioLimiter.Burst()
	for n > 0 {
		chunk := n
		if chunk > burst {
			chunk = burst
		}

		if err := c.ioLimiter.WaitN(ctx, chunk); err != nil {
			return err
		}

		n -= chunk
	}

	return nil
}

// IOLimiter exposes the shared limiter so blob stores can be throttled from
// the same budget. Nil when IO is unlimited.
func (c *Controller) IOLimiter() *rate.Limiter {
	if c == nil {
		return nil
	}

	return c.ioLimiter
}
