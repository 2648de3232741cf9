package resource

import (
	"context"
	"io"
)

// Reader paces an io.Reader against the controller's IO budget. Bytes are
// charged after each read, so accounting matches what was actually read.
type Reader struct {
	r   io.Reader
	c   *Controller
	ctx context.Context
}

// NewReader wraps r so its throughput counts against c.
func NewReader(ctx context.Context, c *Controller, r io.Reader) *Reader {
	return &Reader{r: r, c: c, ctx: ctx}
}

func (r *Reader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if n > 0 {
		if werr := r.c.WaitIO(r.ctx, n); werr != nil {
			return n, werr
		}
	}

	return n, err
}

// Writer paces an io.Writer against the controller's IO budget.
type Writer struct {
	w   io.Writer
	c   *Controller
	ctx context.Context
}

// NewWriter wraps w so its throughput counts against c.
func NewWriter(ctx context.Context, c *Controller, w io.Writer) *Writer {
	return &Writer{w: w, c: c, ctx: ctx}
}

func (w *Writer) Write(p []byte) (int, error) {
	if err := w.c.WaitIO(w.ctx, len(p)); err != nil {
		return 0, err
	}

	return w.w.Write(p)
}
