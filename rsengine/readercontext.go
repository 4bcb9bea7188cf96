package rsengine

import (
	"context"
	"io"
)

// readerWithContext is an io.Reader that stops reading once a context has
// been cancelled. Extraction uses it so that long file copies notice
// cancellation between reads.
type readerWithContext struct {
	ctx context.Context
	r   io.Reader
}

func newReaderWithContext(ctx context.Context, r io.Reader) readerWithContext {
	return readerWithContext{ctx: ctx, r: r}
}

func (r readerWithContext) Read(p []byte) (n int, err error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}
