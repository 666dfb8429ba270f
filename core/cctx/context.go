package cctx

import (
	"context"
	"time"
)

// Context carries a deadline-aware context through store calls
type Context struct {
	context.Context
}

// New new context
func New() *Context {
	return &Context{Context: context.Background()}
}

// From wraps ctx
func From(ctx context.Context) *Context {
	if ctx == nil {
		ctx = context.Background()
	}

	return &Context{Context: ctx}
}

// WithTimeout derives a context bounded by d
func (c *Context) WithTimeout(d time.Duration) (*Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(c.Context, d)
	return &Context{Context: ctx}, cancel
}
