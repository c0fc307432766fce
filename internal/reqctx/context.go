package reqctx

import "context"

// key is the context key under which the built Context travels.
type key struct{}

// WithContext returns a copy of parent carrying rc.
func WithContext(parent context.Context, rc *Context) context.Context {
	return context.WithValue(parent, key{}, rc)
}

// FromContext extracts the per-request Context from ctx.
func FromContext(ctx context.Context) (*Context, bool) {
	rc, ok := ctx.Value(key{}).(*Context)
	return rc, ok
}
