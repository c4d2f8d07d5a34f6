package httpd

import (
	"context"
	"net"
)

// Request is the uniform request type handed to a Handler. Body is
// never nil: requests that arrived without one carry a pre-terminated
// empty stream, so handler code never branches on body presence.
type Request struct {
	Method     string
	Target     string
	Proto      string
	Header     Header
	Body       *BodyStream
	RemoteAddr net.Addr

	ctx context.Context
}

// Context returns the request's context, or Background if unset.
func (r *Request) Context() context.Context {
	if r == nil || r.ctx == nil {
		return context.Background()
	}
	return r.ctx
}

// WithContext returns a shallow copy of r with its context set to ctx.
func WithContext(r *Request, ctx context.Context) *Request {
	if r == nil {
		return nil
	}
	r2 := *r
	r2.ctx = ctx
	return &r2
}
