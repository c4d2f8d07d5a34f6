package httpd

import "context"

// Handler processes one request into one response. The server invokes
// Call on its own goroutine per request, so pipelined requests on one
// connection progress concurrently; a Handler must not assume Call
// invocations are serialized. Returning an error closes the connection
// without sending a response.
type Handler interface {
	Call(ctx context.Context, req *Request) (*Response, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, req *Request) (*Response, error)

func (f HandlerFunc) Call(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// HandlerFactory yields one Handler per accepted connection, so a
// Handler may keep per-connection state without shared mutability.
type HandlerFactory interface {
	New() Handler
}

// HandlerFactoryFunc adapts a function to the HandlerFactory interface.
type HandlerFactoryFunc func() Handler

func (f HandlerFactoryFunc) New() Handler { return f() }

// SharedHandler returns a factory that hands the same stateless
// Handler to every connection.
func SharedHandler(h Handler) HandlerFactory {
	return HandlerFactoryFunc(func() Handler { return h })
}
