// Package httpd is the connection-acceptance and dispatch core of an
// asynchronous HTTP/1.x server. It accepts raw connections, binds each
// to a Transport that decodes the byte stream into ordered messages,
// adapts those messages into a uniform Request/Response contract for a
// user-supplied Handler, and writes encoded responses back in request
// order, preserving HTTP pipelining even when handlers finish out of
// order.
//
// Highlights
//   - One fresh Handler per connection via a HandlerFactory, so
//     per-connection state needs no locking.
//   - Uniform bodies: a Request always carries a BodyStream; requests
//     without one get a pre-terminated empty stream, so handlers never
//     branch on body presence.
//   - Pluggable Transport; the default speaks HTTP/1.1 with
//     keep-alive, chunked transfer, and Expect: 100-continue.
//   - Explicit lifecycle: Standalone returns a Listening handle to
//     stop accepting and a LoopDriver that blocks until shutdown.
//
// Quick start:
//
//	h := httpd.HandlerFunc(func(ctx context.Context, r *httpd.Request) (*httpd.Response, error) {
//	    return httpd.TextResponse(200, "hello"), nil
//	})
//	ln, drv, err := httpd.New(":8080").Standalone(httpd.SharedHandler(h))
//	if err != nil { log.Fatal(err) }
//	defer ln.Close()
//	drv.Run()
//
// Handlers run on their own goroutine per request and may block; on a
// single connection the server still writes responses in the order the
// requests arrived.
package httpd
