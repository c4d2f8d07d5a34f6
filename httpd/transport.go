package httpd

import "net"

// Transport is the duplex message channel bound to one connection. A
// Transport decodes raw bytes into ordered request messages and
// encodes response messages back to the wire.
//
// Contract:
//   - ReadMessage returns request messages in receipt order, io.EOF
//     once the peer is done sending on a cleanly closed connection,
//     and any other error for decode or I/O failures.
//   - WriteMessage fully emits one response, body included, before
//     returning, so bytes of consecutive responses never interleave
//     (pipelining discipline).
//   - Neither method is safe for concurrent use with itself; the
//     server drives reads and writes from separate single goroutines.
//   - Close releases the transport and closes the underlying
//     connection.
type Transport interface {
	ReadMessage() (RequestMessage, error)
	WriteMessage(ResponseMessage) error
	Close() error
}

// TransportBinder produces a Transport over a raw accepted connection.
type TransportBinder interface {
	Bind(conn net.Conn, opts TransportOptions) Transport
}

// TransportOptions carries the per-server knobs a Transport needs.
type TransportOptions struct {
	// KeepAlive permits serving more than one request per connection.
	KeepAlive bool
	// MaxHeaderBytes bounds a single decoded head; 0 means the
	// transport's default.
	MaxHeaderBytes int
	// MaxBodyBytes bounds one request body; 0 means the transport's
	// default.
	MaxBodyBytes int64
}

// TransportBinderFunc adapts a function to the TransportBinder
// interface.
type TransportBinderFunc func(conn net.Conn, opts TransportOptions) Transport

func (f TransportBinderFunc) Bind(conn net.Conn, opts TransportOptions) Transport {
	return f(conn, opts)
}
