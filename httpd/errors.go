package httpd

import (
	"errors"
	"fmt"
)

var (
	// ErrTransportClosed reports a read or write against a Transport
	// that has already shut down.
	ErrTransportClosed = errors.New("httpd: transport closed")
	// ErrBindFailed tags socket bind/listen failures; every *BindError
	// matches it.
	ErrBindFailed = errors.New("httpd: bind failed")
	// ErrHandlerFailed tags a Handler.Call failure that terminated its
	// connection without a response.
	ErrHandlerFailed = errors.New("httpd: handler failed")
)

// BindError reports a failure to bind or listen on the configured
// address. It is returned synchronously from Listen; the server never
// starts after one.
type BindError struct {
	Addr string
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("httpd: bind %s: %v", e.Addr, e.Err)
}

func (e *BindError) Unwrap() []error { return []error{ErrBindFailed, e.Err} }
