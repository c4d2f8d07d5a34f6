package httpd

import (
	"net"
	"sync"
)

// Listening is the handle of a running server. Closing it stops the
// accept loop; connections already being served run to their own
// completion or error and are not drained.
type Listening struct {
	addr net.Addr
	ln   net.Listener
	done chan struct{}
	once sync.Once
}

// Addr returns the bound address.
func (l *Listening) Addr() net.Addr { return l.addr }

// Close stops the server from accepting further connections. It is
// idempotent and returns without waiting for in-flight work.
func (l *Listening) Close() {
	l.once.Do(func() { _ = l.ln.Close() })
}

func (l *Listening) String() string { return l.addr.String() }

// LoopDriver blocks its caller until the paired Listening handle has
// shut down, either through an explicit Close or because the accept
// loop exited on its own.
type LoopDriver struct {
	done   <-chan struct{}
	once   sync.Once
	driven bool
}

// Run drives the server until shutdown. It blocks the calling
// goroutine; once shutdown has been observed it and every later Run or
// Close return immediately.
func (d *LoopDriver) Run() { d.drive() }

// Close releases the driver. If Run was never called it performs the
// same blocking drive-to-shutdown, so the server is always driven to
// completion; after a Run it returns immediately. Callers must expect
// it to block.
func (d *LoopDriver) Close() { d.drive() }

func (d *LoopDriver) drive() {
	d.once.Do(func() {
		<-d.done
		d.driven = true
	})
}
