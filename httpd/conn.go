package httpd

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"golang.org/x/sync/errgroup"

	"dqx0.com/go/httpd/internal/obs"
)

// pipelineDepth bounds how many pipelined requests may be in flight on
// one connection before the read pump stops accepting more.
const pipelineDepth = 32

// errConnDone signals a clean, deliberate end of a connection's pumps.
var errConnDone = errors.New("httpd: connection done")

// serverConn binds one accepted connection: it owns the raw socket and
// its Transport, wraps the connection's Handler in a serviceAdapter,
// and drives the read/dispatch and await/write pumps until the peer
// goes away, a fatal error occurs, or the idle timeout elapses.
type serverConn struct {
	conn        net.Conn
	tr          Transport
	adapter     *serviceAdapter
	keepAlive   bool
	idleTimeout time.Duration
	logger      obs.Logger
	meter       obs.Meter
}

func (c *serverConn) serve(ctx context.Context) {
	defer c.tr.Close()

	g, gctx := errgroup.WithContext(ctx)
	slots := make(chan *pending, pipelineDepth)
	g.Go(func() error { return c.readLoop(gctx, slots) })
	g.Go(func() error { return c.writeLoop(gctx, slots) })
	// Unblock a reader stuck in ReadMessage once the other pump
	// fails; gctx is also done once Wait returns, when this is moot.
	go func() {
		<-gctx.Done()
		_ = c.conn.SetReadDeadline(time.Now())
	}()

	err := g.Wait()
	switch {
	case err == nil || errors.Is(err, errConnDone):
		c.logger.Logf(obs.Debug, "connection %s closed", c.conn.RemoteAddr())
	default:
		c.logger.Logf(obs.Warn, "connection %s: %v", c.conn.RemoteAddr(), err)
	}
}

// readLoop reads messages in receipt order and dispatches each without
// waiting for the handler. Closing slots tells the write pump no more
// responses are coming.
func (c *serverConn) readLoop(ctx context.Context, slots chan<- *pending) error {
	defer close(slots)
	for {
		if c.idleTimeout > 0 {
			_ = c.conn.SetReadDeadline(time.Now().Add(c.idleTimeout))
		}
		m, err := c.tr.ReadMessage()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			if ctx.Err() != nil {
				// The write pump already finished; its result wins.
				return nil
			}
			if isTimeout(err) {
				c.logger.Logf(obs.Debug, "connection %s idle, closing", c.conn.RemoteAddr())
				return nil
			}
			return err
		}
		c.meter.Counter("httpd_requests_total", 1)
		p := c.adapter.dispatch(ctx, m, c.conn.RemoteAddr())
		select {
		case slots <- p:
		case <-ctx.Done():
			return nil
		}
	}
}

// writeLoop awaits each slot in request order and writes the encoded
// response. Per-connection response order therefore equals request
// receipt order even when handlers complete out of order.
func (c *serverConn) writeLoop(ctx context.Context, slots <-chan *pending) error {
	for p := range slots {
		m, err := c.adapter.await(ctx, p)
		if err != nil {
			// Handler failures terminate the connection; no fallback
			// response is synthesized for the peer.
			return err
		}
		if err := c.tr.WriteMessage(m); err != nil {
			return err
		}
		if !c.keepAlive {
			return errConnDone
		}
	}
	return nil
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
