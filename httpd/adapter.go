package httpd

import (
	"context"
	"fmt"
	"net"
	"time"

	"dqx0.com/go/httpd/internal/obs"
)

// serviceAdapter bridges Transport messages and the Handler's
// Request/Response contract for one connection.
type serviceAdapter struct {
	handler Handler
	meter   obs.Meter
}

// decode builds a uniform Request from a transport message. A message
// without a body yields a request whose body is the pre-terminated
// empty stream, so handlers never observe a nil body.
func (a *serviceAdapter) decode(m RequestMessage, remote net.Addr) *Request {
	body := m.Body
	if body == nil {
		body = EmptyBody()
	}
	return &Request{
		Method:     m.Head.Method,
		Target:     m.Head.Target,
		Proto:      m.Head.Proto,
		Header:     m.Head.Header,
		Body:       body,
		RemoteAddr: remote,
	}
}

// encode builds a transport message from a response. A body known to
// be empty is dropped from the message entirely so the transport can
// skip body framing.
func (a *serviceAdapter) encode(r *Response) ResponseMessage {
	head := ResponseHead{
		StatusCode: r.StatusCode,
		Header:     r.Header,
	}
	if r.Body == nil || r.Body.Empty() {
		return ResponseHeadOnly(head)
	}
	return ResponseWithBody(head, r.Body)
}

// pending is one in-flight exchange. The write pump awaits slots in
// request order, which keeps pipelined responses ordered regardless of
// handler completion order.
type pending struct {
	done  chan struct{}
	resp  *Response
	err   error
	start time.Time
}

// dispatch decodes m, invokes the handler on its own goroutine, and
// returns the slot the write pump will await. It never blocks on the
// handler.
func (a *serviceAdapter) dispatch(ctx context.Context, m RequestMessage, remote net.Addr) *pending {
	req := a.decode(m, remote)
	p := &pending{done: make(chan struct{}), start: time.Now()}
	go func() {
		defer close(p.done)
		p.resp, p.err = a.handler.Call(ctx, req)
	}()
	return p
}

// await blocks until the handler's result is available and encodes it.
func (a *serviceAdapter) await(ctx context.Context, p *pending) (ResponseMessage, error) {
	select {
	case <-p.done:
	case <-ctx.Done():
		return ResponseMessage{}, ctx.Err()
	}
	if p.err != nil {
		return ResponseMessage{}, fmt.Errorf("%w: %w", ErrHandlerFailed, p.err)
	}
	a.meter.Histogram("httpd_request_duration_seconds", time.Since(p.start).Seconds())
	return a.encode(p.resp), nil
}
