package httpd

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"sync/atomic"

	"dqx0.com/go/httpd/httpd/internal/http1"
)

const (
	defaultMaxHeaderBytes = 8 << 10
	defaultMaxBodyBytes   = 10 << 20

	// kaQueueDepth bounds how many keep-alive decisions can sit
	// between the read and write sides. It must exceed the server's
	// pipeline depth.
	kaQueueDepth = 64
)

// NewHTTP1Binder returns the default TransportBinder: HTTP/1.1 framing
// with Content-Length and chunked bodies, keep-alive accounting, and
// Expect: 100-continue handling.
func NewHTTP1Binder() TransportBinder {
	return TransportBinderFunc(func(conn net.Conn, opts TransportOptions) Transport {
		if opts.MaxHeaderBytes <= 0 {
			opts.MaxHeaderBytes = defaultMaxHeaderBytes
		}
		if opts.MaxBodyBytes <= 0 {
			opts.MaxBodyBytes = defaultMaxBodyBytes
		}
		return &http1Transport{
			conn: conn,
			br:   bufio.NewReader(conn),
			bw:   bufio.NewWriter(conn),
			opts: opts,
			ka:   make(chan bool, kaQueueDepth),
		}
	})
}

// http1Transport frames one connection. ReadMessage is driven by the
// connection's read goroutine and WriteMessage by its write goroutine;
// the two sides share only the keep-alive queue and the write mutex.
type http1Transport struct {
	conn net.Conn
	br   *bufio.Reader
	bw   *bufio.Writer
	opts TransportOptions

	// ka carries one keep-alive decision per exchange from the read
	// side to the write side, in request order.
	ka chan bool

	readDone bool // read side only
	closed   atomic.Bool

	// wmu serializes the response writer with interim 100-continue
	// lines emitted from the read side.
	wmu sync.Mutex

	// mu guards the response-order accounting below. outstanding is
	// the number of requests read whose responses are not yet fully
	// written; continuePending defers an interim 100 Continue until
	// those responses are on the wire.
	mu              sync.Mutex
	outstanding     int
	continuePending bool
}

func (t *http1Transport) ReadMessage() (RequestMessage, error) {
	if t.closed.Load() {
		return RequestMessage{}, ErrTransportClosed
	}
	if t.readDone {
		return RequestMessage{}, io.EOF
	}
	rr := &http1.Reader{
		BR:                  t.br,
		MaxHeaderBytes:      t.opts.MaxHeaderBytes,
		MaxTotalHeaderBytes: t.opts.MaxHeaderBytes * 4,
	}
	pr, err := rr.ReadRequest()
	if err != nil {
		if err == io.EOF {
			t.readDone = true
			return RequestMessage{}, io.EOF
		}
		return RequestMessage{}, fmt.Errorf("httpd: decode request: %w", err)
	}

	hdr := Header(pr.Header)
	exchangeKA := t.opts.KeepAlive && wantKeepAlive(pr.Proto, hdr.Get("Connection"))
	if !exchangeKA {
		// No further requests are accepted on this connection.
		t.readDone = true
	}
	select {
	case t.ka <- exchangeKA:
	default:
		return RequestMessage{}, fmt.Errorf("httpd: pipeline depth exceeded")
	}
	t.mu.Lock()
	t.outstanding++
	t.mu.Unlock()

	head := RequestHead{
		Method: pr.Method,
		Target: pr.RequestURI,
		Proto:  pr.Proto,
		Header: hdr,
	}
	if pr.Body == nil {
		return RequestHeadOnly(head), nil
	}

	// The client may be waiting for the interim response before it
	// sends the body.
	if strings.EqualFold(hdr.Get("Expect"), "100-continue") {
		if err := t.sendContinue(); err != nil {
			return RequestMessage{}, err
		}
	}

	// Materialize the body so the shared read buffer is positioned at
	// the next pipelined request before this message is handed off.
	chunks, err := readBodyChunks(pr.Body, t.opts.MaxBodyBytes)
	if err != nil {
		return RequestMessage{}, fmt.Errorf("httpd: read request body: %w", err)
	}
	if len(chunks) == 0 {
		return RequestHeadOnly(head), nil
	}
	return RequestWithBody(head, ChunksBody(chunks...)), nil
}

// sendContinue emits the interim 100 Continue immediately only when
// the expecting request is the sole unanswered one; otherwise the
// write side emits it after the prior response, so interim bytes never
// land ahead of an earlier pipelined response.
func (t *http1Transport) sendContinue() error {
	t.mu.Lock()
	solo := t.outstanding == 1
	if !solo {
		t.continuePending = true
	}
	t.mu.Unlock()
	if !solo {
		return nil
	}
	t.wmu.Lock()
	defer t.wmu.Unlock()
	if err := http1.WriteContinue(t.bw); err != nil {
		return fmt.Errorf("httpd: write continue: %w", err)
	}
	if err := t.bw.Flush(); err != nil {
		return fmt.Errorf("httpd: write continue: %w", err)
	}
	return nil
}

func (t *http1Transport) WriteMessage(m ResponseMessage) error {
	if t.closed.Load() {
		return ErrTransportClosed
	}
	var exchangeKA bool
	select {
	case exchangeKA = <-t.ka:
	default:
		return fmt.Errorf("httpd: response without a pending request")
	}

	t.wmu.Lock()
	defer t.wmu.Unlock()
	if err := t.writeResponse(m, exchangeKA); err != nil {
		return err
	}

	// Response fully on the wire; release any interim 100 Continue
	// the read side deferred behind it.
	t.mu.Lock()
	t.outstanding--
	emit := t.continuePending && t.outstanding == 1
	if emit {
		t.continuePending = false
	}
	t.mu.Unlock()
	if !emit {
		return nil
	}
	if err := http1.WriteContinue(t.bw); err != nil {
		return err
	}
	return t.bw.Flush()
}

// writeResponse frames one response, body included. The caller holds
// wmu. Handler-owned headers are cloned; framing never mutates them.
func (t *http1Transport) writeResponse(m ResponseMessage, exchangeKA bool) error {
	hdr := m.Head.Header.Clone()
	if hdr == nil {
		hdr = Header{}
	}
	status := m.Head.StatusCode
	if status == 0 {
		status = 200
	}

	if m.Body == nil || m.Body.Empty() {
		if hdr.Get("Content-Length") == "" && bodyAllowed(status) {
			hdr.Set("Content-Length", "0")
		}
		if err := http1.StartResponse(t.bw, status, m.Head.Reason, hdr, false, exchangeKA); err != nil {
			return err
		}
		return t.bw.Flush()
	}

	// Chunked framing when the length is unknown and the connection
	// stays open; otherwise raw bytes, delimited by Content-Length or
	// by connection close.
	chunked := exchangeKA && hdr.Get("Content-Length") == ""
	if err := http1.StartResponse(t.bw, status, m.Head.Reason, hdr, chunked, exchangeKA); err != nil {
		return err
	}
	for {
		p, err := m.Body.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			// The head is on the wire; all we can do is cut the
			// connection so the peer sees a truncated response.
			return fmt.Errorf("httpd: response body: %w", err)
		}
		if chunked {
			if _, err := http1.WriteChunked(t.bw, p); err != nil {
				return err
			}
		} else if _, err := t.bw.Write(p); err != nil {
			return err
		}
	}
	if chunked {
		if err := http1.EndChunked(t.bw); err != nil {
			return err
		}
	}
	return t.bw.Flush()
}

func (t *http1Transport) Close() error {
	if t.closed.Swap(true) {
		return nil
	}
	return t.conn.Close()
}

func wantKeepAlive(proto, connHeader string) bool {
	v := strings.ToLower(connHeader)
	if proto == "HTTP/1.1" {
		return v != "close"
	}
	return v == "keep-alive"
}

// bodyAllowed reports whether a status permits a response body, per
// RFC 9110.
func bodyAllowed(status int) bool {
	if status >= 100 && status < 200 {
		return false
	}
	return status != 204 && status != 304
}

func readBodyChunks(body io.ReadCloser, limit int64) ([][]byte, error) {
	defer body.Close()
	var chunks [][]byte
	var total int64
	for {
		buf := make([]byte, bodyChunkSize)
		n, err := body.Read(buf)
		if n > 0 {
			total += int64(n)
			if limit > 0 && total > limit {
				return nil, fmt.Errorf("httpd: body exceeds %d bytes", limit)
			}
			chunks = append(chunks, buf[:n])
		}
		if err == io.EOF {
			return chunks, nil
		}
		if err != nil {
			return nil, err
		}
	}
}
