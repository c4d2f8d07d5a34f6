package httpd

import (
	"io"
)

// bodyChunkSize is the read granularity used when a body stream is
// backed by an io.Reader.
const bodyChunkSize = 8 << 10

// BodyStream is a lazy, finite sequence of body chunks. A stream is
// consumed at most once and cannot be restarted. The zero-chunk stream
// returned by EmptyBody is valid and terminates immediately; it is
// distinct from a message carrying no body at all.
type BodyStream struct {
	pull   func() ([]byte, error)
	peeked []byte
	done   bool
	err    error
}

// EmptyBody returns a pre-terminated stream. No channel or goroutine is
// allocated for it; Next reports io.EOF on the first call.
func EmptyBody() *BodyStream {
	return &BodyStream{done: true}
}

// BytesBody returns a stream yielding p as a single chunk. An empty p
// yields the pre-terminated stream.
func BytesBody(p []byte) *BodyStream {
	if len(p) == 0 {
		return EmptyBody()
	}
	return &BodyStream{peeked: p, done: true}
}

// ChunksBody returns a terminated stream yielding the given chunks in
// order. Empty chunks are skipped.
func ChunksBody(chunks ...[]byte) *BodyStream {
	kept := chunks[:0]
	for _, p := range chunks {
		if len(p) > 0 {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return EmptyBody()
	}
	i := 0
	return &BodyStream{pull: func() ([]byte, error) {
		if i >= len(kept) {
			return nil, io.EOF
		}
		p := kept[i]
		i++
		return p, nil
	}}
}

// ReaderBody returns a stream that pulls chunks from r on demand.
// Each chunk is at most bodyChunkSize bytes.
func ReaderBody(r io.Reader) *BodyStream {
	return &BodyStream{pull: func() ([]byte, error) {
		buf := make([]byte, bodyChunkSize)
		n, err := r.Read(buf)
		if n > 0 {
			return buf[:n], err
		}
		if err == nil {
			err = io.EOF
		}
		return nil, err
	}}
}

// NewBody returns a stream paired with the writer that feeds it. The
// writer side is safe to use from another goroutine; depth bounds how
// many chunks may be in flight before Write blocks.
func NewBody(depth int) (*BodyStream, *BodyWriter) {
	if depth < 1 {
		depth = 1
	}
	w := &BodyWriter{ch: make(chan []byte, depth)}
	b := &BodyStream{pull: func() ([]byte, error) {
		p, ok := <-w.ch
		if !ok {
			if w.err != nil {
				return nil, w.err
			}
			return nil, io.EOF
		}
		return p, nil
	}}
	return b, w
}

// Next returns the next chunk, io.EOF when the stream has terminated,
// or the stream's failure. After a non-nil error the stream is spent.
func (b *BodyStream) Next() ([]byte, error) {
	if b == nil {
		return nil, io.EOF
	}
	if b.peeked != nil {
		p := b.peeked
		b.peeked = nil
		return p, nil
	}
	if b.done {
		if b.err != nil {
			return nil, b.err
		}
		return nil, io.EOF
	}
	p, err := b.pull()
	if err != nil {
		b.done = true
		if err != io.EOF {
			b.err = err
		}
		if len(p) > 0 {
			return p, nil
		}
		return nil, err
	}
	return p, nil
}

// Empty reports whether the stream is known to hold no chunks: the
// receiver is nil, was pre-terminated, or has been fully consumed. A
// live stream whose producer has not finished is never known empty.
func (b *BodyStream) Empty() bool {
	if b == nil {
		return true
	}
	return b.done && b.peeked == nil && b.err == nil
}

// Bytes drains the stream and returns its concatenated chunks.
func (b *BodyStream) Bytes() ([]byte, error) {
	var out []byte
	for {
		p, err := b.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, p...)
	}
}

// Reader adapts the stream to io.Reader for handlers that prefer one.
func (b *BodyStream) Reader() io.Reader {
	return &bodyReader{b: b}
}

type bodyReader struct {
	b    *BodyStream
	rest []byte
}

func (r *bodyReader) Read(p []byte) (int, error) {
	for len(r.rest) == 0 {
		chunk, err := r.b.Next()
		if err != nil {
			return 0, err
		}
		r.rest = chunk
	}
	n := copy(p, r.rest)
	r.rest = r.rest[n:]
	return n, nil
}

// BodyWriter is the producer half of NewBody.
type BodyWriter struct {
	ch     chan []byte
	err    error
	closed bool
}

// Write queues one chunk. Empty chunks are dropped. Write blocks when
// the consumer is more than depth chunks behind.
func (w *BodyWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, io.ErrClosedPipe
	}
	if len(p) == 0 {
		return 0, nil
	}
	w.ch <- p
	return len(p), nil
}

// Close terminates the stream cleanly.
func (w *BodyWriter) Close() error {
	if !w.closed {
		w.closed = true
		close(w.ch)
	}
	return nil
}

// CloseWithError terminates the stream with err; the consumer observes
// it after draining queued chunks.
func (w *BodyWriter) CloseWithError(err error) error {
	if !w.closed {
		w.err = err
		w.closed = true
		close(w.ch)
	}
	return nil
}
