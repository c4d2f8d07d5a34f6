package http1

import (
	"bufio"
	"errors"
	"io"
	"strconv"
	"strings"
)

var (
	ErrMalformedRequest = errors.New("http1: malformed request")
	ErrHeaderTooLarge   = errors.New("http1: header too large")
)

// ParsedRequest is a minimal representation parsed from the wire.
type ParsedRequest struct {
	Method        string
	RequestURI    string
	Proto         string
	Header        map[string][]string
	ContentLength int64
	Body          io.ReadCloser
}

type Reader struct {
	BR *bufio.Reader
	// MaxHeaderBytes limits one header line; MaxTotalHeaderBytes
	// limits the whole header block. Zero means unlimited.
	MaxHeaderBytes      int
	MaxTotalHeaderBytes int
}

func (r *Reader) ReadRequest() (*ParsedRequest, error) {
	line, err := r.readLine()
	if err != nil {
		return nil, err
	}
	parts := strings.SplitN(line, " ", 3)
	if len(parts) != 3 {
		return nil, ErrMalformedRequest
	}
	method, uri, proto := parts[0], parts[1], parts[2]
	if method == "" || uri == "" || !strings.HasPrefix(proto, "HTTP/1.") {
		return nil, ErrMalformedRequest
	}
	hdr, err := r.readHeaders(len(line))
	if err != nil {
		return nil, err
	}
	cl, chunked, err := bodyLength(hdr)
	if err != nil {
		return nil, err
	}
	var body io.ReadCloser
	switch {
	case chunked:
		body = newChunkedBody(r.BR, r.MaxHeaderBytes)
	case cl > 0:
		body = &limitedBody{lr: &io.LimitedReader{R: r.BR, N: cl}}
	default:
		body = nil
	}
	return &ParsedRequest{
		Method:        method,
		RequestURI:    uri,
		Proto:         proto,
		Header:        hdr,
		ContentLength: cl,
		Body:          body,
	}, nil
}

// bodyLength applies the CL/TE rules: chunked wins only when no
// Content-Length is present; the combination is rejected outright, as
// are repeated disagreeing Content-Length values.
func bodyLength(h map[string][]string) (cl int64, chunked bool, err error) {
	chunked = hasChunkedTE(h)
	vals := h[canonicalHeaderKey("Content-Length")]
	if len(vals) == 0 {
		if chunked {
			return -1, true, nil
		}
		return 0, false, nil
	}
	if chunked {
		return 0, false, ErrMalformedRequest
	}
	var seen string
	for _, v := range vals {
		for _, piece := range strings.Split(v, ",") {
			piece = strings.TrimSpace(piece)
			if seen != "" && piece != seen {
				return 0, false, ErrMalformedRequest
			}
			seen = piece
		}
	}
	n, perr := strconv.ParseInt(seen, 10, 64)
	if perr != nil || n < 0 {
		return 0, false, ErrMalformedRequest
	}
	return n, false, nil
}

func (r *Reader) readHeaders(used int) (map[string][]string, error) {
	h := make(map[string][]string)
	total := used
	for {
		line, err := r.readLine()
		if err != nil {
			return nil, err
		}
		total += len(line) + 2
		if r.MaxTotalHeaderBytes > 0 && total > r.MaxTotalHeaderBytes {
			return nil, ErrHeaderTooLarge
		}
		if line == "" {
			break
		}
		i := strings.IndexByte(line, ':')
		if i <= 0 {
			return nil, ErrMalformedRequest
		}
		k := strings.TrimSpace(line[:i])
		if SanitizeHeaderKey(k) == "" {
			return nil, ErrMalformedRequest
		}
		v := strings.TrimSpace(line[i+1:])
		hk := canonicalHeaderKey(k)
		h[hk] = append(h[hk], v)
	}
	return h, nil
}

func (r *Reader) readLine() (string, error) {
	var sb strings.Builder
	for {
		b, err := r.BR.ReadByte()
		if err != nil {
			return "", err
		}
		if b == '\n' {
			break
		}
		if b != '\r' {
			sb.WriteByte(b)
		}
		if r.MaxHeaderBytes > 0 && sb.Len() > r.MaxHeaderBytes {
			return "", ErrHeaderTooLarge
		}
	}
	return sb.String(), nil
}

type limitedBody struct {
	lr *io.LimitedReader
}

func (b *limitedBody) Read(p []byte) (int, error) {
	n, err := b.lr.Read(p)
	if err == io.EOF && b.lr.N > 0 {
		// The peer hung up before delivering Content-Length bytes.
		err = io.ErrUnexpectedEOF
	}
	return n, err
}

func (b *limitedBody) Close() error {
	// Drain remaining bytes to allow the next request on the same
	// connection.
	buf := make([]byte, 1024)
	for b.lr.N > 0 {
		n := int64(len(buf))
		if n > b.lr.N {
			n = b.lr.N
		}
		if _, err := io.ReadFull(b.lr, buf[:n]); err != nil {
			if err == io.ErrUnexpectedEOF || err == io.EOF {
				break
			}
			return err
		}
	}
	return nil
}

func hasChunkedTE(h map[string][]string) bool {
	if vv, ok := h[canonicalHeaderKey("Transfer-Encoding")]; ok {
		for _, v := range vv {
			if strings.Contains(strings.ToLower(v), "chunked") {
				return true
			}
		}
	}
	return false
}

// Very small canonicalizer to avoid importing textproto here.
func canonicalHeaderKey(s string) string {
	b := []byte(strings.ToLower(s))
	upper := true
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			if upper {
				b[i] = byte(c - 'a' + 'A')
			}
			upper = false
			continue
		}
		upper = c == '-'
	}
	return string(b)
}
