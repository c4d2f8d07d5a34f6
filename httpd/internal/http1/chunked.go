package http1

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var errChunkFormat = errors.New("http1: invalid chunk format")

// chunkedBody implements io.ReadCloser for Transfer-Encoding: chunked.
// left is the unread byte count of the current chunk; once the
// zero-length chunk and its trailers have been consumed, done is set
// and the body reports io.EOF.
type chunkedBody struct {
	r         *bufio.Reader
	left      int64
	done      bool
	lineLimit int // applies to chunk-size and trailer lines
}

func newChunkedBody(br *bufio.Reader, lineLimit int) io.ReadCloser {
	return &chunkedBody{r: br, lineLimit: lineLimit}
}

func (c *chunkedBody) Read(p []byte) (int, error) {
	for c.left == 0 {
		if c.done {
			return 0, io.EOF
		}
		if err := c.advance(); err != nil {
			return 0, err
		}
	}
	if len(p) == 0 {
		return 0, nil
	}
	if int64(len(p)) > c.left {
		p = p[:c.left]
	}
	n, err := io.ReadFull(c.r, p)
	c.left -= int64(n)
	if err != nil {
		return n, err
	}
	if c.left == 0 {
		// Every chunk's data ends with a CRLF boundary.
		if err := c.requireCRLF(); err != nil {
			return n, err
		}
	}
	return n, nil
}

// advance parses the next chunk-size line. The zero-length chunk ends
// the body; its trailers are read and discarded.
func (c *chunkedBody) advance() error {
	line, err := readLimitedLine(c.r, c.lineLimit)
	if err != nil {
		return err
	}
	// Chunk extensions ("<hex>;<ext>") are allowed but ignored.
	if i := strings.IndexByte(line, ';'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	size, perr := strconv.ParseInt(line, 16, 64)
	if line == "" || perr != nil || size < 0 {
		return errChunkFormat
	}
	if size == 0 {
		if err := c.discardTrailers(); err != nil {
			return err
		}
		c.done = true
		return io.EOF
	}
	c.left = size
	return nil
}

func (c *chunkedBody) Close() error {
	// Drain to end so the connection can be reused.
	buf := make([]byte, 1024)
	for !c.done {
		if _, err := c.Read(buf); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
	return nil
}

func (c *chunkedBody) requireCRLF() error {
	b1, err := c.r.ReadByte()
	if err != nil {
		return err
	}
	b2, err := c.r.ReadByte()
	if err != nil {
		return err
	}
	if b1 != '\r' || b2 != '\n' {
		return fmt.Errorf("http1: expected CRLF after chunk, got %q%q", b1, b2)
	}
	return nil
}

func (c *chunkedBody) discardTrailers() error {
	for {
		line, err := readLimitedLine(c.r, c.lineLimit)
		if err != nil {
			return err
		}
		if line == "" {
			return nil
		}
	}
}

func readLimitedLine(br *bufio.Reader, limit int) (string, error) {
	var sb strings.Builder
	for {
		b, err := br.ReadByte()
		if err != nil {
			return "", err
		}
		if b == '\n' {
			break
		}
		if b != '\r' {
			sb.WriteByte(b)
		}
		if limit > 0 && sb.Len() > limit {
			return "", ErrHeaderTooLarge
		}
	}
	return sb.String(), nil
}
