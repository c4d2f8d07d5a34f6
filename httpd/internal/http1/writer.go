package http1

import (
	"bufio"
	"fmt"
	"strings"
)

// StartResponse writes the status line and headers, including
// Connection and optional Transfer-Encoding: chunked. It does not
// write any body bytes.
func StartResponse(bw *bufio.Writer, status int, reason string, hdr map[string][]string, chunked, keepAlive bool) error {
	if reason == "" {
		reason = defaultReason(status)
	}
	if _, err := fmt.Fprintf(bw, "HTTP/1.1 %d %s\r\n", status, reason); err != nil {
		return err
	}
	if chunked {
		delete(hdr, "Content-Length")
		if _, err := fmt.Fprint(bw, "Transfer-Encoding: chunked\r\n"); err != nil {
			return err
		}
	}
	for k, vv := range hdr {
		// Connection is owned by the server, below.
		if k == "Connection" {
			continue
		}
		for _, v := range vv {
			if _, err := fmt.Fprintf(bw, "%s: %s\r\n", k, SanitizeHeaderValue(v)); err != nil {
				return err
			}
		}
	}
	conn := "close"
	if keepAlive {
		conn = "keep-alive"
	}
	if _, err := fmt.Fprintf(bw, "Connection: %s\r\n\r\n", conn); err != nil {
		return err
	}
	return nil
}

// WriteContinue writes an interim 100 Continue response.
func WriteContinue(bw *bufio.Writer) error {
	_, err := fmt.Fprint(bw, "HTTP/1.1 100 Continue\r\n\r\n")
	return err
}

// WriteChunked writes one HTTP/1.1 chunk for chunked transfer encoding.
func WriteChunked(bw *bufio.Writer, p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if _, err := fmt.Fprintf(bw, "%x\r\n", len(p)); err != nil {
		return 0, err
	}
	if _, err := bw.Write(p); err != nil {
		return 0, err
	}
	if _, err := fmt.Fprint(bw, "\r\n"); err != nil {
		return 0, err
	}
	return len(p), nil
}

// EndChunked writes the terminating zero-length chunk.
func EndChunked(bw *bufio.Writer) error {
	_, err := fmt.Fprint(bw, "0\r\n\r\n")
	return err
}

func defaultReason(code int) string {
	switch code {
	case 200:
		return "OK"
	case 201:
		return "Created"
	case 204:
		return "No Content"
	case 301:
		return "Moved Permanently"
	case 302:
		return "Found"
	case 304:
		return "Not Modified"
	case 400:
		return "Bad Request"
	case 401:
		return "Unauthorized"
	case 403:
		return "Forbidden"
	case 404:
		return "Not Found"
	case 500:
		return "Internal Server Error"
	case 501:
		return "Not Implemented"
	default:
		return ""
	}
}

// SanitizeHeaderKey ensures a header name is a valid token; returns
// the empty string if it is not.
func SanitizeHeaderKey(k string) string {
	if k == "" {
		return ""
	}
	for i := 0; i < len(k); i++ {
		c := k[i]
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			continue
		}
		switch c {
		case '!', '#', '$', '%', '&', '\'', '*', '+', '-', '.', '^', '_', '`', '|', '~':
			continue
		default:
			return ""
		}
	}
	return k
}

// SanitizeHeaderValue removes CR/LF and control chars except HTAB.
func SanitizeHeaderValue(v string) string {
	if v == "" {
		return v
	}
	var b strings.Builder
	b.Grow(len(v))
	for i := 0; i < len(v); i++ {
		c := v[i]
		if c == '\r' || c == '\n' || c == 0x7f {
			continue
		}
		if c < 0x20 && c != '\t' {
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
