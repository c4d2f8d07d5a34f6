package http1

import (
	"bufio"
	"io"
	"strings"
	"testing"
)

func readReq(t *testing.T, raw string, maxLine, maxTotal int) (*ParsedRequest, error) {
	t.Helper()
	r := &Reader{BR: bufio.NewReader(strings.NewReader(raw)), MaxHeaderBytes: maxLine, MaxTotalHeaderBytes: maxTotal}
	return r.ReadRequest()
}

func TestReader_NoBody(t *testing.T) {
	raw := "GET /path HTTP/1.1\r\nHost: x\r\n\r\n"
	pr, err := readReq(t, raw, 8<<10, 64<<10)
	if err != nil {
		t.Fatalf("ReadRequest error: %v", err)
	}
	if pr.Method != "GET" || pr.RequestURI != "/path" || pr.Proto != "HTTP/1.1" {
		t.Fatalf("parsed %q %q %q", pr.Method, pr.RequestURI, pr.Proto)
	}
	if pr.Body != nil || pr.ContentLength != 0 {
		t.Fatalf("unexpected body: cl=%d", pr.ContentLength)
	}
}

func TestReader_ContentLengthBody(t *testing.T) {
	raw := "POST / HTTP/1.1\r\nHost: x\r\nContent-Length: 5\r\n\r\nhello"
	pr, err := readReq(t, raw, 8<<10, 64<<10)
	if err != nil {
		t.Fatalf("ReadRequest error: %v", err)
	}
	if pr.ContentLength != 5 {
		t.Fatalf("ContentLength=%d", pr.ContentLength)
	}
	b, _ := io.ReadAll(pr.Body)
	if string(b) != "hello" {
		t.Fatalf("body=%q", string(b))
	}
}

func TestReader_TruncatedContentLengthBody(t *testing.T) {
	raw := "POST / HTTP/1.1\r\nHost: x\r\nContent-Length: 10\r\n\r\nshort"
	pr, err := readReq(t, raw, 8<<10, 64<<10)
	if err != nil {
		t.Fatalf("ReadRequest error: %v", err)
	}
	b, err := io.ReadAll(pr.Body)
	if err != io.ErrUnexpectedEOF {
		t.Fatalf("read error = %v, want io.ErrUnexpectedEOF", err)
	}
	if string(b) != "short" {
		t.Fatalf("body=%q", string(b))
	}
}

func TestReader_ChunkedBody(t *testing.T) {
	raw := "POST / HTTP/1.1\r\nHost: x\r\nTransfer-Encoding: chunked\r\n\r\n3\r\nhey\r\n2\r\n!!\r\n0\r\n\r\n"
	pr, err := readReq(t, raw, 8<<10, 64<<10)
	if err != nil {
		t.Fatalf("ReadRequest error: %v", err)
	}
	if pr.ContentLength != -1 {
		t.Fatalf("ContentLength=%d", pr.ContentLength)
	}
	b, _ := io.ReadAll(pr.Body)
	if string(b) != "hey!!" {
		t.Fatalf("body=%q", string(b))
	}
}

func TestReader_CLTEConflict(t *testing.T) {
	raw := "POST / HTTP/1.1\r\nHost: x\r\nTransfer-Encoding: chunked\r\nContent-Length: 5\r\n\r\n"
	if _, err := readReq(t, raw, 8<<10, 64<<10); err == nil {
		t.Fatal("expected error for CL/TE conflict")
	}
}

func TestReader_MultipleContentLengthMismatch(t *testing.T) {
	raw := "POST / HTTP/1.1\r\nHost: x\r\nContent-Length: 5, 6\r\n\r\n"
	if _, err := readReq(t, raw, 8<<10, 64<<10); err == nil {
		t.Fatal("expected error for mismatched Content-Length")
	}
}

func TestReader_RepeatedAgreeingContentLength(t *testing.T) {
	raw := "POST / HTTP/1.1\r\nHost: x\r\nContent-Length: 2\r\nContent-Length: 2\r\n\r\nhi"
	pr, err := readReq(t, raw, 8<<10, 64<<10)
	if err != nil {
		t.Fatalf("ReadRequest error: %v", err)
	}
	if pr.ContentLength != 2 {
		t.Fatalf("ContentLength=%d", pr.ContentLength)
	}
}

func TestReader_InvalidHeaderName(t *testing.T) {
	raw := "GET / HTTP/1.1\r\nBad( : v\r\n\r\n"
	if _, err := readReq(t, raw, 8<<10, 64<<10); err == nil {
		t.Fatal("expected error for invalid header name")
	}
}

func TestReader_MaxTotalHeaderBytes(t *testing.T) {
	raw := "GET / HTTP/1.1\r\nA: b\r\nC: d\r\nE: f\r\n\r\n"
	if _, err := readReq(t, raw, 8<<10, 20); err == nil {
		t.Fatal("expected error for MaxTotalHeaderBytes")
	}
}

func TestReader_DrainOnClose(t *testing.T) {
	raw := "POST / HTTP/1.1\r\nHost: x\r\nContent-Length: 4\r\n\r\nbodyGET /next HTTP/1.1\r\n"
	br := bufio.NewReader(strings.NewReader(raw))
	r := &Reader{BR: br, MaxHeaderBytes: 8 << 10}
	pr, err := r.ReadRequest()
	if err != nil {
		t.Fatalf("ReadRequest error: %v", err)
	}
	if err := pr.Body.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	// The buffered reader must now sit at the next request line.
	line, err := br.ReadString('\n')
	if err != nil {
		t.Fatalf("read next line: %v", err)
	}
	if !strings.HasPrefix(line, "GET /next ") {
		t.Fatalf("next line = %q", line)
	}
}
