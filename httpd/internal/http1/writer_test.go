package http1

import (
	"bufio"
	"bytes"
	"strings"
	"testing"
)

func TestStartResponse_ChunkedDropsContentLength(t *testing.T) {
	var buf bytes.Buffer
	bw := bufio.NewWriter(&buf)
	hdr := map[string][]string{"Content-Length": {"5"}, "X-A": {"1"}}
	if err := StartResponse(bw, 200, "", hdr, true, true); err != nil {
		t.Fatalf("StartResponse: %v", err)
	}
	bw.Flush()
	out := buf.String()
	if strings.Contains(out, "Content-Length") {
		t.Fatalf("Content-Length kept alongside chunked: %q", out)
	}
	if !strings.Contains(out, "Transfer-Encoding: chunked\r\n") {
		t.Fatalf("missing TE in %q", out)
	}
	if !strings.Contains(out, "X-A: 1\r\n") {
		t.Fatalf("user header dropped: %q", out)
	}
}

func TestChunkedWriteAndEnd(t *testing.T) {
	var buf bytes.Buffer
	bw := bufio.NewWriter(&buf)
	if _, err := WriteChunked(bw, []byte("hello")); err != nil {
		t.Fatalf("WriteChunked: %v", err)
	}
	if err := EndChunked(bw); err != nil {
		t.Fatalf("EndChunked: %v", err)
	}
	bw.Flush()
	if got := buf.String(); got != "5\r\nhello\r\n0\r\n\r\n" {
		t.Fatalf("wire = %q", got)
	}
}

func TestSanitizeHeaderValue(t *testing.T) {
	if got := SanitizeHeaderValue("a\r\nInjected: x"); got != "aInjected: x" {
		t.Fatalf("got %q", got)
	}
	if got := SanitizeHeaderValue("tab\tok"); got != "tab\tok" {
		t.Fatalf("got %q", got)
	}
}

func TestSanitizeHeaderKey(t *testing.T) {
	if SanitizeHeaderKey("X-Good-1") == "" {
		t.Fatal("valid token rejected")
	}
	if SanitizeHeaderKey("Bad(") != "" {
		t.Fatal("invalid token accepted")
	}
}
