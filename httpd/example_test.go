package httpd_test

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strings"

	"dqx0.com/go/httpd/httpd"
)

// Example starts a server on an ephemeral port, issues one raw
// HTTP/1.1 request against it, and shuts it down.
func Example() {
	h := httpd.HandlerFunc(func(ctx context.Context, r *httpd.Request) (*httpd.Response, error) {
		return httpd.TextResponse(200, "hello "+r.Target), nil
	})
	ln, drv, err := httpd.New("127.0.0.1:0").Standalone(httpd.SharedHandler(h))
	if err != nil {
		fmt.Println("listen:", err)
		return
	}

	c, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		fmt.Println("dial:", err)
		return
	}
	io.WriteString(c, "GET /world HTTP/1.1\r\nHost: example\r\nConnection: close\r\n\r\n")
	status, _ := bufio.NewReader(c).ReadString('\n')
	fmt.Println(strings.TrimSpace(status))
	c.Close()

	ln.Close()
	drv.Run()
	// Output:
	// HTTP/1.1 200 OK
}
