package httpd

// Response is the uniform response type returned by a Handler. A nil
// or empty Body is encoded without any body framing.
type Response struct {
	StatusCode int
	Header     Header
	Body       *BodyStream
}

// TextResponse builds a response with a text/plain body.
func TextResponse(status int, body string) *Response {
	h := Header{}
	h.Set("Content-Type", "text/plain; charset=utf-8")
	return &Response{StatusCode: status, Header: h, Body: BytesBody([]byte(body))}
}

// StatusResponse builds a bodyless response.
func StatusResponse(status int) *Response {
	return &Response{StatusCode: status, Header: Header{}, Body: EmptyBody()}
}
