package httpd

// RequestHead is the wire-level head of a decoded request.
type RequestHead struct {
	Method string
	Target string
	Proto  string
	Header Header
}

// ResponseHead is the wire-level head of an outgoing response.
type ResponseHead struct {
	StatusCode int
	Reason     string
	Header     Header
}

// RequestMessage is a RequestHead plus an optional body stream, as
// produced by a Transport. A nil Body means the peer sent no body,
// which is not the same as an empty stream.
type RequestMessage struct {
	Head RequestHead
	Body *BodyStream
}

// ResponseMessage is a ResponseHead plus an optional body stream, as
// submitted to a Transport for writing.
type ResponseMessage struct {
	Head ResponseHead
	Body *BodyStream
}

// RequestHeadOnly builds a bodyless request message.
func RequestHeadOnly(h RequestHead) RequestMessage {
	return RequestMessage{Head: h}
}

// RequestWithBody builds a request message carrying body.
func RequestWithBody(h RequestHead, body *BodyStream) RequestMessage {
	return RequestMessage{Head: h, Body: body}
}

// ResponseHeadOnly builds a bodyless response message. Transports may
// skip all body framing for it.
func ResponseHeadOnly(h ResponseHead) ResponseMessage {
	return ResponseMessage{Head: h}
}

// ResponseWithBody builds a response message carrying body.
func ResponseWithBody(h ResponseHead, body *BodyStream) ResponseMessage {
	return ResponseMessage{Head: h, Body: body}
}
