package httpd

import (
	"net/textproto"
)

// Header maps canonicalized field names to their values.
type Header map[string][]string

func (h Header) Get(key string) string {
	if h == nil {
		return ""
	}
	k := textproto.CanonicalMIMEHeaderKey(key)
	if vv, ok := h[k]; ok && len(vv) > 0 {
		return vv[0]
	}
	return ""
}

// Values returns all values for key, in the order they were added.
func (h Header) Values(key string) []string {
	if h == nil {
		return nil
	}
	return h[textproto.CanonicalMIMEHeaderKey(key)]
}

func (h Header) Set(key, value string) {
	if h == nil {
		return
	}
	h[textproto.CanonicalMIMEHeaderKey(key)] = []string{value}
}

func (h Header) Add(key, value string) {
	if h == nil {
		return
	}
	k := textproto.CanonicalMIMEHeaderKey(key)
	h[k] = append(h[k], value)
}

func (h Header) Del(key string) {
	if h == nil {
		return
	}
	delete(h, textproto.CanonicalMIMEHeaderKey(key))
}

// Clone returns a deep copy of h, or nil if h is nil.
func (h Header) Clone() Header {
	if h == nil {
		return nil
	}
	h2 := make(Header, len(h))
	for k, vv := range h {
		h2[k] = append([]string(nil), vv...)
	}
	return h2
}
