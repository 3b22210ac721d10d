package httpclient

import (
	"net/http"
	"strings"
)

// Request is one outbound call.
type Request struct {
	Method string
	// Path is joined to the client's BaseURL unless it is an absolute
	// http(s) URL, as with audio download locations.
	Path string
	// Header is merged over the client's default headers.
	Header http.Header
	// Body is sent as is for io.Reader, []byte and string values and
	// JSON-encoded otherwise.
	Body any
}

// Response is a fully read reply.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// ContentType returns the media type without parameters.
func (r *Response) ContentType() string {
	ct, _, _ := strings.Cut(r.Header.Get("Content-Type"), ";")
	return strings.TrimSpace(ct)
}

func absoluteURL(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}
