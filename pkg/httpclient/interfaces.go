package httpclient

import (
	"context"
	"fmt"
	"net/http"
)

// Request describes a single API call. Values are treated as immutable:
// anything that needs to add headers works on a Clone.
type Request struct {
	Method  string
	Path    string
	Headers map[string]string
	Query   map[string]string
	Body    any
}

// Clone returns a copy whose header and query maps can be changed without
// touching the receiver.
func (r Request) Clone() Request {
	out := r
	out.Headers = copyMap(r.Headers)
	out.Query = copyMap(r.Query)
	return out
}

// WithHeader returns a clone of r with key set to value.
func (r Request) WithHeader(key, value string) Request {
	out := r.Clone()
	if out.Headers == nil {
		out.Headers = make(map[string]string, 1)
	}
	out.Headers[key] = value
	return out
}

func copyMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
	Status() string
	Header(key string) string
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
type Client interface {
	Do(ctx context.Context, req Request) (Response, error)
}

// StatusError reports a response outside the 2xx range. The response is kept
// so callers can still read a server-supplied message from the body.
type StatusError struct {
	Response Response
}

func (e *StatusError) Error() string {
	if e == nil || e.Response == nil {
		return "http status error"
	}
	return fmt.Sprintf("http response status %d", e.Response.StatusCode())
}

// StatusCode returns the response status, or 0 when no response is attached.
func (e *StatusError) StatusCode() int {
	if e == nil || e.Response == nil {
		return 0
	}
	return e.Response.StatusCode()
}

// StatusText returns the reason phrase of the response status.
func (e *StatusError) StatusText() string {
	if e == nil || e.Response == nil {
		return ""
	}
	if text := http.StatusText(e.Response.StatusCode()); text != "" {
		return text
	}
	return e.Response.Status()
}
