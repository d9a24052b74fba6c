// Package chttp (Configured HTTP) provides the http.Client used for the
// upstream requests, that sets the default headers on every request.
package chttp

import (
	"net/http"
	"time"
)

// DefaultAccept is the Accept header sent with every request.
const DefaultAccept = "application/json, text/csv, */*"

// NewWithTransport inits the HTTP client with the timeout and the transport
// that sets the User-Agent and Accept headers.  If rt is nil, the
// http.DefaultTransport is used.  The timeout applies to a single request,
// including reading the body.
func NewWithTransport(userAgent string, timeout time.Duration, rt http.RoundTripper) *http.Client {
	cl := http.Client{
		Transport: NewTransport(rt, userAgent),
		Timeout:   timeout,
	}
	return &cl
}

// New returns the HTTP client with the default transport.
func New(userAgent string, timeout time.Duration) *http.Client {
	return NewWithTransport(userAgent, timeout, nil)
}

// Transport is the http.RoundTripper that adds the headers to the request,
// unless the request already has them.
type Transport struct {
	rt     http.RoundTripper
	header http.Header
}

// NewTransport wraps rt.
func NewTransport(rt http.RoundTripper, userAgent string) *Transport {
	if rt == nil {
		rt = http.DefaultTransport
	}
	h := make(http.Header, 2)
	h.Set("Accept", DefaultAccept)
	if userAgent != "" {
		h.Set("User-Agent", userAgent)
	}
	return &Transport{rt: rt, header: h}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	for k, v := range t.header {
		if r.Header.Get(k) == "" {
			r.Header[k] = v
		}
	}
	return t.rt.RoundTrip(r)
}
