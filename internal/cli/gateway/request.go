package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Request describes one API call. It is treated as immutable once handed
// to the gateway; replays work on a clone.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte

	// Anonymous requests never carry a token and a 401 is reported as a
	// plain ServerError instead of triggering a refresh.
	Anonymous bool
}

// NewRequest builds a request with an optional JSON body
func NewRequest(method, path string, body any) (Request, error) {
	req := Request{
		Method: method,
		Path:   path,
		Header: http.Header{},
	}
	req.Header.Set("Accept", "application/json")

	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return Request{}, fmt.Errorf("failed to marshal request: %w", err)
		}
		req.Body = data
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// WithBearer returns a copy of the request carrying token in the
// Authorization header. An empty token removes the header.
func (r Request) WithBearer(token string) Request {
	clone := r
	clone.Header = r.Header.Clone()
	if clone.Header == nil {
		clone.Header = http.Header{}
	}
	if token == "" {
		clone.Header.Del("Authorization")
	} else {
		clone.Header.Set("Authorization", "Bearer "+token)
	}
	return clone
}

func (r Request) build(ctx context.Context, baseURL string) (*http.Request, error) {
	target := baseURL + r.Path
	if len(r.Query) > 0 {
		target += "?" + r.Query.Encode()
	}

	var body *bytes.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}

	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, r.Method, target, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, r.Method, target, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, values := range r.Header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	return req, nil
}
