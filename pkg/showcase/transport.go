package showcase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Request describes the exchange that starts a showcase.
type Request struct {
	Method string
	URL    string
	// Params are sent as the query string for GET and as a form body otherwise.
	Params map[string]string
	// IfModifiedSince, when set, lets the server answer 304 Not Modified.
	IfModifiedSince time.Time
}

// Exchange is a single request handed to a Transport.
type Exchange struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Response is a fully read transport response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Transport issues one exchange and returns the complete response. It must
// not follow redirects and must consume the whole body before returning.
type Transport interface {
	Issue(ctx context.Context, ex *Exchange) (*Response, error)
}

// HTTPTransport is a Transport backed by net/http.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport creates a transport using a copy of client with redirect
// following disabled. A nil client uses a 30 second timeout.
func NewHTTPTransport(client *http.Client) *HTTPTransport {
	c := &http.Client{Timeout: 30 * time.Second}
	if client != nil {
		cp := *client
		c = &cp
	}
	c.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return &HTTPTransport{client: c}
}

// Issue performs the exchange
func (t *HTTPTransport) Issue(ctx context.Context, ex *Exchange) (*Response, error) {
	var body io.Reader
	if ex.Body != nil {
		body = bytes.NewReader(ex.Body)
	}
	req, err := http.NewRequestWithContext(ctx, ex.Method, ex.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, vs := range ex.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       respBody,
	}, nil
}

// formBody encodes params as application/x-www-form-urlencoded.
func formBody(params map[string]string) []byte {
	values := make(url.Values, len(params))
	for k, v := range params {
		values.Set(k, v)
	}
	return []byte(values.Encode())
}

// exchangeFor builds the exchange for a starting request.
func exchangeFor(req *Request) (*Exchange, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	ex := &Exchange{
		Method: method,
		URL:    req.URL,
		Header: make(http.Header),
	}
	ex.Header.Set("Accept", "application/json")
	if !req.IfModifiedSince.IsZero() {
		ex.Header.Set("If-Modified-Since", req.IfModifiedSince.UTC().Format(http.TimeFormat))
	}
	if len(req.Params) == 0 {
		return ex, nil
	}
	if method == http.MethodGet || method == http.MethodHead {
		u, err := url.Parse(req.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid showcase url %q: %w", req.URL, err)
		}
		q := u.Query()
		for k, v := range req.Params {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
		ex.URL = u.String()
		return ex, nil
	}
	ex.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	ex.Body = formBody(req.Params)
	return ex, nil
}
