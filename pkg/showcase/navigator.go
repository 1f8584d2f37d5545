package showcase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// DefaultMaxRedirects is the number of 301 hops Begin follows.
const DefaultMaxRedirects = 1

// maxDiagnosticBody caps the server body copied into a StatusError.
const maxDiagnosticBody = 4096

// Navigator walks showcases over a Transport.
type Navigator struct {
	transport    Transport
	codec        Codec
	logger       *slog.Logger
	maxRedirects int
	now          func() time.Time
}

// Option configures a Navigator
type Option func(*Navigator)

// WithCodec replaces the default JSONCodec.
func WithCodec(codec Codec) Option {
	return func(n *Navigator) {
		n.codec = codec
	}
}

// WithLogger sets the logger for exchange tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Navigator) {
		n.logger = logger
	}
}

// WithMaxRedirects sets how many 301 responses Begin follows.
func WithMaxRedirects(hops int) Option {
	return func(n *Navigator) {
		n.maxRedirects = hops
	}
}

// WithClock sets the clock used when the server sends no Last-Modified.
func WithClock(now func() time.Time) Option {
	return func(n *Navigator) {
		n.now = now
	}
}

// NewNavigator creates a navigator issuing exchanges through transport.
func NewNavigator(transport Transport, opts ...Option) *Navigator {
	n := &Navigator{
		transport:    transport,
		codec:        JSONCodec{},
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxRedirects: DefaultMaxRedirects,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.maxRedirects < 0 {
		n.maxRedirects = 0
	}
	return n
}

// Begin fetches the first page of a showcase.
//
// A 300 response yields a context presenting the page, 304 a not-modified
// context without a page. A 301 is followed to its Location while the hop
// budget lasts. 404 returns a *NotFoundError and any other status a
// *StatusError.
func (n *Navigator) Begin(ctx context.Context, req *Request) (*Context, error) {
	return n.begin(ctx, req, 0)
}

func (n *Navigator) begin(ctx context.Context, req *Request, hops int) (*Context, error) {
	ex, err := exchangeFor(req)
	if err != nil {
		return nil, err
	}
	resp, err := n.issue(ctx, ex)
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case http.StatusMultipleChoices:
		step, err := n.decodeStep(ex.URL, resp)
		if err != nil {
			return nil, err
		}
		return NewContext(step, n.lastModified(resp)), nil

	case http.StatusMovedPermanently:
		location := resp.Header.Get("Location")
		if location == "" {
			return nil, &RedirectError{Hops: hops + 1}
		}
		target := resolve(ex.URL, location)
		if hops >= n.maxRedirects {
			return nil, &RedirectError{URL: target, Hops: hops + 1}
		}
		n.logger.Debug("showcase moved", "from", ex.URL, "to", target)
		next := *req
		next.URL = target
		return n.begin(ctx, &next, hops+1)

	case http.StatusNotModified:
		return &Context{
			lastModified: n.lastModified(resp),
			state:        StateNotModified,
		}, nil

	case http.StatusNotFound:
		return nil, &NotFoundError{URL: ex.URL}

	default:
		return nil, statusError(ex.URL, resp)
	}
}

// Submit posts the current step of wc and applies the outcome to wc.
//
// 200 completes the context with the decoded answers, 300 pushes the new page
// onto the history, and 400 replaces the current page with the server's
// corrected copy without touching the history. On error wc is unchanged.
func (n *Navigator) Submit(ctx context.Context, wc *Context) (*Context, error) {
	if wc.State().Terminal() {
		return nil, ErrTerminal
	}
	step := wc.Current()
	if !step.Submittable() {
		return nil, ErrNotSubmittable
	}

	ex := &Exchange{
		Method: http.MethodPost,
		URL:    step.SubmitURL,
		Header: make(http.Header),
		Body:   formBody(step.Params()),
	}
	ex.Header.Set("Accept", "application/json")
	ex.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	ex.Header.Set("If-Modified-Since", wc.LastModified().UTC().Format(http.TimeFormat))

	resp, err := n.issue(ctx, ex)
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case http.StatusOK:
		answers, err := n.codec.DecodeAnswers(resp.Body)
		if err != nil {
			return nil, decodeError(err)
		}
		if len(answers) == 0 {
			return nil, &DecodeError{Err: errors.New("empty answer bundle")}
		}
		wc.complete(answers, n.lastModified(resp))
		return wc, nil

	case http.StatusMultipleChoices:
		next, err := n.decodeStep(ex.URL, resp)
		if err != nil {
			return nil, err
		}
		wc.advance(next, n.lastModified(resp))
		return wc, nil

	case http.StatusBadRequest:
		replacement, err := n.decodeStep(ex.URL, resp)
		if err != nil {
			return nil, err
		}
		if replacement.SubmitURL == "" {
			replacement.SubmitURL = step.SubmitURL
		}
		// A rejected step keeps the caller's input.
		for k, v := range step.Values {
			replacement.Set(k, v)
		}
		wc.reject(replacement, n.lastModified(resp))
		return wc, nil

	case http.StatusNotFound:
		return nil, &NotFoundError{URL: ex.URL}

	default:
		return nil, statusError(ex.URL, resp)
	}
}

func (n *Navigator) issue(ctx context.Context, ex *Exchange) (*Response, error) {
	start := n.now()
	resp, err := n.transport.Issue(ctx, ex)
	if err != nil {
		n.logger.Warn("showcase exchange failed", "method", ex.Method, "url", ex.URL, "error", err)
		return nil, &TransportError{URL: ex.URL, Err: err}
	}
	n.logger.Debug("showcase exchange",
		"method", ex.Method,
		"url", ex.URL,
		"status", resp.StatusCode,
		"duration", n.now().Sub(start))
	return resp, nil
}

// decodeStep builds a step from a page response; the submit URL comes from
// the Location header and may be relative to requestURL.
func (n *Navigator) decodeStep(requestURL string, resp *Response) (*Step, error) {
	form, err := n.codec.DecodeForm(resp.Body)
	if err != nil {
		return nil, decodeError(err)
	}
	submitURL := resp.Header.Get("Location")
	if submitURL != "" {
		submitURL = resolve(requestURL, submitURL)
	}
	return NewStep(form, submitURL), nil
}

func (n *Navigator) lastModified(resp *Response) time.Time {
	if v := resp.Header.Get("Last-Modified"); v != "" {
		if t, err := http.ParseTime(v); err == nil {
			return t
		}
		n.logger.Debug("ignoring malformed Last-Modified", "value", v)
	}
	return n.now().UTC().Truncate(time.Second)
}

func resolve(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

func decodeError(err error) error {
	var de *DecodeError
	if errors.As(err, &de) {
		return err
	}
	return &DecodeError{Err: err}
}

func statusError(requestURL string, resp *Response) *StatusError {
	body := resp.Body
	if len(body) > maxDiagnosticBody {
		body = body[:maxDiagnosticBody]
	}
	return &StatusError{
		StatusCode:   resp.StatusCode,
		URL:          requestURL,
		Body:         string(body),
		Authenticate: resp.Header.Get("WWW-Authenticate"),
	}
}
