package yoomoney

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alexbotov/showcase/internal/auth"
	"github.com/alexbotov/showcase/pkg/showcase"
	"github.com/google/uuid"
)

// Client is a payment service session
type Client struct {
	config    *ClientConfig
	transport showcase.Transport
	signer    *auth.Signer
	logger    *slog.Logger
}

// NewClient creates a new client
func NewClient(config *ClientConfig) (*Client, error) {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	return NewClientWithHTTPClient(config, &http.Client{
		Timeout: config.Timeout,
	})
}

// NewClientWithHTTPClient creates a new client with a custom HTTP client
func NewClientWithHTTPClient(config *ClientConfig, httpClient *http.Client) (*Client, error) {
	return newClient(config, showcase.NewHTTPTransport(httpClient))
}

func newClient(config *ClientConfig, transport showcase.Transport) (*Client, error) {
	if config.BaseURL == "" {
		return nil, errors.New("base url is required")
	}
	if _, err := url.Parse(config.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}

	c := &Client{
		config:    config,
		transport: transport,
		logger:    config.Logger,
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if config.SigningSecret != "" {
		signer, err := auth.NewSigner(config.SigningSecret, config.ClientID)
		if err != nil {
			return nil, err
		}
		c.signer = signer
	}
	return c, nil
}

// Issue sends an exchange with the session's credentials attached. It makes
// the client usable as a showcase.Transport.
func (c *Client) Issue(ctx context.Context, ex *showcase.Exchange) (*showcase.Response, error) {
	signed := &showcase.Exchange{
		Method: ex.Method,
		URL:    ex.URL,
		Header: ex.Header.Clone(),
		Body:   ex.Body,
	}
	if signed.Header == nil {
		signed.Header = make(http.Header)
	}

	requestID := uuid.New().String()
	signed.Header.Set("X-Request-Id", requestID)
	if c.config.UserAgent != "" {
		signed.Header.Set("User-Agent", c.config.UserAgent)
	}
	if c.config.AccessToken != "" {
		signed.Header.Set("Authorization", "Bearer "+c.config.AccessToken)
	}
	if c.signer != nil {
		token, err := c.signer.Sign(signed.Method, signed.URL, signed.Body)
		if err != nil {
			return nil, err
		}
		signed.Header.Set(auth.SignatureHeader, token)
	}

	resp, err := c.transport.Issue(ctx, signed)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("payment service response",
		"request_id", requestID,
		"method", signed.Method,
		"url", signed.URL,
		"status", resp.StatusCode)
	return resp, nil
}

// Endpoint returns the absolute URL of an API path
func (c *Client) Endpoint(path string) string {
	return strings.TrimRight(c.config.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

// Showcase returns the request that starts the showcase of a payment pattern.
func (c *Client) Showcase(patternID string) *showcase.Request {
	return &showcase.Request{
		Method: http.MethodGet,
		URL:    c.Endpoint("/api/showcase/" + url.PathEscape(patternID)),
	}
}

// Navigator returns a showcase navigator that issues its exchanges through
// this client.
func (c *Client) Navigator(opts ...showcase.Option) *showcase.Navigator {
	base := []showcase.Option{
		showcase.WithLogger(c.logger),
		showcase.WithMaxRedirects(c.config.MaxRedirects),
	}
	return showcase.NewNavigator(c, append(base, opts...)...)
}

// RequestPayment requests a payment for a completed showcase. answers is the
// bundle of a context in the completed state.
func (c *Client) RequestPayment(ctx context.Context, patternID string, answers map[string]string) (*RequestPaymentResult, error) {
	if len(answers) == 0 {
		return nil, errors.New("request payment: empty answer bundle")
	}
	form := make(url.Values, len(answers)+1)
	for k, v := range answers {
		form.Set(k, v)
	}
	form.Set("pattern_id", patternID)

	ex := &showcase.Exchange{
		Method: http.MethodPost,
		URL:    c.Endpoint("/api/request-payment"),
		Header: make(http.Header),
		Body:   []byte(form.Encode()),
	}
	ex.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	ex.Header.Set("Accept", "application/json")

	resp, err := c.Issue(ctx, ex)
	if err != nil {
		return nil, fmt.Errorf("request payment: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &showcase.StatusError{
			StatusCode:   resp.StatusCode,
			URL:          ex.URL,
			Body:         string(resp.Body),
			Authenticate: resp.Header.Get("WWW-Authenticate"),
		}
	}

	var result RequestPaymentResult
	if err := showcase.WireAPI.Unmarshal(resp.Body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if result.Status == StatusRefused {
		return nil, &APIError{Code: result.Error, Message: result.ErrorDescription}
	}
	return &result, nil
}
