package showcase

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound          = errors.New("showcase not found")
	ErrProtocolViolation = errors.New("showcase protocol violation")
	ErrDecode            = errors.New("showcase decode error")
	ErrTransport         = errors.New("showcase transport error")
	ErrTerminal          = errors.New("showcase context is terminal")
	ErrNotSubmittable    = errors.New("showcase step cannot be submitted")
)

// NotFoundError is returned when the showcase resource no longer exists.
type NotFoundError struct {
	URL string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("showcase not found: %s", e.URL)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// StatusError is returned for a status code the protocol does not expect at
// that point. Body holds the server's diagnostic message and Authenticate the
// WWW-Authenticate header, if any.
type StatusError struct {
	StatusCode   int
	URL          string
	Body         string
	Authenticate string
}

func (e *StatusError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "showcase: unexpected status %d from %s", e.StatusCode, e.URL)
	if e.Authenticate != "" {
		fmt.Fprintf(&b, " (WWW-Authenticate: %s)", e.Authenticate)
	}
	if e.Body != "" {
		fmt.Fprintf(&b, ": %s", e.Body)
	}
	return b.String()
}

func (e *StatusError) Is(target error) bool { return target == ErrProtocolViolation }

// RedirectError is returned when the server redirects more often than the
// navigator's hop budget allows, or redirects without a target.
type RedirectError struct {
	URL  string
	Hops int
}

func (e *RedirectError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("showcase: redirect without location after %d hops", e.Hops)
	}
	return fmt.Sprintf("showcase: too many redirects (%d) at %s", e.Hops, e.URL)
}

func (e *RedirectError) Is(target error) bool { return target == ErrProtocolViolation }

// DecodeError wraps a codec failure.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return "showcase: decode: " + e.Err.Error() }

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// TransportError wraps an I/O failure of the underlying transport.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("showcase: transport: %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }
