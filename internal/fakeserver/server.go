// Package fakeserver is a scripted payment service speaking the showcase
// protocol. It backs the end-to-end tests and the CLI demo mode.
package fakeserver

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/alexbotov/showcase/internal/auth"
)

// Field is an input on a scripted page
type Field struct {
	Name     string
	Label    string
	Type     string
	Value    string
	Required bool
}

// Page is one step of a scripted showcase
type Page struct {
	Title  string
	Fields []Field
}

// Pattern is a scripted showcase
type Pattern struct {
	ID         string
	Pages      []Page
	ModifiedAt time.Time
	// MovedTo makes the showcase answer 301 towards another pattern.
	MovedTo string
	// Refuse makes request-payment refuse with this error code.
	Refuse string
}

// Payment is a recorded request-payment call
type Payment struct {
	RequestID string
	PatternID string
	Params    map[string]string
}

// Server holds the scripted patterns and the payments requested so far
type Server struct {
	patterns map[string]*Pattern
	verifier *auth.Signer
	logger   *slog.Logger

	mu       sync.Mutex
	payments []Payment
}

// Option configures a Server
type Option func(*Server)

// WithPattern adds a scripted showcase
func WithPattern(p Pattern) Option {
	return func(s *Server) {
		if p.ModifiedAt.IsZero() {
			p.ModifiedAt = time.Now()
		}
		p.ModifiedAt = p.ModifiedAt.UTC().Truncate(time.Second)
		s.patterns[p.ID] = &p
	}
}

// WithVerifier makes the server reject requests without a valid signature
func WithVerifier(signer *auth.Signer) Option {
	return func(s *Server) {
		s.verifier = signer
	}
}

// WithLogger sets the request logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New creates a server
func New(opts ...Option) *Server {
	s := &Server{
		patterns: make(map[string]*Pattern),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Payments returns the payments requested so far
func (s *Server) Payments() []Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Payment, len(s.payments))
	copy(out, s.payments)
	return out
}

func (s *Server) recordPayment(p Payment) {
	s.mu.Lock()
	s.payments = append(s.payments, p)
	s.mu.Unlock()
}

// DemoPatterns returns the showcases served by the CLI demo mode
func DemoPatterns() []Pattern {
	return []Pattern{
		{
			ID: "mobile",
			Pages: []Page{
				{
					Title: "Mobile top-up",
					Fields: []Field{
						{Name: "phone", Label: "Phone number", Type: "tel", Required: true},
					},
				},
				{
					Title: "Amount",
					Fields: []Field{
						{Name: "sum", Label: "Amount", Type: "amount", Value: "100.00", Required: true},
						{Name: "comment", Label: "Comment", Type: "text"},
					},
				},
			},
		},
		{
			ID:      "mobile-legacy",
			MovedTo: "mobile",
		},
	}
}
