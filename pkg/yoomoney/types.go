package yoomoney

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/alexbotov/showcase/pkg/showcase"
)

// Error codes returned by request-payment
const (
	ErrIllegalParams       = "illegal_params"
	ErrPayeeNotFound       = "payee_not_found"
	ErrPaymentRefused      = "payment_refused"
	ErrNotEnoughFunds      = "not_enough_funds"
	ErrLimitExceeded       = "limit_exceeded"
	ErrAuthorizationReject = "authorization_reject"
	ErrAccountBlocked      = "account_blocked"
	ErrExtActionRequired   = "ext_action_required"
)

// RequestStatus is the outcome of a payment request
type RequestStatus string

const (
	StatusSuccess       RequestStatus = "success"
	StatusRefused       RequestStatus = "refused"
	StatusHoldForPickup RequestStatus = "hold_for_pickup"
)

// APIError represents a refused request
type APIError struct {
	Code    string `json:"error"`
	Message string `json:"error_description,omitempty"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Code + ": " + e.Message
	}
	return e.Code
}

// RequestPaymentResult is the response of /api/request-payment
type RequestPaymentResult struct {
	Status            RequestStatus `json:"status"`
	Error             string        `json:"error,omitempty"`
	ErrorDescription  string        `json:"error_description,omitempty"`
	RequestID         string        `json:"request_id,omitempty"`
	ContractAmount    json.Number   `json:"contract_amount,omitempty"`
	Balance           json.Number   `json:"balance,omitempty"`
	AccountUnblockURI string        `json:"account_unblock_uri,omitempty"`
	ExtActionURI      string        `json:"ext_action_uri,omitempty"`
}

// ClientConfig holds the configuration for the client
type ClientConfig struct {
	BaseURL       string
	ClientID      string
	AccessToken   string
	SigningSecret string
	UserAgent     string
	Timeout       time.Duration
	// MaxRedirects is the showcase redirect hop budget. Zero follows no
	// redirects; DefaultConfig sets showcase.DefaultMaxRedirects.
	MaxRedirects int
	Logger       *slog.Logger
}

// DefaultConfig returns a default client configuration
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		UserAgent:    "showcase-go",
		Timeout:      30 * time.Second,
		MaxRedirects: showcase.DefaultMaxRedirects,
	}
}
