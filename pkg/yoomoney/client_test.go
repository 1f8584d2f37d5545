package yoomoney

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexbotov/showcase/internal/auth"
	"github.com/alexbotov/showcase/pkg/showcase"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

const (
	testClientID      = "test-client"
	testAccessToken   = "test-access-token"
	testSigningSecret = "test-signing-secret"
)

// mockServer creates a test server that validates the session headers and
// hands the request body to handler
func mockServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request, body []byte)) *httptest.Server {
	verifier, err := auth.NewSigner(testSigningSecret, testClientID)
	if err != nil {
		t.Fatalf("Failed to create verifier: %v", err)
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer "+testAccessToken {
			t.Errorf("Expected bearer token, got %q", got)
		}
		if _, err := uuid.Parse(r.Header.Get("X-Request-Id")); err != nil {
			t.Errorf("Expected X-Request-Id to be a UUID, got %q", r.Header.Get("X-Request-Id"))
		}
		if got := r.Header.Get("User-Agent"); got != "showcase-test" {
			t.Errorf("Expected User-Agent showcase-test, got %q", got)
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("Failed to read body: %v", err)
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}

		claims, err := verifier.Verify(r.Header.Get(auth.SignatureHeader), r.Method, r.URL.RequestURI(), body)
		if err != nil {
			t.Errorf("Signature verification failed: %v", err)
		} else if claims.Issuer != testClientID {
			t.Errorf("Expected issuer %s, got %s", testClientID, claims.Issuer)
		}

		handler(w, r, body)
	}))
}

// newTestClient creates a client configured for testing
func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(&ClientConfig{
		BaseURL:       baseURL,
		ClientID:      testClientID,
		AccessToken:   testAccessToken,
		SigningSecret: testSigningSecret,
		UserAgent:     "showcase-test",
		Timeout:       5 * time.Second,
		MaxRedirects:  showcase.DefaultMaxRedirects,
	})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient(&ClientConfig{}); err == nil {
		t.Error("Expected error for missing base URL")
	}
}

func TestShowcaseWalk(t *testing.T) {
	server := mockServer(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		switch r.URL.Path {
		case "/api/showcase/5551":
			w.Header().Set("Location", "/api/showcase/5551/submit")
			w.WriteHeader(http.StatusMultipleChoices)
			io.WriteString(w, `{"title":"Top-up","form":[{"type":"text","name":"phone","required":true}]}`)
		case "/api/showcase/5551/submit":
			if string(body) != "phone=79001234567" {
				t.Errorf("Expected form body phone=79001234567, got %q", body)
			}
			io.WriteString(w, `{"pattern_id":"5551","phone":"79001234567","sum":"10.00"}`)
		default:
			http.NotFound(w, r)
		}
	})
	defer server.Close()

	client := newTestClient(t, server.URL)
	nav := client.Navigator()
	ctx := context.Background()

	wc, err := nav.Begin(ctx, client.Showcase("5551"))
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	wc.Current().Set("phone", "79001234567")
	if _, err := nav.Submit(ctx, wc); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if wc.State() != showcase.StateCompleted {
		t.Fatalf("Expected state %s, got %s", showcase.StateCompleted, wc.State())
	}

	want := map[string]string{"pattern_id": "5551", "phone": "79001234567", "sum": "10.00"}
	if diff := cmp.Diff(want, wc.Answers()); diff != "" {
		t.Errorf("Answers mismatch (-want +got):\n%s", diff)
	}
}

func TestShowcaseNotFound(t *testing.T) {
	server := mockServer(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		http.NotFound(w, r)
	})
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.Navigator().Begin(context.Background(), client.Showcase("404"))
	if !errors.Is(err, showcase.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestRequestPayment_Success(t *testing.T) {
	server := mockServer(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		if r.URL.Path != "/api/request-payment" {
			t.Errorf("Expected path /api/request-payment, got %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if string(body) != "pattern_id=5551&phone=79001234567&sum=10.00" {
			t.Errorf("Unexpected body %q", body)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"status":"success","request_id":"req-1","contract_amount":10.00,"balance":250.50}`)
	})
	defer server.Close()

	client := newTestClient(t, server.URL)
	result, err := client.RequestPayment(context.Background(), "5551", map[string]string{
		"phone": "79001234567",
		"sum":   "10.00",
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.Status != StatusSuccess {
		t.Errorf("Expected status success, got %s", result.Status)
	}
	if result.RequestID != "req-1" {
		t.Errorf("Expected request_id req-1, got %s", result.RequestID)
	}
	if result.ContractAmount.String() != "10.00" {
		t.Errorf("Expected contract_amount 10.00, got %s", result.ContractAmount)
	}
	if result.Balance.String() != "250.50" {
		t.Errorf("Expected balance 250.50, got %s", result.Balance)
	}
}

func TestRequestPayment_Refused(t *testing.T) {
	server := mockServer(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		io.WriteString(w, `{"status":"refused","error":"not_enough_funds","error_description":"Balance too low"}`)
	})
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.RequestPayment(context.Background(), "5551", map[string]string{"sum": "10.00"})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %T", err)
	}
	if apiErr.Code != ErrNotEnoughFunds {
		t.Errorf("Expected error code '%s', got '%s'", ErrNotEnoughFunds, apiErr.Code)
	}
}

func TestRequestPayment_Unauthorized(t *testing.T) {
	server := mockServer(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
		w.WriteHeader(http.StatusUnauthorized)
	})
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.RequestPayment(context.Background(), "5551", map[string]string{"sum": "10.00"})

	var se *showcase.StatusError
	if !errors.As(err, &se) {
		t.Fatalf("Expected StatusError, got %v", err)
	}
	if se.Authenticate != `Bearer error="invalid_token"` {
		t.Errorf("Expected WWW-Authenticate to be kept, got %q", se.Authenticate)
	}
}

func TestRequestPayment_EmptyAnswers(t *testing.T) {
	client, err := NewClient(&ClientConfig{BaseURL: "https://example.com"})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if _, err := client.RequestPayment(context.Background(), "5551", nil); err == nil {
		t.Error("Expected error for empty answers")
	}
}

func TestEndpoint(t *testing.T) {
	client, err := NewClient(&ClientConfig{BaseURL: "https://example.com/"})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if got := client.Endpoint("/api/request-payment"); got != "https://example.com/api/request-payment" {
		t.Errorf("Unexpected endpoint %s", got)
	}
	if got := client.Showcase("a b").URL; got != "https://example.com/api/showcase/a%20b" {
		t.Errorf("Unexpected showcase URL %s", got)
	}
}

func TestNavigatorHonoursRedirectBudget(t *testing.T) {
	server := mockServer(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		switch r.URL.Path {
		case "/api/showcase/old":
			w.Header().Set("Location", "/api/showcase/new")
			w.WriteHeader(http.StatusMovedPermanently)
		case "/api/showcase/new":
			w.Header().Set("Location", "/api/showcase/new/submit")
			w.WriteHeader(http.StatusMultipleChoices)
			io.WriteString(w, `{"title":"New","form":[]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	defer server.Close()

	tests := []struct {
		name      string
		redirects int
		wantErr   bool
	}{
		{"ZeroFollowsNone", 0, true},
		{"DefaultFollowsOne", showcase.DefaultMaxRedirects, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(&ClientConfig{
				BaseURL:       server.URL,
				ClientID:      testClientID,
				AccessToken:   testAccessToken,
				SigningSecret: testSigningSecret,
				UserAgent:     "showcase-test",
				MaxRedirects:  tt.redirects,
			})
			if err != nil {
				t.Fatalf("NewClient failed: %v", err)
			}
			_, err = client.Navigator().Begin(context.Background(), client.Showcase("old"))
			var re *showcase.RedirectError
			if got := errors.As(err, &re); got != tt.wantErr {
				t.Errorf("Expected RedirectError %v, got %v", tt.wantErr, err)
			}
		})
	}

	if got := DefaultConfig().MaxRedirects; got != showcase.DefaultMaxRedirects {
		t.Errorf("Expected default budget %d, got %d", showcase.DefaultMaxRedirects, got)
	}
}

func TestRequestPayment_MalformedResponse(t *testing.T) {
	server := mockServer(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		io.WriteString(w, `{"status":"success","contract_amount":`)
	})
	defer server.Close()

	client := newTestClient(t, server.URL)
	if _, err := client.RequestPayment(context.Background(), "5551", map[string]string{"sum": "10.00"}); err == nil {
		t.Error("Expected error for a truncated response")
	}
}
