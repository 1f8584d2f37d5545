package fakeserver

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/alexbotov/showcase/internal/auth"
	"github.com/gorilla/mux"
)

// Router creates and configures the HTTP router
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.Use(s.recoveryMiddleware)
	r.Use(s.loggingMiddleware)
	if s.verifier != nil {
		r.Use(s.signatureMiddleware)
	}

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/showcase/{pattern}", s.handleShowcase).Methods("GET")
	api.HandleFunc("/showcase/{pattern}/steps/{step:[0-9]+}", s.handleStep).Methods("POST")
	api.HandleFunc("/request-payment", s.handleRequestPayment).Methods("POST")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "not_found", "Resource not found")
	})

	return r
}

// statusRecorder keeps the status code for logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("fake payment service",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}

// recoveryMiddleware recovers from panics
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.Error("handler panic", "error", err, "path", r.URL.Path)
				respondError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// signatureMiddleware verifies the request signature. The body is read and
// put back for the handlers.
func (s *Server) signatureMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			respondError(w, http.StatusBadRequest, "illegal_params", "Cannot read body")
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		token := r.Header.Get(auth.SignatureHeader)
		if token == "" {
			w.Header().Set("WWW-Authenticate", `Signature error="missing_signature"`)
			respondError(w, http.StatusUnauthorized, "invalid_request", "Request signature required")
			return
		}
		if _, err := s.verifier.Verify(token, r.Method, r.URL.RequestURI(), body); err != nil {
			w.Header().Set("WWW-Authenticate", `Signature error="invalid_signature"`)
			respondError(w, http.StatusUnauthorized, "invalid_request", err.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}
