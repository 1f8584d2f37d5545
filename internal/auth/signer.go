// Package auth signs and verifies payment service requests.
//
// Every request carries a short-lived HS256 JWT in the X-Request-Signature
// header. The token binds the HTTP method, the request target (path and
// query) and the SHA-256 digest of the body, so a captured signature cannot
// be replayed against another request.
package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SignatureHeader is the request header carrying the signature token
const SignatureHeader = "X-Request-Signature"

// DefaultTTL is how long a signature stays valid.
const DefaultTTL = 5 * time.Minute

var (
	ErrNoSecret          = errors.New("signing secret is empty")
	ErrInvalidSignature  = errors.New("invalid request signature")
	ErrSignatureExpired  = errors.New("request signature expired")
	ErrSignatureMismatch = errors.New("request signature does not match request")
)

// RequestClaims are the claims of a request signature.
type RequestClaims struct {
	Method string `json:"mth"`
	Target string `json:"tgt"`
	Digest string `json:"dgst"`
	jwt.RegisteredClaims
}

// Signer creates and checks request signatures.
type Signer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner creates a signer. The issuer is usually the client ID.
func NewSigner(secret, issuer string) (*Signer, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	return &Signer{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    DefaultTTL,
		now:    time.Now,
	}, nil
}

// WithClock returns a copy of the signer using now as its time source.
func (s *Signer) WithClock(now func() time.Time) *Signer {
	cp := *s
	cp.now = now
	return &cp
}

// Sign returns a signature token for the request.
func (s *Signer) Sign(method, rawURL string, body []byte) (string, error) {
	target, err := RequestTarget(rawURL)
	if err != nil {
		return "", err
	}
	now := s.now()
	claims := RequestClaims{
		Method: method,
		Target: target,
		Digest: Digest(body),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign request: %w", err)
	}
	return signed, nil
}

// Verify checks that token is a valid signature for the request.
func (s *Signer) Verify(tokenString, method, rawURL string, body []byte) (*RequestClaims, error) {
	claims := &RequestClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrSignatureExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	target, err := RequestTarget(rawURL)
	if err != nil {
		return nil, err
	}
	if claims.Method != method || claims.Target != target || claims.Digest != Digest(body) {
		return nil, ErrSignatureMismatch
	}
	return claims, nil
}

// Digest returns the hex SHA-256 of body
func Digest(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// RequestTarget reduces a URL to its path and query, which is all the
// receiving server can see.
func RequestTarget(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid request url %q: %w", rawURL, err)
	}
	return u.RequestURI(), nil
}
