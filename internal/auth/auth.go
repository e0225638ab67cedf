package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Mode selects the verification strategy for bearer tokens.
type Mode string

const (
	// ModeClerk verifies Clerk session JWTs against the instance JWKS endpoint.
	ModeClerk Mode = "clerk"
	// ModeNoop skips verification and treats the bearer token as the Clerk user id (local development and tests).
	ModeNoop Mode = "noop"
)

// Config captures the inputs required to initialize a verifier.
type Config struct {
	Mode     Mode
	JWKSURL  string
	Issuer   string
	Audience string
}

// Session is the authenticated identity extracted from a session token.
type Session struct {
	ClerkID   string
	SessionID string
	ExpiresAt int64
}

// Verifier verifies a bearer token and returns the session it represents.
type Verifier interface {
	Verify(ctx context.Context, token string) (Session, error)
}

// NewVerifier constructs a Verifier matching the supplied configuration.
func NewVerifier(cfg Config) (Verifier, error) {
	switch cfg.Mode {
	case ModeClerk:
		return newClerkVerifier(cfg)
	case ModeNoop:
		return noopVerifier{}, nil
	default:
		return nil, fmt.Errorf("unsupported auth mode: %s", cfg.Mode)
	}
}

var (
	errMissingAuthHeader = errors.New("authorization header missing")
	errInvalidAuthHeader = errors.New("authorization header is malformed")
)

type ctxKey struct{}

// Middleware enforces authentication for the wrapped handlers and stores the
// verified session in the request context.
func Middleware(verifier Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}

			session, err := verifier.Verify(r.Context(), token)
			if err != nil {
				http.Error(w, "invalid session token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, session)))
		})
	}
}

// SessionFromContext extracts the verified session from the request context.
func SessionFromContext(ctx context.Context) (Session, bool) {
	session, ok := ctx.Value(ctxKey{}).(Session)
	return session, ok
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errMissingAuthHeader
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", errInvalidAuthHeader
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errInvalidAuthHeader
	}
	return token, nil
}
