package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_NoopMode(t *testing.T) {
	verifier, err := NewVerifier(Config{Mode: ModeNoop})
	require.NoError(t, err)

	var got Session
	var called bool
	handler := Middleware(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = SessionFromContext(r.Context())
		called = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer user_2abc")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.True(t, called)
	assert.Equal(t, "user_2abc", got.ClerkID)
}

func TestMiddleware_RejectsMalformedHeader(t *testing.T) {
	verifier, err := NewVerifier(Config{Mode: ModeNoop})
	require.NoError(t, err)

	handler := Middleware(verifier)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	for name, header := range map[string]string{
		"missing":    "",
		"not bearer": "Basic dXNlcjpwYXNz",
		"empty":      "Bearer ",
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestNewVerifier_UnsupportedMode(t *testing.T) {
	_, err := NewVerifier(Config{Mode: Mode("saml")})
	assert.Error(t, err)
}

func TestNewVerifier_ClerkRequiresJWKSURL(t *testing.T) {
	_, err := NewVerifier(Config{Mode: ModeClerk})
	assert.Error(t, err)
}
