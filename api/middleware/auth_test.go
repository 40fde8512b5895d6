package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/veggiepos-backend/pkg/auth"
	"github.com/angelmondragon/veggiepos-backend/pkg/auth/session"
	"github.com/angelmondragon/veggiepos-backend/pkg/config"
)

var testJWT = config.JWTConfig{Secret: "till-secret", Issuer: "veggiepos", ExpirationMinutes: 60}

type stubSessionVerifier struct {
	ok  bool
	err error
}

func (s stubSessionVerifier) HasSession(context.Context, string) (bool, error) {
	return s.ok, s.err
}

func mintTestToken(t *testing.T, cfg config.JWTConfig, username string, issuedAt time.Time) (string, string) {
	t.Helper()
	accessID := session.NewAccessID()
	token, err := auth.MintAccessToken(cfg, issuedAt, auth.AccessTokenPayload{
		UserID:   uuid.New(),
		Username: username,
		JTI:      accessID,
	})
	require.NoError(t, err)
	return token, accessID
}

func TestAuthRejections(t *testing.T) {
	valid, _ := mintTestToken(t, testJWT, "alice", time.Now())
	expired, _ := mintTestToken(t, testJWT, "alice", time.Now().Add(-2*time.Hour))
	foreign, _ := mintTestToken(t, config.JWTConfig{Secret: "other", Issuer: "veggiepos", ExpirationMinutes: 60}, "alice", time.Now())

	tests := []struct {
		name     string
		header   string
		verifier stubSessionVerifier
		want     int
	}{
		{"missing header", "", stubSessionVerifier{ok: true}, http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", stubSessionVerifier{ok: true}, http.StatusUnauthorized},
		{"expired token", "Bearer " + expired, stubSessionVerifier{ok: true}, http.StatusUnauthorized},
		{"wrong signing key", "Bearer " + foreign, stubSessionVerifier{ok: true}, http.StatusUnauthorized},
		{"logged out session", "Bearer " + valid, stubSessionVerifier{ok: false}, http.StatusUnauthorized},
		{"session store down", "Bearer " + valid, stubSessionVerifier{err: errors.New("redis down")}, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := Auth(testJWT, tt.verifier, nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))

			req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			assert.False(t, called)
		})
	}
}

func TestAuthStoresIdentity(t *testing.T) {
	token, accessID := mintTestToken(t, testJWT, "alice", time.Now())

	for _, header := range []string{"Bearer " + token, "bearer " + token, token} {
		var user, cashier, sessionID string
		handler := Auth(testJWT, stubSessionVerifier{ok: true}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user = UserIDFromContext(r.Context())
			cashier = CashierFromContext(r.Context())
			sessionID = SessionIDFromContext(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
		req.Header.Set("Authorization", header)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code, header)
		assert.NotEmpty(t, user)
		assert.Equal(t, "alice", cashier)
		assert.Equal(t, accessID, sessionID)
	}
}

func TestAuthWithoutVerifierTrustsToken(t *testing.T) {
	token, _ := mintTestToken(t, testJWT, "bob", time.Now())
	handler := Auth(testJWT, nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
