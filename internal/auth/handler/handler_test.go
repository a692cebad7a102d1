package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"redressal/internal/auth"
	id "redressal/pkg/domain"
)

// fakeRevoker records revocations in memory.
type fakeRevoker struct {
	mu   sync.Mutex
	ttls map[string]time.Duration
}

func newFakeRevoker() *fakeRevoker {
	return &fakeRevoker{ttls: make(map[string]time.Duration)}
}

func (f *fakeRevoker) RevokeToken(_ context.Context, jti string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ttls[jti] = ttl
	return nil
}

func (f *fakeRevoker) revoked(jti string) (time.Duration, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ttl, ok := f.ttls[jti]
	return ttl, ok
}

type env struct {
	router  http.Handler
	jwt     *auth.JWTService
	revoker *fakeRevoker
}

func newEnv(t *testing.T) *env {
	t.Helper()
	jwtService := auth.NewJWTService("test-signing-key", "redressal", "redressal-api")
	revoker := newFakeRevoker()

	handler := New(jwtService, revoker, slog.Default())
	router := chi.NewRouter()
	handler.Register(router)
	handler.RegisterTokenMint(router)
	return &env{router: router, jwt: jwtService, revoker: revoker}
}

func TestMintToken(t *testing.T) {
	e := newEnv(t)
	principal := id.NewPrincipalID()

	mint := func(t *testing.T, body map[string]any) *httptest.ResponseRecorder {
		t.Helper()
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/auth/token", bytes.NewReader(payload))
		rec := httptest.NewRecorder()
		e.router.ServeHTTP(rec, req)
		return rec
	}

	t.Run("mints a validating token", func(t *testing.T) {
		rec := mint(t, map[string]any{"principal_id": principal.String()})
		require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())

		var resp MintTokenResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "Bearer", resp.TokenType)
		assert.Equal(t, int(time.Hour.Seconds()), resp.ExpiresIn)

		claims, err := e.jwt.ValidateToken(resp.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, principal.String(), claims.PrincipalID)
		assert.NotEmpty(t, claims.ID)
	})

	t.Run("honors expires_in", func(t *testing.T) {
		rec := mint(t, map[string]any{"principal_id": principal.String(), "expires_in": 300})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp MintTokenResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, 300, resp.ExpiresIn)
	})

	t.Run("rejects a malformed principal", func(t *testing.T) {
		rec := mint(t, map[string]any{"principal_id": "not-a-uuid"})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("rejects an oversized lifetime", func(t *testing.T) {
		rec := mint(t, map[string]any{"principal_id": principal.String(), "expires_in": 100 * 24 * 3600})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestLogout(t *testing.T) {
	e := newEnv(t)
	principal := id.NewPrincipalID()

	logout := func(t *testing.T, authorization string) *httptest.ResponseRecorder {
		t.Helper()
		req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
		if authorization != "" {
			req.Header.Set("Authorization", authorization)
		}
		rec := httptest.NewRecorder()
		e.router.ServeHTTP(rec, req)
		return rec
	}

	t.Run("revokes the presented token until expiry", func(t *testing.T) {
		token, err := e.jwt.GenerateAccessToken(principal, time.Hour)
		require.NoError(t, err)
		claims, err := e.jwt.ValidateToken(token)
		require.NoError(t, err)

		rec := logout(t, "Bearer "+token)
		require.Equal(t, http.StatusNoContent, rec.Code, "body: %s", rec.Body.String())

		ttl, ok := e.revoker.revoked(claims.ID)
		require.True(t, ok, "jti must be on the revocation list")
		assert.Greater(t, ttl, 55*time.Minute)
		assert.LessOrEqual(t, ttl, time.Hour)
	})

	t.Run("missing header is rejected", func(t *testing.T) {
		rec := logout(t, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		rec := logout(t, "Bearer not-a-token")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("expired token is rejected before the list is touched", func(t *testing.T) {
		token, err := e.jwt.GenerateAccessToken(principal, -time.Minute)
		require.NoError(t, err)

		rec := logout(t, "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
