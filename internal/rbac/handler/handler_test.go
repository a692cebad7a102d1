package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"redressal/internal/rbac"
	rbacstore "redressal/internal/rbac/store"
	id "redressal/pkg/domain"
	adminmw "redressal/pkg/platform/middleware/admin"
	"redressal/pkg/secrets"
	"redressal/pkg/testutil"
)

const bootstrapToken = "bootstrap-secret"

type env struct {
	router http.Handler
	admin  id.PrincipalID
}

func newEnv(t *testing.T) *env {
	t.Helper()

	store := rbacstore.NewInMemory()
	svc := rbac.NewService(store)

	admin := id.NewPrincipalID()
	require.NoError(t, store.Grant(context.Background(), admin, id.RoleAdmin))

	tokenHash, err := secrets.Hash(bootstrapToken)
	require.NoError(t, err)

	handler := New(svc, slog.Default())
	router := chi.NewRouter()
	handler.Register(router)
	router.Group(func(r chi.Router) {
		r.Use(adminmw.RequireBootstrapToken(tokenHash, slog.Default()))
		handler.RegisterBootstrap(r)
	})
	return &env{router: router, admin: admin}
}

func (e *env) do(t *testing.T, method, path string, as id.PrincipalID, body any, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if !as.IsNil() {
		req = testutil.WithPrincipal(req, as.String())
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestGrantAndRevokeOverHTTP(t *testing.T) {
	e := newEnv(t)
	subject := id.NewPrincipalID()

	grant := map[string]any{"principal_id": subject.String(), "role": "staff"}

	t.Run("admin grants a role", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/admin/roles", e.admin, grant, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code, "body: %s", rec.Body.String())
	})

	t.Run("subject sees the role", func(t *testing.T) {
		rec := e.do(t, http.MethodGet, "/me/roles", subject, nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp RolesResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, []string{"staff"}, resp.Roles)
	})

	t.Run("non-admin grant is forbidden", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/admin/roles", subject, grant, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unauthenticated request is rejected", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/admin/roles", id.PrincipalID{}, grant, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown role is rejected", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/admin/roles", e.admin,
			map[string]any{"principal_id": subject.String(), "role": "superuser"}, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("admin revokes the role", func(t *testing.T) {
		rec := e.do(t, http.MethodDelete, "/admin/roles", e.admin, grant, nil)
		require.Equal(t, http.StatusNoContent, rec.Code)

		roles := e.do(t, http.MethodGet, "/me/roles", subject, nil, nil)
		require.Equal(t, http.StatusOK, roles.Code)
		var resp RolesResponse
		require.NoError(t, json.NewDecoder(roles.Body).Decode(&resp))
		assert.Empty(t, resp.Roles)
	})
}

func TestBootstrapAdminOverHTTP(t *testing.T) {
	e := newEnv(t)
	seeded := id.NewPrincipalID()
	body := map[string]any{"principal_id": seeded.String()}

	t.Run("missing token is rejected", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/bootstrap/admin", id.PrincipalID{}, body, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong token is rejected", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/bootstrap/admin", id.PrincipalID{}, body,
			map[string]string{"X-Admin-Token": "guess"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token seeds an admin", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/bootstrap/admin", id.PrincipalID{}, body,
			map[string]string{"X-Admin-Token": bootstrapToken})
		require.Equal(t, http.StatusNoContent, rec.Code, "body: %s", rec.Body.String())

		roles := e.do(t, http.MethodGet, "/me/roles", seeded, nil, nil)
		require.Equal(t, http.StatusOK, roles.Code)
		var resp RolesResponse
		require.NoError(t, json.NewDecoder(roles.Body).Decode(&resp))
		assert.Equal(t, []string{"admin"}, resp.Roles)
	})
}
