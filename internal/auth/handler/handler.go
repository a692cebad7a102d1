// Package handler exposes the token surface: operator-driven minting behind
// the bootstrap token, and logout onto the revocation list.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"redressal/internal/auth"
	id "redressal/pkg/domain"
	dErrors "redressal/pkg/domain-errors"
	"redressal/pkg/platform/httputil"
	"redressal/pkg/requestcontext"
)

// TokenService mints and validates access tokens.
type TokenService interface {
	GenerateAccessToken(principalID id.PrincipalID, expiresIn time.Duration) (string, error)
	ValidateToken(tokenString string) (*auth.Claims, error)
}

// Revoker puts a token ID on the revocation list until its natural expiry.
type Revoker interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
}

// Handler wires the token endpoints.
type Handler struct {
	tokens  TokenService
	revoker Revoker
	logger  *slog.Logger
}

// New constructs a token handler with its dependencies.
func New(tokens TokenService, revoker Revoker, logger *slog.Logger) *Handler {
	return &Handler{
		tokens:  tokens,
		revoker: revoker,
		logger:  logger,
	}
}

// Register mounts the logout endpoint. The router must carry the
// authentication middleware. Mount only when a revocation list is configured.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/logout", h.HandleLogout)
}

// RegisterTokenMint mounts the operator token-minting endpoint. The router
// must carry the bootstrap token middleware; principals get their tokens from
// the institution's SSO in production, this path serves operators and smoke
// tests.
func (h *Handler) RegisterTokenMint(r chi.Router) {
	r.Post("/auth/token", h.HandleMintToken)
}

// HandleMintToken handles POST /auth/token requests.
func (h *Handler) HandleMintToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[MintTokenRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	token, err := h.tokens.GenerateAccessToken(req.ParsedPrincipalID(), req.TTL())
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to mint access token",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to mint token"))
		return
	}

	h.logger.InfoContext(ctx, "access token minted",
		"request_id", requestID,
		"principal_id", req.ParsedPrincipalID().String(),
	)
	httputil.WriteJSON(w, http.StatusOK, MintTokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(req.TTL().Seconds()),
	})
}

// HandleLogout handles POST /auth/logout requests. The presented token's jti
// goes on the revocation list until the token would have expired anyway.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	claims, err := h.tokens.ValidateToken(raw)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if claims.ID == "" || claims.ExpiresAt == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "token cannot be revoked"))
		return
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err := h.revoker.RevokeToken(ctx, claims.ID, ttl); err != nil {
		h.logger.ErrorContext(ctx, "failed to revoke token",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to revoke token"))
		return
	}

	h.logger.InfoContext(ctx, "token revoked", "request_id", requestID)
	w.WriteHeader(http.StatusNoContent)
}
