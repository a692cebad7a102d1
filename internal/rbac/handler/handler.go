// Package handler wires role administration endpoints to the rbac service.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	id "redressal/pkg/domain"
	dErrors "redressal/pkg/domain-errors"
	"redressal/pkg/platform/httputil"
	"redressal/pkg/requestcontext"
)

// Service defines the interface for role management operations.
type Service interface {
	Grant(ctx context.Context, actorID, principalID id.PrincipalID, role id.Role) error
	Revoke(ctx context.Context, actorID, principalID id.PrincipalID, role id.Role) error
	RolesOf(ctx context.Context, principalID id.PrincipalID) ([]id.Role, error)
	BootstrapAdmin(ctx context.Context, principalID id.PrincipalID) error
}

// Handler wires role endpoints to the rbac service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a role handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts the role administration endpoints. The router must already
// carry the authentication middleware; the admin check lives in the service.
func (h *Handler) Register(r chi.Router) {
	r.Post("/admin/roles", h.HandleGrant)
	r.Delete("/admin/roles", h.HandleRevoke)
	r.Get("/me/roles", h.HandleMyRoles)
}

// RegisterBootstrap mounts the first-admin seeding endpoint. The router must
// carry the bootstrap token middleware instead of JWT authentication.
func (h *Handler) RegisterBootstrap(r chi.Router) {
	r.Post("/bootstrap/admin", h.HandleBootstrap)
}

// RolesResponse is the HTTP response for GET /me/roles.
type RolesResponse struct {
	Roles []string `json:"roles"`
}

// HandleGrant handles POST /admin/roles requests.
func (h *Handler) HandleGrant(w http.ResponseWriter, r *http.Request) {
	h.handleRoleChange(w, r, "role granted", h.service.Grant)
}

// HandleRevoke handles DELETE /admin/roles requests.
func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	h.handleRoleChange(w, r, "role revoked", h.service.Revoke)
}

func (h *Handler) handleRoleChange(w http.ResponseWriter, r *http.Request, event string,
	change func(ctx context.Context, actorID, principalID id.PrincipalID, role id.Role) error) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actorID := requestcontext.PrincipalID(ctx)
	if actorID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[RoleChangeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := change(ctx, actorID, req.ParsedPrincipalID(), req.ParsedRole()); err != nil {
		h.logger.WarnContext(ctx, "role change rejected",
			"request_id", requestID,
			"actor_id", actorID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, event,
		"request_id", requestID,
		"actor_id", actorID.String(),
		"principal_id", req.ParsedPrincipalID().String(),
		"role", req.ParsedRole().String(),
	)
	w.WriteHeader(http.StatusNoContent)
}

// HandleMyRoles handles GET /me/roles requests.
func (h *Handler) HandleMyRoles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	principalID := requestcontext.PrincipalID(ctx)
	if principalID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	roles, err := h.service.RolesOf(ctx, principalID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	resp := RolesResponse{Roles: make([]string, 0, len(roles))}
	for _, role := range roles {
		resp.Roles = append(resp.Roles, role.String())
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleBootstrap handles POST /bootstrap/admin requests.
func (h *Handler) HandleBootstrap(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[BootstrapRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.BootstrapAdmin(ctx, req.ParsedPrincipalID()); err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "bootstrap admin granted",
		"request_id", requestID,
		"principal_id", req.ParsedPrincipalID().String(),
	)
	w.WriteHeader(http.StatusNoContent)
}
