// Package handler wires the complaint endpoints to the complaint service.
// Handlers decode and encode JSON only; every authorization and lifecycle
// decision lives in the service.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"redressal/internal/complaint"
	"redressal/internal/timeline"
	id "redressal/pkg/domain"
	dErrors "redressal/pkg/domain-errors"
	"redressal/pkg/platform/httputil"
	"redressal/pkg/requestcontext"
)

// Service defines the interface for complaint operations.
type Service interface {
	Submit(ctx context.Context, principalID id.PrincipalID, draft complaint.Draft) (id.ComplaintID, error)
	Read(ctx context.Context, principalID id.PrincipalID, complaintID id.ComplaintID) (*complaint.Complaint, error)
	Timeline(ctx context.Context, principalID id.PrincipalID, complaintID id.ComplaintID) ([]*timeline.Entry, error)
	ListMine(ctx context.Context, principalID id.PrincipalID) ([]*complaint.Complaint, error)
	ListAssigned(ctx context.Context, principalID id.PrincipalID) ([]*complaint.Complaint, error)
	ListAll(ctx context.Context, principalID id.PrincipalID) ([]*complaint.Complaint, error)
	UpdateStatus(ctx context.Context, principalID id.PrincipalID, complaintID id.ComplaintID, next complaint.Status, note string) error
	Withdraw(ctx context.Context, principalID id.PrincipalID, complaintID id.ComplaintID, reason string) error
	Rate(ctx context.Context, principalID id.PrincipalID, complaintID id.ComplaintID, score int) error
	Assign(ctx context.Context, principalID id.PrincipalID, complaintID id.ComplaintID, staffID id.PrincipalID) error
	RequestReveal(ctx context.Context, principalID id.PrincipalID, complaintID id.ComplaintID, reason string) error
	Reveal(ctx context.Context, principalID id.PrincipalID, complaintID id.ComplaintID) error
}

// Handler wires complaint endpoints to the complaint service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a complaint handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts complaint endpoints on the router. The router must already
// carry the authentication middleware; admin checks live in the service.
func (h *Handler) Register(r chi.Router) {
	r.Post("/complaints", h.HandleSubmit)
	r.Get("/complaints", h.HandleListMine)
	r.Get("/complaints/assigned", h.HandleListAssigned)
	r.Get("/complaints/{id}", h.HandleRead)
	r.Get("/complaints/{id}/timeline", h.HandleTimeline)
	r.Patch("/complaints/{id}/status", h.HandleUpdateStatus)
	r.Post("/complaints/{id}/withdraw", h.HandleWithdraw)
	r.Post("/complaints/{id}/rating", h.HandleRate)
	r.Get("/admin/complaints", h.HandleListAll)
	r.Post("/admin/complaints/{id}/assign", h.HandleAssign)
	r.Post("/admin/complaints/{id}/reveal-request", h.HandleRequestReveal)
	r.Post("/admin/complaints/{id}/reveal", h.HandleReveal)
}

// principal extracts the authenticated principal from the context.
func principal(ctx context.Context, w http.ResponseWriter) (id.PrincipalID, bool) {
	principalID := requestcontext.PrincipalID(ctx)
	if principalID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return id.PrincipalID{}, false
	}
	return principalID, true
}

// complaintID parses the {id} URL parameter.
func complaintID(r *http.Request, w http.ResponseWriter) (id.ComplaintID, bool) {
	cid, err := id.ParseComplaintID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "complaint not found"))
		return id.ComplaintID{}, false
	}
	return cid, true
}

// HandleSubmit handles POST /complaints requests.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	principalID, ok := principal(ctx, w)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[SubmitRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	newID, err := h.service.Submit(ctx, principalID, req.Draft)
	if err != nil {
		h.logger.WarnContext(ctx, "complaint submission rejected",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, SubmitResponse{ID: newID.String()})
}

// HandleRead handles GET /complaints/{id} requests.
func (h *Handler) HandleRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	principalID, ok := principal(ctx, w)
	if !ok {
		return
	}
	cid, ok := complaintID(r, w)
	if !ok {
		return
	}

	c, err := h.service.Read(ctx, principalID, cid)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromComplaint(c))
}

// HandleTimeline handles GET /complaints/{id}/timeline requests.
func (h *Handler) HandleTimeline(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	principalID, ok := principal(ctx, w)
	if !ok {
		return
	}
	cid, ok := complaintID(r, w)
	if !ok {
		return
	}

	entries, err := h.service.Timeline(ctx, principalID, cid)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromTimeline(entries))
}

// HandleListMine handles GET /complaints requests.
func (h *Handler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	principalID, ok := principal(ctx, w)
	if !ok {
		return
	}

	list, err := h.service.ListMine(ctx, principalID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromComplaints(list))
}

// HandleListAssigned handles GET /complaints/assigned requests.
func (h *Handler) HandleListAssigned(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	principalID, ok := principal(ctx, w)
	if !ok {
		return
	}

	list, err := h.service.ListAssigned(ctx, principalID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromComplaints(list))
}

// HandleListAll handles GET /admin/complaints requests.
func (h *Handler) HandleListAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	principalID, ok := principal(ctx, w)
	if !ok {
		return
	}

	list, err := h.service.ListAll(ctx, principalID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromComplaints(list))
}

// HandleUpdateStatus handles PATCH /complaints/{id}/status requests.
func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	principalID, ok := principal(ctx, w)
	if !ok {
		return
	}
	cid, ok := complaintID(r, w)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[UpdateStatusRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.UpdateStatus(ctx, principalID, cid, req.ParsedStatus(), req.Note); err != nil {
		h.logger.WarnContext(ctx, "status update rejected",
			"request_id", requestID,
			"complaint_id", cid.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleWithdraw handles POST /complaints/{id}/withdraw requests.
func (h *Handler) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	principalID, ok := principal(ctx, w)
	if !ok {
		return
	}
	cid, ok := complaintID(r, w)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[WithdrawRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.Withdraw(ctx, principalID, cid, req.Reason); err != nil {
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleRate handles POST /complaints/{id}/rating requests.
func (h *Handler) HandleRate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	principalID, ok := principal(ctx, w)
	if !ok {
		return
	}
	cid, ok := complaintID(r, w)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[RatingRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.Rate(ctx, principalID, cid, req.Score); err != nil {
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleAssign handles POST /admin/complaints/{id}/assign requests.
func (h *Handler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	principalID, ok := principal(ctx, w)
	if !ok {
		return
	}
	cid, ok := complaintID(r, w)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[AssignRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.Assign(ctx, principalID, cid, req.ParsedStaffID()); err != nil {
		h.logger.WarnContext(ctx, "assignment rejected",
			"request_id", requestID,
			"complaint_id", cid.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleRequestReveal handles POST /admin/complaints/{id}/reveal-request requests.
func (h *Handler) HandleRequestReveal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	principalID, ok := principal(ctx, w)
	if !ok {
		return
	}
	cid, ok := complaintID(r, w)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[RevealRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.RequestReveal(ctx, principalID, cid, req.Reason); err != nil {
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleReveal handles POST /admin/complaints/{id}/reveal requests.
func (h *Handler) HandleReveal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	principalID, ok := principal(ctx, w)
	if !ok {
		return
	}
	cid, ok := complaintID(r, w)
	if !ok {
		return
	}

	if err := h.service.Reveal(ctx, principalID, cid); err != nil {
		h.logger.WarnContext(ctx, "identity reveal rejected",
			"request_id", requestID,
			"complaint_id", cid.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
