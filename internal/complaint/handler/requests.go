package handler

import (
	"strings"

	"redressal/internal/complaint"
	id "redressal/pkg/domain"
	dErrors "redressal/pkg/domain-errors"
)

const maxReasonLen = 500

// SubmitRequest is the HTTP request body for POST /complaints.
type SubmitRequest struct {
	complaint.Draft
}

// Validate validates and normalizes the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *SubmitRequest) Validate() error {
	r.Normalize()
	return r.Draft.Validate()
}

// UpdateStatusRequest is the HTTP request body for PATCH /complaints/{id}/status.
type UpdateStatusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`

	// Parsed values (populated by Validate)
	parsedStatus complaint.Status
}

// Validate validates and parses the request.
func (r *UpdateStatusRequest) Validate() error {
	status, err := complaint.ParseStatus(strings.TrimSpace(r.Status))
	if err != nil {
		return err
	}
	r.parsedStatus = status

	r.Note = strings.TrimSpace(r.Note)
	if len(r.Note) > maxReasonLen {
		return dErrors.Newf(dErrors.CodeValidation, "note must be at most %d characters", maxReasonLen)
	}
	return nil
}

// ParsedStatus returns the validated target status.
func (r *UpdateStatusRequest) ParsedStatus() complaint.Status {
	return r.parsedStatus
}

// WithdrawRequest is the HTTP request body for POST /complaints/{id}/withdraw.
type WithdrawRequest struct {
	Reason string `json:"reason"`
}

// Validate validates the optional withdrawal reason.
func (r *WithdrawRequest) Validate() error {
	r.Reason = strings.TrimSpace(r.Reason)
	if len(r.Reason) > maxReasonLen {
		return dErrors.Newf(dErrors.CodeValidation, "reason must be at most %d characters", maxReasonLen)
	}
	return nil
}

// RatingRequest is the HTTP request body for POST /complaints/{id}/rating.
type RatingRequest struct {
	Score int `json:"score"`
}

// AssignRequest is the HTTP request body for POST /admin/complaints/{id}/assign.
type AssignRequest struct {
	StaffID string `json:"staff_id"`

	// Parsed values (populated by Validate)
	parsedStaffID id.PrincipalID
}

// Validate validates and parses the request.
func (r *AssignRequest) Validate() error {
	staffID, err := id.ParsePrincipalID(strings.TrimSpace(r.StaffID))
	if err != nil {
		return err
	}
	r.parsedStaffID = staffID
	return nil
}

// ParsedStaffID returns the validated staff principal ID.
func (r *AssignRequest) ParsedStaffID() id.PrincipalID {
	return r.parsedStaffID
}

// RevealRequest is the HTTP request body for POST /admin/complaints/{id}/reveal-request.
type RevealRequest struct {
	Reason string `json:"reason"`
}

// Validate requires a justification for every reveal request.
func (r *RevealRequest) Validate() error {
	r.Reason = strings.TrimSpace(r.Reason)
	if r.Reason == "" {
		return dErrors.New(dErrors.CodeValidation, "reason is required")
	}
	if len(r.Reason) > maxReasonLen {
		return dErrors.Newf(dErrors.CodeValidation, "reason must be at most %d characters", maxReasonLen)
	}
	return nil
}
