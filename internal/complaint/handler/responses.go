package handler

import (
	"time"

	"redressal/internal/complaint"
	"redressal/internal/timeline"
)

// SubmitResponse is the HTTP response for POST /complaints.
type SubmitResponse struct {
	ID string `json:"id"`
}

// ComplaintResponse is the wire shape for a complaint record. The submitter
// field is omitted when the record is anonymous and unrevealed.
type ComplaintResponse struct {
	ID             string     `json:"id"`
	SubmitterID    string     `json:"submitter_id,omitempty"`
	Category       string     `json:"category"`
	Severity       string     `json:"severity"`
	Title          string     `json:"title"`
	Body           string     `json:"body"`
	Anonymous      bool       `json:"anonymous"`
	Status         string     `json:"status"`
	AssignedTo     string     `json:"assigned_to,omitempty"`
	Rating         *int       `json:"rating,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
	WithdrawnAt    *time.Time `json:"withdrawn_at,omitempty"`
	WithdrawReason string     `json:"withdraw_reason,omitempty"`
}

// FromComplaint converts a domain complaint to its HTTP response.
func FromComplaint(c *complaint.Complaint) *ComplaintResponse {
	resp := &ComplaintResponse{
		ID:             c.ID.String(),
		Category:       string(c.Category),
		Severity:       string(c.Severity),
		Title:          c.Title,
		Body:           c.Body,
		Anonymous:      c.Anonymous,
		Status:         string(c.Status),
		Rating:         c.Rating,
		CreatedAt:      c.CreatedAt,
		ResolvedAt:     c.ResolvedAt,
		WithdrawnAt:    c.WithdrawnAt,
		WithdrawReason: c.WithdrawReason,
	}
	if !c.SubmitterID.IsNil() {
		resp.SubmitterID = c.SubmitterID.String()
	}
	if c.AssignedTo != nil {
		resp.AssignedTo = c.AssignedTo.String()
	}
	return resp
}

// FromComplaints converts a list of domain complaints.
func FromComplaints(list []*complaint.Complaint) []*ComplaintResponse {
	out := make([]*ComplaintResponse, 0, len(list))
	for _, c := range list {
		out = append(out, FromComplaint(c))
	}
	return out
}

// TimelineEntryResponse is the wire shape for one timeline entry.
// System entries carry no author.
type TimelineEntryResponse struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// FromTimeline converts timeline entries to their HTTP response.
func FromTimeline(entries []*timeline.Entry) []*TimelineEntryResponse {
	out := make([]*TimelineEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp := &TimelineEntryResponse{
			ID:        e.ID.String(),
			Message:   e.Message,
			CreatedAt: e.CreatedAt,
		}
		if e.AuthorID != nil {
			resp.AuthorID = e.AuthorID.String()
		}
		out = append(out, resp)
	}
	return out
}
