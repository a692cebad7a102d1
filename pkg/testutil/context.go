package testutil

import (
	"net/http"
	"time"

	id "redressal/pkg/domain"
	"redressal/pkg/requestcontext"
)

// WithPrincipal adds a principal ID to the request context.
// This simulates what the auth middleware would do for authenticated requests.
// If the principalID is not a valid UUID, it will not be added to the context.
func WithPrincipal(req *http.Request, principalID string) *http.Request {
	if parsed, err := id.ParsePrincipalID(principalID); err == nil {
		return req.WithContext(requestcontext.WithPrincipalID(req.Context(), parsed))
	}
	return req
}

// WithRequestTime pins the request-scoped clock, so assertions on stored
// timestamps are exact.
func WithRequestTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}
