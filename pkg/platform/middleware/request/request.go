// Package request provides request ID middleware. Every request gets a
// unique ID, echoed in the X-Request-ID response header and available to
// downstream handlers via requestcontext.
package request

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"redressal/pkg/requestcontext"
)

// HeaderRequestID is the HTTP header carrying the request ID.
const HeaderRequestID = "X-Request-ID"

// Middleware assigns a request ID to each request. An ID supplied by the
// client in X-Request-ID is kept, otherwise a new UUID is generated.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		w.Header().Set(HeaderRequestID, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	return requestcontext.RequestID(ctx)
}
