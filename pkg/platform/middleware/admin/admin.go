package admin

import (
	"log/slog"
	"net/http"

	request "redressal/pkg/platform/middleware/request"
	"redressal/pkg/secrets"
)

// RequireBootstrapToken guards the role bootstrap endpoint before any admin
// principal exists. The expected token is stored as a bcrypt hash; bcrypt
// comparison is constant-time for matching inputs, preventing timing attacks.
func RequireBootstrapToken(expectedHash string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get("X-Admin-Token")
			if expectedHash == "" || secrets.Verify(token, expectedHash) != nil {
				ctx := r.Context()
				logger.WarnContext(ctx, "admin token mismatch",
					"request_id", request.GetRequestID(ctx),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"admin token required"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
