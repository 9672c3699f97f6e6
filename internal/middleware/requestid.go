package middleware

import (
	"net/http"

	"github.com/google/uuid"
)

// RequestID assigns every request a unique id, echoed in the response
// header for log correlation.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}

		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(injectRequestID(r.Context(), id)))
	})
}
