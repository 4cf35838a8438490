package middleware

import (
	"encoding/json"
	"log"
	"net/http"
)

// Recover converts a handler panic into a generic 500. One bad request must
// never take the process down.
func Recover(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Printf("panic: %v (cid=%s)", rec, GetCorrelationID(r.Context()))
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"error": "server_error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
