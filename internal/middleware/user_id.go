package middleware

import (
	"context"
	"net/http"
	"strings"
)

const HeaderUserID = "X-User-Id"

// DefaultUserID is used when the client sends no identity header.
const DefaultUserID = "guest"

type ctxKey string

const (
	ctxCorrelationID ctxKey = "correlation_id"
	ctxUserID        ctxKey = "user_id"
)

// UserID resolves the caller's identity from X-User-Id and stores it in the
// request context. Anonymous callers share the guest identity.
func UserID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid := strings.TrimSpace(r.Header.Get(HeaderUserID))
		if uid == "" {
			uid = DefaultUserID
		}
		ctx := context.WithValue(r.Context(), ctxUserID, uid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetUserID(ctx context.Context) string {
	if v := ctx.Value(ctxUserID); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return DefaultUserID
}
