// Package request provides request ID middleware and accessors.
package request

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/aivaterepositories/sight-sign/pkg/requestcontext"
)

// HeaderRequestID is the inbound/outbound request ID header.
const HeaderRequestID = "X-Request-Id"

// Middleware assigns each request an ID (honoring an inbound X-Request-Id)
// and echoes it on the response for log correlation.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(HeaderRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, reqID)
		ctx := requestcontext.WithRequestID(r.Context(), reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	return requestcontext.RequestID(ctx)
}
