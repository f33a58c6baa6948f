package testutil

import (
	"net/http"
	"time"

	id "github.com/aivaterepositories/sight-sign/pkg/domain"
	"github.com/aivaterepositories/sight-sign/pkg/requestcontext"
)

// WithPrincipal adds an authenticated principal to the request context,
// simulating the auth middleware. Invalid IDs are silently ignored.
func WithPrincipal(req *http.Request, principal string) *http.Request {
	parsed, err := id.ParsePrincipalID(principal)
	if err != nil {
		return req
	}
	return req.WithContext(requestcontext.WithPrincipal(req.Context(), parsed))
}

// WithTime pins the request-scoped time, simulating the request time
// middleware.
func WithTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}
