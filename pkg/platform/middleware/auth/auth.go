// Package auth provides bearer-token authentication middleware.
//
// The authentication provider (implemented elsewhere) issues HS256 JWTs
// whose subject is the principal ID. This middleware only resolves the
// current principal; it never re-verifies first-factor credentials.
package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	id "github.com/aivaterepositories/sight-sign/pkg/domain"
	dErrors "github.com/aivaterepositories/sight-sign/pkg/domain-errors"
	"github.com/aivaterepositories/sight-sign/pkg/platform/httputil"
	"github.com/aivaterepositories/sight-sign/pkg/platform/middleware/request"
	"github.com/aivaterepositories/sight-sign/pkg/requestcontext"
)

// Verifier validates a bearer token and extracts the principal ID.
type Verifier struct {
	signingKey []byte
}

// NewVerifier creates a Verifier for HS256 tokens signed with key.
func NewVerifier(signingKey string) *Verifier {
	return &Verifier{signingKey: []byte(signingKey)}
}

// Principal parses and validates tokenString and returns its subject as a
// principal ID.
func (v *Verifier) Principal(tokenString string) (id.PrincipalID, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, dErrors.Newf(dErrors.CodeUnauthorized, "unexpected signing method %q", t.Method.Alg())
		}
		return v.signingKey, nil
	})
	if err != nil || !token.Valid {
		return id.PrincipalID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token")
	}
	sub, err := token.Claims.GetSubject()
	if err != nil {
		return id.PrincipalID{}, dErrors.New(dErrors.CodeUnauthorized, "token has no subject")
	}
	principal, err := id.ParsePrincipalID(sub)
	if err != nil {
		return id.PrincipalID{}, dErrors.New(dErrors.CodeUnauthorized, "token subject is not a principal id")
	}
	return principal, nil
}

// RequireAuth rejects requests without a valid bearer token and injects the
// authenticated principal into the request context.
func RequireAuth(verifier *Verifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", request.GetRequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing or invalid Authorization header"))
				return
			}

			principal, err := verifier.Principal(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", request.GetRequestID(ctx),
				)
				httputil.WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithPrincipal(ctx, principal)))
		})
	}
}
