// Package credential derives worker identity credentials.
//
// A credential is SHA-256 over the worker ID plus a 32-byte server-generated
// random salt, base64url-encoded without padding. The salt is discarded
// after issuance, so the value cannot be re-derived from the worker ID
// alone; possession of the scanned token is required to authenticate a
// sign-in. Uniqueness is enforced by the storage layer; the registration
// service retries with a fresh draw on collision.
package credential

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/aivaterepositories/sight-sign/internal/worker/models"
	id "github.com/aivaterepositories/sight-sign/pkg/domain"
)

// Issuer derives credentials. The random source is injectable for tests;
// production uses crypto/rand.
type Issuer struct {
	random io.Reader
}

// Option configures an Issuer.
type Option func(*Issuer)

// WithRandom overrides the random source.
func WithRandom(r io.Reader) Option {
	return func(i *Issuer) {
		if r != nil {
			i.random = r
		}
	}
}

// NewIssuer constructs an Issuer backed by crypto/rand.
func NewIssuer(opts ...Option) *Issuer {
	issuer := &Issuer{random: rand.Reader}
	for _, opt := range opts {
		opt(issuer)
	}
	return issuer
}

// Issue derives a fresh credential for workerID. Each call draws new salt,
// so repeated calls for the same worker produce different values; callers
// own persistence and the at-most-one-credential-per-worker rule.
func (i *Issuer) Issue(workerID id.WorkerID) (models.Credential, error) {
	salt := make([]byte, 32)
	if _, err := io.ReadFull(i.random, salt); err != nil {
		return "", fmt.Errorf("draw credential salt: %w", err)
	}

	h := sha256.New()
	h.Write([]byte(workerID.String()))
	h.Write(salt)
	digest := h.Sum(nil)

	return models.Credential(base64.RawURLEncoding.EncodeToString(digest)), nil
}
