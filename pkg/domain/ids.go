// Package domain defines the typed identifiers shared across features.
//
// Every aggregate gets its own UUID-backed type so the compiler rejects
// cross-entity mixups (passing a SiteID where a WorkerID is expected).
// Raw strings are parsed exactly once, at the trust boundary, via the
// Parse* helpers; everything past the boundary works with typed IDs.
package domain

import (
	"github.com/google/uuid"

	dErrors "github.com/aivaterepositories/sight-sign/pkg/domain-errors"
)

// PrincipalID identifies an authenticated actor. Worker IDs are equal to
// the principal ID they registered under, so the two types convert
// explicitly where that equality is intentional.
type PrincipalID uuid.UUID

// WorkerID identifies a registered worker.
type WorkerID uuid.UUID

// SiteID identifies a construction site.
type SiteID uuid.UUID

// RecordID identifies an attendance record.
type RecordID uuid.UUID

func (id PrincipalID) String() string { return uuid.UUID(id).String() }
func (id WorkerID) String() string    { return uuid.UUID(id).String() }
func (id SiteID) String() string      { return uuid.UUID(id).String() }
func (id RecordID) String() string    { return uuid.UUID(id).String() }

func (id PrincipalID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id WorkerID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id SiteID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id RecordID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// ParsePrincipalID parses a principal ID, rejecting empty, malformed and
// nil UUIDs.
func ParsePrincipalID(s string) (PrincipalID, error) {
	u, err := parseUUID(s)
	return PrincipalID(u), err
}

// ParseWorkerID parses a worker ID, rejecting empty, malformed and nil UUIDs.
func ParseWorkerID(s string) (WorkerID, error) {
	u, err := parseUUID(s)
	return WorkerID(u), err
}

// ParseSiteID parses a site ID, rejecting empty, malformed and nil UUIDs.
func ParseSiteID(s string) (SiteID, error) {
	u, err := parseUUID(s)
	return SiteID(u), err
}

// ParseRecordID parses a record ID, rejecting empty, malformed and nil UUIDs.
func ParseRecordID(s string) (RecordID, error) {
	u, err := parseUUID(s)
	return RecordID(u), err
}

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil UUID")
	}
	return u, nil
}
