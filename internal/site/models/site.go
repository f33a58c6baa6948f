package models

import (
	"strings"
	"time"

	id "github.com/aivaterepositories/sight-sign/pkg/domain"
	dErrors "github.com/aivaterepositories/sight-sign/pkg/domain-errors"
)

// Site is the aggregate for a construction site.
//
// Invariants:
//   - Name is non-empty and at most 128 characters
//   - AutoSignout is a valid wall-clock time of day
//   - A site has at least one admin grant for its whole lifetime; creation
//     and the creator's grant commit in one transaction, and revocation
//     refuses to remove the last admin
type Site struct {
	ID          id.SiteID `json:"id"`
	Name        string    `json:"name"`
	Address     string    `json:"address,omitempty"`
	AutoSignout TimeOfDay `json:"auto_signout_time"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewSite validates fields and constructs a Site.
func NewSite(siteID id.SiteID, name, address string, cutoff TimeOfDay, now time.Time) (*Site, error) {
	name = strings.TrimSpace(name)
	address = strings.TrimSpace(address)

	if siteID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "site id is required")
	}
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "site name cannot be empty")
	}
	if len(name) > 128 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "site name must be 128 characters or less")
	}
	if !cutoff.Valid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "auto sign-out time out of range")
	}

	return &Site{
		ID:          siteID,
		Name:        name,
		Address:     address,
		AutoSignout: cutoff,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// SiteUpdate carries the editable fields for Site.Apply. Nil fields are
// left unchanged.
type SiteUpdate struct {
	Name        *string
	Address     *string
	AutoSignout *TimeOfDay
}

// Apply validates and applies the update.
func (s *Site) Apply(u SiteUpdate, now time.Time) error {
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if name == "" {
			return dErrors.New(dErrors.CodeInvariantViolation, "site name cannot be empty")
		}
		if len(name) > 128 {
			return dErrors.New(dErrors.CodeInvariantViolation, "site name must be 128 characters or less")
		}
		s.Name = name
	}
	if u.Address != nil {
		s.Address = strings.TrimSpace(*u.Address)
	}
	if u.AutoSignout != nil {
		if !u.AutoSignout.Valid() {
			return dErrors.New(dErrors.CodeInvariantViolation, "auto sign-out time out of range")
		}
		s.AutoSignout = *u.AutoSignout
	}
	s.UpdatedAt = now
	return nil
}
