package models

import (
	"time"

	id "github.com/aivaterepositories/sight-sign/pkg/domain"
	dErrors "github.com/aivaterepositories/sight-sign/pkg/domain-errors"
)

// Role is the level of administration a principal holds on a site.
type Role string

const (
	// RoleAdmin can edit the site, manage grants, and operate scan
	// terminals.
	RoleAdmin Role = "admin"
	// RoleSupervisor can operate scan terminals and view the roster but
	// not manage the site or its grants.
	RoleSupervisor Role = "supervisor"
)

// ParseRole validates a role string.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleSupervisor:
		return Role(s), nil
	default:
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown role %q", s)
	}
}

// Grant is the (site, principal, role) relation that decides who may
// administer which site. There is no implicit global admin: the set of
// grants for a principal is exactly the set of sites they control.
//
// Invariant: at most one grant per (site, principal); re-granting the same
// role is a no-op, a different role is an explicit conflict, never a
// silent overwrite.
type Grant struct {
	SiteID    id.SiteID      `json:"site_id"`
	Principal id.PrincipalID `json:"admin_id"`
	Role      Role           `json:"role"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewGrant validates fields and constructs a Grant.
func NewGrant(siteID id.SiteID, principal id.PrincipalID, role Role, now time.Time) (*Grant, error) {
	if siteID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "site id is required")
	}
	if principal.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "principal id is required")
	}
	if _, err := ParseRole(string(role)); err != nil {
		return nil, err
	}
	return &Grant{SiteID: siteID, Principal: principal, Role: role, CreatedAt: now}, nil
}
