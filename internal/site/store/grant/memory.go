package grant

import (
	"context"
	"sync"

	"github.com/aivaterepositories/sight-sign/internal/site/models"
	id "github.com/aivaterepositories/sight-sign/pkg/domain"
	"github.com/aivaterepositories/sight-sign/pkg/platform/sentinel"
)

type grantKey struct {
	site      id.SiteID
	principal id.PrincipalID
}

// InMemoryStore keeps admin grants in process memory.
type InMemoryStore struct {
	mu     sync.RWMutex
	grants map[grantKey]*models.Grant
}

// New constructs an empty in-memory grant store.
func New() *InMemoryStore {
	return &InMemoryStore{grants: make(map[grantKey]*models.Grant)}
}

// Create inserts a grant. Returns sentinel.ErrConflict if the
// (site, principal) pair already holds one, regardless of role.
func (s *InMemoryStore) Create(_ context.Context, g *models.Grant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := grantKey{site: g.SiteID, principal: g.Principal}
	if _, exists := s.grants[key]; exists {
		return sentinel.ErrConflict
	}
	stored := *g
	s.grants[key] = &stored
	return nil
}

// Find returns the grant for (site, principal) or sentinel.ErrNotFound.
func (s *InMemoryStore) Find(_ context.Context, siteID id.SiteID, principal id.PrincipalID) (*models.Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, exists := s.grants[grantKey{site: siteID, principal: principal}]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	out := *g
	return &out, nil
}

// ListForPrincipal returns every grant held by principal.
func (s *InMemoryStore) ListForPrincipal(_ context.Context, principal id.PrincipalID) ([]*models.Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Grant
	for key, g := range s.grants {
		if key.principal == principal {
			cp := *g
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ListForSite returns every grant on a site.
func (s *InMemoryStore) ListForSite(_ context.Context, siteID id.SiteID) ([]*models.Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Grant
	for key, g := range s.grants {
		if key.site == siteID {
			cp := *g
			out = append(out, &cp)
		}
	}
	return out, nil
}

// DeleteGuarded removes a grant unless it is the site's last admin grant,
// in which case it returns sentinel.ErrInvalidState. The check and the
// delete happen under one lock so concurrent revokes cannot drop a site to
// zero admins.
func (s *InMemoryStore) DeleteGuarded(_ context.Context, siteID id.SiteID, principal id.PrincipalID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := grantKey{site: siteID, principal: principal}
	g, exists := s.grants[key]
	if !exists {
		return sentinel.ErrNotFound
	}
	if g.Role == models.RoleAdmin {
		admins := 0
		for k, other := range s.grants {
			if k.site == siteID && other.Role == models.RoleAdmin {
				admins++
			}
		}
		if admins <= 1 {
			return sentinel.ErrInvalidState
		}
	}
	delete(s.grants, key)
	return nil
}
