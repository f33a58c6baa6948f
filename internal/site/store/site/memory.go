package site

import (
	"context"
	"sort"
	"sync"

	"github.com/aivaterepositories/sight-sign/internal/site/models"
	id "github.com/aivaterepositories/sight-sign/pkg/domain"
	"github.com/aivaterepositories/sight-sign/pkg/platform/sentinel"
)

// InMemoryStore keeps sites in process memory.
type InMemoryStore struct {
	mu    sync.RWMutex
	sites map[id.SiteID]*models.Site
}

// New constructs an empty in-memory site store.
func New() *InMemoryStore {
	return &InMemoryStore{sites: make(map[id.SiteID]*models.Site)}
}

// Create inserts a site. Returns sentinel.ErrConflict if the ID exists.
func (s *InMemoryStore) Create(_ context.Context, site *models.Site) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sites[site.ID]; exists {
		return sentinel.ErrConflict
	}
	stored := *site
	s.sites[site.ID] = &stored
	return nil
}

// FindByID returns the site or sentinel.ErrNotFound.
func (s *InMemoryStore) FindByID(_ context.Context, siteID id.SiteID) (*models.Site, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	site, exists := s.sites[siteID]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	out := *site
	return &out, nil
}

// FindByIDs returns the sites for the given IDs, newest first. Unknown IDs
// are skipped.
func (s *InMemoryStore) FindByIDs(_ context.Context, siteIDs []id.SiteID) ([]*models.Site, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Site, 0, len(siteIDs))
	for _, siteID := range siteIDs {
		if site, exists := s.sites[siteID]; exists {
			cp := *site
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ListAll returns every site. The scheduler uses this to enumerate cutoffs.
func (s *InMemoryStore) ListAll(_ context.Context) ([]*models.Site, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Site, 0, len(s.sites))
	for _, site := range s.sites {
		cp := *site
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Execute loads the site, runs validate, applies mutate and persists the
// result while holding the store lock.
func (s *InMemoryStore) Execute(_ context.Context, siteID id.SiteID, validate func(*models.Site) error, mutate func(*models.Site)) (*models.Site, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	site, exists := s.sites[siteID]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(site); err != nil {
		return nil, err
	}
	mutate(site)
	out := *site
	return &out, nil
}
