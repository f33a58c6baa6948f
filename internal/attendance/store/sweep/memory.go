// Package sweep persists the "last swept cutoff" marker per site. The
// scheduler discovers due and missed sweeps by comparing this marker with
// the latest cutoff instant, so restarts and horizontal scaling cannot
// skip or repeat a day.
package sweep

import (
	"context"
	"sync"
	"time"

	id "github.com/aivaterepositories/sight-sign/pkg/domain"
)

// InMemoryStore keeps sweep markers in process memory.
type InMemoryStore struct {
	mu    sync.RWMutex
	swept map[id.SiteID]time.Time
}

// New constructs an empty in-memory sweep marker store.
func New() *InMemoryStore {
	return &InMemoryStore{swept: make(map[id.SiteID]time.Time)}
}

// LastSwept returns the last swept cutoff for the site. ok is false when
// the site has never been swept.
func (s *InMemoryStore) LastSwept(_ context.Context, siteID id.SiteID) (last time.Time, ok bool, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	last, ok = s.swept[siteID]
	return last, ok, nil
}

// MarkSwept records cutoff as the site's last swept cutoff. The marker
// only moves forward.
func (s *InMemoryStore) MarkSwept(_ context.Context, siteID id.SiteID, cutoff time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if last, ok := s.swept[siteID]; ok && last.After(cutoff) {
		return nil
	}
	s.swept[siteID] = cutoff
	return nil
}
