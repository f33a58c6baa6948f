package record

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/aivaterepositories/sight-sign/internal/attendance/models"
	id "github.com/aivaterepositories/sight-sign/pkg/domain"
	dErrors "github.com/aivaterepositories/sight-sign/pkg/domain-errors"
	"github.com/aivaterepositories/sight-sign/pkg/platform/sentinel"
)

type pairKey struct {
	worker id.WorkerID
	site   id.SiteID
}

// InMemoryStore keeps attendance records in process memory. The openPairs
// index plays the role of the partial unique index in Postgres: insert and
// uniqueness check happen under one lock, so concurrent duplicate scans
// yield exactly one success.
type InMemoryStore struct {
	mu        sync.RWMutex
	records   map[id.RecordID]*models.Record
	openPairs map[pairKey]id.RecordID
}

// New constructs an empty in-memory attendance store.
func New() *InMemoryStore {
	return &InMemoryStore{
		records:   make(map[id.RecordID]*models.Record),
		openPairs: make(map[pairKey]id.RecordID),
	}
}

// Open inserts an open record. Returns sentinel.ErrConflict if the
// (worker, site) pair already has one.
func (s *InMemoryStore) Open(_ context.Context, r *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey{worker: r.WorkerID, site: r.SiteID}
	if _, exists := s.openPairs[key]; exists {
		return sentinel.ErrConflict
	}

	stored := *r
	s.records[r.ID] = &stored
	s.openPairs[key] = r.ID
	return nil
}

// FindByID returns the record or sentinel.ErrNotFound.
func (s *InMemoryStore) FindByID(_ context.Context, recordID id.RecordID) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.records[recordID]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	out := copyRecord(r)
	return &out, nil
}

// Close marks a record signed out at the given instant. Returns
// sentinel.ErrNotFound for an unknown record, sentinel.ErrInvalidState if
// it is already closed, and an invalid-input domain error when the
// sign-out would precede the sign-in.
func (s *InMemoryStore) Close(_ context.Context, recordID id.RecordID, at time.Time) (*models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, exists := s.records[recordID]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	if !r.Open() {
		return nil, sentinel.ErrInvalidState
	}
	if at.Before(r.SignedInAt) {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "sign-out time precedes sign-in time")
	}

	out := at
	r.SignedOutAt = &out
	delete(s.openPairs, pairKey{worker: r.WorkerID, site: r.SiteID})
	cp := copyRecord(r)
	return &cp, nil
}

// FindOpen returns the open record for (worker, site) or
// sentinel.ErrNotFound.
func (s *InMemoryStore) FindOpen(_ context.Context, workerID id.WorkerID, siteID id.SiteID) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recordID, exists := s.openPairs[pairKey{worker: workerID, site: siteID}]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	out := copyRecord(s.records[recordID])
	return &out, nil
}

// OpenForSite returns every open record at the site, most recent sign-in
// first.
func (s *InMemoryStore) OpenForSite(_ context.Context, siteID id.SiteID) ([]*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Record
	for _, recordID := range s.openPairs {
		r := s.records[recordID]
		if r.SiteID == siteID {
			cp := copyRecord(r)
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SignedInAt.After(out[j].SignedInAt) })
	return out, nil
}

// HistoryFor returns a worker's records, most recent sign-in first,
// limited to limit entries when limit > 0.
func (s *InMemoryStore) HistoryFor(_ context.Context, workerID id.WorkerID, limit int) ([]*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Record
	for _, r := range s.records {
		if r.WorkerID == workerID {
			cp := copyRecord(r)
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SignedInAt.After(out[j].SignedInAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// CloseAllOpenBefore closes every open record at the site whose sign-in
// predates cutoff, setting sign-out to cutoff. Returns the number closed.
// Calling it again for the same cutoff closes nothing.
func (s *InMemoryStore) CloseAllOpenBefore(_ context.Context, siteID id.SiteID, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	closed := 0
	for key, recordID := range s.openPairs {
		r := s.records[recordID]
		if r.SiteID != siteID || !r.SignedInAt.Before(cutoff) {
			continue
		}
		out := cutoff
		r.SignedOutAt = &out
		delete(s.openPairs, key)
		closed++
	}
	return closed, nil
}

func copyRecord(r *models.Record) models.Record {
	cp := *r
	if r.SignedOutAt != nil {
		t := *r.SignedOutAt
		cp.SignedOutAt = &t
	}
	return cp
}
