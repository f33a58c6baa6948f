package worker

import (
	"context"
	"sync"

	"github.com/aivaterepositories/sight-sign/internal/worker/models"
	id "github.com/aivaterepositories/sight-sign/pkg/domain"
	"github.com/aivaterepositories/sight-sign/pkg/platform/sentinel"
)

// InMemoryStore keeps workers in process memory. Used by unit tests and
// local development; the Postgres store is the production implementation.
type InMemoryStore struct {
	mu           sync.RWMutex
	byID         map[id.WorkerID]*models.Worker
	byCredential map[models.Credential]id.WorkerID
}

// New constructs an empty in-memory worker store.
func New() *InMemoryStore {
	return &InMemoryStore{
		byID:         make(map[id.WorkerID]*models.Worker),
		byCredential: make(map[models.Credential]id.WorkerID),
	}
}

// Create inserts a worker. Returns sentinel.ErrConflict if the worker ID is
// already registered and sentinel.ErrAlreadyUsed if the credential value is
// taken by another worker.
func (s *InMemoryStore) Create(_ context.Context, w *models.Worker) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[w.ID]; exists {
		return sentinel.ErrConflict
	}
	if _, exists := s.byCredential[w.Credential]; exists {
		return sentinel.ErrAlreadyUsed
	}

	stored := *w
	s.byID[w.ID] = &stored
	s.byCredential[w.Credential] = w.ID
	return nil
}

// FindByID returns the worker with the given ID or sentinel.ErrNotFound.
func (s *InMemoryStore) FindByID(_ context.Context, workerID id.WorkerID) (*models.Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, exists := s.byID[workerID]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	out := *w
	return &out, nil
}

// FindByCredential resolves a credential to its worker or returns
// sentinel.ErrNotFound.
func (s *InMemoryStore) FindByCredential(_ context.Context, cred models.Credential) (*models.Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	workerID, exists := s.byCredential[cred]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	out := *s.byID[workerID]
	return &out, nil
}

// UpdateContact replaces the mutable contact fields of a worker.
func (s *InMemoryStore) UpdateContact(_ context.Context, workerID id.WorkerID, company, phone string) (*models.Worker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, exists := s.byID[workerID]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	w.Company = company
	w.Phone = phone
	out := *w
	return &out, nil
}

// ReplaceCredential swaps a worker's credential for a freshly issued one.
// Returns sentinel.ErrAlreadyUsed if the new value collides with another
// worker's credential.
func (s *InMemoryStore) ReplaceCredential(_ context.Context, workerID id.WorkerID, cred models.Credential) (*models.Worker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, exists := s.byID[workerID]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	if owner, taken := s.byCredential[cred]; taken && owner != workerID {
		return nil, sentinel.ErrAlreadyUsed
	}

	delete(s.byCredential, w.Credential)
	w.Credential = cred
	s.byCredential[cred] = workerID
	out := *w
	return &out, nil
}
