package models

import (
	"strings"
	"time"

	id "github.com/aivaterepositories/sight-sign/pkg/domain"
	dErrors "github.com/aivaterepositories/sight-sign/pkg/domain-errors"
)

// Worker is the aggregate for a registered site worker.
//
// Invariants:
//   - ID equals the authentication principal the worker registered under;
//     exactly one Worker exists per principal
//   - Name and Company are non-empty, at most 128 characters
//   - Credential is unique across all workers and stable for the worker's
//     lifetime unless explicitly reissued
//   - Name and CreatedAt are immutable after construction; Company and
//     Phone are contact fields and stay editable
type Worker struct {
	ID         id.WorkerID `json:"id"`
	Name       string      `json:"name"`
	Company    string      `json:"company"`
	Phone      string      `json:"phone,omitempty"`
	Credential Credential  `json:"credential"`
	CreatedAt  time.Time   `json:"created_at"`
}

// NewWorker validates fields and constructs a Worker. The credential is
// bound separately by the registration service.
func NewWorker(workerID id.WorkerID, name, company, phone string, now time.Time) (*Worker, error) {
	name = strings.TrimSpace(name)
	company = strings.TrimSpace(company)
	phone = strings.TrimSpace(phone)

	if workerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "worker id is required")
	}
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "worker name cannot be empty")
	}
	if len(name) > 128 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "worker name must be 128 characters or less")
	}
	if company == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "company cannot be empty")
	}
	if len(company) > 128 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "company must be 128 characters or less")
	}

	return &Worker{
		ID:        workerID,
		Name:      name,
		Company:   company,
		Phone:     phone,
		CreatedAt: now,
	}, nil
}
