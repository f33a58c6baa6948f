package models

import (
	"time"

	id "github.com/aivaterepositories/sight-sign/pkg/domain"
	dErrors "github.com/aivaterepositories/sight-sign/pkg/domain-errors"
)

// Record is one worker's presence interval at one site.
//
// Invariants:
//   - At most one open record per (worker, site) pair at any instant,
//     enforced by the storage layer with a partial unique index, never by
//     in-process locking
//   - SignedOutAt, when set, is never before SignedInAt
//   - A closed record is immutable; history is append-only
type Record struct {
	ID          id.RecordID `json:"id"`
	WorkerID    id.WorkerID `json:"worker_id"`
	SiteID      id.SiteID   `json:"site_id"`
	SignedInAt  time.Time   `json:"signed_in_at"`
	SignedOutAt *time.Time  `json:"signed_out_at,omitempty"`
}

// Open reports whether the worker is still on site.
func (r *Record) Open() bool {
	return r.SignedOutAt == nil
}

// NewRecord constructs an open attendance record.
func NewRecord(recordID id.RecordID, workerID id.WorkerID, siteID id.SiteID, signedInAt time.Time) (*Record, error) {
	if recordID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "record id is required")
	}
	if workerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "worker id is required")
	}
	if siteID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "site id is required")
	}
	if signedInAt.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "sign-in time is required")
	}
	return &Record{
		ID:         recordID,
		WorkerID:   workerID,
		SiteID:     siteID,
		SignedInAt: signedInAt,
	}, nil
}
