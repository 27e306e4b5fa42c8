package importer

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/warp/census-engine/census"
)

// Run statuses.
const (
	RunRunning   = "running"
	RunCompleted = "completed"
	RunAborted   = "aborted"
	RunFailed    = "failed"
)

// ImportRun tracks one import batch.
type ImportRun struct {
	ID          string
	Kind        string // members, sir, booths, houses
	Filename    string
	Status      string
	Created     int
	Updated     int
	Skipped     int
	Failed      int
	Aliases     int
	Error       string
	StartedAt   time.Time
	CompletedAt *time.Time
}

// RunStore persists import run history.
type RunStore interface {
	SaveImportRun(ctx context.Context, r ImportRun) error
}

// NewImportRun starts a run record with a fresh ID.
func NewImportRun(kind, filename string) ImportRun {
	return ImportRun{
		ID:        uuid.NewString(),
		Kind:      kind,
		Filename:  filename,
		Status:    RunRunning,
		StartedAt: time.Now().UTC(),
	}
}

// Finish copies a batch summary into the run and marks it done.
func (r *ImportRun) Finish(sum census.Summary) {
	r.Created, r.Updated, r.Skipped, r.Failed, r.Aliases = sum.Created, sum.Updated, sum.Skipped, sum.Failed, sum.Aliases
	r.Status = RunCompleted
	if sum.Aborted {
		r.Status = RunAborted
	}
	now := time.Now().UTC()
	r.CompletedAt = &now
}

// Fail marks the run failed before any row was processed.
func (r *ImportRun) Fail(err error) {
	r.Status = RunFailed
	r.Error = err.Error()
	now := time.Now().UTC()
	r.CompletedAt = &now
}
