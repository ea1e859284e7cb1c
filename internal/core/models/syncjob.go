package models

import (
	"time"

	"github.com/google/uuid"
)

// SyncMode selects between a full re-fetch and a watermark-scoped run.
type SyncMode string

const (
	ModeFull        SyncMode = "full"
	ModeIncremental SyncMode = "incremental"
)

// JobStatus is the sync job state machine:
// pending -> running -> {completed, partial, failed, cancelled}.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobPartial   JobStatus = "partial"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
)

// Terminal reports whether no further transition is possible.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobCompleted, JobPartial, JobFailed, JobCancelled:
		return true
	}
	return false
}

// SyncJob is one orchestrated run for an (account, resource) pair. Snapshots
// of it are what the status endpoint returns; the orchestrator owns the
// mutable original.
type SyncJob struct {
	ID       uuid.UUID    `json:"id"`
	Account  AccountName  `json:"account"`
	Resource ResourceType `json:"resource"`
	Mode     SyncMode     `json:"mode"`
	Status   JobStatus    `json:"status"`

	PagesProcessed int    `json:"pages_processed"`
	ItemsProcessed int    `json:"items_processed"`
	ErrorSummary   string `json:"error_summary,omitempty"`

	// Cursor is an opaque resume position: "page:<n>" after a partial run,
	// or an RFC3339 watermark for incremental scoping.
	Cursor string `json:"cursor,omitempty"`

	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}
