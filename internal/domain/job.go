package domain

import "time"

// JobStatus represents the processing state of a job.
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// Terminal returns true once a job can no longer change state.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job represents one CSV submission and its processing lifecycle.
// Status only ever moves pending -> processing -> completed|failed.
type Job struct {
	ID        string
	Status    JobStatus
	Error     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
