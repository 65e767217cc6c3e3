package domain

import (
	"context"
	"errors"
)

var (
	ErrJobNotFound       = errors.New("job not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrAssetNotFound     = errors.New("asset not found")
	ErrMisalignedOutputs = errors.New("output list does not align with input list")
)

// JobService orchestrates job operations.
type JobService struct {
	repo JobRepository
}

// NewJobService creates a new JobService.
func NewJobService(repo JobRepository) *JobService {
	return &JobService{repo: repo}
}

// Create inserts a new pending job and returns it.
func (s *JobService) Create(ctx context.Context) (*Job, error) {
	return s.repo.CreateJob(ctx)
}

// Get retrieves a job by ID.
func (s *JobService) Get(ctx context.Context, id string) (*Job, error) {
	return s.repo.GetJob(ctx, id)
}

// MarkProcessing claims a pending job for processing.
func (s *JobService) MarkProcessing(ctx context.Context, id string) error {
	return s.repo.MarkProcessing(ctx, id)
}

// MarkCompleted marks a processing job as completed.
func (s *JobService) MarkCompleted(ctx context.Context, id string) error {
	return s.repo.MarkCompleted(ctx, id)
}

// MarkFailed marks a processing job as failed with a reason.
func (s *JobService) MarkFailed(ctx context.Context, id string, reason string) error {
	return s.repo.MarkFailed(ctx, id, reason)
}

// AddProduct persists one fully assembled product row.
func (s *JobService) AddProduct(ctx context.Context, p *Product) error {
	if len(p.OutputURLs) != len(p.InputURLs) {
		return ErrMisalignedOutputs
	}
	return s.repo.AddProduct(ctx, p)
}

// Products returns a job's products in row order.
func (s *JobService) Products(ctx context.Context, jobID string) ([]Product, error) {
	return s.repo.ListProducts(ctx, jobID)
}

// FailInterrupted marks jobs orphaned by a previous crash as failed.
// A non-terminal job found at startup has lost its processor and will
// never be re-run, so failing it keeps status polling meaningful.
func (s *JobService) FailInterrupted(ctx context.Context) (int64, error) {
	return s.repo.FailInterrupted(ctx, "interrupted by restart")
}
