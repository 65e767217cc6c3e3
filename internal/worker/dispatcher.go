package worker

import (
	"context"
	"sync"

	"github.com/cwygoda/imagepress/internal/domain"
)

// Dispatcher accepts job submissions and hands them to the processor
// on background goroutines. Submission never waits for processing.
type Dispatcher struct {
	svc     *domain.JobService
	proc    *Processor
	baseCtx context.Context
	jobSem  chan struct{}
	wg      sync.WaitGroup
}

// NewDispatcher creates a dispatcher. baseCtx scopes all background
// processing; maxJobs bounds how many jobs execute concurrently
// (excess submissions queue on the semaphore, not on the caller).
func NewDispatcher(baseCtx context.Context, svc *domain.JobService, proc *Processor, maxJobs int) *Dispatcher {
	if maxJobs < 1 {
		maxJobs = 1
	}
	return &Dispatcher{
		svc:     svc,
		proc:    proc,
		baseCtx: baseCtx,
		jobSem:  make(chan struct{}, maxJobs),
	}
}

// Submit creates a pending job record, starts processing in the
// background and returns the job ID immediately.
func (d *Dispatcher) Submit(ctx context.Context, csvText string) (string, error) {
	job, err := d.svc.Create(ctx)
	if err != nil {
		return "", err
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		select {
		case d.jobSem <- struct{}{}:
		case <-d.baseCtx.Done():
			// Left pending; startup recovery fails it on restart.
			return
		}
		defer func() { <-d.jobSem }()
		d.proc.Process(d.baseCtx, job.ID, csvText)
	}()

	return job.ID, nil
}

// Wait blocks until all in-flight jobs finish or ctx expires.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
