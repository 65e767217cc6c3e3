// Package worker drives submitted jobs from pending to a terminal state.
package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"github.com/cwygoda/imagepress/internal/domain"
	"github.com/cwygoda/imagepress/internal/parse"
)

// Processor executes one job: it owns the status transitions, iterates
// CSV rows and fans out image compression per URL.
type Processor struct {
	svc      *domain.JobService
	comp     domain.ImageCompressor
	fetchSem chan struct{}
}

// NewProcessor creates a processor. fetchConcurrency bounds how many
// image fetches run at once across all jobs.
func NewProcessor(svc *domain.JobService, comp domain.ImageCompressor, fetchConcurrency int) *Processor {
	if fetchConcurrency < 1 {
		fetchConcurrency = 1
	}
	return &Processor{
		svc:      svc,
		comp:     comp,
		fetchSem: make(chan struct{}, fetchConcurrency),
	}
}

// Process runs a job to a terminal state. Row-level errors fail the
// whole job; per-URL errors are recorded in-band and do not.
func (p *Processor) Process(ctx context.Context, jobID, csvText string) {
	if err := p.svc.MarkProcessing(ctx, jobID); err != nil {
		log.Printf("job %s: claim failed: %v", jobID, err)
		return
	}
	log.Printf("job %s: processing", jobID)

	if err := p.run(ctx, jobID, csvText); err != nil {
		log.Printf("job %s: failed: %v", jobID, err)
		if err := p.svc.MarkFailed(ctx, jobID, err.Error()); err != nil {
			log.Printf("job %s: mark failed error: %v", jobID, err)
		}
		return
	}

	if err := p.svc.MarkCompleted(ctx, jobID); err != nil {
		log.Printf("job %s: mark completed error: %v", jobID, err)
		return
	}
	log.Printf("job %s: completed", jobID)
}

func (p *Processor) run(ctx context.Context, jobID, csvText string) error {
	rows, err := parse.NewReader(strings.NewReader(csvText))
	if err != nil {
		return err
	}

	for {
		row, err := rows.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		// A row is staged in memory until every URL has resolved,
		// then committed as one unit.
		product := &domain.Product{
			JobID:        jobID,
			SerialNumber: row.SerialNumber,
			Name:         row.ProductName,
			InputURLs:    row.ImageURLs,
			OutputURLs:   p.compressAll(ctx, row.ImageURLs),
		}
		if err := p.svc.AddProduct(ctx, product); err != nil {
			return fmt.Errorf("persist product %d: %w", row.SerialNumber, err)
		}
	}
}

// compressAll fans out one fetch per URL through the bounded semaphore
// and re-assembles results in input index order, whatever order the
// fetches complete in. Failures become in-band error markers.
func (p *Processor) compressAll(ctx context.Context, urls []string) []string {
	outputs := make([]string, len(urls))
	var wg sync.WaitGroup
	for i, u := range urls {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			p.fetchSem <- struct{}{}
			defer func() { <-p.fetchSem }()

			ref, err := p.comp.Compress(ctx, u)
			if err != nil {
				outputs[i] = domain.ErrorMarker(err)
				return
			}
			outputs[i] = ref
		}(i, u)
	}
	wg.Wait()
	return outputs
}
