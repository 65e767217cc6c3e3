package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/cwygoda/imagepress/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
    id         TEXT PRIMARY KEY,
    status     TEXT NOT NULL DEFAULT 'pending',
    error      TEXT,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);

CREATE TABLE IF NOT EXISTS products (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    job_id        TEXT NOT NULL REFERENCES jobs(id),
    serial_number INTEGER NOT NULL,
    name          TEXT NOT NULL,
    input_urls    TEXT NOT NULL,
    output_urls   TEXT NOT NULL,
    created_at    DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_products_job ON products(job_id);
`

// Repository implements domain.JobRepository using SQLite.
type Repository struct {
	db *sql.DB
}

// New creates a new SQLite repository, initializing the schema if needed.
func New(dbPath string) (*Repository, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	// Initialize schema
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &Repository{db: db}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// CreateJob inserts a new pending job under a fresh random ID.
func (r *Repository) CreateJob(ctx context.Context) (*domain.Job, error) {
	id := uuid.NewString()
	now := time.Now()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO jobs (id, status, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		id, domain.StatusPending, now, now,
	)
	if err != nil {
		return nil, err
	}

	return &domain.Job{
		ID:        id,
		Status:    domain.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// GetJob retrieves a job by ID.
func (r *Repository) GetJob(ctx context.Context, id string) (*domain.Job, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, status, COALESCE(error, ''), created_at, updated_at
		 FROM jobs WHERE id = ?`, id,
	)

	var job domain.Job
	var status string
	err := row.Scan(&job.ID, &status, &job.Error, &job.CreatedAt, &job.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	job.Status = domain.JobStatus(status)
	return &job, nil
}

// MarkProcessing atomically claims a pending job for processing.
func (r *Repository) MarkProcessing(ctx context.Context, id string) error {
	return r.transition(ctx, id, domain.StatusProcessing,
		`UPDATE jobs SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		domain.StatusProcessing, time.Now(), id, domain.StatusPending,
	)
}

// MarkCompleted moves a processing job to completed.
func (r *Repository) MarkCompleted(ctx context.Context, id string) error {
	return r.transition(ctx, id, domain.StatusCompleted,
		`UPDATE jobs SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		domain.StatusCompleted, time.Now(), id, domain.StatusProcessing,
	)
}

// MarkFailed moves a processing job to failed with a reason.
func (r *Repository) MarkFailed(ctx context.Context, id string, reason string) error {
	return r.transition(ctx, id, domain.StatusFailed,
		`UPDATE jobs SET status = ?, error = ?, updated_at = ? WHERE id = ? AND status = ?`,
		domain.StatusFailed, reason, time.Now(), id, domain.StatusProcessing,
	)
}

// transition runs a conditional status update. Zero rows affected means
// either the job is unknown or the update would regress the state
// machine; the two are told apart with a follow-up read.
func (r *Repository) transition(ctx context.Context, id string, to domain.JobStatus, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		if _, err := r.GetJob(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("%w: job %s to %s", domain.ErrInvalidTransition, id, to)
	}
	return nil
}

// AddProduct inserts one product row. URL lists are stored as JSON text.
func (r *Repository) AddProduct(ctx context.Context, p *domain.Product) error {
	inputs, err := json.Marshal(p.InputURLs)
	if err != nil {
		return err
	}
	outputs, err := json.Marshal(p.OutputURLs)
	if err != nil {
		return err
	}

	now := time.Now()
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO products (job_id, serial_number, name, input_urls, output_urls, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.JobID, p.SerialNumber, p.Name, string(inputs), string(outputs), now,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = id
	p.CreatedAt = now
	return nil
}

// ListProducts returns a job's products in insertion (row) order.
func (r *Repository) ListProducts(ctx context.Context, jobID string) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, job_id, serial_number, name, input_urls, output_urls, created_at
		 FROM products WHERE job_id = ? ORDER BY id ASC`, jobID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		var inputs, outputs string
		if err := rows.Scan(&p.ID, &p.JobID, &p.SerialNumber, &p.Name, &inputs, &outputs, &p.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(inputs), &p.InputURLs); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(outputs), &p.OutputURLs); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// FailInterrupted marks all non-terminal jobs as failed (crash recovery).
func (r *Repository) FailInterrupted(ctx context.Context, reason string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, error = ?, updated_at = ?
		 WHERE status IN (?, ?)`,
		domain.StatusFailed, reason, time.Now(), domain.StatusPending, domain.StatusProcessing,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
