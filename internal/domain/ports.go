package domain

import "context"

// JobRepository is the driven port for job and product persistence.
// Every call is its own durable commit.
type JobRepository interface {
	CreateJob(ctx context.Context) (*Job, error)
	GetJob(ctx context.Context, id string) (*Job, error)
	MarkProcessing(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, reason string) error
	AddProduct(ctx context.Context, p *Product) error
	ListProducts(ctx context.Context, jobID string) ([]Product, error)
	FailInterrupted(ctx context.Context, reason string) (int64, error)
}

// ImageCompressor is the driven port for the per-URL image pipeline:
// fetch, re-encode, store. On success it returns a reference resolvable
// via the output-serving endpoint.
type ImageCompressor interface {
	Compress(ctx context.Context, rawURL string) (string, error)
}

// AssetStore is the driven port for compressed asset files.
type AssetStore interface {
	Save(filename string, data []byte) error
	// Path resolves a stored filename to a servable filesystem path,
	// or ErrAssetNotFound.
	Path(filename string) (string, error)
}
