package core

import (
	"context"
	"time"

	"github.com/target/repeater/internal/domain/model"
)

// This file contains the ports the job runner depends on.
// Adapters under internal/adapters and internal/data provide the implementations.

// DataSourceClient resolves named inventory objects and fetches their results.
// Failures are returned as typed application errors (lookup_not_found, transport, parse).
type DataSourceClient interface {
	FindReportByName(ctx context.Context, name string) (model.ReportHandle, error)
	FindViewByName(ctx context.Context, name string) (model.ViewHandle, error)
	FindQuestionIDByName(ctx context.Context, name string) (int64, error)
	FetchReport(ctx context.Context, handle model.ReportHandle) (model.RawDataset, error)
	FetchView(ctx context.Context, handle model.ViewHandle) (model.RawDataset, error)
	FetchQuestion(ctx context.Context, id int64) (model.RawDataset, error)
}

// Payload is what a destination delivers: the serialized bytes for file-like
// destinations, and the raw dataset for log ingestion.
type Payload struct {
	Data []byte
	Raw  model.RawDataset
}

// Destination delivers a payload for a job.
type Destination interface {
	Deliver(ctx context.Context, job *model.JobSpec, p Payload) error
}

// JobStore persists the set of export jobs and their last run.
type JobStore interface {
	Load(ctx context.Context) ([]*model.JobSpec, error)
	Save(ctx context.Context, jobs []*model.JobSpec) error
}

// ObjectUploader uploads a local file to an object store bucket.
type ObjectUploader interface {
	UploadFile(ctx context.Context, bucket, key, localPath string) error
}

// CacheRepository defines the interface for caching operations.
// This follows the hexagonal architecture pattern where the core defines interfaces
// and the data layer provides implementations.
type CacheRepository interface {
	// Set stores a value in the cache with the given key and TTL.
	// If TTL is 0, the key will not expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get retrieves a value from the cache by key.
	// Returns nil if the key doesn't exist or has expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes a key from the cache.
	// Returns true if the key was deleted, false if it didn't exist.
	Delete(ctx context.Context, key string) (bool, error)

	// Health checks the health of the cache connection.
	Health(ctx context.Context) error
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}
