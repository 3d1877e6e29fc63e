package domain

import (
	"context"
	"time"
)

// Resolution values recorded in the job journal once a job leaves the cache.
// They extend the service-side statuses with the pipeline's own outcomes.
const (
	ResolutionApproved  = "approved"
	ResolutionRejected  = "rejected"
	ResolutionDiscarded = "discarded"
)

// JobJournal persists job lifecycle transitions for audit and for the review
// queue to survive restarts. Writes are best-effort from the pipeline's point
// of view; a journal failure never blocks the job itself.
type JobJournal interface {
	Record(ctx context.Context, job *GenerationJob) error
	UpdateStatus(ctx context.Context, contentID, status, failureReason string, draft *DraftContent) error
	Get(ctx context.Context, contentID string) (*GenerationJob, error)
	ListByStatus(ctx context.Context, status string, limit int) ([]GenerationJob, error)
	PurgeResolvedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// EntityRepository stores materialized entities. It doubles as the approve
// idempotency ledger: one row per source content id.
type EntityRepository interface {
	Save(ctx context.Context, entity *MaterializedEntity) error
	GetBySource(ctx context.Context, contentID string) (*MaterializedEntity, error)
}
