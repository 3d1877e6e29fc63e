package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/n0tnow/Wisentia-sub006/internal/domain"
)

// JobJournalPG implements domain.JobJournal on PostgreSQL. One row per
// generation job; the status column carries both service statuses and the
// pipeline's own resolutions (approved/rejected/discarded).
type JobJournalPG struct {
	pool *pgxpool.Pool
}

// NewJobJournal creates a journal backed by PostgreSQL.
func NewJobJournal(pool *pgxpool.Pool) *JobJournalPG {
	return &JobJournalPG{pool: pool}
}

// Record inserts a freshly submitted job.
func (r *JobJournalPG) Record(ctx context.Context, job *domain.GenerationJob) error {
	requestJSON, err := json.Marshal(job.Request)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	query := `
INSERT INTO ai_generation_jobs (content_id, requester_id, content_kind, status, request_json, submitted_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, now())
ON CONFLICT (content_id) DO NOTHING;
`
	_, err = r.pool.Exec(ctx, query,
		job.ContentID,
		job.RequesterID,
		job.Request.Kind,
		job.Status,
		requestJSON,
		job.SubmittedAt,
	)
	return err
}

// UpdateStatus records a lifecycle transition, optionally attaching the draft
// payload or failure reason that arrived with it.
func (r *JobJournalPG) UpdateStatus(ctx context.Context, contentID, status, failureReason string, draft *domain.DraftContent) error {
	var draftJSON []byte
	if draft != nil {
		var err error
		if draftJSON, err = json.Marshal(draft); err != nil {
			return fmt.Errorf("encode draft: %w", err)
		}
	}
	query := `
UPDATE ai_generation_jobs
SET status = $2,
    updated_at = now(),
    failure_reason = COALESCE(NULLIF($3, ''), failure_reason),
    draft_json = COALESCE($4, draft_json)
WHERE content_id = $1;
`
	_, err := r.pool.Exec(ctx, query, contentID, status, failureReason, nullableBytes(draftJSON))
	return err
}

// Get fetches a journaled job by content id.
func (r *JobJournalPG) Get(ctx context.Context, contentID string) (*domain.GenerationJob, error) {
	query := `
SELECT content_id, requester_id, status, request_json, draft_json, failure_reason, submitted_at, updated_at
FROM ai_generation_jobs
WHERE content_id = $1;
`
	return scanJob(r.pool.QueryRow(ctx, query, contentID))
}

// ListByStatus returns the most recent jobs carrying the given status.
func (r *JobJournalPG) ListByStatus(ctx context.Context, status string, limit int) ([]domain.GenerationJob, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
SELECT content_id, requester_id, status, request_json, draft_json, failure_reason, submitted_at, updated_at
FROM ai_generation_jobs
WHERE status = $1
ORDER BY updated_at DESC
LIMIT $2;
`
	rows, err := r.pool.Query(ctx, query, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []domain.GenerationJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// PurgeResolvedBefore deletes resolved rows older than the cutoff and reports
// how many were removed.
func (r *JobJournalPG) PurgeResolvedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
DELETE FROM ai_generation_jobs
WHERE status IN ($1, $2, $3)
  AND updated_at < $4;
`
	tag, err := r.pool.Exec(ctx, query,
		domain.ResolutionApproved,
		domain.ResolutionRejected,
		domain.ResolutionDiscarded,
		cutoff,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanJob(row pgx.Row) (*domain.GenerationJob, error) {
	var (
		job           domain.GenerationJob
		status        string
		requestJSON   []byte
		draftJSON     []byte
		failureReason *string
	)
	if err := row.Scan(
		&job.ContentID,
		&job.RequesterID,
		&status,
		&requestJSON,
		&draftJSON,
		&failureReason,
		&job.SubmittedAt,
		&job.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	job.Status = domain.JobStatus(status)
	if failureReason != nil {
		job.FailureReason = *failureReason
	}
	if len(requestJSON) > 0 {
		if err := json.Unmarshal(requestJSON, &job.Request); err != nil {
			return nil, fmt.Errorf("decode request: %w", err)
		}
	}
	if len(draftJSON) > 0 {
		var draft domain.DraftContent
		if err := json.Unmarshal(draftJSON, &draft); err != nil {
			return nil, fmt.Errorf("decode draft: %w", err)
		}
		job.Draft = &draft
	}
	return &job, nil
}

func nullableBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}

var _ domain.JobJournal = (*JobJournalPG)(nil)
