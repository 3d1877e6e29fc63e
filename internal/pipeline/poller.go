package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/n0tnow/Wisentia-sub006/internal/domain"
	"github.com/n0tnow/Wisentia-sub006/internal/infra"
)

// StatusReader is the single idempotent read the poller needs from the
// generation service.
type StatusReader interface {
	Status(ctx context.Context, contentID string) (*domain.GenerationJob, error)
}

// Poller drives the poll loop for one content id at a time: exponential
// backoff between reads, a hard ceiling on total wait, and cache updates that
// respect the discard rule. The orchestrator guarantees at most one running
// loop per content id.
type Poller struct {
	svc     StatusReader
	cache   *Cache
	logger  infra.Logger
	initial time.Duration
	max     time.Duration
	ceiling time.Duration

	// OnUpdate fires after every accepted cache update, including the
	// synthetic timed_out and malformed-terminal failures.
	OnUpdate func(job *domain.GenerationJob)
}

func NewPoller(svc StatusReader, cache *Cache, logger infra.Logger, initial, max, ceiling time.Duration) *Poller {
	if initial <= 0 {
		initial = 2 * time.Second
	}
	if max < initial {
		max = initial
	}
	return &Poller{svc: svc, cache: cache, logger: logger, initial: initial, max: max, ceiling: ceiling}
}

// Run polls until the job reaches a terminal state, the ceiling is exceeded,
// or ctx is cancelled (discard). It never blocks the caller's flow; run it on
// its own goroutine.
func (p *Poller) Run(ctx context.Context, contentID string) {
	start := time.Now()
	interval := p.initial

	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}

		if p.ceiling > 0 && time.Since(start) > p.ceiling {
			p.markTimedOut(contentID)
			return
		}

		job, err := p.svc.Status(ctx, contentID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, domain.ErrMalformedTerminalState) || errors.Is(err, domain.ErrNotFound) {
				p.markFailed(contentID, err)
				return
			}
			// Unavailable or 5xx during a poll is retried under the same
			// backoff; the read has no side effects.
			p.logger.Warn().Err(err).Str("content_id", contentID).Msg("poller: status read failed, retrying")
			interval = p.next(interval)
			continue
		}

		if done := p.apply(contentID, job); done {
			return
		}
		interval = p.next(interval)
	}
}

// apply merges the poll result into the cached entry. Returns true when the
// loop should stop: either the job went terminal or it was discarded.
func (p *Poller) apply(contentID string, polled *domain.GenerationJob) bool {
	cached, ok := p.cache.Get(contentID)
	if !ok {
		// Discarded while the read was in flight. A late result never
		// resurrects the entry.
		return true
	}

	cached.Status = polled.Status
	cached.Draft = polled.Draft
	cached.FailureReason = polled.FailureReason
	cached.UpdatedAt = time.Now().UTC()

	if !p.cache.Update(cached) {
		return true
	}
	if p.OnUpdate != nil {
		p.OnUpdate(cached)
	}
	return cached.Status.Terminal()
}

func (p *Poller) markTimedOut(contentID string) {
	cached, ok := p.cache.Get(contentID)
	if !ok {
		return
	}
	cached.Status = domain.JobStatusTimedOut
	cached.FailureReason = "no terminal status before the polling ceiling; the service may still finish this job"
	cached.UpdatedAt = time.Now().UTC()
	if p.cache.Update(cached) {
		p.logger.Warn().Str("content_id", contentID).Msg("poller: poll ceiling exceeded")
		if p.OnUpdate != nil {
			p.OnUpdate(cached)
		}
	}
}

func (p *Poller) markFailed(contentID string, cause error) {
	cached, ok := p.cache.Get(contentID)
	if !ok {
		return
	}
	cached.Status = domain.JobStatusFailed
	cached.FailureReason = cause.Error()
	cached.Draft = nil
	cached.UpdatedAt = time.Now().UTC()
	if p.cache.Update(cached) {
		p.logger.Error().Err(cause).Str("content_id", contentID).Msg("poller: job failed fatally")
		if p.OnUpdate != nil {
			p.OnUpdate(cached)
		}
	}
}

func (p *Poller) next(cur time.Duration) time.Duration {
	next := cur * 2
	if next > p.max {
		next = p.max
	}
	return next
}
