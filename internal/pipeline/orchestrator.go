package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/n0tnow/Wisentia-sub006/internal/domain"
	"github.com/n0tnow/Wisentia-sub006/internal/infra"
)

// GenerationService is the full surface the orchestrator consumes from the
// backend generation engine.
type GenerationService interface {
	Generate(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationJob, error)
	Status(ctx context.Context, contentID string) (*domain.GenerationJob, error)
	Approve(ctx context.Context, contentID string, fin domain.FinalizationParams) (*domain.MaterializedEntity, error)
	Reject(ctx context.Context, contentID string) error
	Pending(ctx context.Context) ([]domain.GenerationJob, error)
}

// Options wires an Orchestrator. Journal and Entities may be nil; persistence
// is audit-grade, not load-bearing.
type Options struct {
	Service  GenerationService
	Journal  domain.JobJournal
	Entities domain.EntityRepository
	Logger   infra.Logger

	PollInitial time.Duration
	PollMax     time.Duration
	PollCeiling time.Duration
}

type activeKey struct {
	kind      domain.ContentKind
	requester string
}

// maxDroppedHistory bounds how many resolved jobs stay remembered after they
// leave the cache. The history keeps discards final against late poll results
// and keeps a discarded job's request available for Regenerate.
const maxDroppedHistory = 1024

type droppedJob struct {
	job        *domain.GenerationJob
	resolution string
}

// Orchestrator is the only component the UI talks to. It owns the draft
// cache, the admission map that keeps at most one non-terminal job per
// (content kind, requester), and one poll loop per tracked content id.
type Orchestrator struct {
	svc      GenerationService
	cache    *Cache
	builder  *Builder
	gate     reviewGate
	poller   *Poller
	journal  domain.JobJournal
	entities domain.EntityRepository
	logger   infra.Logger

	mu            sync.Mutex
	active        map[activeKey]string
	cancels       map[string]context.CancelFunc
	materializing map[string]struct{}
	dropped       map[string]droppedJob
	droppedOrder  []string

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewOrchestrator(opts Options) *Orchestrator {
	cache := NewCache()
	ctx, cancel := context.WithCancel(context.Background())
	o := &Orchestrator{
		svc:           opts.Service,
		cache:         cache,
		builder:       NewBuilder(),
		journal:       opts.Journal,
		entities:      opts.Entities,
		logger:        opts.Logger,
		active:        make(map[activeKey]string),
		cancels:       make(map[string]context.CancelFunc),
		materializing: make(map[string]struct{}),
		dropped:       make(map[string]droppedJob),
		baseCtx:       ctx,
		cancel:        cancel,
	}
	o.poller = NewPoller(opts.Service, cache, opts.Logger, opts.PollInitial, opts.PollMax, opts.PollCeiling)
	o.poller.OnUpdate = o.onJobUpdate
	return o
}

// Close stops every poll loop and waits for them to exit.
func (o *Orchestrator) Close() {
	o.cancel()
	o.wg.Wait()
}

// RequestGeneration validates input, submits it, and begins tracking the new
// job. While the requester already has a non-terminal job of the same kind,
// the outstanding job is returned instead of spawning a second one.
func (o *Orchestrator) RequestGeneration(ctx context.Context, requesterID string, input RawGenerationInput) (*domain.GenerationJob, error) {
	if requesterID == "" {
		return nil, domain.NewValidationError("requester", "is required")
	}
	req, err := o.builder.Build(input)
	if err != nil {
		return nil, err
	}
	return o.submit(ctx, requesterID, req)
}

func (o *Orchestrator) submit(ctx context.Context, requesterID string, req domain.GenerationRequest) (*domain.GenerationJob, error) {
	key := activeKey{kind: req.Kind, requester: requesterID}

	o.mu.Lock()
	if existing, ok := o.active[key]; ok {
		o.mu.Unlock()
		if job, found := o.cache.Get(existing); found {
			return job, nil
		}
		// Slot reserved but the submit has not returned an id yet.
		return nil, domain.ErrJobOutstanding
	}
	// Reserve the slot before the network call so a re-entrant submit for the
	// same key coalesces instead of racing.
	o.active[key] = ""
	o.mu.Unlock()

	job, err := o.svc.Generate(ctx, req)
	if err != nil {
		o.mu.Lock()
		delete(o.active, key)
		o.mu.Unlock()
		return nil, err
	}
	job.RequesterID = requesterID

	pollCtx, cancel := context.WithCancel(o.baseCtx)
	o.mu.Lock()
	o.active[key] = job.ContentID
	o.cancels[job.ContentID] = cancel
	delete(o.dropped, job.ContentID)
	o.mu.Unlock()

	o.cache.Put(job)
	o.journalRecord(ctx, job)

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer cancel()
		o.poller.Run(pollCtx, job.ContentID)
	}()

	o.logger.Info().
		Str("content_id", job.ContentID).
		Str("content_kind", string(req.Kind)).
		Str("requester_id", requesterID).
		Msg("pipeline: generation submitted")
	return job.Clone(), nil
}

// GetStatus serves the cached job state. A job the poll loop gave up on
// (timed_out) gets one live read, since the service may have completed it
// after the ceiling.
func (o *Orchestrator) GetStatus(ctx context.Context, contentID string) (*domain.GenerationJob, error) {
	job, ok := o.cache.Get(contentID)
	if !ok {
		if o.journal != nil {
			if archived, err := o.journal.Get(ctx, contentID); err == nil {
				return archived, nil
			}
		}
		return nil, domain.ErrNotFound
	}
	if job.Status != domain.JobStatusTimedOut {
		return job, nil
	}

	polled, err := o.svc.Status(ctx, contentID)
	if err != nil || !polled.Status.Terminal() {
		// The cached timed_out view stands until the service has a terminal
		// answer; the poll loop for this job is already gone.
		return job, nil
	}
	job.Status = polled.Status
	job.Draft = polled.Draft
	job.FailureReason = polled.FailureReason
	job.UpdatedAt = time.Now().UTC()
	if o.cache.Update(job) {
		o.onJobUpdate(job)
	}
	return job, nil
}

// Decide routes a completed draft through the review gate. Approval
// materializes the draft and clears the cache entry; rejection discards it.
// The returned entity is nil for rejections.
func (o *Orchestrator) Decide(ctx context.Context, contentID string, outcome domain.ReviewOutcome, fin *domain.FinalizationParams) (*domain.MaterializedEntity, error) {
	job, ok := o.cache.Get(contentID)
	if !ok {
		return nil, domain.ErrNotFound
	}
	decision, err := o.gate.check(job, outcome, fin)
	if err != nil {
		return nil, err
	}

	if decision.Outcome == domain.ReviewRejected {
		if err := o.svc.Reject(ctx, contentID); err != nil {
			// Local discard is authoritative; server-side bookkeeping is
			// best-effort.
			o.logger.Warn().Err(err).Str("content_id", contentID).Msg("pipeline: backend reject failed")
		}
		o.drop(ctx, contentID, domain.ResolutionRejected)
		return nil, nil
	}

	return o.materialize(ctx, job, *decision.Finalization)
}

func (o *Orchestrator) materialize(ctx context.Context, job *domain.GenerationJob, fin domain.FinalizationParams) (*domain.MaterializedEntity, error) {
	contentID := job.ContentID

	// contentID is the natural idempotency key: an already materialized draft
	// returns its stored entity instead of creating a second one.
	if o.entities != nil {
		if entity, err := o.entities.GetBySource(ctx, contentID); err == nil && entity != nil {
			o.drop(ctx, contentID, domain.ResolutionApproved)
			return entity, nil
		}
	}

	o.mu.Lock()
	if _, busy := o.materializing[contentID]; busy {
		o.mu.Unlock()
		return nil, domain.ErrDecisionInFlight
	}
	o.materializing[contentID] = struct{}{}
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		delete(o.materializing, contentID)
		o.mu.Unlock()
	}()

	entity, err := o.svc.Approve(ctx, contentID, fin)
	if err != nil {
		return nil, err
	}
	entity.Kind = job.Request.Kind

	if o.entities != nil {
		if err := o.entities.Save(ctx, entity); err != nil {
			o.logger.Error().Err(err).Str("content_id", contentID).Msg("pipeline: persist materialized entity failed")
		}
	}
	o.drop(ctx, contentID, domain.ResolutionApproved)

	o.logger.Info().
		Str("content_id", contentID).
		Str("entity_id", entity.EntityID).
		Str("content_kind", string(entity.Kind)).
		Msg("pipeline: draft materialized")
	return entity, nil
}

// Regenerate resubmits the original request of a failed, timed out or
// discarded job as a brand-new job with a fresh content id. The old id is
// never revived. Approved and rejected jobs had their decision; they are not
// regenerable.
func (o *Orchestrator) Regenerate(ctx context.Context, contentID string) (*domain.GenerationJob, error) {
	job, ok := o.cache.Get(contentID)
	if !ok {
		o.mu.Lock()
		dropped, seen := o.dropped[contentID]
		o.mu.Unlock()
		if seen && dropped.job != nil {
			job, ok = dropped.job.Clone(), true
			job.Status = domain.JobStatus(dropped.resolution)
		}
	}
	if !ok && o.journal != nil {
		if archived, err := o.journal.Get(ctx, contentID); err == nil {
			job, ok = archived, true
		}
	}
	if !ok {
		return nil, domain.ErrNotFound
	}
	switch job.Status {
	case domain.JobStatusFailed, domain.JobStatusTimedOut, domain.JobStatus(domain.ResolutionDiscarded):
	default:
		return nil, fmt.Errorf("job %s is %s: %w", contentID, job.Status, domain.ErrJobNotRegenerable)
	}
	return o.submit(ctx, job.RequesterID, job.Request)
}

// Discard abandons a job before a decision: the poll loop stops, the cache
// entry is removed, and any late service-side completion is ignored. The
// service may keep computing the abandoned job; that is tolerated.
func (o *Orchestrator) Discard(ctx context.Context, contentID string) error {
	if _, ok := o.cache.Get(contentID); !ok {
		return domain.ErrNotFound
	}
	o.drop(ctx, contentID, domain.ResolutionDiscarded)
	return nil
}

// PendingReview merges the service's pending listing into the cache so the
// review queue survives reloads, then returns every completed draft awaiting
// a decision. Ids discarded this session stay discarded.
func (o *Orchestrator) PendingReview(ctx context.Context) ([]domain.GenerationJob, error) {
	remote, err := o.svc.Pending(ctx)
	if err != nil {
		return nil, err
	}
	for i := range remote {
		job := remote[i]
		if job.Status != domain.JobStatusCompleted || job.ContentID == "" {
			continue
		}
		if job.Request.Kind == "" && job.Draft != nil {
			job.Request.Kind = job.Draft.Kind
		}
		o.mu.Lock()
		_, wasDropped := o.dropped[job.ContentID]
		o.mu.Unlock()
		if wasDropped {
			continue
		}
		o.cache.Put(&job)
	}
	return o.cache.List(domain.JobStatusCompleted), nil
}

func (o *Orchestrator) journalRecord(ctx context.Context, job *domain.GenerationJob) {
	if o.journal == nil {
		return
	}
	if err := o.journal.Record(ctx, job); err != nil {
		o.logger.Warn().Err(err).Str("content_id", job.ContentID).Msg("pipeline: journal record failed")
	}
}

// drop removes a content id from the live pipeline and records its resolution,
// in the journal and in the bounded dropped history.
func (o *Orchestrator) drop(ctx context.Context, contentID, resolution string) {
	job, _ := o.cache.Get(contentID)

	o.mu.Lock()
	if cancel, ok := o.cancels[contentID]; ok {
		cancel()
		delete(o.cancels, contentID)
	}
	for key, id := range o.active {
		if id == contentID {
			delete(o.active, key)
		}
	}
	if _, seen := o.dropped[contentID]; !seen {
		o.droppedOrder = append(o.droppedOrder, contentID)
	}
	o.dropped[contentID] = droppedJob{job: job, resolution: resolution}
	for len(o.droppedOrder) > maxDroppedHistory {
		oldest := o.droppedOrder[0]
		o.droppedOrder = o.droppedOrder[1:]
		delete(o.dropped, oldest)
	}
	o.mu.Unlock()

	o.cache.Discard(contentID)
	if o.journal != nil {
		if err := o.journal.UpdateStatus(ctx, contentID, resolution, "", nil); err != nil {
			o.logger.Warn().Err(err).Str("content_id", contentID).Msg("pipeline: journal resolution failed")
		}
	}
}

// onJobUpdate runs after every accepted poll update. Terminal and timed out
// jobs release the requester's admission slot: the job needs a human action
// from here on, and a new submission must not be blocked by it.
func (o *Orchestrator) onJobUpdate(job *domain.GenerationJob) {
	if job.Status.Terminal() || job.Status == domain.JobStatusTimedOut {
		key := activeKey{kind: job.Request.Kind, requester: job.RequesterID}
		o.mu.Lock()
		if o.active[key] == job.ContentID {
			delete(o.active, key)
		}
		o.mu.Unlock()
	}

	if o.journal != nil {
		ctx, cancel := context.WithTimeout(o.baseCtx, 5*time.Second)
		defer cancel()
		if err := o.journal.UpdateStatus(ctx, job.ContentID, string(job.Status), job.FailureReason, job.Draft); err != nil && !errors.Is(err, context.Canceled) {
			o.logger.Warn().Err(err).Str("content_id", job.ContentID).Msg("pipeline: journal update failed")
		}
	}
}
