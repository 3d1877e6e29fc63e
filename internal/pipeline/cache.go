package pipeline

import (
	"sync"

	"github.com/n0tnow/Wisentia-sub006/internal/domain"
)

// Cache holds the last known state of each tracked generation job, keyed by
// content id. The orchestrator is its only writer; everything else reads.
// Entries leave the cache exclusively through Discard.
type Cache struct {
	mu   sync.Mutex
	jobs map[string]*domain.GenerationJob
}

func NewCache() *Cache {
	return &Cache{jobs: make(map[string]*domain.GenerationJob)}
}

// Get returns a copy of the tracked job, if any.
func (c *Cache) Get(contentID string) (*domain.GenerationJob, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	job, ok := c.jobs[contentID]
	if !ok {
		return nil, false
	}
	return job.Clone(), true
}

// Put inserts or replaces a tracked job, subject to the precedence rule:
// completed and failed are final, so a late queued/processing observation can
// never overwrite them.
func (c *Cache) Put(job *domain.GenerationJob) bool {
	if job == nil || job.ContentID == "" {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.jobs[job.ContentID]; ok {
		if existing.Status.Terminal() && !job.Status.Terminal() {
			return false
		}
	}
	c.jobs[job.ContentID] = job.Clone()
	return true
}

// Update applies new state only for a job that is still tracked. Poll results
// for a discarded id land here and are dropped, so a discard can never be
// undone by a late response.
func (c *Cache) Update(job *domain.GenerationJob) bool {
	if job == nil || job.ContentID == "" {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	existing, ok := c.jobs[job.ContentID]
	if !ok {
		return false
	}
	if existing.Status.Terminal() && !job.Status.Terminal() {
		return false
	}
	c.jobs[job.ContentID] = job.Clone()
	return true
}

// Discard evicts a job. Idempotent.
func (c *Cache) Discard(contentID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.jobs[contentID]; !ok {
		return false
	}
	delete(c.jobs, contentID)
	return true
}

// List returns copies of every tracked job with the given status.
func (c *Cache) List(status domain.JobStatus) []domain.GenerationJob {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []domain.GenerationJob
	for _, job := range c.jobs {
		if job.Status == status {
			out = append(out, *job.Clone())
		}
	}
	return out
}

// Len reports how many jobs are tracked.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.jobs)
}
