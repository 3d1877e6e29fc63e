package pipeline

import (
	"testing"
	"time"

	"github.com/n0tnow/Wisentia-sub006/internal/domain"
)

func cacheJob(id string, status domain.JobStatus) *domain.GenerationJob {
	return &domain.GenerationJob{
		ContentID:   id,
		RequesterID: "admin-1",
		Status:      status,
		Request:     domain.GenerationRequest{Kind: domain.ContentKindQuest},
		SubmittedAt: time.Now().UTC(),
	}
}

func TestCachePutGetDiscard(t *testing.T) {
	c := NewCache()
	if !c.Put(cacheJob("c-1", domain.JobStatusQueued)) {
		t.Fatalf("Put() rejected a fresh job")
	}
	got, ok := c.Get("c-1")
	if !ok || got.Status != domain.JobStatusQueued {
		t.Fatalf("Get() = %+v, %v; want queued job", got, ok)
	}
	if !c.Discard("c-1") {
		t.Fatalf("Discard() returned false for tracked job")
	}
	if _, ok := c.Get("c-1"); ok {
		t.Fatalf("Get() found a discarded job")
	}
	if c.Discard("c-1") {
		t.Fatalf("Discard() should be idempotent")
	}
}

func TestCacheGetReturnsCopy(t *testing.T) {
	c := NewCache()
	job := cacheJob("c-1", domain.JobStatusCompleted)
	job.Draft = &domain.DraftContent{
		Kind:  domain.ContentKindQuest,
		Quest: &domain.QuestDraft{Title: "Original", Conditions: []domain.QuestCondition{{Type: "total_points"}}},
	}
	c.Put(job)

	got, _ := c.Get("c-1")
	got.Draft.Quest.Title = "Mutated"
	got.Draft.Quest.Conditions[0].Type = "mutated"

	again, _ := c.Get("c-1")
	if again.Draft.Quest.Title != "Original" || again.Draft.Quest.Conditions[0].Type != "total_points" {
		t.Fatalf("cache state leaked through Get(): %+v", again.Draft.Quest)
	}
}

func TestCacheTerminalStateWins(t *testing.T) {
	c := NewCache()
	c.Put(cacheJob("c-1", domain.JobStatusCompleted))
	if c.Put(cacheJob("c-1", domain.JobStatusProcessing)) {
		t.Fatalf("Put() overwrote a terminal state with processing")
	}
	if c.Update(cacheJob("c-1", domain.JobStatusQueued)) {
		t.Fatalf("Update() overwrote a terminal state with queued")
	}
	got, _ := c.Get("c-1")
	if got.Status != domain.JobStatusCompleted {
		t.Fatalf("status = %q, want completed", got.Status)
	}
}

func TestCacheUpdateIgnoresUnknownID(t *testing.T) {
	c := NewCache()
	if c.Update(cacheJob("ghost", domain.JobStatusCompleted)) {
		t.Fatalf("Update() accepted a job that was never tracked")
	}
	if c.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", c.Len())
	}
}

func TestCacheTimedOutCanRecover(t *testing.T) {
	c := NewCache()
	c.Put(cacheJob("c-1", domain.JobStatusTimedOut))
	if !c.Update(cacheJob("c-1", domain.JobStatusCompleted)) {
		t.Fatalf("Update() rejected completed over timed_out")
	}
}

func TestCacheList(t *testing.T) {
	c := NewCache()
	c.Put(cacheJob("c-1", domain.JobStatusCompleted))
	c.Put(cacheJob("c-2", domain.JobStatusProcessing))
	c.Put(cacheJob("c-3", domain.JobStatusCompleted))
	if got := len(c.List(domain.JobStatusCompleted)); got != 2 {
		t.Fatalf("List(completed) = %d entries, want 2", got)
	}
}
