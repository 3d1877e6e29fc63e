package genservice

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/n0tnow/Wisentia-sub006/internal/domain"
)

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewClient(Options{BaseURL: srv.URL, Token: "svc-token"})
	if err != nil {
		t.Fatalf("NewClient() unexpected error: %v", err)
	}
	return client, srv
}

func questRequest() domain.GenerationRequest {
	return domain.GenerationRequest{
		Kind:       domain.ContentKindQuest,
		Difficulty: domain.DifficultyIntermediate,
		Category:   "Programming",
	}
}

func TestGenerateReturnsJobHandle(t *testing.T) {
	var gotAuth, gotPath string
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		var req domain.GenerationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Kind != domain.ContentKindQuest {
			t.Errorf("request kind = %q, want quest", req.Kind)
		}
		json.NewEncoder(w).Encode(map[string]string{"content_id": "content-42", "status": "pending"})
	}))

	job, err := client.Generate(context.Background(), questRequest())
	if err != nil {
		t.Fatalf("Generate() unexpected error: %v", err)
	}
	if job.ContentID != "content-42" {
		t.Fatalf("ContentID = %q, want content-42", job.ContentID)
	}
	if job.Status != domain.JobStatusQueued {
		t.Fatalf("Status = %q, want queued (pending alias)", job.Status)
	}
	if gotAuth != "Bearer svc-token" {
		t.Fatalf("Authorization = %q, want bearer token", gotAuth)
	}
	if gotPath != "/ai/generate" {
		t.Fatalf("path = %q, want /ai/generate", gotPath)
	}
}

func TestGenerateWithoutContentIDFails(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "queued"})
	}))

	_, err := client.Generate(context.Background(), questRequest())
	if !errors.Is(err, domain.ErrMissingJobHandle) {
		t.Fatalf("Generate() error = %v, want ErrMissingJobHandle", err)
	}
}

func TestGenerateSubmitTimeout(t *testing.T) {
	release := make(chan struct{})
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer close(release)
	client.submitTimeout = 20 * time.Millisecond

	_, err := client.Generate(context.Background(), questRequest())
	if !errors.Is(err, domain.ErrSubmissionTimeout) {
		t.Fatalf("Generate() error = %v, want ErrSubmissionTimeout", err)
	}
}

func TestDefaultTransportTimeoutOutlivesSubmitWindow(t *testing.T) {
	client, err := NewClient(Options{BaseURL: "http://localhost:9", SubmitTimeout: 2 * time.Minute})
	if err != nil {
		t.Fatalf("NewClient() unexpected error: %v", err)
	}
	if client.httpClient.Timeout <= client.submitTimeout {
		t.Fatalf("http client timeout %s does not outlive the submit window %s", client.httpClient.Timeout, client.submitTimeout)
	}
}

func TestGenerateServiceError(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "model_error", "message": "generation engine crashed"})
	}))

	_, err := client.Generate(context.Background(), questRequest())
	var serr *domain.ServiceError
	if !errors.As(err, &serr) {
		t.Fatalf("Generate() error = %v, want *domain.ServiceError", err)
	}
	if serr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("StatusCode = %d, want 500", serr.StatusCode)
	}
	if serr.Message != "generation engine crashed" {
		t.Fatalf("Message = %q, want body message", serr.Message)
	}
}

func TestGenerateUnreachableService(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client, err := NewClient(Options{BaseURL: url})
	if err != nil {
		t.Fatalf("NewClient() unexpected error: %v", err)
	}
	_, err = client.Generate(context.Background(), questRequest())
	if !errors.Is(err, domain.ErrServiceUnavailable) {
		t.Fatalf("Generate() error = %v, want ErrServiceUnavailable", err)
	}
}

func TestStatusCompletedCarriesDraft(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ai/content/content-7/status" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"content_id": "content-7",
			"status":     "completed",
			"draft": map[string]any{
				"kind":  "quest",
				"quest": map[string]any{"title": "Solidity Basics", "conditions": []any{}},
			},
		})
	}))

	job, err := client.Status(context.Background(), "content-7")
	if err != nil {
		t.Fatalf("Status() unexpected error: %v", err)
	}
	if job.Status != domain.JobStatusCompleted {
		t.Fatalf("Status = %q, want completed", job.Status)
	}
	if job.Draft == nil || job.Draft.Quest == nil || job.Draft.Quest.Title != "Solidity Basics" {
		t.Fatalf("Draft = %+v, want quest draft", job.Draft)
	}
}

func TestStatusCompletedWithoutDraftIsMalformed(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"content_id": "content-7", "status": "completed"})
	}))

	_, err := client.Status(context.Background(), "content-7")
	if !errors.Is(err, domain.ErrMalformedTerminalState) {
		t.Fatalf("Status() error = %v, want ErrMalformedTerminalState", err)
	}
}

func TestStatusFailedWithoutReasonIsMalformed(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"content_id": "content-7", "status": "failed"})
	}))

	_, err := client.Status(context.Background(), "content-7")
	if !errors.Is(err, domain.ErrMalformedTerminalState) {
		t.Fatalf("Status() error = %v, want ErrMalformedTerminalState", err)
	}
}

func TestStatusNotFound(t *testing.T) {
	client, _ := testClient(t, http.NotFoundHandler())

	_, err := client.Status(context.Background(), "content-missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Status() error = %v, want ErrNotFound", err)
	}
}

func TestApproveReturnsEntity(t *testing.T) {
	reward := 50
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ai/content/content-7/approve" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var fin domain.FinalizationParams
		if err := json.NewDecoder(r.Body).Decode(&fin); err != nil {
			t.Errorf("decode finalization: %v", err)
		}
		if fin.Economics.PointsReward == nil || *fin.Economics.PointsReward != reward {
			t.Errorf("points reward = %v, want %d", fin.Economics.PointsReward, reward)
		}
		json.NewEncoder(w).Encode(map[string]string{"entity_id": "quest-900"})
	}))

	entity, err := client.Approve(context.Background(), "content-7", domain.FinalizationParams{
		Economics:     domain.EconomicParams{PointsReward: &reward},
		ConditionType: "total_points",
	})
	if err != nil {
		t.Fatalf("Approve() unexpected error: %v", err)
	}
	if entity.EntityID != "quest-900" || entity.SourceContentID != "content-7" {
		t.Fatalf("entity = %+v, want quest-900 from content-7", entity)
	}
}

func TestPendingSkipsMalformedEntries(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ai/content/pending" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{
				{
					"content_id": "content-1",
					"status":     "completed",
					"draft": map[string]any{
						"kind": "quiz",
						"quiz": map[string]any{"title": "Video Quiz", "passing_score": 60},
					},
				},
				{"content_id": "content-2", "status": "completed"},
				{"content_id": "content-3", "status": "wat"},
			},
		})
	}))

	jobs, err := client.Pending(context.Background())
	if err != nil {
		t.Fatalf("Pending() unexpected error: %v", err)
	}
	if len(jobs) != 1 || jobs[0].ContentID != "content-1" {
		t.Fatalf("Pending() = %+v, want only the well-formed entry", jobs)
	}
}
