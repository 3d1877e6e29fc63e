package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/n0tnow/Wisentia-sub006/internal/domain"
	"github.com/n0tnow/Wisentia-sub006/internal/infra"
	"github.com/n0tnow/Wisentia-sub006/internal/pipeline"
)

// Pipeline is what the handlers need from the orchestrator.
type Pipeline interface {
	RequestGeneration(ctx context.Context, requesterID string, input pipeline.RawGenerationInput) (*domain.GenerationJob, error)
	GetStatus(ctx context.Context, contentID string) (*domain.GenerationJob, error)
	Decide(ctx context.Context, contentID string, outcome domain.ReviewOutcome, fin *domain.FinalizationParams) (*domain.MaterializedEntity, error)
	Regenerate(ctx context.Context, contentID string) (*domain.GenerationJob, error)
	Discard(ctx context.Context, contentID string) error
	PendingReview(ctx context.Context) ([]domain.GenerationJob, error)
}

// App is the handler container injected into the router.
type App struct {
	Pipeline Pipeline
	Logger   infra.Logger
}

func NewApp(p Pipeline, logger infra.Logger) *App {
	return &App{Pipeline: p, Logger: logger}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]string{"error": errCode, "message": message})
}
