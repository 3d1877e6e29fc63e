package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/n0tnow/Wisentia-sub006/internal/domain"
	"github.com/n0tnow/Wisentia-sub006/internal/middleware"
	"github.com/n0tnow/Wisentia-sub006/internal/pipeline"
)

type jobResponse struct {
	ContentID     string               `json:"content_id"`
	Status        string               `json:"status"`
	ContentKind   string               `json:"content_kind,omitempty"`
	Draft         *domain.DraftContent `json:"draft,omitempty"`
	FailureReason string               `json:"failure_reason,omitempty"`
	SubmittedAt   string               `json:"submitted_at,omitempty"`
}

func jobView(job *domain.GenerationJob) jobResponse {
	out := jobResponse{
		ContentID:     job.ContentID,
		Status:        string(job.Status),
		ContentKind:   string(job.Request.Kind),
		Draft:         job.Draft,
		FailureReason: job.FailureReason,
	}
	if !job.SubmittedAt.IsZero() {
		out.SubmittedAt = job.SubmittedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	return out
}

// GenerationCreate accepts generation parameters and returns 202 with the job
// handle. A still-outstanding job for the same (kind, requester) is returned
// instead of a duplicate submission.
func (a *App) GenerationCreate(w http.ResponseWriter, r *http.Request) {
	requesterID := middleware.UserIDFromContext(r.Context())
	if requesterID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var input pipeline.RawGenerationInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		a.error(w, http.StatusBadRequest, "validation_failed", "invalid payload: "+err.Error())
		return
	}
	job, err := a.Pipeline.RequestGeneration(r.Context(), requesterID, input)
	if err != nil {
		a.pipelineError(w, err)
		return
	}
	a.json(w, http.StatusAccepted, jobView(job))
}

// GenerationStatus returns the job's last known state.
func (a *App) GenerationStatus(w http.ResponseWriter, r *http.Request) {
	contentID := chi.URLParam(r, "content_id")
	if contentID == "" {
		a.error(w, http.StatusBadRequest, "validation_failed", "content_id required")
		return
	}
	job, err := a.Pipeline.GetStatus(r.Context(), contentID)
	if err != nil {
		a.pipelineError(w, err)
		return
	}
	a.json(w, http.StatusOK, jobView(job))
}

type decisionRequest struct {
	Outcome      string                     `json:"outcome"`
	Finalization *domain.FinalizationParams `json:"finalization,omitempty"`
}

// GenerationDecision approves or rejects a completed draft. Approval answers
// with the materialized entity; rejection answers 204.
func (a *App) GenerationDecision(w http.ResponseWriter, r *http.Request) {
	contentID := chi.URLParam(r, "content_id")
	if contentID == "" {
		a.error(w, http.StatusBadRequest, "validation_failed", "content_id required")
		return
	}
	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "validation_failed", "invalid payload: "+err.Error())
		return
	}
	entity, err := a.Pipeline.Decide(r.Context(), contentID, domain.ReviewOutcome(req.Outcome), req.Finalization)
	if err != nil {
		a.pipelineError(w, err)
		return
	}
	if entity == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	a.json(w, http.StatusOK, entity)
}

// GenerationRegenerate resubmits a failed, timed out or discarded job's
// original parameters as a brand-new job.
func (a *App) GenerationRegenerate(w http.ResponseWriter, r *http.Request) {
	contentID := chi.URLParam(r, "content_id")
	if contentID == "" {
		a.error(w, http.StatusBadRequest, "validation_failed", "content_id required")
		return
	}
	job, err := a.Pipeline.Regenerate(r.Context(), contentID)
	if err != nil {
		a.pipelineError(w, err)
		return
	}
	a.json(w, http.StatusAccepted, jobView(job))
}

// GenerationDiscard abandons a job without a decision.
func (a *App) GenerationDiscard(w http.ResponseWriter, r *http.Request) {
	contentID := chi.URLParam(r, "content_id")
	if contentID == "" {
		a.error(w, http.StatusBadRequest, "validation_failed", "content_id required")
		return
	}
	if err := a.Pipeline.Discard(r.Context(), contentID); err != nil {
		a.pipelineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PendingReview lists completed drafts awaiting a decision.
func (a *App) PendingReview(w http.ResponseWriter, r *http.Request) {
	jobs, err := a.Pipeline.PendingReview(r.Context())
	if err != nil {
		a.pipelineError(w, err)
		return
	}
	items := make([]jobResponse, 0, len(jobs))
	for i := range jobs {
		items = append(items, jobView(&jobs[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

// pipelineError maps the pipeline error taxonomy onto HTTP responses.
func (a *App) pipelineError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		a.json(w, http.StatusBadRequest, map[string]any{
			"error":   "validation_failed",
			"message": verr.Error(),
			"fields":  verr.Fields,
		})
		return
	}
	var serr *domain.ServiceError
	if errors.As(err, &serr) {
		a.error(w, http.StatusBadGateway, "service_error", serr.Error())
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "job not found")
	case errors.Is(err, domain.ErrJobNotReviewable):
		a.error(w, http.StatusConflict, "job_not_reviewable", err.Error())
	case errors.Is(err, domain.ErrJobNotRegenerable):
		a.error(w, http.StatusConflict, "job_not_regenerable", err.Error())
	case errors.Is(err, domain.ErrJobOutstanding):
		a.error(w, http.StatusConflict, "job_outstanding", err.Error())
	case errors.Is(err, domain.ErrDecisionInFlight):
		a.error(w, http.StatusConflict, "decision_in_flight", err.Error())
	case errors.Is(err, domain.ErrMissingJobHandle):
		a.error(w, http.StatusBadGateway, "missing_job_handle", "the generation service accepted the request but returned no job id; submit again")
	case errors.Is(err, domain.ErrSubmissionTimeout):
		a.error(w, http.StatusGatewayTimeout, "submission_timeout", "the generation service did not answer in time; the job state is unknown")
	case errors.Is(err, domain.ErrMalformedTerminalState):
		a.error(w, http.StatusBadGateway, "malformed_terminal_state", err.Error())
	case errors.Is(err, domain.ErrServiceUnavailable):
		a.error(w, http.StatusBadGateway, "service_unavailable", "the generation service is unreachable")
	default:
		a.Logger.Error().Err(err).Msg("handlers: unexpected pipeline error")
		a.error(w, http.StatusInternalServerError, "internal", "unexpected error")
	}
}
