package genservice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/n0tnow/Wisentia-sub006/internal/domain"
	"github.com/n0tnow/Wisentia-sub006/internal/infra"
)

// Options controls how the generation service client is configured.
type Options struct {
	BaseURL       string
	Token         string
	SubmitTimeout time.Duration
	HTTPClient    *http.Client
	Logger        *infra.Logger
}

// Client talks to the platform backend's AI generation engine. It owns wire
// decoding and the error taxonomy mapping; repetition policy belongs to the
// pipeline orchestrator, not here.
type Client struct {
	baseURL       string
	token         string
	submitTimeout time.Duration
	httpClient    *http.Client
	logger        *infra.Logger
}

// NewClient constructs a generation service client with sane defaults. Callers
// may provide a nil HTTP client; a reusable one with sensible timeouts will be
// created.
func NewClient(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("generation service base url is required")
	}

	submitTimeout := opts.SubmitTimeout
	if submitTimeout <= 0 {
		submitTimeout = 30 * time.Second
	}

	client := opts.HTTPClient
	if client == nil {
		// The transport timeout must outlive the submit window, or a slow
		// generate call surfaces as unavailable instead of timed out.
		client = &http.Client{Timeout: submitTimeout + 30*time.Second}
	}

	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}

	return &Client{
		baseURL:       baseURL,
		token:         strings.TrimSpace(opts.Token),
		submitTimeout: submitTimeout,
		httpClient:    client,
		logger:        logger,
	}, nil
}

type generateResponse struct {
	ContentID string `json:"content_id"`
	Status    string `json:"status"`
}

type statusResponse struct {
	ContentID     string                    `json:"content_id"`
	Status        string                    `json:"status"`
	Draft         *domain.DraftContent      `json:"draft,omitempty"`
	FailureReason string                    `json:"failure_reason,omitempty"`
	SubmittedAt   time.Time                 `json:"submitted_at"`
	RequesterID   string                    `json:"requester_id,omitempty"`
	Request       *domain.GenerationRequest `json:"request,omitempty"`
}

type approveResponse struct {
	EntityID string `json:"entity_id"`
}

type pendingResponse struct {
	Items []statusResponse `json:"items"`
}

type serviceErrorBody struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

// Generate submits a validated request and returns the job handle the service
// assigned. A 2xx response without a content id is a hard failure: there is
// nothing to poll, and synthesizing an identifier would orphan the job.
func (c *Client) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationJob, error) {
	ctx, cancel := context.WithTimeout(ctx, c.submitTimeout)
	defer cancel()

	var out generateResponse
	if err := c.do(ctx, http.MethodPost, "/ai/generate", req, &out); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			// The service may still be processing; the job is indeterminate
			// and must not be retried blindly.
			return nil, domain.ErrSubmissionTimeout
		}
		return nil, err
	}
	if strings.TrimSpace(out.ContentID) == "" {
		return nil, domain.ErrMissingJobHandle
	}
	status, ok := domain.ParseJobStatus(out.Status)
	if !ok {
		status = domain.JobStatusQueued
	}
	now := time.Now().UTC()
	return &domain.GenerationJob{
		ContentID:   out.ContentID,
		Status:      status,
		Request:     req,
		SubmittedAt: now,
		UpdatedAt:   now,
	}, nil
}

// Status is an idempotent read of one job. Completed without a draft or
// failed without a reason is reported as ErrMalformedTerminalState so callers
// never cache a terminal state they cannot act on.
func (c *Client) Status(ctx context.Context, contentID string) (*domain.GenerationJob, error) {
	var out statusResponse
	path := "/ai/content/" + url.PathEscape(contentID) + "/status"
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	job, err := jobFromStatus(out)
	if err != nil {
		return nil, err
	}
	if job.ContentID == "" {
		job.ContentID = contentID
	}
	return job, nil
}

// Approve materializes an approved draft into a live quest or quiz and
// returns its durable identifier.
func (c *Client) Approve(ctx context.Context, contentID string, fin domain.FinalizationParams) (*domain.MaterializedEntity, error) {
	var out approveResponse
	path := "/ai/content/" + url.PathEscape(contentID) + "/approve"
	if err := c.do(ctx, http.MethodPost, path, fin, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.EntityID) == "" {
		return nil, fmt.Errorf("approve response missing entity id: %w", domain.ErrMissingJobHandle)
	}
	return &domain.MaterializedEntity{
		EntityID:        out.EntityID,
		SourceContentID: contentID,
		CreatedAt:       time.Now().UTC(),
	}, nil
}

// Reject tells the service a draft was discarded. Best-effort bookkeeping:
// callers treat the local discard as authoritative even when this fails.
func (c *Client) Reject(ctx context.Context, contentID string) error {
	path := "/ai/content/" + url.PathEscape(contentID) + "/reject"
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

// Pending lists jobs the service still holds, used by the review queue to
// recover across sessions. Malformed entries are skipped, not fatal.
func (c *Client) Pending(ctx context.Context) ([]domain.GenerationJob, error) {
	var out pendingResponse
	if err := c.do(ctx, http.MethodGet, "/ai/content/pending", nil, &out); err != nil {
		return nil, err
	}
	jobs := make([]domain.GenerationJob, 0, len(out.Items))
	for _, item := range out.Items {
		job, err := jobFromStatus(item)
		if err != nil {
			c.logger.Warn().Err(err).Str("content_id", item.ContentID).Msg("genservice: skipping malformed pending entry")
			continue
		}
		jobs = append(jobs, *job)
	}
	return jobs, nil
}

func jobFromStatus(out statusResponse) (*domain.GenerationJob, error) {
	status, ok := domain.ParseJobStatus(out.Status)
	if !ok {
		return nil, fmt.Errorf("unrecognized job status %q", out.Status)
	}
	switch status {
	case domain.JobStatusCompleted:
		if out.Draft.Empty() {
			return nil, fmt.Errorf("completed job %s: %w", out.ContentID, domain.ErrMalformedTerminalState)
		}
	case domain.JobStatusFailed:
		if strings.TrimSpace(out.FailureReason) == "" {
			return nil, fmt.Errorf("failed job %s: %w", out.ContentID, domain.ErrMalformedTerminalState)
		}
	}
	job := &domain.GenerationJob{
		ContentID:     out.ContentID,
		RequesterID:   out.RequesterID,
		Status:        status,
		Draft:         out.Draft,
		FailureReason: out.FailureReason,
		SubmittedAt:   out.SubmittedAt,
		UpdatedAt:     time.Now().UTC(),
	}
	if out.Request != nil {
		job.Request = *out.Request
	}
	return job, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", domain.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", domain.ErrServiceUnavailable, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return serviceError(resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func serviceError(status int, raw []byte) error {
	var body serviceErrorBody
	_ = json.Unmarshal(raw, &body)
	msg := body.Message
	if msg == "" {
		msg = body.Detail
	}
	if msg == "" {
		msg = body.Error
	}
	code := body.Code
	if code == "" {
		code = body.Error
	}
	return &domain.ServiceError{StatusCode: status, Code: code, Message: msg}
}
