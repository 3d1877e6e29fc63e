package domain

import (
	"strings"
	"time"
)

// JobStatus enumerates generation job lifecycle states. TimedOut is assigned
// locally when the poll ceiling is exceeded; the service never reports it.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusTimedOut   JobStatus = "timed_out"
)

// Terminal reports whether the status is one the generation service never
// transitions out of.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// ParseJobStatus normalizes a service-reported status string. The generation
// service has shifted wording over time, so common aliases are folded in.
func ParseJobStatus(raw string) (JobStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "queued", "pending":
		return JobStatusQueued, true
	case "processing", "in_progress", "running":
		return JobStatusProcessing, true
	case "completed", "complete", "succeeded":
		return JobStatusCompleted, true
	case "failed", "error":
		return JobStatusFailed, true
	default:
		return "", false
	}
}

// GenerationRequest packages validated generation parameters. Immutable once
// submitted; Regenerate resubmits the same value under a new job.
type GenerationRequest struct {
	Kind       ContentKind    `json:"content_kind" validate:"required,oneof=quest quiz"`
	Difficulty Difficulty     `json:"difficulty" validate:"required,oneof=beginner intermediate advanced"`
	Category   string         `json:"category" validate:"required"`
	Economics  EconomicParams `json:"economics"`
	SourceRef  *VideoRef      `json:"source_ref,omitempty" validate:"required_if=Kind quiz"`
}

// GenerationJob tracks one generation from submission to review resolution.
// ContentID is assigned by the generation service and is the sole correlation
// key for polls, review decisions and materialization; it never changes.
type GenerationJob struct {
	ContentID     string            `json:"content_id"`
	RequesterID   string            `json:"requester_id"`
	Status        JobStatus         `json:"status"`
	Request       GenerationRequest `json:"request"`
	Draft         *DraftContent     `json:"draft,omitempty"`
	FailureReason string            `json:"failure_reason,omitempty"`
	SubmittedAt   time.Time         `json:"submitted_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// Clone returns a deep copy so cache readers never alias cache-owned state.
func (j *GenerationJob) Clone() *GenerationJob {
	if j == nil {
		return nil
	}
	out := *j
	if j.Draft != nil {
		draft := *j.Draft
		if j.Draft.Quest != nil {
			quest := *j.Draft.Quest
			quest.Conditions = append([]QuestCondition(nil), j.Draft.Quest.Conditions...)
			draft.Quest = &quest
		}
		if j.Draft.Quiz != nil {
			quiz := *j.Draft.Quiz
			quiz.Questions = make([]QuizQuestion, len(j.Draft.Quiz.Questions))
			for i, q := range j.Draft.Quiz.Questions {
				q.Options = append([]QuizOption(nil), q.Options...)
				quiz.Questions[i] = q
			}
			draft.Quiz = &quiz
		}
		out.Draft = &draft
	}
	if j.Request.SourceRef != nil {
		ref := *j.Request.SourceRef
		out.Request.SourceRef = &ref
	}
	out.Request.Economics = j.Request.Economics.clone()
	return &out
}

func (p EconomicParams) clone() EconomicParams {
	out := p
	if p.PointsRequired != nil {
		v := *p.PointsRequired
		out.PointsRequired = &v
	}
	if p.PointsReward != nil {
		v := *p.PointsReward
		out.PointsReward = &v
	}
	if p.PassingScore != nil {
		v := *p.PassingScore
		out.PassingScore = &v
	}
	return out
}
