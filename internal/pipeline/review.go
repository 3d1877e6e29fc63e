package pipeline

import (
	"fmt"
	"strings"

	"github.com/n0tnow/Wisentia-sub006/internal/domain"
)

// knownConditionTypes are the quest condition classifications the platform
// understands at materialization time.
var knownConditionTypes = map[string]struct{}{
	"total_points":      {},
	"quiz_completion":   {},
	"course_completion": {},
	"watch_videos":      {},
}

// reviewGate enforces the human-decision preconditions. A decision is only
// legal on a completed draft; everything else is a precondition violation, not
// a service call.
type reviewGate struct{}

// check validates the decision against the job's current state and returns
// the normalized ReviewDecision.
func (reviewGate) check(job *domain.GenerationJob, outcome domain.ReviewOutcome, fin *domain.FinalizationParams) (*domain.ReviewDecision, error) {
	if job == nil {
		return nil, domain.ErrNotFound
	}
	if job.Status != domain.JobStatusCompleted || job.Draft.Empty() {
		return nil, fmt.Errorf("job %s is %s: %w", job.ContentID, job.Status, domain.ErrJobNotReviewable)
	}
	if !outcome.Valid() {
		return nil, domain.NewValidationError("outcome", "must be approved or rejected")
	}

	decision := &domain.ReviewDecision{ContentID: job.ContentID, Outcome: outcome}
	if outcome == domain.ReviewRejected {
		return decision, nil
	}

	if fin == nil {
		return nil, domain.NewValidationError("finalization", "is required to approve")
	}
	fields := map[string]string{}
	if fin.Economics.PointsReward == nil {
		fields["points_reward"] = "is required to approve"
	} else if *fin.Economics.PointsReward < 0 {
		fields["points_reward"] = "must be a non-negative integer"
	}
	if fin.Economics.PassingScore != nil {
		if score := *fin.Economics.PassingScore; score < 0 || score > 100 {
			fields["passing_score"] = "must be between 0 and 100"
		}
	}

	switch job.Request.Kind {
	case domain.ContentKindQuest:
		conditionType := strings.TrimSpace(fin.ConditionType)
		if conditionType == "" {
			fields["condition_type"] = "is required to approve a quest"
		} else if _, ok := knownConditionTypes[conditionType]; !ok {
			fields["condition_type"] = "is not a recognized condition type"
		}
	case domain.ContentKindQuiz:
		// Quizzes carry their passing score inside the draft; nothing extra.
	default:
		return nil, fmt.Errorf("unhandled content kind %q", job.Request.Kind)
	}

	if len(fields) > 0 {
		return nil, &domain.ValidationError{Fields: fields}
	}
	decision.Finalization = fin
	return decision, nil
}
