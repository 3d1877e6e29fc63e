package pipeline

import (
	"errors"
	"testing"

	"github.com/n0tnow/Wisentia-sub006/internal/domain"
)

func completedQuestJob() *domain.GenerationJob {
	return &domain.GenerationJob{
		ContentID: "content-1",
		Status:    domain.JobStatusCompleted,
		Request:   domain.GenerationRequest{Kind: domain.ContentKindQuest},
		Draft: &domain.DraftContent{
			Kind:  domain.ContentKindQuest,
			Quest: &domain.QuestDraft{Title: "Quest"},
		},
	}
}

func questFinalization() *domain.FinalizationParams {
	reward := 50
	return &domain.FinalizationParams{
		Economics:     domain.EconomicParams{PointsReward: &reward},
		ConditionType: "total_points",
	}
}

func TestGateApprovesCompletedQuest(t *testing.T) {
	var gate reviewGate
	decision, err := gate.check(completedQuestJob(), domain.ReviewApproved, questFinalization())
	if err != nil {
		t.Fatalf("check() unexpected error: %v", err)
	}
	if decision.Outcome != domain.ReviewApproved || decision.Finalization == nil {
		t.Fatalf("decision = %+v", decision)
	}
}

func TestGateRejectionNeedsNoFinalization(t *testing.T) {
	var gate reviewGate
	decision, err := gate.check(completedQuestJob(), domain.ReviewRejected, nil)
	if err != nil {
		t.Fatalf("check() unexpected error: %v", err)
	}
	if decision.Finalization != nil {
		t.Fatalf("rejection carried finalization: %+v", decision)
	}
}

func TestGateRefusesNonCompletedJob(t *testing.T) {
	var gate reviewGate
	job := completedQuestJob()
	job.Status = domain.JobStatusProcessing
	if _, err := gate.check(job, domain.ReviewApproved, questFinalization()); !errors.Is(err, domain.ErrJobNotReviewable) {
		t.Fatalf("check() error = %v, want ErrJobNotReviewable", err)
	}
}

func TestGateRefusesEmptyDraft(t *testing.T) {
	var gate reviewGate
	job := completedQuestJob()
	job.Draft.Quest = nil
	if _, err := gate.check(job, domain.ReviewApproved, questFinalization()); !errors.Is(err, domain.ErrJobNotReviewable) {
		t.Fatalf("check() error = %v, want ErrJobNotReviewable", err)
	}
}

func TestGateApprovalRequiresReward(t *testing.T) {
	var gate reviewGate
	fin := questFinalization()
	fin.Economics.PointsReward = nil
	_, err := gate.check(completedQuestJob(), domain.ReviewApproved, fin)
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("check() error = %v, want ValidationError", err)
	}
	if _, ok := verr.Fields["points_reward"]; !ok {
		t.Fatalf("fields = %v, want points_reward", verr.Fields)
	}
}

func TestGateQuestRequiresKnownConditionType(t *testing.T) {
	var gate reviewGate
	fin := questFinalization()
	fin.ConditionType = "telepathy"
	_, err := gate.check(completedQuestJob(), domain.ReviewApproved, fin)
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("check() error = %v, want ValidationError", err)
	}
	if _, ok := verr.Fields["condition_type"]; !ok {
		t.Fatalf("fields = %v, want condition_type", verr.Fields)
	}
}

func TestGateQuizNeedsNoConditionType(t *testing.T) {
	var gate reviewGate
	job := &domain.GenerationJob{
		ContentID: "content-2",
		Status:    domain.JobStatusCompleted,
		Request:   domain.GenerationRequest{Kind: domain.ContentKindQuiz},
		Draft: &domain.DraftContent{
			Kind: domain.ContentKindQuiz,
			Quiz: &domain.QuizDraft{Title: "Quiz", PassingScore: 60},
		},
	}
	reward := 20
	fin := &domain.FinalizationParams{Economics: domain.EconomicParams{PointsReward: &reward}}
	if _, err := gate.check(job, domain.ReviewApproved, fin); err != nil {
		t.Fatalf("check() unexpected error: %v", err)
	}
}

func TestGateInvalidOutcome(t *testing.T) {
	var gate reviewGate
	_, err := gate.check(completedQuestJob(), domain.ReviewOutcome("maybe"), nil)
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("check() error = %v, want ValidationError", err)
	}
}
