package domain

import (
	"encoding/json"
	"testing"
)

func TestFlexIntUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    int
		wantErr bool
	}{
		{name: "number", raw: `25`, want: 25},
		{name: "quoted number", raw: `"25"`, want: 25},
		{name: "quoted with spaces", raw: `" 40 "`, want: 40},
		{name: "null", raw: `null`, want: 0},
		{name: "empty string", raw: `""`, want: 0},
		{name: "word", raw: `"lots"`, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var v FlexInt
			err := json.Unmarshal([]byte(tc.raw), &v)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("Unmarshal(%s) accepted a non-integer", tc.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unmarshal(%s) unexpected error: %v", tc.raw, err)
			}
			if int(v) != tc.want {
				t.Fatalf("Unmarshal(%s) = %d, want %d", tc.raw, v, tc.want)
			}
		})
	}
}

func TestDraftContentEmpty(t *testing.T) {
	var nilDraft *DraftContent
	if !nilDraft.Empty() {
		t.Fatal("nil draft must be empty")
	}
	if !(&DraftContent{Kind: ContentKindQuest}).Empty() {
		t.Fatal("quest kind without payload must be empty")
	}
	if !(&DraftContent{Kind: "video", Quest: &QuestDraft{Title: "x"}}).Empty() {
		t.Fatal("unknown kind must be empty regardless of payload")
	}
	if (&DraftContent{Kind: ContentKindQuiz, Quiz: &QuizDraft{Title: "x"}}).Empty() {
		t.Fatal("quiz with payload must not be empty")
	}
}

func TestDraftContentTitle(t *testing.T) {
	quest := &DraftContent{Kind: ContentKindQuest, Quest: &QuestDraft{Title: "Learn Solidity"}}
	if got := quest.Title(); got != "Learn Solidity" {
		t.Fatalf("Title() = %q", got)
	}
	quiz := &DraftContent{Kind: ContentKindQuiz, Quiz: &QuizDraft{Title: "Video Quiz"}}
	if got := quiz.Title(); got != "Video Quiz" {
		t.Fatalf("Title() = %q", got)
	}
	if got := (&DraftContent{Kind: ContentKindQuest}).Title(); got != "" {
		t.Fatalf("Title() on empty draft = %q, want empty", got)
	}
}

func TestParseJobStatusAliases(t *testing.T) {
	tests := []struct {
		raw  string
		want JobStatus
		ok   bool
	}{
		{"queued", JobStatusQueued, true},
		{"pending", JobStatusQueued, true},
		{"Processing", JobStatusProcessing, true},
		{"in_progress", JobStatusProcessing, true},
		{"running", JobStatusProcessing, true},
		{" completed ", JobStatusCompleted, true},
		{"succeeded", JobStatusCompleted, true},
		{"failed", JobStatusFailed, true},
		{"error", JobStatusFailed, true},
		{"timed_out", "", false},
		{"wat", "", false},
		{"", "", false},
	}
	for _, tc := range tests {
		got, ok := ParseJobStatus(tc.raw)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ParseJobStatus(%q) = %q, %v; want %q, %v", tc.raw, got, ok, tc.want, tc.ok)
		}
	}
}

func TestJobStatusTerminal(t *testing.T) {
	for status, want := range map[JobStatus]bool{
		JobStatusQueued:     false,
		JobStatusProcessing: false,
		JobStatusCompleted:  true,
		JobStatusFailed:     true,
		JobStatusTimedOut:   false,
	} {
		if got := status.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", status, got, want)
		}
	}
}

func TestGenerationJobCloneIsDeep(t *testing.T) {
	reward := 10
	job := &GenerationJob{
		ContentID: "content-1",
		Status:    JobStatusCompleted,
		Request: GenerationRequest{
			Kind:      ContentKindQuest,
			Economics: EconomicParams{PointsReward: &reward},
			SourceRef: &VideoRef{VideoID: "vid-1"},
		},
		Draft: &DraftContent{
			Kind: ContentKindQuest,
			Quest: &QuestDraft{
				Title:      "Original",
				Conditions: []QuestCondition{{Type: "total_points", TargetValue: 100}},
			},
		},
	}

	clone := job.Clone()
	clone.Draft.Quest.Title = "Mutated"
	clone.Draft.Quest.Conditions[0].TargetValue = 1
	*clone.Request.Economics.PointsReward = 99
	clone.Request.SourceRef.VideoID = "vid-2"

	if job.Draft.Quest.Title != "Original" {
		t.Fatal("clone shares the quest payload")
	}
	if job.Draft.Quest.Conditions[0].TargetValue != 100 {
		t.Fatal("clone shares the conditions slice")
	}
	if *job.Request.Economics.PointsReward != 10 {
		t.Fatal("clone shares the economics pointers")
	}
	if job.Request.SourceRef.VideoID != "vid-1" {
		t.Fatal("clone shares the source ref")
	}
}
