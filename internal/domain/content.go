package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ContentKind enumerates the entity kinds the generation service can author.
type ContentKind string

const (
	ContentKindQuest ContentKind = "quest"
	ContentKindQuiz  ContentKind = "quiz"
)

// Valid reports whether the kind is one of the supported values.
func (k ContentKind) Valid() bool {
	return k == ContentKindQuest || k == ContentKindQuiz
}

// Difficulty enumerates supported generation difficulty levels.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// FlexInt is an int that also accepts quoted numeric strings on decode, since
// admin forms submit economic values as strings.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		return nil
	}
	s = strings.TrimSpace(strings.Trim(s, `"`))
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("value %q is not an integer", s)
	}
	*f = FlexInt(n)
	return nil
}

// Int returns the underlying value, or 0 for a nil pointer.
func (f *FlexInt) Int() int {
	if f == nil {
		return 0
	}
	return int(*f)
}

// VideoRef points at an existing platform video asset a quiz is generated from.
type VideoRef struct {
	VideoID string `json:"video_id"`
	Title   string `json:"title,omitempty"`
}

// EconomicParams carries the point economics attached to generated content.
type EconomicParams struct {
	PointsRequired *int `json:"points_required,omitempty"`
	PointsReward   *int `json:"points_reward,omitempty"`
	PassingScore   *int `json:"passing_score,omitempty"`
}

// QuestCondition is a single completion condition inside a quest draft.
type QuestCondition struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	TargetValue int    `json:"target_value"`
}

// QuestDraft is the AI-authored quest payload awaiting review.
type QuestDraft struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Conditions  []QuestCondition `json:"conditions"`
}

// QuizOption is a single answer option on a quiz question.
type QuizOption struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// QuizQuestion is a single question inside a quiz draft.
type QuizQuestion struct {
	Text    string       `json:"text"`
	Options []QuizOption `json:"options"`
}

// QuizDraft is the AI-authored quiz payload awaiting review.
type QuizDraft struct {
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	PassingScore int            `json:"passing_score"`
	Questions    []QuizQuestion `json:"questions"`
}

// DraftContent is the tagged union over the content kinds. Exactly one of the
// payload pointers is set, matching Kind. The payload is read-only once the
// generation service produced it; adjustments go through a fresh generation,
// never in-place edits.
type DraftContent struct {
	Kind  ContentKind `json:"kind"`
	Quest *QuestDraft `json:"quest,omitempty"`
	Quiz  *QuizDraft  `json:"quiz,omitempty"`
}

// Empty reports whether the union carries no payload for its kind.
func (d *DraftContent) Empty() bool {
	if d == nil {
		return true
	}
	switch d.Kind {
	case ContentKindQuest:
		return d.Quest == nil
	case ContentKindQuiz:
		return d.Quiz == nil
	default:
		return true
	}
}

// Title returns the draft's display title regardless of kind.
func (d *DraftContent) Title() string {
	if d == nil {
		return ""
	}
	switch d.Kind {
	case ContentKindQuest:
		if d.Quest != nil {
			return d.Quest.Title
		}
	case ContentKindQuiz:
		if d.Quiz != nil {
			return d.Quiz.Title
		}
	}
	return ""
}

// MustMarshal serializes v, panicking on failure. Reserved for payloads whose
// shape is fully controlled by this process.
func MustMarshal(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return raw
}
