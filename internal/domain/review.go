package domain

import "time"

// ReviewOutcome enumerates the admin's possible decisions on a completed draft.
type ReviewOutcome string

const (
	ReviewApproved ReviewOutcome = "approved"
	ReviewRejected ReviewOutcome = "rejected"
)

// Valid reports whether the outcome is one of the supported values.
func (o ReviewOutcome) Valid() bool {
	return o == ReviewApproved || o == ReviewRejected
}

// FinalizationParams are the admin-supplied values applied at approval time.
// They were not part of the generation request; the draft itself stays
// untouched.
type FinalizationParams struct {
	Economics     EconomicParams `json:"economics"`
	ConditionType string         `json:"condition_type,omitempty"`
}

// ReviewDecision records the human resolution of a completed generation job.
type ReviewDecision struct {
	ContentID    string              `json:"content_id"`
	Outcome      ReviewOutcome       `json:"outcome"`
	Finalization *FinalizationParams `json:"finalization,omitempty"`
}

// MaterializedEntity is the durable platform entity created from an approved
// draft. Its existence is the terminal artifact of the pipeline.
type MaterializedEntity struct {
	EntityID        string      `json:"entity_id"`
	Kind            ContentKind `json:"content_kind"`
	SourceContentID string      `json:"source_content_id"`
	CreatedAt       time.Time   `json:"created_at"`
}
