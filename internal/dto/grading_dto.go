package dto

import "time"

// AnswerScoreResult reports the scoring outcome for one answer. Score is nil
// when the answer was unscorable (missing text on either side) or the
// similarity service failed for it.
type AnswerScoreResult struct {
	AnswerID uint     `json:"answer_id"`
	Score    *float64 `json:"score"`
}

// GradingRunResponse summarizes one AI grading pass over a submission. The
// result list preserves question order and includes nil scores so callers can
// tell skipped answers apart from the scored set.
type GradingRunResponse struct {
	SubmissionID uint                `json:"submission_id"`
	Results      []AnswerScoreResult `json:"results"`
	Scored       int                 `json:"scored"`
	Skipped      int                 `json:"skipped"`
	Failed       int                 `json:"failed"`
	CompletedAt  time.Time           `json:"completed_at"`
}

// GradingSessionEnterRequest opens a grading session in auto or manual mode.
type GradingSessionEnterRequest struct {
	Mode string `json:"mode" validate:"required,oneof=auto manual"`
}

// GradingSessionEditRequest updates one pending mark inside an open session.
type GradingSessionEditRequest struct {
	AnswerID uint   `json:"answer_id" validate:"required,gt=0"`
	Value    string `json:"value" validate:"required"`
}

// GradingSessionResponse exposes the ephemeral edit buffer to the grading UI.
type GradingSessionResponse struct {
	SubmissionID uint            `json:"submission_id"`
	Mode         string          `json:"mode"`
	PendingMarks map[uint]string `json:"pending_marks"`
	OpenedAt     time.Time       `json:"opened_at"`
}
