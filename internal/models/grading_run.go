package models

import (
	"time"

	"gorm.io/datatypes"
)

// GradingRun is the audit record for one AI grading pass over a submission.
// The persisted answers only keep a nullable ai_score; the run row preserves
// how many answers were scored, skipped for missing text, or failed against
// the similarity service.
type GradingRun struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	SubmissionID uint           `gorm:"not null;index" json:"submission_id"`
	TriggeredBy  uint           `gorm:"not null" json:"triggered_by"`
	Scored       int            `gorm:"not null" json:"scored"`
	Skipped      int            `gorm:"not null" json:"skipped"`
	Failed       int            `gorm:"not null" json:"failed"`
	Details      datatypes.JSON `json:"details"`
	CreatedAt    time.Time      `json:"created_at"`
}
