package models

import "time"

// Assessment groups free-text questions authored by a lecturer.
type Assessment struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	LecturerID  uint       `gorm:"not null;index" json:"lecturer_id"`
	Status      string     `gorm:"size:32;not null" json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Questions   []Question `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"questions"`
}

const (
	// AssessmentStatusDraft allows question edits; no submissions accepted.
	AssessmentStatusDraft = "draft"
	// AssessmentStatusActive freezes questions and accepts submissions.
	AssessmentStatusActive = "active"
)

// IsDraft reports whether the assessment still accepts question edits.
func (a Assessment) IsDraft() bool {
	return a.Status == AssessmentStatusDraft
}

// TotalMarks sums the maximum marks across all questions.
func (a Assessment) TotalMarks() int {
	total := 0
	for _, q := range a.Questions {
		total += q.MaxMarks
	}
	return total
}

// Question is a single free-text prompt with a lecturer reference answer.
type Question struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	AssessmentID    uint      `gorm:"not null;uniqueIndex:idx_assessment_position,priority:1" json:"assessment_id"`
	Position        int       `gorm:"not null;uniqueIndex:idx_assessment_position,priority:2" json:"position"`
	Prompt          string    `gorm:"type:text;not null" json:"prompt"`
	MaxMarks        int       `gorm:"not null" json:"max_marks"`
	ExpectedLength  string    `gorm:"size:64" json:"expected_length"`
	ReferenceAnswer string    `gorm:"type:text" json:"reference_answer"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// HasReferenceAnswer reports whether similarity scoring has a comparison side.
func (q Question) HasReferenceAnswer() bool {
	return q.ReferenceAnswer != ""
}
