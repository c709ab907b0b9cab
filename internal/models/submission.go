package models

import "time"

// Submission is one student's attempt at one assessment. At most one
// submission exists per (assessment, student) pair and submissions are
// never deleted.
type Submission struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	AssessmentID uint       `gorm:"not null;uniqueIndex:idx_assessment_student,priority:1" json:"assessment_id"`
	StudentID    uint       `gorm:"not null;uniqueIndex:idx_assessment_student,priority:2" json:"student_id"`
	Status       string     `gorm:"size:32;not null" json:"status"`
	SubmittedAt  time.Time  `gorm:"not null" json:"submitted_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Assessment   Assessment `gorm:"constraint:OnUpdate:CASCADE" json:"assessment"`
	Student      Student    `gorm:"constraint:OnUpdate:CASCADE" json:"student"`
	Answers      []Answer   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"answers"`
}

const (
	// SubmissionStatusPending indicates no marks have been saved yet.
	SubmissionStatusPending = "pending_review"
	// SubmissionStatusGraded indicates a lecturer has saved marks.
	SubmissionStatusGraded = "graded"
)

// IsGraded reports whether marks have been finalized for this submission.
func (s Submission) IsGraded() bool {
	return s.Status == SubmissionStatusGraded
}

// HasAIScores reports whether at least one answer carries a similarity score.
func (s Submission) HasAIScores() bool {
	for _, a := range s.Answers {
		if a.AIScore != nil {
			return true
		}
	}
	return false
}

// Answer holds one student's response to one question. AIScore is the
// similarity suggestion in [0,1]; MarksAwarded is the authoritative integer
// mark, set only through a grade save.
type Answer struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SubmissionID uint      `gorm:"not null;uniqueIndex:idx_submission_question,priority:1" json:"submission_id"`
	QuestionID   uint      `gorm:"not null;uniqueIndex:idx_submission_question,priority:2" json:"question_id"`
	Content      string    `gorm:"type:text" json:"content"`
	AIScore      *float64  `json:"ai_score"`
	MarksAwarded *int      `json:"marks_awarded"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Question     Question  `gorm:"constraint:OnUpdate:CASCADE" json:"question"`
}
