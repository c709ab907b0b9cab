package dto

import (
	"time"

	"github.com/sage-edu/sage-go-api/internal/models"
)

// SubmissionAnswerInput carries one answer inside a submission payload.
type SubmissionAnswerInput struct {
	QuestionID uint   `json:"question_id" validate:"required,gt=0"`
	Content    string `json:"content"`
}

// SubmissionCreateRequest describes a student's full attempt; one answer per
// question, submitted in a single request.
type SubmissionCreateRequest struct {
	AssessmentID uint                    `json:"assessment_id" validate:"required,gt=0"`
	StudentID    uint                    `json:"student_id" validate:"required,gt=0"`
	Answers      []SubmissionAnswerInput `json:"answers" validate:"required,dive"`
}

// AnswerResponse serializes one answer with its grading state.
type AnswerResponse struct {
	ID           uint     `json:"id"`
	QuestionID   uint     `json:"question_id"`
	Position     int      `json:"position"`
	Prompt       string   `json:"prompt"`
	MaxMarks     int      `json:"max_marks"`
	Content      string   `json:"content"`
	AIScore      *float64 `json:"ai_score"`
	AIFeedback   *string  `json:"ai_feedback"`
	MarksAwarded *int     `json:"marks_awarded"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID           uint             `json:"id"`
	AssessmentID uint             `json:"assessment_id"`
	StudentID    uint             `json:"student_id"`
	Status       string           `json:"status"`
	SubmittedAt  time.Time        `json:"submitted_at"`
	Answers      []AnswerResponse `json:"answers"`
}

// SubmissionSummaryResponse carries the aggregate marks view for reviewers.
type SubmissionSummaryResponse struct {
	SubmissionID uint   `json:"submission_id"`
	Status       string `json:"status"`
	TotalMarks   int    `json:"total_marks"`
	AwardedMarks int    `json:"awarded_marks"`
	Percentage   *int   `json:"percentage"`
	GradeLabel   string `json:"grade_label"`
}

// NewAnswerResponse maps an answer model (with its question preloaded) to the
// API representation. AI feedback is derived from the similarity score, never
// persisted.
func NewAnswerResponse(answer models.Answer, feedback func(float64) string) AnswerResponse {
	resp := AnswerResponse{
		ID:           answer.ID,
		QuestionID:   answer.QuestionID,
		Position:     answer.Question.Position,
		Prompt:       answer.Question.Prompt,
		MaxMarks:     answer.Question.MaxMarks,
		Content:      answer.Content,
		AIScore:      answer.AIScore,
		MarksAwarded: answer.MarksAwarded,
	}

	if answer.AIScore != nil && feedback != nil {
		text := feedback(*answer.AIScore)
		resp.AIFeedback = &text
	}

	return resp
}

// NewSubmissionResponse maps a submission model to its API representation.
func NewSubmissionResponse(submission models.Submission, feedback func(float64) string) SubmissionResponse {
	answers := make([]AnswerResponse, 0, len(submission.Answers))
	for _, answer := range submission.Answers {
		answers = append(answers, NewAnswerResponse(answer, feedback))
	}

	return SubmissionResponse{
		ID:           submission.ID,
		AssessmentID: submission.AssessmentID,
		StudentID:    submission.StudentID,
		Status:       submission.Status,
		SubmittedAt:  submission.SubmittedAt,
		Answers:      answers,
	}
}
