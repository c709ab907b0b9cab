package dto

import (
	"time"

	"github.com/sage-edu/sage-go-api/internal/models"
)

// AssessmentCreateRequest describes the payload for creating a draft assessment.
type AssessmentCreateRequest struct {
	Title       string `json:"title" validate:"required,min=3,max=255"`
	Description string `json:"description" validate:"omitempty,max=2000"`
}

// QuestionCreateRequest describes the payload for adding a question to a draft.
type QuestionCreateRequest struct {
	Prompt          string `json:"prompt" validate:"required,min=3"`
	MaxMarks        int    `json:"max_marks" validate:"required,gt=0"`
	ExpectedLength  string `json:"expected_length" validate:"omitempty,max=64"`
	ReferenceAnswer string `json:"reference_answer" validate:"omitempty"`
}

// QuestionResponse serializes a question for API clients.
type QuestionResponse struct {
	ID              uint   `json:"id"`
	Position        int    `json:"position"`
	Prompt          string `json:"prompt"`
	MaxMarks        int    `json:"max_marks"`
	ExpectedLength  string `json:"expected_length"`
	ReferenceAnswer string `json:"reference_answer"`
}

// AssessmentResponse serializes an assessment with its ordered questions.
type AssessmentResponse struct {
	ID          uint               `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	LecturerID  uint               `json:"lecturer_id"`
	Status      string             `json:"status"`
	TotalMarks  int                `json:"total_marks"`
	Questions   []QuestionResponse `json:"questions"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// NewQuestionResponse maps a question model to its API representation.
func NewQuestionResponse(question models.Question) QuestionResponse {
	return QuestionResponse{
		ID:              question.ID,
		Position:        question.Position,
		Prompt:          question.Prompt,
		MaxMarks:        question.MaxMarks,
		ExpectedLength:  question.ExpectedLength,
		ReferenceAnswer: question.ReferenceAnswer,
	}
}

// NewAssessmentResponse maps an assessment model to its API representation.
func NewAssessmentResponse(assessment models.Assessment) AssessmentResponse {
	questions := make([]QuestionResponse, 0, len(assessment.Questions))
	for _, question := range assessment.Questions {
		questions = append(questions, NewQuestionResponse(question))
	}

	return AssessmentResponse{
		ID:          assessment.ID,
		Title:       assessment.Title,
		Description: assessment.Description,
		LecturerID:  assessment.LecturerID,
		Status:      assessment.Status,
		TotalMarks:  assessment.TotalMarks(),
		Questions:   questions,
		CreatedAt:   assessment.CreatedAt,
		UpdatedAt:   assessment.UpdatedAt,
	}
}
