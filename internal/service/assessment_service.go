package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/sage-edu/sage-go-api/internal/dto"
	"github.com/sage-edu/sage-go-api/internal/models"
	"github.com/sage-edu/sage-go-api/internal/repository"
)

// ErrAssessmentNotFound indicates the assessment was not located.
var ErrAssessmentNotFound = errors.New("assessment not found")

// ErrAssessmentNotDraft indicates questions can only change while the
// assessment is a draft; once active, its shape is frozen.
var ErrAssessmentNotDraft = errors.New("assessment is not editable once active")

// ErrNotOwner indicates the actor does not own the assessment.
var ErrNotOwner = errors.New("assessment belongs to another lecturer")

// AssessmentService covers lecturer authoring workflows.
type AssessmentService interface {
	Create(ctx context.Context, payload dto.AssessmentCreateRequest, actor Actor) (dto.AssessmentResponse, error)
	Get(ctx context.Context, id uint) (dto.AssessmentResponse, error)
	AddQuestion(ctx context.Context, assessmentID uint, payload dto.QuestionCreateRequest, actor Actor) (dto.AssessmentResponse, error)
	Activate(ctx context.Context, assessmentID uint, actor Actor) (dto.AssessmentResponse, error)
}

type assessmentService struct {
	assessments repository.AssessmentRepository
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewAssessmentService constructs an AssessmentService instance.
func NewAssessmentService(assessments repository.AssessmentRepository, validate *validator.Validate, logger zerolog.Logger) AssessmentService {
	return &assessmentService{
		assessments: assessments,
		validator:   validate,
		logger:      logger.With().Str("component", "assessment_service").Logger(),
	}
}

func (s *assessmentService) Create(ctx context.Context, payload dto.AssessmentCreateRequest, actor Actor) (dto.AssessmentResponse, error) {
	if !actor.CanGrade() {
		return dto.AssessmentResponse{}, ErrNotLecturer
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssessmentResponse{}, err
	}

	assessment := models.Assessment{
		Title:       payload.Title,
		Description: payload.Description,
		LecturerID:  actor.ID,
		Status:      models.AssessmentStatusDraft,
	}
	if err := s.assessments.Create(ctx, &assessment); err != nil {
		return dto.AssessmentResponse{}, err
	}

	return dto.NewAssessmentResponse(assessment), nil
}

func (s *assessmentService) Get(ctx context.Context, id uint) (dto.AssessmentResponse, error) {
	assessment, err := s.assessments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssessmentResponse{}, ErrAssessmentNotFound
		}
		return dto.AssessmentResponse{}, err
	}

	return dto.NewAssessmentResponse(assessment), nil
}

// AddQuestion appends a question at the next contiguous position. Questions
// are immutable once the assessment goes active.
func (s *assessmentService) AddQuestion(ctx context.Context, assessmentID uint, payload dto.QuestionCreateRequest, actor Actor) (dto.AssessmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssessmentResponse{}, err
	}

	assessment, err := s.ownedDraft(ctx, assessmentID, actor)
	if err != nil {
		return dto.AssessmentResponse{}, err
	}

	position, err := s.assessments.NextQuestionPosition(ctx, assessment.ID)
	if err != nil {
		return dto.AssessmentResponse{}, err
	}

	question := models.Question{
		AssessmentID:    assessment.ID,
		Position:        position,
		Prompt:          payload.Prompt,
		MaxMarks:        payload.MaxMarks,
		ExpectedLength:  payload.ExpectedLength,
		ReferenceAnswer: payload.ReferenceAnswer,
	}
	if err := s.assessments.CreateQuestion(ctx, &question); err != nil {
		return dto.AssessmentResponse{}, err
	}

	return s.Get(ctx, assessment.ID)
}

func (s *assessmentService) Activate(ctx context.Context, assessmentID uint, actor Actor) (dto.AssessmentResponse, error) {
	assessment, err := s.ownedDraft(ctx, assessmentID, actor)
	if err != nil {
		return dto.AssessmentResponse{}, err
	}

	if err := s.assessments.UpdateStatus(ctx, assessment.ID, models.AssessmentStatusActive); err != nil {
		return dto.AssessmentResponse{}, err
	}

	return s.Get(ctx, assessment.ID)
}

func (s *assessmentService) ownedDraft(ctx context.Context, assessmentID uint, actor Actor) (models.Assessment, error) {
	if !actor.CanGrade() {
		return models.Assessment{}, ErrNotLecturer
	}

	assessment, err := s.assessments.GetByID(ctx, assessmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Assessment{}, ErrAssessmentNotFound
		}
		return models.Assessment{}, err
	}

	if assessment.LecturerID != actor.ID {
		return models.Assessment{}, ErrNotOwner
	}
	if !assessment.IsDraft() {
		return models.Assessment{}, ErrAssessmentNotDraft
	}

	return assessment, nil
}
