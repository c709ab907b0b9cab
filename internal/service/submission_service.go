package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/sage-edu/sage-go-api/internal/dto"
	"github.com/sage-edu/sage-go-api/internal/grading"
	"github.com/sage-edu/sage-go-api/internal/models"
	"github.com/sage-edu/sage-go-api/internal/repository"
)

// ErrDuplicateSubmission indicates the student already submitted this
// assessment; at most one submission exists per (assessment, student) pair.
var ErrDuplicateSubmission = errors.New("submission already exists for this assessment and student")

// ErrAssessmentNotActive indicates submissions are only accepted for active
// assessments.
var ErrAssessmentNotActive = errors.New("assessment is not active")

// ErrIncompleteAnswerSet indicates the payload did not carry exactly one
// answer per question.
var ErrIncompleteAnswerSet = errors.New("submission must answer every question exactly once")

// SubmissionService creates submissions and exposes grading summaries.
type SubmissionService interface {
	Create(ctx context.Context, payload dto.SubmissionCreateRequest) (dto.SubmissionResponse, error)
	Get(ctx context.Context, id uint) (dto.SubmissionResponse, error)
	Summary(ctx context.Context, id uint, actor Actor) (dto.SubmissionSummaryResponse, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	assessments repository.AssessmentRepository
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	now         func() time.Time
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(submissions repository.SubmissionRepository, assessments repository.AssessmentRepository, validate *validator.Validate, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		submissions: submissions,
		assessments: assessments,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "submission_service").Logger(),
		now:         time.Now,
	}
}

// Create records a student's attempt, bulk-creating one answer per question
// in question order. Answer text is stripped of any markup before persisting.
func (s *submissionService) Create(ctx context.Context, payload dto.SubmissionCreateRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	assessment, err := s.assessments.GetByID(ctx, payload.AssessmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrAssessmentNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	if assessment.Status != models.AssessmentStatusActive {
		return dto.SubmissionResponse{}, ErrAssessmentNotActive
	}

	if _, err := s.submissions.GetByAssessmentAndStudent(ctx, payload.AssessmentID, payload.StudentID); err == nil {
		return dto.SubmissionResponse{}, ErrDuplicateSubmission
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.SubmissionResponse{}, err
	}

	byQuestion := make(map[uint]string, len(payload.Answers))
	for _, answer := range payload.Answers {
		if _, dup := byQuestion[answer.QuestionID]; dup {
			return dto.SubmissionResponse{}, ErrIncompleteAnswerSet
		}
		byQuestion[answer.QuestionID] = answer.Content
	}
	if len(byQuestion) != len(assessment.Questions) {
		return dto.SubmissionResponse{}, ErrIncompleteAnswerSet
	}

	answers := make([]models.Answer, 0, len(assessment.Questions))
	for _, question := range assessment.Questions {
		content, ok := byQuestion[question.ID]
		if !ok {
			return dto.SubmissionResponse{}, ErrIncompleteAnswerSet
		}
		answers = append(answers, models.Answer{
			QuestionID: question.ID,
			Content:    strings.TrimSpace(s.sanitizer.Sanitize(content)),
		})
	}

	submission := models.Submission{
		AssessmentID: payload.AssessmentID,
		StudentID:    payload.StudentID,
		Status:       models.SubmissionStatusPending,
		SubmittedAt:  s.now(),
		Answers:      answers,
	}
	if err := s.submissions.Create(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	created, err := s.submissions.GetByID(ctx, submission.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(created, grading.Feedback), nil
}

func (s *submissionService) Get(ctx context.Context, id uint) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(submission, grading.Feedback), nil
}

// Summary derives the aggregate marks view from persisted state on demand.
func (s *submissionService) Summary(ctx context.Context, id uint, actor Actor) (dto.SubmissionSummaryResponse, error) {
	if !actor.CanGrade() {
		return dto.SubmissionSummaryResponse{}, ErrNotLecturer
	}

	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionSummaryResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionSummaryResponse{}, err
	}

	maxMarks := make([]int, 0, len(submission.Assessment.Questions))
	for _, question := range submission.Assessment.Questions {
		maxMarks = append(maxMarks, question.MaxMarks)
	}

	awarded := make([]*int, 0, len(submission.Answers))
	for _, answer := range submission.Answers {
		awarded = append(awarded, answer.MarksAwarded)
	}

	total := grading.TotalMarks(maxMarks)
	sum := grading.AwardedMarks(awarded)

	var pct *int
	if submission.IsGraded() {
		pct = grading.Percentage(sum, total)
	}

	return dto.SubmissionSummaryResponse{
		SubmissionID: submission.ID,
		Status:       submission.Status,
		TotalMarks:   total,
		AwardedMarks: sum,
		Percentage:   pct,
		GradeLabel:   grading.Label(pct),
	}, nil
}
