package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/sage-edu/sage-go-api/internal/dto"
	"github.com/sage-edu/sage-go-api/internal/models"
	"github.com/sage-edu/sage-go-api/internal/observability"
	"github.com/sage-edu/sage-go-api/internal/repository"
	"github.com/sage-edu/sage-go-api/pkg/similarity"
)

// ErrSubmissionNotFound indicates the submission was not located.
var ErrSubmissionNotFound = errors.New("submission not found")

// ErrNotLecturer indicates the actor lacks grading authority.
var ErrNotLecturer = errors.New("grading requires the lecturer role")

// ErrAnswerSetMismatch indicates the stored answers do not line up one to one
// with the assessment's questions. This is a data-integrity fault, not a
// normal runtime case.
var ErrAnswerSetMismatch = errors.New("answer set does not match question set")

const defaultScoringConcurrency = 4

// Per-answer outcome kinds recorded in the grading run audit trail.
const (
	outcomeScored  = "scored"
	outcomeSkipped = "skipped"
	outcomeFailed  = "failed"
)

// GradingService runs the AI scoring pass over a submission. Re-running is
// always legal and fully supersedes earlier ai_score values for the answers
// it scores; it never touches the submission status.
type GradingService interface {
	RunAIGrading(ctx context.Context, submissionID uint, actor Actor) (dto.GradingRunResponse, error)
}

type gradingService struct {
	submissions repository.SubmissionRepository
	answers     repository.AnswerRepository
	runs        repository.GradingRunRepository
	scorer      similarity.Scorer
	events      GradingEventPublisher
	logger      zerolog.Logger
	tracer      trace.Tracer
	concurrency int
	now         func() time.Time
}

// NewGradingService constructs the grading orchestrator.
func NewGradingService(
	submissions repository.SubmissionRepository,
	answers repository.AnswerRepository,
	runs repository.GradingRunRepository,
	scorer similarity.Scorer,
	events GradingEventPublisher,
	logger zerolog.Logger,
	concurrency int,
) GradingService {
	if concurrency <= 0 {
		concurrency = defaultScoringConcurrency
	}

	return &gradingService{
		submissions: submissions,
		answers:     answers,
		runs:        runs,
		scorer:      scorer,
		events:      events,
		logger:      logger.With().Str("component", "grading_service").Logger(),
		tracer:      otel.Tracer("github.com/sage-edu/sage-go-api/internal/service/grading"),
		concurrency: concurrency,
		now:         time.Now,
	}
}

type answerOutcome struct {
	AnswerID uint     `json:"answer_id"`
	Outcome  string   `json:"outcome"`
	Score    *float64 `json:"score,omitempty"`
}

func (s *gradingService) RunAIGrading(ctx context.Context, submissionID uint, actor Actor) (dto.GradingRunResponse, error) {
	ctx, span := s.tracer.Start(ctx, "grading.run", trace.WithAttributes(
		attribute.Int64("grading.submission_id", int64(submissionID)),
		attribute.Int64("grading.actor_id", int64(actor.ID)),
	))
	defer span.End()

	if !actor.CanGrade() {
		span.SetStatus(codes.Error, "actor_not_lecturer")
		return dto.GradingRunResponse{}, ErrNotLecturer
	}

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GradingRunResponse{}, ErrSubmissionNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_lookup_failed")
		return dto.GradingRunResponse{}, err
	}

	answers, err := s.answers.ListBySubmission(ctx, submissionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "answer_load_failed")
		return dto.GradingRunResponse{}, err
	}

	if len(answers) != len(submission.Assessment.Questions) {
		span.SetStatus(codes.Error, "answer_set_mismatch")
		return dto.GradingRunResponse{}, ErrAnswerSetMismatch
	}

	start := s.now()
	outcomes := s.scoreAll(ctx, answers)
	observability.GradingRuns().Inc()
	observability.GradingRunDuration().Observe(time.Since(start).Seconds())

	scored, skipped, failed := 0, 0, 0
	results := make([]dto.AnswerScoreResult, len(outcomes))
	for i, outcome := range outcomes {
		results[i] = dto.AnswerScoreResult{AnswerID: outcome.AnswerID, Score: outcome.Score}
		switch outcome.Outcome {
		case outcomeScored:
			scored++
		case outcomeSkipped:
			skipped++
		default:
			failed++
		}
	}
	observability.GradingAnswers().WithLabelValues(outcomeScored).Add(float64(scored))
	observability.GradingAnswers().WithLabelValues(outcomeSkipped).Add(float64(skipped))
	observability.GradingAnswers().WithLabelValues(outcomeFailed).Add(float64(failed))

	completedAt := s.now()
	s.recordRun(ctx, submissionID, actor, outcomes, scored, skipped, failed)

	if s.events != nil {
		_ = s.events.PublishGradingCompleted(ctx, GradingCompletedEvent{
			SubmissionID: submissionID,
			TriggeredBy:  actor.ID,
			Scored:       scored,
			Skipped:      skipped,
			Failed:       failed,
			CompletedAt:  completedAt,
		})
	}

	span.SetAttributes(
		attribute.Int("grading.scored", scored),
		attribute.Int("grading.skipped", skipped),
		attribute.Int("grading.failed", failed),
	)

	return dto.GradingRunResponse{
		SubmissionID: submissionID,
		Results:      results,
		Scored:       scored,
		Skipped:      skipped,
		Failed:       failed,
		CompletedAt:  completedAt,
	}, nil
}

// scoreAll fans scoring out over a bounded pool. Each task captures its own
// failure and writes only its own result slot, so one bad answer can never
// sink its siblings. Result order matches the input (question) order.
func (s *gradingService) scoreAll(ctx context.Context, answers []models.Answer) []answerOutcome {
	outcomes := make([]answerOutcome, len(answers))
	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup

	for i, answer := range answers {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, answer models.Answer) {
			defer wg.Done()
			defer func() { <-sem }()
			outcomes[i] = s.scoreOne(ctx, answer)
		}(i, answer)
	}
	wg.Wait()

	return outcomes
}

// scoreOne scores a single answer against its reference answer and persists
// the result. Similarity is undefined without both sides of the comparison,
// so either side being empty short-circuits with no network call.
func (s *gradingService) scoreOne(ctx context.Context, answer models.Answer) answerOutcome {
	candidate := strings.TrimSpace(answer.Content)
	reference := strings.TrimSpace(answer.Question.ReferenceAnswer)
	if candidate == "" || reference == "" {
		return answerOutcome{AnswerID: answer.ID, Outcome: outcomeSkipped}
	}

	score, err := s.scorer.Score(ctx, candidate, reference)
	if err != nil {
		s.logger.Warn().Err(err).Uint("answer_id", answer.ID).Msg("similarity scoring failed")
		return answerOutcome{AnswerID: answer.ID, Outcome: outcomeFailed}
	}

	if err := s.answers.UpdateAIScore(ctx, answer.ID, score); err != nil {
		s.logger.Error().Err(err).Uint("answer_id", answer.ID).Msg("failed to persist ai score")
		return answerOutcome{AnswerID: answer.ID, Outcome: outcomeFailed, Score: &score}
	}

	return answerOutcome{AnswerID: answer.ID, Outcome: outcomeScored, Score: &score}
}

func (s *gradingService) recordRun(ctx context.Context, submissionID uint, actor Actor, outcomes []answerOutcome, scored, skipped, failed int) {
	details, err := json.Marshal(outcomes)
	if err != nil {
		details = []byte("[]")
	}

	run := models.GradingRun{
		SubmissionID: submissionID,
		TriggeredBy:  actor.ID,
		Scored:       scored,
		Skipped:      skipped,
		Failed:       failed,
		Details:      datatypes.JSON(details),
	}
	if err := s.runs.Create(ctx, &run); err != nil {
		s.logger.Warn().Err(err).Uint("submission_id", submissionID).Msg("failed to persist grading run audit")
	}
}
