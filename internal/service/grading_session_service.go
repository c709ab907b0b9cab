package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/sage-edu/sage-go-api/internal/dto"
	"github.com/sage-edu/sage-go-api/internal/grading"
	"github.com/sage-edu/sage-go-api/internal/observability"
	"github.com/sage-edu/sage-go-api/internal/repository"
)

// Grading session modes. Auto seeds pending marks from AI suggestions;
// manual seeds from whatever marks were saved before.
const (
	GradingModeAuto   = "auto"
	GradingModeManual = "manual"
)

// Invalid transitions are rejected synchronously, before any persistence.
var (
	// ErrSessionActive indicates a grading session is already open for the
	// submission.
	ErrSessionActive = errors.New("a grading session is already active")
	// ErrNoSession indicates the operation requires an open grading session.
	ErrNoSession = errors.New("no active grading session")
	// ErrNoAIScores indicates auto mode was requested before any answer had
	// been AI-scored.
	ErrNoAIScores = errors.New("auto grading requires at least one AI-scored answer")
	// ErrInvalidMark indicates a pending mark did not parse as an integer.
	ErrInvalidMark = errors.New("pending mark must be an integer")
	// ErrUnknownAnswer indicates the edited answer does not belong to the
	// submission under grading.
	ErrUnknownAnswer = errors.New("answer does not belong to this submission")
)

const defaultSessionTTL = 30 * time.Minute

// gradingSession is the ephemeral edit buffer held between entering grading
// mode and save or cancel. It lives in Redis under a per-submission key and
// is never written to the relational store.
type gradingSession struct {
	SubmissionID uint            `json:"submission_id"`
	Mode         string          `json:"mode"`
	PendingMarks map[uint]string `json:"pending_marks"`
	OpenedAt     time.Time       `json:"opened_at"`
}

// GradingSessionService is the state machine gating mark entry. A submission
// moves Pending -> Graded through Save; a graded submission may re-enter
// grading, and its visible status only changes when the next save commits.
type GradingSessionService interface {
	Enter(ctx context.Context, submissionID uint, mode string, actor Actor) (dto.GradingSessionResponse, error)
	EditMark(ctx context.Context, submissionID, answerID uint, value string, actor Actor) (dto.GradingSessionResponse, error)
	Cancel(ctx context.Context, submissionID uint, actor Actor) error
	Save(ctx context.Context, submissionID uint, actor Actor) (dto.SubmissionResponse, error)
}

type gradingSessionService struct {
	submissions repository.SubmissionRepository
	redis       *redis.Client
	ttl         time.Duration
	logger      zerolog.Logger
	now         func() time.Time
}

// NewGradingSessionService constructs the session state machine.
func NewGradingSessionService(submissions repository.SubmissionRepository, redisClient *redis.Client, ttl time.Duration, logger zerolog.Logger) GradingSessionService {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}

	return &gradingSessionService{
		submissions: submissions,
		redis:       redisClient,
		ttl:         ttl,
		logger:      logger.With().Str("component", "grading_session_service").Logger(),
		now:         time.Now,
	}
}

func sessionKey(submissionID uint) string {
	return fmt.Sprintf("grading:session:%d", submissionID)
}

func (s *gradingSessionService) Enter(ctx context.Context, submissionID uint, mode string, actor Actor) (dto.GradingSessionResponse, error) {
	if !actor.CanGrade() {
		return dto.GradingSessionResponse{}, ErrNotLecturer
	}

	existing, err := s.load(ctx, submissionID)
	if err != nil {
		return dto.GradingSessionResponse{}, err
	}
	if existing != nil {
		return dto.GradingSessionResponse{}, ErrSessionActive
	}

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GradingSessionResponse{}, ErrSubmissionNotFound
		}
		return dto.GradingSessionResponse{}, err
	}

	if mode == GradingModeAuto && !submission.HasAIScores() {
		return dto.GradingSessionResponse{}, ErrNoAIScores
	}

	pending := make(map[uint]string, len(submission.Answers))
	for _, answer := range submission.Answers {
		switch {
		case mode == GradingModeAuto && answer.AIScore != nil:
			pending[answer.ID] = strconv.Itoa(grading.SuggestedMarks(*answer.AIScore, answer.Question.MaxMarks))
		case answer.MarksAwarded != nil:
			pending[answer.ID] = strconv.Itoa(*answer.MarksAwarded)
		case mode == GradingModeAuto:
			pending[answer.ID] = "0"
		default:
			pending[answer.ID] = ""
		}
	}

	session := gradingSession{
		SubmissionID: submissionID,
		Mode:         mode,
		PendingMarks: pending,
		OpenedAt:     s.now(),
	}
	if err := s.store(ctx, &session); err != nil {
		return dto.GradingSessionResponse{}, err
	}

	return sessionResponse(session), nil
}

func (s *gradingSessionService) EditMark(ctx context.Context, submissionID, answerID uint, value string, actor Actor) (dto.GradingSessionResponse, error) {
	if !actor.CanGrade() {
		return dto.GradingSessionResponse{}, ErrNotLecturer
	}

	session, err := s.load(ctx, submissionID)
	if err != nil {
		return dto.GradingSessionResponse{}, err
	}
	if session == nil {
		return dto.GradingSessionResponse{}, ErrNoSession
	}

	if _, ok := session.PendingMarks[answerID]; !ok {
		return dto.GradingSessionResponse{}, ErrUnknownAnswer
	}

	// Any integer is accepted here; range checks are a data-quality concern
	// surfaced by the summary view, not a transition failure.
	if _, err := strconv.Atoi(value); err != nil {
		return dto.GradingSessionResponse{}, ErrInvalidMark
	}

	session.PendingMarks[answerID] = value
	if err := s.store(ctx, session); err != nil {
		return dto.GradingSessionResponse{}, err
	}

	return sessionResponse(*session), nil
}

func (s *gradingSessionService) Cancel(ctx context.Context, submissionID uint, actor Actor) error {
	if !actor.CanGrade() {
		return ErrNotLecturer
	}

	session, err := s.load(ctx, submissionID)
	if err != nil {
		return err
	}
	if session == nil {
		return ErrNoSession
	}

	return s.redis.Del(ctx, sessionKey(submissionID)).Err()
}

// Save commits every parseable pending mark and flips the submission to
// graded in one transaction. On failure the session is retained so the caller
// can retry; on success it is discarded.
func (s *gradingSessionService) Save(ctx context.Context, submissionID uint, actor Actor) (dto.SubmissionResponse, error) {
	if !actor.CanGrade() {
		return dto.SubmissionResponse{}, ErrNotLecturer
	}

	session, err := s.load(ctx, submissionID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	if session == nil {
		return dto.SubmissionResponse{}, ErrNoSession
	}

	marks := make(map[uint]int, len(session.PendingMarks))
	for answerID, raw := range session.PendingMarks {
		mark, err := strconv.Atoi(raw)
		if err != nil {
			continue
		}
		marks[answerID] = mark
	}

	if err := s.submissions.SaveGrades(ctx, submissionID, marks); err != nil {
		observability.GradeSaves().WithLabelValues("failed").Inc()
		s.logger.Error().Err(err).Uint("submission_id", submissionID).Msg("grade save failed")
		return dto.SubmissionResponse{}, fmt.Errorf("save grades: %w", err)
	}
	observability.GradeSaves().WithLabelValues("saved").Inc()

	if err := s.redis.Del(ctx, sessionKey(submissionID)).Err(); err != nil {
		s.logger.Warn().Err(err).Uint("submission_id", submissionID).Msg("failed to discard grading session")
	}

	saved, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(saved, grading.Feedback), nil
}

func (s *gradingSessionService) load(ctx context.Context, submissionID uint) (*gradingSession, error) {
	raw, err := s.redis.Get(ctx, sessionKey(submissionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load grading session: %w", err)
	}

	var session gradingSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("decode grading session: %w", err)
	}

	return &session, nil
}

func (s *gradingSessionService) store(ctx context.Context, session *gradingSession) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, sessionKey(session.SubmissionID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("store grading session: %w", err)
	}

	return nil
}

func sessionResponse(session gradingSession) dto.GradingSessionResponse {
	return dto.GradingSessionResponse{
		SubmissionID: session.SubmissionID,
		Mode:         session.Mode,
		PendingMarks: session.PendingMarks,
		OpenedAt:     session.OpenedAt,
	}
}
