package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sage-edu/sage-go-api/internal/config"
	"github.com/sage-edu/sage-go-api/internal/dto"
	"github.com/sage-edu/sage-go-api/internal/handler"
	"github.com/sage-edu/sage-go-api/internal/models"
	"github.com/sage-edu/sage-go-api/internal/repository"
	"github.com/sage-edu/sage-go-api/internal/router"
	"github.com/sage-edu/sage-go-api/internal/service"
)

// fixedScorer returns the same similarity for every scored pair.
type fixedScorer struct {
	score float64
}

func (s fixedScorer) Score(context.Context, string, string) (float64, error) {
	return s.score, nil
}

func setupGradingApp(t *testing.T, scorer fixedScorer) *fiber.App {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Student{},
		&models.Assessment{},
		&models.Question{},
		&models.Submission{},
		&models.Answer{},
		&models.GradingRun{},
	))
	require.NoError(t, db.Create(&models.Student{ID: 9, Name: "Ada Lovelace", Email: "ada@example.edu"}).Error)

	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)
	redisClient := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.New(io.Discard)

	assessmentRepo := repository.NewAssessmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	answerRepo := repository.NewAnswerRepository(db)
	runRepo := repository.NewGradingRunRepository(db)

	publisher := service.NewNATSGradingPublisher(nil, "", logger)

	assessmentService := service.NewAssessmentService(assessmentRepo, validate, logger)
	submissionService := service.NewSubmissionService(submissionRepo, assessmentRepo, validate, logger)
	gradingService := service.NewGradingService(submissionRepo, answerRepo, runRepo, scorer, publisher, logger, 2)
	sessionService := service.NewGradingSessionService(submissionRepo, redisClient, time.Minute, logger)

	app := fiber.New()
	router.Register(app, config.Config{AppName: "sage-test"}, router.Dependencies{
		AssessmentHandler: handler.NewAssessmentHandler(assessmentService, logger),
		SubmissionHandler: handler.NewSubmissionHandler(submissionService, logger),
		GradingHandler:    handler.NewGradingHandler(gradingService, sessionService, validate, logger),
		JWTMiddleware: func(c *fiber.Ctx) error {
			c.Locals("user_id", uint(7))
			c.Locals("user_role", "lecturer")
			return c.Next()
		},
	})

	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, payload interface{}, target interface{}) int {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	if target != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
	}

	return resp.StatusCode
}

func TestGradingEndToEnd(t *testing.T) {
	app := setupGradingApp(t, fixedScorer{score: 0.8})

	var createResp struct {
		Data dto.AssessmentResponse `json:"data"`
	}
	status := doJSON(t, app, http.MethodPost, "/api/v1/assessments", dto.AssessmentCreateRequest{
		Title: "Biology Midterm",
	}, &createResp)
	require.Equal(t, fiber.StatusCreated, status)
	assessmentID := createResp.Data.ID

	base := fmt.Sprintf("/api/v1/assessments/%d", assessmentID)
	status = doJSON(t, app, http.MethodPost, base+"/questions", dto.QuestionCreateRequest{
		Prompt:          "Explain photosynthesis",
		MaxMarks:        10,
		ReferenceAnswer: "Plants convert light to energy",
	}, nil)
	require.Equal(t, fiber.StatusCreated, status)

	var withQuestions struct {
		Data dto.AssessmentResponse `json:"data"`
	}
	status = doJSON(t, app, http.MethodPost, base+"/questions", dto.QuestionCreateRequest{
		Prompt:          "Describe osmosis",
		MaxMarks:        10,
		ReferenceAnswer: "Diffusion of water across a membrane",
	}, &withQuestions)
	require.Equal(t, fiber.StatusCreated, status)
	require.Len(t, withQuestions.Data.Questions, 2)
	require.Equal(t, 20, withQuestions.Data.TotalMarks)

	status = doJSON(t, app, http.MethodPost, base+"/activate", nil, nil)
	require.Equal(t, fiber.StatusOK, status)

	// One answered question, one left blank.
	var submitResp struct {
		Data dto.SubmissionResponse `json:"data"`
	}
	status = doJSON(t, app, http.MethodPost, "/api/v1/submissions", dto.SubmissionCreateRequest{
		AssessmentID: assessmentID,
		StudentID:    9,
		Answers: []dto.SubmissionAnswerInput{
			{QuestionID: withQuestions.Data.Questions[0].ID, Content: "Light becomes sugar"},
			{QuestionID: withQuestions.Data.Questions[1].ID, Content: ""},
		},
	}, &submitResp)
	require.Equal(t, fiber.StatusCreated, status)
	require.Equal(t, models.SubmissionStatusPending, submitResp.Data.Status)
	submissionID := submitResp.Data.ID

	subBase := fmt.Sprintf("/api/v1/submissions/%d", submissionID)

	var runResp struct {
		Data dto.GradingRunResponse `json:"data"`
	}
	status = doJSON(t, app, http.MethodPost, subBase+"/ai-grading", nil, &runResp)
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, 1, runResp.Data.Scored)
	require.Equal(t, 1, runResp.Data.Skipped)
	require.Equal(t, 0, runResp.Data.Failed)

	var sessionResp struct {
		Data dto.GradingSessionResponse `json:"data"`
	}
	status = doJSON(t, app, http.MethodPost, subBase+"/grading-session", dto.GradingSessionEnterRequest{Mode: "auto"}, &sessionResp)
	require.Equal(t, fiber.StatusCreated, status)

	// 0.8 over 10 marks suggests 8; the blank answer defaults to 0.
	answeredID := submitResp.Data.Answers[0].ID
	blankID := submitResp.Data.Answers[1].ID
	require.Equal(t, "8", sessionResp.Data.PendingMarks[answeredID])
	require.Equal(t, "0", sessionResp.Data.PendingMarks[blankID])

	var savedResp struct {
		Data dto.SubmissionResponse `json:"data"`
	}
	status = doJSON(t, app, http.MethodPost, subBase+"/grading-session/save", nil, &savedResp)
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, models.SubmissionStatusGraded, savedResp.Data.Status)

	var summaryResp struct {
		Data dto.SubmissionSummaryResponse `json:"data"`
	}
	status = doJSON(t, app, http.MethodGet, subBase+"/summary", nil, &summaryResp)
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, 20, summaryResp.Data.TotalMarks)
	require.Equal(t, 8, summaryResp.Data.AwardedMarks)
	require.NotNil(t, summaryResp.Data.Percentage)
	require.Equal(t, 40, *summaryResp.Data.Percentage)
	require.Equal(t, "Needs Improvement", summaryResp.Data.GradeLabel)
}

func TestGradingSessionCancelLeavesSubmissionPending(t *testing.T) {
	app := setupGradingApp(t, fixedScorer{score: 0.5})

	var createResp struct {
		Data dto.AssessmentResponse `json:"data"`
	}
	doJSON(t, app, http.MethodPost, "/api/v1/assessments", dto.AssessmentCreateRequest{Title: "Quick Quiz"}, &createResp)
	base := fmt.Sprintf("/api/v1/assessments/%d", createResp.Data.ID)

	var withQuestions struct {
		Data dto.AssessmentResponse `json:"data"`
	}
	doJSON(t, app, http.MethodPost, base+"/questions", dto.QuestionCreateRequest{
		Prompt:          "Define entropy",
		MaxMarks:        5,
		ReferenceAnswer: "A measure of disorder",
	}, &withQuestions)
	doJSON(t, app, http.MethodPost, base+"/activate", nil, nil)

	var submitResp struct {
		Data dto.SubmissionResponse `json:"data"`
	}
	doJSON(t, app, http.MethodPost, "/api/v1/submissions", dto.SubmissionCreateRequest{
		AssessmentID: createResp.Data.ID,
		StudentID:    9,
		Answers: []dto.SubmissionAnswerInput{
			{QuestionID: withQuestions.Data.Questions[0].ID, Content: "Disorder grows"},
		},
	}, &submitResp)

	subBase := fmt.Sprintf("/api/v1/submissions/%d", submitResp.Data.ID)
	status := doJSON(t, app, http.MethodPost, subBase+"/grading-session", dto.GradingSessionEnterRequest{Mode: "manual"}, nil)
	require.Equal(t, fiber.StatusCreated, status)

	status = doJSON(t, app, http.MethodDelete, subBase+"/grading-session", nil, nil)
	require.Equal(t, fiber.StatusOK, status)

	var getResp struct {
		Data dto.SubmissionResponse `json:"data"`
	}
	status = doJSON(t, app, http.MethodGet, subBase, nil, &getResp)
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, models.SubmissionStatusPending, getResp.Data.Status)
	require.Nil(t, getResp.Data.Answers[0].MarksAwarded)
}
