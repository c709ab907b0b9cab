package contract_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/sage-edu/sage-go-api/internal/dto"
	"github.com/sage-edu/sage-go-api/internal/handler"
	"github.com/sage-edu/sage-go-api/internal/service"
)

type stubGradingService struct {
	response dto.GradingRunResponse
}

func (s stubGradingService) RunAIGrading(context.Context, uint, service.Actor) (dto.GradingRunResponse, error) {
	return s.response, nil
}

type stubSessionService struct {
	saved dto.SubmissionResponse
}

func (s stubSessionService) Enter(context.Context, uint, string, service.Actor) (dto.GradingSessionResponse, error) {
	return dto.GradingSessionResponse{}, nil
}

func (s stubSessionService) EditMark(context.Context, uint, uint, string, service.Actor) (dto.GradingSessionResponse, error) {
	return dto.GradingSessionResponse{}, nil
}

func (s stubSessionService) Cancel(context.Context, uint, service.Actor) error {
	return nil
}

func (s stubSessionService) Save(context.Context, uint, service.Actor) (dto.SubmissionResponse, error) {
	return s.saved, nil
}

func compileSchema(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()
	schemaPath, err := filepath.Abs(filepath.Join("..", "contracts", name))
	require.NoError(t, err)

	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile("file://" + schemaPath)
	require.NoError(t, err)
	return schema
}

func gradingTestApp(grading service.GradingService, sessions service.GradingSessionService) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/v1/submissions/:id", func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(7))
		c.Locals("user_role", "lecturer")
		return c.Next()
	})
	handler.NewGradingHandler(grading, sessions, validator.New(), zerolog.Nop()).Register(group)
	return app
}

func TestGradingRunContract(t *testing.T) {
	schema := compileSchema(t, "grading_run.schema.json")

	score := 0.8
	svc := stubGradingService{response: dto.GradingRunResponse{
		SubmissionID: 100,
		Results: []dto.AnswerScoreResult{
			{AnswerID: 1, Score: &score},
			{AnswerID: 2, Score: nil},
		},
		Scored:      1,
		Skipped:     1,
		Failed:      0,
		CompletedAt: time.Now().UTC(),
	}}

	app := gradingTestApp(svc, stubSessionService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/submissions/100/ai-grading", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	validateAgainst(t, resp, schema)
}

func TestGradeSaveContract(t *testing.T) {
	schema := compileSchema(t, "submission.schema.json")

	marks := 8
	zero := 0
	score := 0.8
	feedback := "Excellent answer that closely matches the expected response."
	sessions := stubSessionService{saved: dto.SubmissionResponse{
		ID:           100,
		AssessmentID: 5,
		StudentID:    9,
		Status:       "graded",
		SubmittedAt:  time.Now().UTC(),
		Answers: []dto.AnswerResponse{
			{ID: 1, QuestionID: 11, Position: 1, Prompt: "Explain photosynthesis", MaxMarks: 10, Content: "Light becomes sugar", AIScore: &score, AIFeedback: &feedback, MarksAwarded: &marks},
			{ID: 2, QuestionID: 12, Position: 2, Prompt: "Describe osmosis", MaxMarks: 10, Content: "", MarksAwarded: &zero},
		},
	}}

	app := gradingTestApp(stubGradingService{}, sessions)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/submissions/100/grading-session/save", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	validateAgainst(t, resp, schema)
}

func validateAgainst(t *testing.T, resp *http.Response, schema *jsonschema.Schema) {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	var payload interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.NoError(t, schema.Validate(payload))
}
