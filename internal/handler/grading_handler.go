package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/sage-edu/sage-go-api/internal/dto"
	"github.com/sage-edu/sage-go-api/internal/service"
	"github.com/sage-edu/sage-go-api/internal/utils"
	"github.com/sage-edu/sage-go-api/pkg/similarity"
)

// GradingHandler exposes AI grading runs and the grading session workflow.
type GradingHandler struct {
	grading   service.GradingService
	sessions  service.GradingSessionService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewGradingHandler builds a grading handler instance.
func NewGradingHandler(grading service.GradingService, sessions service.GradingSessionService, validate *validator.Validate, logger zerolog.Logger) *GradingHandler {
	return &GradingHandler{
		grading:   grading,
		sessions:  sessions,
		validator: validate,
		logger:    logger.With().Str("component", "grading_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group. The group is
// expected to be rooted at a submission id, e.g. /submissions/:id.
func (h *GradingHandler) Register(router fiber.Router) {
	router.Post("/ai-grading", h.runAIGrading)
	router.Post("/grading-session", h.enterSession)
	router.Patch("/grading-session/marks", h.editMark)
	router.Post("/grading-session/save", h.saveSession)
	router.Delete("/grading-session", h.cancelSession)
}

func (h *GradingHandler) runAIGrading(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	run, err := h.grading.RunAIGrading(c.UserContext(), id, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "ai grading completed", run)
}

func (h *GradingHandler) enterSession(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.GradingSessionEnterRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return h.handleError(c, err)
	}

	session, err := h.sessions.Enter(c.UserContext(), id, payload.Mode, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "grading session opened", session)
}

func (h *GradingHandler) editMark(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.GradingSessionEditRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return h.handleError(c, err)
	}

	session, err := h.sessions.EditMark(c.UserContext(), id, payload.AnswerID, payload.Value, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "pending mark updated", session)
}

func (h *GradingHandler) saveSession(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submission, err := h.sessions.Save(c.UserContext(), id, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "grades saved", submission)
}

func (h *GradingHandler) cancelSession(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.sessions.Cancel(c.UserContext(), id, actorFromContext(c)); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "grading session cancelled", nil)
}

func (h *GradingHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, service.ErrNotLecturer):
		return utils.SendError(c, fiber.StatusForbidden, "lecturer role required")
	case errors.Is(err, service.ErrAnswerSetMismatch):
		return utils.SendError(c, fiber.StatusConflict, "submission answers do not match the assessment questions")
	case errors.Is(err, service.ErrSessionActive):
		return utils.SendError(c, fiber.StatusConflict, "a grading session is already active")
	case errors.Is(err, service.ErrNoSession):
		return utils.SendError(c, fiber.StatusConflict, "no active grading session")
	case errors.Is(err, service.ErrNoAIScores):
		return utils.SendError(c, fiber.StatusConflict, "auto grading requires ai scores")
	case errors.Is(err, service.ErrInvalidMark):
		return utils.SendError(c, fiber.StatusBadRequest, "pending mark must be an integer")
	case errors.Is(err, service.ErrUnknownAnswer):
		return utils.SendError(c, fiber.StatusBadRequest, "answer does not belong to this submission")
	case errors.Is(err, similarity.ErrUnavailable):
		return utils.SendError(c, fiber.StatusBadGateway, "similarity service unavailable")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
