package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/atrium-edu/atrium-go-api/internal/dto"
	"github.com/atrium-edu/atrium-go-api/internal/service"
	"github.com/atrium-edu/atrium-go-api/internal/utils"
	"github.com/atrium-edu/atrium-go-api/pkg/ai"
)

// GradingHandler exposes the faculty grading workflow: AI re-grade drafts,
// approval and manual override.
type GradingHandler struct {
	service service.GradingService
	logger  zerolog.Logger
}

// NewGradingHandler builds a grading handler instance.
func NewGradingHandler(service service.GradingService, logger zerolog.Logger) *GradingHandler {
	return &GradingHandler{
		service: service,
		logger:  logger.With().Str("component", "grading_handler").Logger(),
	}
}

// Register attaches the grading routes to a faculty-guarded submissions group.
func (h *GradingHandler) Register(router fiber.Router) {
	router.Post("/:id/grade-ai", h.regrade)
	router.Post("/:id/approve", h.approve)
	router.Post("/:id/override", h.override)
}

func (h *GradingHandler) regrade(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submission, err := h.service.RegradeWithAI(c.UserContext(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "grading draft created", submission)
}

func (h *GradingHandler) approve(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submission, err := h.service.Approve(c.UserContext(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "grade approved", submission)
}

func (h *GradingHandler) override(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.OverrideGradeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	submission, err := h.service.Override(c.UserContext(), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "grade overridden", submission)
}

func (h *GradingHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	var gradingFailure *ai.Failure
	switch {
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, service.ErrNoTextAvailable):
		return utils.SendError(c, fiber.StatusConflict, "no extracted text available for grading")
	case errors.Is(err, service.ErrRubricUnresolvable):
		return utils.SendError(c, fiber.StatusConflict, "assignment rubric cannot be resolved")
	case errors.Is(err, service.ErrNothingToApprove):
		return utils.SendError(c, fiber.StatusConflict, "submission has no grade to approve")
	case errors.Is(err, service.ErrGradeAlreadyPublished):
		return utils.SendError(c, fiber.StatusConflict, "grade already published; use override or request a resubmission")
	case errors.Is(err, service.ErrInvalidOverrideGrade):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &gradingFailure):
		return utils.SendError(c, fiber.StatusBadGateway, "grading provider failed")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
