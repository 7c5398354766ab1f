package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/atrium-edu/atrium-go-api/internal/dto"
	"github.com/atrium-edu/atrium-go-api/internal/service"
	"github.com/atrium-edu/atrium-go-api/internal/utils"
)

// AssignmentHandler manages assignment endpoints.
type AssignmentHandler struct {
	service service.AssignmentService
	logger  zerolog.Logger
}

// NewAssignmentHandler builds an assignment handler instance.
func NewAssignmentHandler(service service.AssignmentService, logger zerolog.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		service: service,
		logger:  logger.With().Str("component", "assignment_handler").Logger(),
	}
}

// Register attaches the routes. Mutating routes go on the faculty group.
func (h *AssignmentHandler) Register(router fiber.Router, faculty fiber.Router) {
	router.Get("", h.list)
	router.Get("/:id", h.get)
	faculty.Post("", h.create)
	faculty.Patch("/:id", h.update)
	faculty.Delete("/:id", h.delete)
}

func (h *AssignmentHandler) list(c *fiber.Ctx) error {
	filter := dto.AssignmentFilter{
		Search: c.Query("search"),
		Sort:   c.Query("sort"),
	}
	if courseID, err := parseQueryUint(c, "course_id"); err == nil && courseID != nil {
		filter.CourseID = courseID
	}
	if page, err := parseQueryInt(c, "page"); err == nil {
		filter.Page = page
	}
	if pageSize, err := parseQueryInt(c, "page_size"); err == nil {
		filter.PageSize = pageSize
	}

	assignments, total, err := h.service.List(c.UserContext(), filter)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "assignments retrieved", fiber.Map{
		"items": assignments,
		"total": total,
	})
}

func (h *AssignmentHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	assignment, err := h.service.GetByID(c.UserContext(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "assignment retrieved", assignment)
}

func (h *AssignmentHandler) create(c *fiber.Ctx) error {
	var payload dto.AssignmentCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	attachment, _ := c.FormFile("file")

	assignment, err := h.service.Create(c.UserContext(), payload, attachment)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "assignment created", assignment)
}

func (h *AssignmentHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.AssignmentUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	assignment, err := h.service.Update(c.UserContext(), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "assignment updated", assignment)
}

func (h *AssignmentHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "assignment deleted", nil)
}

func (h *AssignmentHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrAssignmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "assignment not found")
	case errors.Is(err, service.ErrCourseNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "course not found")
	case errors.Is(err, service.ErrInvalidDueDate):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
