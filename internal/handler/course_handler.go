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

// CourseHandler manages course endpoints.
type CourseHandler struct {
	service service.CourseService
	logger  zerolog.Logger
}

// NewCourseHandler builds a course handler instance.
func NewCourseHandler(service service.CourseService, logger zerolog.Logger) *CourseHandler {
	return &CourseHandler{
		service: service,
		logger:  logger.With().Str("component", "course_handler").Logger(),
	}
}

// Register attaches the routes. Mutating routes go on the faculty group.
func (h *CourseHandler) Register(router fiber.Router, faculty fiber.Router) {
	router.Get("", h.list)
	router.Get("/:id", h.get)
	faculty.Post("", h.create)
	faculty.Patch("/:id", h.update)
	faculty.Delete("/:id", h.delete)
	faculty.Post("/:id/enroll", h.enroll)
}

func (h *CourseHandler) list(c *fiber.Ctx) error {
	courses, err := h.service.List(c.UserContext())
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "courses retrieved", courses)
}

func (h *CourseHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	course, err := h.service.GetByID(c.UserContext(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "course retrieved", course)
}

func (h *CourseHandler) create(c *fiber.Ctx) error {
	var payload dto.CourseCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	course, err := h.service.Create(c.UserContext(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "course created", course)
}

func (h *CourseHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.CourseUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	course, err := h.service.Update(c.UserContext(), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "course updated", course)
}

func (h *CourseHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "course deleted", nil)
}

func (h *CourseHandler) enroll(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.EnrollmentRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.service.Enroll(c.UserContext(), id, payload); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "student enrolled", nil)
}

func (h *CourseHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrCourseNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "course not found")
	case errors.Is(err, service.ErrStudentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "student not found")
	case errors.Is(err, service.ErrAlreadyEnrolled):
		return utils.SendError(c, fiber.StatusConflict, "student already enrolled")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
