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

// StudentHandler manages student profile endpoints.
type StudentHandler struct {
	service service.StudentService
	logger  zerolog.Logger
}

// NewStudentHandler builds a student handler instance.
func NewStudentHandler(service service.StudentService, logger zerolog.Logger) *StudentHandler {
	return &StudentHandler{
		service: service,
		logger:  logger.With().Str("component", "student_handler").Logger(),
	}
}

// Register attaches the routes. Mutating routes go on the faculty group.
func (h *StudentHandler) Register(router fiber.Router, faculty fiber.Router) {
	router.Get("", h.list)
	router.Get("/:id", h.get)
	faculty.Post("", h.create)
	faculty.Patch("/:id", h.update)
}

func (h *StudentHandler) list(c *fiber.Ctx) error {
	students, err := h.service.List(c.UserContext())
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "students retrieved", students)
}

func (h *StudentHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	student, err := h.service.GetByID(c.UserContext(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "student retrieved", student)
}

func (h *StudentHandler) create(c *fiber.Ctx) error {
	var payload dto.StudentCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	student, err := h.service.Create(c.UserContext(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "student registered", student)
}

func (h *StudentHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.StudentUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	student, err := h.service.Update(c.UserContext(), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "student updated", student)
}

func (h *StudentHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrStudentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "student not found")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
