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

// SubmissionHandler manages submission endpoints.
type SubmissionHandler struct {
	service service.SubmissionService
	logger  zerolog.Logger
}

// NewSubmissionHandler builds a submission handler instance.
func NewSubmissionHandler(service service.SubmissionService, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		service: service,
		logger:  logger.With().Str("component", "submission_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group. Resubmission
// requests and deletion are faculty operations and are guarded separately
// by the router.
func (h *SubmissionHandler) Register(router fiber.Router, faculty fiber.Router) {
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Post("", h.create)
	faculty.Post("/:id/request-resubmission", h.requestResubmission)
	faculty.Delete("/:id", h.delete)
}

func (h *SubmissionHandler) list(c *fiber.Ctx) error {
	filter := dto.SubmissionFilter{}
	if assignmentID, err := parseQueryUint(c, "assignment_id"); err == nil && assignmentID != nil {
		filter.AssignmentID = assignmentID
	}
	if courseID, err := parseQueryUint(c, "course_id"); err == nil && courseID != nil {
		filter.CourseID = courseID
	}
	if studentID, err := parseQueryUint(c, "student_id"); err == nil && studentID != nil {
		filter.StudentID = studentID
	}
	if status := c.Query("status"); status != "" {
		filter.Status = &status
	}

	submissions, err := h.service.List(c.UserContext(), filter)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submissions retrieved", submissions)
}

func (h *SubmissionHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submission, err := h.service.GetByID(c.UserContext(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission retrieved", submission)
}

func (h *SubmissionHandler) create(c *fiber.Ctx) error {
	var payload dto.SubmissionCreateRequest
	assignmentID, err := parseFormUint(c, "assignment_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	studentID, err := parseFormUint(c, "student_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	payload.AssignmentID = *assignmentID
	payload.StudentID = *studentID

	form, err := c.MultipartForm()
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "multipart form is required")
	}
	files := form.File["files"]
	if len(files) == 0 {
		if single, err := c.FormFile("file"); err == nil {
			files = append(files, single)
		}
	}
	if len(files) == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "at least one file is required")
	}

	submission, err := h.service.Upload(c.UserContext(), payload, files)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "submission created", submission)
}

func (h *SubmissionHandler) requestResubmission(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submission, err := h.service.RequestResubmission(c.UserContext(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "resubmission requested", submission)
}

func (h *SubmissionHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission deleted", nil)
}

func (h *SubmissionHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrAssignmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "assignment not found")
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, service.ErrStudentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "student not found")
	case errors.Is(err, service.ErrStudentNotEnrolled):
		return utils.SendError(c, fiber.StatusForbidden, "student is not enrolled in this course")
	case errors.Is(err, service.ErrSubmissionAlreadyGraded):
		return utils.SendError(c, fiber.StatusConflict, "submission already graded")
	case errors.Is(err, service.ErrNoFilesProvided),
		errors.Is(err, service.ErrTooManyFiles),
		errors.Is(err, service.ErrUnsupportedMediaType):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
