package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/atrium-edu/atrium-go-api/internal/dto"
	"github.com/atrium-edu/atrium-go-api/internal/models"
	"github.com/atrium-edu/atrium-go-api/internal/repository"
)

var (
	// ErrAssignmentNotFound indicates the requested assignment does not exist.
	ErrAssignmentNotFound = errors.New("assignment not found")
	// ErrInvalidDueDate indicates an unparseable due date value.
	ErrInvalidDueDate = errors.New("invalid due date")
)

var dueDateLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

// AssignmentService manages assignments and their rubric questions.
type AssignmentService interface {
	List(ctx context.Context, filter dto.AssignmentFilter) ([]dto.AssignmentResponse, int64, error)
	GetByID(ctx context.Context, id uint) (dto.AssignmentResponse, error)
	Create(ctx context.Context, payload dto.AssignmentCreateRequest, attachment *multipart.FileHeader) (dto.AssignmentResponse, error)
	Update(ctx context.Context, id uint, payload dto.AssignmentUpdateRequest) (dto.AssignmentResponse, error)
	Delete(ctx context.Context, id uint) error
}

type assignmentService struct {
	assignments repository.AssignmentRepository
	courses     repository.CourseRepository
	uploader    ArtifactUploader
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewAssignmentService constructs the assignment service.
func NewAssignmentService(assignmentRepo repository.AssignmentRepository, courseRepo repository.CourseRepository, uploader ArtifactUploader, validate *validator.Validate, logger zerolog.Logger) AssignmentService {
	return &assignmentService{
		assignments: assignmentRepo,
		courses:     courseRepo,
		uploader:    uploader,
		validator:   validate,
		logger:      logger.With().Str("component", "assignment_service").Logger(),
	}
}

func (s *assignmentService) List(ctx context.Context, filter dto.AssignmentFilter) ([]dto.AssignmentResponse, int64, error) {
	assignments, total, err := s.assignments.List(ctx, repository.AssignmentFilter{
		CourseID: filter.CourseID,
		Search:   filter.Search,
		Sort:     filter.Sort,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	})
	if err != nil {
		return nil, 0, err
	}

	return dto.NewAssignmentResponseSlice(assignments), total, nil
}

func (s *assignmentService) GetByID(ctx context.Context, id uint) (dto.AssignmentResponse, error) {
	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrAssignmentNotFound
		}
		return dto.AssignmentResponse{}, err
	}

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Create(ctx context.Context, payload dto.AssignmentCreateRequest, attachment *multipart.FileHeader) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	dueDate, err := parseDueDate(payload.DueDate)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	if _, err := s.courses.GetByID(ctx, payload.CourseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrCourseNotFound
		}
		return dto.AssignmentResponse{}, err
	}

	valuationMode := payload.ValuationMode
	if valuationMode == "" {
		valuationMode = models.ValuationLiberal
	}

	assignment := models.Assignment{
		CourseID:      payload.CourseID,
		Title:         payload.Title,
		Description:   payload.Description,
		MaxPoints:     payload.MaxPoints,
		ValuationMode: valuationMode,
		DueDate:       dueDate,
		Questions:     buildQuestions(payload.Questions),
	}

	if attachment != nil && s.uploader != nil {
		file, err := attachment.Open()
		if err != nil {
			return dto.AssignmentResponse{}, fmt.Errorf("failed to open attachment: %w", err)
		}
		url, err := s.uploader.Upload(ctx, attachment.Filename, file)
		_ = file.Close()
		if err != nil {
			return dto.AssignmentResponse{}, fmt.Errorf("failed to store attachment: %w", err)
		}
		assignment.FileURL = url
	}

	if err := s.assignments.Create(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.logger.Info().Uint("assignment_id", assignment.ID).Uint("course_id", assignment.CourseID).Msg("assignment created")

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Update(ctx context.Context, id uint, payload dto.AssignmentUpdateRequest) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrAssignmentNotFound
		}
		return dto.AssignmentResponse{}, err
	}

	if payload.Title != nil {
		assignment.Title = *payload.Title
	}
	if payload.Description != nil {
		assignment.Description = *payload.Description
	}
	if payload.MaxPoints != nil {
		assignment.MaxPoints = *payload.MaxPoints
	}
	if payload.ValuationMode != nil {
		assignment.ValuationMode = *payload.ValuationMode
	}
	if payload.DueDate != nil {
		dueDate, err := parseDueDate(*payload.DueDate)
		if err != nil {
			return dto.AssignmentResponse{}, err
		}
		assignment.DueDate = dueDate
	}

	if err := s.assignments.Update(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	// Rubric edits only affect future grading runs; existing grades keep
	// the values they were computed with.
	if payload.Questions != nil {
		if err := s.assignments.ReplaceQuestions(ctx, &assignment, buildQuestions(payload.Questions)); err != nil {
			return dto.AssignmentResponse{}, err
		}
	}

	s.logger.Info().Uint("assignment_id", assignment.ID).Msg("assignment updated")

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Delete(ctx context.Context, id uint) error {
	if err := s.assignments.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssignmentNotFound
		}
		return err
	}

	s.logger.Info().Uint("assignment_id", id).Msg("assignment deleted")

	return nil
}

func buildQuestions(payloads []dto.AssignmentQuestionPayload) []models.AssignmentQuestion {
	if len(payloads) == 0 {
		return nil
	}

	questions := make([]models.AssignmentQuestion, 0, len(payloads))
	for i, payload := range payloads {
		questions = append(questions, models.AssignmentQuestion{
			Position: i,
			Text:     payload.Text,
			Marks:    payload.Marks,
		})
	}
	return questions
}

func parseDueDate(value string) (time.Time, error) {
	for _, layout := range dueDateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDueDate, value)
}
