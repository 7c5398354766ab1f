package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/atrium-edu/atrium-go-api/internal/dto"
	"github.com/atrium-edu/atrium-go-api/internal/models"
	"github.com/atrium-edu/atrium-go-api/internal/repository"
)

var (
	// ErrCourseNotFound indicates the requested course does not exist.
	ErrCourseNotFound = errors.New("course not found")
	// ErrAlreadyEnrolled indicates the student is already enrolled in the course.
	ErrAlreadyEnrolled = errors.New("student already enrolled")
)

// CourseService manages courses and enrollment.
type CourseService interface {
	List(ctx context.Context) ([]dto.CourseResponse, error)
	GetByID(ctx context.Context, id uint) (dto.CourseResponse, error)
	Create(ctx context.Context, payload dto.CourseCreateRequest) (dto.CourseResponse, error)
	Update(ctx context.Context, id uint, payload dto.CourseUpdateRequest) (dto.CourseResponse, error)
	Delete(ctx context.Context, id uint) error
	Enroll(ctx context.Context, courseID uint, payload dto.EnrollmentRequest) error
}

type courseService struct {
	courses   repository.CourseRepository
	students  repository.StudentRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewCourseService constructs the course service.
func NewCourseService(courseRepo repository.CourseRepository, studentRepo repository.StudentRepository, validate *validator.Validate, logger zerolog.Logger) CourseService {
	return &courseService{
		courses:   courseRepo,
		students:  studentRepo,
		validator: validate,
		logger:    logger.With().Str("component", "course_service").Logger(),
	}
}

func (s *courseService) List(ctx context.Context) ([]dto.CourseResponse, error) {
	courses, err := s.courses.List(ctx)
	if err != nil {
		return nil, err
	}

	return dto.NewCourseResponseSlice(courses), nil
}

func (s *courseService) GetByID(ctx context.Context, id uint) (dto.CourseResponse, error) {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseResponse{}, ErrCourseNotFound
		}
		return dto.CourseResponse{}, err
	}

	return dto.NewCourseResponse(course), nil
}

func (s *courseService) Create(ctx context.Context, payload dto.CourseCreateRequest) (dto.CourseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}

	course := models.Course{
		Title:       payload.Title,
		Description: payload.Description,
	}

	if err := s.courses.Create(ctx, &course); err != nil {
		return dto.CourseResponse{}, err
	}

	s.logger.Info().Uint("course_id", course.ID).Msg("course created")

	return dto.NewCourseResponse(course), nil
}

func (s *courseService) Update(ctx context.Context, id uint, payload dto.CourseUpdateRequest) (dto.CourseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}

	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseResponse{}, ErrCourseNotFound
		}
		return dto.CourseResponse{}, err
	}

	if payload.Title != nil {
		course.Title = *payload.Title
	}
	if payload.Description != nil {
		course.Description = *payload.Description
	}

	if err := s.courses.Update(ctx, &course); err != nil {
		return dto.CourseResponse{}, err
	}

	return dto.NewCourseResponse(course), nil
}

func (s *courseService) Delete(ctx context.Context, id uint) error {
	if err := s.courses.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCourseNotFound
		}
		return err
	}

	return nil
}

func (s *courseService) Enroll(ctx context.Context, courseID uint, payload dto.EnrollmentRequest) error {
	if err := s.validator.Struct(payload); err != nil {
		return err
	}

	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCourseNotFound
		}
		return err
	}

	if _, err := s.students.GetByID(ctx, payload.StudentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentNotFound
		}
		return err
	}

	enrolled, err := s.courses.IsEnrolled(ctx, courseID, payload.StudentID)
	if err != nil {
		return err
	}
	if enrolled {
		return ErrAlreadyEnrolled
	}

	if err := s.courses.Enroll(ctx, &models.Enrollment{
		CourseID:  courseID,
		StudentID: payload.StudentID,
	}); err != nil {
		return err
	}

	s.logger.Info().Uint("course_id", courseID).Uint("student_id", payload.StudentID).Msg("student enrolled")

	return nil
}
