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

// ErrStudentNotFound indicates the requested student profile does not exist.
var ErrStudentNotFound = errors.New("student not found")

// StudentService manages student profiles.
type StudentService interface {
	List(ctx context.Context) ([]dto.StudentResponse, error)
	GetByID(ctx context.Context, id uint) (dto.StudentResponse, error)
	Create(ctx context.Context, payload dto.StudentCreateRequest) (dto.StudentResponse, error)
	Update(ctx context.Context, id uint, payload dto.StudentUpdateRequest) (dto.StudentResponse, error)
}

type studentService struct {
	students  repository.StudentRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(studentRepo repository.StudentRepository, validate *validator.Validate, logger zerolog.Logger) StudentService {
	return &studentService{
		students:  studentRepo,
		validator: validate,
		logger:    logger.With().Str("component", "student_service").Logger(),
	}
}

func (s *studentService) List(ctx context.Context) ([]dto.StudentResponse, error) {
	students, err := s.students.List(ctx)
	if err != nil {
		return nil, err
	}

	return dto.NewStudentResponseSlice(students), nil
}

func (s *studentService) GetByID(ctx context.Context, id uint) (dto.StudentResponse, error) {
	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentResponse{}, ErrStudentNotFound
		}
		return dto.StudentResponse{}, err
	}

	return dto.NewStudentResponse(student), nil
}

func (s *studentService) Create(ctx context.Context, payload dto.StudentCreateRequest) (dto.StudentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.StudentResponse{}, err
	}

	student := models.Student{
		Name:  payload.Name,
		Email: payload.Email,
	}

	if err := s.students.Create(ctx, &student); err != nil {
		return dto.StudentResponse{}, err
	}

	s.logger.Info().Uint("student_id", student.ID).Msg("student registered")

	return dto.NewStudentResponse(student), nil
}

func (s *studentService) Update(ctx context.Context, id uint, payload dto.StudentUpdateRequest) (dto.StudentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.StudentResponse{}, err
	}

	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentResponse{}, ErrStudentNotFound
		}
		return dto.StudentResponse{}, err
	}

	if payload.Name != nil {
		student.Name = *payload.Name
	}
	if payload.Email != nil {
		student.Email = *payload.Email
	}

	if err := s.students.Update(ctx, &student); err != nil {
		return dto.StudentResponse{}, err
	}

	return dto.NewStudentResponse(student), nil
}
