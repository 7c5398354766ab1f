package dto

import (
	"time"

	"github.com/atrium-edu/atrium-go-api/internal/models"
)

// StudentCreateRequest describes the payload for registering a student profile.
type StudentCreateRequest struct {
	Name  string `json:"name" validate:"required,min=2"`
	Email string `json:"email" validate:"required,email"`
}

// StudentUpdateRequest describes a partial profile update.
type StudentUpdateRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=2"`
	Email *string `json:"email" validate:"omitempty,email"`
}

// StudentResponse is returned to API clients when viewing student profiles.
type StudentResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewStudentResponse converts a Student model into a DTO.
func NewStudentResponse(model models.Student) StudentResponse {
	return StudentResponse{
		ID:        model.ID,
		Name:      model.Name,
		Email:     model.Email,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

// NewStudentResponseSlice converts student models into DTOs.
func NewStudentResponseSlice(models []models.Student) []StudentResponse {
	responses := make([]StudentResponse, 0, len(models))
	for _, student := range models {
		responses = append(responses, NewStudentResponse(student))
	}

	return responses
}
