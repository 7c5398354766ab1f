package dto

import (
	"time"

	"github.com/atrium-edu/atrium-go-api/internal/models"
)

// CourseCreateRequest describes the payload for creating a course.
type CourseCreateRequest struct {
	Title       string `json:"title" validate:"required,min=3"`
	Description string `json:"description"`
}

// CourseUpdateRequest describes a partial course update.
type CourseUpdateRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=3"`
	Description *string `json:"description"`
}

// EnrollmentRequest enrols a student into a course.
type EnrollmentRequest struct {
	StudentID uint `json:"student_id" validate:"required,gt=0"`
}

// CourseResponse is returned to API clients when viewing courses.
type CourseResponse struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewCourseResponse converts a Course model into a DTO.
func NewCourseResponse(model models.Course) CourseResponse {
	return CourseResponse{
		ID:          model.ID,
		Title:       model.Title,
		Description: model.Description,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

// NewCourseResponseSlice converts course models into DTOs.
func NewCourseResponseSlice(models []models.Course) []CourseResponse {
	responses := make([]CourseResponse, 0, len(models))
	for _, course := range models {
		responses = append(responses, NewCourseResponse(course))
	}

	return responses
}
