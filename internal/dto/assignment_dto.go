package dto

import (
	"time"

	"github.com/atrium-edu/atrium-go-api/internal/models"
)

// AssignmentFilter describes query string filters for listing assignments.
type AssignmentFilter struct {
	CourseID *uint  `query:"course_id"`
	Search   string `query:"search"`
	Sort     string `query:"sort"`
	Page     int    `query:"page"`
	PageSize int    `query:"page_size"`
}

// AssignmentQuestionPayload describes one rubric entry in create/update requests.
type AssignmentQuestionPayload struct {
	Text  string  `json:"text" validate:"required"`
	Marks float64 `json:"marks" validate:"gte=0"`
}

// AssignmentCreateRequest describes the payload for creating an assignment.
type AssignmentCreateRequest struct {
	CourseID      uint                        `json:"course_id" form:"course_id" validate:"required,gt=0"`
	Title         string                      `json:"title" form:"title" validate:"required,min=3"`
	Description   string                      `json:"description" form:"description"`
	MaxPoints     float64                     `json:"max_points" form:"max_points" validate:"gt=0"`
	ValuationMode string                      `json:"valuation_mode" form:"valuation_mode" validate:"omitempty,oneof=strict liberal"`
	DueDate       string                      `json:"due_date" form:"due_date" validate:"required"`
	Questions     []AssignmentQuestionPayload `json:"questions" validate:"omitempty,dive"`
}

// AssignmentUpdateRequest describes a partial assignment update.
type AssignmentUpdateRequest struct {
	Title         *string                     `json:"title" validate:"omitempty,min=3"`
	Description   *string                     `json:"description"`
	MaxPoints     *float64                    `json:"max_points" validate:"omitempty,gt=0"`
	ValuationMode *string                     `json:"valuation_mode" validate:"omitempty,oneof=strict liberal"`
	DueDate       *string                     `json:"due_date"`
	Questions     []AssignmentQuestionPayload `json:"questions" validate:"omitempty,dive"`
}

// AssignmentQuestionResponse serializes a rubric entry.
type AssignmentQuestionResponse struct {
	ID    uint    `json:"id"`
	Text  string  `json:"text"`
	Marks float64 `json:"marks"`
}

// AssignmentResponse is returned to API clients when viewing assignments.
type AssignmentResponse struct {
	ID            uint                         `json:"id"`
	CourseID      uint                         `json:"course_id"`
	Title         string                       `json:"title"`
	Description   string                       `json:"description"`
	MaxPoints     float64                      `json:"max_points"`
	ValuationMode string                       `json:"valuation_mode"`
	DueDate       time.Time                    `json:"due_date"`
	FileURL       string                       `json:"file_url,omitempty"`
	Questions     []AssignmentQuestionResponse `json:"questions"`
	CreatedAt     time.Time                    `json:"created_at"`
	UpdatedAt     time.Time                    `json:"updated_at"`
}

// NewAssignmentResponse converts an Assignment model into a DTO.
func NewAssignmentResponse(model models.Assignment) AssignmentResponse {
	response := AssignmentResponse{
		ID:            model.ID,
		CourseID:      model.CourseID,
		Title:         model.Title,
		Description:   model.Description,
		MaxPoints:     model.MaxPoints,
		ValuationMode: model.ValuationMode,
		DueDate:       model.DueDate,
		FileURL:       model.FileURL,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}

	if len(model.Questions) > 0 {
		questions := make([]AssignmentQuestionResponse, 0, len(model.Questions))
		for _, question := range model.Questions {
			questions = append(questions, AssignmentQuestionResponse{
				ID:    question.ID,
				Text:  question.Text,
				Marks: question.Marks,
			})
		}
		response.Questions = questions
	}

	return response
}

// NewAssignmentResponseSlice converts assignment models into DTOs.
func NewAssignmentResponseSlice(models []models.Assignment) []AssignmentResponse {
	responses := make([]AssignmentResponse, 0, len(models))
	for _, assignment := range models {
		responses = append(responses, NewAssignmentResponse(assignment))
	}

	return responses
}
