package dto

import (
	"time"

	"github.com/atrium-edu/atrium-go-api/internal/models"
)

// SubmissionCreateRequest describes the multipart payload for submission upload.
type SubmissionCreateRequest struct {
	AssignmentID uint `form:"assignment_id" validate:"required,gt=0"`
	StudentID    uint `form:"student_id" validate:"required,gt=0"`
}

// SubmissionFilter describes query string filters for listing submissions.
type SubmissionFilter struct {
	AssignmentID *uint   `query:"assignment_id"`
	CourseID     *uint   `query:"course_id"`
	StudentID    *uint   `query:"student_id"`
	Status       *string `query:"status" validate:"omitempty,oneof=submitted late graded resubmit_required"`
}

// SubmissionFileResponse serializes one stored artifact descriptor.
type SubmissionFileResponse struct {
	URL          string `json:"url"`
	OriginalName string `json:"original_name"`
	MediaType    string `json:"media_type"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID            uint                     `json:"id"`
	AssignmentID  uint                     `json:"assignment_id"`
	CourseID      uint                     `json:"course_id"`
	StudentID     uint                     `json:"student_id"`
	Files         []SubmissionFileResponse `json:"files"`
	ExtractedText string                   `json:"extracted_text,omitempty"`
	Status        string                   `json:"status"`
	Grade         *float64                 `json:"grade"`
	GradingMode   string                   `json:"grading_mode,omitempty"`
	Feedback      string                   `json:"feedback"`
	AIAnalysis    string                   `json:"ai_analysis,omitempty"`
	SubmittedAt   time.Time                `json:"submitted_at"`
	CreatedAt     time.Time                `json:"created_at"`
	UpdatedAt     time.Time                `json:"updated_at"`
	Assignment    AssignmentLite           `json:"assignment"`
	Student       StudentLite              `json:"student"`
}

// AssignmentLite summarizes an assignment in submission responses.
type AssignmentLite struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	MaxPoints float64   `json:"max_points"`
	DueDate   time.Time `json:"due_date"`
}

// StudentLite summarizes a student without exposing full profile data.
type StudentLite struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	response := SubmissionResponse{
		ID:            model.ID,
		AssignmentID:  model.AssignmentID,
		CourseID:      model.CourseID,
		StudentID:     model.StudentID,
		ExtractedText: model.ExtractedText,
		Status:        model.Status,
		Grade:         model.Grade,
		GradingMode:   model.GradingMode,
		Feedback:      model.Feedback,
		AIAnalysis:    model.AIAnalysis,
		SubmittedAt:   model.SubmittedAt,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}

	if len(model.Files) > 0 {
		files := make([]SubmissionFileResponse, 0, len(model.Files))
		for _, file := range model.Files {
			files = append(files, SubmissionFileResponse{
				URL:          file.URL,
				OriginalName: file.OriginalName,
				MediaType:    file.MediaType,
			})
		}
		response.Files = files
	}

	if model.Assignment.ID != 0 {
		response.Assignment = AssignmentLite{
			ID:        model.Assignment.ID,
			Title:     model.Assignment.Title,
			MaxPoints: model.Assignment.MaxPoints,
			DueDate:   model.Assignment.DueDate,
		}
	}

	if model.Student.ID != 0 {
		response.Student = StudentLite{
			ID:    model.Student.ID,
			Name:  model.Student.Name,
			Email: model.Student.Email,
		}
	}

	return response
}

// NewSubmissionResponseSlice converts submission models into DTOs.
func NewSubmissionResponseSlice(models []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(models))
	for _, submission := range models {
		responses = append(responses, NewSubmissionResponse(submission))
	}

	return responses
}
