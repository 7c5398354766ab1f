package dto

import (
	"time"

	"github.com/atrium-edu/atrium-go-api/internal/models"
)

// NotificationRelated points a notification at the records it concerns.
type NotificationRelated struct {
	SubmissionID uint `json:"submission_id,omitempty"`
	AssignmentID uint `json:"assignment_id,omitempty"`
}

// NotificationCreateRequest describes a notification to publish.
type NotificationCreateRequest struct {
	UserID   string              `json:"user_id" validate:"required"`
	Type     string              `json:"type" validate:"required"`
	Title    string              `json:"title" validate:"omitempty,max=255"`
	Message  string              `json:"message" validate:"required"`
	Severity string              `json:"severity" validate:"omitempty,oneof=info warning critical"`
	Related  NotificationRelated `json:"related"`
}

// NotificationResponse serializes a notification for API clients and SSE streams.
type NotificationResponse struct {
	ID        uint                   `json:"id"`
	UserID    string                 `json:"user_id"`
	Type      string                 `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Severity  string                 `json:"severity"`
	Related   map[string]interface{} `json:"related,omitempty"`
	Read      bool                   `json:"read"`
	CreatedAt time.Time              `json:"created_at"`
}

// NewNotificationResponse converts a Notification model into a DTO.
func NewNotificationResponse(model models.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        model.ID,
		UserID:    model.UserID,
		Type:      model.Type,
		Title:     model.Title,
		Message:   model.Message,
		Severity:  model.Severity,
		Related:   model.Related,
		Read:      model.Read,
		CreatedAt: model.CreatedAt,
	}
}

// NewNotificationResponseSlice converts notification models into DTOs.
func NewNotificationResponseSlice(models []models.Notification) []NotificationResponse {
	responses := make([]NotificationResponse, 0, len(models))
	for _, notification := range models {
		responses = append(responses, NewNotificationResponse(notification))
	}

	return responses
}
