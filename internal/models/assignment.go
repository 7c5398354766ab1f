package models

import "time"

// Assignment defines a piece of coursework students submit work against.
type Assignment struct {
	ID            uint                 `gorm:"primaryKey" json:"id"`
	CourseID      uint                 `gorm:"not null;index" json:"course_id"`
	Title         string               `gorm:"size:255;not null" json:"title"`
	Description   string               `gorm:"type:text" json:"description"`
	MaxPoints     float64              `gorm:"not null;default:100" json:"max_points"`
	ValuationMode string               `gorm:"size:16" json:"valuation_mode"`
	DueDate       time.Time            `gorm:"not null" json:"due_date"`
	FileURL       string               `gorm:"size:512" json:"file_url"`
	Questions     []AssignmentQuestion `gorm:"constraint:OnDelete:CASCADE" json:"questions"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
	Submissions   []Submission         `json:"-"`
}

// AssignmentQuestion is a single rubric entry with a marks weight.
type AssignmentQuestion struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	AssignmentID uint    `gorm:"not null;index" json:"assignment_id"`
	Position     int     `gorm:"not null" json:"position"`
	Text         string  `gorm:"type:text;not null" json:"text"`
	Marks        float64 `gorm:"not null" json:"marks"`
}

const (
	// ValuationStrict selects the strict grading persona.
	ValuationStrict = "strict"
	// ValuationLiberal selects the lenient grading persona. It is the default.
	ValuationLiberal = "liberal"
)

// IsPastDue returns true when the assignment deadline has already passed.
func (a Assignment) IsPastDue(reference time.Time) bool {
	return reference.After(a.DueDate)
}
