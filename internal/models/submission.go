package models

import "time"

// Submission is one student's attempt at one assignment.
type Submission struct {
	ID            uint             `gorm:"primaryKey" json:"id"`
	AssignmentID  uint             `gorm:"not null;index" json:"assignment_id"`
	CourseID      uint             `gorm:"not null;index" json:"course_id"`
	StudentID     uint             `gorm:"not null;index" json:"student_id"`
	Files         []SubmissionFile `gorm:"constraint:OnDelete:CASCADE" json:"files"`
	ExtractedText string           `gorm:"type:text" json:"extracted_text"`
	Grade         *float64         `json:"grade"`
	GradingMode   string           `gorm:"size:16" json:"grading_mode"`
	Feedback      string           `gorm:"type:text" json:"feedback"`
	AIAnalysis    string           `gorm:"type:text" json:"ai_analysis"`
	Status        string           `gorm:"size:32;not null" json:"status"`
	SubmittedAt   time.Time        `gorm:"not null" json:"submitted_at"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
	Assignment    Assignment       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"assignment"`
	Student       Student          `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
}

// SubmissionFile describes one stored artifact attached to a submission.
// The file list is fixed at creation time; replacing files means replacing
// the whole submission.
type SubmissionFile struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	SubmissionID uint   `gorm:"not null;index" json:"submission_id"`
	Position     int    `gorm:"not null" json:"position"`
	URL          string `gorm:"size:512;not null" json:"url"`
	OriginalName string `gorm:"size:255" json:"original_name"`
	MediaType    string `gorm:"size:128" json:"media_type"`
}

const (
	// SubmissionStatusSubmitted indicates the submission has been uploaded but not graded.
	SubmissionStatusSubmitted = "submitted"
	// SubmissionStatusLate indicates the submission arrived after the due date.
	SubmissionStatusLate = "late"
	// SubmissionStatusGraded indicates a published grade exists.
	SubmissionStatusGraded = "graded"
	// SubmissionStatusResubmitRequired indicates the student must upload again.
	SubmissionStatusResubmitRequired = "resubmit_required"
)

const (
	// GradingModeAI records that the current grade was produced by the automated grader.
	GradingModeAI = "ai"
	// GradingModeManual records that an instructor set the current grade.
	GradingModeManual = "manual"
)

// ExtractionPlaceholder is stored as extracted text when extraction fails.
// It marks the submission for manual review and is never fed to the grader.
const ExtractionPlaceholder = "[text extraction failed: manual review required]"

// IsGraded reports whether the submission carries a published grade.
func (s Submission) IsGraded() bool {
	return s.Status == SubmissionStatusGraded
}

// HasExtractedText reports whether usable extracted text is available for grading.
func (s Submission) HasExtractedText() bool {
	return s.ExtractedText != "" && s.ExtractedText != ExtractionPlaceholder
}
