package models

import "time"

// Course groups assignments and enrolled students.
type Course struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	Title       string       `gorm:"size:255;not null" json:"title"`
	Description string       `gorm:"type:text" json:"description"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	Assignments []Assignment `json:"-"`
}

// Enrollment links a student to a course.
type Enrollment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CourseID  uint      `gorm:"not null;uniqueIndex:idx_enrollment_course_student" json:"course_id"`
	StudentID uint      `gorm:"not null;uniqueIndex:idx_enrollment_course_student" json:"student_id"`
	CreatedAt time.Time `json:"created_at"`
}
