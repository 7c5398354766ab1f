package dto

// OverrideGradeRequest carries an instructor's manual grade for a submission.
type OverrideGradeRequest struct {
	Grade    *float64 `json:"grade" validate:"required,gte=0"`
	Feedback string   `json:"feedback" validate:"required,min=3"`
}
