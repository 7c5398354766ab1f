package ai

import (
	"context"
	"fmt"
)

// GradingQuestion carries one rubric entry forwarded to the model.
type GradingQuestion struct {
	Text  string
	Marks float64
}

// GradingInput contains everything needed to grade one submission.
type GradingInput struct {
	AssignmentTitle       string
	AssignmentDescription string
	MaxPoints             float64
	Questions             []GradingQuestion
	Persona               string
	SubmissionText        string
}

// GradingResult is the structured outcome returned by the grading model.
// Grade is not clamped here; the caller validates it against the effective
// maximum before persisting.
type GradingResult struct {
	Grade    float64                `json:"grade"`
	Feedback string                 `json:"feedback"`
	Analysis string                 `json:"analysis"`
	Raw      map[string]interface{} `json:"raw,omitempty"`
}

// Grader describes an AI model capable of grading submission text.
type Grader interface {
	Grade(ctx context.Context, input GradingInput) (GradingResult, error)
}

// Failure is returned for any grading error, whether the transport call
// failed or the model produced a semantically empty response.
type Failure struct {
	Reason string
	Err    error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("grading failed: %s: %v", f.Reason, f.Err)
	}
	return fmt.Sprintf("grading failed: %s", f.Reason)
}

func (f *Failure) Unwrap() error {
	return f.Err
}
