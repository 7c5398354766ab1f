package service

import (
	"errors"

	"github.com/atrium-edu/atrium-go-api/internal/models"
)

// ErrInvalidOverrideGrade indicates an override grade outside the effective maximum.
var ErrInvalidOverrideGrade = errors.New("override grade outside allowed range")

// ErrNoTextAvailable indicates a re-grade was requested without extracted text.
var ErrNoTextAvailable = errors.New("no extracted text available for grading")

// ErrRubricUnresolvable indicates the assignment backing a grading attempt is missing.
var ErrRubricUnresolvable = errors.New("assignment rubric cannot be resolved")

// ErrAutoGradeNotAllowed indicates the submission is not in a state that
// permits automatic grading (already graded, late, or flagged for resubmit).
var ErrAutoGradeNotAllowed = errors.New("submission state does not allow automatic grading")

// ErrGradeAlreadyPublished indicates a re-grade was requested for a
// submission whose grade is already published. Once graded, only an
// override changes the score; re-grading requires a resubmission first.
var ErrGradeAlreadyPublished = errors.New("grade already published; only an override can change it")

// applyAutoGrade publishes an automatic grading result directly. It only
// fires on a freshly submitted record: graded submissions are never re-graded
// automatically, and late/resubmit_required statuses are never clobbered.
func applyAutoGrade(submission *models.Submission, grade float64, feedback, analysis string) error {
	if submission.Status != models.SubmissionStatusSubmitted {
		return ErrAutoGradeNotAllowed
	}

	submission.Grade = &grade
	submission.Feedback = feedback
	submission.AIAnalysis = analysis
	submission.GradingMode = models.GradingModeAI
	submission.Status = models.SubmissionStatusGraded
	return nil
}

// applyDraftGrade records an AI grading result without publishing it. Status
// is left untouched; the instructor approves or overrides separately. On a
// graded submission the draft would be live immediately, so it is refused.
func applyDraftGrade(submission *models.Submission, grade float64, feedback, analysis string) error {
	if submission.Status == models.SubmissionStatusGraded {
		return ErrGradeAlreadyPublished
	}

	submission.Grade = &grade
	submission.Feedback = feedback
	submission.AIAnalysis = analysis
	submission.GradingMode = models.GradingModeAI
	return nil
}

// applyApprove publishes the current grade. It reports whether the status
// actually changed so callers can skip notifications on idempotent repeats.
func applyApprove(submission *models.Submission) bool {
	if submission.Status == models.SubmissionStatusGraded {
		return false
	}

	submission.Status = models.SubmissionStatusGraded
	return true
}

// applyOverride replaces the grade with an instructor's manual result and
// publishes it. The retained AI analysis is left in place for audit.
func applyOverride(submission *models.Submission, grade float64, feedback string) {
	submission.Grade = &grade
	submission.Feedback = feedback
	submission.GradingMode = models.GradingModeManual
	submission.Status = models.SubmissionStatusGraded
}
