package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atrium-edu/atrium-go-api/internal/models"
)

func TestApplyAutoGradePublishesFromSubmitted(t *testing.T) {
	submission := models.Submission{Status: models.SubmissionStatusSubmitted}

	err := applyAutoGrade(&submission, 18, "good work", "analysis")
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusGraded, submission.Status)
	require.Equal(t, models.GradingModeAI, submission.GradingMode)
	require.NotNil(t, submission.Grade)
	require.Equal(t, 18.0, *submission.Grade)
	require.Equal(t, "good work", submission.Feedback)
	require.Equal(t, "analysis", submission.AIAnalysis)
}

func TestApplyAutoGradeNeverClobbersProtectedStatuses(t *testing.T) {
	for _, status := range []string{
		models.SubmissionStatusLate,
		models.SubmissionStatusGraded,
		models.SubmissionStatusResubmitRequired,
	} {
		submission := models.Submission{Status: status}
		err := applyAutoGrade(&submission, 10, "fb", "an")
		require.ErrorIs(t, err, ErrAutoGradeNotAllowed, "status %s", status)
		require.Equal(t, status, submission.Status)
		require.Nil(t, submission.Grade)
	}
}

func TestApplyDraftGradeLeavesStatusUntouched(t *testing.T) {
	submission := models.Submission{Status: models.SubmissionStatusSubmitted}

	err := applyDraftGrade(&submission, 12, "draft feedback", "draft analysis")
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusSubmitted, submission.Status)
	require.Equal(t, models.GradingModeAI, submission.GradingMode)
	require.Equal(t, 12.0, *submission.Grade)
}

func TestApplyDraftGradeRejectsPublishedGrade(t *testing.T) {
	published := 20.0
	submission := models.Submission{
		Status:      models.SubmissionStatusGraded,
		Grade:       &published,
		GradingMode: models.GradingModeManual,
		Feedback:    "final feedback",
	}

	err := applyDraftGrade(&submission, 5, "new draft", "new analysis")
	require.ErrorIs(t, err, ErrGradeAlreadyPublished)
	require.Equal(t, 20.0, *submission.Grade)
	require.Equal(t, models.GradingModeManual, submission.GradingMode)
	require.Equal(t, "final feedback", submission.Feedback)
}

func TestApplyApproveIsIdempotent(t *testing.T) {
	grade := 15.0
	submission := models.Submission{Status: models.SubmissionStatusSubmitted, Grade: &grade}

	require.True(t, applyApprove(&submission))
	require.Equal(t, models.SubmissionStatusGraded, submission.Status)

	require.False(t, applyApprove(&submission))
	require.Equal(t, models.SubmissionStatusGraded, submission.Status)
}

func TestApplyOverrideSetsManualModeAndKeepsAnalysis(t *testing.T) {
	old := 20.0
	submission := models.Submission{
		Status:      models.SubmissionStatusGraded,
		Grade:       &old,
		GradingMode: models.GradingModeAI,
		AIAnalysis:  "model reasoning",
	}

	applyOverride(&submission, 22, "instructor feedback")
	require.Equal(t, models.SubmissionStatusGraded, submission.Status)
	require.Equal(t, models.GradingModeManual, submission.GradingMode)
	require.Equal(t, 22.0, *submission.Grade)
	require.Equal(t, "instructor feedback", submission.Feedback)
	require.Equal(t, "model reasoning", submission.AIAnalysis)
}
