package service

import (
	"context"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/atrium-edu/atrium-go-api/internal/dto"
	"github.com/atrium-edu/atrium-go-api/internal/models"
	"github.com/atrium-edu/atrium-go-api/pkg/ai"
)

func rubricAssignment() models.Assignment {
	return models.Assignment{
		ID:        2,
		CourseID:  1,
		Title:     "Thermodynamics Essay",
		MaxPoints: 100,
		Questions: []models.AssignmentQuestion{
			{Text: "Define entropy", Marks: 10},
			{Text: "Derive the formula", Marks: 15},
		},
	}
}

func submittedWork(assignment models.Assignment) models.Submission {
	return models.Submission{
		ID:            1,
		AssignmentID:  assignment.ID,
		CourseID:      assignment.CourseID,
		StudentID:     3,
		ExtractedText: "entropy measures disorder",
		Status:        models.SubmissionStatusSubmitted,
	}
}

func newGradingFixture(grader *fakeGrader, notifier *fakeNotifier, submissions ...models.Submission) (GradingService, *fakeSubmissionRepo) {
	assignment := rubricAssignment()
	subRepo := newFakeSubmissionRepo(submissions...)
	assignmentRepo := newFakeAssignmentRepo(assignment)
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewGradingService(subRepo, assignmentRepo, grader, notifier, validate, 0, testLogger())
	return svc, subRepo
}

func TestHandleUploadGradesAgainstQuestionSum(t *testing.T) {
	assignment := rubricAssignment()
	grader := &fakeGrader{result: ai.GradingResult{Grade: 20, Feedback: "solid", Analysis: "covers both questions"}}
	notifier := &fakeNotifier{}
	svc, repo := newGradingFixture(grader, notifier, submittedWork(assignment))

	result := svc.HandleUpload(context.Background(), submittedWork(assignment), assignment)

	require.Equal(t, 1, grader.calls)
	require.Equal(t, 25.0, grader.inputs[0].MaxPoints)
	require.Equal(t, models.SubmissionStatusGraded, result.Status)
	require.Equal(t, models.GradingModeAI, result.GradingMode)
	require.Equal(t, 20.0, *result.Grade)
	require.Equal(t, 1, repo.updateCalls)

	stored := repo.submissions[1]
	require.Equal(t, models.SubmissionStatusGraded, stored.Status)

	require.Len(t, notifier.published, 1)
	require.Equal(t, "3", notifier.published[0].UserID)
}

func TestHandleUploadClampsOutOfRangeModelGrade(t *testing.T) {
	assignment := rubricAssignment()
	grader := &fakeGrader{result: ai.GradingResult{Grade: 30, Feedback: "generous"}}
	svc, _ := newGradingFixture(grader, &fakeNotifier{}, submittedWork(assignment))

	result := svc.HandleUpload(context.Background(), submittedWork(assignment), assignment)

	require.Equal(t, 25.0, *result.Grade)
}

func TestHandleUploadSkipsWithoutUsableText(t *testing.T) {
	assignment := rubricAssignment()
	grader := &fakeGrader{result: ai.GradingResult{Grade: 20}}
	notifier := &fakeNotifier{}
	svc, repo := newGradingFixture(grader, notifier, submittedWork(assignment))

	for _, text := range []string{"", models.ExtractionPlaceholder} {
		submission := submittedWork(assignment)
		submission.ExtractedText = text

		result := svc.HandleUpload(context.Background(), submission, assignment)

		require.Equal(t, models.SubmissionStatusSubmitted, result.Status)
		require.Nil(t, result.Grade)
	}

	require.Zero(t, grader.calls)
	require.Zero(t, repo.updateCalls)
	require.Empty(t, notifier.published)
}

func TestHandleUploadSkipsNonSubmittedStatuses(t *testing.T) {
	assignment := rubricAssignment()
	grader := &fakeGrader{result: ai.GradingResult{Grade: 20}}
	svc, repo := newGradingFixture(grader, &fakeNotifier{}, submittedWork(assignment))

	submission := submittedWork(assignment)
	submission.Status = models.SubmissionStatusLate

	result := svc.HandleUpload(context.Background(), submission, assignment)

	require.Equal(t, models.SubmissionStatusLate, result.Status)
	require.Zero(t, grader.calls)
	require.Zero(t, repo.updateCalls)
}

func TestHandleUploadSwallowsGraderFailure(t *testing.T) {
	assignment := rubricAssignment()
	grader := &fakeGrader{err: &ai.Failure{Reason: "grade field missing"}}
	notifier := &fakeNotifier{}
	svc, repo := newGradingFixture(grader, notifier, submittedWork(assignment))

	result := svc.HandleUpload(context.Background(), submittedWork(assignment), assignment)

	require.Equal(t, models.SubmissionStatusSubmitted, result.Status)
	require.Nil(t, result.Grade)
	require.Zero(t, repo.updateCalls)
	require.Empty(t, notifier.published)
}

func TestHandleUploadNotificationFailureDoesNotRollBack(t *testing.T) {
	assignment := rubricAssignment()
	grader := &fakeGrader{result: ai.GradingResult{Grade: 20}}
	notifier := &fakeNotifier{fail: true}
	svc, repo := newGradingFixture(grader, notifier, submittedWork(assignment))

	result := svc.HandleUpload(context.Background(), submittedWork(assignment), assignment)

	require.Equal(t, models.SubmissionStatusGraded, result.Status)
	require.Equal(t, models.SubmissionStatusGraded, repo.submissions[1].Status)
	require.Len(t, notifier.published, 1)
}

func TestRegradeWithAIRecordsDraftWithoutPublishing(t *testing.T) {
	assignment := rubricAssignment()
	grader := &fakeGrader{result: ai.GradingResult{Grade: 17, Feedback: "decent", Analysis: "partial credit"}}
	notifier := &fakeNotifier{}
	svc, repo := newGradingFixture(grader, notifier, submittedWork(assignment))

	result, err := svc.RegradeWithAI(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusSubmitted, result.Status)
	require.Equal(t, 17.0, *result.Grade)
	require.Equal(t, models.GradingModeAI, result.GradingMode)
	require.Equal(t, 1, repo.updateCalls)
	require.Empty(t, notifier.published, "drafts must not notify the student")
}

func TestRegradeWithAIRequiresExtractedText(t *testing.T) {
	assignment := rubricAssignment()
	grader := &fakeGrader{}
	submission := submittedWork(assignment)
	submission.ExtractedText = models.ExtractionPlaceholder
	svc, _ := newGradingFixture(grader, &fakeNotifier{}, submission)

	_, err := svc.RegradeWithAI(context.Background(), 1)
	require.ErrorIs(t, err, ErrNoTextAvailable)
	require.Zero(t, grader.calls)
}

func TestRegradeWithAIRejectsPublishedGrade(t *testing.T) {
	assignment := rubricAssignment()
	grader := &fakeGrader{result: ai.GradingResult{Grade: 5, Feedback: "harsher pass"}}
	notifier := &fakeNotifier{}
	graded := submittedWork(assignment)
	grade := 20.0
	graded.Grade = &grade
	graded.GradingMode = models.GradingModeManual
	graded.Status = models.SubmissionStatusGraded
	svc, repo := newGradingFixture(grader, notifier, graded)

	_, err := svc.RegradeWithAI(context.Background(), 1)
	require.ErrorIs(t, err, ErrGradeAlreadyPublished)
	require.Zero(t, grader.calls)
	require.Zero(t, repo.updateCalls)
	require.Empty(t, notifier.published)

	stored := repo.submissions[1]
	require.Equal(t, 20.0, *stored.Grade)
	require.Equal(t, models.GradingModeManual, stored.GradingMode)
	require.Equal(t, models.SubmissionStatusGraded, stored.Status)
}

func TestRegradeWithAIPropagatesGraderFailure(t *testing.T) {
	assignment := rubricAssignment()
	grader := &fakeGrader{err: &ai.Failure{Reason: "invalid response"}}
	svc, repo := newGradingFixture(grader, &fakeNotifier{}, submittedWork(assignment))

	_, err := svc.RegradeWithAI(context.Background(), 1)
	var failure *ai.Failure
	require.ErrorAs(t, err, &failure)
	require.Zero(t, repo.updateCalls)
}

func TestApprovePublishesDraftAndIsIdempotent(t *testing.T) {
	assignment := rubricAssignment()
	notifier := &fakeNotifier{}
	draft := submittedWork(assignment)
	grade := 17.0
	draft.Grade = &grade
	draft.GradingMode = models.GradingModeAI
	svc, repo := newGradingFixture(&fakeGrader{}, notifier, draft)

	result, err := svc.Approve(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusGraded, result.Status)
	require.Equal(t, 1, repo.updateCalls)
	require.Len(t, notifier.published, 1)

	// Second approval is a no-op: no extra write, no duplicate notification.
	result, err = svc.Approve(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusGraded, result.Status)
	require.Equal(t, 1, repo.updateCalls)
	require.Len(t, notifier.published, 1)
}

func TestApproveWithoutDraftFails(t *testing.T) {
	assignment := rubricAssignment()
	svc, _ := newGradingFixture(&fakeGrader{}, &fakeNotifier{}, submittedWork(assignment))

	_, err := svc.Approve(context.Background(), 1)
	require.ErrorIs(t, err, ErrNothingToApprove)
}

func TestOverrideRejectsGradeOutsideEffectiveMaximum(t *testing.T) {
	assignment := rubricAssignment()
	graded := submittedWork(assignment)
	grade := 20.0
	graded.Grade = &grade
	graded.GradingMode = models.GradingModeAI
	graded.Status = models.SubmissionStatusGraded
	svc, repo := newGradingFixture(&fakeGrader{}, &fakeNotifier{}, graded)

	over := 30.0
	_, err := svc.Override(context.Background(), 1, dto.OverrideGradeRequest{Grade: &over, Feedback: "too generous"})
	require.ErrorIs(t, err, ErrInvalidOverrideGrade)

	stored := repo.submissions[1]
	require.Equal(t, 20.0, *stored.Grade, "stored grade must remain untouched")
	require.Equal(t, models.GradingModeAI, stored.GradingMode)
	require.Zero(t, repo.updateCalls)
}

func TestOverrideReplacesGradeAndNotifies(t *testing.T) {
	assignment := rubricAssignment()
	notifier := &fakeNotifier{}
	graded := submittedWork(assignment)
	grade := 20.0
	graded.Grade = &grade
	graded.GradingMode = models.GradingModeAI
	graded.AIAnalysis = "model reasoning"
	graded.Status = models.SubmissionStatusGraded
	svc, repo := newGradingFixture(&fakeGrader{}, notifier, graded)

	newGrade := 22.0
	result, err := svc.Override(context.Background(), 1, dto.OverrideGradeRequest{Grade: &newGrade, Feedback: "recounted marks"})
	require.NoError(t, err)
	require.Equal(t, 22.0, *result.Grade)
	require.Equal(t, models.GradingModeManual, result.GradingMode)
	require.Equal(t, models.SubmissionStatusGraded, result.Status)
	require.Equal(t, "model reasoning", result.AIAnalysis)
	require.Equal(t, 1, repo.updateCalls)
	require.Len(t, notifier.published, 1)
}

func TestGradingOperationsUnknownSubmission(t *testing.T) {
	svc, _ := newGradingFixture(&fakeGrader{}, &fakeNotifier{})

	_, err := svc.RegradeWithAI(context.Background(), 99)
	require.ErrorIs(t, err, ErrSubmissionNotFound)

	_, err = svc.Approve(context.Background(), 99)
	require.ErrorIs(t, err, ErrSubmissionNotFound)

	grade := 5.0
	_, err = svc.Override(context.Background(), 99, dto.OverrideGradeRequest{Grade: &grade, Feedback: "missing"})
	require.ErrorIs(t, err, ErrSubmissionNotFound)
}

func TestHandleUploadPersistFailureLeavesInputState(t *testing.T) {
	assignment := rubricAssignment()
	grader := &fakeGrader{result: ai.GradingResult{Grade: 20}}
	notifier := &fakeNotifier{}
	svc, repo := newGradingFixture(grader, notifier, submittedWork(assignment))
	repo.updateErr = errors.New("connection reset")

	result := svc.HandleUpload(context.Background(), submittedWork(assignment), assignment)

	require.Equal(t, models.SubmissionStatusSubmitted, result.Status)
	require.Nil(t, result.Grade)
	require.Empty(t, notifier.published)
}
