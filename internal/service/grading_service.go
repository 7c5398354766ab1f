package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/atrium-edu/atrium-go-api/internal/dto"
	"github.com/atrium-edu/atrium-go-api/internal/models"
	"github.com/atrium-edu/atrium-go-api/internal/observability"
	"github.com/atrium-edu/atrium-go-api/internal/repository"
	"github.com/atrium-edu/atrium-go-api/pkg/ai"
)

// ErrNothingToApprove indicates an approval was requested for a submission
// that has no grade draft to publish.
var ErrNothingToApprove = errors.New("submission has no grade to approve")

// GradeNotifier is the narrow notification sink the grading pipeline emits
// into. Failures are logged and swallowed; they never affect grading state.
type GradeNotifier interface {
	Publish(ctx context.Context, payload dto.NotificationCreateRequest) (dto.NotificationResponse, error)
}

// GradingService drives the submission grading pipeline: the automatic pass
// after upload, faculty-triggered re-grades, approval and manual override.
type GradingService interface {
	HandleUpload(ctx context.Context, submission models.Submission, assignment models.Assignment) models.Submission
	RegradeWithAI(ctx context.Context, submissionID uint) (dto.SubmissionResponse, error)
	Approve(ctx context.Context, submissionID uint) (dto.SubmissionResponse, error)
	Override(ctx context.Context, submissionID uint, payload dto.OverrideGradeRequest) (dto.SubmissionResponse, error)
}

type gradingService struct {
	submissions repository.SubmissionRepository
	assignments repository.AssignmentRepository
	grader      ai.Grader
	notifier    GradeNotifier
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
	timeout     time.Duration
}

// NewGradingService constructs the grading pipeline service.
func NewGradingService(subRepo repository.SubmissionRepository, assignmentRepo repository.AssignmentRepository, grader ai.Grader, notifier GradeNotifier, validate *validator.Validate, timeout time.Duration, logger zerolog.Logger) GradingService {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &gradingService{
		submissions: subRepo,
		assignments: assignmentRepo,
		grader:      grader,
		notifier:    notifier,
		validator:   validate,
		logger:      logger.With().Str("component", "grading_service").Logger(),
		tracer:      otel.Tracer("github.com/atrium-edu/atrium-go-api/internal/service/grading"),
		timeout:     timeout,
	}
}

// HandleUpload attempts one automatic grading pass on a freshly created
// submission. Every failure is logged and swallowed: the upload has already
// succeeded, grading is an enhancement rather than a precondition. The
// returned submission reflects persisted state.
func (s *gradingService) HandleUpload(ctx context.Context, submission models.Submission, assignment models.Assignment) models.Submission {
	ctx, span := s.tracer.Start(ctx, "grading.auto", trace.WithAttributes(
		attribute.Int64("grading.submission_id", int64(submission.ID)),
	))
	defer span.End()

	logger := s.logger.With().Uint("submission_id", submission.ID).Logger()

	if !submission.HasExtractedText() {
		observability.GradingAttempts().WithLabelValues("upload", "skipped").Inc()
		logger.Info().Msg("automatic grading skipped: no extracted text")
		return submission
	}

	if submission.Status != models.SubmissionStatusSubmitted {
		observability.GradingAttempts().WithLabelValues("upload", "skipped").Inc()
		logger.Info().Str("status", submission.Status).Msg("automatic grading skipped: status not eligible")
		return submission
	}

	effectiveMax, persona := ResolveRubric(assignment)
	if effectiveMax <= 0 {
		observability.GradingAttempts().WithLabelValues("upload", "skipped").Inc()
		logger.Warn().Msg("automatic grading skipped: effective maximum is not positive")
		return submission
	}

	result, err := s.invokeGrader(ctx, assignment, effectiveMax, persona, submission.ExtractedText)
	if err != nil {
		observability.GradingAttempts().WithLabelValues("upload", "failure").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "grading failed")
		logger.Warn().Err(err).Msg("automatic grading failed; submission left pending")
		return submission
	}

	updated := submission
	grade := clampGrade(result.Grade, effectiveMax)
	if err := applyAutoGrade(&updated, grade, result.Feedback, result.Analysis); err != nil {
		observability.GradingAttempts().WithLabelValues("upload", "skipped").Inc()
		logger.Info().Err(err).Msg("automatic grading not applied")
		return submission
	}

	if err := s.submissions.Update(ctx, &updated); err != nil {
		observability.GradingAttempts().WithLabelValues("upload", "failure").Inc()
		span.RecordError(err)
		logger.Error().Err(err).Msg("failed to persist automatic grade")
		return submission
	}

	observability.GradingAttempts().WithLabelValues("upload", "success").Inc()
	span.SetAttributes(attribute.Float64("grading.grade", grade))
	logger.Info().Float64("grade", grade).Msg("submission graded automatically")

	s.notifyStudent(ctx, updated, "Assignment graded",
		fmt.Sprintf("Your submission for %q has been graded: %g/%g.", assignment.Title, grade, effectiveMax))

	return updated
}

// RegradeWithAI produces a fresh AI grading draft for a submission. The
// draft is not published: status stays untouched until the instructor
// approves or overrides.
func (s *gradingService) RegradeWithAI(ctx context.Context, submissionID uint) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "grading.regrade", trace.WithAttributes(
		attribute.Int64("grading.submission_id", int64(submissionID)),
	))
	defer span.End()

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	// A published grade only moves via override; a fresh AI pass would go
	// live without an approve step. Request-resubmission unlocks re-grading.
	if submission.IsGraded() {
		observability.GradingAttempts().WithLabelValues("regrade", "skipped").Inc()
		return dto.SubmissionResponse{}, ErrGradeAlreadyPublished
	}

	if !submission.HasExtractedText() {
		observability.GradingAttempts().WithLabelValues("regrade", "skipped").Inc()
		return dto.SubmissionResponse{}, ErrNoTextAvailable
	}

	assignment, err := s.resolveAssignment(ctx, submission.AssignmentID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	effectiveMax, persona := ResolveRubric(assignment)
	if effectiveMax <= 0 {
		return dto.SubmissionResponse{}, ErrRubricUnresolvable
	}

	result, err := s.invokeGrader(ctx, assignment, effectiveMax, persona, submission.ExtractedText)
	if err != nil {
		observability.GradingAttempts().WithLabelValues("regrade", "failure").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "grading failed")
		return dto.SubmissionResponse{}, err
	}

	if err := applyDraftGrade(&submission, clampGrade(result.Grade, effectiveMax), result.Feedback, result.Analysis); err != nil {
		observability.GradingAttempts().WithLabelValues("regrade", "skipped").Inc()
		return dto.SubmissionResponse{}, err
	}

	if err := s.submissions.Update(ctx, &submission); err != nil {
		observability.GradingAttempts().WithLabelValues("regrade", "failure").Inc()
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}

	observability.GradingAttempts().WithLabelValues("regrade", "success").Inc()
	s.logger.Info().Uint("submission_id", submission.ID).Msg("grading draft recorded")

	return dto.NewSubmissionResponse(submission), nil
}

// Approve publishes the current grade draft. Approving an already graded
// submission is a no-op success.
func (s *gradingService) Approve(ctx context.Context, submissionID uint) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	if submission.Grade == nil {
		return dto.SubmissionResponse{}, ErrNothingToApprove
	}

	if !applyApprove(&submission) {
		return dto.NewSubmissionResponse(submission), nil
	}

	if err := s.submissions.Update(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().Uint("submission_id", submission.ID).Msg("grade approved")

	s.notifyStudent(ctx, submission, "Grade published",
		fmt.Sprintf("Your grade for %q is now available: %g.", submission.Assignment.Title, *submission.Grade))

	return dto.NewSubmissionResponse(submission), nil
}

// Override replaces the grade with an instructor's manual result and
// publishes it. Grades outside [0, effective maximum] are rejected and the
// submission is left unchanged.
func (s *gradingService) Override(ctx context.Context, submissionID uint, payload dto.OverrideGradeRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	assignment, err := s.resolveAssignment(ctx, submission.AssignmentID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	effectiveMax, _ := ResolveRubric(assignment)
	grade := *payload.Grade
	if grade < 0 || grade > effectiveMax {
		return dto.SubmissionResponse{}, fmt.Errorf("%w: %g not in [0, %g]", ErrInvalidOverrideGrade, grade, effectiveMax)
	}

	applyOverride(&submission, grade, payload.Feedback)

	if err := s.submissions.Update(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().Uint("submission_id", submission.ID).Float64("grade", grade).Msg("grade overridden")

	s.notifyStudent(ctx, submission, "Grade updated",
		fmt.Sprintf("Your grade for %q has been set by your instructor: %g/%g.", assignment.Title, grade, effectiveMax))

	return dto.NewSubmissionResponse(submission), nil
}

// invokeGrader runs the grading adapter under the configured timeout. The
// effective maximum and persona are resolved fresh by the caller on every
// attempt.
func (s *gradingService) invokeGrader(ctx context.Context, assignment models.Assignment, effectiveMax float64, persona, text string) (ai.GradingResult, error) {
	questions := make([]ai.GradingQuestion, 0, len(assignment.Questions))
	for _, question := range assignment.Questions {
		questions = append(questions, ai.GradingQuestion{Text: question.Text, Marks: question.Marks})
	}

	gradeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.grader.Grade(gradeCtx, ai.GradingInput{
		AssignmentTitle:       assignment.Title,
		AssignmentDescription: assignment.Description,
		MaxPoints:             effectiveMax,
		Questions:             questions,
		Persona:               persona,
		SubmissionText:        text,
	})
}

func (s *gradingService) resolveAssignment(ctx context.Context, assignmentID uint) (models.Assignment, error) {
	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Assignment{}, ErrRubricUnresolvable
		}
		return models.Assignment{}, err
	}
	return assignment, nil
}

func (s *gradingService) notifyStudent(ctx context.Context, submission models.Submission, title, message string) {
	if s.notifier == nil {
		return
	}

	_, err := s.notifier.Publish(ctx, dto.NotificationCreateRequest{
		UserID:   strconv.FormatUint(uint64(submission.StudentID), 10),
		Type:     "grade",
		Title:    title,
		Message:  message,
		Severity: "info",
		Related: dto.NotificationRelated{
			SubmissionID: submission.ID,
			AssignmentID: submission.AssignmentID,
		},
	})
	if err != nil {
		s.logger.Warn().Err(err).Uint("submission_id", submission.ID).Msg("failed to publish grade notification")
	}
}

// clampGrade bounds an AI-produced grade into [0, max]. Manual overrides are
// rejected instead of clamped.
func clampGrade(grade, max float64) float64 {
	if grade < 0 {
		return 0
	}
	if grade > max {
		return max
	}
	return grade
}
