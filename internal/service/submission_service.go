package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/atrium-edu/atrium-go-api/internal/dto"
	"github.com/atrium-edu/atrium-go-api/internal/models"
	"github.com/atrium-edu/atrium-go-api/internal/observability"
	"github.com/atrium-edu/atrium-go-api/internal/repository"
	"github.com/atrium-edu/atrium-go-api/pkg/extract"
)

var (
	// ErrSubmissionNotFound indicates the requested submission does not exist.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrSubmissionAlreadyGraded indicates a re-upload was attempted for a graded submission.
	ErrSubmissionAlreadyGraded = errors.New("submission already graded")
	// ErrNoFilesProvided indicates an upload request without any files.
	ErrNoFilesProvided = errors.New("at least one file is required")
	// ErrTooManyFiles indicates an upload request exceeding the file limit.
	ErrTooManyFiles = errors.New("too many files in submission")
	// ErrUnsupportedMediaType indicates an uploaded file of a type the pipeline does not accept.
	ErrUnsupportedMediaType = errors.New("unsupported file type")
	// ErrStudentNotEnrolled indicates the student is not enrolled in the assignment's course.
	ErrStudentNotEnrolled = errors.New("student is not enrolled in this course")
)

// maxSubmissionFiles bounds how many artifacts one submission may carry.
const maxSubmissionFiles = 5

var allowedSubmissionTypes = map[string]struct{}{
	"application/pdf": {},
	"text/plain":      {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
	"application/msword": {},
	"application/zip":    {},
	"image/png":          {},
	"image/jpeg":         {},
}

// ArtifactUploader stores raw submission artifacts and returns a stable URL.
// Remove deletes a stored artifact by that URL.
type ArtifactUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
	Remove(ctx context.Context, fileURL string) error
}

// SubmissionService manages the submission lifecycle from upload onward.
type SubmissionService interface {
	List(ctx context.Context, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error)
	GetByID(ctx context.Context, id uint) (dto.SubmissionResponse, error)
	Upload(ctx context.Context, payload dto.SubmissionCreateRequest, files []*multipart.FileHeader) (dto.SubmissionResponse, error)
	RequestResubmission(ctx context.Context, id uint) (dto.SubmissionResponse, error)
	Delete(ctx context.Context, id uint) error
}

type submissionService struct {
	submissions       repository.SubmissionRepository
	assignments       repository.AssignmentRepository
	students          repository.StudentRepository
	courses           repository.CourseRepository
	uploader          ArtifactUploader
	extractor         extract.Extractor
	grading           GradingService
	validator         *validator.Validate
	logger            zerolog.Logger
	now               func() time.Time
	extractionTimeout time.Duration
}

// NewSubmissionService wires the submission lifecycle service.
func NewSubmissionService(
	subRepo repository.SubmissionRepository,
	assignmentRepo repository.AssignmentRepository,
	studentRepo repository.StudentRepository,
	courseRepo repository.CourseRepository,
	uploader ArtifactUploader,
	extractor extract.Extractor,
	grading GradingService,
	validate *validator.Validate,
	extractionTimeout time.Duration,
	logger zerolog.Logger,
) SubmissionService {
	if extractionTimeout <= 0 {
		extractionTimeout = 30 * time.Second
	}

	return &submissionService{
		submissions:       subRepo,
		assignments:       assignmentRepo,
		students:          studentRepo,
		courses:           courseRepo,
		uploader:          uploader,
		extractor:         extractor,
		grading:           grading,
		validator:         validate,
		logger:            logger.With().Str("component", "submission_service").Logger(),
		now:               time.Now,
		extractionTimeout: extractionTimeout,
	}
}

func (s *submissionService) List(ctx context.Context, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, err
	}

	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{
		AssignmentID: filter.AssignmentID,
		CourseID:     filter.CourseID,
		StudentID:    filter.StudentID,
		Status:       filter.Status,
	})
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponseSlice(submissions), nil
}

func (s *submissionService) GetByID(ctx context.Context, id uint) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(submission), nil
}

// Upload stores the artifacts, extracts their text and creates the
// submission, then hands it to the grading pipeline. A failed extraction
// never fails the upload: the submission is stored with a placeholder
// marking it for manual review.
func (s *submissionService) Upload(ctx context.Context, payload dto.SubmissionCreateRequest, files []*multipart.FileHeader) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	if len(files) == 0 {
		return dto.SubmissionResponse{}, ErrNoFilesProvided
	}
	if len(files) > maxSubmissionFiles {
		return dto.SubmissionResponse{}, fmt.Errorf("%w: %d exceeds limit of %d", ErrTooManyFiles, len(files), maxSubmissionFiles)
	}

	assignment, err := s.assignments.GetByID(ctx, payload.AssignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrAssignmentNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	if _, err := s.students.GetByID(ctx, payload.StudentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrStudentNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	enrolled, err := s.courses.IsEnrolled(ctx, assignment.CourseID, payload.StudentID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	if !enrolled {
		return dto.SubmissionResponse{}, ErrStudentNotEnrolled
	}

	// A new upload replaces any ungraded attempt; graded work is locked.
	existing, err := s.submissions.GetByAssignmentAndStudent(ctx, payload.AssignmentID, payload.StudentID)
	switch {
	case err == nil:
		if existing.IsGraded() {
			return dto.SubmissionResponse{}, ErrSubmissionAlreadyGraded
		}
		if err := s.submissions.Delete(ctx, existing.ID); err != nil {
			return dto.SubmissionResponse{}, err
		}
		s.removeArtifacts(ctx, existing.Files)
	case errors.Is(err, gorm.ErrRecordNotFound):
		// first attempt
	default:
		return dto.SubmissionResponse{}, err
	}

	stored, err := s.storeArtifacts(ctx, files)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	submittedAt := s.now()
	status := models.SubmissionStatusSubmitted
	if !assignment.DueDate.IsZero() && submittedAt.After(assignment.DueDate) {
		status = models.SubmissionStatusLate
	}

	submission := models.Submission{
		AssignmentID:  assignment.ID,
		CourseID:      assignment.CourseID,
		StudentID:     payload.StudentID,
		Files:         stored,
		ExtractedText: s.extractText(ctx, stored),
		Status:        status,
		SubmittedAt:   submittedAt,
	}

	if err := s.submissions.Create(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	observability.SubmissionsUploaded().WithLabelValues(status).Inc()
	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("assignment_id", assignment.ID).
		Uint("student_id", payload.StudentID).
		Str("status", status).
		Msg("submission stored")

	submission = s.grading.HandleUpload(ctx, submission, assignment)

	// Reload for the preloaded assignment/student associations.
	full, err := s.submissions.GetByID(ctx, submission.ID)
	if err != nil {
		return dto.NewSubmissionResponse(submission), nil
	}

	return dto.NewSubmissionResponse(full), nil
}

// RequestResubmission flags a submission so the student must upload again.
// Any existing grade draft stays in place for reference.
func (s *submissionService) RequestResubmission(ctx context.Context, id uint) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	if submission.Status == models.SubmissionStatusResubmitRequired {
		return dto.NewSubmissionResponse(submission), nil
	}

	submission.Status = models.SubmissionStatusResubmitRequired
	if err := s.submissions.Update(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().Uint("submission_id", submission.ID).Msg("resubmission requested")

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) Delete(ctx context.Context, id uint) error {
	if err := s.submissions.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSubmissionNotFound
		}
		return err
	}

	return nil
}

// removeArtifacts clears the stored files of a replaced attempt. Removal is
// best effort; a leftover asset is logged, never an upload failure.
func (s *submissionService) removeArtifacts(ctx context.Context, files []models.SubmissionFile) {
	for _, file := range files {
		if err := s.uploader.Remove(ctx, file.URL); err != nil {
			s.logger.Warn().Err(err).Str("file", file.OriginalName).Msg("failed to remove replaced artifact")
		}
	}
}

func (s *submissionService) storeArtifacts(ctx context.Context, files []*multipart.FileHeader) ([]models.SubmissionFile, error) {
	stored := make([]models.SubmissionFile, 0, len(files))

	for position, header := range files {
		mediaType, err := sniffMediaType(header)
		if err != nil {
			return nil, err
		}
		if _, ok := allowedSubmissionTypes[mediaType]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedMediaType, mediaType)
		}

		file, err := header.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open uploaded file: %w", err)
		}

		url, err := s.uploader.Upload(ctx, header.Filename, file)
		_ = file.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to store artifact %q: %w", header.Filename, err)
		}

		stored = append(stored, models.SubmissionFile{
			Position:     position,
			URL:          url,
			OriginalName: header.Filename,
			MediaType:    mediaType,
		})
	}

	return stored, nil
}

// extractText runs each artifact through the extractor and joins the results.
// Any failure degrades the whole submission to the manual-review placeholder;
// an empty result from a readable file is fine.
func (s *submissionService) extractText(ctx context.Context, files []models.SubmissionFile) string {
	if s.extractor == nil {
		return models.ExtractionPlaceholder
	}

	extractCtx, cancel := context.WithTimeout(ctx, s.extractionTimeout)
	defer cancel()

	parts := make([]string, 0, len(files))
	for _, file := range files {
		text, err := s.extractor.Extract(extractCtx, file.URL, file.MediaType)
		if err != nil {
			s.logger.Warn().Err(err).Str("file", file.OriginalName).Msg("text extraction failed")
			return models.ExtractionPlaceholder
		}
		if text != "" {
			parts = append(parts, text)
		}
	}

	return strings.Join(parts, "\n\n")
}

func sniffMediaType(header *multipart.FileHeader) (string, error) {
	file, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	detected, err := mimetype.DetectReader(file)
	if err != nil {
		return "", fmt.Errorf("failed to detect file type: %w", err)
	}

	// DetectReader returns subtypes for office documents; walk up to the
	// nearest type the allow list knows.
	for mt := detected; mt != nil; mt = mt.Parent() {
		base := strings.Split(mt.String(), ";")[0]
		if _, ok := allowedSubmissionTypes[base]; ok {
			return base, nil
		}
	}

	return strings.Split(detected.String(), ";")[0], nil
}
