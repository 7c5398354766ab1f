package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/atrium-edu/atrium-go-api/internal/dto"
	"github.com/atrium-edu/atrium-go-api/internal/models"
)

type fakeStudentRepo struct {
	students map[uint]models.Student
}

func newFakeStudentRepo(students ...models.Student) *fakeStudentRepo {
	repo := &fakeStudentRepo{students: make(map[uint]models.Student)}
	for _, student := range students {
		repo.students[student.ID] = student
	}
	return repo
}

func (f *fakeStudentRepo) List(ctx context.Context) ([]models.Student, error) {
	result := make([]models.Student, 0, len(f.students))
	for _, student := range f.students {
		result = append(result, student)
	}
	return result, nil
}

func (f *fakeStudentRepo) GetByID(ctx context.Context, id uint) (models.Student, error) {
	student, ok := f.students[id]
	if !ok {
		return models.Student{}, gorm.ErrRecordNotFound
	}
	return student, nil
}

func (f *fakeStudentRepo) Create(ctx context.Context, student *models.Student) error {
	if student.ID == 0 {
		student.ID = uint(len(f.students) + 1)
	}
	f.students[student.ID] = *student
	return nil
}

func (f *fakeStudentRepo) Update(ctx context.Context, student *models.Student) error {
	f.students[student.ID] = *student
	return nil
}

type fakeCourseRepo struct {
	courses     map[uint]models.Course
	enrollments map[[2]uint]bool
}

func newFakeCourseRepo(courses ...models.Course) *fakeCourseRepo {
	repo := &fakeCourseRepo{courses: make(map[uint]models.Course), enrollments: make(map[[2]uint]bool)}
	for _, course := range courses {
		repo.courses[course.ID] = course
	}
	return repo
}

func (f *fakeCourseRepo) List(ctx context.Context) ([]models.Course, error) {
	result := make([]models.Course, 0, len(f.courses))
	for _, course := range f.courses {
		result = append(result, course)
	}
	return result, nil
}

func (f *fakeCourseRepo) GetByID(ctx context.Context, id uint) (models.Course, error) {
	course, ok := f.courses[id]
	if !ok {
		return models.Course{}, gorm.ErrRecordNotFound
	}
	return course, nil
}

func (f *fakeCourseRepo) Create(ctx context.Context, course *models.Course) error {
	if course.ID == 0 {
		course.ID = uint(len(f.courses) + 1)
	}
	f.courses[course.ID] = *course
	return nil
}

func (f *fakeCourseRepo) Update(ctx context.Context, course *models.Course) error {
	f.courses[course.ID] = *course
	return nil
}

func (f *fakeCourseRepo) Delete(ctx context.Context, id uint) error {
	if _, ok := f.courses[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.courses, id)
	return nil
}

func (f *fakeCourseRepo) Enroll(ctx context.Context, enrollment *models.Enrollment) error {
	f.enrollments[[2]uint{enrollment.CourseID, enrollment.StudentID}] = true
	return nil
}

func (f *fakeCourseRepo) IsEnrolled(ctx context.Context, courseID, studentID uint) (bool, error) {
	return f.enrollments[[2]uint{courseID, studentID}], nil
}

type stubUploader struct {
	uploads int
	removed []string
}

func (s *stubUploader) Upload(_ context.Context, name string, _ io.Reader) (string, error) {
	s.uploads++
	return "https://files.test/" + name, nil
}

func (s *stubUploader) Remove(_ context.Context, fileURL string) error {
	s.removed = append(s.removed, fileURL)
	return nil
}

type stubExtractor struct {
	text  string
	err   error
	calls int
}

func (s *stubExtractor) Extract(ctx context.Context, location, mediaType string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.text, nil
}

type stubGradingService struct {
	handled int
}

func (s *stubGradingService) HandleUpload(ctx context.Context, submission models.Submission, assignment models.Assignment) models.Submission {
	s.handled++
	return submission
}

func (s *stubGradingService) RegradeWithAI(ctx context.Context, submissionID uint) (dto.SubmissionResponse, error) {
	return dto.SubmissionResponse{}, nil
}

func (s *stubGradingService) Approve(ctx context.Context, submissionID uint) (dto.SubmissionResponse, error) {
	return dto.SubmissionResponse{}, nil
}

func (s *stubGradingService) Override(ctx context.Context, submissionID uint, payload dto.OverrideGradeRequest) (dto.SubmissionResponse, error) {
	return dto.SubmissionResponse{}, nil
}

func makeFileHeaders(t *testing.T, files map[string]string) []*multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for name, content := range files {
		part, err := writer.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	reader := multipart.NewReader(body, writer.Boundary())
	form, err := reader.ReadForm(4 << 20)
	require.NoError(t, err)

	return form.File["files"]
}

type submissionFixture struct {
	service    SubmissionService
	repo       *fakeSubmissionRepo
	uploader   *stubUploader
	extractor  *stubExtractor
	grading    *stubGradingService
	assignment models.Assignment
}

func newSubmissionFixture(t *testing.T, dueDate time.Time, existing ...models.Submission) *submissionFixture {
	t.Helper()

	assignment := models.Assignment{ID: 2, CourseID: 1, Title: "Lab Report", MaxPoints: 25, DueDate: dueDate}
	course := models.Course{ID: 1, Title: "Physics"}
	student := models.Student{ID: 3, Name: "Jane", Email: "jane@example.com"}

	subRepo := newFakeSubmissionRepo(existing...)
	courseRepo := newFakeCourseRepo(course)
	courseRepo.enrollments[[2]uint{1, 3}] = true

	uploader := &stubUploader{}
	extractor := &stubExtractor{text: "extracted prose"}
	grading := &stubGradingService{}

	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewSubmissionService(
		subRepo,
		newFakeAssignmentRepo(assignment),
		newFakeStudentRepo(student),
		courseRepo,
		uploader,
		extractor,
		grading,
		validate,
		0,
		testLogger(),
	)

	return &submissionFixture{
		service:    svc,
		repo:       subRepo,
		uploader:   uploader,
		extractor:  extractor,
		grading:    grading,
		assignment: assignment,
	}
}

func TestUploadStoresFilesAndTriggersGrading(t *testing.T) {
	fx := newSubmissionFixture(t, time.Now().Add(24*time.Hour))
	files := makeFileHeaders(t, map[string]string{"essay.txt": "entropy measures disorder"})

	result, err := fx.service.Upload(context.Background(), dto.SubmissionCreateRequest{AssignmentID: 2, StudentID: 3}, files)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusSubmitted, result.Status)
	require.Equal(t, 1, fx.uploader.uploads)
	require.Equal(t, 1, fx.extractor.calls)
	require.Equal(t, 1, fx.grading.handled)

	stored := fx.repo.submissions[result.ID]
	require.Equal(t, "extracted prose", stored.ExtractedText)
	require.Len(t, stored.Files, 1)
	require.Equal(t, "https://files.test/essay.txt", stored.Files[0].URL)
	require.Equal(t, "essay.txt", stored.Files[0].OriginalName)
}

func TestUploadAfterDueDateIsMarkedLate(t *testing.T) {
	fx := newSubmissionFixture(t, time.Now().Add(-time.Hour))
	files := makeFileHeaders(t, map[string]string{"essay.txt": "late but present"})

	result, err := fx.service.Upload(context.Background(), dto.SubmissionCreateRequest{AssignmentID: 2, StudentID: 3}, files)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusLate, result.Status)
}

func TestUploadExtractionFailureStoresPlaceholder(t *testing.T) {
	fx := newSubmissionFixture(t, time.Now().Add(24*time.Hour))
	fx.extractor.err = errors.New("tika unreachable")
	files := makeFileHeaders(t, map[string]string{"essay.txt": "unreadable"})

	result, err := fx.service.Upload(context.Background(), dto.SubmissionCreateRequest{AssignmentID: 2, StudentID: 3}, files)
	require.NoError(t, err, "extraction failure must not fail the upload")

	stored := fx.repo.submissions[result.ID]
	require.Equal(t, models.ExtractionPlaceholder, stored.ExtractedText)
	require.False(t, stored.HasExtractedText())
}

func TestUploadReplacesUngradedAttempt(t *testing.T) {
	existing := models.Submission{
		ID:           7,
		AssignmentID: 2,
		CourseID:     1,
		StudentID:    3,
		Status:       models.SubmissionStatusSubmitted,
		Files: []models.SubmissionFile{
			{Position: 0, URL: "https://files.test/essay-v1.txt", OriginalName: "essay-v1.txt"},
		},
	}
	fx := newSubmissionFixture(t, time.Now().Add(24*time.Hour), existing)
	files := makeFileHeaders(t, map[string]string{"essay-v2.txt": "second attempt"})

	result, err := fx.service.Upload(context.Background(), dto.SubmissionCreateRequest{AssignmentID: 2, StudentID: 3}, files)
	require.NoError(t, err)
	require.NotEqual(t, existing.ID, result.ID)
	require.Equal(t, 1, fx.repo.deleteCalls)
	require.NotContains(t, fx.repo.submissions, existing.ID)
	require.Equal(t, []string{"https://files.test/essay-v1.txt"}, fx.uploader.removed, "replaced artifacts must be deleted from storage")
}

func TestUploadRejectedWhenAlreadyGraded(t *testing.T) {
	grade := 20.0
	existing := models.Submission{
		ID:           7,
		AssignmentID: 2,
		CourseID:     1,
		StudentID:    3,
		Grade:        &grade,
		Status:       models.SubmissionStatusGraded,
	}
	fx := newSubmissionFixture(t, time.Now().Add(24*time.Hour), existing)
	files := makeFileHeaders(t, map[string]string{"essay-v2.txt": "too late"})

	_, err := fx.service.Upload(context.Background(), dto.SubmissionCreateRequest{AssignmentID: 2, StudentID: 3}, files)
	require.ErrorIs(t, err, ErrSubmissionAlreadyGraded)
	require.Zero(t, fx.repo.deleteCalls)
	require.Contains(t, fx.repo.submissions, existing.ID)
}

func TestUploadRequiresEnrollment(t *testing.T) {
	fx := newSubmissionFixture(t, time.Now().Add(24*time.Hour))
	files := makeFileHeaders(t, map[string]string{"essay.txt": "content"})

	svc := fx.service.(*submissionService)
	svc.courses.(*fakeCourseRepo).enrollments = map[[2]uint]bool{}

	_, err := fx.service.Upload(context.Background(), dto.SubmissionCreateRequest{AssignmentID: 2, StudentID: 3}, files)
	require.ErrorIs(t, err, ErrStudentNotEnrolled)
}

func TestUploadRequiresFiles(t *testing.T) {
	fx := newSubmissionFixture(t, time.Now().Add(24*time.Hour))

	_, err := fx.service.Upload(context.Background(), dto.SubmissionCreateRequest{AssignmentID: 2, StudentID: 3}, nil)
	require.ErrorIs(t, err, ErrNoFilesProvided)
}

func TestRequestResubmissionFlagsSubmission(t *testing.T) {
	existing := models.Submission{
		ID:           7,
		AssignmentID: 2,
		CourseID:     1,
		StudentID:    3,
		Status:       models.SubmissionStatusSubmitted,
	}
	fx := newSubmissionFixture(t, time.Now().Add(24*time.Hour), existing)

	result, err := fx.service.RequestResubmission(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusResubmitRequired, result.Status)

	// Repeats are a no-op.
	updates := fx.repo.updateCalls
	result, err = fx.service.RequestResubmission(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusResubmitRequired, result.Status)
	require.Equal(t, updates, fx.repo.updateCalls)
}
