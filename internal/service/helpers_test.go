package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/atrium-edu/atrium-go-api/internal/dto"
	"github.com/atrium-edu/atrium-go-api/internal/models"
	"github.com/atrium-edu/atrium-go-api/internal/repository"
	"github.com/atrium-edu/atrium-go-api/pkg/ai"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

type fakeSubmissionRepo struct {
	submissions map[uint]models.Submission
	nextID      uint
	updateCalls int
	deleteCalls int
	updateErr   error
}

func newFakeSubmissionRepo(submissions ...models.Submission) *fakeSubmissionRepo {
	repo := &fakeSubmissionRepo{submissions: make(map[uint]models.Submission), nextID: 1}
	for _, submission := range submissions {
		if submission.ID >= repo.nextID {
			repo.nextID = submission.ID + 1
		}
		repo.submissions[submission.ID] = submission
	}
	return repo
}

func (f *fakeSubmissionRepo) List(ctx context.Context, filter repository.SubmissionFilter) ([]models.Submission, error) {
	result := make([]models.Submission, 0, len(f.submissions))
	for _, submission := range f.submissions {
		result = append(result, submission)
	}
	return result, nil
}

func (f *fakeSubmissionRepo) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	submission, ok := f.submissions[id]
	if !ok {
		return models.Submission{}, gorm.ErrRecordNotFound
	}
	return submission, nil
}

func (f *fakeSubmissionRepo) GetByAssignmentAndStudent(ctx context.Context, assignmentID, studentID uint) (models.Submission, error) {
	for _, submission := range f.submissions {
		if submission.AssignmentID == assignmentID && submission.StudentID == studentID {
			return submission, nil
		}
	}
	return models.Submission{}, gorm.ErrRecordNotFound
}

func (f *fakeSubmissionRepo) Create(ctx context.Context, submission *models.Submission) error {
	submission.ID = f.nextID
	f.nextID++
	f.submissions[submission.ID] = *submission
	return nil
}

func (f *fakeSubmissionRepo) Update(ctx context.Context, submission *models.Submission) error {
	f.updateCalls++
	if f.updateErr != nil {
		return f.updateErr
	}
	f.submissions[submission.ID] = *submission
	return nil
}

func (f *fakeSubmissionRepo) Delete(ctx context.Context, id uint) error {
	if _, ok := f.submissions[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	f.deleteCalls++
	delete(f.submissions, id)
	return nil
}

type fakeAssignmentRepo struct {
	assignments map[uint]models.Assignment
}

func newFakeAssignmentRepo(assignments ...models.Assignment) *fakeAssignmentRepo {
	repo := &fakeAssignmentRepo{assignments: make(map[uint]models.Assignment)}
	for _, assignment := range assignments {
		repo.assignments[assignment.ID] = assignment
	}
	return repo
}

func (f *fakeAssignmentRepo) List(ctx context.Context, filter repository.AssignmentFilter) ([]models.Assignment, int64, error) {
	result := make([]models.Assignment, 0, len(f.assignments))
	for _, assignment := range f.assignments {
		result = append(result, assignment)
	}
	return result, int64(len(result)), nil
}

func (f *fakeAssignmentRepo) GetByID(ctx context.Context, id uint) (models.Assignment, error) {
	assignment, ok := f.assignments[id]
	if !ok {
		return models.Assignment{}, gorm.ErrRecordNotFound
	}
	return assignment, nil
}

func (f *fakeAssignmentRepo) Create(ctx context.Context, assignment *models.Assignment) error {
	if assignment.ID == 0 {
		assignment.ID = uint(len(f.assignments) + 1)
	}
	f.assignments[assignment.ID] = *assignment
	return nil
}

func (f *fakeAssignmentRepo) Update(ctx context.Context, assignment *models.Assignment) error {
	f.assignments[assignment.ID] = *assignment
	return nil
}

func (f *fakeAssignmentRepo) ReplaceQuestions(ctx context.Context, assignment *models.Assignment, questions []models.AssignmentQuestion) error {
	for i := range questions {
		questions[i].AssignmentID = assignment.ID
		questions[i].Position = i
	}
	assignment.Questions = questions
	f.assignments[assignment.ID] = *assignment
	return nil
}

func (f *fakeAssignmentRepo) Delete(ctx context.Context, id uint) error {
	if _, ok := f.assignments[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.assignments, id)
	return nil
}

type fakeGrader struct {
	result ai.GradingResult
	err    error
	calls  int
	inputs []ai.GradingInput
}

func (f *fakeGrader) Grade(ctx context.Context, input ai.GradingInput) (ai.GradingResult, error) {
	f.calls++
	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return ai.GradingResult{}, f.err
	}
	return f.result, nil
}

type fakeNotifier struct {
	published []dto.NotificationCreateRequest
	fail      bool
}

func (f *fakeNotifier) Publish(ctx context.Context, payload dto.NotificationCreateRequest) (dto.NotificationResponse, error) {
	f.published = append(f.published, payload)
	if f.fail {
		return dto.NotificationResponse{}, errors.New("notification sink unavailable")
	}
	return dto.NotificationResponse{ID: uint(len(f.published)), UserID: payload.UserID}, nil
}
