package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/atrium-edu/atrium-go-api/internal/models"
	"github.com/atrium-edu/atrium-go-api/internal/repository"
)

func setupSubmissionDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Course{},
		&models.Student{},
		&models.Assignment{},
		&models.AssignmentQuestion{},
		&models.Submission{},
		&models.SubmissionFile{},
	))

	return db
}

func seedSubmission(t *testing.T, db *gorm.DB, status string) models.Submission {
	t.Helper()

	course := models.Course{Title: "Physics"}
	require.NoError(t, db.Create(&course).Error)

	student := models.Student{Name: "Jane", Email: "jane@example.com"}
	require.NoError(t, db.Create(&student).Error)

	assignment := models.Assignment{
		CourseID:  course.ID,
		Title:     "Thermodynamics Essay",
		MaxPoints: 100,
		DueDate:   time.Now().Add(24 * time.Hour),
		Questions: []models.AssignmentQuestion{
			{Position: 0, Text: "Define entropy", Marks: 10},
			{Position: 1, Text: "Derive the formula", Marks: 15},
		},
	}
	require.NoError(t, db.Create(&assignment).Error)

	submission := models.Submission{
		AssignmentID: assignment.ID,
		CourseID:     course.ID,
		StudentID:    student.ID,
		Status:       status,
		SubmittedAt:  time.Now(),
		Files: []models.SubmissionFile{
			{Position: 0, URL: "https://files.test/essay.pdf", OriginalName: "essay.pdf", MediaType: "application/pdf"},
		},
	}
	require.NoError(t, db.Create(&submission).Error)

	return submission
}

func TestSubmissionRepositoryGetByIDPreloadsRubric(t *testing.T) {
	db := setupSubmissionDB(t)
	repo := repository.NewSubmissionRepository(db)
	seeded := seedSubmission(t, db, models.SubmissionStatusSubmitted)

	found, err := repo.GetByID(context.Background(), seeded.ID)
	require.NoError(t, err)
	require.Len(t, found.Files, 1)
	require.Equal(t, "essay.pdf", found.Files[0].OriginalName)
	require.Len(t, found.Assignment.Questions, 2)
	require.Equal(t, 10.0, found.Assignment.Questions[0].Marks)
	require.Equal(t, "Jane", found.Student.Name)
}

func TestSubmissionRepositoryGetByAssignmentAndStudent(t *testing.T) {
	db := setupSubmissionDB(t)
	repo := repository.NewSubmissionRepository(db)
	seeded := seedSubmission(t, db, models.SubmissionStatusSubmitted)

	found, err := repo.GetByAssignmentAndStudent(context.Background(), seeded.AssignmentID, seeded.StudentID)
	require.NoError(t, err)
	require.Equal(t, seeded.ID, found.ID)

	_, err = repo.GetByAssignmentAndStudent(context.Background(), seeded.AssignmentID, 999)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestSubmissionRepositoryListFiltersByStatus(t *testing.T) {
	db := setupSubmissionDB(t)
	repo := repository.NewSubmissionRepository(db)
	seedSubmission(t, db, models.SubmissionStatusSubmitted)

	graded := models.SubmissionStatusGraded
	submissions, err := repo.List(context.Background(), repository.SubmissionFilter{Status: &graded})
	require.NoError(t, err)
	require.Empty(t, submissions)

	submitted := models.SubmissionStatusSubmitted
	submissions, err = repo.List(context.Background(), repository.SubmissionFilter{Status: &submitted})
	require.NoError(t, err)
	require.Len(t, submissions, 1)
}

func TestSubmissionRepositoryDeleteMissing(t *testing.T) {
	db := setupSubmissionDB(t)
	repo := repository.NewSubmissionRepository(db)

	err := repo.Delete(context.Background(), 12345)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
