package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/atrium-edu/atrium-go-api/internal/models"
)

// CourseRepository defines persistence operations for courses and enrollments.
type CourseRepository interface {
	List(ctx context.Context) ([]models.Course, error)
	GetByID(ctx context.Context, id uint) (models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id uint) error
	Enroll(ctx context.Context, enrollment *models.Enrollment) error
	IsEnrolled(ctx context.Context, courseID, studentID uint) (bool, error)
}

type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository instantiates a GORM-backed repository.
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) List(ctx context.Context) ([]models.Course, error) {
	var courses []models.Course
	if err := r.db.WithContext(ctx).Order("title ASC").Find(&courses).Error; err != nil {
		return nil, err
	}

	return courses, nil
}

func (r *courseRepository) GetByID(ctx context.Context, id uint) (models.Course, error) {
	var course models.Course
	if err := r.db.WithContext(ctx).First(&course, id).Error; err != nil {
		return models.Course{}, err
	}

	return course, nil
}

func (r *courseRepository) Create(ctx context.Context, course *models.Course) error {
	return r.db.WithContext(ctx).Create(course).Error
}

func (r *courseRepository) Update(ctx context.Context, course *models.Course) error {
	return r.db.WithContext(ctx).Save(course).Error
}

func (r *courseRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Course{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *courseRepository) Enroll(ctx context.Context, enrollment *models.Enrollment) error {
	return r.db.WithContext(ctx).Create(enrollment).Error
}

func (r *courseRepository) IsEnrolled(ctx context.Context, courseID, studentID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Enrollment{}).
		Where("course_id = ? AND student_id = ?", courseID, studentID).
		Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}
