package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/atrium-edu/atrium-go-api/internal/models"
)

// AssignmentFilter describes pagination & search options.
type AssignmentFilter struct {
	CourseID *uint
	Search   string
	Sort     string
	Page     int
	PageSize int
}

// AssignmentRepository defines persistence operations for assignments.
type AssignmentRepository interface {
	List(ctx context.Context, filter AssignmentFilter) ([]models.Assignment, int64, error)
	GetByID(ctx context.Context, id uint) (models.Assignment, error)
	Create(ctx context.Context, assignment *models.Assignment) error
	Update(ctx context.Context, assignment *models.Assignment) error
	ReplaceQuestions(ctx context.Context, assignment *models.Assignment, questions []models.AssignmentQuestion) error
	Delete(ctx context.Context, id uint) error
}

type assignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository instantiates a GORM-backed repository.
func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) List(ctx context.Context, filter AssignmentFilter) ([]models.Assignment, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Assignment{}).Preload("Questions")

	if filter.CourseID != nil {
		query = query.Where("course_id = ?", *filter.CourseID)
	}

	if filter.Search != "" {
		pattern := "%" + strings.ToLower(strings.TrimSpace(filter.Search)) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := normalizeAssignmentSort(filter.Sort)
	if order != "" {
		query = query.Order(order)
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		offset := (page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var assignments []models.Assignment
	if err := query.Find(&assignments).Error; err != nil {
		return nil, 0, err
	}

	return assignments, total, nil
}

func (r *assignmentRepository) GetByID(ctx context.Context, id uint) (models.Assignment, error) {
	var assignment models.Assignment
	if err := r.db.WithContext(ctx).Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).First(&assignment, id).Error; err != nil {
		return models.Assignment{}, err
	}

	return assignment, nil
}

func (r *assignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *assignmentRepository) Update(ctx context.Context, assignment *models.Assignment) error {
	return r.db.WithContext(ctx).Omit("Questions").Save(assignment).Error
}

func (r *assignmentRepository) ReplaceQuestions(ctx context.Context, assignment *models.Assignment, questions []models.AssignmentQuestion) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("assignment_id = ?", assignment.ID).Delete(&models.AssignmentQuestion{}).Error; err != nil {
			return err
		}
		for i := range questions {
			questions[i].AssignmentID = assignment.ID
			questions[i].Position = i
		}
		if len(questions) > 0 {
			if err := tx.Create(&questions).Error; err != nil {
				return err
			}
		}
		assignment.Questions = questions
		return nil
	})
}

func (r *assignmentRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Assignment{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func normalizeAssignmentSort(sort string) string {
	switch strings.ToLower(strings.TrimSpace(sort)) {
	case "due_date", "due_date:asc":
		return "due_date ASC"
	case "-due_date", "due_date:desc":
		return "due_date DESC"
	case "title", "title:asc":
		return "title ASC"
	case "-title", "title:desc":
		return "title DESC"
	default:
		return "due_date ASC"
	}
}
