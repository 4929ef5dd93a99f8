package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/labsyncpro/labsync-api/internal/models"
)

// GradeRepository defines persistence operations for grades.
type GradeRepository interface {
	GetBySubmission(ctx context.Context, submissionID uint) (models.Grade, error)
	Upsert(ctx context.Context, grade *models.Grade) (models.Grade, error)
	CountByDistribution(ctx context.Context, distributionID uint) (int64, error)
	ListByDistribution(ctx context.Context, distributionID uint) ([]models.Grade, error)
}

type gradeRepository struct {
	db *gorm.DB
}

// NewGradeRepository instantiates the repository.
func NewGradeRepository(db *gorm.DB) GradeRepository {
	return &gradeRepository{db: db}
}

func (r *gradeRepository) GetBySubmission(ctx context.Context, submissionID uint) (models.Grade, error) {
	var grade models.Grade
	if err := r.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		First(&grade).Error; err != nil {
		return models.Grade{}, err
	}

	return grade, nil
}

// Upsert writes the grade with insert-on-conflict-update semantics keyed on the
// submission's unique index. Two concurrent first grades therefore collapse to
// one row; the second writer updates in place and the original id survives.
func (r *gradeRepository) Upsert(ctx context.Context, grade *models.Grade) (models.Grade, error) {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "submission_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"score", "max_score", "percentage", "grade_letter",
			"feedback", "instructor_id", "graded_at", "updated_at",
		}),
	}).Create(grade).Error
	if err != nil {
		return models.Grade{}, err
	}

	// Re-read by the unique key: on conflict the insert path does not report
	// the surviving row's id.
	return r.GetBySubmission(ctx, grade.SubmissionID)
}

func (r *gradeRepository) CountByDistribution(ctx context.Context, distributionID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Grade{}).
		Joins("JOIN submissions ON submissions.id = grades.submission_id").
		Where("submissions.distribution_id = ?", distributionID).
		Count(&count).Error
	return count, err
}

func (r *gradeRepository) ListByDistribution(ctx context.Context, distributionID uint) ([]models.Grade, error) {
	var grades []models.Grade
	err := r.db.WithContext(ctx).
		Joins("JOIN submissions ON submissions.id = grades.submission_id").
		Where("submissions.distribution_id = ?", distributionID).
		Find(&grades).Error
	return grades, err
}
