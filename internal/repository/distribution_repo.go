package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/labsyncpro/labsync-api/internal/models"
)

// DistributionFilter narrows distribution queries.
type DistributionFilter struct {
	AssignmentID *uint
	ClassID      *uint
	Status       *string
	Page         int
	PageSize     int
}

// DistributionRepository defines persistence operations for assignment distributions.
type DistributionRepository interface {
	List(ctx context.Context, filter DistributionFilter) ([]models.AssignmentDistribution, int64, error)
	ListForStudent(ctx context.Context, userID, classID uint) ([]models.AssignmentDistribution, error)
	GetByID(ctx context.Context, id uint) (models.AssignmentDistribution, error)
	Create(ctx context.Context, distribution *models.AssignmentDistribution) error
	Update(ctx context.Context, distribution *models.AssignmentDistribution) error
	Delete(ctx context.Context, id uint) error
}

type distributionRepository struct {
	db *gorm.DB
}

// NewDistributionRepository instantiates the repository.
func NewDistributionRepository(db *gorm.DB) DistributionRepository {
	return &distributionRepository{db: db}
}

func (r *distributionRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.AssignmentDistribution{}).
		Preload("Assignment")
}

func (r *distributionRepository) List(ctx context.Context, filter DistributionFilter) ([]models.AssignmentDistribution, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.AssignmentDistribution{})

	if filter.AssignmentID != nil {
		query = query.Where("assignment_id = ?", *filter.AssignmentID)
	}
	if filter.ClassID != nil {
		query = query.Where("class_id = ?", *filter.ClassID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var distributions []models.AssignmentDistribution
	if err := query.Preload("Assignment").Order("scheduled_date DESC").Find(&distributions).Error; err != nil {
		return nil, 0, err
	}

	return distributions, total, nil
}

// ListForStudent returns every distribution whose audience includes the student:
// class-wide pushes for their class, group pushes for groups they belong to, and
// individual pushes addressed to them.
func (r *distributionRepository) ListForStudent(ctx context.Context, userID, classID uint) ([]models.AssignmentDistribution, error) {
	memberGroups := r.db.Model(&models.GroupMember{}).
		Select("group_id").
		Where("user_id = ?", userID)

	var distributions []models.AssignmentDistribution
	if err := r.baseQuery(ctx).
		Where("class_id = ?", classID).
		Where(
			r.db.Where("audience_type = ?", models.AudienceClass).
				Or("audience_type = ? AND group_id IN (?)", models.AudienceGroup, memberGroups).
				Or("audience_type = ? AND user_id = ?", models.AudienceIndividual, userID),
		).
		Order("scheduled_date DESC").
		Find(&distributions).Error; err != nil {
		return nil, err
	}

	return distributions, nil
}

func (r *distributionRepository) GetByID(ctx context.Context, id uint) (models.AssignmentDistribution, error) {
	var distribution models.AssignmentDistribution
	if err := r.baseQuery(ctx).First(&distribution, id).Error; err != nil {
		return models.AssignmentDistribution{}, err
	}

	return distribution, nil
}

func (r *distributionRepository) Create(ctx context.Context, distribution *models.AssignmentDistribution) error {
	return r.db.WithContext(ctx).Create(distribution).Error
}

func (r *distributionRepository) Update(ctx context.Context, distribution *models.AssignmentDistribution) error {
	return r.db.WithContext(ctx).Save(distribution).Error
}

// Delete removes the distribution and its submissions in one transaction.
// Grade-bearing distributions are rejected by the service before reaching here.
func (r *distributionRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("distribution_id = ?", id).Delete(&models.Submission{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.AssignmentDistribution{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
