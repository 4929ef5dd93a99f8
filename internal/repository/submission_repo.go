package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/labsyncpro/labsync-api/internal/models"
)

// ErrLockedRow signals an attach attempt against a locked submission row.
// The lock check runs inside the attach transaction so a concurrent lock is
// always observed before the metadata write commits.
var ErrLockedRow = errors.New("submission row is locked")

// SubmissionFilter allows narrowing submission queries.
type SubmissionFilter struct {
	DistributionID *uint
	UserID         *uint
	Locked         *bool
}

// SubmissionRepository defines data operations for submissions.
type SubmissionRepository interface {
	List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error)
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	GetByDistributionAndUser(ctx context.Context, distributionID, userID uint) (models.Submission, error)
	AttachFile(ctx context.Context, distributionID, userID uint, fileType, filename string, attachedAt time.Time) (models.Submission, error)
	SetLocked(ctx context.Context, id uint, locked bool) error
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Submission{}).
		Preload("Distribution").
		Preload("Distribution.Assignment").
		Preload("Student").
		Preload("Grade")
}

func (r *submissionRepository) List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error) {
	query := r.baseQuery(ctx)

	if filter.DistributionID != nil {
		query = query.Where("distribution_id = ?", *filter.DistributionID)
	}

	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}

	if filter.Locked != nil {
		query = query.Where("is_locked = ?", *filter.Locked)
	}

	var submissions []models.Submission
	if err := query.Order("updated_at DESC").Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) GetByDistributionAndUser(ctx context.Context, distributionID, userID uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).
		Where("distribution_id = ?", distributionID).
		Where("user_id = ?", userID).
		First(&submission).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

// AttachFile records one uploaded artifact. The row is created lazily on first
// attach; concurrent first attaches collapse onto the unique
// (distribution_id, user_id) index instead of racing an existence check.
func (r *submissionRepository) AttachFile(ctx context.Context, distributionID, userID uint, fileType, filename string, attachedAt time.Time) (models.Submission, error) {
	var submission models.Submission

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seed := models.Submission{
			DistributionID: distributionID,
			UserID:         userID,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "distribution_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).Create(&seed).Error; err != nil {
			return err
		}

		if err := tx.
			Where("distribution_id = ?", distributionID).
			Where("user_id = ?", userID).
			First(&submission).Error; err != nil {
			return err
		}

		if submission.IsLocked {
			return ErrLockedRow
		}

		updates := map[string]interface{}{"updated_at": attachedAt}
		switch fileType {
		case models.FileTypeResponse:
			updates["response_filename"] = filename
		case models.FileTypeOutputTest:
			updates["output_test_filename"] = filename
		default:
			return fmt.Errorf("unknown file type %q", fileType)
		}
		if submission.SubmittedAt == nil {
			updates["submitted_at"] = attachedAt
		}

		return tx.Model(&models.Submission{}).
			Where("id = ?", submission.ID).
			Updates(updates).Error
	})
	if err != nil {
		return models.Submission{}, err
	}

	return r.GetByID(ctx, submission.ID)
}

// SetLocked flips the lock flag. Writing the current value again is a no-op,
// which keeps lock and unlock idempotent.
func (r *submissionRepository) SetLocked(ctx context.Context, id uint, locked bool) error {
	result := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("id = ?", id).
		Update("is_locked", locked)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.Submission{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
	}
	return nil
}
