package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/labsyncpro/labsync-api/internal/models"
)

// ClassRepository resolves class and group rosters for audience checks.
type ClassRepository interface {
	GetByID(ctx context.Context, id uint) (models.Class, error)
	Roster(ctx context.Context, classID uint) ([]models.User, error)
	GroupMembers(ctx context.Context, groupID uint) ([]models.User, error)
	GroupBelongsToClass(ctx context.Context, groupID, classID uint) (bool, error)
	IsStudentInClass(ctx context.Context, userID, classID uint) (bool, error)
	IsStudentInGroup(ctx context.Context, userID, groupID uint) (bool, error)
}

type classRepository struct {
	db *gorm.DB
}

// NewClassRepository instantiates the repository.
func NewClassRepository(db *gorm.DB) ClassRepository {
	return &classRepository{db: db}
}

func (r *classRepository) GetByID(ctx context.Context, id uint) (models.Class, error) {
	var class models.Class
	if err := r.db.WithContext(ctx).First(&class, id).Error; err != nil {
		return models.Class{}, err
	}

	return class, nil
}

func (r *classRepository) Roster(ctx context.Context, classID uint) ([]models.User, error) {
	var students []models.User
	if err := r.db.WithContext(ctx).
		Where("class_id = ?", classID).
		Where("role = ?", models.RoleStudent).
		Find(&students).Error; err != nil {
		return nil, err
	}

	return students, nil
}

func (r *classRepository) GroupMembers(ctx context.Context, groupID uint) ([]models.User, error) {
	var members []models.User
	if err := r.db.WithContext(ctx).Model(&models.User{}).
		Joins("JOIN group_members ON group_members.user_id = users.id").
		Where("group_members.group_id = ?", groupID).
		Find(&members).Error; err != nil {
		return nil, err
	}

	return members, nil
}

func (r *classRepository) GroupBelongsToClass(ctx context.Context, groupID, classID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Group{}).
		Where("id = ?", groupID).
		Where("class_id = ?", classID).
		Count(&count).Error
	return count > 0, err
}

func (r *classRepository) IsStudentInClass(ctx context.Context, userID, classID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Where("class_id = ?", classID).
		Count(&count).Error
	return count > 0, err
}

func (r *classRepository) IsStudentInGroup(ctx context.Context, userID, groupID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.GroupMember{}).
		Where("user_id = ?", userID).
		Where("group_id = ?", groupID).
		Count(&count).Error
	return count > 0, err
}
