package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/labsyncpro/labsync-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Class{},
		&models.Group{},
		&models.GroupMember{},
		&models.Assignment{},
		&models.AssignmentDistribution{},
		&models.Submission{},
		&models.Grade{},
	))
	return db
}

func seedDistribution(t *testing.T, db *gorm.DB) models.AssignmentDistribution {
	t.Helper()

	assignment := models.Assignment{Name: "Lab 3", Status: models.AssignmentStatusPublished, CreatedBy: 1}
	require.NoError(t, db.Create(&assignment).Error)

	distribution := models.AssignmentDistribution{
		AssignmentID:  assignment.ID,
		ClassID:       1,
		AudienceType:  models.AudienceClass,
		ScheduledDate: time.Now().Add(-time.Hour),
		Deadline:      time.Now().Add(24 * time.Hour),
		Status:        models.DistributionStatusAssigned,
		CreatedBy:     1,
	}
	require.NoError(t, db.Create(&distribution).Error)
	return distribution
}

func TestSubmissionRepositoryAttachCreatesRowLazily(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)
	distribution := seedDistribution(t, db)

	attachedAt := time.Now().UTC().Truncate(time.Second)
	submission, err := repo.AttachFile(context.Background(), distribution.ID, 7, models.FileTypeResponse, "answers.pdf", attachedAt)
	require.NoError(t, err)
	require.NotZero(t, submission.ID)
	require.NotNil(t, submission.ResponseFilename)
	require.Equal(t, "answers.pdf", *submission.ResponseFilename)
	require.Nil(t, submission.OutputTestFilename)
	require.NotNil(t, submission.SubmittedAt)
	require.False(t, submission.IsComplete())

	// Second attach reuses the same row and leaves submitted_at untouched.
	later := attachedAt.Add(time.Hour)
	updated, err := repo.AttachFile(context.Background(), distribution.ID, 7, models.FileTypeOutputTest, "output.txt", later)
	require.NoError(t, err)
	require.Equal(t, submission.ID, updated.ID)
	require.True(t, updated.IsComplete())
	require.Equal(t, submission.SubmittedAt.Unix(), updated.SubmittedAt.Unix())

	var count int64
	require.NoError(t, db.Model(&models.Submission{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestSubmissionRepositoryAttachRejectsLockedRow(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)
	distribution := seedDistribution(t, db)

	submission, err := repo.AttachFile(context.Background(), distribution.ID, 7, models.FileTypeResponse, "answers.pdf", time.Now())
	require.NoError(t, err)

	require.NoError(t, repo.SetLocked(context.Background(), submission.ID, true))

	_, err = repo.AttachFile(context.Background(), distribution.ID, 7, models.FileTypeOutputTest, "output.txt", time.Now())
	require.ErrorIs(t, err, ErrLockedRow)
}

func TestSubmissionRepositorySetLockedIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)
	distribution := seedDistribution(t, db)

	submission, err := repo.AttachFile(context.Background(), distribution.ID, 7, models.FileTypeResponse, "answers.pdf", time.Now())
	require.NoError(t, err)

	require.NoError(t, repo.SetLocked(context.Background(), submission.ID, true))
	require.NoError(t, repo.SetLocked(context.Background(), submission.ID, true))

	locked, err := repo.GetByID(context.Background(), submission.ID)
	require.NoError(t, err)
	require.True(t, locked.IsLocked)

	require.NoError(t, repo.SetLocked(context.Background(), submission.ID, false))
	unlocked, err := repo.GetByID(context.Background(), submission.ID)
	require.NoError(t, err)
	require.False(t, unlocked.IsLocked)
}

func TestSubmissionRepositorySetLockedMissingRow(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)

	err := repo.SetLocked(context.Background(), 999, true)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
