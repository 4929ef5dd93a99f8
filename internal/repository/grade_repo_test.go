package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/labsyncpro/labsync-api/internal/models"
)

func TestGradeRepositoryUpsertKeepsOriginalRow(t *testing.T) {
	db := setupTestDB(t)
	submissions := NewSubmissionRepository(db)
	grades := NewGradeRepository(db)
	distribution := seedDistribution(t, db)

	submission, err := submissions.AttachFile(context.Background(), distribution.ID, 7, models.FileTypeResponse, "answers.pdf", time.Now())
	require.NoError(t, err)

	first, err := grades.Upsert(context.Background(), &models.Grade{
		SubmissionID: submission.ID,
		Score:        40,
		MaxScore:     50,
		Percentage:   80,
		GradeLetter:  "B-",
		InstructorID: 3,
		GradedAt:     time.Now(),
	})
	require.NoError(t, err)
	require.NotZero(t, first.ID)

	second, err := grades.Upsert(context.Background(), &models.Grade{
		SubmissionID: submission.ID,
		Score:        45,
		MaxScore:     50,
		Percentage:   90,
		GradeLetter:  "A-",
		InstructorID: 3,
		GradedAt:     time.Now(),
	})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID, "re-grade must update in place")
	require.Equal(t, 45.0, second.Score)
	require.Equal(t, "A-", second.GradeLetter)

	var count int64
	require.NoError(t, db.Model(&models.Grade{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestGradeRepositoryCountByDistribution(t *testing.T) {
	db := setupTestDB(t)
	submissions := NewSubmissionRepository(db)
	grades := NewGradeRepository(db)
	distribution := seedDistribution(t, db)

	count, err := grades.CountByDistribution(context.Background(), distribution.ID)
	require.NoError(t, err)
	require.Zero(t, count)

	submission, err := submissions.AttachFile(context.Background(), distribution.ID, 7, models.FileTypeResponse, "answers.pdf", time.Now())
	require.NoError(t, err)

	_, err = grades.Upsert(context.Background(), &models.Grade{
		SubmissionID: submission.ID,
		Score:        10,
		MaxScore:     20,
		Percentage:   50,
		GradeLetter:  "F",
		InstructorID: 3,
		GradedAt:     time.Now(),
	})
	require.NoError(t, err)

	count, err = grades.CountByDistribution(context.Background(), distribution.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}
