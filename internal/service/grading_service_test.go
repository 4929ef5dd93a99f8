package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/labsyncpro/labsync-api/internal/dto"
	"github.com/labsyncpro/labsync-api/internal/grading"
	"github.com/labsyncpro/labsync-api/internal/models"
	"github.com/labsyncpro/labsync-api/internal/repository"
)

type fakeGradeRepo struct {
	grades      map[uint]models.Grade
	nextID      uint
	upsertCalls int
}

func newFakeGradeRepo() *fakeGradeRepo {
	return &fakeGradeRepo{grades: map[uint]models.Grade{}, nextID: 1}
}

func (f *fakeGradeRepo) GetBySubmission(ctx context.Context, submissionID uint) (models.Grade, error) {
	grade, ok := f.grades[submissionID]
	if !ok {
		return models.Grade{}, gorm.ErrRecordNotFound
	}
	return grade, nil
}

func (f *fakeGradeRepo) Upsert(ctx context.Context, grade *models.Grade) (models.Grade, error) {
	f.upsertCalls++
	if existing, ok := f.grades[grade.SubmissionID]; ok {
		grade.ID = existing.ID
	} else {
		grade.ID = f.nextID
		f.nextID++
	}
	f.grades[grade.SubmissionID] = *grade
	return *grade, nil
}

func (f *fakeGradeRepo) CountByDistribution(ctx context.Context, distributionID uint) (int64, error) {
	return int64(len(f.grades)), nil
}

func (f *fakeGradeRepo) ListByDistribution(ctx context.Context, distributionID uint) ([]models.Grade, error) {
	grades := make([]models.Grade, 0, len(f.grades))
	for _, grade := range f.grades {
		grades = append(grades, grade)
	}
	return grades, nil
}

type fakeSubmissionRepo struct {
	submissions map[uint]models.Submission
	lockCalls   int
	grades      *fakeGradeRepo
}

func newFakeSubmissionRepo(grades *fakeGradeRepo, submissions ...models.Submission) *fakeSubmissionRepo {
	repo := &fakeSubmissionRepo{submissions: map[uint]models.Submission{}, grades: grades}
	for _, submission := range submissions {
		repo.submissions[submission.ID] = submission
	}
	return repo
}

func (f *fakeSubmissionRepo) List(ctx context.Context, filter repository.SubmissionFilter) ([]models.Submission, error) {
	out := make([]models.Submission, 0, len(f.submissions))
	for _, submission := range f.submissions {
		if filter.UserID != nil && submission.UserID != *filter.UserID {
			continue
		}
		if filter.DistributionID != nil && submission.DistributionID != *filter.DistributionID {
			continue
		}
		out = append(out, submission)
	}
	return out, nil
}

func (f *fakeSubmissionRepo) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	submission, ok := f.submissions[id]
	if !ok {
		return models.Submission{}, gorm.ErrRecordNotFound
	}
	if f.grades != nil {
		if grade, err := f.grades.GetBySubmission(ctx, id); err == nil {
			submission.Grade = &grade
		}
	}
	return submission, nil
}

func (f *fakeSubmissionRepo) GetByDistributionAndUser(ctx context.Context, distributionID, userID uint) (models.Submission, error) {
	for _, submission := range f.submissions {
		if submission.DistributionID == distributionID && submission.UserID == userID {
			return submission, nil
		}
	}
	return models.Submission{}, gorm.ErrRecordNotFound
}

func (f *fakeSubmissionRepo) AttachFile(ctx context.Context, distributionID, userID uint, fileType, filename string, attachedAt time.Time) (models.Submission, error) {
	for id, submission := range f.submissions {
		if submission.DistributionID != distributionID || submission.UserID != userID {
			continue
		}
		if submission.IsLocked {
			return models.Submission{}, repository.ErrLockedRow
		}
		switch fileType {
		case models.FileTypeResponse:
			submission.ResponseFilename = &filename
		case models.FileTypeOutputTest:
			submission.OutputTestFilename = &filename
		}
		if submission.SubmittedAt == nil {
			submission.SubmittedAt = &attachedAt
		}
		f.submissions[id] = submission
		return submission, nil
	}

	submission := models.Submission{
		ID:             uint(len(f.submissions) + 1),
		DistributionID: distributionID,
		UserID:         userID,
		SubmittedAt:    &attachedAt,
	}
	switch fileType {
	case models.FileTypeResponse:
		submission.ResponseFilename = &filename
	case models.FileTypeOutputTest:
		submission.OutputTestFilename = &filename
	}
	f.submissions[submission.ID] = submission
	return submission, nil
}

func (f *fakeSubmissionRepo) SetLocked(ctx context.Context, id uint, locked bool) error {
	submission, ok := f.submissions[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if submission.IsLocked != locked {
		f.lockCalls++
	}
	submission.IsLocked = locked
	f.submissions[id] = submission
	return nil
}

func newGradingService(grades *fakeGradeRepo, submissions *fakeSubmissionRepo) GradingService {
	validate := validator.New(validator.WithRequiredStructEnabled())
	return NewGradingService(grades, submissions, grading.DefaultScale(), validate, nil, nil, testLogger())
}

func TestGradingServiceRejectsOutOfBoundsScores(t *testing.T) {
	grades := newFakeGradeRepo()
	submissions := newFakeSubmissionRepo(grades, models.Submission{ID: 1, DistributionID: 1, UserID: 5})
	svc := newGradingService(grades, submissions)
	actor := ActivityActor{ID: 7, Role: "instructor"}

	cases := []struct {
		name    string
		payload dto.GradeSubmitRequest
		message string
	}{
		{"zero max", dto.GradeSubmitRequest{Score: 10, MaxScore: 0}, "max score"},
		{"negative max", dto.GradeSubmitRequest{Score: 10, MaxScore: -5}, "max score"},
		{"score above max", dto.GradeSubmitRequest{Score: 101, MaxScore: 100}, "exceed"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Grade(context.Background(), 1, tc.payload, actor)
			require.Error(t, err)
			if tc.payload.MaxScore > 0 {
				require.ErrorIs(t, err, ErrInvalidScore)
				require.Contains(t, err.Error(), tc.message)
			}
			require.Equal(t, 0, grades.upsertCalls)
		})
	}
}

func TestGradingServiceNegativeScoreMessage(t *testing.T) {
	err := ValidateScore(-1, 100)
	require.ErrorIs(t, err, ErrInvalidScore)
	require.Contains(t, err.Error(), "negative")

	err = ValidateScore(0, 0)
	require.ErrorIs(t, err, ErrInvalidScore)
	require.Contains(t, err.Error(), "greater than zero")
}

func TestGradingServiceFirstGradeLocksSubmission(t *testing.T) {
	grades := newFakeGradeRepo()
	submissions := newFakeSubmissionRepo(grades, models.Submission{ID: 1, DistributionID: 1, UserID: 5})
	svc := newGradingService(grades, submissions)

	result, err := svc.Grade(context.Background(), 1, dto.GradeSubmitRequest{Score: 87, MaxScore: 100, Feedback: "solid work"}, ActivityActor{ID: 7, Role: "instructor"})
	require.NoError(t, err)
	require.True(t, result.IsLocked)
	require.NotNil(t, result.Grade)
	require.Equal(t, "B+", result.Grade.GradeLetter)
	require.InDelta(t, 87.0, result.Grade.Percentage, 1e-9)
	require.Equal(t, 1, submissions.lockCalls)
}

func TestGradingServiceRegradeKeepsRowAndLockState(t *testing.T) {
	grades := newFakeGradeRepo()
	submissions := newFakeSubmissionRepo(grades, models.Submission{ID: 1, DistributionID: 1, UserID: 5})
	svc := newGradingService(grades, submissions)
	actor := ActivityActor{ID: 7, Role: "instructor"}

	first, err := svc.Grade(context.Background(), 1, dto.GradeSubmitRequest{Score: 50, MaxScore: 100}, actor)
	require.NoError(t, err)

	// Instructor unlocks for a resubmission, then corrects the grade. The
	// correction must not re-apply the lock.
	require.NoError(t, submissions.SetLocked(context.Background(), 1, false))

	second, err := svc.Grade(context.Background(), 1, dto.GradeSubmitRequest{Score: 93, MaxScore: 100}, actor)
	require.NoError(t, err)
	require.Equal(t, first.Grade.ID, second.Grade.ID)
	require.Equal(t, "A", second.Grade.GradeLetter)
	require.False(t, second.IsLocked)
	require.Len(t, grades.grades, 1)
}

func TestGradingServiceLetterOverride(t *testing.T) {
	grades := newFakeGradeRepo()
	submissions := newFakeSubmissionRepo(grades, models.Submission{ID: 1, DistributionID: 1, UserID: 5})
	svc := newGradingService(grades, submissions)

	result, err := svc.Grade(context.Background(), 1, dto.GradeSubmitRequest{
		Score:               105,
		MaxScore:            110,
		GradeLetterOverride: "A++",
	}, ActivityActor{ID: 7, Role: "instructor"})
	require.NoError(t, err)
	require.Equal(t, "A++", result.Grade.GradeLetter)
}

func TestGradingServiceSanitizesFeedback(t *testing.T) {
	grades := newFakeGradeRepo()
	submissions := newFakeSubmissionRepo(grades, models.Submission{ID: 1, DistributionID: 1, UserID: 5})
	svc := newGradingService(grades, submissions)

	result, err := svc.Grade(context.Background(), 1, dto.GradeSubmitRequest{
		Score:    80,
		MaxScore: 100,
		Feedback: "<script>alert(1)</script>good effort",
	}, ActivityActor{ID: 7, Role: "instructor"})
	require.NoError(t, err)
	require.Equal(t, "good effort", result.Grade.Feedback)
}

func TestGradingServiceSubmissionNotFound(t *testing.T) {
	grades := newFakeGradeRepo()
	submissions := newFakeSubmissionRepo(grades)
	svc := newGradingService(grades, submissions)

	_, err := svc.Grade(context.Background(), 99, dto.GradeSubmitRequest{Score: 50, MaxScore: 100}, ActivityActor{ID: 7, Role: "instructor"})
	require.ErrorIs(t, err, ErrSubmissionNotFound)
}
