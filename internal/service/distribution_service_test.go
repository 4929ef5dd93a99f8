package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/labsyncpro/labsync-api/internal/dto"
	"github.com/labsyncpro/labsync-api/internal/models"
	"github.com/labsyncpro/labsync-api/internal/repository"
)

type fakeDistributionRepo struct {
	distributions map[uint]models.AssignmentDistribution
	nextID        uint
	deleteCalls   int
}

func newFakeDistributionRepo(distributions ...models.AssignmentDistribution) *fakeDistributionRepo {
	repo := &fakeDistributionRepo{distributions: map[uint]models.AssignmentDistribution{}, nextID: 1}
	for _, distribution := range distributions {
		repo.distributions[distribution.ID] = distribution
		if distribution.ID >= repo.nextID {
			repo.nextID = distribution.ID + 1
		}
	}
	return repo
}

func (f *fakeDistributionRepo) List(ctx context.Context, filter repository.DistributionFilter) ([]models.AssignmentDistribution, int64, error) {
	out := make([]models.AssignmentDistribution, 0, len(f.distributions))
	for _, distribution := range f.distributions {
		out = append(out, distribution)
	}
	return out, int64(len(out)), nil
}

func (f *fakeDistributionRepo) ListForStudent(ctx context.Context, userID, classID uint) ([]models.AssignmentDistribution, error) {
	out := make([]models.AssignmentDistribution, 0, len(f.distributions))
	for _, distribution := range f.distributions {
		if distribution.ClassID == classID {
			out = append(out, distribution)
		}
	}
	return out, nil
}

func (f *fakeDistributionRepo) GetByID(ctx context.Context, id uint) (models.AssignmentDistribution, error) {
	distribution, ok := f.distributions[id]
	if !ok {
		return models.AssignmentDistribution{}, gorm.ErrRecordNotFound
	}
	return distribution, nil
}

func (f *fakeDistributionRepo) Create(ctx context.Context, distribution *models.AssignmentDistribution) error {
	distribution.ID = f.nextID
	f.nextID++
	f.distributions[distribution.ID] = *distribution
	return nil
}

func (f *fakeDistributionRepo) Update(ctx context.Context, distribution *models.AssignmentDistribution) error {
	f.distributions[distribution.ID] = *distribution
	return nil
}

func (f *fakeDistributionRepo) Delete(ctx context.Context, id uint) error {
	if _, ok := f.distributions[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	f.deleteCalls++
	delete(f.distributions, id)
	return nil
}

type fakeAssignmentRepo struct {
	assignments map[uint]models.Assignment
}

func newFakeAssignmentRepo(assignments ...models.Assignment) *fakeAssignmentRepo {
	repo := &fakeAssignmentRepo{assignments: map[uint]models.Assignment{}}
	for _, assignment := range assignments {
		repo.assignments[assignment.ID] = assignment
	}
	return repo
}

func (f *fakeAssignmentRepo) List(ctx context.Context, filter repository.AssignmentFilter) ([]models.Assignment, int64, error) {
	out := make([]models.Assignment, 0, len(f.assignments))
	for _, assignment := range f.assignments {
		out = append(out, assignment)
	}
	return out, int64(len(out)), nil
}

func (f *fakeAssignmentRepo) GetByID(ctx context.Context, id uint) (models.Assignment, error) {
	assignment, ok := f.assignments[id]
	if !ok {
		return models.Assignment{}, gorm.ErrRecordNotFound
	}
	return assignment, nil
}

func (f *fakeAssignmentRepo) Create(ctx context.Context, assignment *models.Assignment) error {
	assignment.ID = uint(len(f.assignments) + 1)
	f.assignments[assignment.ID] = *assignment
	return nil
}

func (f *fakeAssignmentRepo) Update(ctx context.Context, assignment *models.Assignment) error {
	f.assignments[assignment.ID] = *assignment
	return nil
}

func (f *fakeAssignmentRepo) Delete(ctx context.Context, id uint) error {
	if _, ok := f.assignments[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.assignments, id)
	return nil
}

type fakeClassRepo struct {
	classes      map[uint]models.Class
	classMembers map[uint][]uint
	groupMembers map[uint][]uint
	groupClass   map[uint]uint
}

func newFakeClassRepo() *fakeClassRepo {
	return &fakeClassRepo{
		classes:      map[uint]models.Class{},
		classMembers: map[uint][]uint{},
		groupMembers: map[uint][]uint{},
		groupClass:   map[uint]uint{},
	}
}

func (f *fakeClassRepo) GetByID(ctx context.Context, id uint) (models.Class, error) {
	class, ok := f.classes[id]
	if !ok {
		return models.Class{}, gorm.ErrRecordNotFound
	}
	return class, nil
}

func (f *fakeClassRepo) Roster(ctx context.Context, classID uint) ([]models.User, error) {
	members := f.classMembers[classID]
	users := make([]models.User, 0, len(members))
	for _, id := range members {
		users = append(users, models.User{ID: id, Role: models.RoleStudent})
	}
	return users, nil
}

func (f *fakeClassRepo) GroupMembers(ctx context.Context, groupID uint) ([]models.User, error) {
	members := f.groupMembers[groupID]
	users := make([]models.User, 0, len(members))
	for _, id := range members {
		users = append(users, models.User{ID: id, Role: models.RoleStudent})
	}
	return users, nil
}

func (f *fakeClassRepo) GroupBelongsToClass(ctx context.Context, groupID, classID uint) (bool, error) {
	return f.groupClass[groupID] == classID, nil
}

func (f *fakeClassRepo) IsStudentInClass(ctx context.Context, userID, classID uint) (bool, error) {
	for _, id := range f.classMembers[classID] {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeClassRepo) IsStudentInGroup(ctx context.Context, userID, groupID uint) (bool, error) {
	for _, id := range f.groupMembers[groupID] {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func distributionFixture(t *testing.T) (DistributionService, *fakeDistributionRepo, *fakeGradeRepo, *fakeClassRepo) {
	t.Helper()

	grades := newFakeGradeRepo()
	submissions := newFakeSubmissionRepo(grades)
	distributions := newFakeDistributionRepo()
	assignments := newFakeAssignmentRepo(models.Assignment{ID: 1, Name: "Lab 1", Status: models.AssignmentStatusPublished})
	classes := newFakeClassRepo()
	classes.classes[1] = models.Class{ID: 1, Name: "10A"}
	classes.classMembers[1] = []uint{5, 6}
	classes.groupMembers[2] = []uint{5}
	classes.groupClass[2] = 1

	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewDistributionService(distributions, assignments, submissions, grades, classes, validate, nil, nil, testLogger())
	return svc, distributions, grades, classes
}

func TestDistributionServiceRejectsInvertedSchedule(t *testing.T) {
	svc, _, _, _ := distributionFixture(t)
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	_, err := svc.Create(context.Background(), dto.DistributionCreateRequest{
		AssignmentID:  1,
		ClassID:       1,
		AudienceType:  models.AudienceClass,
		ScheduledDate: base.Format(time.RFC3339),
		Deadline:      base.Format(time.RFC3339),
	}, ActivityActor{ID: 9, Role: "instructor"})
	require.ErrorIs(t, err, models.ErrScheduleInverted)
}

func TestDistributionServiceRejectsAudienceMismatch(t *testing.T) {
	svc, _, _, _ := distributionFixture(t)
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	// A class-wide push must not carry a group target.
	_, err := svc.Create(context.Background(), dto.DistributionCreateRequest{
		AssignmentID:  1,
		ClassID:       1,
		AudienceType:  models.AudienceClass,
		GroupID:       ptrUint(2),
		ScheduledDate: base.Format(time.RFC3339),
		Deadline:      base.Add(48 * time.Hour).Format(time.RFC3339),
	}, ActivityActor{ID: 9, Role: "instructor"})
	require.ErrorIs(t, err, models.ErrAudienceMismatch)
}

func TestDistributionServiceRejectsForeignGroup(t *testing.T) {
	svc, _, _, classes := distributionFixture(t)
	classes.groupClass[3] = 99
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	_, err := svc.Create(context.Background(), dto.DistributionCreateRequest{
		AssignmentID:  1,
		ClassID:       1,
		AudienceType:  models.AudienceGroup,
		GroupID:       ptrUint(3),
		ScheduledDate: base.Format(time.RFC3339),
		Deadline:      base.Add(48 * time.Hour).Format(time.RFC3339),
	}, ActivityActor{ID: 9, Role: "instructor"})
	require.ErrorIs(t, err, ErrAudienceNotInClass)
}

func TestDistributionServiceCreateStartsAssigned(t *testing.T) {
	svc, distributions, _, _ := distributionFixture(t)
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	result, err := svc.Create(context.Background(), dto.DistributionCreateRequest{
		AssignmentID:  1,
		ClassID:       1,
		AudienceType:  models.AudienceGroup,
		GroupID:       ptrUint(2),
		ScheduledDate: base.Format(time.RFC3339),
		Deadline:      base.Add(48 * time.Hour).Format(time.RFC3339),
	}, ActivityActor{ID: 9, Role: "instructor"})
	require.NoError(t, err)
	require.Equal(t, models.DistributionStatusAssigned, result.Status)
	require.Len(t, distributions.distributions, 1)
}

func TestDistributionServiceDeleteBlockedByGrades(t *testing.T) {
	svc, distributions, grades, _ := distributionFixture(t)
	distributions.distributions[4] = models.AssignmentDistribution{ID: 4, AssignmentID: 1, ClassID: 1, AudienceType: models.AudienceClass}
	grades.grades[10] = models.Grade{ID: 1, SubmissionID: 10, Score: 80, MaxScore: 100}

	err := svc.Delete(context.Background(), 4, ActivityActor{ID: 9, Role: "admin"})
	require.ErrorIs(t, err, ErrDistributionHasGrades)
	require.Equal(t, 0, distributions.deleteCalls)
}

func TestDistributionServiceDeleteCascades(t *testing.T) {
	svc, distributions, _, _ := distributionFixture(t)
	distributions.distributions[4] = models.AssignmentDistribution{ID: 4, AssignmentID: 1, ClassID: 1, AudienceType: models.AudienceClass}

	err := svc.Delete(context.Background(), 4, ActivityActor{ID: 9, Role: "admin"})
	require.NoError(t, err)
	require.Equal(t, 1, distributions.deleteCalls)
}

func TestDistributionServiceUnpublishedAssignmentRejected(t *testing.T) {
	grades := newFakeGradeRepo()
	submissions := newFakeSubmissionRepo(grades)
	distributions := newFakeDistributionRepo()
	assignments := newFakeAssignmentRepo(models.Assignment{ID: 1, Name: "Draft lab", Status: models.AssignmentStatusDraft})
	classes := newFakeClassRepo()
	classes.classes[1] = models.Class{ID: 1}

	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewDistributionService(distributions, assignments, submissions, grades, classes, validate, nil, nil, testLogger())

	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	_, err := svc.Create(context.Background(), dto.DistributionCreateRequest{
		AssignmentID:  1,
		ClassID:       1,
		AudienceType:  models.AudienceClass,
		ScheduledDate: base.Format(time.RFC3339),
		Deadline:      base.Add(48 * time.Hour).Format(time.RFC3339),
	}, ActivityActor{ID: 9, Role: "instructor"})
	require.ErrorIs(t, err, ErrAssignmentNotDistributable)
}
