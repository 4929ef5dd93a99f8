package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/labsyncpro/labsync-api/internal/dto"
	"github.com/labsyncpro/labsync-api/internal/models"
	"github.com/labsyncpro/labsync-api/internal/repository"
	"github.com/labsyncpro/labsync-api/internal/status"
)

// ErrDistributionNotFound indicates the distribution does not exist.
var ErrDistributionNotFound = errors.New("distribution not found")

// ErrDistributionHasGrades blocks deletion once grading has produced rows.
var ErrDistributionHasGrades = errors.New("distribution has graded submissions")

// ErrClassNotFound indicates the target class does not exist.
var ErrClassNotFound = errors.New("class not found")

// ErrAudienceNotInClass indicates the group or student does not belong to the target class.
var ErrAudienceNotInClass = errors.New("audience does not belong to class")

// DistributionService manages the fan-out of assignments to audiences.
type DistributionService interface {
	List(ctx context.Context, req dto.DistributionListRequest, now time.Time) (dto.DistributionListResponse, error)
	ListForStudent(ctx context.Context, userID, classID uint, now time.Time) ([]dto.DistributionResponse, error)
	Get(ctx context.Context, id uint) (dto.DistributionResponse, error)
	Create(ctx context.Context, payload dto.DistributionCreateRequest, actor ActivityActor) (dto.DistributionResponse, error)
	Update(ctx context.Context, id uint, payload dto.DistributionUpdateRequest, actor ActivityActor) (dto.DistributionResponse, error)
	Delete(ctx context.Context, id uint, actor ActivityActor) error
}

// AudienceNotifier fans a distribution event out to the resolved roster.
type AudienceNotifier interface {
	NotifyDistributed(ctx context.Context, distribution models.AssignmentDistribution, students []models.User)
}

type distributionService struct {
	distributions repository.DistributionRepository
	assignments   repository.AssignmentRepository
	submissions   repository.SubmissionRepository
	grades        repository.GradeRepository
	classes       repository.ClassRepository
	validator     *validator.Validate
	activity      ActivityRecorder
	notifier      AudienceNotifier
	logger        zerolog.Logger
	tracer        trace.Tracer
	now           func() time.Time
}

// NewDistributionService constructs the distribution service.
func NewDistributionService(
	distributions repository.DistributionRepository,
	assignments repository.AssignmentRepository,
	submissions repository.SubmissionRepository,
	grades repository.GradeRepository,
	classes repository.ClassRepository,
	validate *validator.Validate,
	activity ActivityRecorder,
	notifier AudienceNotifier,
	logger zerolog.Logger,
) DistributionService {
	return &distributionService{
		distributions: distributions,
		assignments:   assignments,
		submissions:   submissions,
		grades:        grades,
		classes:       classes,
		validator:     validate,
		activity:      activity,
		notifier:      notifier,
		logger:        logger.With().Str("component", "distribution_service").Logger(),
		tracer:        otel.Tracer("github.com/labsyncpro/labsync-api/internal/service/distribution"),
		now:           time.Now,
	}
}

func (s *distributionService) List(ctx context.Context, req dto.DistributionListRequest, now time.Time) (dto.DistributionListResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.DistributionListResponse{}, err
	}

	distributions, total, err := s.distributions.List(ctx, repository.DistributionFilter{
		AssignmentID: req.AssignmentID,
		ClassID:      req.ClassID,
		Status:       req.Status,
		Page:         req.Page,
		PageSize:     req.PageSize,
	})
	if err != nil {
		return dto.DistributionListResponse{}, err
	}

	items := make([]dto.DistributionResponse, 0, len(distributions))
	for _, distribution := range distributions {
		resolved := status.Resolve(distribution, nil, now)
		items = append(items, dto.NewDistributionResponseWithStatus(distribution, resolved))
	}

	return dto.DistributionListResponse{Items: items, Total: total}, nil
}

// ListForStudent resolves every distribution whose audience includes the
// student and classifies each against the student's own submission, so list
// filtering and UI badges share one rule set.
func (s *distributionService) ListForStudent(ctx context.Context, userID, classID uint, now time.Time) ([]dto.DistributionResponse, error) {
	distributions, err := s.distributions.ListForStudent(ctx, userID, classID)
	if err != nil {
		return nil, err
	}

	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{UserID: &userID})
	if err != nil {
		return nil, err
	}

	byDistribution := make(map[uint]*models.Submission, len(submissions))
	for i := range submissions {
		byDistribution[submissions[i].DistributionID] = &submissions[i]
	}

	items := make([]dto.DistributionResponse, 0, len(distributions))
	for _, distribution := range distributions {
		resolved := status.Resolve(distribution, byDistribution[distribution.ID], now)
		items = append(items, dto.NewDistributionResponseWithStatus(distribution, resolved))
	}

	return items, nil
}

func (s *distributionService) Get(ctx context.Context, id uint) (dto.DistributionResponse, error) {
	distribution, err := s.distributions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DistributionResponse{}, ErrDistributionNotFound
		}
		return dto.DistributionResponse{}, err
	}

	return dto.NewDistributionResponse(distribution), nil
}

func (s *distributionService) Create(ctx context.Context, payload dto.DistributionCreateRequest, actor ActivityActor) (dto.DistributionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "distribution.create")
	span.SetAttributes(
		attribute.Int64("distribution.assignment_id", int64(payload.AssignmentID)),
		attribute.String("distribution.audience_type", payload.AudienceType),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.DistributionResponse{}, err
	}

	scheduledDate, err := time.Parse(time.RFC3339, payload.ScheduledDate)
	if err != nil {
		return dto.DistributionResponse{}, fmt.Errorf("invalid scheduled date: %w", err)
	}

	deadline, err := time.Parse(time.RFC3339, payload.Deadline)
	if err != nil {
		return dto.DistributionResponse{}, fmt.Errorf("invalid deadline: %w", err)
	}

	distribution := models.AssignmentDistribution{
		AssignmentID:  payload.AssignmentID,
		ClassID:       payload.ClassID,
		GroupID:       payload.GroupID,
		UserID:        payload.UserID,
		AudienceType:  payload.AudienceType,
		ScheduledDate: scheduledDate,
		Deadline:      deadline,
		Status:        models.DistributionStatusAssigned,
		CreatedBy:     actor.ID,
	}

	if err := distribution.ValidateSchedule(); err != nil {
		return dto.DistributionResponse{}, err
	}
	if err := distribution.ValidateAudience(); err != nil {
		return dto.DistributionResponse{}, err
	}

	assignment, err := s.assignments.GetByID(ctx, payload.AssignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DistributionResponse{}, ErrAssignmentNotFound
		}
		return dto.DistributionResponse{}, err
	}
	if !assignment.IsDistributable() {
		return dto.DistributionResponse{}, ErrAssignmentNotDistributable
	}

	if err := s.checkAudience(ctx, distribution); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "audience_check_failed")
		return dto.DistributionResponse{}, err
	}

	if err := s.distributions.Create(ctx, &distribution); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "distribution_create_failed")
		return dto.DistributionResponse{}, err
	}
	distribution.Assignment = assignment

	if s.activity != nil {
		_, _ = s.activity.Record(ctx, ActivityEntry{
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     "assignment.distributed",
			EntityType: "distribution",
			EntityID:   &distribution.ID,
			Metadata: map[string]interface{}{
				"assignment_id": distribution.AssignmentID,
				"class_id":      distribution.ClassID,
				"audience_type": distribution.AudienceType,
				"deadline":      distribution.Deadline,
			},
		})
	}

	s.notifyAudience(ctx, distribution)

	span.SetAttributes(attribute.Int64("distribution.id", int64(distribution.ID)))
	s.logger.Info().
		Uint("distribution_id", distribution.ID).
		Uint("assignment_id", distribution.AssignmentID).
		Str("audience_type", distribution.AudienceType).
		Msg("assignment distributed")

	return dto.NewDistributionResponse(distribution), nil
}

func (s *distributionService) Update(ctx context.Context, id uint, payload dto.DistributionUpdateRequest, actor ActivityActor) (dto.DistributionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.DistributionResponse{}, err
	}

	distribution, err := s.distributions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DistributionResponse{}, ErrDistributionNotFound
		}
		return dto.DistributionResponse{}, err
	}

	if payload.ScheduledDate != nil {
		scheduledDate, err := time.Parse(time.RFC3339, *payload.ScheduledDate)
		if err != nil {
			return dto.DistributionResponse{}, fmt.Errorf("invalid scheduled date: %w", err)
		}
		distribution.ScheduledDate = scheduledDate
	}

	if payload.Deadline != nil {
		deadline, err := time.Parse(time.RFC3339, *payload.Deadline)
		if err != nil {
			return dto.DistributionResponse{}, fmt.Errorf("invalid deadline: %w", err)
		}
		distribution.Deadline = deadline
	}

	if err := distribution.ValidateSchedule(); err != nil {
		return dto.DistributionResponse{}, err
	}

	if payload.Status != nil {
		distribution.Status = *payload.Status
	}

	if err := s.distributions.Update(ctx, &distribution); err != nil {
		return dto.DistributionResponse{}, err
	}

	if s.activity != nil {
		_, _ = s.activity.Record(ctx, ActivityEntry{
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     "distribution.updated",
			EntityType: "distribution",
			EntityID:   &distribution.ID,
			Metadata:   map[string]interface{}{"status": distribution.Status},
		})
	}

	s.logger.Info().Uint("distribution_id", distribution.ID).Msg("distribution updated")

	return dto.NewDistributionResponse(distribution), nil
}

// Delete removes a distribution and its ungraded submissions. Once any
// submission carries a grade the distribution is frozen and deletion is
// rejected; grades are never removed through the normal flow.
func (s *distributionService) Delete(ctx context.Context, id uint, actor ActivityActor) error {
	if _, err := s.distributions.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDistributionNotFound
		}
		return err
	}

	graded, err := s.grades.CountByDistribution(ctx, id)
	if err != nil {
		return err
	}
	if graded > 0 {
		return ErrDistributionHasGrades
	}

	if err := s.distributions.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDistributionNotFound
		}
		return err
	}

	if s.activity != nil {
		_, _ = s.activity.Record(ctx, ActivityEntry{
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     "distribution.deleted",
			EntityType: "distribution",
			EntityID:   &id,
		})
	}

	s.logger.Info().Uint("distribution_id", id).Msg("distribution deleted")
	return nil
}

func (s *distributionService) checkAudience(ctx context.Context, distribution models.AssignmentDistribution) error {
	if _, err := s.classes.GetByID(ctx, distribution.ClassID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrClassNotFound
		}
		return err
	}

	switch distribution.AudienceType {
	case models.AudienceGroup:
		ok, err := s.classes.GroupBelongsToClass(ctx, *distribution.GroupID, distribution.ClassID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrAudienceNotInClass
		}
	case models.AudienceIndividual:
		ok, err := s.classes.IsStudentInClass(ctx, *distribution.UserID, distribution.ClassID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrAudienceNotInClass
		}
	}

	return nil
}

// notifyAudience resolves the roster and hands it to the notifier. Failures are
// logged, never surfaced: distribution creation already committed.
func (s *distributionService) notifyAudience(ctx context.Context, distribution models.AssignmentDistribution) {
	if s.notifier == nil {
		return
	}

	students, err := s.resolveRoster(ctx, distribution)
	if err != nil {
		s.logger.Warn().Err(err).Uint("distribution_id", distribution.ID).Msg("failed to resolve audience roster")
		return
	}

	s.notifier.NotifyDistributed(ctx, distribution, students)
}

func (s *distributionService) resolveRoster(ctx context.Context, distribution models.AssignmentDistribution) ([]models.User, error) {
	switch distribution.AudienceType {
	case models.AudienceClass:
		return s.classes.Roster(ctx, distribution.ClassID)
	case models.AudienceGroup:
		return s.classes.GroupMembers(ctx, *distribution.GroupID)
	case models.AudienceIndividual:
		return []models.User{{ID: *distribution.UserID}}, nil
	default:
		return nil, fmt.Errorf("unknown audience type %q", distribution.AudienceType)
	}
}
