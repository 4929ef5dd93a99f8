package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/labsyncpro/labsync-api/internal/dto"
	"github.com/labsyncpro/labsync-api/internal/grading"
	"github.com/labsyncpro/labsync-api/internal/models"
	"github.com/labsyncpro/labsync-api/internal/observability"
	"github.com/labsyncpro/labsync-api/internal/repository"
)

// ErrInvalidScore indicates a score/max pair failed bounds validation. The
// wrapped message names the specific bound so clients can surface it directly.
var ErrInvalidScore = errors.New("invalid score")

// GradeNotifier pushes grade events to students.
type GradeNotifier interface {
	NotifyGraded(ctx context.Context, submission models.Submission, grade models.Grade) error
}

// GradingService encapsulates grade recording and retrieval.
type GradingService interface {
	Grade(ctx context.Context, submissionID uint, payload dto.GradeSubmitRequest, actor ActivityActor) (dto.SubmissionResponse, error)
	GetBySubmission(ctx context.Context, submissionID uint) (dto.GradeResponse, error)
	ListByDistribution(ctx context.Context, distributionID uint) ([]dto.GradeResponse, error)
}

type gradingService struct {
	grades      repository.GradeRepository
	submissions repository.SubmissionRepository
	scale       grading.Scale
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	activity    ActivityRecorder
	notifier    GradeNotifier
	logger      zerolog.Logger
	now         func() time.Time
}

// NewGradingService constructs the grading service.
func NewGradingService(
	grades repository.GradeRepository,
	submissions repository.SubmissionRepository,
	scale grading.Scale,
	validate *validator.Validate,
	activity ActivityRecorder,
	notifier GradeNotifier,
	logger zerolog.Logger,
) GradingService {
	return &gradingService{
		grades:      grades,
		submissions: submissions,
		scale:       scale,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		activity:    activity,
		notifier:    notifier,
		logger:      logger.With().Str("component", "grading_service").Logger(),
		now:         time.Now,
	}
}

// ValidateScore enforces grading bounds. Each violation carries its own
// message so the API can tell the instructor exactly which bound failed.
func ValidateScore(score, maxScore float64) error {
	if maxScore <= 0 {
		return fmt.Errorf("%w: max score must be greater than zero", ErrInvalidScore)
	}
	if score < 0 {
		return fmt.Errorf("%w: score must not be negative", ErrInvalidScore)
	}
	if score > maxScore {
		return fmt.Errorf("%w: score must not exceed max score", ErrInvalidScore)
	}
	return nil
}

func (s *gradingService) Grade(ctx context.Context, submissionID uint, payload dto.GradeSubmitRequest, actor ActivityActor) (dto.SubmissionResponse, error) {
	tracer := otel.Tracer("github.com/labsyncpro/labsync-api/internal/service/grading")
	ctx, span := tracer.Start(ctx, "grading.record")
	span.SetAttributes(
		attribute.Int64("grading.submission_id", int64(submissionID)),
		attribute.Int64("grading.actor_id", int64(actor.ID)),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SubmissionResponse{}, err
	}

	if err := ValidateScore(payload.Score, payload.MaxScore); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "score_out_of_bounds")
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "submission_not_found")
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_lookup_failed")
		return dto.SubmissionResponse{}, err
	}

	percentage := grading.Percentage(payload.Score, payload.MaxScore)
	letter := strings.TrimSpace(payload.GradeLetterOverride)
	if letter == "" {
		letter = s.scale.Lookup(percentage).Letter
	}

	existed := true
	if _, err := s.grades.GetBySubmission(ctx, submission.ID); err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "grade_lookup_failed")
			return dto.SubmissionResponse{}, err
		}
		existed = false
	}

	grade := models.Grade{
		SubmissionID: submission.ID,
		Score:        payload.Score,
		MaxScore:     payload.MaxScore,
		Percentage:   percentage,
		GradeLetter:  letter,
		Feedback:     s.sanitizer.Sanitize(strings.TrimSpace(payload.Feedback)),
		InstructorID: actor.ID,
		GradedAt:     s.now(),
	}

	stored, err := s.grades.Upsert(ctx, &grade)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "grade_upsert_failed")
		return dto.SubmissionResponse{}, err
	}

	// The first grade freezes further student uploads. Re-grades leave the
	// lock as-is so an explicit unlock survives a correction.
	if !existed {
		if err := s.submissions.SetLocked(ctx, submission.ID, true); err != nil {
			s.logger.Warn().Err(err).Uint("submission_id", submission.ID).Msg("failed to lock submission after first grade")
			span.RecordError(err)
		}
	}

	if s.activity != nil {
		_, _ = s.activity.Record(ctx, ActivityEntry{
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     "submission.graded",
			EntityType: "submission",
			EntityID:   &submission.ID,
			Metadata: map[string]interface{}{
				"submission_id": submission.ID,
				"student_id":    submission.UserID,
				"score":         stored.Score,
				"grade_letter":  stored.GradeLetter,
				"regrade":       existed,
			},
		})
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyGraded(ctx, submission, stored); err != nil {
			s.logger.Warn().Err(err).Uint("submission_id", submission.ID).Msg("failed to notify student of grade")
		}
	}

	observability.GradesRecorded().WithLabelValues(gradeKind(existed)).Inc()
	span.SetAttributes(
		attribute.Float64("grading.score", stored.Score),
		attribute.String("grading.letter", stored.GradeLetter),
		attribute.Bool("grading.regrade", existed),
	)

	refreshed, err := s.submissions.GetByID(ctx, submission.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_reload_failed")
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(refreshed), nil
}

func (s *gradingService) GetBySubmission(ctx context.Context, submissionID uint) (dto.GradeResponse, error) {
	grade, err := s.grades.GetBySubmission(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GradeResponse{}, ErrSubmissionNotFound
		}
		return dto.GradeResponse{}, err
	}

	return dto.NewGradeResponse(grade), nil
}

func (s *gradingService) ListByDistribution(ctx context.Context, distributionID uint) ([]dto.GradeResponse, error) {
	grades, err := s.grades.ListByDistribution(ctx, distributionID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.GradeResponse, 0, len(grades))
	for _, grade := range grades {
		responses = append(responses, dto.NewGradeResponse(grade))
	}

	return responses, nil
}

func gradeKind(existed bool) string {
	if existed {
		return "regrade"
	}
	return "first"
}
