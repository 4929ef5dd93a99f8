package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/labsyncpro/labsync-api/internal/dto"
	"github.com/labsyncpro/labsync-api/internal/models"
	"github.com/labsyncpro/labsync-api/internal/observability"
	"github.com/labsyncpro/labsync-api/internal/repository"
)

// ErrSubmissionNotFound indicates a submission could not be found.
var ErrSubmissionNotFound = errors.New("submission not found")

// ErrSubmissionLocked indicates grading has started or an admin applied a lock.
var ErrSubmissionLocked = errors.New("submission is locked")

// ErrUploadWindowClosed indicates the upload window has not opened or the
// distribution was cancelled. Lateness is not part of this error: late uploads
// are accepted and flagged.
var ErrUploadWindowClosed = errors.New("upload window is closed")

// ErrNotInAudience indicates the student is not part of the distribution's audience.
var ErrNotInAudience = errors.New("student is not in the distribution audience")

// ErrUploadTooLarge indicates the artifact exceeds the configured size limit.
var ErrUploadTooLarge = errors.New("file exceeds maximum allowed size")

// SubmissionService tracks uploaded artifacts against distributions.
type SubmissionService interface {
	List(ctx context.Context, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error)
	Get(ctx context.Context, id uint) (dto.SubmissionResponse, error)
	Attach(ctx context.Context, payload dto.FileAttachRequest, studentID uint, file *multipart.FileHeader) (dto.AttachResult, error)
	Lock(ctx context.Context, id uint, actor ActivityActor) error
	Unlock(ctx context.Context, id uint, actor ActivityActor) error
}

type submissionService struct {
	submissions   repository.SubmissionRepository
	distributions repository.DistributionRepository
	classes       repository.ClassRepository
	validator     *validator.Validate
	uploader      FileUploader
	activity      ActivityRecorder
	logger        zerolog.Logger
	maxSize       int64
	now           func() time.Time
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(
	submissions repository.SubmissionRepository,
	distributions repository.DistributionRepository,
	classes repository.ClassRepository,
	validate *validator.Validate,
	uploader FileUploader,
	activity ActivityRecorder,
	maxSizeMB int,
	logger zerolog.Logger,
) SubmissionService {
	if maxSizeMB <= 0 {
		maxSizeMB = 25
	}
	return &submissionService{
		submissions:   submissions,
		distributions: distributions,
		classes:       classes,
		validator:     validate,
		uploader:      uploader,
		activity:      activity,
		logger:        logger.With().Str("component", "submission_service").Logger(),
		maxSize:       int64(maxSizeMB) * 1024 * 1024,
		now:           time.Now,
	}
}

// CanUpload reports whether an upload is admissible and whether it would be
// late. Lateness never blocks: the record is kept and grading policy stays
// with the instructor.
func CanUpload(distribution models.AssignmentDistribution, submission *models.Submission, now time.Time) (allowed, late bool) {
	if !distribution.IsOpen(now) || distribution.IsCancelled() {
		return false, false
	}
	if submission != nil && submission.IsLocked {
		return false, false
	}
	return true, distribution.IsPastDeadline(now)
}

func (s *submissionService) List(ctx context.Context, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error) {
	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{
		DistributionID: filter.DistributionID,
		UserID:         filter.UserID,
		Locked:         filter.Locked,
	})
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponseSlice(submissions), nil
}

func (s *submissionService) Get(ctx context.Context, id uint) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) Attach(ctx context.Context, payload dto.FileAttachRequest, studentID uint, file *multipart.FileHeader) (dto.AttachResult, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AttachResult{}, err
	}

	if file == nil {
		return dto.AttachResult{}, fmt.Errorf("submission file is required")
	}
	if file.Size > s.maxSize {
		return dto.AttachResult{}, ErrUploadTooLarge
	}

	distribution, err := s.distributions.GetByID(ctx, payload.DistributionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AttachResult{}, ErrDistributionNotFound
		}
		return dto.AttachResult{}, err
	}

	if err := s.checkAudience(ctx, distribution, studentID); err != nil {
		return dto.AttachResult{}, err
	}

	now := s.now()
	existing := s.findExisting(ctx, distribution.ID, studentID)
	allowed, late := CanUpload(distribution, existing, now)
	if !allowed {
		if existing != nil && existing.IsLocked {
			return dto.AttachResult{}, ErrSubmissionLocked
		}
		return dto.AttachResult{}, ErrUploadWindowClosed
	}

	if err := validateArtifactType(file); err != nil {
		return dto.AttachResult{}, err
	}

	reader, err := file.Open()
	if err != nil {
		return dto.AttachResult{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	// Binary content lives with the storage collaborator, keyed by
	// distribution and artifact kind; this service only tracks metadata.
	objectName := fmt.Sprintf("dist-%d/user-%d/%s-%s", distribution.ID, studentID, payload.FileType, file.Filename)
	if _, err := s.uploader.Upload(ctx, objectName, reader); err != nil {
		return dto.AttachResult{}, fmt.Errorf("failed to upload file: %w", err)
	}

	submission, err := s.submissions.AttachFile(ctx, distribution.ID, studentID, payload.FileType, file.Filename, now)
	if err != nil {
		if errors.Is(err, repository.ErrLockedRow) {
			return dto.AttachResult{}, ErrSubmissionLocked
		}
		return dto.AttachResult{}, err
	}

	observability.SubmissionUploads().WithLabelValues(payload.FileType, lateLabel(late)).Inc()
	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("distribution_id", distribution.ID).
		Str("file_type", payload.FileType).
		Bool("late", late).
		Msg("submission artifact attached")

	return dto.AttachResult{
		Submission: dto.NewSubmissionResponse(submission),
		Late:       late,
	}, nil
}

func (s *submissionService) Lock(ctx context.Context, id uint, actor ActivityActor) error {
	return s.setLock(ctx, id, actor, true, "submission.locked")
}

func (s *submissionService) Unlock(ctx context.Context, id uint, actor ActivityActor) error {
	return s.setLock(ctx, id, actor, false, "submission.unlocked")
}

func (s *submissionService) setLock(ctx context.Context, id uint, actor ActivityActor, locked bool, action string) error {
	if err := s.submissions.SetLocked(ctx, id, locked); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSubmissionNotFound
		}
		return err
	}

	if s.activity != nil {
		_, _ = s.activity.Record(ctx, ActivityEntry{
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     action,
			EntityType: "submission",
			EntityID:   &id,
		})
	}

	return nil
}

func (s *submissionService) checkAudience(ctx context.Context, distribution models.AssignmentDistribution, studentID uint) error {
	switch distribution.AudienceType {
	case models.AudienceClass:
		ok, err := s.classes.IsStudentInClass(ctx, studentID, distribution.ClassID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotInAudience
		}
	case models.AudienceGroup:
		ok, err := s.classes.IsStudentInGroup(ctx, studentID, *distribution.GroupID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotInAudience
		}
	case models.AudienceIndividual:
		if *distribution.UserID != studentID {
			return ErrNotInAudience
		}
	}
	return nil
}

func (s *submissionService) findExisting(ctx context.Context, distributionID, studentID uint) *models.Submission {
	submission, err := s.submissions.GetByDistributionAndUser(ctx, distributionID, studentID)
	if err != nil {
		return nil
	}
	return &submission
}

func lateLabel(late bool) string {
	if late {
		return "late"
	}
	return "on_time"
}

func validateArtifactType(file *multipart.FileHeader) error {
	reader, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	mime, err := mimetype.DetectReader(reader)
	if err != nil {
		return fmt.Errorf("failed to detect file type: %w", err)
	}

	allowed := []string{"application/pdf", "application/zip", "application/x-zip-compressed", "text/plain"}
	for _, a := range allowed {
		if mime.Is(a) {
			return nil
		}
	}

	return fmt.Errorf("unsupported file type: %s", mime.String())
}
