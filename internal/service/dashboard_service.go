package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/labsyncpro/labsync-api/internal/dto"
	"github.com/labsyncpro/labsync-api/internal/grading"
	"github.com/labsyncpro/labsync-api/internal/models"
	"github.com/labsyncpro/labsync-api/internal/repository"
	"github.com/labsyncpro/labsync-api/internal/status"
)

// ErrStudentNotEnrolled indicates the student has no class assignment yet.
var ErrStudentNotEnrolled = errors.New("student is not enrolled in a class")

// DashboardService produces aggregated progress metrics for a student.
type DashboardService interface {
	GetDashboard(ctx context.Context, studentID uint) (dto.StudentDashboardResponse, error)
	Invalidate(ctx context.Context, studentID uint)
}

type dashboardService struct {
	users         repository.UserRepository
	distributions repository.DistributionRepository
	submissions   repository.SubmissionRepository
	scale         grading.Scale
	cache         *redis.Client
	cacheTTL      time.Duration
	logger        zerolog.Logger
	now           func() time.Time
}

// NewDashboardService builds the dashboard aggregator.
func NewDashboardService(
	users repository.UserRepository,
	distributions repository.DistributionRepository,
	submissions repository.SubmissionRepository,
	scale grading.Scale,
	cache *redis.Client,
	ttl time.Duration,
	logger zerolog.Logger,
) DashboardService {
	return &dashboardService{
		users:         users,
		distributions: distributions,
		submissions:   submissions,
		scale:         scale,
		cache:         cache,
		cacheTTL:      ttl,
		logger:        logger.With().Str("component", "dashboard_service").Logger(),
		now:           time.Now,
	}
}

func dashboardCacheKey(studentID uint) string {
	return fmt.Sprintf("dashboard:student:%d", studentID)
}

func (s *dashboardService) GetDashboard(ctx context.Context, studentID uint) (dto.StudentDashboardResponse, error) {
	cacheKey := dashboardCacheKey(studentID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.StudentDashboardResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Uint("student_id", studentID).Msg("dashboard cache hit")
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read dashboard cache")
		}
	}

	student, err := s.users.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentDashboardResponse{}, ErrStudentNotEnrolled
		}
		return dto.StudentDashboardResponse{}, err
	}
	if student.ClassID == nil {
		return dto.StudentDashboardResponse{}, ErrStudentNotEnrolled
	}

	distributions, err := s.distributions.ListForStudent(ctx, studentID, *student.ClassID)
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{UserID: &studentID})
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	response := s.buildResponse(distributions, submissions)

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store dashboard cache")
			}
		}
	}

	return response, nil
}

// Invalidate drops the cached dashboard, typically after an upload or a grade.
func (s *dashboardService) Invalidate(ctx context.Context, studentID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, dashboardCacheKey(studentID)).Err(); err != nil {
		s.logger.Warn().Err(err).Uint("student_id", studentID).Msg("failed to invalidate dashboard cache")
	}
}

func (s *dashboardService) buildResponse(distributions []models.AssignmentDistribution, submissions []models.Submission) dto.StudentDashboardResponse {
	now := s.now()

	submissionByDistribution := map[uint]models.Submission{}
	for _, submission := range submissions {
		submissionByDistribution[submission.DistributionID] = submission
	}

	summary := dto.ProgressSummary{}
	progress := make([]dto.DistributionProgress, 0, len(distributions))
	var percentageTotal, gpaTotal float64

	for _, distribution := range distributions {
		summary.TotalDistributions++

		var resolvedSubmission *models.Submission
		submission, submitted := submissionByDistribution[distribution.ID]
		if submitted {
			resolvedSubmission = &submission
		}

		resolved := status.Resolve(distribution, resolvedSubmission, now)
		switch resolved {
		case status.Upcoming:
			summary.Upcoming++
		case status.Completed:
			summary.Completed++
		case status.Partial:
			summary.Partial++
		case status.Overdue:
			summary.Overdue++
		default:
			summary.Pending++
		}

		item := dto.DistributionProgress{
			DistributionID: distribution.ID,
			AssignmentName: distribution.Assignment.Name,
			ScheduledDate:  distribution.ScheduledDate,
			Deadline:       distribution.Deadline,
			DisplayStatus:  dto.NewDisplayStatus(resolved),
			UpdatedAt:      distribution.UpdatedAt,
		}

		if submitted {
			id := submission.ID
			item.SubmissionID = &id
			item.UpdatedAt = submission.UpdatedAt
			if submission.IsGraded() {
				summary.Graded++
				grade := dto.NewGradeResponse(*submission.Grade)
				item.Grade = &grade
				percentageTotal += submission.Grade.Percentage
				gpaTotal += s.scale.Lookup(submission.Grade.Percentage).GPA
			}
		}

		progress = append(progress, item)
	}

	if summary.Graded > 0 {
		summary.AveragePercentage = grading.Round2(percentageTotal / float64(summary.Graded))
		summary.AverageGPA = grading.Round2(gpaTotal / float64(summary.Graded))
	}

	open := make([]dto.DistributionProgress, 0)
	for _, item := range progress {
		switch status.Status(item.DisplayStatus.Code) {
		case status.Pending, status.Partial, status.Upcoming:
			open = append(open, item)
		}
	}

	recent := progress
	if len(recent) > 5 {
		recent = recent[:5]
	}

	return dto.StudentDashboardResponse{
		Summary: summary,
		Open:    open,
		Recent:  recent,
	}
}
