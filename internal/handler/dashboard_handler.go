package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/labsyncpro/labsync-api/internal/service"
	"github.com/labsyncpro/labsync-api/internal/utils"
)

// DashboardHandler exposes the student progress dashboard and the student's
// distribution feed.
type DashboardHandler struct {
	dashboard     service.DashboardService
	distributions service.DistributionService
	users         service.UserService
	logger        zerolog.Logger
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(dashboard service.DashboardService, distributions service.DistributionService, users service.UserService, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboard:     dashboard,
		distributions: distributions,
		users:         users,
		logger:        logger.With().Str("component", "dashboard_handler").Logger(),
	}
}

// Register attaches the student-facing routes.
func (h *DashboardHandler) Register(router fiber.Router) {
	router.Get("/dashboard", h.dashboardView)
	router.Get("/distributions", h.distributionFeed)
}

func (h *DashboardHandler) dashboardView(c *fiber.Ctx) error {
	studentID := userIDFromContext(c)
	if studentID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	dashboard, err := h.dashboard.GetDashboard(c.Context(), studentID)
	if err != nil {
		if errors.Is(err, service.ErrStudentNotEnrolled) {
			return utils.SendError(c, fiber.StatusNotFound, "student is not enrolled in a class")
		}
		requestLogger(h.logger, c).Error().Err(err).Uint("student_id", studentID).Msg("failed to build dashboard")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to build dashboard")
	}

	return utils.SendSuccess(c, "dashboard retrieved", dashboard)
}

func (h *DashboardHandler) distributionFeed(c *fiber.Ctx) error {
	studentID := userIDFromContext(c)
	if studentID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	student, err := h.users.Get(c.Context(), studentID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "user not found")
		}
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load user")
	}
	if student.ClassID == nil {
		return utils.SendError(c, fiber.StatusNotFound, "student is not enrolled in a class")
	}

	distributions, err := h.distributions.ListForStudent(c.Context(), studentID, *student.ClassID, time.Now())
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Uint("student_id", studentID).Msg("failed to list distributions")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list distributions")
	}

	return utils.SendSuccess(c, "distributions retrieved", distributions)
}
