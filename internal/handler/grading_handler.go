package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/labsyncpro/labsync-api/internal/dto"
	"github.com/labsyncpro/labsync-api/internal/service"
	"github.com/labsyncpro/labsync-api/internal/utils"
)

// GradingHandler wires grading endpoints for instructors and admins.
type GradingHandler struct {
	service   service.GradingService
	dashboard service.DashboardService
	logger    zerolog.Logger
}

// NewGradingHandler constructs the handler.
func NewGradingHandler(service service.GradingService, dashboard service.DashboardService, logger zerolog.Logger) *GradingHandler {
	return &GradingHandler{
		service:   service,
		dashboard: dashboard,
		logger:    logger.With().Str("component", "grading_handler").Logger(),
	}
}

// Register attaches grading endpoints to the router group.
func (h *GradingHandler) Register(router fiber.Router) {
	router.Put("/:id/grade", h.grade)
	router.Get("/:id/grade", h.get)
}

// RegisterDistribution attaches the per-distribution grade listing.
func (h *GradingHandler) RegisterDistribution(router fiber.Router) {
	router.Get("/:id/grades", h.listByDistribution)
}

func (h *GradingHandler) grade(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.GradeSubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	actor := activityActorFromContext(c)
	submission, err := h.service.Grade(c.Context(), id, payload, actor)
	if err != nil {
		var validationErrors validator.ValidationErrors
		switch {
		case errors.Is(err, service.ErrSubmissionNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "submission not found")
		case errors.Is(err, service.ErrInvalidScore):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.As(err, &validationErrors):
			return utils.SendValidationError(c, validationErrors)
		default:
			requestLogger(h.logger, c).Error().Err(err).Uint("submission_id", id).Msg("failed to grade submission")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to grade submission")
		}
	}

	if h.dashboard != nil {
		h.dashboard.Invalidate(c.Context(), submission.UserID)
	}

	return utils.SendSuccess(c, "submission graded", submission)
}

func (h *GradingHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	grade, err := h.service.GetBySubmission(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrSubmissionNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "grade not found")
		}
		h.logger.Error().Err(err).Uint("submission_id", id).Msg("failed to load grade")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load grade")
	}

	return utils.SendSuccess(c, "grade retrieved", grade)
}

func (h *GradingHandler) listByDistribution(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var validationErrors validator.ValidationErrors
	grades, err := h.service.ListByDistribution(c.Context(), id)
	if err != nil {
		if errors.As(err, &validationErrors) {
			return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
		}
		h.logger.Error().Err(err).Uint("distribution_id", id).Msg("failed to list grades")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list grades")
	}

	return utils.SendSuccess(c, "grades retrieved", grades)
}
