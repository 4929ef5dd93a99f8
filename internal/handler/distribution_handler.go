package handler

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/labsyncpro/labsync-api/internal/dto"
	"github.com/labsyncpro/labsync-api/internal/models"
	"github.com/labsyncpro/labsync-api/internal/service"
	"github.com/labsyncpro/labsync-api/internal/utils"
)

// DistributionHandler wires distribution HTTP routes for staff.
type DistributionHandler struct {
	service service.DistributionService
	logger  zerolog.Logger
}

// NewDistributionHandler constructs the handler.
func NewDistributionHandler(service service.DistributionService, logger zerolog.Logger) *DistributionHandler {
	return &DistributionHandler{
		service: service,
		logger:  logger.With().Str("component", "distribution_handler").Logger(),
	}
}

// Register attaches distribution endpoints to the router group.
func (h *DistributionHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Post("", h.create)
	router.Patch("/:id", h.update)
	router.Delete("/:id", h.delete)
}

func (h *DistributionHandler) list(c *fiber.Ctx) error {
	var req dto.DistributionListRequest
	if err := c.QueryParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	distributions, err := h.service.List(c.Context(), req, time.Now())
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "distributions retrieved", distributions)
}

func (h *DistributionHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	distribution, err := h.service.Get(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "distribution retrieved", distribution)
}

func (h *DistributionHandler) create(c *fiber.Ctx) error {
	var payload dto.DistributionCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	distribution, err := h.service.Create(c.Context(), payload, activityActorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "assignment distributed", distribution)
}

func (h *DistributionHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.DistributionUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	distribution, err := h.service.Update(c.Context(), id, payload, activityActorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "distribution updated", distribution)
}

func (h *DistributionHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.Context(), id, activityActorFromContext(c)); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "distribution deleted", fiber.Map{"id": id})
}

func (h *DistributionHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrDistributionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "distribution not found")
	case errors.Is(err, service.ErrAssignmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "assignment not found")
	case errors.Is(err, service.ErrClassNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "class not found")
	case errors.Is(err, service.ErrAssignmentNotDistributable):
		return utils.SendError(c, fiber.StatusConflict, "assignment is not published")
	case errors.Is(err, service.ErrDistributionHasGrades):
		return utils.SendError(c, fiber.StatusConflict, "distribution has graded submissions")
	case errors.Is(err, service.ErrAudienceNotInClass):
		return utils.SendError(c, fiber.StatusBadRequest, "audience does not belong to class")
	case errors.Is(err, models.ErrScheduleInverted):
		return utils.SendError(c, fiber.StatusBadRequest, "deadline must be after scheduled date")
	case errors.Is(err, models.ErrAudienceMismatch):
		return utils.SendError(c, fiber.StatusBadRequest, "audience fields do not match audience type")
	case errors.As(err, &validationErrors):
		return utils.SendValidationError(c, validationErrors)
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
