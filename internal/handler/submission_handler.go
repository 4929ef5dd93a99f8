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

// SubmissionHandler manages submission tracking endpoints.
type SubmissionHandler struct {
	service   service.SubmissionService
	dashboard service.DashboardService
	logger    zerolog.Logger
}

// NewSubmissionHandler builds a submission handler instance.
func NewSubmissionHandler(service service.SubmissionService, dashboard service.DashboardService, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		service:   service,
		dashboard: dashboard,
		logger:    logger.With().Str("component", "submission_handler").Logger(),
	}
}

// RegisterStaff attaches the staff-facing routes to the provided router group.
func (h *SubmissionHandler) RegisterStaff(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Patch("/:id/lock", h.lock)
	router.Patch("/:id/unlock", h.unlock)
}

// RegisterStudent attaches the student upload route.
func (h *SubmissionHandler) RegisterStudent(router fiber.Router) {
	router.Post("/upload", h.upload)
}

func (h *SubmissionHandler) list(c *fiber.Ctx) error {
	filter := dto.SubmissionFilter{}
	if distributionID, err := parseQueryUint(c, "distribution_id"); err == nil && distributionID != nil {
		filter.DistributionID = distributionID
	}
	if userID, err := parseQueryUint(c, "user_id"); err == nil && userID != nil {
		filter.UserID = userID
	}
	if locked := c.Query("locked"); locked != "" {
		value := locked == "true"
		filter.Locked = &value
	}

	submissions, err := h.service.List(c.Context(), filter)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submissions retrieved", submissions)
}

func (h *SubmissionHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submission, err := h.service.Get(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission retrieved", submission)
}

func (h *SubmissionHandler) upload(c *fiber.Ctx) error {
	studentID := userIDFromContext(c)
	if studentID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	distributionID, err := parseFormUint(c, "distribution_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	payload := dto.FileAttachRequest{
		DistributionID: *distributionID,
		FileType:       c.FormValue("file_type"),
	}

	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	}

	result, err := h.service.Attach(c.Context(), payload, studentID, file)
	if err != nil {
		return h.handleError(c, err)
	}

	if h.dashboard != nil {
		h.dashboard.Invalidate(c.Context(), studentID)
	}

	message := "submission uploaded"
	if result.Late {
		message = "submission uploaded after deadline"
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, message, result)
}

func (h *SubmissionHandler) lock(c *fiber.Ctx) error {
	return h.setLock(c, true)
}

func (h *SubmissionHandler) unlock(c *fiber.Ctx) error {
	return h.setLock(c, false)
}

func (h *SubmissionHandler) setLock(c *fiber.Ctx, locked bool) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	actor := activityActorFromContext(c)
	if locked {
		err = h.service.Lock(c.Context(), id, actor)
	} else {
		err = h.service.Unlock(c.Context(), id, actor)
	}
	if err != nil {
		return h.handleError(c, err)
	}

	message := "submission unlocked"
	if locked {
		message = "submission locked"
	}

	return utils.SendSuccess(c, message, fiber.Map{"id": id, "is_locked": locked})
}

func (h *SubmissionHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, service.ErrDistributionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "distribution not found")
	case errors.Is(err, service.ErrNotInAudience):
		return utils.SendError(c, fiber.StatusNotFound, "distribution not found")
	case errors.Is(err, service.ErrSubmissionLocked):
		return utils.SendError(c, fiber.StatusConflict, "submission is locked")
	case errors.Is(err, service.ErrUploadWindowClosed):
		return utils.SendError(c, fiber.StatusConflict, "upload window is closed")
	case errors.Is(err, service.ErrUploadTooLarge):
		return utils.SendError(c, fiber.StatusRequestEntityTooLarge, "file exceeds maximum allowed size")
	case errors.As(err, &validationErrors):
		return utils.SendValidationError(c, validationErrors)
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
