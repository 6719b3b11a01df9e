package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/hexlabs-dev/assess-go-api/internal/dto"
	"github.com/hexlabs-dev/assess-go-api/internal/service"
	"github.com/hexlabs-dev/assess-go-api/internal/utils"
)

// ReferenceHandler wires reference solution endpoints.
type ReferenceHandler struct {
	service service.ReferenceIngestService
	logger  zerolog.Logger
}

// NewReferenceHandler constructs the handler.
func NewReferenceHandler(service service.ReferenceIngestService, logger zerolog.Logger) *ReferenceHandler {
	return &ReferenceHandler{
		service: service,
		logger:  logger.With().Str("component", "reference_handler").Logger(),
	}
}

// Register attaches reference endpoints to the router group.
func (h *ReferenceHandler) Register(router fiber.Router) {
	router.Post("/:assignmentId/reference", h.upload)
	router.Get("/:assignmentId/reference", h.getCurrent)
}

func (h *ReferenceHandler) upload(c *fiber.Ctx) error {
	assignmentID := strings.TrimSpace(c.Params("assignmentId"))
	if assignmentID == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "assignment id is required")
	}

	input := dto.ReferenceUploadInput{
		AssignmentID:    assignmentID,
		ModuleID:        optionalModuleID(c),
		GradingCriteria: strings.TrimSpace(c.FormValue("grading_criteria")),
	}
	if moduleID := strings.TrimSpace(c.FormValue("module_id")); moduleID != "" {
		input.ModuleID = &moduleID
	}
	if raw := strings.TrimSpace(c.FormValue("max_score")); raw != "" {
		maxScore, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "max_score must be a number")
		}
		input.MaxScore = &maxScore
	}

	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "reference file is required")
	}

	actor := actorFromContext(c)
	result, err := h.service.Ingest(c.Context(), input, file, actor)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrReferenceFileRequired):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrReferenceFileTooLarge):
			return utils.SendError(c, fiber.StatusRequestEntityTooLarge, err.Error())
		case errors.Is(err, service.ErrReferenceFileType):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrAssignmentNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "assignment not found")
		case errors.Is(err, service.ErrNotAssignmentOwner):
			return utils.SendError(c, fiber.StatusForbidden, "you do not own this assignment")
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		default:
			requestLogger(h.logger, c).Error().Err(err).
				Str("assignment_id", assignmentID).
				Msg("reference ingest failed")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to process reference solution")
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, result.Message, result)
}

func (h *ReferenceHandler) getCurrent(c *fiber.Ctx) error {
	assignmentID := strings.TrimSpace(c.Params("assignmentId"))
	if assignmentID == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "assignment id is required")
	}

	actor := actorFromContext(c)
	reference, err := h.service.GetCurrent(c.Context(), assignmentID, optionalModuleID(c), actor)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAssignmentNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "assignment not found")
		case errors.Is(err, service.ErrReferenceNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "no reference solution for this assignment")
		case errors.Is(err, service.ErrNotAssignmentOwner):
			return utils.SendError(c, fiber.StatusForbidden, "you do not own this assignment")
		default:
			requestLogger(h.logger, c).Error().Err(err).
				Str("assignment_id", assignmentID).
				Msg("reference lookup failed")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to load reference solution")
		}
	}

	return utils.SendSuccess(c, "reference solution retrieved", reference)
}
