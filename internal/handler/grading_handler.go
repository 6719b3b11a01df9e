package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/hexlabs-dev/assess-go-api/internal/service"
	"github.com/hexlabs-dev/assess-go-api/internal/utils"
)

// GradingHandler wires AI grading endpoints.
type GradingHandler struct {
	service service.AIGradingService
	logger  zerolog.Logger
}

// NewGradingHandler constructs the handler.
func NewGradingHandler(service service.AIGradingService, logger zerolog.Logger) *GradingHandler {
	return &GradingHandler{
		service: service,
		logger:  logger.With().Str("component", "grading_handler").Logger(),
	}
}

// Register attaches grading endpoints to the router group. Guards run
// before the handlers on these routes only.
func (h *GradingHandler) Register(router fiber.Router, guards ...fiber.Handler) {
	router.Post("/:id/ai-grade", withGuards(guards, h.grade)...)
	router.Get("/:id/ai-grade", withGuards(guards, h.getGrading)...)
}

func (h *GradingHandler) grade(c *fiber.Ctx) error {
	submissionID := strings.TrimSpace(c.Params("id"))
	if submissionID == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "submission id is required")
	}

	actor := actorFromContext(c)
	result, _, err := h.service.Grade(c.Context(), submissionID, actor)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSubmissionNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "submission not found")
		case errors.Is(err, service.ErrAssignmentNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "assignment not found")
		case errors.Is(err, service.ErrNotAuthorized):
			return utils.SendError(c, fiber.StatusForbidden, "you are not authorized to grade this submission")
		case errors.Is(err, service.ErrGradingFailed):
			requestLogger(h.logger, c).Error().Err(err).
				Str("submission_id", submissionID).
				Msg("ai grading service failed")
			return utils.SendError(c, fiber.StatusBadGateway, "ai grading service failed")
		default:
			requestLogger(h.logger, c).Error().Err(err).
				Str("submission_id", submissionID).
				Msg("failed to grade submission")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to grade submission")
		}
	}

	return utils.SendSuccess(c, result.Message, result)
}

func (h *GradingHandler) getGrading(c *fiber.Ctx) error {
	submissionID := strings.TrimSpace(c.Params("id"))
	if submissionID == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "submission id is required")
	}

	actor := actorFromContext(c)
	result, err := h.service.GetGrading(c.Context(), submissionID, actor)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSubmissionNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "submission not found")
		case errors.Is(err, service.ErrNotAuthorized):
			return utils.SendError(c, fiber.StatusForbidden, "you are not authorized to view this submission")
		default:
			requestLogger(h.logger, c).Error().Err(err).
				Str("submission_id", submissionID).
				Msg("failed to load ai grading")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to load ai grading")
		}
	}

	return utils.SendSuccess(c, "ai grading retrieved", result)
}
