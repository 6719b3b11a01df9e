package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/hexlabs-dev/assess-go-api/internal/dto"
	"github.com/hexlabs-dev/assess-go-api/internal/service"
	"github.com/hexlabs-dev/assess-go-api/internal/utils"
)

// SubmissionListHandler wires the educator submission list endpoint.
type SubmissionListHandler struct {
	service service.SubmissionListService
	logger  zerolog.Logger
}

// NewSubmissionListHandler constructs the handler.
func NewSubmissionListHandler(service service.SubmissionListService, logger zerolog.Logger) *SubmissionListHandler {
	return &SubmissionListHandler{
		service: service,
		logger:  logger.With().Str("component", "submission_list_handler").Logger(),
	}
}

// Register attaches the list endpoint to the router group. Guards run
// before the handler on this route only, so sibling routes under the
// same prefix can carry different role requirements.
func (h *SubmissionListHandler) Register(router fiber.Router, guards ...fiber.Handler) {
	router.Get("", withGuards(guards, h.list)...)
}

func (h *SubmissionListHandler) list(c *fiber.Ctx) error {
	var filter dto.SubmissionListFilter
	if err := c.QueryParser(&filter); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	actor := actorFromContext(c)
	result, err := h.service.List(c.Context(), actor, filter)
	if err != nil {
		if isValidationError(err) {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list submissions")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list submissions")
	}

	return utils.SendSuccess(c, "submissions retrieved", result)
}
