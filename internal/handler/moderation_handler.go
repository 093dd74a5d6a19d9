package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/patrykpoborca/wondernest-go-api/internal/dto"
	"github.com/patrykpoborca/wondernest-go-api/internal/service"
	"github.com/patrykpoborca/wondernest-go-api/internal/utils"
)

// ModerationHandler manages the moderator-facing queue endpoints.
type ModerationHandler struct {
	service service.ModerationService
	logger  zerolog.Logger
}

// NewModerationHandler builds a moderation handler instance.
func NewModerationHandler(service service.ModerationService, logger zerolog.Logger) *ModerationHandler {
	return &ModerationHandler{
		service: service,
		logger:  logger.With().Str("component", "moderation_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *ModerationHandler) Register(router fiber.Router) {
	router.Get("/queue", h.queue)
	router.Get("/queue/summary", h.summary)
	router.Get("/workload", h.workload)
	router.Get("/tickets/:id", h.ticket)
	router.Post("/tickets/:id/assign", h.assign)
	router.Post("/tickets/:id/start", h.startReview)
	router.Post("/tickets/:id/decision", h.decide)
	router.Post("/tickets/:id/escalate", h.escalate)
	router.Get("/submissions/:id/decisions", h.decisions)
}

func (h *ModerationHandler) queue(c *fiber.Ctx) error {
	filter := dto.QueueFilter{
		Status:     queryString(c, "status"),
		Priority:   queryString(c, "priority"),
		AssignedMe: queryBool(c, "assigned_me"),
		Unassigned: queryBool(c, "unassigned"),
		Page:       parseQueryInt(c, "page"),
		PageSize:   parseQueryInt(c, "page_size"),
	}

	listing, err := h.service.Queue(c.Context(), userIDFromContext(c), filter)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "queue retrieved", listing)
}

func (h *ModerationHandler) summary(c *fiber.Ctx) error {
	summary, err := h.service.Summary(c.Context())
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "queue summary retrieved", summary)
}

func (h *ModerationHandler) workload(c *fiber.Ctx) error {
	workload, err := h.service.Workload(c.Context(), userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "workload retrieved", workload)
}

func (h *ModerationHandler) ticket(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	ticket, err := h.service.Ticket(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "ticket retrieved", ticket)
}

func (h *ModerationHandler) assign(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	ticket, err := h.service.Assign(c.Context(), id, userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "ticket assigned", ticket)
}

func (h *ModerationHandler) startReview(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	ticket, err := h.service.StartReview(c.Context(), id, userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "review started", ticket)
}

func (h *ModerationHandler) decide(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.DecisionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	decision, err := h.service.SubmitDecision(c.Context(), id, userIDFromContext(c), moderatorLevelFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "decision recorded", decision)
}

func (h *ModerationHandler) escalate(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.EscalateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	ticket, err := h.service.Escalate(c.Context(), id, userIDFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "ticket escalated", ticket)
}

func (h *ModerationHandler) decisions(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	decisions, err := h.service.Decisions(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "decisions retrieved", decisions)
}

func (h *ModerationHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrTicketNotFound), errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotAssignedModerator):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrTicketAlreadyAssigned),
		errors.Is(err, service.ErrTicketClosed),
		errors.Is(err, service.ErrReviewNotStartable):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidDecision),
		errors.Is(err, service.ErrPublicFeedbackRequired),
		errors.Is(err, service.ErrPrivateNotesRequired):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
