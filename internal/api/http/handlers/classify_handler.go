package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/triage-service/internal/api/dto"
	"github.com/spec-kit/triage-service/internal/classifier"
	"github.com/spec-kit/triage-service/internal/service"
	apperrors "github.com/spec-kit/triage-service/pkg/util"
)

// ClassifyHandler exposes the LLM suggestion endpoint.
type ClassifyHandler struct {
	service *service.TicketService
}

// NewClassifyHandler constructs handler.
func NewClassifyHandler(ticketService *service.TicketService) *ClassifyHandler {
	return &ClassifyHandler{service: ticketService}
}

// Classify POST /tickets/classify/. Backend failures of any kind map to
// a 503 with the fixed error/detail body; they never reach the generic
// error envelope.
func (h *ClassifyHandler) Classify(c *fiber.Ctx) error {
	var req dto.ClassifyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	suggestion, err := h.service.Classify(c.UserContext(), req.Description)
	if err != nil {
		if errors.Is(err, classifier.ErrUnavailable) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ClassifyUnavailableResponse{
				Error:  "Classification service unavailable",
				Detail: "Unable to classify ticket at this time. Please select category and priority manually.",
			})
		}
		return err
	}

	return c.JSON(dto.ClassifyResponse{
		SuggestedCategory: suggestion.Category,
		SuggestedPriority: suggestion.Priority,
	})
}
