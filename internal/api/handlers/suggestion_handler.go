package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postflow-suggestions/internal/apperr"
	"github.com/maheshrc27/postflow-suggestions/internal/models"
	"github.com/maheshrc27/postflow-suggestions/internal/service"
	"github.com/maheshrc27/postflow-suggestions/internal/transfer"
)

type SuggestionHandler struct {
	s service.SuggestionService
}

func NewSuggestionHandler(service service.SuggestionService) *SuggestionHandler {
	return &SuggestionHandler{s: service}
}

func (h *SuggestionHandler) ListSuggestions(c *fiber.Ctx) error {
	userID := GetUserID(c)
	source := c.Query("source", models.SourceBusinessProfile)

	suggestions, err := h.s.GetOrGenerate(c.Context(), userID, source)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(transfer.NewSuggestions(suggestions))
}

func (h *SuggestionHandler) RefreshSuggestion(c *fiber.Ctx) error {
	userID := GetUserID(c)
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return errorResponse(c, fmt.Errorf("%w: invalid suggestion id", apperr.ErrValidation))
	}

	suggestion, err := h.s.RefreshOne(c.Context(), userID, int64(id))
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(transfer.NewSuggestion(suggestion))
}
