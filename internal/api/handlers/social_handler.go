package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postflow-suggestions/internal/service"
	"github.com/maheshrc27/postflow-suggestions/internal/transfer"
)

type SocialHandler struct {
	s service.SummarizerService
}

func NewSocialHandler(service service.SummarizerService) *SocialHandler {
	return &SocialHandler{s: service}
}

func (h *SocialHandler) TopPosts(c *fiber.Ctx) error {
	userID := GetUserID(c)
	refresh := c.QueryBool("refresh", false)

	posts, err := h.s.TopPosts(c.Context(), userID, refresh)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(transfer.NewTopPosts(posts))
}
