package handlers

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postflow-suggestions/internal/apperr"
)

func GetUserID(c *fiber.Ctx) int64 {
	raw, _ := c.Locals("user_id").(string)
	userID, _ := strconv.ParseInt(raw, 10, 64)
	return userID
}

// errorResponse writes err with the status its kind maps to. Server-side
// failures are logged and reported without internal detail.
func errorResponse(c *fiber.Ctx, err error) error {
	status := apperr.HTTPStatus(err)
	msg := err.Error()
	if status >= fiber.StatusInternalServerError {
		slog.Error(err.Error(), "path", c.Path())
		if kind := apperr.Kind(err); kind != nil && !errors.Is(kind, apperr.ErrStorage) {
			msg = kind.Error()
		} else {
			msg = "internal server error"
		}
	}
	return c.Status(status).JSON(fiber.Map{
		"error": msg,
	})
}
