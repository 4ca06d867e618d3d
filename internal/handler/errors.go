package handler

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/go-semantic-codes-ollama/internal/port"
)

// statusForError maps service errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, port.ErrCodeNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, port.ErrDuplicateCode):
		return fiber.StatusConflict
	case errors.Is(err, port.ErrValidation), errors.Is(err, port.ErrMalformedUpload):
		return fiber.StatusBadRequest
	case errors.Is(err, port.ErrEmbeddingUnavailable), errors.Is(err, port.ErrDimensionMismatch):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// fail writes a JSON error response for err. Unexpected errors are logged
// and masked with a generic message.
func fail(c fiber.Ctx, err error) error {
	status := statusForError(err)
	if status == fiber.StatusInternalServerError {
		slog.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
		return c.Status(status).JSON(fiber.Map{"error": "an unexpected error occurred"})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
