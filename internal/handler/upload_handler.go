package handler

import (
	"fmt"

	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/go-semantic-codes-ollama/internal/service"
)

// UploadHandler handles batch CSV ingestion.
type UploadHandler struct {
	ingest *service.IngestService
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(ingest *service.IngestService) *UploadHandler {
	return &UploadHandler{ingest: ingest}
}

// Register sets up the CSV upload route.
func (h *UploadHandler) Register(api fiber.Router) {
	api.Post("/codes/upload-csv", h.Upload)
}

type uploadResponse struct {
	Total      int    `json:"total"`
	Successful int    `json:"successful"`
	Failed     int    `json:"failed"`
	Truncated  bool   `json:"truncated"`
	Message    string `json:"message"`
}

// Upload ingests a multipart CSV of code,description pairs.
func (h *UploadHandler) Upload(c fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing file field"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unreadable file"})
	}
	defer file.Close()

	result, err := h.ingest.UploadCSV(c.Context(), fileHeader.Filename, file)
	if err != nil {
		return fail(c, err)
	}

	message := fmt.Sprintf("CSV processed: %d succeeded, %d failed", result.Succeeded, result.Failed)
	if result.Truncated {
		message += " (row limit reached, remaining rows were ignored)"
	}

	return c.Status(fiber.StatusCreated).JSON(uploadResponse{
		Total:      result.Total(),
		Successful: result.Succeeded,
		Failed:     result.Failed,
		Truncated:  result.Truncated,
		Message:    message,
	})
}
