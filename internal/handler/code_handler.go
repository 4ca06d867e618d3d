package handler

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/go-semantic-codes-ollama/internal/service"
)

// CodeHandler handles single-record CRUD over codes.
type CodeHandler struct {
	codes *service.CodeService
}

// NewCodeHandler creates a new code handler.
func NewCodeHandler(codes *service.CodeService) *CodeHandler {
	return &CodeHandler{codes: codes}
}

// Register sets up CRUD routes. The static /codes/search and /codes/upload*
// routes are registered by the other handlers before the :id routes here.
func (h *CodeHandler) Register(api fiber.Router) {
	codes := api.Group("/codes")
	codes.Post("/upload", h.Create)
	codes.Get("/", h.List)
	codes.Get("/code/:code", h.GetByCode)
	codes.Get("/:id", h.GetByID)
	codes.Put("/:id", h.Update)
	codes.Delete("/:id", h.Delete)
}

type codeRequest struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Create stores a single new code record.
func (h *CodeHandler) Create(c fiber.Ctx) error {
	var body codeRequest
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	code, err := h.codes.Create(c.Context(), body.Code, body.Description)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(code)
}

// List returns a page of codes ordered by id.
func (h *CodeHandler) List(c fiber.Ctx) error {
	page, err := strconv.Atoi(c.Query("page", "0"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid page"})
	}
	size, err := strconv.Atoi(c.Query("size", "20"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid size"})
	}

	result, err := h.codes.List(c.Context(), page, size)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(result)
}

// GetByID returns one code by its id.
func (h *CodeHandler) GetByID(c fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid id"})
	}

	code, err := h.codes.GetByID(c.Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(code)
}

// GetByCode returns one code by its code value.
func (h *CodeHandler) GetByCode(c fiber.Ctx) error {
	codeValue := strings.TrimSpace(c.Params("code"))
	if codeValue == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid code"})
	}

	code, err := h.codes.GetByCode(c.Context(), codeValue)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(code)
}

// Update replaces a code's fields by id.
func (h *CodeHandler) Update(c fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid id"})
	}

	var body codeRequest
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	code, err := h.codes.Update(c.Context(), id, body.Code, body.Description)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(code)
}

// Delete removes a code by id.
func (h *CodeHandler) Delete(c fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid id"})
	}

	if err := h.codes.Delete(c.Context(), id); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func parseID(c fiber.Ctx) (int64, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}
