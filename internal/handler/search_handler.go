package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/go-semantic-codes-ollama/internal/service"
)

// SearchHandler handles semantic search over the stored codes.
type SearchHandler struct {
	search *service.SearchService
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(search *service.SearchService) *SearchHandler {
	return &SearchHandler{search: search}
}

// Register sets up the search route. Must run before the :id routes of the
// code handler so /codes/search is not captured as an id.
func (h *SearchHandler) Register(api fiber.Router) {
	api.Get("/codes/search", h.Search)
}

// Search returns codes ranked by semantic similarity to the query.
func (h *SearchHandler) Search(c fiber.Ctx) error {
	query := c.Query("query")

	limit, err := strconv.Atoi(c.Query("limit", "5"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid limit"})
	}

	results, err := h.search.Search(c.Context(), query, limit)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(results)
}
