package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	apisearch "github.com/synergyreader/synergy/api/search"
)

// handleSearchEndpoint handles GET /v1/search requests.
// Query parameters:
//   - q (required): the keywords to look for
//   - limit (optional, default 5): number of results to return
func (s *Server) handleSearchEndpoint(c *fiber.Ctx) error {
	limit, err := parseLimit(c.Query("limit"), apisearch.DefaultLimit)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	output, err := apisearch.Search(c.Context(), s.driver, c.Query("q"), limit, s.logger)
	if errors.Is(err, apisearch.ErrEmptyQuery) {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "q parameter is required"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
	}

	return c.JSON(output)
}
