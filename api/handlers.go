package api

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/synergyreader/synergy/pkg/storage"
)

const (
	defaultListLimit = 50
	maxListLimit     = 1000
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ListResponse is the body of GET /v1/entries.
type ListResponse struct {
	Count   int              `json:"count"`
	Entries []*storage.Entry `json:"entries"`
}

// RateRequest is the body of PUT /v1/entries/:id/rating.
type RateRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

func (s *Server) handleListEntries(c *fiber.Ctx) error {
	limit, err := parseLimit(c.Query("limit"), defaultListLimit)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	entries, err := s.driver.List(c.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list entries", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to list entries"})
	}
	if entries == nil {
		entries = []*storage.Entry{}
	}

	return c.JSON(ListResponse{Count: len(entries), Entries: entries})
}

func (s *Server) handleGetEntry(c *fiber.Ctx) error {
	id, err := entryID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	entry, err := s.driver.Get(c.Context(), id)
	if storage.IsNotFound(err) {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "entry not found"})
	}
	if err != nil {
		s.logger.Error("failed to get entry", "id", id, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to get entry"})
	}

	return c.JSON(entry)
}

func (s *Server) handleRateEntry(c *fiber.Ctx) error {
	id, err := entryID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	var req RateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	err = s.driver.Rate(c.Context(), id, req.Rating, req.Comment)
	switch {
	case errors.Is(err, storage.ErrInvalidRating):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	case storage.IsNotFound(err):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "entry not found"})
	case err != nil:
		s.logger.Error("failed to rate entry", "id", id, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to rate entry"})
	}

	entry, err := s.driver.Get(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to get entry"})
	}
	return c.JSON(entry)
}

// handleStats summarises every stored entry.
func (s *Server) handleStats(c *fiber.Ctx) error {
	entries, err := s.driver.List(c.Context(), 0)
	if err != nil {
		s.logger.Error("failed to list entries", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to list entries"})
	}

	return c.JSON(storage.Summarize(entries))
}

func entryID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("id must be a positive integer")
	}
	return id, nil
}

func parseLimit(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, errors.New("limit must be a positive integer")
	}
	return min(n, maxListLimit), nil
}
