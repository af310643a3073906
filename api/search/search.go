// Package search provides shared search types and logic for keyword search
// over recorded exchanges. It is used by both the REST API endpoint and the
// MCP server tool.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/synergyreader/synergy/pkg/storage"
	"github.com/synergyreader/synergy/pkg/utils"
)

const (
	DefaultLimit = 5
	previewLen   = 160
)

// ErrEmptyQuery is returned for a blank query.
var ErrEmptyQuery = errors.New("query is required")

// Result is a single search hit.
type Result struct {
	ID        int64     `json:"id"`
	Question  string    `json:"question"`
	Preview   string    `json:"preview"`
	Model     string    `json:"model,omitempty"`
	Rating    *int      `json:"rating,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	// Matched names the fields that contain the query.
	Matched []string `json:"matched"`
}

// Output is the result of a search operation.
type Output struct {
	Query   string   `json:"query"`
	Results []Result `json:"results"`
	Count   int      `json:"count"`
}

// Search returns up to limit recorded exchanges containing query, newest
// first. A limit of zero or less uses DefaultLimit.
func Search(ctx context.Context, driver storage.Driver, query string, limit int, logger *slog.Logger) (*Output, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	logger.Debug("search request",
		"query", query,
		"limit", limit,
	)

	entries, err := driver.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("searching entries: %w", err)
	}

	results := make([]Result, 0, len(entries))
	for _, e := range entries {
		results = append(results, BuildResult(e, query))
	}

	return &Output{
		Query:   query,
		Results: results,
		Count:   len(results),
	}, nil
}

// BuildResult converts an entry into a Result for query.
func BuildResult(e *storage.Entry, query string) Result {
	q := strings.ToLower(query)

	matched := []string{}
	for _, f := range []struct {
		name, value string
	}{
		{"question", e.Question},
		{"selected_text", e.SelectedText},
		{"answer", e.Answer},
	} {
		if strings.Contains(strings.ToLower(f.value), q) {
			matched = append(matched, f.name)
		}
	}

	return Result{
		ID:        e.ID,
		Question:  e.Question,
		Preview:   utils.Truncate(utils.OneLine(e.Answer), previewLen),
		Model:     e.Model,
		Rating:    e.Rating,
		CreatedAt: e.CreatedAt,
		Matched:   matched,
	}
}
