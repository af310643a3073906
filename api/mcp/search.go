package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/synergyreader/synergy/api/search"
	"github.com/synergyreader/synergy/pkg/storage"
)

var (
	recallToolName    = "recall_entries"
	recallDescription = "Search previously asked questions and their answers by keyword. Matches the question, the selected passage and the answer, newest first."

	getEntryToolName    = "get_entry"
	getEntryDescription = "Fetch one recorded exchange by id, including the full answer, the selected passage and the retrieved context."
)

// RecallInput represents the input arguments for the recall tool.
type RecallInput struct {
	Query string `json:"query" jsonschema:"keywords to look for in past questions, selected passages and answers"`
	Limit int    `json:"limit,omitempty" jsonschema:"number of results to return (default: 5)"`
}

// GetEntryInput represents the input arguments for the get_entry tool.
type GetEntryInput struct {
	ID int64 `json:"id" jsonschema:"the id of a recorded exchange"`
}

// GetEntryOutput wraps the entry so the structured output is an object.
type GetEntryOutput struct {
	Entry *storage.Entry `json:"entry"`
}

func (s *Server) handleRecall(ctx context.Context, _ *mcp.CallToolRequest, input RecallInput) (*mcp.CallToolResult, search.Output, error) {
	output, err := search.Search(ctx, s.config.Driver, input.Query, input.Limit, s.config.Logger)
	if err != nil {
		s.config.Logger.Error("recall failed", "error", err)
		return toolError(fmt.Sprintf("Recall failed: %v", err)), search.Output{}, nil
	}

	result, err := jsonResult(output)
	if err != nil {
		return toolError(err.Error()), search.Output{}, nil
	}
	return result, *output, nil
}

func (s *Server) handleGetEntry(ctx context.Context, _ *mcp.CallToolRequest, input GetEntryInput) (*mcp.CallToolResult, GetEntryOutput, error) {
	if input.ID <= 0 {
		return toolError("id must be a positive integer"), GetEntryOutput{}, nil
	}

	entry, err := s.config.Driver.Get(ctx, input.ID)
	switch {
	case storage.IsNotFound(err):
		return toolError(fmt.Sprintf("No entry with id %d", input.ID)), GetEntryOutput{}, nil
	case err != nil:
		return toolError(fmt.Sprintf("Loading entry failed: %v", err)), GetEntryOutput{}, nil
	}

	output := GetEntryOutput{Entry: entry}
	result, err := jsonResult(output)
	if err != nil {
		return toolError(err.Error()), GetEntryOutput{}, nil
	}
	return result, output, nil
}

// jsonResult serializes structured output into a TextContent block as well,
// for clients that do not read structured content.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize results: %w", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(b)},
		},
	}, nil
}

func toolError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
	}
}
