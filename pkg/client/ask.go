package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/synergyreader/synergy/pkg/marker"
)

// AskStream is a streamed answer. Callers read events with Next until it
// returns nil, nil and must Close the stream.
type AskStream struct {
	body   io.ReadCloser
	reader *marker.TeeReader
}

// Next returns the next event of the answer stream.
func (s *AskStream) Next() (marker.Event, error) {
	return s.reader.Next()
}

// Close releases the underlying response.
func (s *AskStream) Close() error {
	return s.body.Close()
}

// Ask sends a question about the selected text and returns the streamed
// answer. Raw response bytes are copied to dest when dest is not nil.
//
// The session token is filled in from the client when req has none.
func (c *Client) Ask(ctx context.Context, req *AskRequest, dest io.Writer) (*AskStream, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: nil ask request", ErrInvalidRequest)
	}

	if strings.TrimSpace(req.SelectedText) == "" {
		return nil, fmt.Errorf("%w: selected text is empty", ErrInvalidRequest)
	}
	if strings.TrimSpace(req.Question) == "" {
		return nil, fmt.Errorf("%w: question is empty", ErrInvalidRequest)
	}
	if err := c.check(req); err != nil {
		return nil, err
	}

	body := *req
	if body.AuthToken == "" {
		body.AuthToken = c.token
	}

	httpReq, err := c.newRequest(ctx, http.MethodPost, "/ask", nil, &body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "text/plain")

	resp, err := c.streamClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, newHTTPError(resp.StatusCode, errBody)
	}

	c.logger.Debug("answer stream opened",
		"model", req.Model,
		"content_type", resp.Header.Get("Content-Type"),
	)

	return &AskStream{
		body:   resp.Body,
		reader: marker.NewTeeReader(resp.Body, dest),
	}, nil
}
