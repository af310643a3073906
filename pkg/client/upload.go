package client

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
)

// Upload sends extracted documents to the backend for embedding. Each
// document is sent as a part of the "files" field, keeping its original
// name. One result is returned per document.
func (c *Client) Upload(ctx context.Context, docs ...UploadDocument) ([]UploadResult, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: no documents", ErrInvalidRequest)
	}
	for i := range docs {
		if err := c.check(&docs[i]); err != nil {
			return nil, err
		}
	}

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for _, doc := range docs {
		part, err := w.CreateFormFile("files", doc.Name)
		if err != nil {
			return nil, fmt.Errorf("create part for %s: %w", doc.Name, err)
		}
		if _, err := part.Write([]byte(doc.Text)); err != nil {
			return nil, fmt.Errorf("write part for %s: %w", doc.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL("/upload", nil), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	var results []UploadResult
	if err := c.do(req, &results); err != nil {
		return nil, err
	}
	return results, nil
}
