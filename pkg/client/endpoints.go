package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Ping checks that the backend is reachable and returns its greeting.
func (c *Client) Ping(ctx context.Context) (string, error) {
	var resp messageResponse
	if err := c.doJSON(ctx, http.MethodGet, "/test", nil, nil, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// History returns the most recent exchanges of the signed-in user.
func (c *Client) History(ctx context.Context) ([]HistoryItem, error) {
	token, err := c.requireToken()
	if err != nil {
		return nil, err
	}

	var items []HistoryItem
	if err := c.doJSON(ctx, http.MethodPost, "/history", nil, tokenRequest{Token: token}, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Documents lists the documents uploaded to the backend.
func (c *Client) Documents(ctx context.Context) ([]Document, error) {
	var docs []Document
	if err := c.doJSON(ctx, http.MethodGet, "/documents", nil, nil, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// Rate stores a 1 to 5 star rating and comment for an exchange.
func (c *Client) Rate(ctx context.Context, req *RatingRequest) (*StatusResponse, error) {
	if err := c.check(req); err != nil {
		return nil, err
	}

	var resp StatusResponse
	if err := c.doJSON(ctx, http.MethodPut, "/put_ratings", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SubmitCorrection proposes a corrected answer for an exchange.
func (c *Client) SubmitCorrection(ctx context.Context, req *CorrectionRequest) (*StatusResponse, error) {
	if err := c.check(req); err != nil {
		return nil, err
	}

	var resp StatusResponse
	if err := c.doJSON(ctx, http.MethodPost, "/submit_correction", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Knowledge lists the curated knowledge base.
func (c *Client) Knowledge(ctx context.Context) ([]KnowledgeItem, error) {
	var items []KnowledgeItem
	if err := c.doJSON(ctx, http.MethodGet, "/knowledge_base", nil, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// AddKnowledge inserts curated question/answer pairs.
func (c *Client) AddKnowledge(ctx context.Context, items ...KnowledgeItem) (*StatusResponse, error) {
	req := &KnowledgeInsertRequest{Items: items}
	if err := c.check(req); err != nil {
		return nil, err
	}

	var resp StatusResponse
	if err := c.doJSON(ctx, http.MethodPost, "/knowledge_base", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates an account and returns its session token.
func (c *Client) Register(ctx context.Context, creds *Credentials) (*AuthResponse, error) {
	return c.authenticate(ctx, "/register", creds)
}

// Login signs in and returns the session token.
func (c *Client) Login(ctx context.Context, creds *Credentials) (*AuthResponse, error) {
	return c.authenticate(ctx, "/login", creds)
}

func (c *Client) authenticate(ctx context.Context, path string, creds *Credentials) (*AuthResponse, error) {
	if err := c.check(creds); err != nil {
		return nil, err
	}

	var resp AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, path, nil, creds, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("backend returned no session token")
	}
	return &resp, nil
}

// AdminRatings lists every rated exchange. Requires an admin session.
func (c *Client) AdminRatings(ctx context.Context) ([]RatingRecord, error) {
	token, err := c.requireToken()
	if err != nil {
		return nil, err
	}

	var resp ratingsResponse
	query := url.Values{"token": {token}}
	if err := c.doJSON(ctx, http.MethodGet, "/admin/ratings", query, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Ratings, nil
}

// AdminRatingStats returns aggregate rating statistics. Requires an admin
// session.
func (c *Client) AdminRatingStats(ctx context.Context) (*RatingStats, error) {
	token, err := c.requireToken()
	if err != nil {
		return nil, err
	}

	var stats RatingStats
	query := url.Values{"token": {token}}
	if err := c.doJSON(ctx, http.MethodGet, "/admin/ratings/stats", query, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// TrainModel asks the backend to fine-tune on collected feedback. Requires
// an admin session.
func (c *Client) TrainModel(ctx context.Context) (*StatusResponse, error) {
	token, err := c.requireToken()
	if err != nil {
		return nil, err
	}

	var resp StatusResponse
	if err := c.doJSON(ctx, http.MethodPost, "/train_model", nil, tokenRequest{Token: token}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
