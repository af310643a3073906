package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/synergyreader/synergy/api"
	apisearch "github.com/synergyreader/synergy/api/search"
)

// APITarget is the resolved client.api_target.
func (c *Conn) APITarget() string {
	return c.Viper.GetString("client.api_target")
}

// ListLocal fetches the newest recorded entries from the local API server.
func ListLocal(ctx context.Context, apiTarget string, limit int) (*api.ListResponse, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))

	var out api.ListResponse
	if err := getLocal(ctx, apiTarget, "/v1/entries", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchLocal runs a keyword search against the local API server.
func SearchLocal(ctx context.Context, apiTarget, query string, limit int) (*apisearch.Output, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(limit))

	var out apisearch.Output
	if err := getLocal(ctx, apiTarget, "/v1/search", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func getLocal(ctx context.Context, apiTarget, path string, query url.Values, out any) error {
	u, err := url.Parse(apiTarget)
	if err != nil {
		return fmt.Errorf("invalid API target URL: %w", err)
	}
	u.Path = path
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to synergy API at %s: %w", apiTarget, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var e api.ErrorResponse
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			return fmt.Errorf("synergy API returned %d: %s", resp.StatusCode, e.Error)
		}
		return fmt.Errorf("synergy API returned %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
