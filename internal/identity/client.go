// Package identity resolves display names from the user service in one
// batched round trip per feed build, never N+1.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Client struct {
	base       string
	httpClient *http.Client
}

func NewClient(base string) *Client {
	return &Client{
		base:       strings.TrimRight(base, "/"),
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

type userRecord struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// ResolveUsernames maps user IDs to usernames. Missing IDs are simply absent
// from the result; the caller decides how to degrade.
func (c *Client) ResolveUsernames(ctx context.Context, ids []string) (map[string]string, error) {
	if len(ids) == 0 {
		return map[string]string{}, nil
	}

	u := fmt.Sprintf("%s/users/usernames?ids=%s", c.base, url.QueryEscape(strings.Join(ids, ",")))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("user service error: %s", string(body))
	}

	var records []userRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(records))
	for _, rec := range records {
		if rec.UserID != "" && rec.Username != "" {
			out[rec.UserID] = rec.Username
		}
	}
	return out, nil
}
