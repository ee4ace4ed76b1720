package sniffer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client wraps the solsniffer scoring API. Implements filter.SnifferScorer.
// Higher score is better. When the upstream is down it answers with the 101
// sentinel, which the filter surfaces as an error rather than a pass.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 20 * time.Second},
	}
}

func (c *Client) Score(ctx context.Context, mint string) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", fmt.Sprintf("%s/token/%s", c.baseURL, mint), nil)
	if err != nil {
		return 0, err
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-KEY", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("sniffer request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return 0, fmt.Errorf("sniffer HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, err
	}

	var result struct {
		TokenData struct {
			Score float64 `json:"score"`
		} `json:"tokenData"`
		Score float64 `json:"snifscore"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return 0, fmt.Errorf("decode sniffer response: %w", err)
	}

	score := result.TokenData.Score
	if score == 0 {
		score = result.Score
	}
	return score, nil
}
