package rugcheck

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/tokenscout/pkg/filter"
)

// Client fetches normalized rug-risk scores. Implements filter.RiskScorer.
type Client struct {
	baseURL string
	client  *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 20 * time.Second},
	}
}

type report struct {
	ScoreNormalised float64 `json:"score_normalised"`
	Risks           []struct {
		Name        string `json:"name"`
		Level       string `json:"level"`
		Description string `json:"description"`
	} `json:"risks"`
}

// Score fetches one mint's report. API failure is carried in the result's Err
// field rather than returned, so batch callers get a uniform shape.
func (c *Client) Score(ctx context.Context, mint string) filter.RiskScore {
	body, err := c.getJSON(ctx, fmt.Sprintf("%s/tokens/%s/report", c.baseURL, mint))
	if err != nil {
		return filter.RiskScore{Err: err.Error()}
	}

	var r report
	if err := json.Unmarshal(body, &r); err != nil {
		return filter.RiskScore{Err: fmt.Sprintf("decode report: %v", err)}
	}

	res := filter.RiskScore{Score: r.ScoreNormalised}
	for _, risk := range r.Risks {
		if strings.EqualFold(risk.Level, "danger") {
			res.Issues = append(res.Issues, risk.Name)
		}
	}
	return res
}

// Scores fans out per-mint fetches under a bounded semaphore. One mint's
// failure lands in its own entry; it never poisons the rest of the batch.
func (c *Client) Scores(ctx context.Context, mints []string, maxConcurrent int) map[string]filter.RiskScore {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}

	sem := semaphore.NewWeighted(int64(maxConcurrent))
	var (
		mu  sync.Mutex
		out = make(map[string]filter.RiskScore, len(mints))
		wg  sync.WaitGroup
	)

	for _, mint := range mints {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Cancelled: mark the remaining mints and stop launching.
			mu.Lock()
			if _, ok := out[mint]; !ok {
				out[mint] = filter.RiskScore{Err: err.Error()}
			}
			mu.Unlock()
			continue
		}
		wg.Add(1)
		go func(mint string) {
			defer wg.Done()
			defer sem.Release(1)
			res := c.Score(ctx, mint)
			if res.Err != "" {
				log.Warn().Str("mint", mint).Str("err", res.Err).Msg("rugcheck score failed")
			}
			mu.Lock()
			out[mint] = res
			mu.Unlock()
		}(mint)
	}
	wg.Wait()
	return out
}

func (c *Client) getJSON(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 10<<20))
}
