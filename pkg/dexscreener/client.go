package dexscreener

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	wrappedSolMint = "So11111111111111111111111111111111111111112"
	detailChunk    = 30 // max mints per tokens request
)

// Client talks to the DexScreener public API: token-profile discovery, bulk
// pair details and the cached SOL reference price.
type Client struct {
	baseURL string
	client  *http.Client

	priceMu     sync.RWMutex
	solPrice    float64
	solPriceAt  time.Time
	priceMaxAge time.Duration
}

func New(baseURL string) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		client:      &http.Client{Timeout: 30 * time.Second},
		priceMaxAge: 60 * time.Second,
	}
}

// ---- Discovery feed ----

type Link struct {
	Type  string `json:"type"`
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Profile is one raw discovery record from the token-profiles feed.
type Profile struct {
	URL          string `json:"url"`
	ChainID      string `json:"chainId"`
	TokenAddress string `json:"tokenAddress"`
	BaseAddress  string `json:"baseTokenAddress"`
	Icon         string `json:"icon"`
	Description  string `json:"description"`
	Links        []Link `json:"links"`
}

// TwitterLink returns the first Twitter/X link on the profile, or "".
func (p Profile) TwitterLink() string {
	for _, l := range p.Links {
		if strings.EqualFold(l.Type, "twitter") {
			return l.URL
		}
		if strings.Contains(l.URL, "twitter.com/") || strings.Contains(l.URL, "x.com/") {
			return l.URL
		}
	}
	return ""
}

// Candidates fetches the latest token profiles (the discovery feed).
func (c *Client) Candidates(ctx context.Context) ([]Profile, error) {
	body, err := c.getJSON(ctx, c.baseURL+"/token-profiles/latest/v1")
	if err != nil {
		return nil, fmt.Errorf("fetch token profiles: %w", err)
	}
	var profiles []Profile
	if err := json.Unmarshal(body, &profiles); err != nil {
		return nil, fmt.Errorf("decode token profiles: %w", err)
	}
	return profiles, nil
}

// ---- Detail fetch ----

// Pair is the enriched per-token detail record, highest-liquidity pair only.
type Pair struct {
	ChainID       string          `json:"chainId"`
	DexID         string          `json:"dexId"`
	PairAddress   string          `json:"pairAddress"`
	BaseToken     BaseToken       `json:"baseToken"`
	PriceNative   string          `json:"priceNative"`
	PriceUSD      string          `json:"priceUsd"`
	Liquidity     Liquidity       `json:"liquidity"`
	Volume        Volume          `json:"volume"`
	PriceChange   PriceChange     `json:"priceChange"`
	MarketCap     float64         `json:"marketCap"`
	FDV           float64         `json:"fdv"`
	PairCreatedAt int64           `json:"pairCreatedAt"` // unix ms
	Raw           json.RawMessage `json:"-"`
}

type BaseToken struct {
	Address string `json:"address"`
	Symbol  string `json:"symbol"`
	Name    string `json:"name"`
}

type Liquidity struct {
	USD float64 `json:"usd"`
}

type Volume struct {
	H24 float64 `json:"h24"`
	H6  float64 `json:"h6"`
	M5  float64 `json:"m5"`
}

type PriceChange struct {
	H24 float64 `json:"h24"`
	H6  float64 `json:"h6"`
	M5  float64 `json:"m5"`
}

// Details bulk-fetches pair data for a set of mints, chunked to respect the
// API's per-request address limit. The result is keyed by base-token mint and
// keeps only the deepest pair per mint.
func (c *Client) Details(ctx context.Context, mints []string) (map[string]Pair, error) {
	out := make(map[string]Pair, len(mints))

	for start := 0; start < len(mints); start += detailChunk {
		end := start + detailChunk
		if end > len(mints) {
			end = len(mints)
		}
		chunk := mints[start:end]

		body, err := c.getJSON(ctx, c.baseURL+"/latest/dex/tokens/"+strings.Join(chunk, ","))
		if err != nil {
			return nil, fmt.Errorf("fetch pair details: %w", err)
		}

		var result struct {
			Pairs []json.RawMessage `json:"pairs"`
		}
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, fmt.Errorf("decode pair details: %w", err)
		}

		for _, raw := range result.Pairs {
			var p Pair
			if json.Unmarshal(raw, &p) != nil {
				continue
			}
			p.Raw = raw
			mint := p.BaseToken.Address
			if mint == "" {
				continue
			}
			if best, ok := out[mint]; !ok || p.Liquidity.USD > best.Liquidity.USD {
				out[mint] = p
			}
		}
	}
	return out, nil
}

// PairPrice fetches the current USD price for one pair. Used by the price
// watcher, not the scan cycle.
func (c *Client) PairPrice(ctx context.Context, chainID, pairAddress string) (float64, error) {
	body, err := c.getJSON(ctx, fmt.Sprintf("%s/latest/dex/pairs/%s/%s", c.baseURL, chainID, pairAddress))
	if err != nil {
		return 0, err
	}
	var result struct {
		Pairs []struct {
			PriceUSD string `json:"priceUsd"`
		} `json:"pairs"`
	}
	if err := json.Unmarshal(body, &result); err != nil || len(result.Pairs) == 0 {
		return 0, fmt.Errorf("no pair data for %s", pairAddress)
	}
	return ParseFloat(result.Pairs[0].PriceUSD), nil
}

// ---- SOL reference price ----

// SolPrice returns the current SOL/USD price with a 60s cache. Returns 0 when
// the fetch fails and nothing is cached; callers treat 0 as absent.
func (c *Client) SolPrice(ctx context.Context) float64 {
	c.priceMu.RLock()
	if c.solPrice > 0 && time.Since(c.solPriceAt) < c.priceMaxAge {
		defer c.priceMu.RUnlock()
		return c.solPrice
	}
	c.priceMu.RUnlock()

	body, err := c.getJSON(ctx, c.baseURL+"/latest/dex/tokens/"+wrappedSolMint)
	if err != nil {
		log.Warn().Err(err).Msg("sol price fetch failed")
		return c.stalePrice()
	}

	var result struct {
		Pairs []struct {
			PriceUSD  string    `json:"priceUsd"`
			Liquidity Liquidity `json:"liquidity"`
		} `json:"pairs"`
	}
	if json.Unmarshal(body, &result) != nil || len(result.Pairs) == 0 {
		return c.stalePrice()
	}

	// Deepest pair wins.
	bestPrice, bestLiq := 0.0, 0.0
	for _, p := range result.Pairs {
		if price := ParseFloat(p.PriceUSD); price > 0 && p.Liquidity.USD > bestLiq {
			bestPrice, bestLiq = price, p.Liquidity.USD
		}
	}
	if bestPrice <= 0 {
		return c.stalePrice()
	}

	c.priceMu.Lock()
	c.solPrice = bestPrice
	c.solPriceAt = time.Now()
	c.priceMu.Unlock()
	return bestPrice
}

func (c *Client) stalePrice() float64 {
	c.priceMu.RLock()
	defer c.priceMu.RUnlock()
	return c.solPrice
}

// ---- plumbing ----

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
	return io.ReadAll(io.LimitReader(resp.Body, 10<<20)) // 10MB max
}

// ParseFloat parses the API's stringly-typed numbers, defaulting to 0.
func ParseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}
