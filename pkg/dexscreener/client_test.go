package dexscreener

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTwitterLink(t *testing.T) {
	p := Profile{Links: []Link{
		{Type: "website", URL: "https://example.com"},
		{Type: "Twitter", URL: "https://x.com/team"},
	}}
	assert.Equal(t, "https://x.com/team", p.TwitterLink())

	// Untyped links still count when they point at Twitter.
	p = Profile{Links: []Link{{URL: "https://twitter.com/team"}}}
	assert.Equal(t, "https://twitter.com/team", p.TwitterLink())

	p = Profile{Links: []Link{{Type: "telegram", URL: "https://t.me/team"}}}
	assert.Equal(t, "", p.TwitterLink())
}

func TestCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/token-profiles/latest/v1", r.URL.Path)
		fmt.Fprint(w, `[
			{"url":"u1","chainId":"solana","tokenAddress":"MintA","icon":"a.png",
			 "links":[{"type":"twitter","url":"https://x.com/a"}]},
			{"url":"u2","chainId":"ethereum","tokenAddress":"0xabc","icon":"b.png"}
		]`)
	}))
	defer srv.Close()

	profiles, err := New(srv.URL).Candidates(context.Background())
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, "MintA", profiles[0].TokenAddress)
	assert.Equal(t, "https://x.com/a", profiles[0].TwitterLink())
}

func TestDetailsKeepsDeepestPairAndChunks(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		fmt.Fprint(w, `{"pairs":[
			{"chainId":"solana","dexId":"raydium","pairAddress":"deep",
			 "baseToken":{"address":"MintA","symbol":"A"},"liquidity":{"usd":9000}},
			{"chainId":"solana","dexId":"orca","pairAddress":"shallow",
			 "baseToken":{"address":"MintA","symbol":"A"},"liquidity":{"usd":100}}
		]}`)
	}))
	defer srv.Close()

	// 35 mints forces two chunked requests at 30 per call.
	mints := make([]string, 35)
	for i := range mints {
		mints[i] = fmt.Sprintf("Mint%02d", i)
	}
	out, err := New(srv.URL).Details(context.Background(), mints)
	require.NoError(t, err)

	require.Len(t, paths, 2)
	assert.Equal(t, 30, strings.Count(paths[0], "Mint"))
	assert.Equal(t, 5, strings.Count(paths[1], "Mint"))

	pair, ok := out["MintA"]
	require.True(t, ok)
	assert.Equal(t, "deep", pair.PairAddress)
	assert.NotEmpty(t, pair.Raw, "raw payload retained for audit")
}

func TestPairPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/latest/dex/pairs/solana/PairA", r.URL.Path)
		fmt.Fprint(w, `{"pairs":[{"priceUsd":"1.25"}]}`)
	}))
	defer srv.Close()

	price, err := New(srv.URL).PairPrice(context.Background(), "solana", "PairA")
	require.NoError(t, err)
	assert.Equal(t, 1.25, price)
}

func TestPairPriceNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"pairs":[]}`)
	}))
	defer srv.Close()

	_, err := New(srv.URL).PairPrice(context.Background(), "solana", "Dead")
	assert.Error(t, err)
}

func TestSolPriceCachesAndFallsBack(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls > 1 {
			http.Error(w, "down", http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"pairs":[
			{"priceUsd":"150.0","liquidity":{"usd":1000}},
			{"priceUsd":"200.0","liquidity":{"usd":900000}}
		]}`)
	}))
	defer srv.Close()

	c := New(srv.URL)

	// Deepest pair's price wins.
	assert.Equal(t, 200.0, c.SolPrice(context.Background()))
	// Cached: no second request inside the window.
	assert.Equal(t, 200.0, c.SolPrice(context.Background()))
	assert.Equal(t, 1, calls)

	// Expire the cache; the failing endpoint falls back to the stale value.
	c.priceMaxAge = 0
	assert.Equal(t, 200.0, c.SolPrice(context.Background()))
	assert.Equal(t, 2, calls)
}

func TestSolPriceNothingCached(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	assert.Equal(t, 0.0, New(srv.URL).SolPrice(context.Background()))
}

func TestParseFloat(t *testing.T) {
	assert.Equal(t, 1.5, ParseFloat("1.5"))
	assert.Equal(t, 1.5, ParseFloat(" 1.5 "))
	assert.Equal(t, 0.0, ParseFloat(""))
	assert.Equal(t, 0.0, ParseFloat("abc"))
}
