package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func fptr(f float64) *float64 { return &f }

func sampleToken(mint string) Token {
	return Token{
		Mint:           mint,
		Symbol:         "TKN",
		Name:           "Test Token",
		PairAddress:    "pair-" + mint,
		DexID:          "raydium",
		Price:          0.001,
		Liquidity:      5000,
		Volume24h:      20000,
		MarketCap:      100000,
		RugcheckScore:  fptr(30),
		OverallPassed:  true,
		AnalysisStatus: "complete",
		ScanResults:    `{"liquidity_analysis":{"outcome":"passed"}}`,
		APIData:        `{}`,
		LastScannedAt:  time.Now().UTC(),
		LastFilteredAt: time.Now().UTC(),
	}
}

func TestUpsertAndGetToken(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.UpsertTokens([]Token{sampleToken("MintA")}))

	got, err := store.GetToken("MintA")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "TKN", got.Symbol)
	assert.Equal(t, "raydium", got.DexID)
	assert.True(t, got.OverallPassed)
	assert.Equal(t, MonitoringUnmonitored, got.MonitoringStatus)
	require.NotNil(t, got.RugcheckScore)
	assert.Equal(t, 30.0, *got.RugcheckScore)
	assert.False(t, got.FirstSeenAt.IsZero())

	missing, err := store.GetToken("Nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUpsertPreservesFirstSeenAndMonitoring(t *testing.T) {
	store := newTestStore(t)

	first := sampleToken("MintA")
	require.NoError(t, store.UpsertTokens([]Token{first}))
	require.NoError(t, store.SetMonitoringStatus("MintA", MonitoringActive))

	before, err := store.GetToken("MintA")
	require.NoError(t, err)

	// Re-scan with fresh market data.
	update := sampleToken("MintA")
	update.Liquidity = 9000
	update.OverallPassed = false
	require.NoError(t, store.UpsertTokens([]Token{update}))

	after, err := store.GetToken("MintA")
	require.NoError(t, err)
	assert.Equal(t, 9000.0, after.Liquidity)
	assert.False(t, after.OverallPassed)
	// These two survive re-scans.
	assert.Equal(t, MonitoringActive, after.MonitoringStatus)
	assert.Equal(t, before.FirstSeenAt, after.FirstSeenAt)
}

func TestBestCandidateRanking(t *testing.T) {
	store := newTestStore(t)

	low := sampleToken("LowRisk")
	low.RugcheckScore = fptr(10)
	high := sampleToken("HighRisk")
	high.RugcheckScore = fptr(50)
	failed := sampleToken("Failed")
	failed.RugcheckScore = fptr(1)
	failed.OverallPassed = false
	noPair := sampleToken("NoPair")
	noPair.RugcheckScore = fptr(1)
	noPair.PairAddress = ""
	wrongDex := sampleToken("WrongDex")
	wrongDex.RugcheckScore = fptr(1)
	wrongDex.DexID = "shadydex"
	noScore := sampleToken("NoScore")
	noScore.RugcheckScore = nil

	require.NoError(t, store.UpsertTokens([]Token{low, high, failed, noPair, wrongDex, noScore}))

	best, err := store.BestCandidate(true, []string{"raydium", "pumpfun"})
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.Equal(t, "LowRisk", best.Mint)
}

func TestBestCandidateIgnoresErrorSentinel(t *testing.T) {
	store := newTestStore(t)

	// A failed rugcheck fetch persists as -1; it must never outrank a real
	// score just because the ordering is ascending.
	broken := sampleToken("BrokenFetch")
	broken.RugcheckScore = fptr(-1)
	scored := sampleToken("RealScore")
	scored.RugcheckScore = fptr(50)
	require.NoError(t, store.UpsertTokens([]Token{broken, scored}))

	best, err := store.BestCandidate(true, []string{"raydium"})
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.Equal(t, "RealScore", best.Mint)

	// With only the sentinel row present there is no eligible candidate.
	require.NoError(t, store.UpsertTokens([]Token{{
		Mint: "RealScore", Symbol: "TKN", PairAddress: "", DexID: "raydium",
	}}))
	best, err = store.BestCandidate(true, []string{"raydium"})
	require.NoError(t, err)
	assert.Nil(t, best)
}

func TestBestCandidateTieBreaks(t *testing.T) {
	store := newTestStore(t)

	a := sampleToken("AAA")
	a.RugcheckScore = fptr(10)
	a.Volume24h = 50000
	b := sampleToken("BBB")
	b.RugcheckScore = fptr(10)
	b.Volume24h = 90000
	require.NoError(t, store.UpsertTokens([]Token{a, b}))

	best, err := store.BestCandidate(true, []string{"raydium"})
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.Equal(t, "BBB", best.Mint, "equal risk falls through to volume")

	// Same risk and volume: deterministic mint ordering.
	b.Volume24h = 50000
	require.NoError(t, store.UpsertTokens([]Token{b}))
	best, err = store.BestCandidate(true, []string{"raydium"})
	require.NoError(t, err)
	assert.Equal(t, "AAA", best.Mint)
}

func TestBestCandidateActiveOnly(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.UpsertTokens([]Token{sampleToken("MintA")}))

	best, err := store.BestCandidate(false, []string{"raydium"})
	require.NoError(t, err)
	assert.Nil(t, best, "nothing is active yet")

	require.NoError(t, store.SetMonitoringStatus("MintA", MonitoringActive))
	best, err = store.BestCandidate(false, []string{"raydium"})
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.Equal(t, "MintA", best.Mint)
}

func TestBestCandidateEmptyAllowList(t *testing.T) {
	store := newTestStore(t)
	best, err := store.BestCandidate(true, nil)
	require.NoError(t, err)
	assert.Nil(t, best)
}

func TestActiveTokenAndStatusTransitions(t *testing.T) {
	store := newTestStore(t)

	active, err := store.ActiveToken()
	require.NoError(t, err)
	assert.Nil(t, active)

	require.NoError(t, store.UpsertTokens([]Token{sampleToken("MintA")}))
	require.NoError(t, store.SetMonitoringStatus("MintA", MonitoringActive))

	active, err = store.ActiveToken()
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, "MintA", active.Mint)

	require.NoError(t, store.SetMonitoringStatus("MintA", MonitoringFailed))
	active, err = store.ActiveToken()
	require.NoError(t, err)
	assert.Nil(t, active)

	err = store.SetMonitoringStatus("Ghost", MonitoringActive)
	require.Error(t, err)
}

func TestBlacklist(t *testing.T) {
	store := newTestStore(t)

	hit, err := store.IsBlacklisted("MintA")
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, store.UpsertTokens([]Token{sampleToken("MintA")}))
	require.NoError(t, store.SetMonitoringStatus("MintA", MonitoringActive))

	require.NoError(t, store.AddToBlacklist("MintA", "rug pulled"))

	hit, err = store.IsBlacklisted("MintA")
	require.NoError(t, err)
	assert.True(t, hit)

	// Blacklisting demotes the token immediately.
	tok, err := store.GetToken("MintA")
	require.NoError(t, err)
	assert.Equal(t, MonitoringStopped, tok.MonitoringStatus)
	assert.False(t, tok.OverallPassed)

	entries, err := store.Blacklist()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "rug pulled", entries[0].Reason)

	// Upsert updates the reason in place.
	require.NoError(t, store.AddToBlacklist("MintA", "confirmed scam"))
	entries, err = store.Blacklist()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "confirmed scam", entries[0].Reason)

	require.NoError(t, store.RemoveFromBlacklist("MintA"))
	hit, err = store.IsBlacklisted("MintA")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRecentTokensAndStats(t *testing.T) {
	store := newTestStore(t)

	older := sampleToken("Older")
	older.LastScannedAt = time.Now().UTC().Add(-time.Hour)
	older.OverallPassed = false
	newer := sampleToken("Newer")
	require.NoError(t, store.UpsertTokens([]Token{older, newer}))

	tokens, err := store.RecentTokens(10)
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, "Newer", tokens[0].Mint)

	tokens, err = store.RecentTokens(1)
	require.NoError(t, err)
	assert.Len(t, tokens, 1)

	stats, err := store.GetStats()
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats["tokens"])
	assert.Equal(t, int64(1), stats["passed"])
	assert.Equal(t, int64(0), stats["blacklisted"])
}
