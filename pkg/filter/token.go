package filter

import (
	"encoding/json"
	"time"
)

// AnalysisStatus tracks how far the orchestrator got on one token.
type AnalysisStatus string

const (
	StatusComplete     AnalysisStatus = "complete"
	StatusAbortedEarly AnalysisStatus = "aborted_early"
	StatusError        AnalysisStatus = "error"
)

// Holder is one entry from a token's top-holder breakdown.
type Holder struct {
	Address string  `json:"address"`
	Pct     float64 `json:"pct"`
}

// Token is the in-flight candidate record the scan cycle threads through the
// filter chain. Field normalization happens once at ingestion; filters read,
// they do not re-parse.
type Token struct {
	Mint        string `json:"mint"`
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	ChainID     string `json:"chain_id"`
	DexID       string `json:"dex_id"`
	PairAddress string `json:"pair_address"`

	Icon       string `json:"icon"`
	TwitterURL string `json:"twitter_url"`

	PriceUSD        float64 `json:"price_usd"`
	PriceSOL        float64 `json:"price_sol"`
	Liquidity       float64 `json:"liquidity"`
	MarketCap       float64 `json:"market_cap"`
	Volume24h       float64 `json:"volume_24h"`
	Volume5m        float64 `json:"volume_5m"`
	PriceChange24h  float64 `json:"price_change_24h"`
	VolumeChange24h float64 `json:"volume_change_24h"`

	// Reference-asset price, fetched once per filter pass and shared by the
	// units that need it. Zero means the fetch failed; units treat it as absent.
	SolPriceUSD float64 `json:"-"`

	PairCreatedAt time.Time `json:"pair_created_at"`
	AgeMinutes    *float64  `json:"age_minutes,omitempty"`
	Category      string    `json:"category,omitempty"`

	// Dump / contract risk inputs supplied by the detail feed. All optional:
	// nil means the feed had nothing to say, which is not a failure.
	DumpScore          *float64 `json:"dump_score,omitempty"`
	LiquidityLocked    *bool    `json:"liquidity_locked,omitempty"`
	OwnershipRenounced *bool    `json:"ownership_renounced,omitempty"`
	DevActivity        *float64 `json:"dev_activity,omitempty"`
	Holders            []Holder `json:"holders,omitempty"`
	ContractSource     string   `json:"-"`
	AuditFlagged       bool     `json:"audit_flagged"`

	// Risk score fetched in bulk before the filter pass.
	RugcheckScore  *float64 `json:"rugcheck_score,omitempty"`
	RugcheckIssues []string `json:"rugcheck_issues,omitempty"`
	RugcheckErr    string   `json:"rugcheck_error,omitempty"`

	// Filter output.
	Verdicts       map[string]Verdict `json:"verdicts"`
	OverallPassed  bool               `json:"overall_passed"`
	AnalysisStatus AnalysisStatus     `json:"analysis_status"`
	LastFilteredAt time.Time          `json:"last_filtered_at"`

	// Raw feed payload, retained opaquely for audit.
	Raw json.RawMessage `json:"-"`
}

// VerdictKey is the map key a filter's result is stored under.
func VerdictKey(name string) string {
	return name + "_analysis"
}

// Verdict returns the stored verdict for a filter name, if present.
func (t *Token) Verdict(name string) (Verdict, bool) {
	v, ok := t.Verdicts[VerdictKey(name)]
	return v, ok
}

func (t *Token) setVerdict(name string, v Verdict) {
	if t.Verdicts == nil {
		t.Verdicts = make(map[string]Verdict)
	}
	t.Verdicts[VerdictKey(name)] = v
}
