package db

import (
	"time"
)

// Monitoring states. Only the selector (and its consumer) transitions these.
const (
	MonitoringUnmonitored = "unmonitored"
	MonitoringPending     = "pending"
	MonitoringActive      = "active"
	MonitoringStopped     = "stopped"
	MonitoringFailed      = "monitoring_failed"
)

// Token is one persisted candidate row, keyed by mint. Filter verdicts and
// the aggregate verdict are overwritten every scan cycle; the row itself
// persists.
type Token struct {
	Mint        string `json:"mint"`
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	PairAddress string `json:"pair_address"`
	DexID       string `json:"dex_id"`

	Price     float64 `json:"price"`
	PriceSOL  float64 `json:"price_sol"`
	Liquidity float64 `json:"liquidity"`
	Volume24h float64 `json:"volume_24h"`
	MarketCap float64 `json:"market_cap"`

	AgeMinutes    *float64 `json:"age_minutes,omitempty"`
	Category      string   `json:"category"`
	RugcheckScore *float64 `json:"rugcheck_score,omitempty"`

	OverallPassed    bool   `json:"overall_passed"`
	AnalysisStatus   string `json:"analysis_status"`
	MonitoringStatus string `json:"monitoring_status"`

	ScanResults string `json:"scan_results"` // JSON verdict map
	APIData     string `json:"api_data"`     // opaque raw payload for audit

	FirstSeenAt    time.Time `json:"first_seen_at"`
	LastScannedAt  time.Time `json:"last_scanned_at"`
	LastFilteredAt time.Time `json:"last_filtered_at"`
}

// BlacklistEntry is one banned mint.
type BlacklistEntry struct {
	Mint    string    `json:"mint"`
	Reason  string    `json:"reason"`
	AddedAt time.Time `json:"added_at"`
}
