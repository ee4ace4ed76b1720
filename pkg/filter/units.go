package filter

import (
	"context"

	"github.com/tokenscout/pkg/config"
)

// Unit is one filter in the chain. Implementations come in three capability
// shapes (single-token, list-annotate, address-only), each wrapped behind this
// one method so the orchestrator never probes for shapes at runtime.
type Unit interface {
	Name() string
	Evaluate(ctx context.Context, tok *Token) Verdict
}

// SingleCheck analyzes one token record directly.
type SingleCheck struct {
	name string
	fn   func(ctx context.Context, tok *Token) Verdict
}

func NewSingleCheck(name string, fn func(ctx context.Context, tok *Token) Verdict) *SingleCheck {
	return &SingleCheck{name: name, fn: fn}
}

func (c *SingleCheck) Name() string { return c.name }

func (c *SingleCheck) Evaluate(ctx context.Context, tok *Token) Verdict {
	return c.fn(ctx, tok)
}

// BatchCheck annotates a list of tokens in place; checks that batch naturally
// (score lookups by address) use this shape. The orchestrator invokes it with
// a single-element list and extracts the stored verdict.
type BatchCheck struct {
	name string
	fn   func(ctx context.Context, toks []*Token)
}

func NewBatchCheck(name string, fn func(ctx context.Context, toks []*Token)) *BatchCheck {
	return &BatchCheck{name: name, fn: fn}
}

func (c *BatchCheck) Name() string { return c.name }

func (c *BatchCheck) Evaluate(ctx context.Context, tok *Token) Verdict {
	c.fn(ctx, []*Token{tok})
	if v, ok := tok.Verdict(c.name); ok {
		return v
	}
	return Errored("batch check produced no result")
}

// AddressCheck needs only the mint address.
type AddressCheck struct {
	name string
	fn   func(ctx context.Context, mint string) Verdict
}

func NewAddressCheck(name string, fn func(ctx context.Context, mint string) Verdict) *AddressCheck {
	return &AddressCheck{name: name, fn: fn}
}

func (c *AddressCheck) Name() string { return c.name }

func (c *AddressCheck) Evaluate(ctx context.Context, tok *Token) Verdict {
	return c.fn(ctx, tok.Mint)
}

// Descriptor binds a unit to its chain position and criticality.
type Descriptor struct {
	Unit     Unit
	Rank     int
	Enabled  bool
	Critical bool
}

// Collaborator interfaces. Concrete clients live in their own packages; nil
// deps disable the corresponding unit.

type BlacklistChecker interface {
	IsBlacklisted(mint string) (bool, error)
}

type RiskScore struct {
	Score  float64
	Issues []string
	Err    string
}

type RiskScorer interface {
	Score(ctx context.Context, mint string) RiskScore
}

type SnifferScorer interface {
	Score(ctx context.Context, mint string) (float64, error)
}

type SocialResult struct {
	Handle         string `json:"handle"`
	Exists         bool   `json:"exists"`
	Followers      int    `json:"followers"`
	BlueVerified   bool   `json:"blue_verified"`
	AccountAgeDays int    `json:"account_age_days"`
	MintAnnounced  bool   `json:"mint_announced"`
	Err            string `json:"error,omitempty"`
}

type SocialVerifier interface {
	Verify(ctx context.Context, profileURL, mint string) SocialResult
}

type CurveMetrics struct {
	Status              string  `json:"status"`
	ProgressPercent     float64 `json:"progress_percent"`
	MarketCap           float64 `json:"market_cap"`
	MigrationLikelihood string  `json:"migration_likelihood"`
	Err                 string  `json:"error,omitempty"`
}

type CurveReader interface {
	Metrics(ctx context.Context, mint string, solPriceUSD float64) CurveMetrics
}

// Deps carries the external collaborators the units need.
type Deps struct {
	Blacklist BlacklistChecker
	Whitelist *Whitelist
	Risk      RiskScorer
	Sniffer   SnifferScorer
	Social    SocialVerifier
	Curve     CurveReader
}

// DefaultUnits builds the standard chain in rank order. Units whose
// collaborator is missing are present but disabled, so the verdict map shape
// stays stable across configurations.
func DefaultUnits(cfg *config.Config, deps Deps) []Descriptor {
	critical := make(map[string]bool, len(cfg.CriticalFilters))
	for _, name := range cfg.CriticalFilters {
		critical[name] = true
	}
	// Blacklist hits are critical no matter how the set is configured.
	critical["blacklist"] = true

	units := []struct {
		unit    Unit
		enabled bool
	}{
		{BlacklistUnit(deps.Blacklist), deps.Blacklist != nil},
		{WhitelistUnit(deps.Whitelist), deps.Whitelist != nil},
		{RugcheckUnit(cfg, deps.Risk), true},
		{SnifferUnit(cfg, deps.Sniffer), deps.Sniffer != nil},
		{ScamUnit(), true},
		{LiquidityUnit(cfg), true},
		{VolumeUnit(cfg), true},
		{DumpUnit(cfg), true},
		{WhaleUnit(cfg), true},
		{CurveUnit(cfg, deps.Curve), deps.Curve != nil},
		{SocialUnit(cfg, deps.Social), deps.Social != nil},
		{MoonshotUnit(cfg), true},
	}

	out := make([]Descriptor, 0, len(units))
	for i, u := range units {
		out = append(out, Descriptor{
			Unit:     u.unit,
			Rank:     i,
			Enabled:  u.enabled,
			Critical: critical[u.unit.Name()],
		})
	}
	return out
}
