package filter

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
)

// PriceSource supplies the reference-asset USD price shared by several units.
type PriceSource interface {
	SolPrice(ctx context.Context) float64
}

// Orchestrator applies the configured filter chain to one token and folds the
// per-unit verdicts into a single overall result.
type Orchestrator struct {
	units  []Descriptor
	forced *Whitelist
	prices PriceSource
}

func NewOrchestrator(units []Descriptor, forced *Whitelist, prices PriceSource) *Orchestrator {
	sorted := make([]Descriptor, len(units))
	copy(sorted, units)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Rank < sorted[j].Rank })
	return &Orchestrator{units: sorted, forced: forced, prices: prices}
}

// Units exposes the chain in rank order, mostly for logging and tests.
func (o *Orchestrator) Units() []Descriptor {
	return o.units
}

// Apply runs the chain on tok in rank order. With initialScan set, a failing
// critical unit aborts the rest of the chain (aborted_early). Units whose
// verdict key already exists are skipped, so re-applying a partially
// annotated token resumes instead of redoing work.
func (o *Orchestrator) Apply(ctx context.Context, tok *Token, initialScan bool) *Token {
	if tok.Mint == "" {
		tok.setVerdict("input", Errored("missing mint address"))
		tok.OverallPassed = false
		tok.AnalysisStatus = StatusError
		tok.LastFilteredAt = time.Now().UTC()
		return tok
	}

	// Forced whitelist short-circuits the entire chain.
	if o.forced != nil && o.forced.Contains(tok.Mint) {
		tok.OverallPassed = true
		tok.AnalysisStatus = StatusComplete
		tok.LastFilteredAt = time.Now().UTC()
		log.Info().Str("mint", tok.Mint).Msg("✅ whitelisted, skipping filters")
		return tok
	}

	// One ambient price fetch per call, shared by every unit that needs it.
	// A failed fetch leaves zero and units treat the value as absent.
	if o.prices != nil && tok.SolPriceUSD == 0 {
		tok.SolPriceUSD = o.prices.SolPrice(ctx)
	}

	normalize(tok)

	tok.AnalysisStatus = StatusComplete

	for _, d := range o.units {
		if !d.Enabled {
			continue
		}
		// Skip-if-present: re-applying a partially annotated token resumes
		// where the previous pass stopped.
		if _, done := tok.Verdict(d.Unit.Name()); done {
			continue
		}

		verdict := evaluate(ctx, d.Unit, tok)
		tok.setVerdict(d.Unit.Name(), verdict)

		if verdict.Bad() && d.Critical && initialScan {
			tok.AnalysisStatus = StatusAbortedEarly
			log.Debug().Str("mint", tok.Mint).Str("filter", d.Unit.Name()).
				Str("reason", verdict.Reason).Msg("critical filter failed, aborting chain")
			break
		}
	}

	// Fold over everything recorded so far, not just this pass, so re-apply
	// never upgrades a previously failed token. Explicit failures always
	// count; error verdicts count only on critical units — elsewhere an
	// error is an unknown, not a rejection.
	passed := true
	for _, d := range o.units {
		v, ok := tok.Verdict(d.Unit.Name())
		if !ok {
			continue
		}
		if v.Outcome == OutcomeFailed || (v.Outcome == OutcomeError && d.Critical) {
			passed = false
			break
		}
	}
	tok.OverallPassed = passed
	tok.LastFilteredAt = time.Now().UTC()
	return tok
}

// evaluate shields the loop from a panicking unit: the panic becomes an
// error verdict for that unit alone.
func evaluate(ctx context.Context, u Unit, tok *Token) (v Verdict) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("filter", u.Name()).Str("mint", tok.Mint).
				Interface("panic", r).Msg("filter panicked")
			v = Errored(fmt.Sprintf("filter panic: %v", r))
		}
	}()
	return u.Evaluate(ctx, tok)
}

// normalize fills the handful of fields the units depend on. Malformed or
// missing values default rather than error.
func normalize(tok *Token) {
	if tok.Symbol == "" {
		tok.Symbol = "UNKNOWN"
	}
	if tok.Liquidity < 0 {
		tok.Liquidity = 0
	}
	if tok.MarketCap < 0 {
		tok.MarketCap = 0
	}
	if tok.Volume24h < 0 {
		tok.Volume24h = 0
	}
}
