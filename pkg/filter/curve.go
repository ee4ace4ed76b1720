package filter

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/tokenscout/pkg/config"
)

// CurveUnit checks bonding-curve progress for tokens still on a curve venue.
// Everything else gets a skipped verdict — being off-curve is not a failure.
func CurveUnit(cfg *config.Config, reader CurveReader) Unit {
	return NewSingleCheck("bonding_curve", func(ctx context.Context, tok *Token) Verdict {
		if !config.IsBondingCurveDex(tok.DexID) {
			return Skipped("not a bonding curve venue")
		}
		if reader == nil {
			return Skipped("curve reader not configured")
		}
		m := reader.Metrics(ctx, tok.Mint, tok.SolPriceUSD)
		if m.Err != "" {
			return Errored(m.Err)
		}
		if m.Status != "success" {
			return Skipped(m.Status)
		}

		// Curve-derived cap drifting far from the feed's cap is telemetry
		// only; it never flips the verdict.
		if tok.MarketCap > 0 && m.MarketCap > 0 {
			drift := (m.MarketCap - tok.MarketCap) / tok.MarketCap
			if drift > 0.25 || drift < -0.25 {
				log.Warn().Str("mint", tok.Mint).
					Float64("feed_mcap", tok.MarketCap).
					Float64("curve_mcap", m.MarketCap).
					Msg("market cap mismatch between feed and bonding curve")
			}
		}

		if m.ProgressPercent < cfg.MinCurveProgress {
			return Failed(fmt.Sprintf("curve progress %.1f%% below %.1f%%",
				m.ProgressPercent, cfg.MinCurveProgress)).WithScore(m.ProgressPercent).WithRaw(m)
		}
		if m.ProgressPercent > cfg.MaxCurveProgress {
			return Failed(fmt.Sprintf("curve progress %.1f%% above %.1f%%, migration imminent",
				m.ProgressPercent, cfg.MaxCurveProgress)).WithScore(m.ProgressPercent).WithRaw(m)
		}
		return Passed().WithScore(m.ProgressPercent).WithRaw(m)
	})
}
