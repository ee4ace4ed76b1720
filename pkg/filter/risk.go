package filter

import (
	"context"
	"fmt"
	"strings"

	"github.com/tokenscout/pkg/config"
)

// DumpUnit flags sell-off risk. The four sub-conditions are OR'd, any single
// one marks the token. Inputs the feed did not supply are left out of the
// check rather than counted against the token.
func DumpUnit(cfg *config.Config) Unit {
	return NewSingleCheck("dump", func(_ context.Context, tok *Token) Verdict {
		if tok.DumpScore == nil && tok.LiquidityLocked == nil &&
			tok.OwnershipRenounced == nil && tok.DevActivity == nil {
			return Skipped("no dump risk data")
		}
		var reasons []string
		if tok.DumpScore != nil && *tok.DumpScore < cfg.MinDumpScore {
			reasons = append(reasons, "dump_score_too_low")
		}
		if tok.LiquidityLocked != nil && !*tok.LiquidityLocked {
			reasons = append(reasons, "liquidity_not_locked")
		}
		if tok.OwnershipRenounced != nil && !*tok.OwnershipRenounced {
			reasons = append(reasons, "ownership_not_renounced")
		}
		if tok.DevActivity != nil && *tok.DevActivity > cfg.MaxDevActivity {
			reasons = append(reasons, "dev_wallet_activity_high")
		}
		if len(reasons) > 0 {
			return Failed(strings.Join(reasons, ","))
		}
		return Passed()
	})
}

// WhaleUnit counts holders above the per-holder concentration threshold and
// flags when too many of them exist.
func WhaleUnit(cfg *config.Config) Unit {
	return NewSingleCheck("whale", func(_ context.Context, tok *Token) Verdict {
		if len(tok.Holders) == 0 {
			return Skipped("no holder data")
		}
		whales := 0
		for _, h := range tok.Holders {
			if h.Pct > cfg.WhaleHoldingPct {
				whales++
			}
		}
		if whales > cfg.MaxWhaleCount {
			return Failed(fmt.Sprintf("whale_count %d above %d", whales, cfg.MaxWhaleCount)).
				WithScore(float64(whales))
		}
		return Passed().WithScore(float64(whales))
	})
}

var scamPatterns = []struct {
	pattern string
	flag    string
}{
	{"mint(", "mint_function"},
	{"set_fee", "hidden_fees"},
	{"hidden_fee", "hidden_fees"},
	{"burn_liquidity", "burnt_liquidity"},
	{"onlyowner", "dev_wallet_control"},
	{"set_authority", "dev_wallet_control"},
}

// ScamUnit scans contract source, when the feed supplies it, for known bad
// patterns. No source available means nothing to scan, not a failure.
func ScamUnit() Unit {
	return NewSingleCheck("scam", func(_ context.Context, tok *Token) Verdict {
		if tok.ContractSource == "" && !tok.AuditFlagged {
			return Skipped("no contract source")
		}
		src := strings.ToLower(tok.ContractSource)
		var flags []string
		seen := map[string]bool{}
		for _, p := range scamPatterns {
			if strings.Contains(src, p.pattern) && !seen[p.flag] {
				seen[p.flag] = true
				flags = append(flags, p.flag)
			}
		}
		if tok.AuditFlagged {
			flags = append(flags, "audit_flagged")
		}
		if len(flags) > 0 {
			return Failed(strings.Join(flags, ","))
		}
		return Passed()
	})
}
