package filter

import (
	"context"
	"fmt"

	"github.com/tokenscout/pkg/config"
)

// SnifferAPIErrorScore is the sentinel the sniffer service returns when its
// backend is temporarily unavailable. It must never be read as a real score.
const SnifferAPIErrorScore = 101

// RugcheckUnit evaluates the normalized rugcheck risk score. It is a batch
// shape: the scan cycle pre-fetches scores concurrently and attaches them, so
// the per-token call only fetches when nothing is attached yet.
func RugcheckUnit(cfg *config.Config, scorer RiskScorer) Unit {
	return NewBatchCheck("rugcheck", func(ctx context.Context, toks []*Token) {
		for _, tok := range toks {
			if _, done := tok.Verdict("rugcheck"); done {
				continue
			}
			if tok.RugcheckScore == nil && tok.RugcheckErr == "" && scorer != nil {
				res := scorer.Score(ctx, tok.Mint)
				if res.Err != "" {
					tok.RugcheckErr = res.Err
				} else {
					score := res.Score
					tok.RugcheckScore = &score
					tok.RugcheckIssues = res.Issues
				}
			}
			tok.setVerdict("rugcheck", rugcheckVerdict(cfg, tok))
		}
	})
}

func rugcheckVerdict(cfg *config.Config, tok *Token) Verdict {
	if tok.RugcheckErr != "" {
		score := -1.0
		tok.RugcheckScore = &score
		return Verdict{
			Outcome: OutcomeError,
			Score:   &score,
			Reason:  "api_error_or_not_found",
			Err:     tok.RugcheckErr,
		}
	}
	score := 100.0 // unknown tokens default to worst normalized score
	if tok.RugcheckScore != nil {
		score = *tok.RugcheckScore
	} else {
		tok.RugcheckScore = &score
	}
	if len(tok.RugcheckIssues) > 0 {
		return Failed("critical_issues").WithScore(score).WithRaw(tok.RugcheckIssues)
	}
	if score > cfg.MaxRugcheckScore {
		return Failed("score_too_high").WithScore(score)
	}
	return Passed().WithScore(score)
}

// SnifferUnit is address-only: the sniffer service needs nothing but the mint.
// Higher sniffer score is better; the 101 sentinel means the API failed and is
// surfaced as an error verdict, never a pass.
func SnifferUnit(cfg *config.Config, scorer SnifferScorer) Unit {
	return NewAddressCheck("sniffer", func(ctx context.Context, mint string) Verdict {
		if scorer == nil {
			return Skipped("sniffer not configured")
		}
		score, err := scorer.Score(ctx, mint)
		if err != nil {
			return Errored(err.Error())
		}
		if score >= SnifferAPIErrorScore {
			return Errored(fmt.Sprintf("sniffer sentinel score %.0f", score)).WithScore(score)
		}
		if score < cfg.MinSnifferScore {
			return Failed("sniff_score_too_low").WithScore(score)
		}
		return Passed().WithScore(score)
	})
}
