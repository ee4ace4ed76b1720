package filter

import (
	"context"
	"fmt"

	"github.com/tokenscout/pkg/config"
)

// SocialUnit verifies the token's Twitter presence. Verification problems
// (no link, invalid link, account gone, rate limits) degrade to a non-blocking
// unknown unless the unit is configured critical — the orchestrator decides
// what an error verdict means.
func SocialUnit(cfg *config.Config, verifier SocialVerifier) Unit {
	return NewSingleCheck("social", func(ctx context.Context, tok *Token) Verdict {
		if verifier == nil {
			return Skipped("social verifier not configured")
		}
		if tok.TwitterURL == "" {
			return Errored("no twitter link")
		}
		res := verifier.Verify(ctx, tok.TwitterURL, tok.Mint)
		if res.Err != "" {
			return Errored(res.Err).WithRaw(res)
		}
		if !res.Exists {
			return Failed("account_not_found").WithRaw(res)
		}
		if res.Followers < cfg.SocialMinFollowers {
			return Failed(fmt.Sprintf("followers %d below %d", res.Followers, cfg.SocialMinFollowers)).WithRaw(res)
		}
		if res.AccountAgeDays < cfg.SocialMinAccountAge {
			return Failed(fmt.Sprintf("account age %dd below %dd", res.AccountAgeDays, cfg.SocialMinAccountAge)).WithRaw(res)
		}
		return Passed().WithRaw(res)
	})
}
