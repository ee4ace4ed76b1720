package scanner

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tokenscout/pkg/config"
	"github.com/tokenscout/pkg/db"
	"github.com/tokenscout/pkg/dexscreener"
	"github.com/tokenscout/pkg/filter"
)

// Feed is the discovery + detail surface of the market-data API.
type Feed interface {
	Candidates(ctx context.Context) ([]dexscreener.Profile, error)
	Details(ctx context.Context, mints []string) (map[string]dexscreener.Pair, error)
}

// RiskScores fans out risk-score lookups with per-mint fault isolation.
type RiskScores interface {
	Scores(ctx context.Context, mints []string, maxConcurrent int) map[string]filter.RiskScore
}

// Selector runs the best-candidate selection after persistence.
type Selector interface {
	UpdateBestSelection(ctx context.Context) error
}

// Scanner drives one discovery-filter-persist cycle.
type Scanner struct {
	cfg       *config.Config
	store     *db.Store
	feed      Feed
	risk      RiskScores
	orch      *filter.Orchestrator
	selector  Selector
	whitelist *filter.Whitelist
}

func New(cfg *config.Config, store *db.Store, feed Feed, risk RiskScores,
	orch *filter.Orchestrator, selector Selector, wl *filter.Whitelist) *Scanner {
	return &Scanner{
		cfg: cfg, store: store, feed: feed, risk: risk,
		orch: orch, selector: selector, whitelist: wl,
	}
}

// RunOnce executes one full scan cycle. Only cancellation escapes; every
// other failure is logged and the cycle ends early so the scheduler can retry
// on the next tick.
func (s *Scanner) RunOnce(ctx context.Context) error {
	started := time.Now()

	candidates, err := s.discover(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Error().Err(err).Msg("discovery failed, skipping cycle")
		return nil
	}
	if len(candidates) == 0 {
		log.Info().Msg("no candidates survived discovery")
		return nil
	}

	survivors := s.prequalify(candidates)
	for _, tok := range survivors {
		computeAge(tok)
		tok.Category = categorize(s.cfg, tok)
	}

	s.attachRiskScores(ctx, survivors)
	if ctx.Err() != nil {
		return ctx.Err()
	}

	for _, tok := range survivors {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.orch.Apply(ctx, tok, true)
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	s.persist(survivors)

	if err := s.selector.UpdateBestSelection(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Error().Err(err).Msg("best candidate selection failed")
	}

	passed := 0
	for _, tok := range survivors {
		if tok.OverallPassed {
			passed++
		}
	}
	log.Info().Int("scanned", len(survivors)).Int("passed", passed).
		Dur("took", time.Since(started)).Msg("🔄 scan cycle done")
	return nil
}

// discover fetches the raw feed, applies the structural pre-filter, the
// candidate cap and the chain filter, then enriches survivors with bulk pair
// details and normalizes them into candidate records.
func (s *Scanner) discover(ctx context.Context) ([]*filter.Token, error) {
	profiles, err := s.feed.Candidates(ctx)
	if err != nil {
		return nil, err
	}
	log.Debug().Int("raw", len(profiles)).Msg("discovery feed fetched")

	// Hard structural gate: an icon and a Twitter-type link, before anything
	// rate-limited gets spent.
	var kept []dexscreener.Profile
	for _, p := range profiles {
		if p.Icon == "" || p.TwitterLink() == "" {
			continue
		}
		kept = append(kept, p)
	}

	if len(kept) > s.cfg.MaxCandidates {
		kept = kept[:s.cfg.MaxCandidates]
	}

	// Chain filter plus the mint fallback chain.
	byMint := make(map[string]dexscreener.Profile, len(kept))
	var mints []string
	for _, p := range kept {
		if p.ChainID != s.cfg.TargetChain {
			continue
		}
		mint := p.TokenAddress
		if mint == "" {
			mint = p.BaseAddress
		}
		if mint == "" {
			log.Warn().Str("url", p.URL).Msg("candidate has no usable mint address, dropping")
			continue
		}
		if _, dup := byMint[mint]; dup {
			continue
		}
		byMint[mint] = p
		mints = append(mints, mint)
	}
	if len(mints) == 0 {
		return nil, nil
	}

	details, err := s.feed.Details(ctx, mints)
	if err != nil {
		return nil, err
	}

	var out []*filter.Token
	for _, mint := range mints {
		pair, ok := details[mint]
		if !ok {
			log.Debug().Str("mint", mint).Msg("no pair details, dropping")
			continue
		}
		if pair.BaseToken.Address != mint {
			log.Warn().Str("requested", mint).Str("got", pair.BaseToken.Address).
				Msg("detail mint mismatch, dropping")
			continue
		}
		out = append(out, normalizeToken(byMint[mint], pair))
	}
	return out, nil
}

// normalizeToken maps the external schema onto the internal record once, with
// the detail payload preferred and the summary payload as fallback.
func normalizeToken(p dexscreener.Profile, pair dexscreener.Pair) *filter.Token {
	tok := &filter.Token{
		Mint:            pair.BaseToken.Address,
		Symbol:          pair.BaseToken.Symbol,
		Name:            pair.BaseToken.Name,
		ChainID:         pair.ChainID,
		DexID:           pair.DexID,
		PairAddress:     pair.PairAddress,
		Icon:            p.Icon,
		TwitterURL:      p.TwitterLink(),
		PriceUSD:        dexscreener.ParseFloat(pair.PriceUSD),
		PriceSOL:        dexscreener.ParseFloat(pair.PriceNative),
		Liquidity:       pair.Liquidity.USD,
		MarketCap:       pair.MarketCap,
		Volume24h:       pair.Volume.H24,
		Volume5m:        pair.Volume.M5,
		PriceChange24h:  pair.PriceChange.H24,
		VolumeChange24h: volumeChangePct(pair),
		Raw:             pair.Raw,
	}
	if tok.ChainID == "" {
		tok.ChainID = p.ChainID
	}
	if tok.MarketCap == 0 {
		tok.MarketCap = pair.FDV
	}
	if pair.PairCreatedAt > 0 {
		tok.PairCreatedAt = time.UnixMilli(pair.PairCreatedAt).UTC()
	}
	return tok
}

// volumeChangePct approximates 24h volume momentum from the 6h window: a
// steady token trades ~25% of daily volume per quarter day.
func volumeChangePct(pair dexscreener.Pair) float64 {
	if pair.Volume.H24 <= 0 {
		return 0
	}
	expected := pair.Volume.H24 / 4
	if expected <= 0 {
		return 0
	}
	return (pair.Volume.H6 - expected) / expected * 100
}

// prequalify drops candidates before any paid-API quota is spent: blacklist
// rejects outright, the forced whitelist always passes, everything else needs
// the cheap liquidity and volume floors.
func (s *Scanner) prequalify(candidates []*filter.Token) []*filter.Token {
	var out []*filter.Token
	for _, tok := range candidates {
		if hit, err := s.store.IsBlacklisted(tok.Mint); err == nil && hit {
			log.Info().Str("mint", tok.Mint).Msg("⛔ blacklisted, rejected at prequalification")
			continue
		}
		if s.whitelist != nil && s.whitelist.Contains(tok.Mint) {
			out = append(out, tok)
			continue
		}
		if tok.Liquidity < s.cfg.MinLiquidity || tok.Volume24h < s.cfg.MinVolume24h {
			log.Debug().Str("mint", tok.Mint).Float64("liq", tok.Liquidity).
				Float64("vol", tok.Volume24h).Msg("prequalification failed, skipping expensive filters")
			continue
		}
		out = append(out, tok)
	}
	return out
}

func computeAge(tok *filter.Token) {
	if tok.PairCreatedAt.IsZero() {
		return
	}
	age := time.Since(tok.PairCreatedAt).Minutes()
	if age < 0 {
		age = 0
	}
	tok.AgeMinutes = &age
}

// categorize buckets the token's lifecycle stage.
func categorize(cfg *config.Config, tok *filter.Token) string {
	if tok.DexID == "pumpswap" {
		return string(config.CategoryMigrated)
	}
	if tok.AgeMinutes == nil {
		return string(config.CategoryOld)
	}
	age := *tok.AgeMinutes
	switch {
	case age < cfg.FreshAgeMax:
		return string(config.CategoryFresh)
	case age < cfg.NewAgeMax:
		return string(config.CategoryNew)
	case age < cfg.FinalAgeMax:
		return string(config.CategoryFinal)
	default:
		return string(config.CategoryOld)
	}
}

// attachRiskScores bulk-fetches rugcheck scores under the concurrency gate
// and annotates each token. A failed mint gets its error attached; it still
// flows through the filter chain.
func (s *Scanner) attachRiskScores(ctx context.Context, toks []*filter.Token) {
	if s.risk == nil || len(toks) == 0 {
		return
	}
	mints := make([]string, 0, len(toks))
	for _, tok := range toks {
		mints = append(mints, tok.Mint)
	}

	scores := s.risk.Scores(ctx, mints, s.cfg.ScoreConcurrency)
	for _, tok := range toks {
		res, ok := scores[tok.Mint]
		if !ok {
			continue
		}
		if res.Err != "" {
			tok.RugcheckErr = res.Err
			continue
		}
		score := res.Score
		tok.RugcheckScore = &score
		tok.RugcheckIssues = res.Issues
	}
}

// persist writes the whole batch, passed or failed, so the verdict detail
// stays inspectable offline. The best-candidate query filters on
// overall_passed.
func (s *Scanner) persist(toks []*filter.Token) {
	now := time.Now().UTC()
	records := make([]db.Token, 0, len(toks))
	for _, tok := range toks {
		records = append(records, prepareRecord(tok, now))
	}
	if err := s.store.UpsertTokens(records); err != nil {
		log.Error().Err(err).Int("tokens", len(records)).Msg("batch upsert failed")
		return
	}
	log.Debug().Int("tokens", len(records)).Msg("batch upserted")
}

// prepareRecord flattens the in-flight candidate into its persisted row.
func prepareRecord(tok *filter.Token, scannedAt time.Time) db.Token {
	verdicts, err := json.Marshal(tok.Verdicts)
	if err != nil {
		verdicts = []byte("{}")
	}
	apiData := "{}"
	if len(tok.Raw) > 0 {
		apiData = string(tok.Raw)
	}
	return db.Token{
		Mint:           tok.Mint,
		Symbol:         tok.Symbol,
		Name:           tok.Name,
		PairAddress:    tok.PairAddress,
		DexID:          tok.DexID,
		Price:          tok.PriceUSD,
		PriceSOL:       tok.PriceSOL,
		Liquidity:      tok.Liquidity,
		Volume24h:      tok.Volume24h,
		MarketCap:      tok.MarketCap,
		AgeMinutes:     tok.AgeMinutes,
		Category:       tok.Category,
		RugcheckScore:  tok.RugcheckScore,
		OverallPassed:  tok.OverallPassed,
		AnalysisStatus: string(tok.AnalysisStatus),
		ScanResults:    string(verdicts),
		APIData:        apiData,
		LastScannedAt:  scannedAt,
		LastFilteredAt: tok.LastFilteredAt,
	}
}
