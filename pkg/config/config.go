package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Category buckets a token's lifecycle stage, derived from age and curve state.
type Category string

const (
	CategoryFresh    Category = "FRESH"
	CategoryNew      Category = "NEW"
	CategoryFinal    Category = "FINAL"
	CategoryMigrated Category = "MIGRATED"
	CategoryOld      Category = "OLD"
)

type Config struct {
	// API endpoints
	DexScreenerAPI string
	RugcheckAPI    string
	SnifferAPI     string
	SnifferAPIKey  string
	SolanaRPCURL   string

	// Twitter session (imperatrona/twitter-scraper)
	TwitterAuthToken string
	TwitterCSRFToken string

	// Discovery
	TargetChain   string
	MaxCandidates int
	AllowedDexes  []string

	// Scan loop
	ScanInterval     time.Duration
	ScoreConcurrency int

	// Liquidity / volume gates
	MinLiquidity      float64
	MinLiquidityRatio float64
	MinVolume24h      float64
	MinVolume5m       float64

	// Risk scoring
	MaxRugcheckScore float64
	MinSnifferScore  float64

	// Dump risk
	MinDumpScore   float64
	MaxDevActivity float64

	// Whale concentration
	WhaleHoldingPct float64
	MaxWhaleCount   int

	// Moonshot potential
	MoonshotMinPriceChange24h  float64
	MoonshotMinVolumeChange24h float64
	MoonshotMaxMarketCap       float64

	// Bonding curve window (pump.fun venues only)
	MinCurveProgress float64
	MaxCurveProgress float64

	// Social verification
	SocialMinFollowers  int
	SocialMinAccountAge int // days

	// Filter wiring
	CriticalFilters []string
	WhitelistFile   string

	// Lifecycle category age windows (minutes)
	FreshAgeMax float64
	NewAgeMax   float64
	FinalAgeMax float64

	// Monitoring
	MonitorPollInterval time.Duration

	// DB
	DBPath string

	// Dashboard
	DashboardPort int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DexScreenerAPI: envOr("DEXSCREENER_API", "https://api.dexscreener.com"),
		RugcheckAPI:    envOr("RUGCHECK_API", "https://api.rugcheck.xyz/v1"),
		SnifferAPI:     envOr("SNIFFER_API", "https://solsniffer.com/api/v2"),
		SnifferAPIKey:  os.Getenv("SNIFFER_API_KEY"),
		SolanaRPCURL:   envOr("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com"),

		TwitterAuthToken: os.Getenv("TWITTER_AUTH_TOKEN"),
		TwitterCSRFToken: os.Getenv("TWITTER_CSRF_TOKEN"),

		TargetChain:   envOr("TARGET_CHAIN", "solana"),
		MaxCandidates: envInt("MAX_CANDIDATES", 30),

		ScanInterval:     time.Duration(envInt("SCAN_INTERVAL", 300)) * time.Second,
		ScoreConcurrency: envInt("SCORE_CONCURRENCY", 5),

		MinLiquidity:      envFloat("MIN_LIQUIDITY", 1000),
		MinLiquidityRatio: envFloat("MIN_LIQUIDITY_RATIO", 0.02),
		MinVolume24h:      envFloat("MIN_VOLUME_24H", 10000),
		MinVolume5m:       envFloat("MIN_VOLUME_5M", 500),

		MaxRugcheckScore: envFloat("MAX_RUGCHECK_SCORE", 55),
		MinSnifferScore:  envFloat("MIN_SNIFFER_SCORE", 70),

		MinDumpScore:   envFloat("MIN_DUMP_SCORE", 50),
		MaxDevActivity: envFloat("MAX_DEV_ACTIVITY", 70),

		WhaleHoldingPct: envFloat("WHALE_HOLDING_PCT", 5),
		MaxWhaleCount:   envInt("MAX_WHALE_COUNT", 3),

		MoonshotMinPriceChange24h:  envFloat("MOONSHOT_MIN_PRICE_CHANGE_24H", 20),
		MoonshotMinVolumeChange24h: envFloat("MOONSHOT_MIN_VOLUME_CHANGE_24H", 50),
		MoonshotMaxMarketCap:       envFloat("MOONSHOT_MAX_MARKET_CAP", 1_000_000),

		MinCurveProgress: envFloat("MIN_CURVE_PROGRESS", 5),
		MaxCurveProgress: envFloat("MAX_CURVE_PROGRESS", 98),

		SocialMinFollowers:  envInt("SOCIAL_MIN_FOLLOWERS", 100),
		SocialMinAccountAge: envInt("SOCIAL_MIN_ACCOUNT_AGE_DAYS", 7),

		WhitelistFile: envOr("WHITELIST_FILE", ""),

		FreshAgeMax: envFloat("FRESH_AGE_MAX", 60),
		NewAgeMax:   envFloat("NEW_AGE_MAX", 360),
		FinalAgeMax: envFloat("FINAL_AGE_MAX", 1440),

		MonitorPollInterval: time.Duration(envInt("MONITOR_POLL_INTERVAL", 15)) * time.Second,

		DBPath:        envOr("DB_PATH", "tokenscout.db"),
		DashboardPort: envInt("DASHBOARD_PORT", 8080),
	}

	if v := os.Getenv("ALLOWED_DEXES"); v != "" {
		cfg.AllowedDexes = splitTrim(v)
	} else {
		cfg.AllowedDexes = []string{"raydium", "pumpfun", "pumpswap", "meteora", "orca"}
	}

	if v := os.Getenv("CRITICAL_FILTERS"); v != "" {
		cfg.CriticalFilters = splitTrim(v)
	} else {
		cfg.CriticalFilters = []string{"blacklist", "rugcheck", "sniffer"}
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.MaxCandidates <= 0 {
		return fmt.Errorf("MAX_CANDIDATES must be positive, got %d", c.MaxCandidates)
	}
	if c.ScoreConcurrency <= 0 {
		return fmt.Errorf("SCORE_CONCURRENCY must be positive, got %d", c.ScoreConcurrency)
	}
	if c.MinLiquidity <= 0 || c.MinVolume24h <= 0 {
		return fmt.Errorf("MIN_LIQUIDITY and MIN_VOLUME_24H must be positive")
	}
	if c.MinCurveProgress >= c.MaxCurveProgress {
		return fmt.Errorf("MIN_CURVE_PROGRESS (%.1f) must be below MAX_CURVE_PROGRESS (%.1f)",
			c.MinCurveProgress, c.MaxCurveProgress)
	}
	if c.FreshAgeMax >= c.NewAgeMax || c.NewAgeMax >= c.FinalAgeMax {
		return fmt.Errorf("category age windows must be increasing: FRESH_AGE_MAX < NEW_AGE_MAX < FINAL_AGE_MAX")
	}
	if len(c.AllowedDexes) == 0 {
		return fmt.Errorf("ALLOWED_DEXES must not be empty")
	}
	return nil
}

// IsBondingCurveDex reports whether a dex id is one of the bonding-curve launch venues.
func IsBondingCurveDex(dexID string) bool {
	return dexID == "pumpfun" || dexID == "pumpswap"
}

// helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func splitTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
