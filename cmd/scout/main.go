package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tokenscout/pkg/config"
	"github.com/tokenscout/pkg/curve"
	"github.com/tokenscout/pkg/dashboard"
	"github.com/tokenscout/pkg/db"
	"github.com/tokenscout/pkg/dexscreener"
	"github.com/tokenscout/pkg/filter"
	"github.com/tokenscout/pkg/monitor"
	"github.com/tokenscout/pkg/rugcheck"
	"github.com/tokenscout/pkg/scanner"
	"github.com/tokenscout/pkg/sniffer"
	"github.com/tokenscout/pkg/social"
)

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).With().Timestamp().Logger()
	log.Info().Msg("🔭 Token Scout starting...")

	cfg, err := config.Load()
	if err != nil { log.Fatal().Err(err).Msg("config load failed") }
	if err := cfg.Validate(); err != nil { log.Fatal().Err(err).Msg("config invalid") }

	store, err := db.NewStore(cfg.DBPath)
	if err != nil { log.Fatal().Err(err).Msg("database init failed") }
	defer store.Close()

	dex := dexscreener.New(cfg.DexScreenerAPI)
	risk := rugcheck.New(cfg.RugcheckAPI)
	curveReader := curve.NewReader(cfg.SolanaRPCURL)

	deps := filter.Deps{
		Blacklist: store,
		Risk:      risk,
		Curve:     curveReader,
	}
	if cfg.SnifferAPIKey != "" {
		deps.Sniffer = sniffer.New(cfg.SnifferAPI, cfg.SnifferAPIKey)
	} else {
		log.Warn().Msg("SNIFFER_API_KEY not set, sniffer check disabled")
	}
	if cfg.TwitterAuthToken != "" {
		deps.Social = social.NewVerifier(cfg.TwitterAuthToken, cfg.TwitterCSRFToken)
	} else {
		log.Warn().Msg("TWITTER_AUTH_TOKEN not set, social check disabled")
	}

	var wl *filter.Whitelist
	if cfg.WhitelistFile != "" {
		wl, err = filter.LoadWhitelist(cfg.WhitelistFile)
		if err != nil { log.Fatal().Err(err).Str("file", cfg.WhitelistFile).Msg("whitelist load failed") }
		log.Info().Int("mints", wl.Len()).Msg("📋 whitelist loaded")
		deps.Whitelist = wl
	}

	orch := filter.NewOrchestrator(filter.DefaultUnits(cfg, deps), wl, dex)

	watcher := monitor.NewPriceWatcher(dex, cfg.TargetChain, cfg.MonitorPollInterval)
	defer watcher.Close()
	selector := monitor.NewSelector(store, watcher, cfg.AllowedDexes)

	sc := scanner.New(cfg, store, dex, risk, orch, selector, wl)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() { <-sigCh; log.Info().Msg("shutting down..."); cancel() }()

	errCh := make(chan error, 10)

	dash := dashboard.New(store, cfg, cfg.DashboardPort)
	go func() { errCh <- dash.Run() }()

	// One cycle at a time; a slow cycle delays the next tick instead of
	// overlapping it.
	sched := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err = sched.AddFunc(fmt.Sprintf("@every %s", cfg.ScanInterval), func() {
		if err := sc.RunOnce(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("scan cycle error")
		}
	})
	if err != nil { log.Fatal().Err(err).Msg("scheduler init failed") }

	printSummary(cfg, store)

	// First cycle right away, then on schedule.
	go func() {
		if err := sc.RunOnce(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("scan cycle error")
		}
	}()
	sched.Start()
	defer sched.Stop()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && err != context.Canceled { log.Error().Err(err).Msg("error") }
	}
	log.Info().Msg("goodbye 👋")
}

func printSummary(cfg *config.Config, store *db.Store) {
	stats, _ := store.GetStats()
	fmt.Println("\n" + strings.Repeat("═", 60))
	color.New(color.FgCyan, color.Bold).Println("  🔭 TOKEN SCOUT - RUNNING")
	fmt.Println(strings.Repeat("═", 60))
	fmt.Printf("  Chain:     %s\n", cfg.TargetChain)
	fmt.Printf("  Dexes:     %s\n", strings.Join(cfg.AllowedDexes, ", "))
	fmt.Printf("  Interval:  %s\n", cfg.ScanInterval)
	fmt.Printf("  Dashboard: http://localhost:%d\n", cfg.DashboardPort)
	snifferStatus := color.RedString("❌ disabled (set SNIFFER_API_KEY)")
	if cfg.SnifferAPIKey != "" { snifferStatus = color.GreenString("✅ enabled") }
	fmt.Printf("  Sniffer:   %s\n", snifferStatus)
	socialStatus := color.RedString("❌ disabled (set TWITTER_AUTH_TOKEN)")
	if cfg.TwitterAuthToken != "" { socialStatus = color.GreenString("✅ enabled") }
	fmt.Printf("  Social:    %s\n", socialStatus)
	if stats != nil {
		fmt.Printf("  DB: %d tokens, %d passed, %d blacklisted\n",
			stats["tokens"], stats["passed"], stats["blacklisted"])
	}
	fmt.Println(strings.Repeat("═", 60) + "\n")
}
