package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// PairPricer fetches a pair's current USD price.
type PairPricer interface {
	PairPrice(ctx context.Context, chainID, pairAddress string) (float64, error)
}

// PriceWatcher is the concrete monitoring consumer: one polling goroutine per
// watched pair. The selector keeps it at a single watch in practice; the map
// exists so Stop and Start stay race-free.
type PriceWatcher struct {
	pricer   PairPricer
	chainID  string
	interval time.Duration

	mu      sync.Mutex
	watches map[string]context.CancelFunc
}

func NewPriceWatcher(pricer PairPricer, chainID string, interval time.Duration) *PriceWatcher {
	return &PriceWatcher{
		pricer:   pricer,
		chainID:  chainID,
		interval: interval,
		watches:  make(map[string]context.CancelFunc),
	}
}

// Start begins polling the pair. The first fetch is synchronous so a dead
// pair fails the start instead of silently spinning.
func (w *PriceWatcher) Start(ctx context.Context, mint, pairAddress, dexID string) error {
	price, err := w.pricer.PairPrice(ctx, w.chainID, pairAddress)
	if err != nil {
		return fmt.Errorf("initial price fetch for %s: %w", abbrev(mint), err)
	}

	watchCtx, cancel := context.WithCancel(context.Background())

	w.mu.Lock()
	if old, ok := w.watches[mint]; ok {
		old()
	}
	w.watches[mint] = cancel
	w.mu.Unlock()

	log.Info().Str("mint", abbrev(mint)).Str("dex", dexID).
		Float64("price", price).Msg("📈 price watch started")

	go w.poll(watchCtx, mint, pairAddress, price)
	return nil
}

func (w *PriceWatcher) poll(ctx context.Context, mint, pairAddress string, lastPrice float64) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			price, err := w.pricer.PairPrice(ctx, w.chainID, pairAddress)
			if err != nil {
				log.Warn().Err(err).Str("mint", abbrev(mint)).Msg("price poll failed")
				continue
			}
			change := 0.0
			if lastPrice > 0 {
				change = (price - lastPrice) / lastPrice * 100
			}
			log.Info().Str("mint", abbrev(mint)).Float64("price", price).
				Float64("change_pct", change).Msg("price tick")
			lastPrice = price
		}
	}
}

// Stop cancels the pair's polling goroutine. Stopping an unwatched mint is a
// no-op.
func (w *PriceWatcher) Stop(_ context.Context, mint string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if cancel, ok := w.watches[mint]; ok {
		cancel()
		delete(w.watches, mint)
		log.Info().Str("mint", abbrev(mint)).Msg("price watch stopped")
	}
	return nil
}

// Close stops every watch.
func (w *PriceWatcher) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for mint, cancel := range w.watches {
		cancel()
		delete(w.watches, mint)
	}
}

func abbrev(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:8] + "..."
}
