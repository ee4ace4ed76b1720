package filter

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// Whitelist is a forced-qualification set loaded from a CSV with a `mint`
// header column. Mints in it bypass the whole filter chain.
type Whitelist struct {
	mu    sync.RWMutex
	mints map[string]bool
}

func NewWhitelist(mints ...string) *Whitelist {
	w := &Whitelist{mints: make(map[string]bool, len(mints))}
	for _, m := range mints {
		w.mints[m] = true
	}
	return w
}

func LoadWhitelist(path string) (*Whitelist, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open whitelist: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse whitelist csv: %w", err)
	}
	if len(rows) == 0 {
		return NewWhitelist(), nil
	}

	mintCol := -1
	for i, h := range rows[0] {
		if strings.EqualFold(strings.TrimSpace(h), "mint") {
			mintCol = i
			break
		}
	}
	if mintCol < 0 {
		return nil, fmt.Errorf("whitelist csv %s has no 'mint' header column", path)
	}

	w := NewWhitelist()
	for _, row := range rows[1:] {
		if mintCol >= len(row) {
			continue
		}
		if m := strings.TrimSpace(row[mintCol]); m != "" {
			w.mints[m] = true
		}
	}
	log.Info().Int("mints", len(w.mints)).Str("file", path).Msg("whitelist loaded")
	return w, nil
}

func (w *Whitelist) Contains(mint string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.mints[mint]
}

func (w *Whitelist) Add(mint string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.mints[mint] = true
}

func (w *Whitelist) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.mints)
}

// WhitelistUnit annotates membership for inspection. The forced short-circuit
// happens in the orchestrator before the chain runs; this unit only records
// whitelisted / not_whitelisted and never fails a token.
func WhitelistUnit(wl *Whitelist) Unit {
	return NewAddressCheck("whitelist", func(_ context.Context, mint string) Verdict {
		if wl != nil && wl.Contains(mint) {
			return Verdict{Outcome: OutcomePassed, Reason: "whitelisted"}
		}
		return Verdict{Outcome: OutcomePassed, Reason: "not_whitelisted"}
	})
}

// BlacklistUnit is a hard gate: a blacklisted mint fails regardless of every
// other filter. Lookup errors fail closed as error verdicts.
func BlacklistUnit(store BlacklistChecker) Unit {
	return NewAddressCheck("blacklist", func(_ context.Context, mint string) Verdict {
		if store == nil {
			return Skipped("blacklist store not configured")
		}
		hit, err := store.IsBlacklisted(mint)
		if err != nil {
			return Errored(fmt.Sprintf("blacklist lookup: %v", err))
		}
		if hit {
			return Failed("blacklisted")
		}
		return Passed()
	})
}
