package monitor

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/tokenscout/pkg/db"
)

// Consumer is the external monitoring surface the selector drives.
type Consumer interface {
	Start(ctx context.Context, mint, pairAddress, dexID string) error
	Stop(ctx context.Context, mint string) error
}

// Store is the slice of persistence the selector needs.
type Store interface {
	BestCandidate(includeInactive bool, allowedDexes []string) (*db.Token, error)
	ActiveToken() (*db.Token, error)
	SetMonitoringStatus(mint, status string) error
}

// Selector keeps at most one token actively monitored. It owns every
// monitoring-state transition; ranking lives in the persistence query.
type Selector struct {
	store        Store
	consumer     Consumer
	allowedDexes []string
}

func NewSelector(store Store, consumer Consumer, allowedDexes []string) *Selector {
	return &Selector{store: store, consumer: consumer, allowedDexes: allowedDexes}
}

// UpdateBestSelection picks the best eligible candidate across the whole
// known population and switches monitoring to it if it beats the current one.
// No eligible candidate means the current token, if any, stays untouched.
func (s *Selector) UpdateBestSelection(ctx context.Context) error {
	candidate, err := s.store.BestCandidate(true, s.allowedDexes)
	if err != nil {
		return fmt.Errorf("query best candidate: %w", err)
	}

	current, err := s.store.ActiveToken()
	if err != nil {
		return fmt.Errorf("query active token: %w", err)
	}

	if candidate == nil {
		if current != nil {
			log.Debug().Str("mint", current.Mint).Msg("no eligible candidate, retaining current monitor")
		}
		return nil
	}
	if candidate.PairAddress == "" || candidate.DexID == "" {
		return fmt.Errorf("candidate %s missing pair or dex", candidate.Mint)
	}

	if current != nil {
		if current.Mint == candidate.Mint {
			return nil
		}
		// Stop-before-start keeps the single-active invariant without a lock.
		if err := s.consumer.Stop(ctx, current.Mint); err != nil {
			log.Warn().Err(err).Str("mint", current.Mint).Msg("stop monitoring failed")
		}
		if err := s.store.SetMonitoringStatus(current.Mint, db.MonitoringStopped); err != nil {
			return fmt.Errorf("mark %s stopped: %w", current.Mint, err)
		}
		log.Info().Str("old", current.Mint).Str("new", candidate.Mint).Msg("🔁 switching monitored token")
	}

	// Pending marks the in-between state while the consumer spins up, so a
	// crash mid-handoff never leaves a stale "active" row behind.
	if err := s.store.SetMonitoringStatus(candidate.Mint, db.MonitoringPending); err != nil {
		return fmt.Errorf("mark %s pending: %w", candidate.Mint, err)
	}

	if err := s.consumer.Start(ctx, candidate.Mint, candidate.PairAddress, candidate.DexID); err != nil {
		// The old token is NOT reinstated; nothing stays active until the
		// next cycle picks a working candidate.
		log.Error().Err(err).Str("mint", candidate.Mint).Msg("start monitoring failed")
		if serr := s.store.SetMonitoringStatus(candidate.Mint, db.MonitoringFailed); serr != nil {
			return fmt.Errorf("mark %s monitoring_failed: %w", candidate.Mint, serr)
		}
		return nil
	}

	if err := s.store.SetMonitoringStatus(candidate.Mint, db.MonitoringActive); err != nil {
		return fmt.Errorf("mark %s active: %w", candidate.Mint, err)
	}
	log.Info().Str("mint", candidate.Mint).Str("dex", candidate.DexID).
		Float64("liq", candidate.Liquidity).Msg("👁 monitoring token")
	return nil
}
