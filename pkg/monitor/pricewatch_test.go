package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePricer struct {
	price float64
	err   error
}

func (f *fakePricer) PairPrice(context.Context, string, string) (float64, error) {
	return f.price, f.err
}

func TestPriceWatcherStartFailsOnDeadPair(t *testing.T) {
	w := NewPriceWatcher(&fakePricer{err: errors.New("no pair")}, "solana", time.Minute)
	defer w.Close()

	err := w.Start(context.Background(), "MintA", "PairA", "raydium")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "initial price fetch")
}

func TestPriceWatcherStartAndStop(t *testing.T) {
	w := NewPriceWatcher(&fakePricer{price: 0.5}, "solana", time.Minute)
	defer w.Close()

	require.NoError(t, w.Start(context.Background(), "MintA", "PairA", "raydium"))
	assert.Len(t, w.watches, 1)

	require.NoError(t, w.Stop(context.Background(), "MintA"))
	assert.Empty(t, w.watches)

	// Stopping an unknown mint is a no-op.
	require.NoError(t, w.Stop(context.Background(), "MintA"))
}

func TestPriceWatcherRestartReplacesWatch(t *testing.T) {
	w := NewPriceWatcher(&fakePricer{price: 0.5}, "solana", time.Minute)
	defer w.Close()

	require.NoError(t, w.Start(context.Background(), "MintA", "PairA", "raydium"))
	require.NoError(t, w.Start(context.Background(), "MintA", "PairA2", "raydium"))
	assert.Len(t, w.watches, 1)
}
