package rugcheck

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreParsesReport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tokens/GoodMint/report", r.URL.Path)
		fmt.Fprint(w, `{
			"score_normalised": 34.5,
			"risks": [
				{"name": "freeze authority", "level": "danger", "description": "can freeze"},
				{"name": "low lp", "level": "warn", "description": "meh"}
			]
		}`)
	}))
	defer srv.Close()

	res := New(srv.URL).Score(context.Background(), "GoodMint")
	assert.Empty(t, res.Err)
	assert.Equal(t, 34.5, res.Score)
	assert.Equal(t, []string{"freeze authority"}, res.Issues)
}

func TestScoreCarriesHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	res := New(srv.URL).Score(context.Background(), "MissingMint")
	assert.Contains(t, res.Err, "HTTP 404")
	assert.Zero(t, res.Score)
}

func TestScoresIsolatesFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/tokens/BadMint/report" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"score_normalised": 12}`)
	}))
	defer srv.Close()

	mints := []string{"MintA", "BadMint", "MintB", "MintC"}
	out := New(srv.URL).Scores(context.Background(), mints, 2)

	require.Len(t, out, len(mints))
	assert.Contains(t, out["BadMint"].Err, "HTTP 500")
	for _, m := range []string{"MintA", "MintB", "MintC"} {
		assert.Empty(t, out[m].Err, m)
		assert.Equal(t, 12.0, out[m].Score, m)
	}
}

func TestScoresHonorsConcurrencyBound(t *testing.T) {
	var inFlight, peak int32
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&inFlight, 1)
		mu.Lock()
		if n > peak {
			peak = n
		}
		mu.Unlock()
		defer atomic.AddInt32(&inFlight, -1)
		fmt.Fprint(w, `{"score_normalised": 5}`)
	}))
	defer srv.Close()

	mints := make([]string, 20)
	for i := range mints {
		mints[i] = fmt.Sprintf("Mint%02d", i)
	}
	out := New(srv.URL).Scores(context.Background(), mints, 3)

	require.Len(t, out, 20)
	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, peak, int32(3))
}

func TestScoresCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"score_normalised": 5}`)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := New(srv.URL).Scores(ctx, []string{"M1", "M2"}, 1)
	require.Len(t, out, 2)
	for m, res := range out {
		assert.NotEmpty(t, res.Err, m)
	}
}
