package sniffer

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/token/MintA", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-API-KEY"))
		fmt.Fprint(w, `{"tokenData":{"score":82.5}}`)
	}))
	defer srv.Close()

	score, err := New(srv.URL, "secret").Score(context.Background(), "MintA")
	require.NoError(t, err)
	assert.Equal(t, 82.5, score)
}

func TestScoreFallbackField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"snifscore":64}`)
	}))
	defer srv.Close()

	score, err := New(srv.URL, "").Score(context.Background(), "MintA")
	require.NoError(t, err)
	assert.Equal(t, 64.0, score)
}

func TestScoreHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "bad").Score(context.Background(), "MintA")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 403")
}
