package dashboard

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/tokenscout/pkg/config"
	"github.com/tokenscout/pkg/db"
)

type Dashboard struct {
	store *db.Store
	cfg   *config.Config
	port  int
}

func New(store *db.Store, cfg *config.Config, port int) *Dashboard {
	return &Dashboard{store: store, cfg: cfg, port: port}
}

func (d *Dashboard) Run() error {
	mux := http.NewServeMux()

	// API endpoints
	mux.HandleFunc("/api/stats", cors(d.handleStats))
	mux.HandleFunc("/api/tokens", cors(d.handleTokens))
	mux.HandleFunc("/api/best", cors(d.handleBest))
	mux.HandleFunc("/api/blacklist", cors(d.handleBlacklist))
	mux.HandleFunc("/api/blacklist/add", cors(d.handleAddBlacklist))

	addr := fmt.Sprintf(":%d", d.port)
	log.Info().Str("addr", addr).Msg("🌐 dashboard started")
	return http.ListenAndServe(addr, mux)
}

func cors(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(200)
			return
		}
		h(w, r)
	}
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (d *Dashboard) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, _ := d.store.GetStats()
	writeJSON(w, stats)
}

func (d *Dashboard) handleTokens(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}
	tokens, err := d.store.RecentTokens(limit)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	writeJSON(w, tokens)
}

func (d *Dashboard) handleBest(w http.ResponseWriter, r *http.Request) {
	active, err := d.store.ActiveToken()
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	candidate, err := d.store.BestCandidate(true, d.cfg.AllowedDexes)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	writeJSON(w, map[string]interface{}{
		"active":    active,
		"candidate": candidate,
	})
}

func (d *Dashboard) handleBlacklist(w http.ResponseWriter, r *http.Request) {
	entries, err := d.store.Blacklist()
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	writeJSON(w, entries)
}

func (d *Dashboard) handleAddBlacklist(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		http.Error(w, "POST only", 405)
		return
	}

	body, _ := io.ReadAll(r.Body)
	var req struct {
		Mint   string `json:"mint"`
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(body, &req); err != nil || req.Mint == "" {
		http.Error(w, "invalid request", 400)
		return
	}

	if err := d.store.AddToBlacklist(req.Mint, req.Reason); err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	log.Info().Str("mint", req.Mint).Str("reason", req.Reason).Msg("⛔ token blacklisted via dashboard")
	writeJSON(w, map[string]string{"status": "ok"})
}
