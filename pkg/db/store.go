package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS tokens (
    mint TEXT PRIMARY KEY,
    symbol TEXT NOT NULL DEFAULT 'UNKNOWN',
    name TEXT,
    pair_address TEXT,
    dex_id TEXT,
    price REAL DEFAULT 0,
    price_sol REAL DEFAULT 0,
    liquidity REAL DEFAULT 0,
    volume_24h REAL DEFAULT 0,
    market_cap REAL DEFAULT 0,
    age_minutes REAL,
    category TEXT,
    rugcheck_score REAL,
    overall_passed BOOLEAN DEFAULT FALSE,
    analysis_status TEXT,
    monitoring_status TEXT NOT NULL DEFAULT 'unmonitored',
    scan_results TEXT DEFAULT '{}',
    api_data TEXT DEFAULT '{}',
    first_seen_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    last_scanned_at TIMESTAMP,
    last_filtered_at TIMESTAMP
);

CREATE TABLE IF NOT EXISTS blacklist (
    mint TEXT PRIMARY KEY,
    reason TEXT,
    added_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_tokens_passed ON tokens(overall_passed);
CREATE INDEX IF NOT EXISTS idx_tokens_monitoring ON tokens(monitoring_status);
CREATE INDEX IF NOT EXISTS idx_tokens_scanned ON tokens(last_scanned_at);
`

type Store struct {
	db *sql.DB
}

func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// ---- Tokens ----

// UpsertTokens writes a batch of prepared records in one transaction, keyed
// by mint. Market fields and verdicts are overwritten; first_seen_at and
// monitoring_status survive re-scans.
func (s *Store) UpsertTokens(tokens []Token) error {
	if len(tokens) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin upsert tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO tokens
		(mint, symbol, name, pair_address, dex_id, price, price_sol, liquidity,
		 volume_24h, market_cap, age_minutes, category, rugcheck_score,
		 overall_passed, analysis_status, monitoring_status, scan_results, api_data,
		 last_scanned_at, last_filtered_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(mint) DO UPDATE SET
			symbol = excluded.symbol,
			name = excluded.name,
			pair_address = excluded.pair_address,
			dex_id = excluded.dex_id,
			price = excluded.price,
			price_sol = excluded.price_sol,
			liquidity = excluded.liquidity,
			volume_24h = excluded.volume_24h,
			market_cap = excluded.market_cap,
			age_minutes = excluded.age_minutes,
			category = excluded.category,
			rugcheck_score = excluded.rugcheck_score,
			overall_passed = excluded.overall_passed,
			analysis_status = excluded.analysis_status,
			scan_results = excluded.scan_results,
			api_data = excluded.api_data,
			last_scanned_at = excluded.last_scanned_at,
			last_filtered_at = excluded.last_filtered_at`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, t := range tokens {
		status := t.MonitoringStatus
		if status == "" {
			status = MonitoringUnmonitored
		}
		if _, err := stmt.Exec(
			t.Mint, t.Symbol, t.Name, t.PairAddress, t.DexID,
			t.Price, t.PriceSOL, t.Liquidity, t.Volume24h, t.MarketCap,
			t.AgeMinutes, t.Category, t.RugcheckScore,
			t.OverallPassed, t.AnalysisStatus, status,
			t.ScanResults, t.APIData, t.LastScannedAt, t.LastFilteredAt,
		); err != nil {
			return fmt.Errorf("upsert token %s: %w", t.Mint, err)
		}
	}

	return tx.Commit()
}

const tokenColumns = `mint, symbol, COALESCE(name,''), COALESCE(pair_address,''), COALESCE(dex_id,''),
	price, price_sol, liquidity, volume_24h, market_cap, age_minutes, COALESCE(category,''),
	rugcheck_score, overall_passed, COALESCE(analysis_status,''), monitoring_status,
	COALESCE(scan_results,'{}'), COALESCE(api_data,'{}'),
	first_seen_at, last_scanned_at, last_filtered_at`

func scanToken(row interface{ Scan(...interface{}) error }) (*Token, error) {
	var t Token
	var scanned, filtered sql.NullTime
	err := row.Scan(&t.Mint, &t.Symbol, &t.Name, &t.PairAddress, &t.DexID,
		&t.Price, &t.PriceSOL, &t.Liquidity, &t.Volume24h, &t.MarketCap,
		&t.AgeMinutes, &t.Category, &t.RugcheckScore,
		&t.OverallPassed, &t.AnalysisStatus, &t.MonitoringStatus,
		&t.ScanResults, &t.APIData,
		&t.FirstSeenAt, &scanned, &filtered)
	if err != nil {
		return nil, err
	}
	t.LastScannedAt = t.FirstSeenAt
	if scanned.Valid {
		t.LastScannedAt = scanned.Time
	}
	t.LastFilteredAt = t.FirstSeenAt
	if filtered.Valid {
		t.LastFilteredAt = filtered.Time
	}
	return &t, nil
}

func (s *Store) GetToken(mint string) (*Token, error) {
	t, err := scanToken(s.db.QueryRow(
		fmt.Sprintf("SELECT %s FROM tokens WHERE mint=?", tokenColumns), mint))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return t, err
}

// BestCandidate returns the single highest-ranked eligible token, or nil.
// Eligibility: passed all filters, pair and dex known, dex in the allow-list,
// a real risk score present (the negative error sentinel would otherwise sort
// first). Ranking lives here, not in the selector: lowest risk first, then
// volume, then liquidity, mint as the deterministic tie-break.
func (s *Store) BestCandidate(includeInactive bool, allowedDexes []string) (*Token, error) {
	if len(allowedDexes) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimRight(strings.Repeat("?,", len(allowedDexes)), ",")
	query := fmt.Sprintf(`
		SELECT %s FROM tokens
		WHERE overall_passed = TRUE
		  AND pair_address != ''
		  AND dex_id IN (%s)
		  AND rugcheck_score IS NOT NULL
		  AND rugcheck_score >= 0`, tokenColumns, placeholders)

	args := make([]interface{}, 0, len(allowedDexes)+1)
	for _, d := range allowedDexes {
		args = append(args, d)
	}
	if !includeInactive {
		query += " AND monitoring_status = ?"
		args = append(args, MonitoringActive)
	}
	query += `
		ORDER BY rugcheck_score ASC, volume_24h DESC, liquidity DESC, mint ASC
		LIMIT 1`

	t, err := scanToken(s.db.QueryRow(query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return t, err
}

// ActiveToken returns the currently monitored token, if any.
func (s *Store) ActiveToken() (*Token, error) {
	t, err := scanToken(s.db.QueryRow(
		fmt.Sprintf("SELECT %s FROM tokens WHERE monitoring_status=? LIMIT 1", tokenColumns),
		MonitoringActive))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return t, err
}

func (s *Store) SetMonitoringStatus(mint, status string) error {
	res, err := s.db.Exec("UPDATE tokens SET monitoring_status=? WHERE mint=?", status, mint)
	if err != nil {
		return fmt.Errorf("set monitoring status %s=%s: %w", mint, status, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("token %s not found", mint)
	}
	return nil
}

// RecentTokens lists the latest scanned rows for the dashboard.
func (s *Store) RecentTokens(limit int) ([]Token, error) {
	rows, err := s.db.Query(fmt.Sprintf(
		"SELECT %s FROM tokens ORDER BY last_scanned_at DESC LIMIT ?", tokenColumns), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []Token
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			continue
		}
		tokens = append(tokens, *t)
	}
	return tokens, rows.Err()
}

// ---- Blacklist ----

func (s *Store) AddToBlacklist(mint, reason string) error {
	_, err := s.db.Exec(`
		INSERT INTO blacklist (mint, reason) VALUES (?, ?)
		ON CONFLICT(mint) DO UPDATE SET reason=excluded.reason`, mint, reason)
	if err != nil {
		return fmt.Errorf("blacklist %s: %w", mint, err)
	}
	// A blacklisted token must never stay monitored.
	s.db.Exec("UPDATE tokens SET monitoring_status=?, overall_passed=FALSE WHERE mint=?",
		MonitoringStopped, mint)
	return nil
}

func (s *Store) RemoveFromBlacklist(mint string) error {
	_, err := s.db.Exec("DELETE FROM blacklist WHERE mint=?", mint)
	return err
}

func (s *Store) IsBlacklisted(mint string) (bool, error) {
	var one int
	err := s.db.QueryRow("SELECT 1 FROM blacklist WHERE mint=?", mint).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) Blacklist() ([]BlacklistEntry, error) {
	rows, err := s.db.Query("SELECT mint, COALESCE(reason,''), added_at FROM blacklist ORDER BY added_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []BlacklistEntry
	for rows.Next() {
		var e BlacklistEntry
		if err := rows.Scan(&e.Mint, &e.Reason, &e.AddedAt); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ---- Stats ----

func (s *Store) GetStats() (map[string]int64, error) {
	stats := map[string]int64{}

	var total, passed, blacklisted int64
	s.db.QueryRow("SELECT COUNT(*) FROM tokens").Scan(&total)
	s.db.QueryRow("SELECT COUNT(*) FROM tokens WHERE overall_passed=TRUE").Scan(&passed)
	s.db.QueryRow("SELECT COUNT(*) FROM blacklist").Scan(&blacklisted)

	stats["tokens"] = total
	stats["passed"] = passed
	stats["blacklisted"] = blacklisted

	var lastScan sql.NullTime
	if err := s.db.QueryRow(
		"SELECT last_scanned_at FROM tokens ORDER BY last_scanned_at DESC LIMIT 1").Scan(&lastScan); err == nil && lastScan.Valid {
		stats["seconds_since_scan"] = int64(time.Since(lastScan.Time).Seconds())
	}
	return stats, nil
}
