package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vitos/solidity_screener/internal/domain"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", withForeignKeys(dbPath))
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// withForeignKeys turns on REFERENCES checks, which sqlite leaves off per connection.
func withForeignKeys(dbPath string) string {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + "_foreign_keys=on"
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS scans (
			id TEXT PRIMARY KEY,
			started_at DATETIME NOT NULL,
			duration_ms INTEGER NOT NULL,
			min_volume REAL NOT NULL,
			ratio REAL NOT NULL,
			symbols INTEGER NOT NULL,
			failed INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_scans_started_at ON scans(started_at);`,
		`CREATE TABLE IF NOT EXISTS scan_signals (
			scan_id TEXT NOT NULL REFERENCES scans(id),
			symbol TEXT NOT NULL,
			quote_volume REAL NOT NULL,
			buy_volume REAL NOT NULL,
			sell_volume REAL NOT NULL,
			long_price REAL,
			long_volume REAL,
			short_price REAL,
			short_volume REAL,
			PRIMARY KEY (scan_id, symbol)
		);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("failed to exec query %s: %w", q, err)
		}
	}

	return nil
}

// ScanRepository Implementation

func (s *SQLiteStore) SaveScanReport(ctx context.Context, report *domain.ScanReport) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `INSERT INTO scans (id, started_at, duration_ms, min_volume, ratio, symbols, failed)
			  VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, query,
		report.ID, report.StartedAt, report.Duration.Milliseconds(), report.MinVolume, report.Ratio,
		len(report.Outcomes), len(report.Failed()))
	if err != nil {
		return fmt.Errorf("insert scan %s: %w", report.ID, err)
	}

	signalQuery := `INSERT INTO scan_signals (scan_id, symbol, quote_volume, buy_volume, sell_volume, long_price, long_volume, short_price, short_volume)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, r := range report.WithSignal() {
		longPrice, longVolume := levelColumns(r.SolidityLong)
		shortPrice, shortVolume := levelColumns(r.SolidityShort)
		if _, err := tx.ExecContext(ctx, signalQuery,
			report.ID, r.Symbol, r.QuoteVolume, r.BuyVolume, r.SellVolume,
			longPrice, longVolume, shortPrice, shortVolume); err != nil {
			return fmt.Errorf("insert signal %s/%s: %w", report.ID, r.Symbol, err)
		}
	}

	return tx.Commit()
}

func levelColumns(level *domain.SolidityLevel) (sql.NullFloat64, sql.NullFloat64) {
	if level == nil {
		return sql.NullFloat64{}, sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: level.Price, Valid: true}, sql.NullFloat64{Float64: level.Volume, Valid: true}
}

// ListScanReports returns the most recent scans first.
func (s *SQLiteStore) ListScanReports(ctx context.Context, limit int) ([]*domain.ScanSummary, error) {
	query := `SELECT id, started_at, duration_ms, min_volume, ratio, symbols, failed FROM scans ORDER BY started_at DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scans []*domain.ScanSummary
	for rows.Next() {
		var sc domain.ScanSummary
		if err := rows.Scan(&sc.ID, &sc.StartedAt, &sc.DurationMs, &sc.MinVolume, &sc.Ratio, &sc.Symbols, &sc.Failed); err != nil {
			return nil, err
		}
		scans = append(scans, &sc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, sc := range scans {
		if sc.Signals, err = s.listSignalSymbols(ctx, sc.ID); err != nil {
			return nil, err
		}
	}
	return scans, nil
}

func (s *SQLiteStore) listSignalSymbols(ctx context.Context, scanID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT symbol FROM scan_signals WHERE scan_id = ? ORDER BY symbol`, scanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	symbols := []string{}
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, err
		}
		symbols = append(symbols, symbol)
	}
	return symbols, rows.Err()
}
