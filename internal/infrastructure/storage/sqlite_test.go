package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitos/solidity_screener/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "scans.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_SaveAndListScanReports(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	older := &domain.ScanReport{
		ID:        "scan-1",
		StartedAt: start,
		Duration:  1500 * time.Millisecond,
		MinVolume: 1000,
		Ratio:     10,
		Groups:    1,
		Outcomes: []domain.ScanOutcome{
			{Symbol: "ABCUSDT", Result: &domain.SolidityResult{Symbol: "ABCUSDT"}},
		},
	}
	newer := &domain.ScanReport{
		ID:        "scan-2",
		StartedAt: start.Add(time.Minute),
		Duration:  2 * time.Second,
		MinVolume: 1000,
		Ratio:     10,
		Groups:    1,
		Outcomes: []domain.ScanOutcome{
			{Symbol: "DEFUSDT", Result: &domain.SolidityResult{
				Symbol:        "DEFUSDT",
				QuoteVolume:   5000,
				SolidityShort: &domain.SolidityLevel{Price: 1.5, Volume: 900},
			}},
			{Symbol: "ABCUSDT", Result: &domain.SolidityResult{
				Symbol:       "ABCUSDT",
				SolidityLong: &domain.SolidityLevel{Price: 2, Volume: 300},
			}},
			{Symbol: "XYZUSDT", Err: errors.New("timeout")},
		},
	}

	require.NoError(t, store.SaveScanReport(ctx, older))
	require.NoError(t, store.SaveScanReport(ctx, newer))

	scans, err := store.ListScanReports(ctx, 10)
	require.NoError(t, err)
	require.Len(t, scans, 2)

	assert.Equal(t, "scan-2", scans[0].ID)
	assert.Equal(t, int64(2000), scans[0].DurationMs)
	assert.Equal(t, 3, scans[0].Symbols)
	assert.Equal(t, 1, scans[0].Failed)
	assert.Equal(t, []string{"ABCUSDT", "DEFUSDT"}, scans[0].Signals)

	assert.Equal(t, "scan-1", scans[1].ID)
	assert.Empty(t, scans[1].Signals)
}

func TestSQLiteStore_ListLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.SaveScanReport(ctx, &domain.ScanReport{
			ID:        id,
			StartedAt: time.Unix(int64(i), 0).UTC(),
		}))
	}

	scans, err := store.ListScanReports(ctx, 2)
	require.NoError(t, err)
	require.Len(t, scans, 2)
	assert.Equal(t, "c", scans[0].ID)
	assert.Equal(t, "b", scans[1].ID)
}

func TestSQLiteStore_DuplicateID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	report := &domain.ScanReport{ID: "dup", StartedAt: time.Now().UTC()}
	require.NoError(t, store.SaveScanReport(ctx, report))
	assert.Error(t, store.SaveScanReport(ctx, report))
}

func TestSQLiteStore_SignalRequiresScan(t *testing.T) {
	store := newTestStore(t)

	_, err := store.db.Exec(`INSERT INTO scan_signals (scan_id, symbol, quote_volume, buy_volume, sell_volume)
		VALUES ('missing', 'ABCUSDT', 1, 1, 1)`)
	assert.Error(t, err, "a signal row must reference an existing scan")
}

func TestWithForeignKeys(t *testing.T) {
	assert.Equal(t, "scans.db?_foreign_keys=on", withForeignKeys("scans.db"))
	assert.Equal(t, "file:scans.db?cache=shared&_foreign_keys=on", withForeignKeys("file:scans.db?cache=shared"))
}
