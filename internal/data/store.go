package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"quantbot-go/internal/market"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Store caches bar history in a SQLite database keyed by symbol and
// interval, so repeated backtests skip the exchange round trip.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS bars (
	symbol   TEXT    NOT NULL,
	interval TEXT    NOT NULL,
	ts       INTEGER NOT NULL,
	open     REAL    NOT NULL,
	high     REAL    NOT NULL,
	low      REAL    NOT NULL,
	close    REAL    NOT NULL,
	volume   REAL    NOT NULL,
	PRIMARY KEY (symbol, interval, ts)
);`

// OpenStore opens (or creates) the cache database at path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init cache schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put upserts bars for a symbol and interval inside one transaction.
func (s *Store) Put(ctx context.Context, symbol, interval string, bars market.History) error {
	if err := bars.Validate(); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin cache tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO bars (symbol, interval, ts, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare cache insert: %w", err)
	}
	defer stmt.Close()
	for _, b := range bars {
		if _, err := stmt.ExecContext(ctx, symbol, interval, b.Ts.UTC().Unix(),
			b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert bar %s: %w", b.Ts, err)
		}
	}
	return tx.Commit()
}

// Get returns all cached bars for a symbol and interval in timestamp order.
func (s *Store) Get(ctx context.Context, symbol, interval string) (market.History, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ts, open, high, low, close, volume FROM bars
		WHERE symbol = ? AND interval = ? ORDER BY ts`, symbol, interval)
	if err != nil {
		return nil, fmt.Errorf("query cache: %w", err)
	}
	defer rows.Close()

	var bars market.History
	for rows.Next() {
		var sec int64
		var b market.Bar
		if err := rows.Scan(&sec, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("scan cached bar: %w", err)
		}
		b.Ts = unixUTC(sec)
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bars, nil
}

func unixUTC(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

// Count reports how many bars are cached for a symbol and interval.
func (s *Store) Count(ctx context.Context, symbol, interval string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bars WHERE symbol = ? AND interval = ?`,
		symbol, interval).Scan(&n)
	return n, err
}
