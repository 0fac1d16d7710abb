package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/mkarag/riskfolio/internal/domain"
)

// Store is a sqlite-backed warm cache for fetched price series. It lets the
// provider survive restarts without refetching and feeds the scheduled
// refresh job. Only market-sourced series are persisted; synthetic fallbacks
// are regenerated on demand.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// OpenStore opens (and if needed creates) the price store at path.
func OpenStore(path string, log zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	// WAL mode for concurrent readers alongside the writer.
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open price store: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping price store: %w", err)
	}

	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(2)

	s := &Store{
		db:  db,
		log: log.With().Str("component", "price_store").Logger(),
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS series_meta (
			symbol     TEXT    NOT NULL,
			days       INTEGER NOT NULL,
			fetched_at INTEGER NOT NULL,
			PRIMARY KEY (symbol, days)
		);
		CREATE TABLE IF NOT EXISTS price_points (
			symbol    TEXT    NOT NULL,
			days      INTEGER NOT NULL,
			seq       INTEGER NOT NULL,
			ts_millis INTEGER NOT NULL,
			price     REAL    NOT NULL,
			PRIMARY KEY (symbol, days, seq)
		);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to migrate price store: %w", err)
	}
	return nil
}

// Save replaces the stored series for (symbol, days).
func (s *Store) Save(series *domain.PriceSeries) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin store transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM price_points WHERE symbol = ? AND days = ?`, series.Symbol, series.RequestedDays); err != nil {
		return fmt.Errorf("failed to clear stored points: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO price_points (symbol, days, seq, ts_millis, price) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare point insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range series.Points {
		if _, err := stmt.Exec(series.Symbol, series.RequestedDays, i, p.TimestampMillis, p.Price); err != nil {
			return fmt.Errorf("failed to insert point %d: %w", i, err)
		}
	}

	if _, err := tx.Exec(
		`INSERT INTO series_meta (symbol, days, fetched_at) VALUES (?, ?, ?)
		 ON CONFLICT (symbol, days) DO UPDATE SET fetched_at = excluded.fetched_at`,
		series.Symbol, series.RequestedDays, series.FetchedAt.UnixMilli(),
	); err != nil {
		return fmt.Errorf("failed to upsert series meta: %w", err)
	}

	return tx.Commit()
}

// Load returns the stored series for (symbol, days), or nil when absent.
func (s *Store) Load(symbol string, days int) (*domain.PriceSeries, error) {
	var fetchedAt int64
	err := s.db.QueryRow(`SELECT fetched_at FROM series_meta WHERE symbol = ? AND days = ?`, symbol, days).Scan(&fetchedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query series meta: %w", err)
	}

	rows, err := s.db.Query(
		`SELECT ts_millis, price FROM price_points WHERE symbol = ? AND days = ? ORDER BY seq`,
		symbol, days,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query stored points: %w", err)
	}
	defer rows.Close()

	series := &domain.PriceSeries{
		Symbol:        symbol,
		RequestedDays: days,
		Basis:         domain.BasisStore,
		FetchedAt:     time.UnixMilli(fetchedAt),
	}
	for rows.Next() {
		var p domain.PricePoint
		if err := rows.Scan(&p.TimestampMillis, &p.Price); err != nil {
			return nil, fmt.Errorf("failed to scan stored point: %w", err)
		}
		series.Points = append(series.Points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stored points: %w", err)
	}

	if len(series.Points) == 0 {
		return nil, nil
	}
	return series, nil
}

// Delete removes the stored series for (symbol, days).
func (s *Store) Delete(symbol string, days int) error {
	if _, err := s.db.Exec(`DELETE FROM price_points WHERE symbol = ? AND days = ?`, symbol, days); err != nil {
		return fmt.Errorf("failed to delete stored points: %w", err)
	}
	if _, err := s.db.Exec(`DELETE FROM series_meta WHERE symbol = ? AND days = ?`, symbol, days); err != nil {
		return fmt.Errorf("failed to delete series meta: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
