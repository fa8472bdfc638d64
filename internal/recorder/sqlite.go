package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"Crypton/internal/model"
)

// SQLiteRecorder persists forecast runs to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Infof("sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS forecast_runs (
			id         TEXT PRIMARY KEY,
			created_at INTEGER NOT NULL,
			symbol     TEXT NOT NULL,
			horizon    TEXT NOT NULL,
			strategy   TEXT NOT NULL,
			arima_p    INTEGER,
			arima_d    INTEGER,
			arima_q    INTEGER,
			criterion  REAL,
			samples    INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created ON forecast_runs(created_at)`,

		`CREATE TABLE IF NOT EXISTS forecast_entries (
			run_id    TEXT NOT NULL REFERENCES forecast_runs(id),
			step      INTEGER NOT NULL,
			target_at INTEGER NOT NULL,
			date_only INTEGER NOT NULL,
			price     REAL,
			PRIMARY KEY (run_id, step)
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordForecast stores the run and all its entries in one transaction.
func (r *SQLiteRecorder) RecordForecast(f *model.Forecast) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var p, d, q sql.NullInt64
	if f.Order != nil {
		p = sql.NullInt64{Int64: int64(f.Order.P), Valid: true}
		d = sql.NullInt64{Int64: int64(f.Order.D), Valid: true}
		q = sql.NullInt64{Int64: int64(f.Order.Q), Valid: true}
	}
	if _, err := tx.Exec(`INSERT INTO forecast_runs
		(id, created_at, symbol, horizon, strategy, arima_p, arima_d, arima_q, criterion, samples)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		f.ID, f.CreatedAt.Unix(), f.Symbol, f.Horizon.Name, string(f.Strategy),
		p, d, q, f.Criterion, f.Samples,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for i, e := range f.Entries {
		if _, err := tx.Exec(`INSERT INTO forecast_entries
			(run_id, step, target_at, date_only, price) VALUES (?,?,?,?,?)`,
			f.ID, i+1, e.When.Unix(), e.DateOnly, e.Price,
		); err != nil {
			return fmt.Errorf("insert entry %d: %w", i+1, err)
		}
	}
	return tx.Commit()
}

// RecentForecasts returns the newest runs first.
func (r *SQLiteRecorder) RecentForecasts(limit int) ([]ForecastSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT
			r.id, r.created_at, r.symbol, r.horizon, r.strategy,
			r.arima_p, r.arima_d, r.arima_q, r.criterion, r.samples,
			COUNT(e.step), MIN(e.target_at),
			(SELECT price FROM forecast_entries WHERE run_id = r.id ORDER BY step DESC LIMIT 1)
		FROM forecast_runs r
		LEFT JOIN forecast_entries e ON e.run_id = r.id
		GROUP BY r.id
		ORDER BY r.created_at DESC, r.rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []ForecastSummary
	for rows.Next() {
		var (
			s         ForecastSummary
			created   int64
			p, d, q   sql.NullInt64
			firstAt   sql.NullInt64
			lastPrice sql.NullFloat64
		)
		if err := rows.Scan(&s.ID, &created, &s.Symbol, &s.Horizon, &s.Strategy,
			&p, &d, &q, &s.Criterion, &s.Samples, &s.Steps, &firstAt, &lastPrice); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		s.CreatedAt = time.Unix(created, 0)
		if p.Valid {
			s.Order = model.Order{P: int(p.Int64), D: int(d.Int64), Q: int(q.Int64)}.String()
		}
		if firstAt.Valid {
			s.FirstAt = time.Unix(firstAt.Int64, 0)
		}
		s.LastPrice = lastPrice.Float64
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Info("closing sqlite recorder")
	return r.db.Close()
}
