package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/pricelens/pricelens/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path with WAL mode.
// Pragmas ride on the DSN so every pooled connection gets them; snapshot
// cleanup relies on foreign_keys being on for each connection.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	dsn += sep + "_pragma=journal_mode(WAL)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=foreign_keys(1)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "sqlite: ping")
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS history_entries (
	id           TEXT PRIMARY KEY,
	query        TEXT NOT NULL,
	filters      TEXT NOT NULL,
	result_count INTEGER NOT NULL,
	source_count INTEGER NOT NULL,
	price_min    INTEGER NOT NULL,
	price_max    INTEGER NOT NULL,
	price_avg    INTEGER NOT NULL,
	recorded_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS group_snapshots (
	id           TEXT PRIMARY KEY,
	entry_id     TEXT NOT NULL REFERENCES history_entries(id) ON DELETE CASCADE,
	query        TEXT NOT NULL,
	title        TEXT NOT NULL,
	min_price    INTEGER NOT NULL,
	source_count INTEGER NOT NULL,
	recorded_at  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_history_recorded_at ON history_entries(recorded_at);
CREATE INDEX IF NOT EXISTS idx_history_query ON history_entries(query);
CREATE INDEX IF NOT EXISTS idx_snapshots_entry_id ON group_snapshots(entry_id);
CREATE INDEX IF NOT EXISTS idx_snapshots_title ON group_snapshots(title);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Record(ctx context.Context, query string, spec model.FilterSpec, groups []*model.ComparisonGroup) (*model.HistoryEntry, error) {
	entry := buildEntry(query, spec, groups)

	filtersJSON, err := json.Marshal(entry.Filters)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal filters")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO history_entries
		 (id, query, filters, result_count, source_count, price_min, price_max, price_avg, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Query, string(filtersJSON),
		entry.ResultCount, entry.SourceCount,
		int64(entry.Prices.Min), int64(entry.Prices.Max), int64(entry.Prices.Avg),
		entry.Timestamp,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert entry")
	}

	for _, g := range groups {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO group_snapshots
			 (id, entry_id, query, title, min_price, source_count, recorded_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), entry.ID, entry.Query, g.Title,
			int64(g.MinPrice), len(g.Sources), entry.Timestamp,
		)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: insert snapshot")
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit")
	}
	return entry, nil
}

func (s *SQLiteStore) List(ctx context.Context, r model.TimeRange) ([]model.HistoryEntry, error) {
	query := `SELECT id, query, filters, result_count, source_count, price_min, price_max, price_avg, recorded_at
	          FROM history_entries WHERE 1=1`
	var args []any
	if !r.From.IsZero() {
		query += ` AND recorded_at >= ?`
		args = append(args, r.From.UTC())
	}
	if !r.To.IsZero() {
		query += ` AND recorded_at <= ?`
		args = append(args, r.To.UTC())
	}
	query += ` ORDER BY recorded_at ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list entries")
	}
	defer rows.Close()

	var entries []model.HistoryEntry
	for rows.Next() {
		var e model.HistoryEntry
		var filtersJSON string
		var pmin, pmax, pavg int64
		if err := rows.Scan(&e.ID, &e.Query, &filtersJSON, &e.ResultCount, &e.SourceCount, &pmin, &pmax, &pavg, &e.Timestamp); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan entry")
		}
		if err := json.Unmarshal([]byte(filtersJSON), &e.Filters); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal filters")
		}
		e.Prices = model.PriceSummary{Min: model.Price(pmin), Max: model.Price(pmax), Avg: model.Price(pavg)}
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "sqlite: list entries iterate")
}

func (s *SQLiteStore) Snapshots(ctx context.Context, q string, r model.TimeRange) ([]model.GroupSnapshot, error) {
	query := `SELECT entry_id, query, title, min_price, source_count, recorded_at
	          FROM group_snapshots WHERE 1=1`
	var args []any
	if q != "" {
		query += ` AND query = ?`
		args = append(args, q)
	}
	if !r.From.IsZero() {
		query += ` AND recorded_at >= ?`
		args = append(args, r.From.UTC())
	}
	if !r.To.IsZero() {
		query += ` AND recorded_at <= ?`
		args = append(args, r.To.UTC())
	}
	query += ` ORDER BY recorded_at ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list snapshots")
	}
	defer rows.Close()

	var snaps []model.GroupSnapshot
	for rows.Next() {
		var sn model.GroupSnapshot
		var minPrice int64
		if err := rows.Scan(&sn.EntryID, &sn.Query, &sn.Title, &minPrice, &sn.SourceCount, &sn.Timestamp); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan snapshot")
		}
		sn.MinPrice = model.Price(minPrice)
		snaps = append(snaps, sn)
	}
	return snaps, eris.Wrap(rows.Err(), "sqlite: list snapshots iterate")
}

func (s *SQLiteStore) TopQueries(ctx context.Context, limit int) ([]model.QueryCount, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT query, COUNT(*) AS n FROM history_entries
		 GROUP BY query ORDER BY n DESC, query ASC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: top queries")
	}
	defer rows.Close()

	var counts []model.QueryCount
	for rows.Next() {
		var qc model.QueryCount
		if err := rows.Scan(&qc.Query, &qc.Count); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan query count")
		}
		counts = append(counts, qc)
	}
	return counts, eris.Wrap(rows.Err(), "sqlite: top queries iterate")
}

func (s *SQLiteStore) Prune(ctx context.Context, before time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM history_entries WHERE recorded_at < ?`, before.UTC())
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prune")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

// buildEntry assembles the immutable history entry for a completed query.
func buildEntry(query string, spec model.FilterSpec, groups []*model.ComparisonGroup) *model.HistoryEntry {
	sources := make(map[string]bool)
	for _, g := range groups {
		for _, s := range g.Sources {
			sources[s] = true
		}
	}
	return &model.HistoryEntry{
		ID:          uuid.New().String(),
		Query:       query,
		Filters:     spec,
		Timestamp:   time.Now().UTC(),
		ResultCount: len(groups),
		SourceCount: len(sources),
		Prices:      model.SummarizeGroups(groups),
	}
}
