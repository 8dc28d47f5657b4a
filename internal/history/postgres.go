package history

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/pricelens/pricelens/internal/model"
)

// Pool is the subset of pgxpool.Pool the store needs; it is satisfied by
// pgxmock in tests.
type Pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool (used by tests).
func NewPostgresFromPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS history_entries (
	id           UUID PRIMARY KEY,
	query        TEXT NOT NULL,
	filters      JSONB NOT NULL,
	result_count INTEGER NOT NULL,
	source_count INTEGER NOT NULL,
	price_min    BIGINT NOT NULL,
	price_max    BIGINT NOT NULL,
	price_avg    BIGINT NOT NULL,
	recorded_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS group_snapshots (
	id           UUID PRIMARY KEY,
	entry_id     UUID NOT NULL REFERENCES history_entries(id) ON DELETE CASCADE,
	query        TEXT NOT NULL,
	title        TEXT NOT NULL,
	min_price    BIGINT NOT NULL,
	source_count INTEGER NOT NULL,
	recorded_at  TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_history_recorded_at ON history_entries(recorded_at);
CREATE INDEX IF NOT EXISTS idx_history_query ON history_entries(query);
CREATE INDEX IF NOT EXISTS idx_snapshots_entry_id ON group_snapshots(entry_id);
CREATE INDEX IF NOT EXISTS idx_snapshots_title ON group_snapshots(title);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Record(ctx context.Context, query string, spec model.FilterSpec, groups []*model.ComparisonGroup) (*model.HistoryEntry, error) {
	entry := buildEntry(query, spec, groups)

	filtersJSON, err := json.Marshal(entry.Filters)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal filters")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: begin")
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO history_entries
		 (id, query, filters, result_count, source_count, price_min, price_max, price_avg, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		entry.ID, entry.Query, filtersJSON,
		entry.ResultCount, entry.SourceCount,
		int64(entry.Prices.Min), int64(entry.Prices.Max), int64(entry.Prices.Avg),
		entry.Timestamp,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert entry")
	}

	for _, g := range groups {
		_, err = tx.Exec(ctx,
			`INSERT INTO group_snapshots
			 (id, entry_id, query, title, min_price, source_count, recorded_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			uuid.New().String(), entry.ID, entry.Query, g.Title,
			int64(g.MinPrice), len(g.Sources), entry.Timestamp,
		)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: insert snapshot")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, eris.Wrap(err, "postgres: commit")
	}
	return entry, nil
}

func (s *PostgresStore) List(ctx context.Context, r model.TimeRange) ([]model.HistoryEntry, error) {
	query := `SELECT id, query, filters, result_count, source_count, price_min, price_max, price_avg, recorded_at
	          FROM history_entries WHERE 1=1`
	var args []any
	if !r.From.IsZero() {
		args = append(args, r.From.UTC())
		query += placeholderAnd(` AND recorded_at >= `, len(args))
	}
	if !r.To.IsZero() {
		args = append(args, r.To.UTC())
		query += placeholderAnd(` AND recorded_at <= `, len(args))
	}
	query += ` ORDER BY recorded_at ASC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list entries")
	}
	defer rows.Close()

	var entries []model.HistoryEntry
	for rows.Next() {
		var e model.HistoryEntry
		var filtersJSON []byte
		var pmin, pmax, pavg int64
		if err := rows.Scan(&e.ID, &e.Query, &filtersJSON, &e.ResultCount, &e.SourceCount, &pmin, &pmax, &pavg, &e.Timestamp); err != nil {
			return nil, eris.Wrap(err, "postgres: scan entry")
		}
		if err := json.Unmarshal(filtersJSON, &e.Filters); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal filters")
		}
		e.Prices = model.PriceSummary{Min: model.Price(pmin), Max: model.Price(pmax), Avg: model.Price(pavg)}
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "postgres: list entries iterate")
}

func (s *PostgresStore) Snapshots(ctx context.Context, q string, r model.TimeRange) ([]model.GroupSnapshot, error) {
	query := `SELECT entry_id, query, title, min_price, source_count, recorded_at
	          FROM group_snapshots WHERE 1=1`
	var args []any
	if q != "" {
		args = append(args, q)
		query += placeholderAnd(` AND query = `, len(args))
	}
	if !r.From.IsZero() {
		args = append(args, r.From.UTC())
		query += placeholderAnd(` AND recorded_at >= `, len(args))
	}
	if !r.To.IsZero() {
		args = append(args, r.To.UTC())
		query += placeholderAnd(` AND recorded_at <= `, len(args))
	}
	query += ` ORDER BY recorded_at ASC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list snapshots")
	}
	defer rows.Close()

	var snaps []model.GroupSnapshot
	for rows.Next() {
		var sn model.GroupSnapshot
		var minPrice int64
		if err := rows.Scan(&sn.EntryID, &sn.Query, &sn.Title, &minPrice, &sn.SourceCount, &sn.Timestamp); err != nil {
			return nil, eris.Wrap(err, "postgres: scan snapshot")
		}
		sn.MinPrice = model.Price(minPrice)
		snaps = append(snaps, sn)
	}
	return snaps, eris.Wrap(rows.Err(), "postgres: list snapshots iterate")
}

func (s *PostgresStore) TopQueries(ctx context.Context, limit int) ([]model.QueryCount, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := s.pool.Query(ctx,
		`SELECT query, COUNT(*) AS n FROM history_entries
		 GROUP BY query ORDER BY n DESC, query ASC LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: top queries")
	}
	defer rows.Close()

	var counts []model.QueryCount
	for rows.Next() {
		var qc model.QueryCount
		if err := rows.Scan(&qc.Query, &qc.Count); err != nil {
			return nil, eris.Wrap(err, "postgres: scan query count")
		}
		counts = append(counts, qc)
	}
	return counts, eris.Wrap(rows.Err(), "postgres: top queries iterate")
}

func (s *PostgresStore) Prune(ctx context.Context, before time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM history_entries WHERE recorded_at < $1`, before.UTC())
	if err != nil {
		return 0, eris.Wrap(err, "postgres: prune")
	}
	return int(tag.RowsAffected()), nil
}

// placeholderAnd appends a numbered placeholder to a clause fragment.
func placeholderAnd(clause string, n int) string {
	return clause + "$" + strconv.Itoa(n)
}
