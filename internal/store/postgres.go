package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/tunitech/specrecon/internal/db"
	"github.com/tunitech/specrecon/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection.
var preparedStatements = map[string]string{
	"insert_run":   `INSERT INTO runs (id, status, created_at, updated_at) VALUES ($1, $2, $3, $4)`,
	"complete_run": `UPDATE runs SET report = $1, status = $2, updated_at = $3 WHERE id = $4`,
	"fail_run":     `UPDATE runs SET error = $1, status = $2, updated_at = $3 WHERE id = $4`,
	"get_run":      `SELECT ` + runColumns + ` FROM runs WHERE id = $1`,
	"latest_run":   `SELECT ` + runColumns + ` FROM runs WHERE status = $1 ORDER BY created_at DESC LIMIT 1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

var postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	status     TEXT NOT NULL DEFAULT 'running',
	report     JSONB,
	error      TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS listings (
	run_id        TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	source        TEXT NOT NULL,
	row_num       INTEGER NOT NULL,
	name          TEXT NOT NULL,
	brand         TEXT NOT NULL,
	price         DOUBLE PRECISION,
	url           TEXT,
	canonical_key TEXT,
` + specColumnsDDL("DOUBLE PRECISION", "TEXT") + `	is_5g         BOOLEAN,
	provenance    JSONB NOT NULL,
	extra         JSONB,
	PRIMARY KEY (run_id, source, row_num)
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_listings_run_price ON listings(run_id, price);
CREATE INDEX IF NOT EXISTS idx_listings_run_brand ON listings(run_id, lower(brand));
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx, preparedStatements["insert_run"],
		id, string(model.RunStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.Run{
		ID:        id,
		Status:    model.RunStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, report *model.RunReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal report")
	}

	tag, err := s.pool.Exec(ctx, preparedStatements["complete_run"],
		reportJSON, string(model.RunStatusComplete), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "run %s", runID)
	}
	return nil
}

func (s *PostgresStore) FailRun(ctx context.Context, runID string, reason string) error {
	tag, err := s.pool.Exec(ctx, preparedStatements["fail_run"],
		reason, string(model.RunStatusFailed), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "run %s", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	r, err := scanPostgresRun(s.pool.QueryRow(ctx, preparedStatements["get_run"], runID))
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	return r, nil
}

func (s *PostgresStore) LatestRun(ctx context.Context) (*model.Run, error) {
	r, err := scanPostgresRun(s.pool.QueryRow(ctx, preparedStatements["latest_run"], string(model.RunStatusComplete)))
	if err != nil {
		return nil, eris.Wrap(err, "postgres: latest run")
	}
	return r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanPostgresRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

// SaveListings bulk-loads the run's listings through COPY into a staging
// table and upserts on (run_id, source, row_num), so a retried save
// replaces rather than duplicates.
func (s *PostgresStore) SaveListings(ctx context.Context, runID string, listings []model.ReconciledListing) (int64, error) {
	rows := make([][]any, 0, len(listings))
	for _, rl := range listings {
		row, err := listingRow(runID, rl)
		if err != nil {
			return 0, err
		}
		rows = append(rows, row)
	}
	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "listings",
		Columns:      listingColumns,
		ConflictKeys: listingConflictKeys,
	}, rows)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: save listings for run %s", runID)
	}
	return n, nil
}

func (s *PostgresStore) ListListings(ctx context.Context, runID string, filter ListingFilter) ([]model.ReconciledListing, error) {
	query, args := listingQuery(runID, filter, dollar)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list listings")
	}
	defer rows.Close()

	var out []model.ReconciledListing
	for rows.Next() {
		rl, err := scanListing(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan listing")
		}
		out = append(out, rl)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list listings iterate")
}

func (s *PostgresStore) Brands(ctx context.Context, runID string) ([]BrandSummary, error) {
	rows, err := s.pool.Query(ctx, brandQuery(dollar), runID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: brands")
	}
	defer rows.Close()

	var out []BrandSummary
	for rows.Next() {
		var b BrandSummary
		if err := rows.Scan(&b.Brand, &b.Listings, &b.MinPrice, &b.MaxPrice, &b.AvgPrice); err != nil {
			return nil, eris.Wrap(err, "postgres: scan brand")
		}
		out = append(out, b)
	}
	return out, eris.Wrap(rows.Err(), "postgres: brands iterate")
}

func scanPostgresRun(row scannable) (*model.Run, error) {
	var r model.Run
	var reportJSON []byte
	var errMsg *string

	err := row.Scan(&r.ID, &r.Status, &reportJSON, &errMsg, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrap(ErrNotFound, "run")
	}
	if err != nil {
		return nil, err
	}

	r.Error = deref(errMsg)
	if len(reportJSON) > 0 {
		r.Report = &model.RunReport{}
		if err := json.Unmarshal(reportJSON, r.Report); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal report")
		}
	}
	return &r, nil
}
