package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/tunitech/specrecon/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

var sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	status     TEXT NOT NULL DEFAULT 'running',
	report     TEXT,
	error      TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS listings (
	run_id        TEXT NOT NULL REFERENCES runs(id),
	source        TEXT NOT NULL,
	row_num       INTEGER NOT NULL,
	name          TEXT NOT NULL,
	brand         TEXT NOT NULL,
	price         REAL,
	url           TEXT,
	canonical_key TEXT,
` + specColumnsDDL("REAL", "TEXT") + `	is_5g         INTEGER,
	provenance    TEXT NOT NULL,
	extra         TEXT,
	UNIQUE (run_id, source, row_num)
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status, created_at);
CREATE INDEX IF NOT EXISTS idx_listings_run_price ON listings(run_id, price);
CREATE INDEX IF NOT EXISTS idx_listings_run_brand ON listings(run_id, brand);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, status, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		id, string(model.RunStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:        id,
		Status:    model.RunStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, report *model.RunReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal report")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET report = ?, status = ?, updated_at = ? WHERE id = ?`,
		string(reportJSON), string(model.RunStatusComplete), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) FailRun(ctx context.Context, runID string, reason string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET error = ?, status = ?, updated_at = ? WHERE id = ?`,
		reason, string(model.RunStatusFailed), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

const runColumns = `id, status, report, error, created_at, updated_at`

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = ?`,
		runID,
	)
	return scanRun(row)
}

func (s *SQLiteStore) LatestRun(ctx context.Context) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE status = ? ORDER BY created_at DESC LIMIT 1`,
		string(model.RunStatusComplete),
	)
	return scanRun(row)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

// SaveListings writes the run's listings in one transaction. Saving the
// same listing twice replaces it.
func (s *SQLiteStore) SaveListings(ctx context.Context, runID string, listings []model.ReconciledListing) (int64, error) {
	if len(listings) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin save listings")
	}
	defer tx.Rollback() //nolint:errcheck

	marks := strings.TrimSuffix(strings.Repeat("?, ", len(listingColumns)), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT OR REPLACE INTO listings (%s) VALUES (%s)`,
		strings.Join(listingColumns, ", "), marks,
	))
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare insert listing")
	}
	defer stmt.Close() //nolint:errcheck

	var n int64
	for _, rl := range listings {
		row, err := listingRow(runID, rl)
		if err != nil {
			return 0, err
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert listing %s/%d", rl.Listing.Source, rl.Listing.Row)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit listings")
	}
	return n, nil
}

func (s *SQLiteStore) ListListings(ctx context.Context, runID string, filter ListingFilter) ([]model.ReconciledListing, error) {
	query, args := listingQuery(runID, filter, questionMark)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list listings")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.ReconciledListing
	for rows.Next() {
		rl, err := scanListing(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan listing")
		}
		out = append(out, rl)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list listings iterate")
}

func (s *SQLiteStore) Brands(ctx context.Context, runID string) ([]BrandSummary, error) {
	rows, err := s.db.QueryContext(ctx, brandQuery(questionMark), runID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: brands")
	}
	defer rows.Close() //nolint:errcheck

	var out []BrandSummary
	for rows.Next() {
		var b BrandSummary
		if err := rows.Scan(&b.Brand, &b.Listings, &b.MinPrice, &b.MaxPrice, &b.AvgPrice); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan brand")
		}
		out = append(out, b)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: brands iterate")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", entity, id)
	}
	return nil
}

func scanRun(row scannable) (*model.Run, error) {
	var r model.Run
	var reportJSON, errMsg sql.NullString

	err := row.Scan(&r.ID, &r.Status, &reportJSON, &errMsg, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Wrap(ErrNotFound, "run")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}

	r.Error = errMsg.String
	if reportJSON.Valid && reportJSON.String != "" {
		r.Report = &model.RunReport{}
		if err := json.Unmarshal([]byte(reportJSON.String), r.Report); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal report")
		}
	}
	return &r, nil
}
