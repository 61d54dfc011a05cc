package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunitech/specrecon/internal/model"
)

func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return &PostgresStore{pool: mock}, mock
}

func TestPostgres_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS runs`).WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CreateRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	mock.ExpectExec(`INSERT INTO runs`).
		WithArgs(pgxmock.AnyArg(), "running", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	run, err := s.CreateRun(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusRunning, run.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CompleteRunNotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	mock.ExpectExec(`UPDATE runs SET report`).
		WithArgs(pgxmock.AnyArg(), "complete", pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.CompleteRun(context.Background(), "missing", &model.RunReport{})
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_FailRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	mock.ExpectExec(`UPDATE runs SET error`).
		WithArgs("boom", "failed", pgxmock.AnyArg(), "run-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, s.FailRun(context.Background(), "run-1", "boom"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()
	rows := pgxmock.NewRows([]string{"id", "status", "report", "error", "created_at", "updated_at"}).
		AddRow("run-1", model.RunStatusComplete, []byte(`{"run_id":"run-1","listings":12}`), nil, now, now)
	mock.ExpectQuery(`SELECT .* FROM runs WHERE id = \$1`).WithArgs("run-1").WillReturnRows(rows)

	run, err := s.GetRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, model.RunStatusComplete, run.Status)
	require.NotNil(t, run.Report)
	assert.Equal(t, 12, run.Report.Listings)
	assert.Empty(t, run.Error)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetRunNotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	mock.ExpectQuery(`SELECT .* FROM runs WHERE id = \$1`).WithArgs("missing").WillReturnError(pgx.ErrNoRows)

	_, err := s.GetRun(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "get run")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SaveListings(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	listings := testListings()

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE "_tmp_upsert_listings"`).WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_listings"}, listingColumns).WillReturnResult(int64(len(listings)))
	mock.ExpectExec(regexp.QuoteMeta(`ON CONFLICT ("run_id", "source", "row_num") DO UPDATE SET "name" = EXCLUDED."name"`)).
		WillReturnResult(pgxmock.NewResult("INSERT", int64(len(listings))))
	mock.ExpectCommit()

	n, err := s.SaveListings(context.Background(), "run-1", listings)
	require.NoError(t, err)
	assert.Equal(t, int64(len(listings)), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SaveListingsError(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin().WillReturnError(errors.New("connection reset"))

	_, err := s.SaveListings(context.Background(), "run-1", testListings())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save listings for run run-1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ListListings(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	str := func(v string) *string { return &v }
	values := []any{"run-1", "mytek", 4, "Samsung Galaxy A15", "Samsung", ptr(549), nil, str("samsung galaxy a15")}
	nums := map[model.Field]any{model.FieldRAM: ptr(4), model.FieldBattery: ptr(5000)}
	for _, f := range model.Fields {
		switch {
		case f == model.FieldNetwork:
			values = append(values, str("4G"))
		case f.IsNumeric():
			if v, ok := nums[f]; ok {
				values = append(values, v)
			} else {
				values = append(values, (*float64)(nil))
			}
		default:
			values = append(values, (*string)(nil))
		}
	}
	prov := `{"ram_gb":{"field":"ram_gb","tier":"original","source":"mytek"},` +
		`"network":{"field":"network","tier":"original","source":"mytek"},` +
		`"battery_mah":{"field":"battery_mah","tier":"brand_stats","source":"samsung","samples":3}}`
	is5G := false
	values = append(values, &is5G, str(prov), nil)

	rows := pgxmock.NewRows(listingColumns).AddRow(values...)
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE run_id = $1 AND lower(brand) = lower($2)`)).
		WithArgs("run-1", "samsung", defaultListingLimit).
		WillReturnRows(rows)

	got, err := s.ListListings(context.Background(), "run-1", ListingFilter{Brand: "samsung"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	rl := got[0]
	assert.Equal(t, "Samsung Galaxy A15", rl.Listing.Name)
	assert.Equal(t, "4", rl.Get(model.FieldRAM))
	assert.Equal(t, "5000", rl.Get(model.FieldBattery))
	assert.Equal(t, model.TierBrandStats, rl.Provenance[model.FieldBattery].Tier)
	assert.Equal(t, "4", rl.Listing.Spec(model.FieldRAM))
	assert.Empty(t, rl.Listing.Spec(model.FieldBattery))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Brands(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	rows := pgxmock.NewRows([]string{"brand", "count", "min", "max", "avg"}).
		AddRow("Samsung", 2, ptr(549), ptr(1299), ptr(924)).
		AddRow("Logicom", 1, nil, nil, nil)
	mock.ExpectQuery(`SELECT brand, COUNT\(\*\).*GROUP BY brand`).WithArgs("run-1").WillReturnRows(rows)

	brands, err := s.Brands(context.Background(), "run-1")
	require.NoError(t, err)
	require.Len(t, brands, 2)
	assert.Equal(t, "Samsung", brands[0].Brand)
	assert.Equal(t, 2, brands[0].Listings)
	assert.InDelta(t, 924.0, *brands[0].AvgPrice, 0.001)
	assert.Nil(t, brands[1].MinPrice)
	assert.NoError(t, mock.ExpectationsWereMet())
}
