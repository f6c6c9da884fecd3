package database

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strata-db/strata/migration"
)

var frozenTime = time.Date(2026, 2, 24, 10, 0, 0, 0, time.UTC)

func testDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

func testStore() *TrackingStore {
	return NewTrackingStore(
		NewSQLiteDialect(DefaultTrackingTable),
		func() time.Time { return frozenTime },
		nil,
	)
}

func Test_EnsureSchema_IsIdempotent(t *testing.T) {
	db := testDB(t)
	store := testStore()
	ctx := context.Background()

	require.NoError(t, store.EnsureSchema(ctx, db))
	require.NoError(t, store.EnsureSchema(ctx, db))
}

func Test_MaxBatch_ZeroWhenEmpty(t *testing.T) {
	db := testDB(t)
	store := testStore()
	ctx := context.Background()

	require.NoError(t, store.EnsureSchema(ctx, db))

	max, err := store.MaxBatch(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 0, max)
}

func Test_RecordBatch_AndReadBack(t *testing.T) {
	db := testDB(t)
	store := testStore()
	ctx := context.Background()

	require.NoError(t, store.EnsureSchema(ctx, db))

	names := []string{
		"2026_02_24_100000_CreateAlpha",
		"2026_02_24_100001_CreateBeta",
	}
	require.NoError(t, store.RecordBatch(ctx, db, names, 1))

	applied, err := store.AppliedNames(ctx, db)
	require.NoError(t, err)
	assert.Len(t, applied, 2)
	assert.Contains(t, applied, names[0])
	assert.Contains(t, applied, names[1])

	max, err := store.MaxBatch(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 1, max)

	records, err := store.RecordsForBatch(ctx, db, 1)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, names[0], records[0].Name)
	assert.Equal(t, names[1], records[1].Name)
	assert.Equal(t, 1, records[0].Batch)
	assert.WithinDuration(t, frozenTime, records[0].AppliedAt, time.Second)
}

func Test_RecordBatch_GuardsAlreadyRecordedNames(t *testing.T) {
	db := testDB(t)
	store := testStore()
	ctx := context.Background()

	require.NoError(t, store.EnsureSchema(ctx, db))
	require.NoError(t, store.RecordBatch(ctx, db, []string{"2026_02_24_100000_CreateAlpha"}, 1))

	err := store.RecordBatch(ctx, db, []string{"2026_02_24_100000_CreateAlpha"}, 2)

	require.Error(t, err)
	assert.True(t, errors.Is(err, migration.ErrAlreadyRecorded))

	// the guarded insert must not have touched the store
	max, err := store.MaxBatch(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 1, max)
}

func Test_DistinctBatchesDescending(t *testing.T) {
	db := testDB(t)
	store := testStore()
	ctx := context.Background()

	require.NoError(t, store.EnsureSchema(ctx, db))
	require.NoError(t, store.RecordBatch(ctx, db, []string{"2026_02_24_100000_CreateAlpha"}, 1))
	require.NoError(t, store.RecordBatch(ctx, db, []string{"2026_02_24_100001_CreateBeta"}, 2))
	require.NoError(t, store.RecordBatch(ctx, db, []string{"2026_02_24_100002_CreateGamma"}, 3))

	batches, err := store.DistinctBatchesDescending(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2, 1}, batches)
}

func Test_Remove(t *testing.T) {
	db := testDB(t)
	store := testStore()
	ctx := context.Background()

	require.NoError(t, store.EnsureSchema(ctx, db))

	names := []string{
		"2026_02_24_100000_CreateAlpha",
		"2026_02_24_100001_CreateBeta",
	}
	require.NoError(t, store.RecordBatch(ctx, db, names, 1))
	require.NoError(t, store.Remove(ctx, db, names[:1]))

	applied, err := store.AppliedNames(ctx, db)
	require.NoError(t, err)
	assert.Len(t, applied, 1)
	assert.Contains(t, applied, names[1])
}

func Test_Records_OrderedByName(t *testing.T) {
	db := testDB(t)
	store := testStore()
	ctx := context.Background()

	require.NoError(t, store.EnsureSchema(ctx, db))
	require.NoError(t, store.RecordBatch(ctx, db, []string{"2026_02_24_100001_CreateBeta"}, 1))
	require.NoError(t, store.RecordBatch(ctx, db, []string{"2026_02_24_100000_CreateAlpha"}, 2))

	records, err := store.Records(ctx, db)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "2026_02_24_100000_CreateAlpha", records[0].Name)
	assert.Equal(t, 2, records[0].Batch)
	assert.Equal(t, "2026_02_24_100001_CreateBeta", records[1].Name)
	assert.Equal(t, 1, records[1].Batch)
}

func Test_DropTracking(t *testing.T) {
	db := testDB(t)
	store := testStore()
	ctx := context.Background()

	require.NoError(t, store.EnsureSchema(ctx, db))
	require.NoError(t, store.DropTracking(ctx, db))

	_, err := store.MaxBatch(ctx, db)
	require.Error(t, err)
	assert.True(t, errors.Is(err, migration.ErrPersistence))
}

func Test_DialectFor(t *testing.T) {
	for _, driver := range []string{"mysql", "sqlite3", "postgres"} {
		d, err := DialectFor(driver, "")
		require.NoError(t, err)
		assert.Contains(t, d.CreateTrackingTableQuery(), DefaultTrackingTable)
	}

	_, err := DialectFor("oracle", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedDriver))
}
