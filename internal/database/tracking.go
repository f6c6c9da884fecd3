package database

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/strata-db/strata/internal/logger"
	"github.com/strata-db/strata/migration"
)

// TrackingStore owns the persisted set of migration records. Every
// method takes the executor explicitly so the manager can run a whole
// operation on one transaction when configured to.
type TrackingStore struct {
	dialect Dialect
	clock   migration.ClockFunc
	lg      logger.Logger
}

func NewTrackingStore(d Dialect, clock migration.ClockFunc, lg logger.Logger) *TrackingStore {
	if lg == nil {
		lg = &logger.NullLogger{}
	}

	return &TrackingStore{dialect: d, clock: clock, lg: lg}
}

// EnsureSchema lazily bootstraps the tracking table. Idempotent; called
// before any read or write.
func (s *TrackingStore) EnsureSchema(ctx context.Context, ex sqlx.ExtContext) error {
	query := s.dialect.CreateTrackingTableQuery()
	s.lg.SQL(query)

	if _, err := ex.ExecContext(ctx, query); err != nil {
		return errors.Wrapf(migration.ErrPersistence, "could not create tracking table: %s", err)
	}

	return nil
}

func (s *TrackingStore) AppliedNames(ctx context.Context, ex sqlx.ExtContext) (map[string]struct{}, error) {
	var names []string
	query := s.dialect.SelectNamesQuery()
	s.lg.SQL(query)

	if err := sqlx.SelectContext(ctx, ex, &names, query); err != nil {
		return nil, errors.Wrapf(migration.ErrPersistence, "could not read applied names: %s", err)
	}

	result := make(map[string]struct{}, len(names))
	for _, name := range names {
		result[name] = struct{}{}
	}

	return result, nil
}

// MaxBatch returns the highest allocated batch number, 0 when nothing
// has been tracked yet.
func (s *TrackingStore) MaxBatch(ctx context.Context, ex sqlx.ExtContext) (int, error) {
	var max int
	query := s.dialect.SelectMaxBatchQuery()
	s.lg.SQL(query)

	if err := sqlx.GetContext(ctx, ex, &max, query); err != nil {
		return 0, errors.Wrapf(migration.ErrPersistence, "could not read max batch: %s", err)
	}

	return max, nil
}

// RecordBatch inserts one record per name, all sharing the batch number
// and a single application timestamp. Re-recording a tracked name is an
// invariant violation the migrate pre-filter should have prevented.
func (s *TrackingStore) RecordBatch(ctx context.Context, ex sqlx.ExtContext, names []string, batch int) error {
	if len(names) == 0 {
		return nil
	}

	applied, err := s.AppliedNames(ctx, ex)
	if err != nil {
		return err
	}

	for _, name := range names {
		if _, ok := applied[name]; ok {
			return errors.Wrapf(migration.ErrAlreadyRecorded, "%s", name)
		}
	}

	appliedAt := s.clock()
	query := ex.Rebind(s.dialect.InsertRecordQuery())

	for _, name := range names {
		s.lg.SQL(query, name, batch, appliedAt)

		if _, err := ex.ExecContext(ctx, query, name, batch, appliedAt); err != nil {
			return errors.Wrapf(
				migration.ErrPersistence,
				"could not record migration [%s] in batch %d: %s", name, batch, err,
			)
		}
	}

	return nil
}

// Records returns every tracking record ordered by name ascending.
func (s *TrackingStore) Records(ctx context.Context, ex sqlx.ExtContext) ([]migration.Record, error) {
	var records []migration.Record
	query := s.dialect.SelectRecordsQuery()
	s.lg.SQL(query)

	if err := sqlx.SelectContext(ctx, ex, &records, query); err != nil {
		return nil, errors.Wrapf(migration.ErrPersistence, "could not read records: %s", err)
	}

	return records, nil
}

// RecordsForBatch returns the members of one batch ordered by name
// ascending.
func (s *TrackingStore) RecordsForBatch(ctx context.Context, ex sqlx.ExtContext, batch int) ([]migration.Record, error) {
	var records []migration.Record
	query := ex.Rebind(s.dialect.SelectBatchRecordsQuery())
	s.lg.SQL(query, batch)

	if err := sqlx.SelectContext(ctx, ex, &records, query, batch); err != nil {
		return nil, errors.Wrapf(migration.ErrPersistence, "could not read records of batch %d: %s", batch, err)
	}

	return records, nil
}

func (s *TrackingStore) Remove(ctx context.Context, ex sqlx.ExtContext, names []string) error {
	query := ex.Rebind(s.dialect.DeleteRecordQuery())

	for _, name := range names {
		s.lg.SQL(query, name)

		if _, err := ex.ExecContext(ctx, query, name); err != nil {
			return errors.Wrapf(migration.ErrPersistence, "could not remove record [%s]: %s", name, err)
		}
	}

	return nil
}

func (s *TrackingStore) DistinctBatchesDescending(ctx context.Context, ex sqlx.ExtContext) ([]int, error) {
	var batches []int
	query := s.dialect.SelectBatchesQuery()
	s.lg.SQL(query)

	if err := sqlx.SelectContext(ctx, ex, &batches, query); err != nil {
		return nil, errors.Wrapf(migration.ErrPersistence, "could not read batches: %s", err)
	}

	return batches, nil
}

// DropTracking removes the tracking table itself. Escape hatch for tests
// and the CLI.
func (s *TrackingStore) DropTracking(ctx context.Context, ex sqlx.ExtContext) error {
	query := s.dialect.DropTrackingTableQuery()
	s.lg.SQL(query)

	if _, err := ex.ExecContext(ctx, query); err != nil {
		return errors.Wrapf(migration.ErrPersistence, "could not drop tracking table: %s", err)
	}

	return nil
}
