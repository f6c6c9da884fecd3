// Package strata is a batch-oriented schema migration engine. It
// discovers versioned, reversible migration units, applies them in name
// order against a connected database, and tracks which units ran and in
// which batch, so that the most recent batch can be reversed as one.
//
// The engine performs no cross-process locking: two processes running
// Migrate concurrently against the same database may both compute the
// same pending set and batch number. Deployments that need that safety
// must serialize migration runs externally.
package strata

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mandelsoft/vfs/pkg/vfs"
	"github.com/pkg/errors"

	"github.com/strata-db/strata/internal/database"
	"github.com/strata-db/strata/internal/logger"
	"github.com/strata-db/strata/internal/source"
	"github.com/strata-db/strata/migration"
	"github.com/strata-db/strata/schema"
)

var ErrConnectionNotInitialized = errors.New("database connection has not been initialized")

type CloserFunc func() error

// Manager owns discovery, the tracking store and the connection. All
// operations run to completion synchronously; unit execution within one
// operation is strictly sequential and ordered.
type Manager struct {
	db      *sqlx.DB
	lg      logger.Logger
	src     source.Source
	store   *database.TrackingStore
	grammar schema.Grammar
	clock   migration.ClockFunc
	table   string
	folders []string
	fs      vfs.FileSystem
	inTx    bool
}

// New creates a manager over an open sqlx connection, applying option
// callbacks to customize it; sensible defaults cover the rest. The
// dialect is derived from the connection's driver name.
func New(db *sqlx.DB, opts ...OptionFunc) (*Manager, CloserFunc, error) {
	if db == nil {
		return nil, nil, ErrConnectionNotInitialized
	}

	m := &Manager{
		db:    db,
		lg:    &logger.NullLogger{},
		clock: time.Now,
		table: database.DefaultTrackingTable,
	}

	for _, oFunc := range opts {
		if err := oFunc(m); err != nil {
			return nil, nil, err
		}
	}

	grammar, err := schema.GrammarFor(db.DriverName())
	if err != nil {
		return nil, nil, err
	}
	m.grammar = grammar

	dialect, err := database.DialectFor(db.DriverName(), m.table)
	if err != nil {
		return nil, nil, err
	}
	m.store = database.NewTrackingStore(dialect, m.clock, m.lg)

	// Default discovery: interpreted scripts from the local folder
	if m.src == nil {
		folders := m.folders
		if len(folders) == 0 {
			folders = []string{source.DefaultMigrationsFolder}
		}

		src, err := source.NewScriptSource(m.fs, folders, m.lg)
		if err != nil {
			return nil, nil, err
		}

		m.src = src
	}

	return m, m.close, nil
}

// Discover returns the name-ordered collection of known units.
func (m *Manager) Discover(ctx context.Context) (migration.Migrations, error) {
	return m.src.Discover(ctx)
}

// Migrate applies every pending unit in ascending name order inside one
// new batch and returns the applied names in application order. When
// nothing is pending it returns an empty result and no batch number is
// consumed. Tracking is written only after the whole pending set has
// succeeded; an apply failure aborts the run with the already-executed
// statements left in place, which is the connection's problem to undo
// unless WithinTransaction is set.
func (m *Manager) Migrate(ctx context.Context) (applied []string, err error) {
	discovered, err := m.src.Discover(ctx)
	if err != nil {
		m.lg.Error(err)
		return nil, err
	}

	ex, finish, err := m.begin(ctx)
	if err != nil {
		return nil, err
	}

	defer func() {
		err = finish(err)
		if err != nil {
			applied = nil
		}
	}()

	applied, err = m.migrateAll(ctx, ex, discovered)
	if err != nil {
		m.lg.Error(err)
	}

	return applied, err
}

func (m *Manager) migrateAll(
	ctx context.Context,
	ex sqlx.ExtContext,
	discovered migration.Migrations,
) ([]string, error) {
	if err := m.store.EnsureSchema(ctx, ex); err != nil {
		return nil, err
	}

	appliedSet, err := m.store.AppliedNames(ctx, ex)
	if err != nil {
		return nil, err
	}

	var pending migration.Migrations
	for _, unit := range discovered {
		if _, ok := appliedSet[unit.Name]; !ok {
			pending = append(pending, unit)
		}
	}

	if len(pending) == 0 {
		m.lg.Debugf("nothing to migrate")
		return nil, nil
	}

	max, err := m.store.MaxBatch(ctx, ex)
	if err != nil {
		return nil, err
	}
	batch := max + 1

	builder := schema.NewBuilder(ex, m.grammar, m.lg)

	var names []string
	for _, unit := range pending {
		m.lg.Debugf("applying %s: %s", unit.Name, unit.Description)

		if err := unit.Apply(ctx, builder); err != nil {
			return nil, &migration.ExecutionError{Name: unit.Name, Op: migration.OpApply, Err: err}
		}

		names = append(names, unit.Name)
		m.lg.Successf("migrated: %s batch: %d", unit.Name, batch)
	}

	if err := m.store.RecordBatch(ctx, ex, names, batch); err != nil {
		return nil, err
	}

	return names, nil
}

// Rollback reverses the members of the highest batch in descending name
// order, the exact inverse of application order, and removes their
// records only after every reverse succeeded. An empty tracking store
// yields an empty result.
func (m *Manager) Rollback(ctx context.Context) (reversed []string, err error) {
	discovered, err := m.src.Discover(ctx)
	if err != nil {
		m.lg.Error(err)
		return nil, err
	}

	ex, finish, err := m.begin(ctx)
	if err != nil {
		return nil, err
	}

	defer func() {
		err = finish(err)
		if err != nil {
			reversed = nil
		}
	}()

	if err = m.store.EnsureSchema(ctx, ex); err != nil {
		return nil, err
	}

	reversed, err = m.rollbackBatch(ctx, ex, discovered)
	if err != nil {
		m.lg.Error(err)
	}

	return reversed, err
}

func (m *Manager) rollbackBatch(
	ctx context.Context,
	ex sqlx.ExtContext,
	discovered migration.Migrations,
) ([]string, error) {
	max, err := m.store.MaxBatch(ctx, ex)
	if err != nil {
		return nil, err
	}

	if max == 0 {
		m.lg.Debugf("nothing to rollback")
		return nil, nil
	}

	records, err := m.store.RecordsForBatch(ctx, ex, max)
	if err != nil {
		return nil, err
	}

	units := make(migration.Migrations, len(records))
	for i := range records {
		unit, ok := discovered.Find(records[i].Name)
		if !ok {
			return nil, errors.Wrapf(migration.ErrUnknownMigration, "%s", records[i].Name)
		}

		units[i] = unit
	}

	builder := schema.NewBuilder(ex, m.grammar, m.lg)

	var names []string
	for i := len(units) - 1; i >= 0; i-- {
		m.lg.Debugf("reversing %s: %s", units[i].Name, units[i].Description)

		if err := units[i].Reverse(ctx, builder); err != nil {
			return nil, &migration.ExecutionError{Name: units[i].Name, Op: migration.OpReverse, Err: err}
		}

		names = append(names, units[i].Name)
		m.lg.Successf("rolled back: %s batch: %d", units[i].Name, max)
	}

	if err := m.store.Remove(ctx, ex, names); err != nil {
		return nil, err
	}

	return names, nil
}

// Reset repeats the rollback step batch by batch, highest first, until
// no tracked records remain, and returns all reversed names in the order
// the batches were reversed.
func (m *Manager) Reset(ctx context.Context) (reversed []string, err error) {
	discovered, err := m.src.Discover(ctx)
	if err != nil {
		m.lg.Error(err)
		return nil, err
	}

	ex, finish, err := m.begin(ctx)
	if err != nil {
		return nil, err
	}

	defer func() {
		err = finish(err)
		if err != nil {
			reversed = nil
		}
	}()

	if err = m.store.EnsureSchema(ctx, ex); err != nil {
		return nil, err
	}

	for {
		var names []string
		names, err = m.rollbackBatch(ctx, ex, discovered)
		if err != nil {
			m.lg.Error(err)
			return nil, err
		}

		if len(names) == 0 {
			return reversed, nil
		}

		reversed = append(reversed, names...)
	}
}

// Refresh resets everything and migrates it again, returning the
// reversed and the re-applied names.
func (m *Manager) Refresh(ctx context.Context) (reversed []string, applied []string, err error) {
	reversed, err = m.Reset(ctx)
	if err != nil {
		return nil, nil, err
	}

	applied, err = m.Migrate(ctx)
	if err != nil {
		return reversed, nil, err
	}

	return reversed, applied, nil
}

// Status left-joins the discovered units against the tracking records,
// in discovery order.
func (m *Manager) Status(ctx context.Context) ([]migration.Status, error) {
	discovered, err := m.src.Discover(ctx)
	if err != nil {
		m.lg.Error(err)
		return nil, err
	}

	if err := m.store.EnsureSchema(ctx, m.db); err != nil {
		return nil, err
	}

	records, err := m.store.Records(ctx, m.db)
	if err != nil {
		return nil, err
	}

	tracked := make(map[string]migration.Record, len(records))
	for i := range records {
		tracked[records[i].Name] = records[i]
	}

	result := make([]migration.Status, 0, len(discovered))
	for _, unit := range discovered {
		st := migration.Status{Name: unit.Name, Description: unit.Description}

		if r, ok := tracked[unit.Name]; ok {
			st.Applied = true
			st.Batch = r.Batch
			st.AppliedAt = r.AppliedAt
		}

		result = append(result, st)
	}

	return result, nil
}

// DropTracking removes the tracking table itself, losing all applied
// state.
func (m *Manager) DropTracking(ctx context.Context) error {
	return m.store.DropTracking(ctx, m.db)
}

// CreateMigration scaffolds a new migration script named after the
// current clock time and the given CamelCase suffix, and returns its
// path. Only available with the script source.
func (m *Manager) CreateMigration(suffix string) (string, error) {
	s, ok := m.src.(*source.ScriptSource)
	if !ok {
		return "", errors.New("migration scaffolding requires the script source")
	}

	return s.Create(m.clock, suffix)
}

type finishFunc func(error) error

// begin hands out the executor every store and builder call of one
// operation runs on: the plain connection by default, a fresh
// transaction under WithinTransaction.
func (m *Manager) begin(ctx context.Context) (sqlx.ExtContext, finishFunc, error) {
	if !m.inTx {
		return m.db, func(err error) error { return err }, nil
	}

	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, errors.Wrap(err, "could not begin transaction")
	}

	finish := func(opErr error) error {
		if opErr != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				return errors.Wrapf(opErr, "transaction rollback also failed: %s", rbErr)
			}
			return opErr
		}

		if err := tx.Commit(); err != nil {
			return errors.Wrap(err, "could not commit transaction")
		}

		return nil
	}

	return tx, finish, nil
}

func (m *Manager) close() error {
	if m.db == nil {
		return ErrConnectionNotInitialized
	}

	if err := m.db.Close(); err != nil {
		m.lg.Error(err)
		return err
	}

	return nil
}
