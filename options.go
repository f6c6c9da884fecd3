package strata

import (
	"log"

	"github.com/mandelsoft/vfs/pkg/vfs"

	"github.com/strata-db/strata/internal/logger"
	"github.com/strata-db/strata/internal/source"
	"github.com/strata-db/strata/migration"
)

type OptionFunc func(*Manager) error

// UseLocalFolders points discovery at one or more directories of
// migration script files. Every directory must exist.
func UseLocalFolders(folders ...string) OptionFunc {
	return func(m *Manager) error {
		m.folders = folders
		return nil
	}
}

// UseFS substitutes the filesystem discovery reads from; tests use an
// in-memory one.
func UseFS(fs vfs.FileSystem) OptionFunc {
	return func(m *Manager) error {
		m.fs = fs
		return nil
	}
}

// UseInMemoryMigrations serves the given units instead of scanning any
// directory, for migrations compiled into the binary.
func UseInMemoryMigrations(units ...*migration.Migration) OptionFunc {
	return func(m *Manager) error {
		src, err := source.NewInMemorySource(units...)
		if err != nil {
			return err
		}

		m.src = src
		return nil
	}
}

// UseTrackingTable overrides the name of the table recording applied
// migrations.
func UseTrackingTable(name string) OptionFunc {
	return func(m *Manager) error {
		m.table = name
		return nil
	}
}

func UseColorLogger(l *log.Logger, printSQL, printDebug bool) OptionFunc {
	return func(m *Manager) error {
		m.lg = logger.NewColorLogger(l, printSQL, printDebug)
		return nil
	}
}

func UseBWLogger(l *log.Logger, printSQL, printDebug bool) OptionFunc {
	return func(m *Manager) error {
		m.lg = logger.NewBWLogger(l, printSQL, printDebug)
		return nil
	}
}

// UseClock pins the timestamp source, mostly for tests.
func UseClock(cf migration.ClockFunc) OptionFunc {
	return func(m *Manager) error {
		m.clock = cf
		return nil
	}
}

// WithinTransaction wraps each Migrate, Rollback and Reset call in one
// database transaction covering both the schema statements and the
// tracking writes. Whether that actually buys atomicity depends on the
// database: MySQL commits implicitly on DDL, SQLite and Postgres do not.
func WithinTransaction() OptionFunc {
	return func(m *Manager) error {
		m.inTx = true
		return nil
	}
}
