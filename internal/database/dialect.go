// Package database persists which migrations have been applied and in
// which batch. The store speaks plain SQL through a per-dialect query
// set; placeholders are written in ? style and rebound by sqlx for the
// driver at hand.
package database

import (
	"fmt"

	"github.com/pkg/errors"
)

const DefaultTrackingTable = "migrations"

var ErrUnsupportedDriver = errors.New("unsupported database driver")

// Dialect supplies the tracking table queries for one database flavor.
type Dialect interface {
	CreateTrackingTableQuery() string
	DropTrackingTableQuery() string
	InsertRecordQuery() string
	DeleteRecordQuery() string
	SelectNamesQuery() string
	SelectMaxBatchQuery() string
	SelectRecordsQuery() string
	SelectBatchRecordsQuery() string
	SelectBatchesQuery() string
}

// DialectFor maps a database/sql driver name to its tracking dialect.
func DialectFor(driver, table string) (Dialect, error) {
	if table == "" {
		table = DefaultTrackingTable
	}

	switch driver {
	case "mysql":
		return NewMySQLDialect(table), nil
	case "sqlite3", "sqlite":
		return NewSQLiteDialect(table), nil
	case "postgres", "pgx":
		return NewPostgresDialect(table), nil
	default:
		return nil, errors.Wrapf(ErrUnsupportedDriver, "%s", driver)
	}
}

// baseDialect carries the DML queries shared by every flavor; only the
// DDL differs.
type baseDialect struct {
	table string
}

func (d baseDialect) DropTrackingTableQuery() string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", d.table)
}

func (d baseDialect) InsertRecordQuery() string {
	return fmt.Sprintf("INSERT INTO %s (name, batch, applied_at) VALUES (?, ?, ?)", d.table)
}

func (d baseDialect) DeleteRecordQuery() string {
	return fmt.Sprintf("DELETE FROM %s WHERE name = ?", d.table)
}

func (d baseDialect) SelectNamesQuery() string {
	return fmt.Sprintf("SELECT name FROM %s ORDER BY name ASC", d.table)
}

func (d baseDialect) SelectMaxBatchQuery() string {
	return fmt.Sprintf("SELECT COALESCE(MAX(batch), 0) FROM %s", d.table)
}

func (d baseDialect) SelectRecordsQuery() string {
	return fmt.Sprintf("SELECT name, batch, applied_at FROM %s ORDER BY name ASC", d.table)
}

func (d baseDialect) SelectBatchRecordsQuery() string {
	return fmt.Sprintf("SELECT name, batch, applied_at FROM %s WHERE batch = ? ORDER BY name ASC", d.table)
}

func (d baseDialect) SelectBatchesQuery() string {
	return fmt.Sprintf("SELECT DISTINCT batch FROM %s ORDER BY batch DESC", d.table)
}

type MySQLDialect struct {
	baseDialect
	charset string
}

var _ Dialect = (*MySQLDialect)(nil)

func NewMySQLDialect(table string) *MySQLDialect {
	return &MySQLDialect{baseDialect: baseDialect{table: table}, charset: "utf8mb4"}
}

func (d *MySQLDialect) CreateTrackingTableQuery() string {
	const createSQL = `
		CREATE TABLE IF NOT EXISTS %s (
			name VARCHAR(191) NOT NULL PRIMARY KEY,
			batch BIGINT NOT NULL,
			applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		) ENGINE=InnoDB CHARACTER SET=%s
	`

	return fmt.Sprintf(createSQL, d.table, d.charset)
}

type SQLiteDialect struct {
	baseDialect
}

var _ Dialect = (*SQLiteDialect)(nil)

func NewSQLiteDialect(table string) *SQLiteDialect {
	return &SQLiteDialect{baseDialect{table: table}}
}

func (d *SQLiteDialect) CreateTrackingTableQuery() string {
	const createSQL = `
		CREATE TABLE IF NOT EXISTS %s (
			name TEXT NOT NULL PRIMARY KEY,
			batch INTEGER NOT NULL,
			applied_at TIMESTAMP NOT NULL
		)
	`

	return fmt.Sprintf(createSQL, d.table)
}

type PostgresDialect struct {
	baseDialect
}

var _ Dialect = (*PostgresDialect)(nil)

func NewPostgresDialect(table string) *PostgresDialect {
	return &PostgresDialect{baseDialect{table: table}}
}

func (d *PostgresDialect) CreateTrackingTableQuery() string {
	const createSQL = `
		CREATE TABLE IF NOT EXISTS %s (
			name VARCHAR(191) NOT NULL PRIMARY KEY,
			batch BIGINT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`

	return fmt.Sprintf(createSQL, d.table)
}
