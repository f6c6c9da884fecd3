// Package schema is the DDL statement compiler injected into every
// migration's apply and reverse routine. A Builder is bound to a live
// executor and a dialect grammar; blueprints are compiled to SQL by the
// grammar and executed statement by statement.
package schema

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/strata-db/strata/internal/logger"
)

// Executor is the slice of the database connection the builder needs.
// *sql.DB, *sql.Tx and their sqlx wrappers all satisfy it.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

type Builder struct {
	ex      Executor
	grammar Grammar
	lg      logger.Logger
}

func NewBuilder(ex Executor, g Grammar, lg logger.Logger) *Builder {
	if lg == nil {
		lg = &logger.NullLogger{}
	}

	return &Builder{ex: ex, grammar: g, lg: lg}
}

// Grammar exposes the bound grammar so callers can compile without
// executing.
func (b *Builder) Grammar() Grammar {
	return b.grammar
}

// Create builds a new table from the blueprint populated by fn.
func (b *Builder) Create(ctx context.Context, table string, fn func(t *Table)) error {
	t := newTable(table, false)
	fn(t)

	return b.execAll(ctx, b.grammar.CompileCreate(t))
}

// Table alters an existing table with the changes accumulated by fn.
func (b *Builder) Table(ctx context.Context, table string, fn func(t *Table)) error {
	t := newTable(table, true)
	fn(t)

	return b.execAll(ctx, b.grammar.CompileAlter(t))
}

func (b *Builder) Drop(ctx context.Context, table string) error {
	return b.exec(ctx, b.grammar.CompileDrop(table))
}

func (b *Builder) DropIfExists(ctx context.Context, table string) error {
	return b.exec(ctx, b.grammar.CompileDropIfExists(table))
}

func (b *Builder) Rename(ctx context.Context, from, to string) error {
	return b.exec(ctx, b.grammar.CompileRename(from, to))
}

// HasTable reports whether the table exists in the connected schema.
func (b *Builder) HasTable(ctx context.Context, table string) (bool, error) {
	query := b.grammar.TableExistsQuery()
	b.lg.SQL(query, table)

	rows, err := b.ex.QueryContext(ctx, query, table)
	if err != nil {
		return false, errors.Wrapf(err, "could not check existence of table [%s]", table)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			b.lg.Error(closeErr)
		}
	}()

	exists := rows.Next()
	if err := rows.Err(); err != nil {
		return false, errors.Wrapf(err, "could not check existence of table [%s]", table)
	}

	return exists, nil
}

// Raw is the escape hatch for statements the blueprint cannot express.
func (b *Builder) Raw(ctx context.Context, query string, args ...interface{}) error {
	b.lg.SQL(query, args...)

	if _, err := b.ex.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrapf(err, "could not execute raw statement [%s]", query)
	}

	return nil
}

func (b *Builder) exec(ctx context.Context, statement string) error {
	b.lg.SQL(statement)

	if _, err := b.ex.ExecContext(ctx, statement); err != nil {
		return errors.Wrapf(err, "could not execute [%s]", statement)
	}

	return nil
}

func (b *Builder) execAll(ctx context.Context, statements []string) error {
	for _, statement := range statements {
		if err := b.exec(ctx, statement); err != nil {
			return err
		}
	}

	return nil
}
