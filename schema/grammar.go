package schema

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var ErrUnsupportedDriver = errors.New("unsupported database driver")

// Grammar compiles a blueprint into dialect SQL. Compilation is pure: no
// grammar method touches a connection, so every statement can be asserted
// on before anything is executed.
type Grammar interface {
	Dialect() string
	CompileCreate(t *Table) []string
	CompileAlter(t *Table) []string
	CompileDrop(table string) string
	CompileDropIfExists(table string) string
	CompileRename(from, to string) string

	// TableExistsQuery returns a single-placeholder query selecting the
	// table name when it exists, in the grammar's own placeholder style.
	TableExistsQuery() string
}

// GrammarFor maps a database/sql driver name to its grammar.
func GrammarFor(driver string) (Grammar, error) {
	switch driver {
	case "mysql":
		return NewMySQLGrammar(), nil
	case "sqlite3", "sqlite":
		return NewSQLiteGrammar(), nil
	case "postgres", "pgx":
		return NewPostgresGrammar(), nil
	default:
		return nil, errors.Wrapf(ErrUnsupportedDriver, "%s", driver)
	}
}

type baseGrammar struct {
	quote string
}

func (g baseGrammar) wrap(name string) string {
	return g.quote + name + g.quote
}

func (g baseGrammar) wrapAll(names []string) []string {
	result := make([]string, len(names))
	for i := range names {
		result[i] = g.wrap(names[i])
	}
	return result
}

func (g baseGrammar) columnList(names []string) string {
	return strings.Join(g.wrapAll(names), ", ")
}

// value renders a default value literal.
func (g baseGrammar) value(v interface{}) string {
	switch tv := v.(type) {
	case string:
		return "'" + strings.ReplaceAll(tv, "'", "''") + "'"
	case bool:
		if tv {
			return "1"
		}
		return "0"
	case Expression:
		return string(tv)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Expression marks a raw SQL fragment used verbatim as a default value,
// e.g. schema.Expression("CURRENT_TIMESTAMP").
type Expression string

func (g baseGrammar) foreignConstraint(fk *ForeignKey) string {
	sql := fmt.Sprintf(
		"CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
		g.wrap(fk.name), g.wrap(fk.column), g.wrap(fk.on), g.wrap(fk.references),
	)

	if fk.onDelete != "" {
		sql += " ON DELETE " + strings.ToUpper(fk.onDelete)
	}

	if fk.onUpdate != "" {
		sql += " ON UPDATE " + strings.ToUpper(fk.onUpdate)
	}

	return sql
}

func (g baseGrammar) createIndex(table string, cmd *command, unique bool) string {
	keyword := "INDEX"
	if unique {
		keyword = "UNIQUE INDEX"
	}

	return fmt.Sprintf(
		"CREATE %s %s ON %s (%s)",
		keyword, g.wrap(cmd.index), g.wrap(table), g.columnList(cmd.columns),
	)
}

// compileIndexes turns explicit and column-implied index commands into
// standalone CREATE INDEX statements, shared by all grammars.
func (g baseGrammar) compileIndexes(t *Table) (result []string) {
	for _, cmd := range t.indexCommands() {
		result = append(result, g.createIndex(t.name, cmd, cmd.kind == cmdUnique))
	}
	return result
}
