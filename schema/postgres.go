package schema

import (
	"fmt"
	"strings"
)

type PostgresGrammar struct {
	baseGrammar
}

var _ Grammar = (*PostgresGrammar)(nil)

func NewPostgresGrammar() *PostgresGrammar {
	return &PostgresGrammar{baseGrammar{quote: `"`}}
}

func (g *PostgresGrammar) Dialect() string {
	return "postgres"
}

func (g *PostgresGrammar) CompileCreate(t *Table) []string {
	var defs []string

	for _, c := range t.columns {
		defs = append(defs, g.columnDefinition(c))
	}

	for _, cmd := range t.commandsOf(cmdPrimary) {
		defs = append(defs, "PRIMARY KEY ("+g.columnList(cmd.columns)+")")
	}

	for _, cmd := range t.commandsOf(cmdForeign) {
		defs = append(defs, g.foreignConstraint(cmd.fk))
	}

	stmt := fmt.Sprintf("CREATE TABLE %s (%s)", g.wrap(t.name), strings.Join(defs, ", "))

	return append([]string{stmt}, g.compileIndexes(t)...)
}

func (g *PostgresGrammar) CompileAlter(t *Table) []string {
	var statements []string

	for _, c := range t.columns {
		statements = append(statements, fmt.Sprintf(
			"ALTER TABLE %s ADD COLUMN %s", g.wrap(t.name), g.columnDefinition(c),
		))
	}

	for _, cmd := range t.impliedIndexCommands() {
		statements = append(statements, g.createIndex(t.name, cmd, cmd.kind == cmdUnique))
	}

	for _, cmd := range t.commands {
		switch cmd.kind {
		case cmdIndex, cmdUnique:
			statements = append(statements, g.createIndex(t.name, cmd, cmd.kind == cmdUnique))
		case cmdPrimary:
			statements = append(statements, fmt.Sprintf(
				"ALTER TABLE %s ADD PRIMARY KEY (%s)", g.wrap(t.name), g.columnList(cmd.columns),
			))
		case cmdForeign:
			statements = append(statements, fmt.Sprintf(
				"ALTER TABLE %s ADD %s", g.wrap(t.name), g.foreignConstraint(cmd.fk),
			))
		case cmdDropColumn:
			for _, col := range cmd.columns {
				statements = append(statements, fmt.Sprintf(
					"ALTER TABLE %s DROP COLUMN %s", g.wrap(t.name), g.wrap(col),
				))
			}
		case cmdDropIndex:
			statements = append(statements, "DROP INDEX "+g.wrap(cmd.index))
		case cmdDropForeign:
			statements = append(statements, fmt.Sprintf(
				"ALTER TABLE %s DROP CONSTRAINT %s", g.wrap(t.name), g.wrap(cmd.index),
			))
		case cmdRenameColumn:
			statements = append(statements, fmt.Sprintf(
				"ALTER TABLE %s RENAME COLUMN %s TO %s",
				g.wrap(t.name), g.wrap(cmd.from), g.wrap(cmd.to),
			))
		}
	}

	return statements
}

func (g *PostgresGrammar) CompileDrop(table string) string {
	return "DROP TABLE " + g.wrap(table)
}

func (g *PostgresGrammar) CompileDropIfExists(table string) string {
	return "DROP TABLE IF EXISTS " + g.wrap(table)
}

func (g *PostgresGrammar) CompileRename(from, to string) string {
	return fmt.Sprintf("ALTER TABLE %s RENAME TO %s", g.wrap(from), g.wrap(to))
}

func (g *PostgresGrammar) TableExistsQuery() string {
	return "SELECT tablename FROM pg_catalog.pg_tables WHERE schemaname = current_schema() AND tablename = $1"
}

func (g *PostgresGrammar) columnDefinition(c *Column) string {
	if c.ctype == colIncrements {
		return g.wrap(c.name) + " SERIAL PRIMARY KEY"
	}

	if c.ctype == colBigIncrements {
		return g.wrap(c.name) + " BIGSERIAL PRIMARY KEY"
	}

	sql := g.wrap(c.name) + " " + g.columnType(c)

	if !c.nullable {
		sql += " NOT NULL"
	}

	if c.hasDefault {
		sql += " DEFAULT " + g.pgValue(c.def)
	}

	if c.primary {
		sql += " PRIMARY KEY"
	}

	return sql
}

func (g *PostgresGrammar) columnType(c *Column) string {
	switch c.ctype {
	case colInteger:
		return "INTEGER"
	case colBigInteger:
		return "BIGINT"
	case colSmallInteger:
		return "SMALLINT"
	case colString, colEnum:
		return fmt.Sprintf("VARCHAR(%d)", g.length(c))
	case colText:
		return "TEXT"
	case colBoolean:
		return "BOOLEAN"
	case colDate:
		return "DATE"
	case colDateTime, colTimestamp:
		return "TIMESTAMP"
	case colDecimal:
		return fmt.Sprintf("DECIMAL(%d, %d)", c.precision, c.scale)
	case colJSON:
		return "JSON"
	default:
		return strings.ToUpper(c.ctype)
	}
}

func (g *PostgresGrammar) length(c *Column) int {
	if c.length == 0 {
		return 255
	}
	return c.length
}

// pgValue renders booleans as TRUE/FALSE instead of the numeric form.
func (g *PostgresGrammar) pgValue(v interface{}) string {
	if b, ok := v.(bool); ok {
		if b {
			return "TRUE"
		}
		return "FALSE"
	}

	return g.value(v)
}
