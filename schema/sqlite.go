package schema

import (
	"fmt"
	"strings"
)

type SQLiteGrammar struct {
	baseGrammar
}

var _ Grammar = (*SQLiteGrammar)(nil)

func NewSQLiteGrammar() *SQLiteGrammar {
	return &SQLiteGrammar{baseGrammar{quote: `"`}}
}

func (g *SQLiteGrammar) Dialect() string {
	return "sqlite"
}

func (g *SQLiteGrammar) CompileCreate(t *Table) []string {
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

func (g *SQLiteGrammar) CompileAlter(t *Table) []string {
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
		case cmdDropColumn:
			for _, col := range cmd.columns {
				statements = append(statements, fmt.Sprintf(
					"ALTER TABLE %s DROP COLUMN %s", g.wrap(t.name), g.wrap(col),
				))
			}
		case cmdDropIndex:
			statements = append(statements, "DROP INDEX "+g.wrap(cmd.index))
		case cmdRenameColumn:
			statements = append(statements, fmt.Sprintf(
				"ALTER TABLE %s RENAME COLUMN %s TO %s",
				g.wrap(t.name), g.wrap(cmd.from), g.wrap(cmd.to),
			))
		}
		// primary key and foreign key changes on an existing table require
		// a table rebuild in SQLite; the grammar does not attempt it
	}

	return statements
}

func (g *SQLiteGrammar) CompileDrop(table string) string {
	return "DROP TABLE " + g.wrap(table)
}

func (g *SQLiteGrammar) CompileDropIfExists(table string) string {
	return "DROP TABLE IF EXISTS " + g.wrap(table)
}

func (g *SQLiteGrammar) CompileRename(from, to string) string {
	return fmt.Sprintf("ALTER TABLE %s RENAME TO %s", g.wrap(from), g.wrap(to))
}

func (g *SQLiteGrammar) TableExistsQuery() string {
	return "SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?"
}

func (g *SQLiteGrammar) columnDefinition(c *Column) string {
	if c.isIncrements() {
		return g.wrap(c.name) + " INTEGER PRIMARY KEY AUTOINCREMENT"
	}

	sql := g.wrap(c.name) + " " + g.columnType(c)

	if !c.nullable {
		sql += " NOT NULL"
	}

	if c.hasDefault {
		sql += " DEFAULT " + g.value(c.def)
	}

	if c.primary {
		sql += " PRIMARY KEY"
	}

	return sql
}

func (g *SQLiteGrammar) columnType(c *Column) string {
	switch c.ctype {
	case colInteger, colBigInteger, colSmallInteger, colBoolean:
		return "INTEGER"
	case colString:
		return fmt.Sprintf("VARCHAR(%d)", c.length)
	case colText, colJSON, colEnum:
		return "TEXT"
	case colDate:
		return "DATE"
	case colDateTime:
		return "DATETIME"
	case colTimestamp:
		return "TIMESTAMP"
	case colDecimal:
		return fmt.Sprintf("NUMERIC(%d, %d)", c.precision, c.scale)
	default:
		return strings.ToUpper(c.ctype)
	}
}
