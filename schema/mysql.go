package schema

import (
	"fmt"
	"strings"
)

type MySQLGrammar struct {
	baseGrammar
}

var _ Grammar = (*MySQLGrammar)(nil)

func NewMySQLGrammar() *MySQLGrammar {
	return &MySQLGrammar{baseGrammar{quote: "`"}}
}

func (g *MySQLGrammar) Dialect() string {
	return "mysql"
}

func (g *MySQLGrammar) CompileCreate(t *Table) []string {
	var defs []string

	for _, c := range t.columns {
		defs = append(defs, g.columnDefinition(t, c))
	}

	for _, cmd := range t.commandsOf(cmdPrimary) {
		defs = append(defs, "PRIMARY KEY ("+g.columnList(cmd.columns)+")")
	}

	for _, cmd := range t.commandsOf(cmdForeign) {
		defs = append(defs, g.foreignConstraint(cmd.fk))
	}

	stmt := fmt.Sprintf(
		"CREATE TABLE %s (%s)%s",
		g.wrap(t.name), strings.Join(defs, ", "), g.createSuffix(t),
	)

	return append([]string{stmt}, g.compileIndexes(t)...)
}

func (g *MySQLGrammar) CompileAlter(t *Table) []string {
	var statements []string

	for _, c := range t.columns {
		statements = append(statements, fmt.Sprintf(
			"ALTER TABLE %s ADD COLUMN %s", g.wrap(t.name), g.columnDefinition(t, c),
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
			statements = append(statements, fmt.Sprintf(
				"DROP INDEX %s ON %s", g.wrap(cmd.index), g.wrap(t.name),
			))
		case cmdDropForeign:
			statements = append(statements, fmt.Sprintf(
				"ALTER TABLE %s DROP FOREIGN KEY %s", g.wrap(t.name), g.wrap(cmd.index),
			))
		case cmdRenameColumn:
			statements = append(statements, fmt.Sprintf(
				"ALTER TABLE %s RENAME COLUMN %s TO %s",
				g.wrap(t.name), g.wrap(cmd.from), g.wrap(cmd.to),
			))
		}
	}

	if t.charset != "" {
		convert := fmt.Sprintf(
			"ALTER TABLE %s CONVERT TO CHARACTER SET %s", g.wrap(t.name), t.charset,
		)
		if t.collation != "" {
			convert += " COLLATE " + t.collation
		}
		statements = append(statements, convert)
	}

	return statements
}

func (g *MySQLGrammar) CompileDrop(table string) string {
	return "DROP TABLE " + g.wrap(table)
}

func (g *MySQLGrammar) CompileDropIfExists(table string) string {
	return "DROP TABLE IF EXISTS " + g.wrap(table)
}

func (g *MySQLGrammar) CompileRename(from, to string) string {
	return fmt.Sprintf("RENAME TABLE %s TO %s", g.wrap(from), g.wrap(to))
}

func (g *MySQLGrammar) TableExistsQuery() string {
	return "SELECT table_name FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?"
}

func (g *MySQLGrammar) createSuffix(t *Table) string {
	engine := t.engine
	if engine == "" {
		engine = "InnoDB"
	}

	suffix := " ENGINE=" + engine

	if t.charset != "" {
		suffix += " DEFAULT CHARACTER SET " + t.charset
	}

	if t.collation != "" {
		suffix += " COLLATE " + t.collation
	}

	return suffix
}

func (g *MySQLGrammar) columnDefinition(t *Table, c *Column) string {
	sql := g.wrap(c.name) + " " + g.columnType(c)

	if c.charset != "" {
		sql += " CHARACTER SET " + c.charset
	}

	if c.collation != "" {
		sql += " COLLATE " + c.collation
	}

	if c.nullable {
		sql += " NULL"
	} else {
		sql += " NOT NULL"
	}

	if c.hasDefault {
		sql += " DEFAULT " + g.value(c.def)
	}

	if c.isIncrements() || c.autoIncr {
		sql += " AUTO_INCREMENT"
	}

	if c.isIncrements() || c.primary {
		sql += " PRIMARY KEY"
	}

	if c.comment != "" {
		sql += " COMMENT " + g.value(c.comment)
	}

	if t.altering {
		if c.first {
			sql += " FIRST"
		} else if c.after != "" {
			sql += " AFTER " + g.wrap(c.after)
		}
	}

	return sql
}

func (g *MySQLGrammar) columnType(c *Column) string {
	switch c.ctype {
	case colIncrements:
		return "INT UNSIGNED"
	case colBigIncrements:
		return "BIGINT UNSIGNED"
	case colInteger:
		return g.signed("INT", c)
	case colBigInteger:
		return g.signed("BIGINT", c)
	case colSmallInteger:
		return g.signed("SMALLINT", c)
	case colString:
		return fmt.Sprintf("VARCHAR(%d)", c.length)
	case colText:
		return "TEXT"
	case colBoolean:
		return "TINYINT(1)"
	case colDate:
		return "DATE"
	case colDateTime:
		return "DATETIME"
	case colTimestamp:
		return "TIMESTAMP"
	case colDecimal:
		return fmt.Sprintf("DECIMAL(%d, %d)", c.precision, c.scale)
	case colJSON:
		return "JSON"
	case colEnum:
		quoted := make([]string, len(c.allowed))
		for i := range c.allowed {
			quoted[i] = g.value(c.allowed[i])
		}
		return "ENUM(" + strings.Join(quoted, ", ") + ")"
	default:
		return strings.ToUpper(c.ctype)
	}
}

func (g *MySQLGrammar) signed(base string, c *Column) string {
	if c.unsigned {
		return base + " UNSIGNED"
	}
	return base
}
