package schema

import "strings"

const (
	colIncrements    = "increments"
	colBigIncrements = "bigIncrements"
	colInteger       = "integer"
	colBigInteger    = "bigInteger"
	colSmallInteger  = "smallInteger"
	colString        = "string"
	colText          = "text"
	colBoolean       = "boolean"
	colDate          = "date"
	colDateTime      = "datetime"
	colTimestamp     = "timestamp"
	colDecimal       = "decimal"
	colJSON          = "json"
	colEnum          = "enum"
)

const (
	cmdIndex        = "index"
	cmdUnique       = "unique"
	cmdPrimary      = "primary"
	cmdForeign      = "foreign"
	cmdDropColumn   = "dropColumn"
	cmdDropIndex    = "dropIndex"
	cmdDropForeign  = "dropForeign"
	cmdRenameColumn = "renameColumn"
)

// Table is the blueprint accumulated by a Create or Table callback. Every
// mutating method returns a handle for chaining; nothing touches the
// database until the grammar compiles the blueprint and the builder
// executes the result.
type Table struct {
	name      string
	altering  bool
	columns   []*Column
	commands  []*command
	engine    string
	charset   string
	collation string
}

type command struct {
	kind    string
	index   string
	columns []string
	from    string
	to      string
	fk      *ForeignKey
}

func newTable(name string, altering bool) *Table {
	return &Table{name: name, altering: altering}
}

func (t *Table) addColumn(ctype, name string) *Column {
	c := &Column{name: name, ctype: ctype}
	t.columns = append(t.columns, c)
	return c
}

// Increments adds an auto incrementing unsigned integer primary key.
func (t *Table) Increments(name string) *Column {
	return t.addColumn(colIncrements, name)
}

func (t *Table) BigIncrements(name string) *Column {
	return t.addColumn(colBigIncrements, name)
}

func (t *Table) Integer(name string) *Column {
	return t.addColumn(colInteger, name)
}

func (t *Table) BigInteger(name string) *Column {
	return t.addColumn(colBigInteger, name)
}

func (t *Table) SmallInteger(name string) *Column {
	return t.addColumn(colSmallInteger, name)
}

// String adds a varchar column, 255 characters when no length is given.
func (t *Table) String(name string, length ...int) *Column {
	c := t.addColumn(colString, name)
	c.length = 255
	if len(length) > 0 {
		c.length = length[0]
	}
	return c
}

func (t *Table) Text(name string) *Column {
	return t.addColumn(colText, name)
}

func (t *Table) Boolean(name string) *Column {
	return t.addColumn(colBoolean, name)
}

func (t *Table) Date(name string) *Column {
	return t.addColumn(colDate, name)
}

func (t *Table) DateTime(name string) *Column {
	return t.addColumn(colDateTime, name)
}

func (t *Table) Timestamp(name string) *Column {
	return t.addColumn(colTimestamp, name)
}

func (t *Table) Decimal(name string, precision, scale int) *Column {
	c := t.addColumn(colDecimal, name)
	c.precision = precision
	c.scale = scale
	return c
}

func (t *Table) JSON(name string) *Column {
	return t.addColumn(colJSON, name)
}

func (t *Table) Enum(name string, allowed []string) *Column {
	c := t.addColumn(colEnum, name)
	c.allowed = allowed
	return c
}

// Timestamps adds the conventional created_at and updated_at pair.
func (t *Table) Timestamps() {
	t.Timestamp("created_at").Nullable()
	t.Timestamp("updated_at").Nullable()
}

// Index adds a plain index over the given columns with a generated name.
func (t *Table) Index(columns ...string) {
	t.commands = append(t.commands, &command{
		kind:    cmdIndex,
		index:   indexName(t.name, columns, cmdIndex),
		columns: columns,
	})
}

func (t *Table) Unique(columns ...string) {
	t.commands = append(t.commands, &command{
		kind:    cmdUnique,
		index:   indexName(t.name, columns, cmdUnique),
		columns: columns,
	})
}

func (t *Table) Primary(columns ...string) {
	t.commands = append(t.commands, &command{kind: cmdPrimary, columns: columns})
}

// Foreign starts a fluent foreign key definition for the given column.
func (t *Table) Foreign(column string) *ForeignKey {
	fk := &ForeignKey{column: column, name: indexName(t.name, []string{column}, "foreign")}
	t.commands = append(t.commands, &command{kind: cmdForeign, fk: fk})
	return fk
}

func (t *Table) DropColumn(columns ...string) {
	t.commands = append(t.commands, &command{kind: cmdDropColumn, columns: columns})
}

func (t *Table) DropIndex(name string) {
	t.commands = append(t.commands, &command{kind: cmdDropIndex, index: name})
}

func (t *Table) DropForeign(name string) {
	t.commands = append(t.commands, &command{kind: cmdDropForeign, index: name})
}

func (t *Table) RenameColumn(from, to string) {
	t.commands = append(t.commands, &command{kind: cmdRenameColumn, from: from, to: to})
}

func (t *Table) Engine(engine string) *Table {
	t.engine = engine
	return t
}

func (t *Table) Charset(charset string) *Table {
	t.charset = charset
	return t
}

func (t *Table) Collate(collation string) *Table {
	t.collation = collation
	return t
}

func (t *Table) commandsOf(kind string) (result []*command) {
	for _, c := range t.commands {
		if c.kind == kind {
			result = append(result, c)
		}
	}
	return result
}

// impliedIndexCommands lifts column level Unique and Index modifiers into
// standalone index commands.
func (t *Table) impliedIndexCommands() (result []*command) {
	for _, c := range t.columns {
		if c.unique {
			result = append(result, &command{
				kind:    cmdUnique,
				index:   indexName(t.name, []string{c.name}, cmdUnique),
				columns: []string{c.name},
			})
		}
		if c.index {
			result = append(result, &command{
				kind:    cmdIndex,
				index:   indexName(t.name, []string{c.name}, cmdIndex),
				columns: []string{c.name},
			})
		}
	}

	return result
}

// indexCommands merges implied and explicitly declared index commands.
func (t *Table) indexCommands() []*command {
	result := t.impliedIndexCommands()

	for _, cmd := range t.commands {
		if cmd.kind == cmdIndex || cmd.kind == cmdUnique {
			result = append(result, cmd)
		}
	}

	return result
}

func indexName(table string, columns []string, suffix string) string {
	return table + "_" + strings.Join(columns, "_") + "_" + suffix
}

// Column is a single column definition under construction. Modifiers
// mutate the same column and return it for chaining. Columns are NOT NULL
// unless Nullable is called.
type Column struct {
	name       string
	ctype      string
	length     int
	precision  int
	scale      int
	allowed    []string
	nullable   bool
	def        interface{}
	hasDefault bool
	unsigned   bool
	unique     bool
	index      bool
	primary    bool
	autoIncr   bool
	after      string
	first      bool
	charset    string
	collation  string
	comment    string
}

func (c *Column) isIncrements() bool {
	return c.ctype == colIncrements || c.ctype == colBigIncrements
}

func (c *Column) Nullable() *Column {
	c.nullable = true
	return c
}

func (c *Column) NotNull() *Column {
	c.nullable = false
	return c
}

func (c *Column) Default(value interface{}) *Column {
	c.def = value
	c.hasDefault = true
	return c
}

func (c *Column) Unsigned() *Column {
	c.unsigned = true
	return c
}

func (c *Column) Unique() *Column {
	c.unique = true
	return c
}

func (c *Column) Index() *Column {
	c.index = true
	return c
}

func (c *Column) Primary() *Column {
	c.primary = true
	return c
}

func (c *Column) AutoIncrement() *Column {
	c.autoIncr = true
	return c
}

// After positions the column, MySQL only; other grammars ignore it.
func (c *Column) After(column string) *Column {
	c.after = column
	return c
}

func (c *Column) First() *Column {
	c.first = true
	return c
}

func (c *Column) Charset(charset string) *Column {
	c.charset = charset
	return c
}

func (c *Column) Collate(collation string) *Column {
	c.collation = collation
	return c
}

func (c *Column) Comment(comment string) *Column {
	c.comment = comment
	return c
}

// ForeignKey is a fluent foreign key constraint definition.
type ForeignKey struct {
	name       string
	column     string
	references string
	on         string
	onDelete   string
	onUpdate   string
}

// References names the referenced column on the target table.
func (f *ForeignKey) References(column string) *ForeignKey {
	f.references = column
	return f
}

// On names the referenced table.
func (f *ForeignKey) On(table string) *ForeignKey {
	f.on = table
	return f
}

func (f *ForeignKey) OnDelete(action string) *ForeignKey {
	f.onDelete = action
	return f
}

func (f *ForeignKey) OnUpdate(action string) *ForeignKey {
	f.onUpdate = action
	return f
}
