package dbschema

import (
	"reflect"

	"github.com/demiplane/demiplane/pkg/outcome"
)

// Table is a named relation: an ordered list of owning FieldSchemas plus
// a name→index map for O(1)-average column lookup. Built imperatively
// via AddField/constraint helpers, then treated as immutable shared
// metadata — the same role db_table.hpp's Table plays in the original.
type Table struct {
	name    string
	fields  []*FieldSchema
	byName  map[string]int
}

// NewTable starts an empty table named name.
func NewTable(name string) *Table {
	return &Table{name: name, byName: make(map[string]int)}
}

// Name returns the table's name.
func (t *Table) Name() string { return t.name }

// Fields returns the table's columns in declaration order. The slice is
// owned by Table; callers must not mutate it.
func (t *Table) Fields() []*FieldSchema { return t.fields }

// FieldCount returns the number of columns.
func (t *Table) FieldCount() int { return len(t.fields) }

// AddField appends a new column of Go type T, mirroring
// add_field<T>(name, sql_type). Returns the schema for the constraint
// helpers (WithPrimaryKey, WithNullable, WithUnique, WithIndexed, ...).
func AddField[T FieldScalar](t *Table, name, sqlType string) *FieldSchema {
	fs := &FieldSchema{
		Name:       name,
		SQLType:    sqlType,
		GoType:     typeOf[T](),
		Nullable:   true,
		Attributes: map[string]string{},
	}
	t.byName[name] = len(t.fields)
	t.fields = append(t.fields, fs)
	return fs
}

// AddDynamicField appends an untyped column (GoType left nil, i.e.
// "void" in the original's terms) — used when a field's host type isn't
// known statically, e.g. from IntrospectTable.
func (t *Table) AddDynamicField(name, sqlType string) *FieldSchema {
	fs := &FieldSchema{Name: name, SQLType: sqlType, Nullable: true, Attributes: map[string]string{}}
	t.byName[name] = len(t.fields)
	t.fields = append(t.fields, fs)
	return fs
}

// Field looks up a column by name.
func (t *Table) Field(name string) (*FieldSchema, bool) {
	idx, ok := t.byName[name]
	if !ok {
		return nil, false
	}
	return t.fields[idx], true
}

// FieldAt returns the column at position i, bounds-checked.
func (t *Table) FieldAt(i int) (*FieldSchema, error) {
	if i < 0 || i >= len(t.fields) {
		return nil, outcome.New(outcome.OutOfRange, "field index %d out of range [0,%d)", i, len(t.fields))
	}
	return t.fields[i], nil
}

// PrimaryKeyFields returns every column flagged PrimaryKey, in
// declaration order.
func (t *Table) PrimaryKeyFields() []*FieldSchema {
	var pk []*FieldSchema
	for _, fs := range t.fields {
		if fs.PrimaryKey {
			pk = append(pk, fs)
		}
	}
	return pk
}

// Constraint helpers mutate a FieldSchema in place and return it so
// callers can nest them: WithPrimaryKey(AddField[int64](t, "id", "INTEGER"))

func WithPrimaryKey(fs *FieldSchema) *FieldSchema {
	fs.PrimaryKey = true
	fs.Nullable = false
	return fs
}

func WithNullable(fs *FieldSchema, nullable bool) *FieldSchema {
	fs.Nullable = nullable
	return fs
}

func WithForeignKey(fs *FieldSchema, table, column string) *FieldSchema {
	fs.ForeignKey = true
	fs.ForeignTable = table
	fs.ForeignColumn = column
	return fs
}

func WithUnique(fs *FieldSchema) *FieldSchema {
	fs.Unique = true
	return fs
}

func WithIndexed(fs *FieldSchema) *FieldSchema {
	fs.Indexed = true
	return fs
}

func WithDefault(fs *FieldSchema, def string) *FieldSchema {
	fs.Default = def
	return fs
}

func WithMaxLength(fs *FieldSchema, n int) *FieldSchema {
	fs.MaxLength = n
	return fs
}

// reflectTypeName is a small helper used by error messages below.
func reflectTypeName(t reflect.Type) string {
	if t == nil {
		return "void"
	}
	return t.String()
}
