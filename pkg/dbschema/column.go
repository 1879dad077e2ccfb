package dbschema

import "github.com/demiplane/demiplane/pkg/outcome"

// TableColumn is a typed, non-owning reference to one column of one
// table: a schema pointer plus the table name it was drawn from and an
// optional alias. Lightweight value type, bounded by the owning Table's
// lifetime — the Go analogue of db_column.hpp's TableColumn<T>.
type TableColumn[T FieldScalar] struct {
	schema *FieldSchema
	table  string
	alias  string
}

// Column builds a type-checked reference to table's column name,
// rejecting a Go-type mismatch against the schema: the mismatch is
// caught when the column is created, not on first use.
func Column[T FieldScalar](t *Table, name string) (TableColumn[T], error) {
	fs, ok := t.Field(name)
	if !ok {
		return TableColumn[T]{}, outcome.New(outcome.KeyNotFound, "no such column %q on table %q", name, t.Name())
	}
	if !accepts[T](fs) {
		return TableColumn[T]{}, outcome.New(outcome.TypeMismatch,
			"column %q is %s, not %s", name, reflectTypeName(fs.GoType), reflectTypeName(typeOf[T]()))
	}
	return TableColumn[T]{schema: fs, table: t.Name()}, nil
}

// MustColumn is Column but panics on error; intended for package-level
// table/column declarations where a mismatch is a programming error
// caught at init time, not a runtime condition.
func MustColumn[T FieldScalar](t *Table, name string) TableColumn[T] {
	c, err := Column[T](t, name)
	if err != nil {
		panic(err)
	}
	return c
}

// Schema returns the underlying FieldSchema.
func (c TableColumn[T]) Schema() *FieldSchema { return c.schema }

// Table returns the owning table's name.
func (c TableColumn[T]) Table() string { return c.table }

// Name returns the column's name.
func (c TableColumn[T]) Name() string { return c.schema.Name }

// Alias returns the column's SELECT alias, if any.
func (c TableColumn[T]) Alias() string { return c.alias }

// As returns a copy of c aliased to name (SQL "AS name").
func (c TableColumn[T]) As(name string) TableColumn[T] {
	c.alias = name
	return c
}

// DynamicColumn is an untyped column reference carrying just a name and
// table context — used where static typing isn't available, e.g. a
// column name built from user input or introspection.
type DynamicColumn struct {
	name  string
	table string
	alias string
}

func NewDynamicColumn(table, name string) DynamicColumn {
	return DynamicColumn{table: table, name: name}
}

func (c DynamicColumn) Name() string  { return c.name }
func (c DynamicColumn) Table() string { return c.table }
func (c DynamicColumn) Alias() string { return c.alias }

func (c DynamicColumn) As(name string) DynamicColumn {
	c.alias = name
	return c
}

// AllColumns is the "table.*" selector.
type AllColumns struct {
	table string
}

func All(table string) AllColumns { return AllColumns{table: table} }

func (a AllColumns) Table() string { return a.table }
