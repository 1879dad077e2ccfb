package dbquery

import "github.com/demiplane/demiplane/pkg/dbschema"

// Assignment is one SET column = value pair in an UPDATE.
type Assignment struct {
	Col   ColumnLike
	Value WhereExpr
}

// InsertBuilder accumulates an INSERT statement. Values are supplied as
// one or more rows; an empty Rows slice is an EmptyBatch error at
// compile time rather than a silent no-op.
type InsertBuilder struct {
	table   string
	columns []ColumnLike
	rows    [][]WhereExpr
	onConflictCols []ColumnLike
	onConflictSet  []Assignment
	returning []ColumnLike
}

func InsertInto(table string, cols ...ColumnLike) *InsertBuilder {
	return &InsertBuilder{table: table, columns: cols}
}

func (b *InsertBuilder) Values(vals ...WhereExpr) *InsertBuilder {
	b.rows = append(b.rows, vals)
	return b
}

// OnConflictDoUpdate renders ON CONFLICT (cols) DO UPDATE SET ...; the
// compiler emits the clause for every dialect without checking a
// capability flag.
func (b *InsertBuilder) OnConflictDoUpdate(conflictCols []ColumnLike, set ...Assignment) *InsertBuilder {
	b.onConflictCols = conflictCols
	b.onConflictSet = set
	return b
}

func (b *InsertBuilder) Returning(cols ...ColumnLike) *InsertBuilder {
	b.returning = cols
	return b
}

// FromRecord seeds an InsertBuilder from a populated dbschema.Record,
// the typed-model entry point a caller reaches for once EntityOf has
// already produced a Table. A field left null is omitted from the
// column/value list entirely rather than bound as an explicit NULL, so
// a serial or DEFAULT-bearing column the caller never touched is left
// for the database to populate instead of being overwritten with NULL.
func FromRecord(r *dbschema.Record) *InsertBuilder {
	tbl := r.Table()
	b := &InsertBuilder{table: tbl.Name()}
	row := make([]WhereExpr, 0, r.FieldCount())
	for _, f := range r.Fields() {
		if f.IsNull() {
			continue
		}
		b.columns = append(b.columns, dbschema.NewDynamicColumn(tbl.Name(), f.Schema().Name))
		row = append(row, Literal{Value: f.Value()})
	}
	b.rows = append(b.rows, row)
	return b
}

// UpdateBuilder accumulates an UPDATE statement.
type UpdateBuilder struct {
	table string
	sets  []Assignment
	where Condition
}

func Update(table string) *UpdateBuilder {
	return &UpdateBuilder{table: table}
}

func (b *UpdateBuilder) Set(col ColumnLike, val WhereExpr) *UpdateBuilder {
	b.sets = append(b.sets, Assignment{Col: col, Value: val})
	return b
}

func (b *UpdateBuilder) Where(cond Condition) *UpdateBuilder {
	b.where = cond
	return b
}

// DeleteBuilder accumulates a DELETE statement. A WHERE clause must be
// supplied explicitly; DeleteAll documents the unfiltered intent so an
// omitted Where is never accidental.
type DeleteBuilder struct {
	table      string
	where      Condition
	allowEmpty bool
}

func DeleteFrom(table string) *DeleteBuilder {
	return &DeleteBuilder{table: table}
}

func (b *DeleteBuilder) Where(cond Condition) *DeleteBuilder {
	b.where = cond
	return b
}

// DeleteAll marks the statement as an intentional unconditional
// DELETE, bypassing the compiler's missing-WHERE rejection.
func (b *DeleteBuilder) DeleteAll() *DeleteBuilder {
	b.allowEmpty = true
	return b
}
