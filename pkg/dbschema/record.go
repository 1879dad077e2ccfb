package dbschema

import "github.com/demiplane/demiplane/pkg/outcome"

// Record is a row: a shared Table schema plus a dense slice of Field
// cells, one per column, in declaration order — a Record's field count
// always equals its table's field count, positionally aligned.
type Record struct {
	table  *Table
	fields []Field
	byName map[string]int
}

// NewRecord builds a Record for table with every field initialized to
// null.
func NewRecord(table *Table) *Record {
	fields := make([]Field, len(table.fields))
	byName := make(map[string]int, len(table.fields))
	for i, fs := range table.fields {
		fields[i] = NewField(fs)
		byName[fs.Name] = i
	}
	return &Record{table: table, fields: fields, byName: byName}
}

// Table returns the Record's owning schema.
func (r *Record) Table() *Table { return r.table }

// FieldCount returns the number of cells, equal to Table().FieldCount().
func (r *Record) FieldCount() int { return len(r.fields) }

// Field accesses a cell by name, failing with KeyNotFound when the name
// is unknown to the schema.
func (r *Record) Field(name string) (*Field, error) {
	idx, ok := r.byName[name]
	if !ok {
		return nil, outcome.New(outcome.KeyNotFound, "record has no field %q", name)
	}
	return &r.fields[idx], nil
}

// At accesses a cell by position, bounds-checked.
func (r *Record) At(i int) (*Field, error) {
	if i < 0 || i >= len(r.fields) {
		return nil, outcome.New(outcome.OutOfRange, "field index %d out of range [0,%d)", i, len(r.fields))
	}
	return &r.fields[i], nil
}

// TryField is the non-throwing counterpart to Field.
func (r *Record) TryField(name string) (*Field, bool) {
	idx, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return &r.fields[idx], true
}

// Fields returns the cells in schema declaration order. The returned
// slice aliases the Record's storage; mutate the Fields through it, not
// a copy of it, to keep the PK/handle-encoding logic in sync.
func (r *Record) Fields() []Field { return r.fields }

// PrimaryKeyValues returns (column-names, values) for every primary-key
// column, in declaration order, failing with NullValue if a PK column is
// currently null — a primary key has no meaningful null arm.
func (r *Record) PrimaryKeyValues() ([]string, []FieldValue, error) {
	var cols []string
	var vals []FieldValue
	for i, fs := range r.table.fields {
		if !fs.PrimaryKey {
			continue
		}
		if r.fields[i].IsNull() {
			return nil, nil, outcome.New(outcome.NullValue, "primary key column %q is null", fs.Name)
		}
		cols = append(cols, fs.Name)
		vals = append(vals, r.fields[i].Value())
	}
	return cols, vals, nil
}

// ValidateForInsert checks that no non-nullable field has been left in
// the null state before the record is compiled into an INSERT.
func (r *Record) ValidateForInsert() error {
	for i, fs := range r.table.fields {
		if !fs.Nullable && r.fields[i].IsNull() {
			return outcome.New(outcome.NullValue, "non-nullable column %q is null", fs.Name)
		}
	}
	return nil
}
