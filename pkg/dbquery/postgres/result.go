package postgres

import (
	"github.com/demiplane/demiplane/pkg/dbschema"
	"github.com/demiplane/demiplane/pkg/outcome"
)

// ResultBlock is a decoded query result: column names plus a dense grid
// of dbschema.FieldValue, row-major, with typed (Get/GetOpt) and
// untyped (Value) accessors by position.
type ResultBlock struct {
	columns []string
	rows    [][]dbschema.FieldValue
}

func newResultBlock(columns []string) *ResultBlock {
	return &ResultBlock{columns: columns}
}

func (rb *ResultBlock) appendRow(row []dbschema.FieldValue) {
	rb.rows = append(rb.rows, row)
}

// Rows returns the number of decoded rows.
func (rb *ResultBlock) Rows() int { return len(rb.rows) }

// Cols returns the number of columns.
func (rb *ResultBlock) Cols() int { return len(rb.columns) }

// ColumnNames returns the result's column names in positional order.
func (rb *ResultBlock) ColumnNames() []string {
	out := make([]string, len(rb.columns))
	copy(out, rb.columns)
	return out
}

// Value returns the raw FieldValue at (r, c), for callers rendering a
// result generically (e.g. to JSON) without knowing each column's
// scalar type ahead of time — Get[T] still wants a concrete T.
func (rb *ResultBlock) Value(r, c int) (dbschema.FieldValue, error) {
	return rb.cell(r, c)
}

func (rb *ResultBlock) cell(r, c int) (dbschema.FieldValue, error) {
	if r < 0 || r >= len(rb.rows) {
		return dbschema.FieldValue{}, outcome.New(outcome.OutOfRange, "row %d out of range [0,%d)", r, len(rb.rows))
	}
	if c < 0 || c >= len(rb.columns) {
		return dbschema.FieldValue{}, outcome.New(outcome.ColumnNotFound, "column %d out of range [0,%d)", c, len(rb.columns))
	}
	return rb.rows[r][c], nil
}

// Get extracts cell (r, c) as T, failing with TypeMismatch on a wrong
// arm and NullValue on a null cell.
func Get[T dbschema.FieldScalar](rb *ResultBlock, r, c int) (T, error) {
	var zero T
	v, err := rb.cell(r, c)
	if err != nil {
		return zero, err
	}
	return dbschema.As[T](v)
}

// GetOpt is Get's non-throwing counterpart — get_opt<T>(r, c).
func GetOpt[T dbschema.FieldScalar](rb *ResultBlock, r, c int) (T, bool) {
	v, err := rb.cell(r, c)
	if err != nil {
		var zero T
		return zero, false
	}
	x, err := dbschema.As[T](v)
	return x, err == nil
}

// ErrorContext carries the structured detail of a server-side failure:
// SQLSTATE, message, and (when the server reported one) the 1-based
// character offset into the query text where the error occurred.
type ErrorContext struct {
	SQLState string
	Message  string
	Position int // 0 when the server did not report a position
}
