// Package postgres is the PostgreSQL binding of pkg/dbquery: the
// SqlDialect/ParamSink implementation the compiler targets, OID
// decode/encode tables for PostgreSQL's binary wire format, and an
// Executor that runs a compiled query through pgconn's ExecParams
// (bypassing pgx's own parameter-encoding and text-protocol fallback)
// and returns a ResultBlock.
package postgres

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/demiplane/demiplane/pkg/dbquery"
	"github.com/demiplane/demiplane/pkg/dbschema"
)

// Dialect is the pkg/dbquery.SqlDialect implementation targeting
// PostgreSQL's wire syntax.
type Dialect struct{}

var _ dbquery.SqlDialect = Dialect{}

func (Dialect) Name() string { return "postgres" }

// QuoteIdent double-quotes ident, doubling any embedded quote — the
// same escaping pg_dump and every postgres client library applies.
func (Dialect) QuoteIdent(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// NewParamSink returns a $N-numbered parameter sink, numbering from 1
// in bind order as PostgreSQL's extended query protocol requires.
func (Dialect) NewParamSink() dbquery.ParamSink {
	return &paramSink{}
}

// LimitOffsetClause renders "LIMIT n" / "OFFSET n" / both / neither.
func (Dialect) LimitOffsetClause(limit, offset *uint64) string {
	var parts []string
	if limit != nil {
		parts = append(parts, "LIMIT "+strconv.FormatUint(*limit, 10))
	}
	if offset != nil {
		parts = append(parts, "OFFSET "+strconv.FormatUint(*offset, 10))
	}
	return strings.Join(parts, " ")
}

// FormatValue renders v as a SQL literal for the non-parameterized
// debug/logging path (never for a query actually sent over the wire,
// which always goes through ParamSink). Byte strings render as
// PostgreSQL's \x hex bytea literal syntax.
func (Dialect) FormatValue(v dbschema.FieldValue) string {
	if v.IsNull() {
		return "NULL"
	}
	switch v.Kind() {
	case dbschema.KindBool:
		b, _ := dbschema.As[bool](v)
		if b {
			return "TRUE"
		}
		return "FALSE"
	case dbschema.KindInt32:
		n, _ := dbschema.As[int32](v)
		return strconv.FormatInt(int64(n), 10)
	case dbschema.KindInt64:
		n, _ := dbschema.As[int64](v)
		return strconv.FormatInt(n, 10)
	case dbschema.KindFloat64:
		f, _ := dbschema.As[float64](v)
		return strconv.FormatFloat(f, 'g', -1, 64)
	case dbschema.KindString:
		s, _ := dbschema.As[string](v)
		return "'" + strings.ReplaceAll(s, "'", "''") + "'"
	case dbschema.KindBytes:
		by, _ := dbschema.As[[]byte](v)
		return fmt.Sprintf(`'\x%x'`, by)
	default:
		return "NULL"
	}
}

// Supports reports the postgres dialect's capability flags. All four
// are supported by any PostgreSQL server in the versions this package
// targets (9.5+); the flag still exists so pkg/dbquery's compiler
// behaves the same way against a lesser future dialect without its
// callers changing a single builder call.
func (Dialect) Supports(cap dbquery.Capability) bool {
	switch cap {
	case dbquery.CapReturning, dbquery.CapCTE, dbquery.CapWindowFunctions, dbquery.CapLateralJoins:
		return true
	default:
		return false
	}
}

// paramSink numbers placeholders $1, $2, ... in bind order and retains
// the bound values for the compiler's CompiledQuery.Params.
type paramSink struct {
	values []dbschema.FieldValue
}

func (s *paramSink) Bind(v dbschema.FieldValue) string {
	s.values = append(s.values, v)
	return "$" + strconv.Itoa(len(s.values))
}

func (s *paramSink) Values() []dbschema.FieldValue {
	return s.values
}
