package dbquery

import "github.com/demiplane/demiplane/pkg/dbschema"

// Capability is a dialect feature flag the compiler consults before
// emitting a clause that not every backend supports: RETURNING, CTEs,
// window functions and lateral joins are each gated so the same AST
// can target a lesser dialect without the caller changing a builder
// call.
type Capability int

const (
	CapReturning Capability = iota
	CapCTE
	CapWindowFunctions
	CapLateralJoins
)

// ParamSink accumulates a query's bound parameters in the order the
// compiler visits them and hands back the placeholder text to splice
// into the SQL it is building, hiding the on-wire parameter shape
// (PostgreSQL's $1.. vs. a dialect using ? placeholders) behind one
// Bind call.
type ParamSink interface {
	// Bind records v and returns the placeholder text for this
	// position (e.g. "$3" for PostgreSQL, "?" for a dialect that does
	// not number its placeholders).
	Bind(v dbschema.FieldValue) string
	// Values returns the bound values in bind order, for CompiledQuery.
	Values() []dbschema.FieldValue
}

// SqlDialect renders the backend-specific syntax fragments the compiler
// cannot express generically: identifier quoting, placeholder
// generation, LIMIT/OFFSET syntax, literal formatting for the
// non-parameterized debug path, and capability gating.
type SqlDialect interface {
	Name() string
	QuoteIdent(ident string) string
	NewParamSink() ParamSink
	LimitOffsetClause(limit, offset *uint64) string
	FormatValue(v dbschema.FieldValue) string
	Supports(cap Capability) bool
}

// CompiledQuery is Compile's output: ready-to-execute SQL text plus
// the positional parameter values the ParamSink collected, in bind
// order.
type CompiledQuery struct {
	SQL    string
	Params []dbschema.FieldValue
	Dialect string
}
