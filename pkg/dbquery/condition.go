package dbquery

// CmpOp enumerates the binary comparison operators a Condition can use.
type CmpOp string

const (
	OpEq  CmpOp = "="
	OpNeq CmpOp = "<>"
	OpLt  CmpOp = "<"
	OpLte CmpOp = "<="
	OpGt  CmpOp = ">"
	OpGte CmpOp = ">="
	OpLike CmpOp = "LIKE"
)

// Comparison is a binary condition: left Op right. Operands are typed
// as Node rather than WhereExpr because a comparison must also admit
// HAVING's aggregate operands (e.g. count(*) > 1); Go has no
// context-sensitive type constraint that
// would let the same Comparison type accept WhereExpr operands in a
// WHERE clause and HavingExpr operands in a HAVING clause. The compiler
// (compileOperand) accepts an aggregate operand in every clause: an
// aggregate inside a WHERE or ON comparison is not rejected at compile
// time and reaches the server as written.
type Comparison struct {
	Left  Node
	Op    CmpOp
	Right Node
}

func (Comparison) node()      {}
func (Comparison) condition() {}

func Eq(l, r Node) Comparison   { return Comparison{Left: l, Op: OpEq, Right: r} }
func Neq(l, r Node) Comparison  { return Comparison{Left: l, Op: OpNeq, Right: r} }
func Lt(l, r Node) Comparison   { return Comparison{Left: l, Op: OpLt, Right: r} }
func Lte(l, r Node) Comparison  { return Comparison{Left: l, Op: OpLte, Right: r} }
func Gt(l, r Node) Comparison   { return Comparison{Left: l, Op: OpGt, Right: r} }
func Gte(l, r Node) Comparison  { return Comparison{Left: l, Op: OpGte, Right: r} }
func Like(l, r Node) Comparison { return Comparison{Left: l, Op: OpLike, Right: r} }

// LogicalOp is AND or OR combining two Conditions.
type LogicalOp string

const (
	OpAnd LogicalOp = "AND"
	OpOr  LogicalOp = "OR"
)

// Logical is a conjunction/disjunction of conditions.
type Logical struct {
	Op    LogicalOp
	Terms []Condition
}

func (Logical) node()      {}
func (Logical) condition() {}

func And(terms ...Condition) Logical { return Logical{Op: OpAnd, Terms: terms} }
func Or(terms ...Condition) Logical  { return Logical{Op: OpOr, Terms: terms} }

// Unary is a prefix unary boolean condition: NOT / IS NULL / IS NOT NULL.
type UnaryOp string

const (
	OpNot       UnaryOp = "NOT"
	OpIsNull    UnaryOp = "IS NULL"
	OpIsNotNull UnaryOp = "IS NOT NULL"
)

type Unary struct {
	Op      UnaryOp
	Operand Node // Condition for NOT, WhereExpr for IS [NOT] NULL
}

func (Unary) node()      {}
func (Unary) condition() {}

func Not(c Condition) Unary       { return Unary{Op: OpNot, Operand: c} }
func IsNull(e WhereExpr) Unary    { return Unary{Op: OpIsNull, Operand: e} }
func IsNotNull(e WhereExpr) Unary { return Unary{Op: OpIsNotNull, Operand: e} }

// Between is the BETWEEN lo AND hi condition.
type Between struct {
	Expr WhereExpr
	Lo   WhereExpr
	Hi   WhereExpr
}

func (Between) node()      {}
func (Between) condition() {}

func BetweenOf(e, lo, hi WhereExpr) Between { return Between{Expr: e, Lo: lo, Hi: hi} }

// In is column IN (literal list) or column IN (subquery); Values and
// Sub are mutually exclusive, never both set.
type In struct {
	Expr   WhereExpr
	Values []Literal
	Sub    *SelectBuilder
	Negate bool
}

func (In) node()      {}
func (In) condition() {}

func InValues(e WhereExpr, vals ...Literal) In { return In{Expr: e, Values: vals} }
func InSubquery(e WhereExpr, sub *SelectBuilder) In { return In{Expr: e, Sub: sub} }
func NotInValues(e WhereExpr, vals ...Literal) In {
	return In{Expr: e, Values: vals, Negate: true}
}
func NotInSubquery(e WhereExpr, sub *SelectBuilder) In {
	return In{Expr: e, Sub: sub, Negate: true}
}

// Exists is EXISTS/NOT EXISTS (subquery).
type Exists struct {
	Sub    *SelectBuilder
	Negate bool
}

func (Exists) node()      {}
func (Exists) condition() {}

func ExistsOf(sub *SelectBuilder) Exists    { return Exists{Sub: sub} }
func NotExistsOf(sub *SelectBuilder) Exists { return Exists{Sub: sub, Negate: true} }
