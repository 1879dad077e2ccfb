package dbquery

// JoinKind enumerates supported join types: inner, left, right, full.
type JoinKind string

const (
	JoinInner JoinKind = "JOIN"
	JoinLeft  JoinKind = "LEFT JOIN"
	JoinRight JoinKind = "RIGHT JOIN"
	JoinFull  JoinKind = "FULL JOIN"
)

// JoinClause is one FROM-clause join.
type JoinClause struct {
	Kind  JoinKind
	Table string
	Alias string
	On    Condition
}

// OrderDir is ASC/DESC.
type OrderDir string

const (
	Asc  OrderDir = "ASC"
	Desc OrderDir = "DESC"
)

// OrderTerm is one ORDER BY entry.
type OrderTerm struct {
	Expr OrderByExpr
	Dir  OrderDir
}

// SelectBuilder accumulates a SELECT statement's clauses; every
// With-style method returns the same *SelectBuilder so calls chain in
// a fluent builder style.
type SelectBuilder struct {
	columns   []SelectExpr
	distinct  bool
	fromTable string
	fromAlias string
	joins     []JoinClause
	where     Condition
	groupBy   []ColumnLike
	having    Condition
	orderBy   []OrderTerm
	limit     *uint64
	offset    *uint64
	ctes      []cteDef
}

type cteDef struct {
	name  string
	query *SelectBuilder
}

// Select starts a new SELECT statement over the given projection list.
func Select(cols ...SelectExpr) *SelectBuilder {
	return &SelectBuilder{columns: cols}
}

func (b *SelectBuilder) Distinct() *SelectBuilder {
	b.distinct = true
	return b
}

func (b *SelectBuilder) From(table string) *SelectBuilder {
	b.fromTable = table
	return b
}

func (b *SelectBuilder) FromAs(table, alias string) *SelectBuilder {
	b.fromTable = table
	b.fromAlias = alias
	return b
}

func (b *SelectBuilder) joinOn(kind JoinKind, table string, on Condition) *SelectBuilder {
	b.joins = append(b.joins, JoinClause{Kind: kind, Table: table, On: on})
	return b
}

func (b *SelectBuilder) Join(table string, on Condition) *SelectBuilder {
	return b.joinOn(JoinInner, table, on)
}

func (b *SelectBuilder) LeftJoin(table string, on Condition) *SelectBuilder {
	return b.joinOn(JoinLeft, table, on)
}

func (b *SelectBuilder) RightJoin(table string, on Condition) *SelectBuilder {
	return b.joinOn(JoinRight, table, on)
}

func (b *SelectBuilder) FullJoin(table string, on Condition) *SelectBuilder {
	return b.joinOn(JoinFull, table, on)
}

func (b *SelectBuilder) Where(cond Condition) *SelectBuilder {
	b.where = cond
	return b
}

func (b *SelectBuilder) GroupBy(cols ...ColumnLike) *SelectBuilder {
	b.groupBy = cols
	return b
}

func (b *SelectBuilder) Having(cond Condition) *SelectBuilder {
	b.having = cond
	return b
}

func (b *SelectBuilder) OrderBy(expr OrderByExpr, dir OrderDir) *SelectBuilder {
	b.orderBy = append(b.orderBy, OrderTerm{Expr: expr, Dir: dir})
	return b
}

func (b *SelectBuilder) Limit(n uint64) *SelectBuilder {
	b.limit = &n
	return b
}

func (b *SelectBuilder) Offset(n uint64) *SelectBuilder {
	b.offset = &n
	return b
}

// With attaches a named CTE; the compiler renders WITH name AS (...)
// ahead of the main query body in declaration order.
func (b *SelectBuilder) With(name string, query *SelectBuilder) *SelectBuilder {
	b.ctes = append(b.ctes, cteDef{name: name, query: query})
	return b
}

// SetOpKind enumerates the supported set operations: union, union all,
// intersect, except.
type SetOpKind string

const (
	SetUnion     SetOpKind = "UNION"
	SetUnionAll  SetOpKind = "UNION ALL"
	SetIntersect SetOpKind = "INTERSECT"
	SetExcept    SetOpKind = "EXCEPT"
)

// SetOpBuilder composes two or more SELECTs under a set operator.
type SetOpBuilder struct {
	Op      SetOpKind
	Queries []*SelectBuilder
}

func setOp(op SetOpKind, first *SelectBuilder, rest ...*SelectBuilder) *SetOpBuilder {
	return &SetOpBuilder{Op: op, Queries: append([]*SelectBuilder{first}, rest...)}
}

func UnionOf(first *SelectBuilder, rest ...*SelectBuilder) *SetOpBuilder {
	return setOp(SetUnion, first, rest...)
}

func UnionAllOf(first *SelectBuilder, rest ...*SelectBuilder) *SetOpBuilder {
	return setOp(SetUnionAll, first, rest...)
}

func IntersectOf(first *SelectBuilder, rest ...*SelectBuilder) *SetOpBuilder {
	return setOp(SetIntersect, first, rest...)
}

func ExceptOf(first *SelectBuilder, rest ...*SelectBuilder) *SetOpBuilder {
	return setOp(SetExcept, first, rest...)
}
