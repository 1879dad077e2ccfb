// Package dbquery implements a typed expression DSL and compiler:
// builder structs produce an AST of
// select/insert/update/delete/CTE/set-operation/case expressions; a
// visitor walks that AST against a SqlDialect and emits a
// CompiledQuery. No SQL is ever built by string concatenation outside
// the compiler.
//
// The five expression categories are expressed as Go marker
// interfaces rather than compile-time concepts, since Go has no
// direct equivalent; the visitor's recursion over the AST follows the
// same switch-over-node-kind shape a resolver would use to walk a
// parsed query.
package dbquery

import "github.com/demiplane/demiplane/pkg/dbschema"

// Node is the root of every AST element.
type Node interface {
	node()
}

// SelectExpr is category 1: a column, aggregate, or scalar literal,
// allowed in select(...).
type SelectExpr interface {
	Node
	selectExpr()
}

// WhereExpr is category 2: "column or scalar; aggregates are rejected".
type WhereExpr interface {
	Node
	whereExpr()
}

// HavingExpr is category 3: "aggregate or scalar; prefers aggregates".
type HavingExpr interface {
	Node
	havingExpr()
}

// OrderByExpr is category 4: "column, aggregate, or scalar".
type OrderByExpr interface {
	Node
	orderByExpr()
}

// Condition is category 5: "binary comparison, unary boolean, logical
// AND/OR, EXISTS, IN, BETWEEN, subquery".
type Condition interface {
	Node
	condition()
}

// ColumnLike type-erases a dbschema.TableColumn[T]/DynamicColumn/AllColumns
// so the AST can hold columns of differing host types uniformly; type
// safety is enforced earlier, at TableColumn[T] construction
// (dbschema.Column), not here.
type ColumnLike interface {
	Table() string
	Name() string
	Alias() string
}

// ColumnRef wraps a ColumnLike as an AST node usable in SELECT, WHERE,
// and ORDER BY position.
type ColumnRef struct {
	Col ColumnLike
}

func (ColumnRef) node()        {}
func (ColumnRef) selectExpr()  {}
func (ColumnRef) whereExpr()   {}
func (ColumnRef) orderByExpr() {}

func (r ColumnRef) Table() string { return r.Col.Table() }
func (r ColumnRef) Name() string  { return r.Col.Name() }
func (r ColumnRef) Alias() string { return r.Col.Alias() }

// Col lifts any ColumnLike (a dbschema.TableColumn[T], DynamicColumn, or
// a prior column ref) into the AST.
func Col(c ColumnLike) ColumnRef { return ColumnRef{Col: c} }

// colAdapter lets dbschema.TableColumn[T] satisfy ColumnLike without
// dbschema importing dbquery.
type colAdapter[T dbschema.FieldScalar] struct {
	c dbschema.TableColumn[T]
}

func (a colAdapter[T]) Table() string { return a.c.Table() }
func (a colAdapter[T]) Name() string  { return a.c.Name() }
func (a colAdapter[T]) Alias() string { return a.c.Alias() }

// C adapts a typed dbschema.TableColumn[T] into a ColumnRef AST node —
// the typed entry point callers use in builder chains, e.g.
// select(dbquery.C(u.Name)).from(...).
func C[T dbschema.FieldScalar](c dbschema.TableColumn[T]) ColumnRef {
	return ColumnRef{Col: colAdapter[T]{c: c}}
}

// Dyn adapts a dbschema.DynamicColumn.
func Dyn(c dbschema.DynamicColumn) ColumnRef { return ColumnRef{Col: c} }

// StarOf builds a "table.*" selector from dbschema.AllColumns.
type StarOf struct {
	Table string
}

func (StarOf) node()       {}
func (StarOf) selectExpr() {}

func Star(a dbschema.AllColumns) StarOf { return StarOf{Table: a.Table()} }

// Literal is a scalar constant; legal in SELECT, WHERE, HAVING and
// ORDER BY position. NULL is represented by dbschema.Null(), a
// sentinel variant arm rather than a typed zero value.
type Literal struct {
	Value dbschema.FieldValue
}

func (Literal) node()        {}
func (Literal) selectExpr()  {}
func (Literal) whereExpr()   {}
func (Literal) havingExpr()  {}
func (Literal) orderByExpr() {}

// Lit wraps a concrete scalar as a parametrized literal node.
func Lit[T dbschema.FieldScalar](v T) Literal {
	return Literal{Value: dbschema.ValueOf(v)}
}

// LitNull is the NULL literal node.
func LitNull() Literal { return Literal{Value: dbschema.Null()} }

// AggFunc enumerates the supported aggregate functions.
type AggFunc string

const (
	AggCount    AggFunc = "COUNT"
	AggSum      AggFunc = "SUM"
	AggAvg      AggFunc = "AVG"
	AggMin      AggFunc = "MIN"
	AggMax      AggFunc = "MAX"
)

// Aggregate is an aggregate call over a column or "*"; legal in SELECT,
// HAVING and ORDER BY position. It does not implement WhereExpr, so it
// cannot fill a WhereExpr slot, but a Comparison's Node operands still
// accept it in any clause (see Comparison).
type Aggregate struct {
	Func     AggFunc
	Arg      ColumnLike // nil means COUNT(*)
	Distinct bool
	AliasAs  string
}

func (Aggregate) node()        {}
func (Aggregate) selectExpr()  {}
func (Aggregate) havingExpr()  {}
func (Aggregate) orderByExpr() {}

func Count(c ColumnLike) Aggregate      { return Aggregate{Func: AggCount, Arg: c} }
func CountStar() Aggregate              { return Aggregate{Func: AggCount, Arg: nil} }
func CountDistinct(c ColumnLike) Aggregate {
	return Aggregate{Func: AggCount, Arg: c, Distinct: true}
}
func Sum(c ColumnLike) Aggregate { return Aggregate{Func: AggSum, Arg: c} }
func Avg(c ColumnLike) Aggregate { return Aggregate{Func: AggAvg, Arg: c} }
func Min(c ColumnLike) Aggregate { return Aggregate{Func: AggMin, Arg: c} }
func Max(c ColumnLike) Aggregate { return Aggregate{Func: AggMax, Arg: c} }

// As sets the aggregate's output alias; when set, the compiler emits
// a trailing AS alias after the aggregate.
func (a Aggregate) As(alias string) Aggregate {
	a.AliasAs = alias
	return a
}

// CaseWhen is one WHEN branch of a CASE expression.
type CaseWhen struct {
	When Condition
	Then SelectExpr
}

// CaseExpr is the CASE ... WHEN ... THEN ... [ELSE ...] END builder.
type CaseExpr struct {
	Whens   []CaseWhen
	Else    SelectExpr
	AliasAs string
}

func (CaseExpr) node()        {}
func (CaseExpr) selectExpr()  {}
func (CaseExpr) havingExpr()  {}
func (CaseExpr) orderByExpr() {}

// CaseOf starts a CASE builder.
func CaseOf() CaseExpr { return CaseExpr{} }

func (c CaseExpr) When(cond Condition, then SelectExpr) CaseExpr {
	c.Whens = append(c.Whens, CaseWhen{When: cond, Then: then})
	return c
}

func (c CaseExpr) ElseThen(v SelectExpr) CaseExpr {
	c.Else = v
	return c
}

func (c CaseExpr) As(alias string) CaseExpr {
	c.AliasAs = alias
	return c
}
