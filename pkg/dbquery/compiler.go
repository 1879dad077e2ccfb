package dbquery

import (
	"fmt"
	"strings"

	"github.com/demiplane/demiplane/pkg/outcome"
)

// Compile walks stmt (a *SelectBuilder, *InsertBuilder, *UpdateBuilder,
// *DeleteBuilder or *SetOpBuilder) against dialect and emits a
// CompiledQuery. This is a visitor over the small closed set of
// builder types, expressed as a type switch rather than a classic
// double-dispatch visitor pattern.
func Compile(stmt any, dialect SqlDialect) (CompiledQuery, error) {
	if dialect == nil {
		return CompiledQuery{}, outcome.New(outcome.UnknownDialect, "nil dialect")
	}
	v := &visitor{dialect: dialect, sink: dialect.NewParamSink()}

	var sql string
	var err error
	switch s := stmt.(type) {
	case *SelectBuilder:
		sql, err = v.compileSelect(s)
	case *InsertBuilder:
		sql, err = v.compileInsert(s)
	case *UpdateBuilder:
		sql, err = v.compileUpdate(s)
	case *DeleteBuilder:
		sql, err = v.compileDelete(s)
	case *SetOpBuilder:
		sql, err = v.compileSetOp(s)
	default:
		return CompiledQuery{}, outcome.New(outcome.ShapeMismatch, "unsupported statement type %T", stmt)
	}
	if err != nil {
		return CompiledQuery{}, err
	}
	return CompiledQuery{SQL: sql, Params: v.sink.Values(), Dialect: dialect.Name()}, nil
}

type visitor struct {
	dialect SqlDialect
	sink    ParamSink
}

func (v *visitor) q(ident string) string { return v.dialect.QuoteIdent(ident) }

func (v *visitor) qualify(c ColumnLike) string {
	name := v.q(c.Name())
	if c.Table() == "" {
		return name
	}
	return v.q(c.Table()) + "." + name
}

func (v *visitor) compileSelect(b *SelectBuilder) (string, error) {
	var out strings.Builder

	if len(b.ctes) > 0 {
		if !v.dialect.Supports(CapCTE) {
			return "", outcome.New(outcome.UnsupportedFeature, "dialect %s does not support CTEs", v.dialect.Name())
		}
		out.WriteString("WITH ")
		for i, c := range b.ctes {
			if i > 0 {
				out.WriteString(", ")
			}
			sub, err := v.compileSelect(c.query)
			if err != nil {
				return "", err
			}
			out.WriteString(v.q(c.name))
			out.WriteString(" AS (")
			out.WriteString(sub)
			out.WriteString(")")
		}
		out.WriteString(" ")
	}

	out.WriteString("SELECT ")
	if b.distinct {
		out.WriteString("DISTINCT ")
	}
	if len(b.columns) == 0 {
		return "", outcome.New(outcome.ShapeMismatch, "select() requires at least one projected expression")
	}
	for i, c := range b.columns {
		if i > 0 {
			out.WriteString(", ")
		}
		s, err := v.compileSelectExpr(c)
		if err != nil {
			return "", err
		}
		out.WriteString(s)
	}

	if b.fromTable != "" {
		out.WriteString(" FROM ")
		out.WriteString(v.q(b.fromTable))
		if b.fromAlias != "" {
			out.WriteString(" AS ")
			out.WriteString(v.q(b.fromAlias))
		}
	}

	for _, j := range b.joins {
		out.WriteString(" ")
		out.WriteString(string(j.Kind))
		out.WriteString(" ")
		out.WriteString(v.q(j.Table))
		onSQL, err := v.compileCondition(j.On)
		if err != nil {
			return "", err
		}
		out.WriteString(" ON ")
		out.WriteString(onSQL)
	}

	if b.where != nil {
		whereSQL, err := v.compileCondition(b.where)
		if err != nil {
			return "", err
		}
		out.WriteString(" WHERE ")
		out.WriteString(whereSQL)
	}

	if len(b.groupBy) > 0 {
		out.WriteString(" GROUP BY ")
		for i, c := range b.groupBy {
			if i > 0 {
				out.WriteString(", ")
			}
			out.WriteString(v.qualify(c))
		}
	}

	if b.having != nil {
		if len(b.groupBy) == 0 {
			return "", outcome.New(outcome.ShapeMismatch, "having() requires group_by()")
		}
		havingSQL, err := v.compileCondition(b.having)
		if err != nil {
			return "", err
		}
		out.WriteString(" HAVING ")
		out.WriteString(havingSQL)
	}

	if len(b.orderBy) > 0 {
		out.WriteString(" ORDER BY ")
		for i, t := range b.orderBy {
			if i > 0 {
				out.WriteString(", ")
			}
			s, err := v.compileOrderByExpr(t.Expr)
			if err != nil {
				return "", err
			}
			out.WriteString(s)
			out.WriteString(" ")
			out.WriteString(string(t.Dir))
		}
	}

	if clause := v.dialect.LimitOffsetClause(b.limit, b.offset); clause != "" {
		out.WriteString(" ")
		out.WriteString(clause)
	}

	return out.String(), nil
}

func (v *visitor) compileSetOp(s *SetOpBuilder) (string, error) {
	if len(s.Queries) < 2 {
		return "", outcome.New(outcome.ShapeMismatch, "%s requires at least two queries", s.Op)
	}
	var parts []string
	for _, q := range s.Queries {
		sql, err := v.compileSelect(q)
		if err != nil {
			return "", err
		}
		parts = append(parts, sql)
	}
	return strings.Join(parts, " "+string(s.Op)+" "), nil
}

func (v *visitor) compileInsert(b *InsertBuilder) (string, error) {
	if len(b.rows) == 0 {
		return "", outcome.New(outcome.EmptyBatch, "insert into %q has no rows", b.table)
	}
	if len(b.columns) == 0 {
		return "", outcome.New(outcome.ShapeMismatch, "insert into %q has no columns", b.table)
	}
	for _, row := range b.rows {
		if len(row) != len(b.columns) {
			return "", outcome.New(outcome.ShapeMismatch,
				"insert row has %d values, want %d columns", len(row), len(b.columns))
		}
	}

	var out strings.Builder
	out.WriteString("INSERT INTO ")
	out.WriteString(v.q(b.table))
	out.WriteString(" (")
	for i, c := range b.columns {
		if i > 0 {
			out.WriteString(", ")
		}
		out.WriteString(v.q(c.Name()))
	}
	out.WriteString(") VALUES ")
	for ri, row := range b.rows {
		if ri > 0 {
			out.WriteString(", ")
		}
		out.WriteString("(")
		for ci, val := range row {
			if ci > 0 {
				out.WriteString(", ")
			}
			s, err := v.compileWhereExpr(val)
			if err != nil {
				return "", err
			}
			out.WriteString(s)
		}
		out.WriteString(")")
	}

	if len(b.onConflictCols) > 0 {
		out.WriteString(" ON CONFLICT (")
		for i, c := range b.onConflictCols {
			if i > 0 {
				out.WriteString(", ")
			}
			out.WriteString(v.q(c.Name()))
		}
		out.WriteString(") DO UPDATE SET ")
		for i, a := range b.onConflictSet {
			if i > 0 {
				out.WriteString(", ")
			}
			valSQL, err := v.compileWhereExpr(a.Value)
			if err != nil {
				return "", err
			}
			out.WriteString(v.q(a.Col.Name()))
			out.WriteString(" = ")
			out.WriteString(valSQL)
		}
	}

	if len(b.returning) > 0 {
		if !v.dialect.Supports(CapReturning) {
			return "", outcome.New(outcome.UnsupportedFeature, "dialect %s does not support RETURNING", v.dialect.Name())
		}
		out.WriteString(" RETURNING ")
		for i, c := range b.returning {
			if i > 0 {
				out.WriteString(", ")
			}
			out.WriteString(v.q(c.Name()))
		}
	}

	return out.String(), nil
}

func (v *visitor) compileUpdate(b *UpdateBuilder) (string, error) {
	if len(b.sets) == 0 {
		return "", outcome.New(outcome.ShapeMismatch, "update %q has no set() assignments", b.table)
	}
	var out strings.Builder
	out.WriteString("UPDATE ")
	out.WriteString(v.q(b.table))
	out.WriteString(" SET ")
	for i, a := range b.sets {
		if i > 0 {
			out.WriteString(", ")
		}
		valSQL, err := v.compileWhereExpr(a.Value)
		if err != nil {
			return "", err
		}
		out.WriteString(v.q(a.Col.Name()))
		out.WriteString(" = ")
		out.WriteString(valSQL)
	}
	if b.where != nil {
		whereSQL, err := v.compileCondition(b.where)
		if err != nil {
			return "", err
		}
		out.WriteString(" WHERE ")
		out.WriteString(whereSQL)
	}
	return out.String(), nil
}

func (v *visitor) compileDelete(b *DeleteBuilder) (string, error) {
	if b.where == nil && !b.allowEmpty {
		return "", outcome.New(outcome.ShapeMismatch,
			"delete from %q has no where() clause; call delete_all() to confirm an unfiltered delete", b.table)
	}
	var out strings.Builder
	out.WriteString("DELETE FROM ")
	out.WriteString(v.q(b.table))
	if b.where != nil {
		whereSQL, err := v.compileCondition(b.where)
		if err != nil {
			return "", err
		}
		out.WriteString(" WHERE ")
		out.WriteString(whereSQL)
	}
	return out.String(), nil
}

// --- expression compilation ---

func (v *visitor) compileSelectExpr(n SelectExpr) (string, error) {
	switch e := n.(type) {
	case ColumnRef:
		return v.qualify(e.Col), nil
	case StarOf:
		if e.Table == "" {
			return "*", nil
		}
		return v.q(e.Table) + ".*", nil
	case Literal:
		return v.sink.Bind(e.Value), nil
	case Aggregate:
		return v.compileAggregate(e)
	case CaseExpr:
		return v.compileCase(e)
	default:
		return "", outcome.New(outcome.ShapeMismatch, "unsupported select expression %T", n)
	}
}

func (v *visitor) compileWhereExpr(n WhereExpr) (string, error) {
	switch e := n.(type) {
	case ColumnRef:
		return v.qualify(e.Col), nil
	case Literal:
		return v.sink.Bind(e.Value), nil
	default:
		return "", outcome.New(outcome.ShapeMismatch, "unsupported where expression %T", n)
	}
}

func (v *visitor) compileOrderByExpr(n OrderByExpr) (string, error) {
	switch e := n.(type) {
	case ColumnRef:
		return v.qualify(e.Col), nil
	case Literal:
		return v.sink.Bind(e.Value), nil
	case Aggregate:
		return v.compileAggregate(e)
	case CaseExpr:
		return v.compileCase(e)
	default:
		return "", outcome.New(outcome.ShapeMismatch, "unsupported order-by expression %T", n)
	}
}

// compileOperand compiles a condition's left/right operand, the
// union of everything legal in a WHERE or HAVING position: columns,
// literals, and aggregates (HAVING's reason for existing).
func (v *visitor) compileOperand(n Node) (string, error) {
	switch e := n.(type) {
	case ColumnRef:
		return v.qualify(e.Col), nil
	case Literal:
		return v.sink.Bind(e.Value), nil
	case Aggregate:
		return v.compileAggregate(e)
	case CaseExpr:
		return v.compileCase(e)
	default:
		return "", outcome.New(outcome.ShapeMismatch, "unsupported condition operand %T", n)
	}
}

func (v *visitor) compileAggregate(a Aggregate) (string, error) {
	var arg string
	if a.Arg == nil {
		arg = "*"
	} else {
		arg = v.qualify(a.Arg)
	}
	distinct := ""
	if a.Distinct {
		distinct = "DISTINCT "
	}
	sql := fmt.Sprintf("%s(%s%s)", a.Func, distinct, arg)
	if a.AliasAs != "" {
		sql += " AS " + v.q(a.AliasAs)
	}
	return sql, nil
}

func (v *visitor) compileCase(c CaseExpr) (string, error) {
	if len(c.Whens) == 0 {
		return "", outcome.New(outcome.ShapeMismatch, "case_() requires at least one when() branch")
	}
	var out strings.Builder
	out.WriteString("CASE")
	for _, w := range c.Whens {
		condSQL, err := v.compileCondition(w.When)
		if err != nil {
			return "", err
		}
		thenSQL, err := v.compileSelectExpr(w.Then)
		if err != nil {
			return "", err
		}
		out.WriteString(" WHEN ")
		out.WriteString(condSQL)
		out.WriteString(" THEN ")
		out.WriteString(thenSQL)
	}
	if c.Else != nil {
		elseSQL, err := v.compileSelectExpr(c.Else)
		if err != nil {
			return "", err
		}
		out.WriteString(" ELSE ")
		out.WriteString(elseSQL)
	}
	out.WriteString(" END")
	if c.AliasAs != "" {
		out.WriteString(" AS ")
		out.WriteString(v.q(c.AliasAs))
	}
	return out.String(), nil
}

func (v *visitor) compileCondition(n Condition) (string, error) {
	switch c := n.(type) {
	case Comparison:
		l, err := v.compileOperand(c.Left)
		if err != nil {
			return "", err
		}
		r, err := v.compileOperand(c.Right)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s %s", l, c.Op, r), nil

	case Logical:
		if len(c.Terms) == 0 {
			return "", outcome.New(outcome.ShapeMismatch, "%s requires at least one term", c.Op)
		}
		parts := make([]string, 0, len(c.Terms))
		for _, t := range c.Terms {
			s, err := v.compileCondition(t)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		joined := strings.Join(parts, " "+string(c.Op)+" ")
		if len(parts) > 1 {
			return "(" + joined + ")", nil
		}
		return joined, nil

	case Unary:
		switch c.Op {
		case OpNot:
			inner, ok := c.Operand.(Condition)
			if !ok {
				return "", outcome.New(outcome.ShapeMismatch, "not() requires a condition operand")
			}
			s, err := v.compileCondition(inner)
			if err != nil {
				return "", err
			}
			return "NOT (" + s + ")", nil
		case OpIsNull, OpIsNotNull:
			operand, ok := c.Operand.(WhereExpr)
			if !ok {
				return "", outcome.New(outcome.ShapeMismatch, "%s requires an expression operand", c.Op)
			}
			s, err := v.compileWhereExpr(operand)
			if err != nil {
				return "", err
			}
			return s + " " + string(c.Op), nil
		default:
			return "", outcome.New(outcome.ShapeMismatch, "unsupported unary operator %s", c.Op)
		}

	case Between:
		expr, err := v.compileWhereExpr(c.Expr)
		if err != nil {
			return "", err
		}
		lo, err := v.compileWhereExpr(c.Lo)
		if err != nil {
			return "", err
		}
		hi, err := v.compileWhereExpr(c.Hi)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s BETWEEN %s AND %s", expr, lo, hi), nil

	case In:
		return v.compileIn(c)

	case Exists:
		sub, err := v.compileSelect(c.Sub)
		if err != nil {
			return "", err
		}
		kw := "EXISTS"
		if c.Negate {
			kw = "NOT EXISTS"
		}
		return fmt.Sprintf("%s (%s)", kw, sub), nil

	default:
		return "", outcome.New(outcome.ShapeMismatch, "unsupported condition %T", n)
	}
}

func (v *visitor) compileIn(c In) (string, error) {
	if c.Sub != nil && len(c.Values) > 0 {
		return "", outcome.New(outcome.ShapeMismatch, "in_() accepts either a literal list or a subquery, never both")
	}
	expr, err := v.compileWhereExpr(c.Expr)
	if err != nil {
		return "", err
	}
	kw := "IN"
	if c.Negate {
		kw = "NOT IN"
	}
	if c.Sub != nil {
		sub, err := v.compileSelect(c.Sub)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s (%s)", expr, kw, sub), nil
	}
	if len(c.Values) == 0 {
		return "", outcome.New(outcome.EmptyBatch, "in_() requires at least one value or a subquery")
	}
	parts := make([]string, 0, len(c.Values))
	for _, lit := range c.Values {
		parts = append(parts, v.sink.Bind(lit.Value))
	}
	return fmt.Sprintf("%s %s (%s)", expr, kw, strings.Join(parts, ", ")), nil
}
