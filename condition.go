package tablekit

import "strings"

// Expr is a where-clause fragment. SQL is pure: it returns the
// parameterized text and the values for its placeholders, in matching
// left-to-right order.
type Expr interface {
	SQL() (string, []any)
}

// Cond is a leaf comparison against one column. Build one through the
// Field condition constructors, or directly when no entity is in play.
type Cond struct {
	field     string
	op        string
	value     any
	qualifier string
}

// NewCond builds a raw condition. qualifier may be empty; when set the
// column is rendered as qualifier.field.
func NewCond(qualifier, field, op string, value any) Cond {
	return Cond{field: field, op: op, value: value, qualifier: qualifier}
}

func (c Cond) column() string {
	if c.qualifier != "" {
		return c.qualifier + "." + c.field
	}
	return c.field
}

// SQL renders the comparison. IN values expand to one placeholder per
// element; an empty IN renders a never-true clause with no parameters.
// A *Field value renders as a qualified column reference instead of a
// placeholder, which is what join ON conditions are built from.
func (c Cond) SQL() (string, []any) {
	if ref, ok := c.value.(*Field); ok {
		return c.column() + " " + c.op + " " + ref.qualified(), nil
	}
	if c.op == "IN" {
		vals := inValues(c.value)
		if len(vals) == 0 {
			return "1 = 0", nil
		}
		marks := strings.Repeat("?, ", len(vals))
		return c.column() + " IN (" + marks[:len(marks)-2] + ")", vals
	}
	return c.column() + " " + c.op + " ?", []any{c.value}
}

// And combines this condition with another under AND.
func (c Cond) And(other Expr) Expr { return And(c, other) }

// Or combines this condition with another under OR.
func (c Cond) Or(other Expr) Expr { return Or(c, other) }

// binary is an AND/OR node over two sub-expressions.
type binary struct {
	left  Expr
	op    string
	right Expr
}

// SQL renders (left OP right) with the parameter lists concatenated
// left-to-right. The ordering is a hard contract: parameters are
// positional.
func (b binary) SQL() (string, []any) {
	ls, lv := b.left.SQL()
	rs, rv := b.right.SQL()
	params := make([]any, 0, len(lv)+len(rv))
	params = append(params, lv...)
	params = append(params, rv...)
	return "(" + ls + " " + b.op + " " + rs + ")", params
}

func (b binary) And(other Expr) Expr { return And(b, other) }
func (b binary) Or(other Expr) Expr  { return Or(b, other) }

// And joins two expressions under AND.
func And(left, right Expr) Expr { return binary{left: left, op: "AND", right: right} }

// Or joins two expressions under OR.
func Or(left, right Expr) Expr { return binary{left: left, op: "OR", right: right} }

// inValues normalizes the value given to an IN condition to a slice.
func inValues(v any) []any {
	switch vv := v.(type) {
	case []any:
		return vv
	case []string:
		out := make([]any, len(vv))
		for i, s := range vv {
			out[i] = s
		}
		return out
	case []int:
		out := make([]any, len(vv))
		for i, n := range vv {
			out[i] = n
		}
		return out
	case []int64:
		out := make([]any, len(vv))
		for i, n := range vv {
			out[i] = n
		}
		return out
	case nil:
		return nil
	default:
		return []any{v}
	}
}
