package tablekit

import (
	"fmt"
	"time"
)

// Kind is the abstract value type a field holds.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindFloat
	KindBool
	KindEnum
)

// Field is a typed, validated holder for one table column's value. The
// column name is fixed at declaration; the same descriptor doubles as the
// handle for building conditions (f.Eq, f.In, ...), so normal value access
// and query construction never share an accessor.
type Field struct {
	name    string
	kind    Kind
	pattern string
	limit   int
	enum    *Enum

	table *Table

	value  any
	loaded any
}

// NewField declares a field for column name. pattern is a validation
// pattern id ("any" disables format checks); limit caps the rendered
// length, 0 means unlimited.
func NewField(name string, kind Kind, pattern string, limit int) *Field {
	return &Field{name: name, kind: kind, pattern: pattern, limit: limit}
}

// EnumField declares a field validated against the members of e.
func EnumField(name string, e *Enum) *Field {
	return &Field{name: name, kind: KindEnum, enum: e}
}

// Name returns the declared column name.
func (f *Field) Name() string { return f.name }

// Get returns the current value. Nil means unset.
func (f *Field) Get() any { return f.value }

// Set validates and stores a value. Nil and empty string pass through
// unvalidated, matching the write-validation rule that treats them as
// "unset".
func (f *Field) Set(v any) error {
	if v == nil || v == "" {
		f.value = v
		return nil
	}
	if err := f.check(v); err != nil {
		return err
	}
	f.value = v
	return nil
}

// Valid reports whether v would be accepted by Set.
func (f *Field) Valid(v any) bool { return f.check(v) == nil }

// Changed reports whether the value differs from the last row loaded
// from the database.
func (f *Field) Changed() bool { return !eqValue(f.value, f.loaded) }

// Label returns the label of the current enum member, or "".
func (f *Field) Label() string {
	if f.kind != KindEnum || f.enum == nil || f.value == nil {
		return ""
	}
	if m, ok := f.enum.Resolve(f.value); ok {
		return m.Label
	}
	return ""
}

// load stores a value read from the database, bypassing validation: the
// backend is the source of truth on read. The snapshot used by Changed
// is refreshed.
func (f *Field) load(v any) {
	f.value = v
	f.loaded = v
}

// clear unsets value and snapshot.
func (f *Field) clear() {
	f.value = nil
	f.loaded = nil
}

// clone returns a detached copy of the declaration with no value.
func (f *Field) clone() *Field {
	return &Field{name: f.name, kind: f.kind, pattern: f.pattern, limit: f.limit, enum: f.enum}
}

func (f *Field) check(v any) error {
	switch f.kind {
	case KindString:
		if _, ok := v.(string); !ok {
			return fmt.Errorf("%w: field %s expects a string, got %T", ErrValidation, f.name, v)
		}
	case KindNumber:
		switch v.(type) {
		case int, int32, int64:
		default:
			return fmt.Errorf("%w: field %s expects an integer, got %T", ErrValidation, f.name, v)
		}
	case KindFloat:
		switch v.(type) {
		case int, int32, int64, float32, float64:
		default:
			return fmt.Errorf("%w: field %s expects a number, got %T", ErrValidation, f.name, v)
		}
	case KindBool:
		if _, ok := v.(bool); !ok {
			return fmt.Errorf("%w: field %s expects a bool, got %T", ErrValidation, f.name, v)
		}
		return nil
	case KindEnum:
		if f.enum == nil {
			return fmt.Errorf("%w: field %s has no enum registered", ErrValidation, f.name)
		}
		if _, ok := f.enum.Resolve(v); !ok {
			return fmt.Errorf("%w: %q is not a member of %s", ErrValidation, v, f.enum.Name())
		}
		return nil
	}
	if _, ok := v.(time.Time); !ok && f.pattern != "" && f.pattern != "any" {
		if !f.patterns().Match(f.pattern, fmt.Sprint(v)) {
			return fmt.Errorf("%w: field %s value %v does not match pattern %s",
				ErrValidation, f.name, v, f.pattern)
		}
	}
	if f.limit > 0 && len(fmt.Sprint(v)) > f.limit {
		return fmt.Errorf("%w: field %s value exceeds %d characters", ErrValidation, f.name, f.limit)
	}
	return nil
}

func (f *Field) patterns() *patternSet {
	if f.table != nil && f.table.session != nil && f.table.session.db != nil {
		return f.table.session.db.patterns
	}
	return defaultPatterns
}

// qualified renders the column with its owning table's alias, when any.
func (f *Field) qualified() string {
	if f.table != nil {
		return f.table.Alias() + "." + f.name
	}
	return f.name
}

func (f *Field) cond(op string, v any) Cond {
	qualifier := ""
	if f.table != nil {
		qualifier = f.table.Alias()
	}
	return Cond{field: f.name, op: op, value: condValue(v), qualifier: qualifier}
}

// Eq builds a "column = value" condition. Passing another *Field compares
// column to column (used for join ON clauses); pass other.Get() to compare
// against that field's current value instead.
func (f *Field) Eq(v any) Cond { return f.cond("=", v) }

// Neq builds a "column != value" condition.
func (f *Field) Neq(v any) Cond { return f.cond("!=", v) }

// Lt builds a "column < value" condition.
func (f *Field) Lt(v any) Cond { return f.cond("<", v) }

// Lte builds a "column <= value" condition.
func (f *Field) Lte(v any) Cond { return f.cond("<=", v) }

// Gt builds a "column > value" condition.
func (f *Field) Gt(v any) Cond { return f.cond(">", v) }

// Gte builds a "column >= value" condition.
func (f *Field) Gte(v any) Cond { return f.cond(">=", v) }

// In builds a "column IN (...)" condition.
func (f *Field) In(values ...any) Cond { return f.cond("IN", values) }

// Like builds a "column LIKE pattern" condition.
func (f *Field) Like(pattern string) Cond { return f.cond("LIKE", pattern) }

// condValue unwraps enum members so conditions carry the stored value.
// *Field values pass through untouched; Cond.SQL renders those as column
// references.
func condValue(v any) any {
	if m, ok := v.(Member); ok {
		return m.Value
	}
	return v
}

// eqValue compares two values the way the diff pass needs: numerically
// for numbers (driver integers arrive as int64 regardless of how the
// field was set), directly otherwise.
func eqValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return af == bf
	}
	if at, ok := a.(time.Time); ok {
		if bt, ok := b.(time.Time); ok {
			return at.Equal(bt)
		}
	}
	return a == b
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}
