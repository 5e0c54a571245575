package tablekit

import (
	"fmt"
	"strings"
)

// DefaultKey is the primary-key column entities use unless they declare
// another one.
const DefaultKey = "RECID"

// Row is one result row, keyed by column name.
type Row map[string]any

// Table is an entity bound to one database table through a session. It
// carries the declared field slots, the rows loaded by the last
// execution, and the "current" row mirrored into the field values.
// A Table must not be shared across goroutines.
type Table struct {
	session *Session
	name    string
	key     string

	fields map[string]*Field
	order  []string

	records []Row
	current Row
	extras  map[string]any

	columns  []Column
	indexes  []string
	fks      []ForeignKey
	defaults map[string]bool
}

// New declares an entity over table name. Column names are upper-cased,
// following the backend's catalog convention.
func New(s *Session, name string) *Table {
	return &Table{
		session: s,
		name:    strings.ToUpper(name),
		key:     DefaultKey,
		fields:  map[string]*Field{},
	}
}

// Add registers a field slot on the entity and returns it.
func (t *Table) Add(f *Field) *Field {
	name := strings.ToUpper(f.name)
	f.name = name
	f.table = t
	if _, dup := t.fields[name]; !dup {
		t.order = append(t.order, name)
	}
	t.fields[name] = f
	return f
}

// SetKey overrides the primary-key column name.
func (t *Table) SetKey(name string) { t.key = strings.ToUpper(name) }

// Key returns the primary-key column name.
func (t *Table) Key() string { return t.key }

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// Alias returns the qualifier used for this table's columns in SQL. The
// main table is always aliased by its own name.
func (t *Table) Alias() string { return t.name }

// Session returns the execution context the entity is bound to.
func (t *Table) Session() *Session { return t.session }

// F returns the field handle for a declared column, or nil. The handle
// is the query-building accessor; read values through Field.Get.
func (t *Table) F(name string) *Field {
	return t.fields[strings.ToUpper(name)]
}

// Fields returns the declared column names in declaration order.
func (t *Table) Fields() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Records returns the rows loaded by the last executed select.
func (t *Table) Records() []Row { return t.records }

// Current returns the row the field values mirror, or nil.
func (t *Table) Current() Row { return t.current }

// Extras returns aggregate outputs that mapped to no declared field,
// keyed by their generated alias (e.g. COUNT_ALL).
func (t *Table) Extras() map[string]any { return t.extras }

// Total returns how many rows the last select loaded.
func (t *Table) Total() int { return len(t.records) }

// Select starts a query over this entity.
func (t *Table) Select() *SelectQuery {
	return &SelectQuery{table: t, limit: -1, offset: -1, doUpdate: true}
}

// Exists reports whether at least one row matches where. The entity's
// loaded records and current row are left untouched.
func (t *Table) Exists(where Expr) (bool, error) {
	res, err := t.Select().Where(where).Limit(1).DoUpdate(false).Execute()
	if err != nil {
		return false, err
	}
	return res.Len() > 0, nil
}

// Clear unsets every field and drops the loaded rows.
func (t *Table) Clear() {
	for _, name := range t.order {
		t.fields[name].clear()
	}
	t.records = nil
	t.current = nil
	t.extras = nil
}

// SetCurrent mirrors a row (or another entity's fields) into the field
// values. Values are loaded as-is: the database is trusted on read.
func (t *Table) SetCurrent(record any) {
	switch rec := record.(type) {
	case Row:
		for name, f := range t.fields {
			if v, ok := rec[name]; ok {
				f.load(v)
			}
		}
		t.current = rec
	case map[string]any:
		t.SetCurrent(Row(rec))
	case *Table:
		for name, f := range t.fields {
			if src := rec.F(name); src != nil {
				f.load(src.Get())
			}
		}
		t.current = rec.current
	}
}

// clone builds a detached instance with the same declaration and no
// loaded state. Result shaping materializes clones per result row.
func (t *Table) clone() *Table {
	c := New(t.session, t.name)
	c.key = t.key
	for _, name := range t.order {
		c.Add(t.fields[name].clone())
	}
	c.columns = t.columns
	c.defaults = t.defaults
	return c
}

// validateFields checks that every declared field exists as a table
// column. Runs before any select or mutation touches the backend.
func (t *Table) validateFields() error {
	cols, err := t.Columns()
	if err != nil {
		return err
	}
	known := make(map[string]bool, len(cols))
	for _, c := range cols {
		known[strings.ToUpper(c.Name)] = true
	}
	var bad []string
	for _, name := range t.order {
		if !known[name] {
			bad = append(bad, name)
		}
	}
	if len(bad) > 0 {
		return fmt.Errorf("%w: field(s) [%s] do not exist in table %s",
			ErrValidation, strings.Join(bad, ", "), t.name)
	}
	return nil
}

// validateWrite checks that every required column carries a value.
// Required means non-nullable, not the key, and without a database-side
// default the backend could fill in.
func (t *Table) validateWrite() error {
	cols, err := t.Columns()
	if err != nil {
		return err
	}
	defaults, err := t.DefaultColumns()
	if err != nil {
		return err
	}
	for _, c := range cols {
		name := strings.ToUpper(c.Name)
		if c.Nullable || name == t.key || defaults[name] {
			continue
		}
		f := t.fields[name]
		if f == nil {
			return fmt.Errorf("%w: required field %s is not declared on the entity",
				ErrValidation, name)
		}
		if v := f.Get(); v == nil || v == "" {
			return fmt.Errorf("%w: required field %s must not be empty", ErrValidation, name)
		}
	}
	return nil
}

// keyValue returns the key field's value, or ErrMissingKey.
func (t *Table) keyValue() (any, error) {
	f := t.fields[t.key]
	if f == nil || f.Get() == nil {
		return nil, fmt.Errorf("%w: set %s before mutating %s", ErrMissingKey, t.key, t.name)
	}
	return f.Get(), nil
}

// mustExist verifies a row with the given key value is present.
func (t *Table) mustExist(keyVal any) error {
	ok, err := t.Exists(NewCond(t.Alias(), t.key, "=", keyVal))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s %v in table %s", ErrNotFound, t.key, keyVal, t.name)
	}
	return nil
}
