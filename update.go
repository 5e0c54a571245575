package tablekit

import (
	"fmt"
	"sort"
	"strings"
)

// Update rewrites the row addressed by the key field, emitting SET
// clauses only for fields whose value differs from the row as it stands
// in the database. Requires the key to be set and the row to exist; with
// nothing changed it returns ErrNoChanges before any mutation. On
// success the cursor is refreshed from the updated row.
func (t *Table) Update() error {
	if err := t.validateFields(); err != nil {
		return err
	}
	keyVal, err := t.keyValue()
	if err != nil {
		return err
	}
	if err := t.mustExist(keyVal); err != nil {
		return err
	}

	res, err := t.Select().
		Where(NewCond(t.Alias(), t.key, "=", keyVal)).
		Limit(1).
		DoUpdate(false).
		Execute()
	if err != nil {
		return err
	}
	var stored Row
	if res.Len() > 0 {
		stored = res.Rows()[0]
	}

	var sets []string
	var vals []any
	for _, name := range t.order {
		if name == t.key {
			continue
		}
		v := dbValue(t.fields[name].Get())
		if stored != nil && eqValue(stored[name], v) {
			continue
		}
		sets = append(sets, name+" = ?")
		vals = append(vals, v)
	}
	if len(sets) == 0 {
		return fmt.Errorf("%w: update of %s %v in %s", ErrNoChanges, t.key, keyVal, t.name)
	}

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?",
		t.name, strings.Join(sets, ", "), t.key)
	vals = append(vals, dbValue(keyVal))

	s := t.session
	if err := s.Begin(); err != nil {
		return err
	}
	if _, err := s.Exec(query, vals...); err != nil {
		_ = s.Abort()
		return fmt.Errorf("update %s: %w", t.name, err)
	}
	if err := s.Commit(); err != nil {
		_ = s.Abort()
		return fmt.Errorf("update %s: %w", t.name, err)
	}

	refreshed, err := t.Select().
		Where(NewCond(t.Alias(), t.key, "=", keyVal)).
		Limit(1).
		DoUpdate(false).
		Execute()
	if err != nil {
		return err
	}
	if refreshed.Len() > 0 {
		t.SetCurrent(refreshed.Rows()[0])
	}
	return nil
}

// UpdateRecordset updates many rows in one statement. The where
// condition is mandatory: an unconditional bulk update is rejected
// before any SQL is issued. Returns the affected-row count.
func (t *Table) UpdateRecordset(where Expr, set map[string]any) (int64, error) {
	if err := t.validateFields(); err != nil {
		return 0, err
	}
	if where == nil {
		return 0, fmt.Errorf("%w: UpdateRecordset on %s", ErrUnboundedMutation, t.name)
	}
	if len(set) == 0 {
		return 0, fmt.Errorf("%w: no fields to update in %s", ErrValidation, t.name)
	}

	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, strings.ToUpper(name))
	}
	sort.Strings(names)
	if err := t.checkColumns(names); err != nil {
		return 0, err
	}

	sets := make([]string, len(names))
	vals := make([]any, 0, len(names)+4)
	for i, name := range names {
		sets[i] = name + " = ?"
		for key, v := range set {
			if strings.ToUpper(key) == name {
				vals = append(vals, dbValue(v))
				break
			}
		}
	}

	whereSQL, whereParams := where.SQL()
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s", t.name, strings.Join(sets, ", "), whereSQL)
	vals = append(vals, whereParams...)

	s := t.session
	if err := s.Begin(); err != nil {
		return 0, err
	}
	affected, err := s.Exec(query, vals...)
	if err != nil {
		_ = s.Abort()
		return 0, fmt.Errorf("bulk update of %s: %w", t.name, err)
	}
	if err := s.Commit(); err != nil {
		_ = s.Abort()
		return 0, fmt.Errorf("bulk update of %s: %w", t.name, err)
	}
	return affected, nil
}
