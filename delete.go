package tablekit

import "fmt"

// Delete removes the row addressed by the key field, then clears every
// field and the loaded rows. Requires the key to be set and the row to
// exist.
func (t *Table) Delete() error {
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

	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", t.name, t.key)

	s := t.session
	if err := s.Begin(); err != nil {
		return err
	}
	if _, err := s.Exec(query, dbValue(keyVal)); err != nil {
		_ = s.Abort()
		return fmt.Errorf("delete from %s: %w", t.name, err)
	}
	if err := s.Commit(); err != nil {
		_ = s.Abort()
		return fmt.Errorf("delete from %s: %w", t.name, err)
	}

	t.Clear()
	return nil
}

// DeleteFrom removes every row matching where in one statement. The
// condition is mandatory: an unconditional bulk delete is rejected
// before any SQL is issued. Returns the affected-row count.
func (t *Table) DeleteFrom(where Expr) (int64, error) {
	if err := t.validateFields(); err != nil {
		return 0, err
	}
	if where == nil {
		return 0, fmt.Errorf("%w: DeleteFrom on %s", ErrUnboundedMutation, t.name)
	}

	whereSQL, params := where.SQL()
	query := fmt.Sprintf("DELETE FROM %s WHERE %s", t.name, whereSQL)

	s := t.session
	if err := s.Begin(); err != nil {
		return 0, err
	}
	affected, err := s.Exec(query, params...)
	if err != nil {
		_ = s.Abort()
		return 0, fmt.Errorf("bulk delete from %s: %w", t.name, err)
	}
	if err := s.Commit(); err != nil {
		_ = s.Abort()
		return 0, fmt.Errorf("bulk delete from %s: %w", t.name, err)
	}
	return affected, nil
}
