package tablekit

import (
	"fmt"
	"strings"
)

// Existence checks for InsertMissing batch their IN lists at this size.
const keyBatchSize = 500

// Insert writes the entity's set fields as a new row. The key column is
// never part of the column list; unset fields are skipped so columns
// with a database-side default are filled by the backend. The statement
// runs inside its own transaction and, on success, the cursor is
// refreshed by re-reading the inserted row through OUTPUT INSERTED.
func (t *Table) Insert() error {
	if err := t.validateFields(); err != nil {
		return err
	}
	if err := t.validateWrite(); err != nil {
		return err
	}

	var cols []string
	var vals []any
	for _, name := range t.order {
		if name == t.key {
			continue
		}
		v := t.fields[name].Get()
		if v == nil || v == "" {
			continue
		}
		cols = append(cols, name)
		vals = append(vals, dbValue(v))
	}
	if len(cols) == 0 {
		return fmt.Errorf("%w: no fields to insert into %s", ErrValidation, t.name)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) OUTPUT INSERTED.%s VALUES (%s)",
		t.name, strings.Join(cols, ", "), t.key, placeholders(len(cols)))

	s := t.session
	if err := s.Begin(); err != nil {
		return err
	}
	rows, err := s.Query(query, vals...)
	if err != nil {
		_ = s.Abort()
		return fmt.Errorf("insert into %s: %w", t.name, err)
	}
	if err := s.Commit(); err != nil {
		_ = s.Abort()
		return fmt.Errorf("insert into %s: %w", t.name, err)
	}

	if len(rows) > 0 && len(rows[0]) > 0 && rows[0][0] != nil {
		newKey := rows[0][0]
		if _, err := t.Select().
			Where(NewCond(t.Alias(), t.key, "=", newKey)).
			Limit(1).
			Execute(); err != nil {
			return err
		}
	}
	return nil
}

// InsertRecordset writes many rows in one statement. Columns must exist
// on the table and every row must match their width. Returns the
// affected-row count.
func (t *Table) InsertRecordset(columns []string, rows [][]any) (int64, error) {
	if err := t.validateFields(); err != nil {
		return 0, err
	}
	if len(columns) == 0 || len(rows) == 0 {
		return 0, fmt.Errorf("%w: columns and rows are required for a recordset insert", ErrValidation)
	}
	if err := t.checkColumns(columns); err != nil {
		return 0, err
	}
	for i, row := range rows {
		if len(row) != len(columns) {
			return 0, fmt.Errorf("%w: row %d has %d values, expected %d",
				ErrValidation, i, len(row), len(columns))
		}
	}

	upper := make([]string, len(columns))
	for i, c := range columns {
		upper[i] = strings.ToUpper(c)
	}
	tuple := "(" + placeholders(len(columns)) + ")"
	tuples := make([]string, len(rows))
	flat := make([]any, 0, len(rows)*len(columns))
	for i, row := range rows {
		tuples[i] = tuple
		for _, v := range row {
			flat = append(flat, dbValue(v))
		}
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		t.name, strings.Join(upper, ", "), strings.Join(tuples, ", "))

	s := t.session
	if err := s.Begin(); err != nil {
		return 0, err
	}
	affected, err := s.Exec(query, flat...)
	if err != nil {
		_ = s.Abort()
		return 0, fmt.Errorf("bulk insert into %s: %w", t.name, err)
	}
	if err := s.Commit(); err != nil {
		_ = s.Abort()
		return 0, fmt.Errorf("bulk insert into %s: %w", t.name, err)
	}
	return affected, nil
}

// InsertMissing inserts only the rows whose keyColumn value is not
// already present, checking existing keys in batches first. The check
// and the insert are separate statements; run inside DB.Transaction when
// concurrent writers on the same keys are possible.
func (t *Table) InsertMissing(keyColumn string, columns []string, rows [][]any) (int64, error) {
	if err := t.validateFields(); err != nil {
		return 0, err
	}
	keyColumn = strings.ToUpper(keyColumn)
	keyIdx := -1
	for i, c := range columns {
		if strings.ToUpper(c) == keyColumn {
			keyIdx = i
			break
		}
	}
	if keyIdx < 0 {
		return 0, fmt.Errorf("%w: key column %s is not in the insert column list", ErrValidation, keyColumn)
	}

	keys := make([]any, 0, len(rows))
	for _, row := range rows {
		if keyIdx < len(row) {
			keys = append(keys, row[keyIdx])
		}
	}
	existing := map[string]bool{}
	for start := 0; start < len(keys); start += keyBatchSize {
		end := start + keyBatchSize
		if end > len(keys) {
			end = len(keys)
		}
		batch := keys[start:end]
		sql, params := NewCond(t.Alias(), keyColumn, "IN", batch).SQL()
		query := fmt.Sprintf("SELECT %s.%s FROM %s AS %s WHERE %s",
			t.Alias(), keyColumn, t.name, t.Alias(), sql)
		found, err := t.session.Query(query, params...)
		if err != nil {
			return 0, err
		}
		for _, r := range found {
			if len(r) > 0 {
				existing[keyString(r[0])] = true
			}
		}
	}

	missing := make([][]any, 0, len(rows))
	for _, row := range rows {
		if keyIdx < len(row) && !existing[keyString(row[keyIdx])] {
			missing = append(missing, row)
		}
	}
	if len(missing) == 0 {
		return 0, nil
	}
	return t.InsertRecordset(columns, missing)
}

// checkColumns verifies that every listed column exists on the table.
func (t *Table) checkColumns(columns []string) error {
	cols, err := t.Columns()
	if err != nil {
		return err
	}
	known := make(map[string]bool, len(cols))
	for _, c := range cols {
		known[strings.ToUpper(c.Name)] = true
	}
	for _, c := range columns {
		if !known[strings.ToUpper(c)] {
			return fmt.Errorf("%w: column %s does not exist in table %s", ErrValidation, c, t.name)
		}
	}
	return nil
}

// placeholders renders n comma-separated ? marks.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	marks := strings.Repeat("?, ", n)
	return marks[:len(marks)-2]
}

// dbValue unwraps enum members into their stored value for the driver.
func dbValue(v any) any {
	if m, ok := v.(Member); ok {
		return m.Value
	}
	return v
}

// keyString normalizes key values for set membership, so int 5 from the
// caller matches int64 5 from the driver.
func keyString(v any) string {
	return fmt.Sprint(dbValue(v))
}
