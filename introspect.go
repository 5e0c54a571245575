package tablekit

import (
	"fmt"
	"strings"
)

// Column is one table column as reported by the catalog.
type Column struct {
	Name     string
	Type     string
	Nullable bool
}

// ForeignKey is one foreign-key edge touching the table.
type ForeignKey struct {
	Name       string
	FromTable  string
	FromColumn string
	ToTable    string
	ToColumn   string
}

// Columns returns the table's columns from INFORMATION_SCHEMA, cached on
// the entity for its lifetime.
func (t *Table) Columns() ([]Column, error) {
	if t.columns != nil {
		return t.columns, nil
	}
	rows, err := t.session.Query(
		"SELECT COLUMN_NAME, DATA_TYPE, IS_NULLABLE FROM INFORMATION_SCHEMA.COLUMNS WHERE TABLE_NAME = ?",
		t.name,
	)
	if err != nil {
		return nil, err
	}
	cols := make([]Column, 0, len(rows))
	for _, r := range rows {
		if len(r) < 3 {
			continue
		}
		cols = append(cols, Column{
			Name:     asString(r[0]),
			Type:     asString(r[1]),
			Nullable: strings.EqualFold(asString(r[2]), "YES"),
		})
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("%w: table %s has no columns in the catalog", ErrValidation, t.name)
	}
	t.columns = cols
	return cols, nil
}

// Indexes returns the table's index names, cached.
func (t *Table) Indexes() ([]string, error) {
	if t.indexes != nil {
		return t.indexes, nil
	}
	rows, err := t.session.Query(
		"SELECT name FROM sys.indexes WHERE object_id = OBJECT_ID(?)", t.name)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(rows))
	for _, r := range rows {
		if len(r) > 0 && r[0] != nil {
			names = append(names, asString(r[0]))
		}
	}
	t.indexes = names
	return names, nil
}

const foreignKeyQuery = `
SELECT
    fk.name AS f_key,
    tp.name AS t_origin,
    cp.name AS c_origin,
    tr.name AS t_reference,
    cr.name AS c_reference
FROM sys.foreign_keys fk
INNER JOIN sys.foreign_key_columns fkc ON fk.object_id = fkc.constraint_object_id
INNER JOIN sys.tables tp ON fkc.parent_object_id = tp.object_id
INNER JOIN sys.columns cp ON fkc.parent_object_id = cp.object_id AND fkc.parent_column_id = cp.column_id
INNER JOIN sys.tables tr ON fkc.referenced_object_id = tr.object_id
INNER JOIN sys.columns cr ON fkc.referenced_object_id = cr.object_id AND fkc.referenced_column_id = cr.column_id
WHERE tp.name = ? OR tr.name = ?`

// ForeignKeys returns every foreign key in which the table participates,
// on either end, cached.
func (t *Table) ForeignKeys() ([]ForeignKey, error) {
	if t.fks != nil {
		return t.fks, nil
	}
	rows, err := t.session.Query(foreignKeyQuery, t.name, t.name)
	if err != nil {
		return nil, err
	}
	fks := make([]ForeignKey, 0, len(rows))
	for _, r := range rows {
		if len(r) < 5 {
			continue
		}
		fks = append(fks, ForeignKey{
			Name:       asString(r[0]),
			FromTable:  asString(r[1]),
			FromColumn: asString(r[2]),
			ToTable:    asString(r[3]),
			ToColumn:   asString(r[4]),
		})
	}
	t.fks = fks
	return fks, nil
}

// DefaultColumns returns the set of columns carrying a database-side
// default constraint, cached. Insert skips these when their field is
// unset so the backend fills them in.
func (t *Table) DefaultColumns() (map[string]bool, error) {
	if t.defaults != nil {
		return t.defaults, nil
	}
	rows, err := t.session.Query(
		`SELECT c.name FROM sys.default_constraints dc
INNER JOIN sys.columns c ON dc.parent_object_id = c.object_id AND dc.parent_column_id = c.column_id
WHERE dc.parent_object_id = OBJECT_ID(?)`,
		t.name,
	)
	if err != nil {
		return nil, err
	}
	defaults := make(map[string]bool, len(rows))
	for _, r := range rows {
		if len(r) > 0 && r[0] != nil {
			defaults[strings.ToUpper(asString(r[0]))] = true
		}
	}
	t.defaults = defaults
	return defaults, nil
}

// asString normalizes catalog values, which drivers may hand back as
// strings or byte slices.
func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	case nil:
		return ""
	default:
		return fmt.Sprint(s)
	}
}
