package tablekit

import "testing"

func TestCondSQL(t *testing.T) {
	t.Run("Simple", func(t *testing.T) {
		sql, params := NewCond("ITEMS", "NAME", "=", "Widget").SQL()
		if sql != "ITEMS.NAME = ?" {
			t.Errorf("unexpected sql: %s", sql)
		}
		if len(params) != 1 || params[0] != "Widget" {
			t.Errorf("unexpected params: %v", params)
		}
	})

	t.Run("NoQualifier", func(t *testing.T) {
		sql, _ := NewCond("", "NAME", "!=", "x").SQL()
		if sql != "NAME != ?" {
			t.Errorf("unexpected sql: %s", sql)
		}
	})

	t.Run("InExpandsPlaceholders", func(t *testing.T) {
		sql, params := NewCond("ITEMS", "RECID", "IN", []int{1, 2, 3}).SQL()
		if sql != "ITEMS.RECID IN (?, ?, ?)" {
			t.Errorf("unexpected sql: %s", sql)
		}
		if len(params) != 3 || params[0] != 1 || params[2] != 3 {
			t.Errorf("unexpected params: %v", params)
		}
	})

	t.Run("EmptyInNeverMatches", func(t *testing.T) {
		sql, params := NewCond("ITEMS", "RECID", "IN", []any{}).SQL()
		if sql != "1 = 0" {
			t.Errorf("unexpected sql: %s", sql)
		}
		if len(params) != 0 {
			t.Errorf("expected no params, got %v", params)
		}
	})

	t.Run("ScalarInWrapped", func(t *testing.T) {
		sql, params := NewCond("ITEMS", "RECID", "IN", 7).SQL()
		if sql != "ITEMS.RECID IN (?)" {
			t.Errorf("unexpected sql: %s", sql)
		}
		if len(params) != 1 || params[0] != 7 {
			t.Errorf("unexpected params: %v", params)
		}
	})
}

func TestCondFieldReference(t *testing.T) {
	fc := &fakeConn{stubs: []stub{itemsCatalog(), ordersCatalog()}}
	items := newItems(fc)
	orders := newOrders(items.Session())

	sql, params := orders.F("ITEM").Eq(items.F("RECID")).SQL()
	if sql != "ORDERS.ITEM = ITEMS.RECID" {
		t.Errorf("unexpected sql: %s", sql)
	}
	if params != nil {
		t.Errorf("column reference must carry no params, got %v", params)
	}
}

func TestBinaryExpressions(t *testing.T) {
	a := NewCond("T", "A", "=", 1)
	b := NewCond("T", "B", ">", 2)
	c := NewCond("T", "C", "<", 3)

	t.Run("AndParenthesizes", func(t *testing.T) {
		sql, params := a.And(b).SQL()
		if sql != "(T.A = ? AND T.B > ?)" {
			t.Errorf("unexpected sql: %s", sql)
		}
		if len(params) != 2 || params[0] != 1 || params[1] != 2 {
			t.Errorf("unexpected params: %v", params)
		}
	})

	t.Run("NestedParamOrder", func(t *testing.T) {
		sql, params := Or(a.And(b), c).SQL()
		if sql != "((T.A = ? AND T.B > ?) OR T.C < ?)" {
			t.Errorf("unexpected sql: %s", sql)
		}
		if len(params) != 3 || params[0] != 1 || params[1] != 2 || params[2] != 3 {
			t.Errorf("params out of order: %v", params)
		}
	})
}
