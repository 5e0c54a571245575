package tablekit

import (
	"errors"
	"testing"
)

func loadedItems(t *testing.T, fc *fakeConn) *Table {
	t.Helper()
	items := newItems(fc)
	if _, err := items.Select().Execute(); err != nil {
		t.Fatalf("loading cursor failed: %v", err)
	}
	return items
}

func TestUpdate(t *testing.T) {
	t.Run("WritesOnlyChangedFields", func(t *testing.T) {
		fc := &fakeConn{stubs: []stub{
			itemsCatalog(),
			{match: "FROM ITEMS AS ITEMS", rows: itemRow()},
		}}
		items := loadedItems(t, fc)
		_ = items.F("NAME").Set("Gadget")

		if err := items.Update(); err != nil {
			t.Fatalf("Update failed: %v", err)
		}

		want := "UPDATE ITEMS SET NAME = ? WHERE RECID = ?"
		if countMatching(fc.execs, want) != 1 {
			t.Errorf("unexpected statements: %v", fc.execs)
		}
		var updArgs []any
		for i, q := range fc.execs {
			if q == want {
				updArgs = fc.execArgs[i]
			}
		}
		if len(updArgs) != 2 || updArgs[0] != "Gadget" || updArgs[1] != int64(5) {
			t.Errorf("unexpected args: %v", updArgs)
		}
		if countMatching(fc.execs, "BEGIN TRANSACTION") != 1 ||
			countMatching(fc.execs, "COMMIT TRANSACTION") != 1 {
			t.Errorf("update must run in its own transaction: %v", fc.execs)
		}
	})

	t.Run("NoChanges", func(t *testing.T) {
		fc := &fakeConn{stubs: []stub{
			itemsCatalog(),
			{match: "FROM ITEMS AS ITEMS", rows: itemRow()},
		}}
		items := loadedItems(t, fc)

		err := items.Update()
		if !errors.Is(err, ErrNoChanges) {
			t.Fatalf("expected ErrNoChanges, got %v", err)
		}
		if countMatching(fc.execs, "UPDATE ITEMS") != 0 {
			t.Errorf("no statement may run without changes: %v", fc.execs)
		}
	})

	t.Run("MissingKey", func(t *testing.T) {
		fc := &fakeConn{stubs: []stub{itemsCatalog()}}
		items := newItems(fc)
		_ = items.F("NAME").Set("x")

		if err := items.Update(); !errors.Is(err, ErrMissingKey) {
			t.Errorf("expected ErrMissingKey, got %v", err)
		}
	})

	t.Run("RowGone", func(t *testing.T) {
		fc := &fakeConn{stubs: []stub{itemsCatalog()}}
		items := newItems(fc)
		_ = items.F("RECID").Set(99)
		_ = items.F("NAME").Set("x")

		if err := items.Update(); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if countMatching(fc.execs, "UPDATE ITEMS") != 0 {
			t.Error("no update may run for a missing row")
		}
	})
}

func TestUpdateRecordset(t *testing.T) {
	t.Run("RequiresWhere", func(t *testing.T) {
		fc := &fakeConn{stubs: []stub{itemsCatalog()}}
		items := newItems(fc)

		_, err := items.UpdateRecordset(nil, map[string]any{"PRICE": 1.0})
		if !errors.Is(err, ErrUnboundedMutation) {
			t.Fatalf("expected ErrUnboundedMutation, got %v", err)
		}
		if len(fc.execs) != 0 {
			t.Errorf("nothing may reach the backend: %v", fc.execs)
		}
	})

	t.Run("RequiresSetValues", func(t *testing.T) {
		fc := &fakeConn{stubs: []stub{itemsCatalog()}}
		items := newItems(fc)
		_, err := items.UpdateRecordset(items.F("NAME").Eq("x"), nil)
		if !errors.Is(err, ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("BuildsSortedSetClause", func(t *testing.T) {
		fc := &fakeConn{stubs: []stub{itemsCatalog()}, affected: 3}
		items := newItems(fc)

		n, err := items.UpdateRecordset(
			items.F("NAME").Eq("Widget"),
			map[string]any{"price": 1.5, "active": false},
		)
		if err != nil {
			t.Fatalf("UpdateRecordset failed: %v", err)
		}
		if n != 3 {
			t.Errorf("unexpected affected count: %d", n)
		}
		want := "UPDATE ITEMS SET ACTIVE = ?, PRICE = ? WHERE ITEMS.NAME = ?"
		if countMatching(fc.execs, want) != 1 {
			t.Errorf("unexpected statements: %v", fc.execs)
		}
		var args []any
		for i, q := range fc.execs {
			if q == want {
				args = fc.execArgs[i]
			}
		}
		if len(args) != 3 || args[0] != false || args[1] != 1.5 || args[2] != "Widget" {
			t.Errorf("unexpected args: %v", args)
		}
	})
}
