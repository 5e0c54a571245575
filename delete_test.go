package tablekit

import (
	"errors"
	"testing"
)

func TestDelete(t *testing.T) {
	t.Run("DeletesByKeyAndClears", func(t *testing.T) {
		fc := &fakeConn{stubs: []stub{
			itemsCatalog(),
			{match: "FROM ITEMS AS ITEMS", rows: itemRow()},
		}}
		items := loadedItems(t, fc)

		if err := items.Delete(); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}

		want := "DELETE FROM ITEMS WHERE RECID = ?"
		if countMatching(fc.execs, want) != 1 {
			t.Errorf("unexpected statements: %v", fc.execs)
		}
		var args []any
		for i, q := range fc.execs {
			if q == want {
				args = fc.execArgs[i]
			}
		}
		if len(args) != 1 || args[0] != int64(5) {
			t.Errorf("unexpected args: %v", args)
		}
		if items.Total() != 0 || items.Current() != nil || items.F("NAME").Get() != nil {
			t.Error("entity must be cleared after delete")
		}
	})

	t.Run("MissingKey", func(t *testing.T) {
		fc := &fakeConn{stubs: []stub{itemsCatalog()}}
		items := newItems(fc)
		if err := items.Delete(); !errors.Is(err, ErrMissingKey) {
			t.Errorf("expected ErrMissingKey, got %v", err)
		}
	})

	t.Run("RowGone", func(t *testing.T) {
		fc := &fakeConn{stubs: []stub{itemsCatalog()}}
		items := newItems(fc)
		_ = items.F("RECID").Set(99)
		if err := items.Delete(); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if countMatching(fc.execs, "DELETE FROM") != 0 {
			t.Error("no delete may run for a missing row")
		}
	})
}

func TestDeleteFrom(t *testing.T) {
	t.Run("RequiresWhere", func(t *testing.T) {
		fc := &fakeConn{stubs: []stub{itemsCatalog()}}
		items := newItems(fc)
		_, err := items.DeleteFrom(nil)
		if !errors.Is(err, ErrUnboundedMutation) {
			t.Fatalf("expected ErrUnboundedMutation, got %v", err)
		}
		if len(fc.execs) != 0 {
			t.Errorf("nothing may reach the backend: %v", fc.execs)
		}
	})

	t.Run("DeletesMatching", func(t *testing.T) {
		fc := &fakeConn{stubs: []stub{itemsCatalog()}, affected: 4}
		items := newItems(fc)

		n, err := items.DeleteFrom(items.F("ACTIVE").Eq(false))
		if err != nil {
			t.Fatalf("DeleteFrom failed: %v", err)
		}
		if n != 4 {
			t.Errorf("unexpected affected count: %d", n)
		}
		want := "DELETE FROM ITEMS WHERE ITEMS.ACTIVE = ?"
		if countMatching(fc.execs, want) != 1 {
			t.Errorf("unexpected statements: %v", fc.execs)
		}
	})
}
