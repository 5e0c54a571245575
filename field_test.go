package tablekit

import (
	"errors"
	"testing"
)

func TestFieldSet(t *testing.T) {
	t.Run("StringKind", func(t *testing.T) {
		f := NewField("NAME", KindString, "plaintxt", 10)
		if err := f.Set("hello"); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		if f.Get() != "hello" {
			t.Errorf("unexpected value: %v", f.Get())
		}
		if err := f.Set(42); !errors.Is(err, ErrValidation) {
			t.Errorf("expected ErrValidation for wrong type, got %v", err)
		}
	})

	t.Run("NumberKind", func(t *testing.T) {
		f := NewField("QTY", KindNumber, "onlyNumbers", 0)
		if err := f.Set(7); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		if err := f.Set(int64(9)); err != nil {
			t.Fatalf("Set int64 failed: %v", err)
		}
		if err := f.Set(1.5); !errors.Is(err, ErrValidation) {
			t.Errorf("expected ErrValidation for float, got %v", err)
		}
	})

	t.Run("FloatAcceptsIntegers", func(t *testing.T) {
		f := NewField("PRICE", KindFloat, "any", 0)
		if err := f.Set(3); err != nil {
			t.Errorf("integer into float field failed: %v", err)
		}
		if err := f.Set(3.25); err != nil {
			t.Errorf("float failed: %v", err)
		}
	})

	t.Run("BoolKind", func(t *testing.T) {
		f := NewField("ACTIVE", KindBool, "", 0)
		if err := f.Set(true); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		if err := f.Set("yes"); !errors.Is(err, ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("NilAndEmptyPassThrough", func(t *testing.T) {
		f := NewField("NAME", KindString, "email", 5)
		if err := f.Set(nil); err != nil {
			t.Errorf("nil must pass: %v", err)
		}
		if err := f.Set(""); err != nil {
			t.Errorf("empty string must pass: %v", err)
		}
	})

	t.Run("PatternMismatch", func(t *testing.T) {
		f := NewField("MAIL", KindString, "email", 0)
		if err := f.Set("not-an-email"); !errors.Is(err, ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
		if err := f.Set("a@b.com"); err != nil {
			t.Errorf("valid email rejected: %v", err)
		}
	})

	t.Run("LengthLimit", func(t *testing.T) {
		f := NewField("CODE", KindString, "plaintxt", 3)
		if err := f.Set("abcd"); !errors.Is(err, ErrValidation) {
			t.Errorf("expected ErrValidation for overlong value, got %v", err)
		}
		if err := f.Set("abc"); err != nil {
			t.Errorf("value at limit rejected: %v", err)
		}
	})
}

func TestFieldValid(t *testing.T) {
	f := NewField("QTY", KindNumber, "onlyNumbers", 0)
	if !f.Valid(5) {
		t.Error("5 should be valid")
	}
	if f.Valid("five") {
		t.Error("string should not be valid for a number field")
	}
	if f.Get() != nil {
		t.Error("Valid must not store the value")
	}
}

func TestFieldChanged(t *testing.T) {
	f := NewField("QTY", KindNumber, "onlyNumbers", 0)
	f.load(int64(5))
	if f.Changed() {
		t.Error("freshly loaded field must not report changed")
	}
	if err := f.Set(5); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if f.Changed() {
		t.Error("int 5 equals loaded int64 5")
	}
	if err := f.Set(6); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if !f.Changed() {
		t.Error("changed value not detected")
	}
}

func TestEnumFieldValues(t *testing.T) {
	status := NewEnum("Status",
		Member{Key: "OPEN", Value: 1, Label: "Open"},
		Member{Key: "CLOSED", Value: 2, Label: "Closed"},
	)
	f := status.Field("STATUS")

	if err := f.Set("OPEN"); err != nil {
		t.Fatalf("Set by key failed: %v", err)
	}
	if err := f.Set(2); err != nil {
		t.Fatalf("Set by value failed: %v", err)
	}
	if f.Label() != "Closed" {
		t.Errorf("unexpected label: %s", f.Label())
	}
	if err := f.Set("MISSING"); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for unknown member, got %v", err)
	}
}
