package handle

import (
	"errors"
	"testing"
)

type widget struct {
	name  string
	inner gadget
}

type gadget struct {
	size int
}

const (
	kindWidget Kind = 1
	kindGadget Kind = 2
	kindOther  Kind = 3
)

// expectViolation runs fn and returns the *Violation it panicked with.
func expectViolation(t *testing.T, want ViolationKind, fn func()) *Violation {
	t.Helper()
	var got *Violation
	func() {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			v, ok := r.(*Violation)
			if !ok {
				t.Fatalf("panic value = %#v, want *Violation", r)
			}
			got = v
		}()
		fn()
	}()
	if got == nil {
		t.Fatalf("expected %s violation, got none", want)
	}
	if got.Kind != want {
		t.Fatalf("violation kind = %s, want %s", got.Kind, want)
	}
	return got
}

func TestIDLayout(t *testing.T) {
	id := newID(kindGadget, 5, 9, true)
	if !id.IsBorrowed() {
		t.Error("borrow flag lost")
	}
	if id.Kind() != kindGadget {
		t.Errorf("Kind() = %d, want %d", id.Kind(), kindGadget)
	}
	if id.generation() != 5 || id.index() != 9 {
		t.Errorf("gen/index = %d/%d, want 5/9", id.generation(), id.index())
	}
	if Null.IsBorrowed() || !Null.IsNull() {
		t.Error("null handle misreported")
	}
	if nextGen(genMask) != firstGen {
		t.Error("generation must wrap past zero")
	}
}

func TestTableMakeGetDelete(t *testing.T) {
	tbl := NewTable[widget](kindWidget, "widget")
	w := &widget{name: "a"}
	h := tbl.Make(w)

	if h.IsNull() {
		t.Fatal("Make returned null handle")
	}
	if got := tbl.Get(h); got != w {
		t.Fatalf("Get() = %p, want %p", got, w)
	}
	if tbl.Live() != 1 {
		t.Errorf("Live() = %d, want 1", tbl.Live())
	}
	if got := tbl.Delete(h); got != w {
		t.Errorf("Delete() = %p, want %p", got, w)
	}
	if tbl.Live() != 0 {
		t.Errorf("Live() = %d after delete, want 0", tbl.Live())
	}
	if tbl.Valid(h) {
		t.Error("deleted handle still valid")
	}
}

func TestTableDeleteNullIsNoop(t *testing.T) {
	tbl := NewTable[widget](kindWidget, "widget")
	if got := tbl.Delete(Owned[widget]{}); got != nil {
		t.Errorf("Delete(null) = %v, want nil", got)
	}
	if got := tbl.Delete(tbl.Owned(Null)); got != nil {
		t.Errorf("Delete(adopted null) = %v, want nil", got)
	}
}

func TestTableViolations(t *testing.T) {
	var hooked []*Violation
	tbl := NewTable[widget](kindWidget, "widget", WithHook(func(v *Violation) {
		hooked = append(hooked, v)
	}))
	h := tbl.Make(&widget{})
	tbl.Delete(h)

	t.Run("double delete", func(t *testing.T) {
		expectViolation(t, ViolationStale, func() { tbl.Delete(h) })
	})
	t.Run("use after free", func(t *testing.T) {
		expectViolation(t, ViolationStale, func() { tbl.Get(h) })
	})
	t.Run("slot reuse keeps old handle stale", func(t *testing.T) {
		h2 := tbl.Make(&widget{name: "b"})
		if h2.ID() == h.ID() {
			t.Fatal("reused slot returned identical handle")
		}
		expectViolation(t, ViolationStale, func() { tbl.Get(h) })
		if tbl.Get(h2).name != "b" {
			t.Error("new handle does not resolve")
		}
	})
	t.Run("null", func(t *testing.T) {
		expectViolation(t, ViolationNull, func() { tbl.Get(Owned[widget]{}) })
	})
	t.Run("wrong kind", func(t *testing.T) {
		other := NewTable[widget](kindOther, "other")
		oh := other.Make(&widget{})
		expectViolation(t, ViolationWrongKind, func() { tbl.Get(tbl.Owned(oh.ID())) })
	})
	t.Run("borrowed as owned", func(t *testing.T) {
		expectViolation(t, ViolationBorrowed, func() { tbl.Owned(newID(kindWidget, 1, 0, true)) })
	})
	t.Run("unknown slot", func(t *testing.T) {
		expectViolation(t, ViolationStale, func() { tbl.Get(tbl.Owned(newID(kindWidget, 1, 999, false))) })
	})

	if len(hooked) == 0 {
		t.Error("hook never ran")
	}
}

func TestLenderLendAndRevoke(t *testing.T) {
	widgets := NewTable[widget](kindWidget, "widget")
	gadgets := NewLender[gadget](kindGadget, "gadget")

	w := &widget{inner: gadget{size: 3}}
	owner := widgets.Make(w)

	b := gadgets.Lend(owner.ID(), &w.inner)
	if !b.ID().IsBorrowed() {
		t.Fatal("lent handle must carry the borrow flag")
	}
	if again := gadgets.Lend(owner.ID(), &w.inner); again != b {
		t.Errorf("second Lend = %s, want %s", again.ID(), b.ID())
	}
	if gadgets.Get(b).size != 3 {
		t.Error("borrowed handle does not resolve to the embedded field")
	}
	if gadgets.Owner(b) != owner.ID() {
		t.Error("Owner() mismatch")
	}
	if gadgets.Live() != 1 {
		t.Errorf("Live() = %d, want 1", gadgets.Live())
	}

	if gadgets.Loan(owner.ID()) != b {
		t.Error("Loan() should return the outstanding handle")
	}
	revoked, ok := gadgets.Revoke(owner.ID())
	if !ok || revoked != b.ID() {
		t.Fatalf("Revoke() = %s, %t; want %s, true", revoked, ok, b.ID())
	}
	if _, ok := gadgets.Revoke(owner.ID()); ok {
		t.Error("second Revoke() = true, want false")
	}
	expectViolation(t, ViolationRevoked, func() { gadgets.Get(b) })
	if !gadgets.Loan(owner.ID()).IsNull() {
		t.Error("Loan() after revoke should be null")
	}

	fresh := gadgets.Lend(owner.ID(), &w.inner)
	if fresh == b {
		t.Error("lend after revoke must issue a new handle")
	}
}

func TestLenderViolations(t *testing.T) {
	gadgets := NewLender[gadget](kindGadget, "gadget")

	expectViolation(t, ViolationNull, func() { gadgets.Get(Borrowed[gadget]{}) })
	expectViolation(t, ViolationOwned, func() { gadgets.Borrowed(newID(kindGadget, 1, 0, false)) })
	expectViolation(t, ViolationWrongKind, func() { gadgets.Get(gadgets.Borrowed(newID(kindOther, 1, 0, true))) })
}

func TestResolveAndAdopt(t *testing.T) {
	tbl := NewTable[gadget](kindGadget, "gadget")
	lender := NewLender[gadget](kindGadget, "gadget")

	standalone := &gadget{size: 1}
	owned := tbl.Make(standalone)
	embedded := &widget{inner: gadget{size: 2}}
	borrowed := lender.Lend(newID(kindWidget, 1, 0, false), &embedded.inner)

	tests := []struct {
		name string
		id   ID
		want int
	}{
		{"owned", owned.ID(), 1},
		{"borrowed", borrowed.ID(), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Adopt(tbl, lender, tt.id)
			if got := Resolve(tbl, lender, h).size; got != tt.want {
				t.Errorf("Resolve() size = %d, want %d", got, tt.want)
			}
		})
	}

	expectViolation(t, ViolationBorrowed, func() { Resolve[gadget](tbl, nil, borrowed) })
}

func TestViolationIsError(t *testing.T) {
	var err error = &Violation{Kind: ViolationStale, Table: "widget", ID: newID(kindWidget, 2, 0, false)}
	var v *Violation
	if !errors.As(err, &v) || v.Kind != ViolationStale {
		t.Errorf("errors.As failed for %v", err)
	}
}
