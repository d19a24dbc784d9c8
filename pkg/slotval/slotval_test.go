package slotval

import "testing"

func TestWidths(t *testing.T) {
	cases := []struct {
		t SlotType
		w int
	}{
		{U8, 1}, {U16, 2}, {U32, 4}, {U64, 8}, {U128, 16}, {Bool, 1}, {Felt, 32},
	}
	for _, c := range cases {
		if got := c.t.Width(); got != c.w {
			t.Errorf("%s.Width() = %d, want %d", c.t, got, c.w)
		}
	}
}

func TestZeroVector(t *testing.T) {
	types := []SlotType{U8, Bool, Felt, U32}
	v := ZeroVector(types)
	if !v.SameSignature(types) {
		t.Fatal("zero vector signature mismatch")
	}
	for i, slot := range v {
		if slot.Type != types[i] {
			t.Errorf("slot %d type mismatch", i)
		}
		if slot.U != 0 || slot.Hi != 0 || slot.B != false || slot.F != [32]byte{} {
			t.Errorf("slot %d not zero: %+v", i, slot)
		}
	}
}

func TestSameSignature(t *testing.T) {
	v := Vector{U8Val(1), BoolVal(true)}
	if !v.SameSignature([]SlotType{U8, Bool}) {
		t.Fatal("expected matching signature")
	}
	if v.SameSignature([]SlotType{U8, U8}) {
		t.Fatal("expected signature mismatch")
	}
	if v.SameSignature([]SlotType{U8}) {
		t.Fatal("expected arity mismatch")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	v := Vector{U8Val(1)}
	clone := v.Clone()
	clone[0] = U8Val(2)
	if v[0].U == clone[0].U {
		t.Fatal("clone should not alias the original")
	}
}

func TestU128Val(t *testing.T) {
	v := U128Val(5, 7)
	if v.U != 5 || v.Hi != 7 || v.Type != U128 {
		t.Fatalf("unexpected u128 value: %+v", v)
	}
}
