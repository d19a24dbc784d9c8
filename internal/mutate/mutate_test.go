package mutate

import (
	"math/rand"
	"testing"

	"github.com/cairofuzz/cairofuzz/internal/felt"
	"github.com/cairofuzz/cairofuzz/pkg/slotval"
)

type fakeCorpus struct {
	vecs []slotval.Vector
}

func (f *fakeCorpus) Size() int { return len(f.vecs) }
func (f *fakeCorpus) Pick(rng *rand.Rand) slotval.Vector {
	return f.vecs[rng.Intn(len(f.vecs))]
}

func TestEmptyVectorUnchanged(t *testing.T) {
	e := New(nil)
	rng := rand.New(rand.NewSource(1))
	out := e.Mutate(rng, slotval.Vector{}, 4, nil)
	if len(out) != 0 {
		t.Fatalf("expected empty vector unchanged, got %v", out)
	}
}

func TestSizePreservation(t *testing.T) {
	types := []slotval.SlotType{slotval.U8, slotval.Bool, slotval.Felt, slotval.U32}
	e := New(types)
	rng := rand.New(rand.NewSource(42))
	input := slotval.ZeroVector(types)

	for i := 0; i < 1000; i++ {
		out := e.Mutate(rng, input, 4, nil)
		if len(out) != len(types) {
			t.Fatalf("iteration %d: output length %d, want %d", i, len(out), len(types))
		}
		input = out
	}
}

func TestTypePreservationAndFeltRange(t *testing.T) {
	types := []slotval.SlotType{slotval.U8, slotval.Bool, slotval.Felt, slotval.U32}
	e := New(types)
	rng := rand.New(rand.NewSource(7))
	input := slotval.ZeroVector(types)

	for i := 0; i < 20000; i++ {
		input = e.Mutate(rng, input, 4, nil)
		for slotIdx, slot := range input {
			if slot.Type != types[slotIdx] {
				t.Fatalf("iteration %d slot %d: type %s, want %s", i, slotIdx, slot.Type, types[slotIdx])
			}
			if slot.Type == slotval.Felt {
				if felt.Cmp(slot.F, felt.MaxValue()) > 0 {
					t.Fatalf("iteration %d: felt value %x exceeds field max", i, slot.F)
				}
			}
			if slot.Type == slotval.U8 && slot.U > 0xff {
				t.Fatalf("iteration %d: u8 slot overflowed: %d", i, slot.U)
			}
		}
	}
}

func TestSpliceOverwriteSkippedWhenCorpusEmpty(t *testing.T) {
	types := []slotval.SlotType{slotval.Felt}
	e := New(types)
	rng := rand.New(rand.NewSource(3))
	input := slotval.ZeroVector(types)

	// An empty (nil) corpus must never panic even across many passes that
	// could draw splice_overwrite.
	for i := 0; i < 500; i++ {
		input = e.Mutate(rng, input, 4, nil)
	}
}

func TestSpliceOverwriteDrawsFromCorpus(t *testing.T) {
	types := []slotval.SlotType{slotval.Felt}
	e := New(types)
	rng := rand.New(rand.NewSource(9))
	donor := slotval.Vector{slotval.FeltVal(felt.FromUint64(0xdeadbeef))}
	corpus := &fakeCorpus{vecs: []slotval.Vector{donor}}
	input := slotval.ZeroVector(types)

	for i := 0; i < 200; i++ {
		input = e.Mutate(rng, input, 4, corpus)
	}
	// No assertion on exact content; this just exercises the donor path
	// without panicking, which is the property under test.
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	types := []slotval.SlotType{slotval.U8, slotval.U16, slotval.U32, slotval.U64, slotval.U128, slotval.Bool, slotval.Felt}
	v := slotval.Vector{
		slotval.U8Val(0xab),
		slotval.U16Val(0x1234),
		slotval.U32Val(0xdeadbeef),
		slotval.U64Val(0x0102030405060708),
		slotval.U128Val(0x1111111111111111, 0x2222222222222222),
		slotval.BoolVal(true),
		slotval.FeltVal(felt.FromUint64(9999)),
	}
	buf := serialize(v)
	out := deserialize(buf, types)
	for i := range v {
		if out[i] != v[i] {
			t.Fatalf("slot %d round-trip mismatch: got %+v want %+v", i, out[i], v[i])
		}
	}
}
