package corpusfile

import (
	"path/filepath"
	"testing"

	"github.com/cairofuzz/cairofuzz/internal/trace"
	"github.com/cairofuzz/cairofuzz/pkg/slotval"
)

func TestWriterRecordInputRoundTripsThroughLoadCorpus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.json")
	w := NewWriter(path, "")
	types := []slotval.SlotType{slotval.U8, slotval.Felt}

	inputs := []slotval.Vector{
		{slotval.U8Val(1), slotval.FeltVal([32]byte{0x53, 0x9})},
		{slotval.U8Val(2), slotval.FeltVal([32]byte{})},
	}
	for _, v := range inputs {
		if err := w.RecordInput(v); err != nil {
			t.Fatalf("RecordInput: %v", err)
		}
	}

	loaded, err := LoadCorpus(path, types)
	if err != nil {
		t.Fatalf("LoadCorpus: %v", err)
	}
	if len(loaded) != len(inputs) {
		t.Fatalf("loaded %d inputs, want %d", len(loaded), len(inputs))
	}
	for i, v := range loaded {
		if !v.SameSignature(types) {
			t.Fatalf("input %d: signature mismatch", i)
		}
	}
}

func TestWriterRecordCrashRoundTripsThroughLoadCrashes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crashes.json")
	w := NewWriter("", path)
	types := []slotval.SlotType{slotval.U8, slotval.U8}

	if err := w.RecordCrash(slotval.Vector{slotval.U8Val(5), slotval.U8Val(0)}, trace.Abort, "slot 0 == 5"); err != nil {
		t.Fatalf("RecordCrash: %v", err)
	}
	if err := w.RecordCrash(slotval.Vector{slotval.U8Val(0), slotval.U8Val(0)}, trace.OutOfGas, "step cap exceeded"); err != nil {
		t.Fatalf("RecordCrash: %v", err)
	}

	loaded, err := LoadCrashes(path, types)
	if err != nil {
		t.Fatalf("LoadCrashes: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("loaded %d crashes, want 2", len(loaded))
	}
	if loaded[0].Kind != trace.Abort || loaded[0].Msg != "slot 0 == 5" {
		t.Fatalf("crash 0 = %+v, want Abort/slot 0 == 5", loaded[0])
	}
	if loaded[1].Kind != trace.OutOfGas || loaded[1].Msg != "step cap exceeded" {
		t.Fatalf("crash 1 = %+v, want OutOfGas/step cap exceeded", loaded[1])
	}
}

func TestWriterWithEmptyPathIsANoOp(t *testing.T) {
	w := NewWriter("", "")
	if err := w.RecordInput(slotval.Vector{slotval.U8Val(1)}); err != nil {
		t.Fatalf("RecordInput with empty corpus path should be a no-op, got %v", err)
	}
	if err := w.RecordCrash(slotval.Vector{slotval.U8Val(1)}, trace.Abort, "x"); err != nil {
		t.Fatalf("RecordCrash with empty crash path should be a no-op, got %v", err)
	}
}
