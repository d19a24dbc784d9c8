package session

import (
	"testing"

	"github.com/cairofuzz/cairofuzz/internal/trace"
	"github.com/cairofuzz/cairofuzz/pkg/slotval"
)

func vec(u uint64) slotval.Vector {
	return slotval.Vector{slotval.U64Val(u)}
}

func fp(pc uint64) trace.Fingerprint {
	return trace.Fingerprint{{PC: pc, FP: 0}}
}

func TestTryInsertCoverageFirstWriterWins(t *testing.T) {
	s := New()
	v1, v2 := vec(1), vec(2)
	f := fp(100)

	promoted, isNew := s.TryInsertCoverage(f, v1, ContentHash(v1))
	if !promoted || !isNew {
		t.Fatalf("first insert should be promoted+new, got promoted=%v isNew=%v", promoted, isNew)
	}

	promoted, isNew = s.TryInsertCoverage(f, v2, ContentHash(v2))
	if promoted || isNew {
		t.Fatalf("second insert of same fingerprint should not win, got promoted=%v isNew=%v", promoted, isNew)
	}

	if s.CorpusSize() != 1 {
		t.Fatalf("corpus size = %d, want 1 (only the first-writer input promoted)", s.CorpusSize())
	}
	if s.CoverageSize() != 1 {
		t.Fatalf("coverage size = %d, want 1", s.CoverageSize())
	}
}

func TestCorpusSupersetOfCoverage(t *testing.T) {
	s := New()
	for i := uint64(0); i < 20; i++ {
		v := vec(i)
		s.TryInsertCoverage(fp(i), v, ContentHash(v))
	}
	if s.CorpusSize() < s.CoverageSize() {
		t.Fatalf("corpus size %d smaller than coverage size %d", s.CorpusSize(), s.CoverageSize())
	}
	// Also promote via RecordCrash, which must not shrink the invariant.
	v := vec(999)
	s.RecordCrash(trace.Abort, "boom", v, ContentHash(v))
	if s.CorpusSize() < s.CoverageSize() {
		t.Fatalf("after crash, corpus size %d smaller than coverage size %d", s.CorpusSize(), s.CoverageSize())
	}
}

func TestRecordCrashDedup(t *testing.T) {
	s := New()
	v1 := vec(1)
	firstSeen := s.RecordCrash(trace.Abort, "divide by zero", v1, ContentHash(v1))
	if !firstSeen {
		t.Fatal("first crash of a fingerprint should report firstSeen=true")
	}

	v2 := vec(2)
	firstSeen = s.RecordCrash(trace.Abort, "divide by zero", v2, ContentHash(v2))
	if firstSeen {
		t.Fatal("repeat crash of the same fingerprint should report firstSeen=false")
	}

	snap := s.StatsSnapshot()
	if snap.UniqueCrashes != 1 {
		t.Fatalf("unique crashes = %d, want 1", snap.UniqueCrashes)
	}
	if snap.CrashesTotal != 1 {
		t.Fatalf("crashes total = %d, want 1 (only counted on first-seen)", snap.CrashesTotal)
	}
	// Both crashing inputs get promoted into the corpus even though only
	// one counts as a unique crash.
	if s.CorpusSize() != 2 {
		t.Fatalf("corpus size = %d, want 2", s.CorpusSize())
	}
}

func TestRecordCrashDistinctMessagesAreDistinctBuckets(t *testing.T) {
	s := New()
	v := vec(1)
	s.RecordCrash(trace.Abort, "message A", v, ContentHash(v))
	s.RecordCrash(trace.Abort, "message B", v, ContentHash(v))
	snap := s.StatsSnapshot()
	if snap.UniqueCrashes != 2 {
		t.Fatalf("unique crashes = %d, want 2 for distinct messages", snap.UniqueCrashes)
	}
}

func TestContentHashStableAndSensitive(t *testing.T) {
	a := slotval.Vector{slotval.U8Val(1), slotval.BoolVal(true)}
	b := slotval.Vector{slotval.U8Val(1), slotval.BoolVal(true)}
	c := slotval.Vector{slotval.U8Val(2), slotval.BoolVal(true)}

	if ContentHash(a) != ContentHash(b) {
		t.Fatal("identical vectors must hash identically")
	}
	if ContentHash(a) == ContentHash(c) {
		t.Fatal("differing vectors must not collide")
	}
}

func TestSnapshotViewGrowth(t *testing.T) {
	s := New()
	v1 := vec(1)
	s.TryInsertCoverage(fp(1), v1, ContentHash(v1))

	view := s.Snapshot()
	if view.Size() != 1 {
		t.Fatalf("view size = %d, want 1", view.Size())
	}
	if view.GrewSince(s.CorpusSize()) {
		t.Fatal("view should not report growth against its own snapshot size")
	}

	v2 := vec(2)
	s.TryInsertCoverage(fp(2), v2, ContentHash(v2))
	if !view.GrewSince(s.CorpusSize()) {
		t.Fatal("view should report growth once the shared corpus has grown")
	}
}

func TestSeedCorpusDedupesByHash(t *testing.T) {
	s := New()
	v := vec(42)
	s.SeedCorpus([]slotval.Vector{v, v.Clone()}, ContentHash)
	if s.CorpusSize() != 1 {
		t.Fatalf("corpus size = %d, want 1 after seeding duplicate vectors", s.CorpusSize())
	}
}

func TestSeedCrashesSuppressDuplicateAlerts(t *testing.T) {
	s := New()
	v := vec(7)
	s.SeedCrashes([]SeedCrash{{Vector: v, Kind: trace.OutOfGas, Msg: "step limit"}}, ContentHash)

	firstSeen := s.RecordCrash(trace.OutOfGas, "step limit", v, ContentHash(v))
	if firstSeen {
		t.Fatal("a crash already present from seeding should not report firstSeen=true again")
	}
}
