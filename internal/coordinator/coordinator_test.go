package coordinator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cairofuzz/cairofuzz/internal/corpusfile"
	"github.com/cairofuzz/cairofuzz/internal/execadapter/demo"
	"github.com/cairofuzz/cairofuzz/pkg/slotval"
)

// TestAbortOnConstFindsCrash reproduces the single-crash scenario from a
// single-argument entrypoint that aborts on one tripwire value: one core,
// a fixed seed, and enough iterations that byte-level mutation is
// expected to land on the tripwire at least once. The tripwire is scaled
// to a one-byte slot rather than a full 32-byte felt so the search space
// stays tractable for a unit test. The test asserts only that the
// tripwire is hit, i.e. that at least one crash is recorded.
func TestAbortOnConstFindsCrash(t *testing.T) {
	a := demo.New()
	a.Register(&demo.Program{
		Name:   "abort_on_const",
		Params: []slotval.SlotType{slotval.U8},
		Instrs: []demo.Instr{{Op: demo.OpAbortIfEq, A: 0, Imm: 0x39}},
	})

	co, err := New(a, Options{
		Cores:      1,
		Seed:       1000,
		Iterations: 200000,
		Entrypoint: "abort_on_const",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := co.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	snap := co.Shared().StatsSnapshot()
	if snap.CrashesTotal == 0 {
		t.Fatalf("expected at least one crash with seed=1000 over %d iterations, stats=%+v", 200000, snap)
	}
}

// TestBranchEqReachesBothBranches reproduces the two-entry coverage
// scenario: an equal/unequal branch over two u8 slots should eventually
// produce exactly two distinct fingerprints.
func TestBranchEqReachesBothBranches(t *testing.T) {
	a := demo.New()
	a.Register(&demo.Program{
		Name:   "branch_eq",
		Params: []slotval.SlotType{slotval.U8, slotval.U8},
		Instrs: []demo.Instr{{Op: demo.OpBranchEq, A: 0, B: 1}},
	})

	co, err := New(a, Options{
		Cores:      1,
		Seed:       42,
		Iterations: 50000,
		Entrypoint: "branch_eq",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := co.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	snap := co.Shared().StatsSnapshot()
	if snap.CoverageSize != 2 {
		t.Fatalf("coverage size = %d, want 2 (eq + neq branches), stats=%+v", snap.CoverageSize, snap)
	}
}

// TestAlwaysSucceedSingleCoverageEntry reproduces the flat-coverage
// scenario: a program with only one reachable path should converge to
// exactly one coverage entry and one corpus entry regardless of how many
// distinct inputs are tried.
func TestAlwaysSucceedSingleCoverageEntry(t *testing.T) {
	a := demo.New()
	a.Register(&demo.Program{
		Name:   "always_succeed",
		Params: []slotval.SlotType{slotval.Felt},
		Instrs: []demo.Instr{{Op: demo.OpNop}},
	})

	co, err := New(a, Options{
		Cores:      1,
		Seed:       7,
		Iterations: 20000,
		Entrypoint: "always_succeed",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := co.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	snap := co.Shared().StatsSnapshot()
	if snap.CoverageSize != 1 {
		t.Fatalf("coverage size = %d, want 1", snap.CoverageSize)
	}
	if snap.CorpusSize != 1 {
		t.Fatalf("corpus size = %d, want 1", snap.CorpusSize)
	}
}

// TestCoresRunConcurrentlyWithoutRace exercises a multi-core session
// purely for shared-state safety; the coverage/corpus invariant must
// hold regardless of how many workers raced to update it.
func TestCoresRunConcurrentlyWithoutRace(t *testing.T) {
	a := demo.New()
	a.Register(&demo.Program{
		Name:   "three_branches",
		Params: []slotval.SlotType{slotval.U8, slotval.U8, slotval.U8},
		Instrs: []demo.Instr{
			{Op: demo.OpBranchEq, A: 0, B: 1},
			{Op: demo.OpBranchEq, A: 1, B: 2},
			{Op: demo.OpBranchEq, A: 0, B: 2},
		},
	})

	co, err := New(a, Options{
		Cores:      4,
		Seed:       123,
		Iterations: 10000,
		Entrypoint: "three_branches",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := co.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	snap := co.Shared().StatsSnapshot()
	if snap.CorpusSize < snap.CoverageSize {
		t.Fatalf("corpus size %d smaller than coverage size %d", snap.CorpusSize, snap.CoverageSize)
	}
	if snap.TotalExecutions == 0 {
		t.Fatal("expected nonzero total executions across 4 cores")
	}
}

// TestInitialCorpusSignatureMismatchIsRejected covers the fatal
// entrypoint-resolution-adjacent path: a seeded corpus entry whose
// signature doesn't match the entrypoint must fail fast in New, not
// surface as a panic mid-run.
func TestInitialCorpusSignatureMismatchIsRejected(t *testing.T) {
	a := demo.New()
	a.Register(&demo.Program{
		Name:   "sig",
		Params: []slotval.SlotType{slotval.U8, slotval.U8},
		Instrs: []demo.Instr{{Op: demo.OpNop}},
	})

	_, err := New(a, Options{
		Cores:         1,
		Entrypoint:    "sig",
		InitialCorpus: []slotval.Vector{{slotval.U8Val(1)}},
	})
	if err == nil {
		t.Fatal("expected an error for a mismatched initial corpus signature")
	}
}

// TestRunReplayMinimizeOverCrashSeedFile reproduces the crash-seed-file
// replay scenario: a crash seed file holding two distinct Abort messages
// and one OutOfGas message, loaded via corpusfile.LoadCrashes and replayed
// with minimize=true, must yield a minimized corpus of exactly 3 inputs —
// one per distinct crash fingerprint.
func TestRunReplayMinimizeOverCrashSeedFile(t *testing.T) {
	a := demo.New()
	a.Register(&demo.Program{
		Name:    "crash_seeds",
		Params:  []slotval.SlotType{slotval.U8, slotval.U8},
		StepCap: 2,
		Instrs: []demo.Instr{
			{Op: demo.OpAbortIfEq, A: 0, Imm: 5},
			{Op: demo.OpAbortIfEq, A: 1, Imm: 9},
			{Op: demo.OpLoop, Imm: 100},
		},
	})

	co, err := New(a, Options{Cores: 1, Entrypoint: "crash_seeds"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	path := filepath.Join(t.TempDir(), "crashes.json")
	seedFile := `{"crashes": [
		{"input": [{"type":"u8","value":5}, {"type":"u8","value":0}], "kind":"Abort", "message":"slot 0 == 5"},
		{"input": [{"type":"u8","value":1}, {"type":"u8","value":9}], "kind":"Abort", "message":"slot 1 == 9"},
		{"input": [{"type":"u8","value":0}, {"type":"u8","value":0}], "kind":"OutOfGas", "message":"step cap exceeded"}
	]}`
	if err := os.WriteFile(path, []byte(seedFile), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	seeds, err := corpusfile.LoadCrashes(path, a.ParameterTypes(co.Handle()))
	if err != nil {
		t.Fatalf("LoadCrashes: %v", err)
	}
	if len(seeds) != 3 {
		t.Fatalf("loaded %d crash seeds, want 3", len(seeds))
	}

	inputs := make([]slotval.Vector, len(seeds))
	for i, s := range seeds {
		inputs[i] = s.Vector
	}

	minimized, err := co.RunReplay(inputs, true)
	if err != nil {
		t.Fatalf("RunReplay: %v", err)
	}
	if len(minimized) != 3 {
		t.Fatalf("minimized corpus size = %d, want 3", len(minimized))
	}

	snap := co.Shared().StatsSnapshot()
	if snap.UniqueCrashes != 3 {
		t.Fatalf("unique crashes = %d, want 3", snap.UniqueCrashes)
	}
}

// TestUnknownEntrypointIsFatal covers the resolution-failure path.
func TestUnknownEntrypointIsFatal(t *testing.T) {
	a := demo.New()
	_, err := New(a, Options{Cores: 1, Entrypoint: "does_not_exist"})
	if err == nil {
		t.Fatal("expected an error resolving an unregistered entrypoint")
	}
}
