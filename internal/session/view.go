package session

import (
	"math/rand"

	"github.com/cairofuzz/cairofuzz/pkg/slotval"
)

// View is a worker's local, read-mostly snapshot of the shared corpus and
// coverage/crash key sets. It is refreshed wholesale whenever the worker
// observes the shared corpus has grown since its last refresh; between
// refreshes it is read without contending on SharedState's lock.
type View struct {
	corpus   []*InputRecord
	coverage map[[32]byte]struct{}
	crashes  map[string]struct{}
}

// Empty returns a zero-value view, used before a worker's first refresh.
func Empty() *View {
	return &View{coverage: map[[32]byte]struct{}{}, crashes: map[string]struct{}{}}
}

// Size reports the local corpus cardinality; satisfies mutate.CorpusView.
func (v *View) Size() int {
	return len(v.corpus)
}

// Pick draws a uniformly random input vector from the local corpus view.
// Satisfies mutate.CorpusView; callers (the mutation engine) only invoke
// this when Size() > 0.
func (v *View) Pick(rng *rand.Rand) slotval.Vector {
	rec := v.corpus[rng.Intn(len(v.corpus))]
	return rec.Vector.Clone()
}

// PickSeed draws a uniformly random input record for the worker's seed
// selection step, distinct from Pick because the worker wants the record
// (for its hash) rather than a bare vector.
func (v *View) PickSeed(rng *rand.Rand) *InputRecord {
	if len(v.corpus) == 0 {
		return nil
	}
	return v.corpus[rng.Intn(len(v.corpus))]
}

// HasFingerprintKey reports whether a fingerprint key is present in the
// local coverage view.
func (v *View) HasFingerprintKey(key [32]byte) bool {
	_, ok := v.coverage[key]
	return ok
}

// HasCrashKey reports whether a crash key is present in the local crash
// view.
func (v *View) HasCrashKey(key string) bool {
	_, ok := v.crashes[key]
	return ok
}

// GrewSince reports whether shared's corpus is larger than this view's,
// the refresh-on-growth trigger of the concurrency model.
func (v *View) GrewSince(sharedCorpusSize int) bool {
	return sharedCorpusSize > len(v.corpus)
}
