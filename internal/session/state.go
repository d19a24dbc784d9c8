// Package session owns the shared corpus, coverage, and crash state that
// every worker contends on, plus the statistics the coordinator reports
// once a second. A single sync.Mutex (see SharedState) guards the Corpus Store, Coverage Map, Crash Store, and
// the executions/crashes/seconds-since-coverage counters together, per the
// concurrency discipline of the scheduler.
package session

import (
	"sync"
	"time"

	"github.com/cairofuzz/cairofuzz/internal/trace"
	"github.com/cairofuzz/cairofuzz/pkg/slotval"
)

// InputRecord is an immutable, content-deduplicated argument vector. Once
// constructed it is shared by reference between the corpus, any coverage
// or crash entry pointing to it, and every worker's local view.
type InputRecord struct {
	Vector slotval.Vector
	Hash   string
}

// CrashRecord pairs the first input observed to trigger an error
// fingerprint with how many times that fingerprint has recurred.
type CrashRecord struct {
	Input *InputRecord
	Kind  trace.ErrorKind
	Msg   string
	Count int64
}

// SharedState is the Coordinator-owned, worker-contended state: the corpus,
// the coverage map, the crash store, and the batched counters, all behind
// one lock. Workers never hold this lock across an execution-adapter call.
type SharedState struct {
	mu sync.Mutex

	corpusOrder []*InputRecord
	corpusIndex map[string]*InputRecord

	coverage map[[32]byte]*InputRecord

	crashes map[string]*CrashRecord

	startedAt        time.Time
	totalExecutions  int64
	totalCrashes     int64
	lastCoverageTick time.Time
}

// New constructs an empty SharedState with its clock started.
func New() *SharedState {
	return &SharedState{
		corpusIndex:      make(map[string]*InputRecord),
		coverage:         make(map[[32]byte]*InputRecord),
		crashes:          make(map[string]*CrashRecord),
		startedAt:        time.Now(),
		lastCoverageTick: time.Now(),
	}
}

// SeedCorpus preloads input records at session start (from an external
// corpus-seed-file loader); it bypasses novelty checks since these are
// seeds, not discoveries.
func (s *SharedState) SeedCorpus(vectors []slotval.Vector, hashFn func(slotval.Vector) string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range vectors {
		h := hashFn(v)
		if _, ok := s.corpusIndex[h]; ok {
			continue
		}
		rec := &InputRecord{Vector: v, Hash: h}
		s.corpusIndex[h] = rec
		s.corpusOrder = append(s.corpusOrder, rec)
	}
}

// SeedCrashes preloads previously-recorded crash fingerprints at session
// start so duplicate alerts are suppressed across sessions.
func (s *SharedState) SeedCrashes(entries []SeedCrash, hashFn func(slotval.Vector) string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		key := crashKey(e.Kind, e.Msg)
		if _, ok := s.crashes[key]; ok {
			continue
		}
		h := hashFn(e.Vector)
		rec, ok := s.corpusIndex[h]
		if !ok {
			rec = &InputRecord{Vector: e.Vector, Hash: h}
		}
		s.crashes[key] = &CrashRecord{Input: rec, Kind: e.Kind, Msg: e.Msg, Count: 1}
	}
}

// SeedCrash is one record from an external crash-seed-file loader.
type SeedCrash struct {
	Vector slotval.Vector
	Kind   trace.ErrorKind
	Msg    string
}

func crashKey(kind trace.ErrorKind, msg string) string {
	return trace.ErrorFingerprint{Kind: kind, Message: msg}.Key()
}

// TryInsertCoverage attempts first-writer-wins insertion of fp → input.
// It returns true iff fp was new. On success, input is also promoted into
// the Corpus Store if it wasn't already present, and the
// seconds-since-last-coverage counter is reset. Callers must already hold
// no other lock; TryInsertCoverage takes SharedState's lock itself.
func (s *SharedState) TryInsertCoverage(fp trace.Fingerprint, v slotval.Vector, hash string) (promoted bool, isNewCoverage bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := fp.Key()
	rec, exists := s.corpusIndex[hash]
	if !exists {
		rec = &InputRecord{Vector: v, Hash: hash}
	}

	if _, ok := s.coverage[key]; ok {
		return false, false
	}

	if !exists {
		s.corpusIndex[hash] = rec
		s.corpusOrder = append(s.corpusOrder, rec)
		promoted = true
	}
	s.coverage[key] = rec
	s.lastCoverageTick = time.Now()
	return promoted, true
}

// RecordCrash always promotes the failing input into the Corpus Store
// (failing inputs are still interesting seeds) and updates the Crash
// Store: a new error fingerprint is stored with count 1 and reports
// firstSeen=true for the worker's one-shot diagnostic; a known fingerprint
// only has its count incremented.
func (s *SharedState) RecordCrash(kind trace.ErrorKind, msg string, v slotval.Vector, hash string) (firstSeen bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.corpusIndex[hash]
	if !exists {
		rec = &InputRecord{Vector: v, Hash: hash}
		s.corpusIndex[hash] = rec
		s.corpusOrder = append(s.corpusOrder, rec)
	}

	key := crashKey(kind, msg)
	if existing, ok := s.crashes[key]; ok {
		existing.Count++
		return false
	}
	s.crashes[key] = &CrashRecord{Input: rec, Kind: kind, Msg: msg, Count: 1}
	s.totalCrashes++
	return true
}

// AddExecutions merges a worker's batched local execution count into the
// shared counter. Called every N iterations (N=1000 by default) rather
// than once per execution, bounding lock acquisition to O(1/N).
func (s *SharedState) AddExecutions(n int64) {
	s.mu.Lock()
	s.totalExecutions += n
	s.mu.Unlock()
}

// CorpusSize returns the current corpus cardinality under the lock.
func (s *SharedState) CorpusSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.corpusOrder)
}

// CoverageSize returns the current coverage-map cardinality under the lock.
func (s *SharedState) CoverageSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.coverage)
}

// Snapshot copies a View of the corpus for a worker's local-view refresh.
// The copy is shallow (InputRecord pointers, not deep vector clones) since
// records are immutable after creation.
func (s *SharedState) Snapshot() *View {
	s.mu.Lock()
	defer s.mu.Unlock()
	order := make([]*InputRecord, len(s.corpusOrder))
	copy(order, s.corpusOrder)
	cov := make(map[[32]byte]struct{}, len(s.coverage))
	for k := range s.coverage {
		cov[k] = struct{}{}
	}
	crash := make(map[string]struct{}, len(s.crashes))
	for k := range s.crashes {
		crash[k] = struct{}{}
	}
	return &View{corpus: order, coverage: cov, crashes: crash}
}

// StatsSnapshot computes an atomic-enough view of the session's running
// statistics, per the reported-statistics-snapshot contract.
func (s *SharedState) StatsSnapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	uptime := time.Since(s.startedAt).Seconds()
	var eps float64
	if uptime > 0 {
		eps = float64(s.totalExecutions) / uptime
	}
	return StatsSnapshot{
		UptimeSeconds:        uptime,
		TotalExecutions:      s.totalExecutions,
		ExecutionsPerSecond:  eps,
		CoverageSize:         len(s.coverage),
		CorpusSize:           len(s.corpusOrder),
		CrashesTotal:         s.totalCrashes,
		UniqueCrashes:        len(s.crashes),
		SecondsSinceCoverage: time.Since(s.lastCoverageTick).Seconds(),
	}
}

// StatsSnapshot is the reported-statistics-snapshot contract of spec §6.
type StatsSnapshot struct {
	UptimeSeconds        float64
	TotalExecutions      int64
	ExecutionsPerSecond  float64
	CoverageSize         int
	CorpusSize           int
	CrashesTotal         int64
	UniqueCrashes        int
	SecondsSinceCoverage float64
}
