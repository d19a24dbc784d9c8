// Package worker implements one concurrent fuzzing loop: seed selection,
// mutation, execution, classification, and promotion of novel inputs into
// the shared session state. Workers run as persistent goroutines, one per
// configured core (see internal/coordinator), not as short-lived
// cooperative tasks — there are no suspension points within Run's hot path
// besides the shared-state lock and the execution-adapter call itself.
package worker

import (
	"context"
	"fmt"
	"math/rand"
	"sync/atomic"

	"golang.org/x/time/rate"

	"github.com/cairofuzz/cairofuzz/internal/execadapter"
	"github.com/cairofuzz/cairofuzz/internal/mutate"
	"github.com/cairofuzz/cairofuzz/internal/session"
	"github.com/cairofuzz/cairofuzz/internal/trace"
	"github.com/cairofuzz/cairofuzz/pkg/slotval"
)

// batchWindow is the fixed counter-batching window: every N iterations the
// worker flushes its local execution count into the shared counter under
// the shared lock, bounding lock acquisition to O(1/N) of the hot path.
const batchWindow = 1000

// Notifier receives operator-facing events a worker observes: a crash seen
// for the first time, a new input promoted into the corpus by novel
// coverage, or a fatal condition that terminates the worker. cmd/cairofuzz's
// CLI and internal/report both implement this to surface the same events
// through different channels.
type Notifier interface {
	CrashFirstSeen(workerID int, kind trace.ErrorKind, msg string, input slotval.Vector)
	CoveragePromoted(workerID int, input slotval.Vector)
	Fatal(workerID int, err error)
}

// Worker is one fuzzing loop bound to a resolved entrypoint.
type Worker struct {
	ID      int
	rng     *rand.Rand
	engine  *mutate.Engine
	adapter execadapter.Adapter
	handle  execadapter.EntrypointHandle
	types   []slotval.SlotType
	arity   int

	shared *session.SharedState
	view   *session.View

	localExecs int64
	stop       *atomic.Bool
	notifier   Notifier

	limiter *rate.Limiter // nil means unthrottled
}

// Config holds everything New needs to build a worker bound to one session.
type Config struct {
	ID       int
	Seed     int64 // session seed; the worker's PRNG uses Seed XOR ID
	Adapter  execadapter.Adapter
	Handle   execadapter.EntrypointHandle
	Shared   *session.SharedState
	Stop     *atomic.Bool
	Notifier Notifier
	MaxRate  float64 // executions/sec, 0 = unthrottled
}

// New builds a worker ready to Run against shared session state.
func New(cfg Config) *Worker {
	types := cfg.Adapter.ParameterTypes(cfg.Handle)
	w := &Worker{
		ID:       cfg.ID,
		rng:      rand.New(rand.NewSource(cfg.Seed ^ int64(cfg.ID))),
		engine:   mutate.New(types),
		adapter:  cfg.Adapter,
		handle:   cfg.Handle,
		types:    types,
		arity:    cfg.Adapter.Arity(cfg.Handle),
		shared:   cfg.Shared,
		view:     session.Empty(),
		stop:     cfg.Stop,
		notifier: cfg.Notifier,
	}
	if cfg.MaxRate > 0 {
		w.limiter = rate.NewLimiter(rate.Limit(cfg.MaxRate), 1)
	}
	return w
}

// Run executes the per-iteration algorithm until the shared stop flag is
// observed. It returns only when told to stop (cooperative cancellation,
// checked once per iteration) or when a fatal condition forces an early
// exit.
func (w *Worker) Run() {
	for {
		if w.stop.Load() {
			w.flushCounter()
			return
		}
		if w.limiter != nil {
			_ = w.limiter.Wait(context.Background())
		}
		if err := w.step(); err != nil {
			w.flushCounter()
			if w.notifier != nil {
				w.notifier.Fatal(w.ID, err)
			}
			return
		}
	}
}

// step performs one seed → mutate → execute → classify iteration.
func (w *Worker) step() error {
	seed := w.selectSeed()

	input := w.engine.Mutate(w.rng, seed, 4, w.view)

	if len(input) != w.arity {
		return fmt.Errorf("worker %d: mutator produced arity %d, want %d", w.ID, len(input), w.arity)
	}

	fp, execErr := w.adapter.Execute(w.handle, input)
	w.localExecs++

	if execErr != nil {
		w.classifyFailure(execErr, input)
	} else {
		w.classifySuccess(fp, input)
	}

	if w.localExecs >= batchWindow {
		w.flushCounter()
	}
	return nil
}

// selectSeed picks a uniformly random input from the worker's local
// corpus view, or a zero-initialized vector of the entrypoint's type
// signature if the view is still empty.
func (w *Worker) selectSeed() slotval.Vector {
	if rec := w.view.PickSeed(w.rng); rec != nil {
		return rec.Vector.Clone()
	}
	return slotval.ZeroVector(w.types)
}

func (w *Worker) classifySuccess(fp trace.Fingerprint, input slotval.Vector) {
	key := fp.Key()
	if w.view.HasFingerprintKey(key) {
		return
	}

	hash := session.ContentHash(input)
	_, isNew := w.shared.TryInsertCoverage(fp, input, hash)
	if isNew {
		w.refreshView()
		if w.notifier != nil {
			w.notifier.CoveragePromoted(w.ID, input)
		}
	}
}

func (w *Worker) classifyFailure(execErr *execadapter.ExecError, input slotval.Vector) {
	hash := session.ContentHash(input)
	firstSeen := w.shared.RecordCrash(execErr.Kind, execErr.Message, input, hash)
	if w.view.GrewSince(w.shared.CorpusSize()) {
		w.refreshView()
	}
	if firstSeen && w.notifier != nil {
		w.notifier.CrashFirstSeen(w.ID, execErr.Kind, execErr.Message, input)
	}
}

// refreshView reclones the worker's local corpus/coverage/crash snapshot
// from shared state. Called whenever the worker observes the shared
// corpus has grown since its last refresh.
func (w *Worker) refreshView() {
	w.view = w.shared.Snapshot()
}

// flushCounter merges the worker's batched local execution count into the
// shared counter and resets it.
func (w *Worker) flushCounter() {
	if w.localExecs == 0 {
		return
	}
	w.shared.AddExecutions(w.localExecs)
	w.localExecs = 0
}
