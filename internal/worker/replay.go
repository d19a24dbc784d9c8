package worker

import (
	"fmt"
	"sync/atomic"

	"github.com/cairofuzz/cairofuzz/internal/execadapter"
	"github.com/cairofuzz/cairofuzz/internal/session"
	"github.com/cairofuzz/cairofuzz/pkg/slotval"
)

// ReplayWorker runs a prepared list of inputs exactly once each, recording
// the same coverage/crash updates a mutating Worker would, without ever
// calling the mutation engine. It backs both plain replay (reproduction)
// and, when Minimize is set, minimized-corpus emission.
type ReplayWorker struct {
	ID       int
	Adapter  execadapter.Adapter
	Handle   execadapter.EntrypointHandle
	Shared   *session.SharedState
	Notifier Notifier
	Minimize bool

	arity int

	// minimized accumulates, in first-seen order, every input that
	// produced a new coverage entry or a first-seen crash during this
	// replay — only populated when Minimize is true.
	minimized []slotval.Vector
}

// FinishedCounter tracks how many replay workers have exhausted their
// input list; the coordinator exits replay mode once this counter reaches
// the worker count.
type FinishedCounter struct {
	n atomic.Int64
}

// Inc marks one worker finished and returns the new total.
func (f *FinishedCounter) Inc() int64 { return f.n.Add(1) }

// Load reads the current finished count.
func (f *FinishedCounter) Load() int64 { return f.n.Load() }

// Run replays inputs one at a time through execute/classify, then signals
// done on finished.
func (r *ReplayWorker) Run(inputs []slotval.Vector, finished *FinishedCounter) error {
	r.arity = r.Adapter.Arity(r.Handle)
	for _, input := range inputs {
		if len(input) != r.arity {
			return fmt.Errorf("replay worker %d: seed arity %d, want %d", r.ID, len(input), r.arity)
		}
		if err := r.replayOne(input); err != nil {
			return err
		}
	}
	finished.Inc()
	return nil
}

func (r *ReplayWorker) replayOne(input slotval.Vector) error {
	fp, execErr := r.Adapter.Execute(r.Handle, input)
	hash := session.ContentHash(input)

	if execErr != nil {
		firstSeen := r.Shared.RecordCrash(execErr.Kind, execErr.Message, input, hash)
		if firstSeen && r.Minimize {
			r.minimized = append(r.minimized, input.Clone())
		}
		return nil
	}

	_, isNew := r.Shared.TryInsertCoverage(fp, input, hash)
	if isNew && r.Minimize {
		r.minimized = append(r.minimized, input.Clone())
	}
	return nil
}

// MinimizedCorpus returns, after Run completes, the union of inputs that
// produced any new coverage entry or first-seen crash during this worker's
// replay — the minimized corpus, handed to an external collaborator for
// persistence.
func (r *ReplayWorker) MinimizedCorpus() []slotval.Vector {
	return r.minimized
}
