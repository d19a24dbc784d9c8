// Package coordinator owns session lifecycle: shared-state init, seed
// loading, worker spawning, the once-a-second monitoring loop, and
// cooperative termination on iteration/run-time caps or an operator quit
// signal.
package coordinator

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/cairofuzz/cairofuzz/internal/execadapter"
	"github.com/cairofuzz/cairofuzz/internal/session"
	"github.com/cairofuzz/cairofuzz/internal/worker"
	"github.com/cairofuzz/cairofuzz/pkg/slotval"
)

// Options configures one fuzzing session.
type Options struct {
	Cores           int
	Seed            int64 // if zero, wall-clock nanos are used
	RunTimeSeconds  int   // 0 = no cap
	Iterations      int64 // per-worker cap, -1 = infinite
	MaxExecRate     float64
	Bytecode        []byte
	Entrypoint      string
	Stateful        bool
	InitialCorpus   []slotval.Vector
	InitialCrashes  []session.SeedCrash
	StatusReport    StatusReporter
}

// StatusReporter receives the once-per-second statistics snapshot and
// crash/fatal events; internal/report's HTTP server and cmd/cairofuzz's
// CLI both implement it.
type StatusReporter interface {
	worker.Notifier
	Report(snapshot session.StatsSnapshot)
}

// Coordinator drives one fuzzing session end to end.
type Coordinator struct {
	opts    Options
	adapter execadapter.Adapter
	shared  *session.SharedState
	stop    atomic.Bool

	handle execadapter.EntrypointHandle
}

// New resolves the entrypoint through adapter and prepares shared state,
// loading any pre-existing corpus and crash seeds. Entrypoint resolution
// failure, or a loaded seed whose arity/types mismatch the entrypoint, is
// fatal per spec §7 and is returned here rather than surfacing mid-run.
func New(adapter execadapter.Adapter, opts Options) (*Coordinator, error) {
	mode := execadapter.Stateless
	if opts.Stateful {
		mode = execadapter.Stateful
	}
	handle, err := adapter.Init(opts.Bytecode, opts.Entrypoint, mode)
	if err != nil {
		return nil, fmt.Errorf("coordinator: entrypoint resolution failed: %w", err)
	}

	types := adapter.ParameterTypes(handle)
	for i, v := range opts.InitialCorpus {
		if !v.SameSignature(types) {
			return nil, fmt.Errorf("coordinator: initial corpus entry %d has wrong signature", i)
		}
	}
	for i, c := range opts.InitialCrashes {
		if !c.Vector.SameSignature(types) {
			return nil, fmt.Errorf("coordinator: initial crash entry %d has wrong signature", i)
		}
	}

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	opts.Seed = seed

	shared := session.New()
	shared.SeedCorpus(opts.InitialCorpus, session.ContentHash)
	shared.SeedCrashes(opts.InitialCrashes, session.ContentHash)

	return &Coordinator{opts: opts, adapter: adapter, shared: shared, handle: handle}, nil
}

// Stop sets the cooperative termination flag; workers observe it at the
// top of their next iteration.
func (c *Coordinator) Stop() {
	c.stop.Store(true)
}

// Run spawns the configured worker count, drives the monitoring loop, and
// blocks until every worker has exited — either because Stop was called,
// the run-time cap elapsed, or the shared execution count reached the
// per-worker iteration cap times the worker count. Both caps are checked
// once a second by the monitoring loop.
func (c *Coordinator) Run() error {
	pool, err := ants.NewPool(c.opts.Cores, ants.WithNonblocking(false))
	if err != nil {
		return fmt.Errorf("coordinator: failed to start worker pool: %w", err)
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i := 0; i < c.opts.Cores; i++ {
		id := i
		w := worker.New(worker.Config{
			ID:       id,
			Seed:     c.opts.Seed,
			Adapter:  c.adapter,
			Handle:   c.handle,
			Shared:   c.shared,
			Stop:     &c.stop,
			Notifier: c.opts.StatusReport,
			MaxRate:  c.opts.MaxExecRate,
		})
		wg.Add(1)
		task := func() {
			defer wg.Done()
			w.Run()
		}
		if err := pool.Submit(task); err != nil {
			wg.Done()
			return fmt.Errorf("coordinator: failed to submit worker %d: %w", id, err)
		}
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	c.monitor(done)
	return nil
}

// monitor drives the once-per-second statistics report and enforces the
// run-time/iteration caps by setting the cooperative stop flag.
func (c *Coordinator) monitor(done <-chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	var deadline time.Time
	if c.opts.RunTimeSeconds > 0 {
		deadline = time.Now().Add(time.Duration(c.opts.RunTimeSeconds) * time.Second)
	}

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			snap := c.shared.StatsSnapshot()
			if c.opts.StatusReport != nil {
				c.opts.StatusReport.Report(snap)
			}
			if !deadline.IsZero() && time.Now().After(deadline) {
				c.Stop()
			}
			if c.opts.Iterations > 0 && snap.TotalExecutions >= c.opts.Iterations*int64(c.opts.Cores) {
				c.Stop()
			}
		}
	}
}

// Shared exposes the session's shared state, used by replay mode and
// tests that need to inspect coverage/crash contents directly.
func (c *Coordinator) Shared() *session.SharedState {
	return c.shared
}

// Handle exposes the resolved entrypoint handle.
func (c *Coordinator) Handle() execadapter.EntrypointHandle {
	return c.handle
}
