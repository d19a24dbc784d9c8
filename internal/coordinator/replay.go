package coordinator

import (
	"fmt"
	"sync"

	"github.com/cairofuzz/cairofuzz/internal/worker"
	"github.com/cairofuzz/cairofuzz/pkg/slotval"
)

// RunReplay splits inputs evenly across the configured core count and
// replays each partition exactly once through a ReplayWorker, blocking
// until every worker reports finished. When Minimize is set, it returns
// the union of inputs that produced a new coverage entry or a first-seen
// crash, in worker-major first-seen order.
func (c *Coordinator) RunReplay(inputs []slotval.Vector, minimize bool) ([]slotval.Vector, error) {
	cores := c.opts.Cores
	if cores < 1 {
		cores = 1
	}
	partitions := partition(inputs, cores)

	finished := &worker.FinishedCounter{}
	replayWorkers := make([]*worker.ReplayWorker, cores)

	var wg sync.WaitGroup
	errCh := make(chan error, cores)
	for i := 0; i < cores; i++ {
		rw := &worker.ReplayWorker{
			ID:       i,
			Adapter:  c.adapter,
			Handle:   c.handle,
			Shared:   c.shared,
			Notifier: c.opts.StatusReport,
			Minimize: minimize,
		}
		replayWorkers[i] = rw
		part := partitions[i]
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := rw.Run(part, finished); err != nil {
				errCh <- err
			}
		}()
	}
	wg.Wait()
	close(errCh)
	if err, ok := <-errCh; ok {
		return nil, fmt.Errorf("coordinator: replay failed: %w", err)
	}

	if int(finished.Load()) != cores {
		return nil, fmt.Errorf("coordinator: replay finished count %d, want %d", finished.Load(), cores)
	}

	if !minimize {
		return nil, nil
	}
	var out []slotval.Vector
	for _, rw := range replayWorkers {
		out = append(out, rw.MinimizedCorpus()...)
	}
	return out, nil
}

func partition(inputs []slotval.Vector, cores int) [][]slotval.Vector {
	parts := make([][]slotval.Vector, cores)
	for i, v := range inputs {
		parts[i%cores] = append(parts[i%cores], v)
	}
	return parts
}
