package queue

import (
	"github.com/rotisserie/eris"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
)

// Worker wraps a Temporal worker.Worker, registering EnrichmentWorkflow and
// its RunDiscovery activity and bounding concurrency via
// MaxConcurrentActivityExecutionSize (spec.md §4.6's configurable worker
// concurrency, default 3), grounded on the teacher's cmd/batch.go
// errgroup.SetLimit bounded worker-pool shape.
type Worker struct {
	w worker.Worker
}

// NewWorker builds a Temporal worker polling taskQueue with the given
// activity concurrency.
func NewWorker(c client.Client, taskQueue string, activities *Activities, concurrency int) *Worker {
	if concurrency < 1 {
		concurrency = 3
	}
	w := worker.New(c, taskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize: concurrency,
	})
	w.RegisterWorkflow(EnrichmentWorkflow)
	w.RegisterActivityWithOptions(activities.RunDiscovery, activity.RegisterOptions{Name: RunDiscoveryActivityName})
	return &Worker{w: w}
}

// Run blocks, polling the task queue until interruptCh fires.
func (w *Worker) Run(interruptCh <-chan interface{}) error {
	if err := w.w.Run(interruptCh); err != nil {
		return eris.Wrap(err, "queue: worker run")
	}
	return nil
}

// Stop requests a graceful drain: in-flight activities finish, no new tasks
// are polled.
func (w *Worker) Stop() {
	w.w.Stop()
}
