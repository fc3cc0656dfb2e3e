package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/identity-resolver/internal/queue"
)

var workerConcurrency int

// workerCmd runs the worker pool that drains the configured queue backend
// (spec.md §4.6). Against the "temporal" backend it polls the task queue
// with a Temporal worker.Worker; against "local" it simply blocks, since
// LocalQueue already started its goroutine pool at construction in
// initEngine. Either way, SIGTERM triggers the graceful drain described in
// spec.md §4.6: stop accepting new jobs, finish in-flight phases at their
// next checkpoint, release external connections — grounded on the
// teacher's cmd/batch.go signal.NotifyContext(SIGINT, SIGTERM) handling.
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the enrichment worker pool against the configured queue backend",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("worker"); err != nil {
			return err
		}

		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		concurrency := workerConcurrency
		if concurrency <= 0 {
			concurrency = cfg.Worker.Concurrency
		}

		tq, isTemporal := env.Queue.(*queue.TemporalQueue)
		if !isTemporal {
			zap.L().Info("worker: local queue backend already draining in-process, blocking until shutdown",
				zap.Int("concurrency", concurrency))
			<-ctx.Done()
			return nil
		}

		w := queue.NewWorker(tq.Client(), tq.TaskQueue(), &queue.Activities{
			Store: env.Store, Run: env.Runner.Run, Bus: env.Bus,
		}, concurrency)

		zap.L().Info("worker: polling task queue", zap.String("task_queue", tq.TaskQueue()), zap.Int("concurrency", concurrency))
		interrupt := make(chan interface{})
		go func() {
			<-ctx.Done()
			close(interrupt)
		}()

		if err := w.Run(interrupt); err != nil {
			return eris.Wrap(err, "worker run")
		}
		return nil
	},
}

func init() {
	workerCmd.Flags().IntVar(&workerConcurrency, "concurrency", 0, "worker pool concurrency (default from config)")
	rootCmd.AddCommand(workerCmd)
}
