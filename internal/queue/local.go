package queue

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/identity-resolver/internal/model"
	"github.com/sells-group/identity-resolver/internal/store"
)

// LocalQueue is the store-backed durable queue used for local/offline
// development and the deterministic test suite, where no live Temporal
// server is required (spec.md §8). Durability comes from persisting every
// queued session via Store before it is handed to a worker goroutine;
// concurrency comes from a fixed number of goroutines draining one buffered
// channel, grounded on the teacher's cmd/batch.go worker-pool shape.
type LocalQueue struct {
	store store.Store
	run   RunFunc
	bus   *Bus

	work chan model.JobRequest
	wg   sync.WaitGroup
	pool *errgroup.Group

	depth  int64
	closed chan struct{}
	once   sync.Once
}

// NewLocalQueue starts concurrency worker goroutines draining an internal
// channel and running each job via run. bus (may be nil) receives a "done"
// progress event when a job finishes; no event is published on enqueue or
// on start.
func NewLocalQueue(st store.Store, run RunFunc, bus *Bus, concurrency int) *LocalQueue {
	if concurrency < 1 {
		concurrency = 1
	}
	q := &LocalQueue{
		store:  st,
		run:    run,
		bus:    bus,
		work:   make(chan model.JobRequest, 256),
		closed: make(chan struct{}),
	}
	g := new(errgroup.Group)
	g.SetLimit(concurrency)
	q.pool = g

	for i := 0; i < concurrency; i++ {
		q.wg.Add(1)
		go q.drain()
	}
	return q
}

func (q *LocalQueue) drain() {
	defer q.wg.Done()
	for {
		select {
		case <-q.closed:
			return
		case req, ok := <-q.work:
			if !ok {
				return
			}
			q.process(req)
		}
	}
}

func (q *LocalQueue) process(req model.JobRequest) {
	atomic.AddInt64(&q.depth, -1)
	ctx := context.Background()

	session, err := q.run(ctx, req)
	if err != nil {
		zap.L().Error("queue: job failed", zap.String("session_id", req.SessionID), zap.Error(err))
		if session == nil {
			session = &model.EnrichmentSession{ID: req.SessionID, Status: model.SessionFailed, ErrorMessage: err.Error()}
		}
	}
	if session != nil {
		if updErr := q.store.UpdateSession(ctx, session); updErr != nil {
			zap.L().Warn("queue: update session failed", zap.String("session_id", req.SessionID), zap.Error(updErr))
		}
	}
	if q.bus != nil {
		q.bus.Publish(req.SessionID, model.ProgressEvent{
			SessionID: req.SessionID, Type: "queue", Node: "done",
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		})
	}
}

// Enqueue persists a queued session row, then hands the job to a worker.
// Idempotent: if a session with this id already exists, Enqueue is a no-op.
func (q *LocalQueue) Enqueue(ctx context.Context, req model.JobRequest) error {
	select {
	case <-q.closed:
		return eris.New("queue: closed")
	default:
	}
	if _, err := q.store.GetSession(ctx, req.SessionID); err == nil {
		return nil
	}

	session := &model.EnrichmentSession{
		ID: req.SessionID, TenantID: req.TenantID, CandidateID: req.CandidateID,
		JobType: req.JobType, Status: model.SessionQueued, CreatedAt: time.Now().UTC(),
	}
	if err := q.store.CreateSession(ctx, session); err != nil {
		return eris.Wrap(err, "queue: create session")
	}

	atomic.AddInt64(&q.depth, 1)
	select {
	case q.work <- req:
		return nil
	case <-ctx.Done():
		atomic.AddInt64(&q.depth, -1)
		return ctx.Err()
	}
}

// Session returns the current session state from the store.
func (q *LocalQueue) Session(ctx context.Context, sessionID string) (*model.EnrichmentSession, error) {
	return q.store.GetSession(ctx, sessionID)
}

// Depth returns the number of jobs queued but not yet started. It does not
// include jobs currently executing on a worker.
func (q *LocalQueue) Depth(_ context.Context) (int, error) {
	return int(atomic.LoadInt64(&q.depth)), nil
}

// Close stops accepting new work and waits for in-flight jobs to finish,
// implementing the graceful SIGTERM drain of spec.md §4.6.
func (q *LocalQueue) Close() error {
	q.once.Do(func() {
		close(q.closed)
		close(q.work)
	})
	q.wg.Wait()
	return nil
}
