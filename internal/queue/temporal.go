package queue

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/sells-group/identity-resolver/internal/model"
	"github.com/sells-group/identity-resolver/internal/store"
)

// RunDiscoveryActivityName is the registered name of the single activity the
// workflow drives. The teacher's go.mod declares go.temporal.io/sdk but
// never imports it (see DESIGN.md); here it backs the durable job queue for
// real, per spec.md §4.6.
const RunDiscoveryActivityName = "RunDiscovery"

// Activities bundles the dependencies the Temporal worker process needs to
// execute RunDiscovery. Registered once per worker via
// w.RegisterActivityWithOptions(activities.RunDiscovery, ...).
type Activities struct {
	Store store.Store
	Run   RunFunc
	Bus   *Bus
}

// RunDiscovery is the one activity per run (simplified from one-activity-
// per-C5-phase, see DESIGN.md): it executes the full discovery state
// machine, persists the resulting session, and republishes a completion
// event on the local progress bus.
func (a *Activities) RunDiscovery(ctx context.Context, req model.JobRequest) (*model.EnrichmentSession, error) {
	session, err := a.Run(ctx, req)
	if session != nil {
		if updErr := a.Store.UpdateSession(ctx, session); updErr != nil {
			return session, eris.Wrap(updErr, "queue: persist session after activity run")
		}
	}
	if a.Bus != nil {
		a.Bus.Publish(req.SessionID, model.ProgressEvent{
			SessionID: req.SessionID, Type: "queue", Node: "done",
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		})
	}
	if err != nil {
		activity.RecordHeartbeat(ctx, err.Error())
		return session, err
	}
	return session, nil
}

// EnrichmentWorkflow is the durable workflow that wraps one enrichment job.
// WorkflowID is the session id (spec.md §4.6: "the session id is also the
// job id"), started with WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE by
// TemporalQueue.Enqueue so a duplicate enqueue is a no-op.
func EnrichmentWorkflow(ctx workflow.Context, req model.JobRequest) (*model.EnrichmentSession, error) {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 90 * time.Second,
		HeartbeatTimeout:    30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts:        3,
			InitialInterval:        5 * time.Second,
			NonRetryableErrorTypes: []string{string(model.ErrCandidateNotFound), string(model.ErrAccessDenied)},
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var session model.EnrichmentSession
	err := workflow.ExecuteActivity(ctx, RunDiscoveryActivityName, req).Get(ctx, &session)
	if err != nil {
		return &session, err
	}
	return &session, nil
}

// TemporalQueue is the production C6 backend: a durable workflow engine
// providing idempotent enqueue, automatic retry with backoff, and a
// worker pool with configurable concurrency (spec.md §4.6).
type TemporalQueue struct {
	client    client.Client
	taskQueue string
}

// NewTemporalQueue dials the Temporal frontend at hostPort/namespace.
func NewTemporalQueue(hostPort, namespace, taskQueue string) (*TemporalQueue, error) {
	c, err := client.Dial(client.Options{HostPort: hostPort, Namespace: namespace})
	if err != nil {
		return nil, eris.Wrap(err, "queue: dial temporal")
	}
	return &TemporalQueue{client: c, taskQueue: taskQueue}, nil
}

// Client exposes the underlying Temporal client so cmd/worker.go can build a
// worker.Worker bound to the same connection and task queue.
func (q *TemporalQueue) Client() client.Client { return q.client }

// TaskQueue returns the task queue this backend's workflows are started on.
func (q *TemporalQueue) TaskQueue() string { return q.taskQueue }

// Enqueue starts EnrichmentWorkflow with WorkflowID = req.SessionID and
// WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE, making enqueue idempotent: a
// second Enqueue for the same session id returns nil rather than erroring.
func (q *TemporalQueue) Enqueue(ctx context.Context, req model.JobRequest) error {
	opts := client.StartWorkflowOptions{
		ID:                    req.SessionID,
		TaskQueue:             q.taskQueue,
		WorkflowIDReusePolicy: enumspb.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
	}
	_, err := q.client.ExecuteWorkflow(ctx, opts, EnrichmentWorkflow, req)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &alreadyStarted) {
			return nil
		}
		return eris.Wrap(err, "queue: start workflow")
	}
	return nil
}

// Session describes the named workflow execution and maps its run state
// onto an EnrichmentSession. The authoritative, fully populated session
// (with RunTrace) is written by the RunDiscovery activity directly to the
// store; Session here is used for status polling while a run is in flight.
func (q *TemporalQueue) Session(ctx context.Context, sessionID string) (*model.EnrichmentSession, error) {
	desc, err := q.client.DescribeWorkflowExecution(ctx, sessionID, "")
	if err != nil {
		return nil, eris.Wrapf(err, "queue: describe workflow %s", sessionID)
	}
	status := desc.GetWorkflowExecutionInfo().GetStatus()
	session := &model.EnrichmentSession{ID: sessionID}
	switch status {
	case enumspb.WORKFLOW_EXECUTION_STATUS_RUNNING:
		session.Status = model.SessionRunning
	case enumspb.WORKFLOW_EXECUTION_STATUS_COMPLETED:
		session.Status = model.SessionCompleted
	case enumspb.WORKFLOW_EXECUTION_STATUS_FAILED, enumspb.WORKFLOW_EXECUTION_STATUS_TIMED_OUT:
		session.Status = model.SessionFailed
	case enumspb.WORKFLOW_EXECUTION_STATUS_CANCELED, enumspb.WORKFLOW_EXECUTION_STATUS_TERMINATED:
		session.Status = model.SessionCancelled
	}
	return session, nil
}

// Depth approximates queue backlog via the task queue's poller count as a
// proxy — Temporal does not expose an exact pending-task count through the
// client SDK. A healthy worker pool keeps pollers >= 1; Depth is intended
// for a liveness signal on /health, not precise queue-length reporting.
func (q *TemporalQueue) Depth(ctx context.Context) (int, error) {
	resp, err := q.client.DescribeTaskQueue(ctx, q.taskQueue, enumspb.TASK_QUEUE_TYPE_WORKFLOW)
	if err != nil {
		return 0, eris.Wrap(err, "queue: describe task queue")
	}
	return len(resp.GetPollers()), nil
}

func (q *TemporalQueue) Close() error {
	q.client.Close()
	return nil
}
