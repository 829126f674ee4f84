package asynq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tripops/internal/model"
	"tripops/pkg/logger"

	"github.com/hibiken/asynq"
)

const (
	// TypeJobRun is the task type for manually triggered job runs.
	TypeJobRun = "job:run"

	enqueueTimeout = 30 * time.Minute
)

// Manager wraps the asynq client and inspector for the shared Redis queues.
// Construct once at startup and inject; Close on shutdown.
type Manager struct {
	client    *asynq.Client
	inspector *asynq.Inspector
}

// NewManager creates a queue manager against the given Redis backend.
func NewManager(redisOpt asynq.RedisClientOpt) *Manager {
	return &Manager{
		client:    asynq.NewClient(redisOpt),
		inspector: asynq.NewInspector(redisOpt),
	}
}

// QueueStats returns the live counters for one named queue. A queue the
// backend has never seen reports zero counts; backend errors are returned to
// the caller so it can apply its own fallback.
func (m *Manager) QueueStats(ctx context.Context, name string) (model.QueueCounts, error) {
	info, err := m.inspector.GetQueueInfo(name)
	if err != nil {
		if errors.Is(err, asynq.ErrQueueNotFound) {
			return model.QueueCounts{}, nil
		}
		return model.QueueCounts{}, fmt.Errorf("failed to get queue info for %s: %w", name, err)
	}
	return queueInfoToCounts(info), nil
}

// queueInfoToCounts maps asynq queue state onto the dashboard counters.
// Scheduled and retry tasks are both "delayed" from the dashboard's view.
func queueInfoToCounts(info *asynq.QueueInfo) model.QueueCounts {
	return model.QueueCounts{
		Waiting:   info.Pending,
		Active:    info.Active,
		Completed: info.Completed,
		Failed:    info.Failed,
		Delayed:   info.Scheduled + info.Retry,
		Paused:    info.Paused,
	}
}

// EnqueueJob pushes a manual run of the given job onto its type's queue.
func (m *Manager) EnqueueJob(ctx context.Context, job *model.Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	task := asynq.NewTask(TypeJobRun, payload)

	opts := []asynq.Option{
		asynq.TaskID(job.ID),
		asynq.Queue(job.Type.Queue()),
		asynq.Timeout(enqueueTimeout),
	}

	info, err := m.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}

	logger.InfoCtx(ctx, "job enqueued, job_id: %s, type: %s, queue: %s", job.ID, job.Type, info.Queue)
	return nil
}

// Close closes the client and inspector connections.
func (m *Manager) Close() error {
	if err := m.client.Close(); err != nil {
		return err
	}
	return m.inspector.Close()
}
