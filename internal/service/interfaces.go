package service

import (
	"context"
	"time"

	"tripops/internal/model"
	"tripops/pkg/breaker"
	asynqqueue "tripops/pkg/queue/asynq"
	"tripops/pkg/schedule"
	"tripops/pkg/store/mysql"
)

type jobStore interface {
	CountByStatus(ctx context.Context, status model.JobStatus) (int64, error)
	CountCompletedSince(ctx context.Context, since time.Time) (int64, error)
	CountFailedSince(ctx context.Context, since time.Time) (int64, error)
	ListCompletedSince(ctx context.Context, since time.Time, limit int) ([]*model.Job, error)
	RecentFailures(ctx context.Context, limit int) ([]*model.Job, error)
	LatestByType(ctx context.Context, jobType model.JobType) (*model.Job, error)
}

type jobWriter interface {
	Create(ctx context.Context, job *model.Job) error
}

type jobEnqueuer interface {
	EnqueueJob(ctx context.Context, job *model.Job) error
}

type queueStatsProvider interface {
	QueueStats(ctx context.Context, name string) (model.QueueCounts, error)
}

type breakerStatusProvider interface {
	AllStatus(ctx context.Context) (map[string]model.BreakerStatus, error)
}

type scheduleRegistry interface {
	List() []schedule.Descriptor
	NextRun(d schedule.Descriptor, now time.Time) *time.Time
}

// compile-time assertions

var (
	_ jobStore              = (*mysql.JobRepository)(nil)
	_ jobWriter             = (*mysql.JobRepository)(nil)
	_ jobEnqueuer           = (*asynqqueue.Manager)(nil)
	_ queueStatsProvider    = (*asynqqueue.Manager)(nil)
	_ breakerStatusProvider = (*breaker.Registry)(nil)
	_ scheduleRegistry      = (*schedule.Registry)(nil)
)
