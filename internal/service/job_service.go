package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tripops/internal/model"
	"tripops/pkg/logger"

	"github.com/google/uuid"
)

// ErrUntrackedJobType is returned when a manual run is requested for a job
// type whose worker keeps no stored runs; there is nothing to record or watch.
var ErrUntrackedJobType = errors.New("job type is not tracked in the job store")

// JobService handles manual job runs triggered from the admin back-office.
type JobService struct {
	jobs      jobWriter
	queue     jobEnqueuer
	schedules scheduleRegistry
}

// NewJobService creates the manual job-run service.
func NewJobService(jobs jobWriter, queue jobEnqueuer, schedules scheduleRegistry) *JobService {
	return &JobService{
		jobs:      jobs,
		queue:     queue,
		schedules: schedules,
	}
}

// Trigger records a pending job and enqueues it on its type's queue. The
// schedule registry decides whether a type is tracked; untracked types are
// rejected rather than silently producing rows no worker will ever update.
func (s *JobService) Trigger(ctx context.Context, jobType model.JobType) (*model.Job, error) {
	if !jobType.Valid() {
		return nil, fmt.Errorf("%w: %s", model.ErrUnknownJobType, jobType)
	}
	if !s.tracked(jobType) {
		return nil, fmt.Errorf("%w: %s", ErrUntrackedJobType, jobType)
	}

	now := time.Now()
	job := &model.Job{
		ID:        uuid.NewString(),
		Type:      jobType,
		Status:    model.JobStatusPending,
		Payload:   map[string]interface{}{"trigger": "manual"},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to record job: %w", err)
	}
	if err := s.queue.EnqueueJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to enqueue job: %w", err)
	}

	logger.InfoCtx(ctx, "manual job run triggered, job_id: %s, type: %s", job.ID, job.Type)
	return job, nil
}

func (s *JobService) tracked(jobType model.JobType) bool {
	for _, d := range s.schedules.List() {
		if d.Type() == jobType && d.Tracked {
			return true
		}
	}
	return false
}
