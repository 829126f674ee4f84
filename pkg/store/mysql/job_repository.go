package mysql

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"tripops/internal/model"
)

// JobRepository handles job history persistence in MySQL
type JobRepository struct {
	ds *Datastore
}

// NewJobRepository creates a new job repository
func NewJobRepository(ds *Datastore) *JobRepository {
	return &JobRepository{ds: ds}
}

// Create inserts a new job record (manual enqueue path)
func (r *JobRepository) Create(ctx context.Context, job *model.Job) error {
	if !job.Type.Valid() {
		return fmt.Errorf("%w: %s", model.ErrUnknownJobType, job.Type)
	}
	return r.ds.DB(ctx).Create(FromJobDomain(job)).Error
}

// CountByStatus counts jobs in the given status
func (r *JobRepository) CountByStatus(ctx context.Context, status model.JobStatus) (int64, error) {
	var count int64
	err := r.ds.DB(ctx).Model(&Job{}).
		Where("status = ?", string(status)).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count jobs by status: %w", err)
	}
	return count, nil
}

// CountCompletedSince counts jobs completed at or after the given time
func (r *JobRepository) CountCompletedSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.ds.DB(ctx).Model(&Job{}).
		Where("status = ? AND completed_at >= ?", string(model.JobStatusCompleted), since).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count completed jobs: %w", err)
	}
	return count, nil
}

// CountFailedSince counts jobs that failed at or after the given time. The
// failure transition is the last write to a FAILED row, so updated_at is the
// failure time.
func (r *JobRepository) CountFailedSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.ds.DB(ctx).Model(&Job{}).
		Where("status = ? AND updated_at >= ?", string(model.JobStatusFailed), since).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count failed jobs: %w", err)
	}
	return count, nil
}

// ListCompletedSince returns the most recently completed jobs since the given
// time that carry both start and completion timestamps, newest first.
func (r *JobRepository) ListCompletedSince(ctx context.Context, since time.Time, limit int) ([]*model.Job, error) {
	var rows []*Job
	err := r.ds.DB(ctx).
		Where("status = ? AND completed_at >= ? AND started_at IS NOT NULL", string(model.JobStatusCompleted), since).
		Order("completed_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list completed jobs: %w", err)
	}

	jobs := make([]*model.Job, 0, len(rows))
	for _, row := range rows {
		jobs = append(jobs, ToJobDomain(row))
	}
	return jobs, nil
}

// failureRow is the join shape for RecentFailures
type failureRow struct {
	Job
	SiteName *string `gorm:"column:site_name"`
}

// RecentFailures returns the most recently updated FAILED jobs, newest first,
// with the owning site's display name when the job is site-scoped.
func (r *JobRepository) RecentFailures(ctx context.Context, limit int) ([]*model.Job, error) {
	var rows []*failureRow
	err := r.ds.DB(ctx).Model(&Job{}).
		Select("jobs.*, sites.name AS site_name").
		Joins("LEFT JOIN sites ON sites.id = jobs.site_id").
		Where("jobs.status = ?", string(model.JobStatusFailed)).
		Order("jobs.updated_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recent failures: %w", err)
	}

	jobs := make([]*model.Job, 0, len(rows))
	for _, row := range rows {
		job := ToJobDomain(&row.Job)
		job.SiteName = row.SiteName
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// LatestByType returns the most recent job record of the given type, or nil
// if none exists. Types outside the declared set are rejected.
func (r *JobRepository) LatestByType(ctx context.Context, jobType model.JobType) (*model.Job, error) {
	if !jobType.Valid() {
		return nil, fmt.Errorf("%w: %s", model.ErrUnknownJobType, jobType)
	}

	var row Job
	err := r.ds.DB(ctx).
		Where("type = ?", string(jobType)).
		Order("created_at DESC").
		First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest job by type: %w", err)
	}
	return ToJobDomain(&row), nil
}
