package mysql

import (
	"tripops/internal/model"
)

// ToJobDomain converts MySQL Job to domain Job model
func ToJobDomain(row *Job) *model.Job {
	if row == nil {
		return nil
	}

	return &model.Job{
		ID:          row.JobID,
		Type:        model.JobType(row.Type),
		Status:      model.JobStatus(row.Status),
		Payload:     map[string]interface{}(row.Payload),
		Error:       row.Error,
		Attempts:    row.Attempts,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
		StartedAt:   row.StartedAt,
		CompletedAt: row.CompletedAt,
	}
}

// FromJobDomain converts domain Job model to MySQL Job
func FromJobDomain(job *model.Job) *Job {
	if job == nil {
		return nil
	}

	return &Job{
		JobID:       job.ID,
		Type:        string(job.Type),
		Status:      string(job.Status),
		Payload:     JSONMap(job.Payload),
		Error:       job.Error,
		Attempts:    job.Attempts,
		CreatedAt:   job.CreatedAt,
		UpdatedAt:   job.UpdatedAt,
		StartedAt:   job.StartedAt,
		CompletedAt: job.CompletedAt,
	}
}
