package handler

import (
	"context"
	"errors"
	"net/http"

	"tripops/internal/model"
	"tripops/internal/service"
	"tripops/pkg/logger"

	"github.com/gin-gonic/gin"
)

// jobTrigger runs a job type on demand.
type jobTrigger interface {
	Trigger(ctx context.Context, jobType model.JobType) (*model.Job, error)
}

// JobHandler handles manual job-run HTTP requests
type JobHandler struct {
	jobs jobTrigger
}

// NewJobHandler creates a new job handler
func NewJobHandler(jobs jobTrigger) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// TriggerJob enqueues a manual run of a job type
// @Summary Trigger a job run
// @Description Record a pending job of the given type and enqueue it for its worker
// @Tags jobs
// @Produce json
// @Param type path string true "Job type to run"
// @Router /api/operations/jobs/{type}/run [post]
func (h *JobHandler) TriggerJob(c *gin.Context) {
	jobType := c.Param("type")

	job, err := h.jobs.Trigger(c.Request.Context(), model.JobType(jobType))
	if err != nil {
		if errors.Is(err, model.ErrUnknownJobType) || errors.Is(err, service.ErrUntrackedJobType) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.ErrorCtx(c.Request.Context(), "failed to trigger job %s: %v", jobType, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"id":     job.ID,
		"type":   job.Type,
		"status": job.Status,
		"queue":  job.Type.Queue(),
	})
}
