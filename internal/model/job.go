package model

import (
	"errors"
	"time"
)

// ErrUnknownJobType is returned for job-type values outside the declared set.
var ErrUnknownJobType = errors.New("unknown job type")

// JobStatus job status
type JobStatus string

const (
	JobStatusPending   JobStatus = "PENDING"   // Enqueued, not picked up yet
	JobStatusRunning   JobStatus = "RUNNING"   // In Progress
	JobStatusCompleted JobStatus = "COMPLETED" // Completed
	JobStatusFailed    JobStatus = "FAILED"    // Failed
	JobStatusCancelled JobStatus = "CANCELLED" // Cancelled
)

// JobType identifies a named background task family. The set is closed:
// the schedule registry, queue routing and the job store all share it.
type JobType string

const (
	JobTypeContentRefresh     JobType = "CONTENT_REFRESH"
	JobTypeSEOOpportunityScan JobType = "SEO_OPPORTUNITY_SCAN"
	JobTypeGSCSync            JobType = "GSC_SYNC"
	JobTypeSiteHealthCheck    JobType = "SITE_HEALTH_CHECK"
	JobTypeDomainRenewalCheck JobType = "DOMAIN_RENEWAL_CHECK"
	JobTypeAnalyticsRollup    JobType = "ANALYTICS_ROLLUP"
	JobTypeABTestEvaluate     JobType = "ABTEST_EVALUATE"

	// These two run entirely inside their worker process and never write
	// execution rows, so the job store has no history for them.
	JobTypeAutonomousRoadmap  JobType = "AUTONOMOUS_ROADMAP"
	JobTypeWeeklyBlogGenerate JobType = "WEEKLY_BLOG_GENERATE"
)

// jobTypeQueues maps each job type to the queue its workers consume.
var jobTypeQueues = map[JobType]string{
	JobTypeContentRefresh:     QueueContent,
	JobTypeSEOOpportunityScan: QueueSEO,
	JobTypeGSCSync:            QueueGSC,
	JobTypeSiteHealthCheck:    QueueSite,
	JobTypeDomainRenewalCheck: QueueDomain,
	JobTypeAnalyticsRollup:    QueueAnalytics,
	JobTypeABTestEvaluate:     QueueABTest,
	JobTypeAutonomousRoadmap:  QueueContent,
	JobTypeWeeklyBlogGenerate: QueueContent,
}

// Valid reports whether t belongs to the declared job-type set.
func (t JobType) Valid() bool {
	_, ok := jobTypeQueues[t]
	return ok
}

// Queue returns the queue name jobs of this type are routed to.
func (t JobType) Queue() string {
	return jobTypeQueues[t]
}

// Queue names. One queue per task family, backed by the shared Redis instance.
const (
	QueueContent   = "content"
	QueueSEO       = "seo"
	QueueGSC       = "gsc"
	QueueSite      = "site"
	QueueDomain    = "domain"
	QueueAnalytics = "analytics"
	QueueABTest    = "abtest"
)

// QueueNames returns all queue names in display order.
func QueueNames() []string {
	return []string{QueueContent, QueueSEO, QueueGSC, QueueSite, QueueDomain, QueueAnalytics, QueueABTest}
}

// Job is one recorded execution of a background task. Rows are created on
// enqueue and mutated by the external workers as the task moves through its
// status lifecycle; this service only reads them.
type Job struct {
	ID          string                 `json:"id"`
	Type        JobType                `json:"type"`
	Status      JobStatus              `json:"status"`
	Payload     map[string]interface{} `json:"payload,omitempty"`
	Error       *string                `json:"error,omitempty"`
	Attempts    int                    `json:"attempts"`
	SiteName    *string                `json:"site_name,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	StartedAt   *time.Time             `json:"started_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
}
