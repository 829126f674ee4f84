package model

import "time"

// HealthLevel overall system health verdict
type HealthLevel string

const (
	HealthHealthy  HealthLevel = "healthy"
	HealthDegraded HealthLevel = "degraded"
	HealthCritical HealthLevel = "critical"
)

// QueueHealth per-queue health verdict
type QueueHealth string

const (
	QueueHealthHealthy  QueueHealth = "healthy"
	QueueHealthWarning  QueueHealth = "warning"
	QueueHealthCritical QueueHealth = "critical"
	QueueHealthPaused   QueueHealth = "paused"
)

// QueueCounts raw counters for one named queue, as reported by the queue backend.
type QueueCounts struct {
	Waiting   int  `json:"waiting"`
	Active    int  `json:"active"`
	Completed int  `json:"completed"`
	Failed    int  `json:"failed"`
	Delayed   int  `json:"delayed"`
	Paused    bool `json:"paused"`
}

// QueueSnapshot one queue's counters plus its derived health.
type QueueSnapshot struct {
	Name string `json:"name"`
	QueueCounts
	Health QueueHealth `json:"health"`
}

// QueueTotals element-wise sum over all queues.
type QueueTotals struct {
	Waiting   int `json:"waiting"`
	Active    int `json:"active"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Delayed   int `json:"delayed"`
}

// Metrics job throughput numbers backing the health verdict.
type Metrics struct {
	ActiveNow         int64 `json:"activeNow"`
	CompletedToday    int64 `json:"completedToday"`
	FailedToday       int64 `json:"failedToday"`
	SuccessRate       int   `json:"successRate"`
	AvgDurationMs     int64 `json:"avgDurationMs"`
	ThroughputPerHour int64 `json:"throughputPerHour"`
}

// FailureRecord one recently failed job, error text truncated for display.
type FailureRecord struct {
	ID       string    `json:"id"`
	Type     JobType   `json:"type"`
	Error    *string   `json:"error"`
	Attempts int       `json:"attempts"`
	SiteName *string   `json:"siteName"`
	FailedAt time.Time `json:"failedAt"`
}

// LastRun the most recent stored execution of a scheduled job type.
type LastRun struct {
	Status      JobStatus  `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt"`
}

// ScheduledJob a registered schedule entry enriched with run history.
type ScheduledJob struct {
	JobType     string     `json:"jobType"`
	Schedule    string     `json:"schedule"`
	Description string     `json:"description"`
	NextRun     *time.Time `json:"nextRun"`
	LastRun     *LastRun   `json:"lastRun"`
}

// BreakerMetrics cumulative call counters for one circuit breaker.
type BreakerMetrics struct {
	Failures  int64 `json:"failures"`
	Successes int64 `json:"successes"`
}

// BreakerStatus state of one external service's circuit breaker.
type BreakerStatus struct {
	State   string         `json:"state"`
	Metrics BreakerMetrics `json:"metrics"`
}

// Breaker states.
const (
	BreakerClosed   = "CLOSED"
	BreakerOpen     = "OPEN"
	BreakerHalfOpen = "HALF_OPEN"
)

// DashboardSnapshot is the single aggregated view the admin dashboard renders.
// Built fresh on every request; never persisted.
type DashboardSnapshot struct {
	Health          HealthLevel              `json:"health"`
	Metrics         Metrics                  `json:"metrics"`
	Queues          []QueueSnapshot          `json:"queues"`
	QueueTotals     QueueTotals              `json:"queueTotals"`
	RecentFailures  []FailureRecord          `json:"recentFailures"`
	ScheduledJobs   []ScheduledJob           `json:"scheduledJobs"`
	CircuitBreakers map[string]BreakerStatus `json:"circuitBreakers"`
}
