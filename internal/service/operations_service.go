package service

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"tripops/internal/model"
	"tripops/pkg/logger"
)

const (
	recentFailureLimit = 10
	durationSampleSize = 100
	errorDisplayLimit  = 200
)

// OperationsService builds the admin operations dashboard snapshot. It is a
// read-time projection: every invocation fans out to the queue backend, the
// job history store and the breaker registry, and assembles one complete
// snapshot from whatever answered.
type OperationsService struct {
	jobs      jobStore
	queues    queueStatsProvider
	breakers  breakerStatusProvider
	schedules scheduleRegistry

	now func() time.Time
}

// NewOperationsService creates the operations dashboard service.
func NewOperationsService(jobs jobStore, queues queueStatsProvider, breakers breakerStatusProvider, schedules scheduleRegistry) *OperationsService {
	return &OperationsService{
		jobs:      jobs,
		queues:    queues,
		breakers:  breakers,
		schedules: schedules,
		now:       time.Now,
	}
}

// Per-source results. Each upstream lands in its own value; the documented
// fallback defaults are applied in exactly one place, after the fan-out.
type jobStatsResult struct {
	activeNow         int64
	completedToday    int64
	failedToday       int64
	completed24h      int64
	failed24h         int64
	throughputPerHour int64
	durationSample    []*model.Job
	failures          []*model.Job
	err               error
}

type queueStatsResult struct {
	counts map[string]model.QueueCounts
}

type breakerResult struct {
	statuses map[string]model.BreakerStatus
	err      error
}

// BuildSnapshot produces a structurally complete dashboard snapshot. Queue
// and breaker outages degrade to zero/empty defaults; only a failure of the
// core job statistics is fatal, because the health verdict has no meaning
// without them.
func (s *OperationsService) BuildSnapshot(ctx context.Context) (*model.DashboardSnapshot, error) {
	now := s.now()

	var (
		wg       sync.WaitGroup
		jobRes   jobStatsResult
		queueRes queueStatsResult
		brkRes   breakerResult
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		jobRes = s.collectJobStats(ctx, now)
	}()
	go func() {
		defer wg.Done()
		queueRes = s.collectQueueStats(ctx)
	}()
	go func() {
		defer wg.Done()
		brkRes = s.collectBreakers(ctx)
	}()
	wg.Wait()

	if jobRes.err != nil {
		return nil, fmt.Errorf("failed to aggregate job statistics: %w", jobRes.err)
	}

	// Breaker outage defaults to "no breakers". Note this makes a dead
	// breaker store indistinguishable from all-closed in the verdict.
	breakers := brkRes.statuses
	if brkRes.err != nil {
		logger.WarnCtx(ctx, "circuit breaker status unavailable, defaulting to empty: %v", brkRes.err)
		breakers = map[string]model.BreakerStatus{}
	}

	metrics := model.Metrics{
		ActiveNow:         jobRes.activeNow,
		CompletedToday:    jobRes.completedToday,
		FailedToday:       jobRes.failedToday,
		SuccessRate:       successRate(jobRes.completed24h, jobRes.failed24h),
		AvgDurationMs:     avgDurationMs(jobRes.durationSample),
		ThroughputPerHour: jobRes.throughputPerHour,
	}

	queues, totals := assembleQueues(queueRes.counts)

	return &model.DashboardSnapshot{
		Health:          classifyHealth(jobRes.failedToday, openCircuits(breakers), metrics.SuccessRate),
		Metrics:         metrics,
		Queues:          queues,
		QueueTotals:     totals,
		RecentFailures:  assembleFailures(jobRes.failures),
		ScheduledJobs:   s.collectScheduled(ctx, now),
		CircuitBreakers: breakers,
	}, nil
}

// collectJobStats runs the core history-store queries. Any error here is
// fatal for the snapshot, so the first one wins and the rest are skipped.
func (s *OperationsService) collectJobStats(ctx context.Context, now time.Time) jobStatsResult {
	var res jobStatsResult

	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	last24h := now.Add(-24 * time.Hour)
	lastHour := now.Add(-time.Hour)

	steps := []func() error{
		func() (err error) { res.activeNow, err = s.jobs.CountByStatus(ctx, model.JobStatusRunning); return },
		func() (err error) { res.completedToday, err = s.jobs.CountCompletedSince(ctx, startOfToday); return },
		func() (err error) { res.failedToday, err = s.jobs.CountFailedSince(ctx, startOfToday); return },
		func() (err error) { res.completed24h, err = s.jobs.CountCompletedSince(ctx, last24h); return },
		func() (err error) { res.failed24h, err = s.jobs.CountFailedSince(ctx, last24h); return },
		func() (err error) { res.throughputPerHour, err = s.jobs.CountCompletedSince(ctx, lastHour); return },
		func() (err error) {
			res.durationSample, err = s.jobs.ListCompletedSince(ctx, last24h, durationSampleSize)
			return
		},
		func() (err error) { res.failures, err = s.jobs.RecentFailures(ctx, recentFailureLimit); return },
	}

	for _, step := range steps {
		if err := step(); err != nil {
			res.err = err
			return res
		}
	}
	return res
}

// collectQueueStats fetches all queues concurrently. A queue whose backend
// call fails reports zero counts and an unpaused state.
func (s *OperationsService) collectQueueStats(ctx context.Context) queueStatsResult {
	names := model.QueueNames()
	counts := make([]model.QueueCounts, len(names))

	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			c, err := s.queues.QueueStats(ctx, name)
			if err != nil {
				logger.WarnCtx(ctx, "queue stats unavailable for %s, defaulting to zero: %v", name, err)
				c = model.QueueCounts{}
			}
			counts[i] = c
		}(i, name)
	}
	wg.Wait()

	byName := make(map[string]model.QueueCounts, len(names))
	for i, name := range names {
		byName[name] = counts[i]
	}
	return queueStatsResult{counts: byName}
}

func (s *OperationsService) collectBreakers(ctx context.Context) breakerResult {
	statuses, err := s.breakers.AllStatus(ctx)
	return breakerResult{statuses: statuses, err: err}
}

// collectScheduled enriches every registered schedule entry with its most
// recent stored run. Untracked types never hit the store; a lookup error for
// one entry leaves only that entry's lastRun empty.
func (s *OperationsService) collectScheduled(ctx context.Context, now time.Time) []model.ScheduledJob {
	entries := s.schedules.List()
	scheduled := make([]model.ScheduledJob, 0, len(entries))

	for _, d := range entries {
		entry := model.ScheduledJob{
			JobType:     d.JobType,
			Schedule:    d.Schedule,
			Description: d.Description,
			NextRun:     s.schedules.NextRun(d, now),
		}

		if d.Tracked {
			job, err := s.jobs.LatestByType(ctx, d.Type())
			switch {
			case err != nil:
				logger.WarnCtx(ctx, "last run lookup failed for %s: %v", d.JobType, err)
			case job != nil:
				entry.LastRun = &model.LastRun{
					Status:      job.Status,
					CreatedAt:   job.CreatedAt,
					CompletedAt: job.CompletedAt,
				}
			}
		}

		scheduled = append(scheduled, entry)
	}
	return scheduled
}

// classifyHealth applies the threshold rules in priority order.
func classifyHealth(failedToday int64, openCircuits int, successRate int) model.HealthLevel {
	switch {
	case failedToday > 50 || openCircuits > 1:
		return model.HealthCritical
	case failedToday > 10 || openCircuits >= 1 || successRate < 90:
		return model.HealthDegraded
	default:
		return model.HealthHealthy
	}
}

// queueHealth derives one queue's verdict. Paused overrides everything,
// failure count overrides backlog.
func queueHealth(c model.QueueCounts) model.QueueHealth {
	switch {
	case c.Paused:
		return model.QueueHealthPaused
	case c.Failed > 10:
		return model.QueueHealthCritical
	case c.Waiting > 100:
		return model.QueueHealthWarning
	default:
		return model.QueueHealthHealthy
	}
}

// successRate rounds completed/(completed+failed) to whole percent. An empty
// window counts as perfect, not undefined.
func successRate(completed, failed int64) int {
	total := completed + failed
	if total == 0 {
		return 100
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

// avgDurationMs averages start-to-completion over the sample, skipping rows
// missing either timestamp.
func avgDurationMs(jobs []*model.Job) int64 {
	var total float64
	n := 0
	for _, job := range jobs {
		if job.StartedAt == nil || job.CompletedAt == nil {
			continue
		}
		total += float64(job.CompletedAt.Sub(*job.StartedAt).Milliseconds())
		n++
	}
	if n == 0 {
		return 0
	}
	return int64(math.Round(total / float64(n)))
}

func openCircuits(statuses map[string]model.BreakerStatus) int {
	open := 0
	for _, status := range statuses {
		if status.State == model.BreakerOpen {
			open++
		}
	}
	return open
}

func assembleQueues(counts map[string]model.QueueCounts) ([]model.QueueSnapshot, model.QueueTotals) {
	names := model.QueueNames()
	queues := make([]model.QueueSnapshot, 0, len(names))
	var totals model.QueueTotals

	for _, name := range names {
		c := counts[name]
		queues = append(queues, model.QueueSnapshot{
			Name:        name,
			QueueCounts: c,
			Health:      queueHealth(c),
		})
		totals.Waiting += c.Waiting
		totals.Active += c.Active
		totals.Completed += c.Completed
		totals.Failed += c.Failed
		totals.Delayed += c.Delayed
	}
	return queues, totals
}

func assembleFailures(jobs []*model.Job) []model.FailureRecord {
	failures := make([]model.FailureRecord, 0, len(jobs))
	for _, job := range jobs {
		failures = append(failures, model.FailureRecord{
			ID:       job.ID,
			Type:     job.Type,
			Error:    truncateError(job.Error),
			Attempts: job.Attempts,
			SiteName: job.SiteName,
			FailedAt: job.UpdatedAt,
		})
	}
	return failures
}

// truncateError caps error text for display. A missing error stays missing;
// it is never coerced to an empty string.
func truncateError(text *string) *string {
	if text == nil {
		return nil
	}
	runes := []rune(*text)
	if len(runes) <= errorDisplayLimit {
		return text
	}
	truncated := string(runes[:errorDisplayLimit])
	return &truncated
}
