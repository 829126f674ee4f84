package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"tripops/internal/model"
	"tripops/pkg/schedule"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)

// fakeJobStore implements jobStore/jobWriter with overridable behavior.
type fakeJobStore struct {
	countByStatus       func(model.JobStatus) (int64, error)
	countCompletedSince func(time.Time) (int64, error)
	countFailedSince    func(time.Time) (int64, error)
	listCompletedSince  func(time.Time, int) ([]*model.Job, error)
	recentFailures      func(int) ([]*model.Job, error)
	latestByType        func(model.JobType) (*model.Job, error)

	created     []*model.Job
	latestCalls []model.JobType
}

func (f *fakeJobStore) CountByStatus(ctx context.Context, status model.JobStatus) (int64, error) {
	if f.countByStatus != nil {
		return f.countByStatus(status)
	}
	return 0, nil
}

func (f *fakeJobStore) CountCompletedSince(ctx context.Context, since time.Time) (int64, error) {
	if f.countCompletedSince != nil {
		return f.countCompletedSince(since)
	}
	return 0, nil
}

func (f *fakeJobStore) CountFailedSince(ctx context.Context, since time.Time) (int64, error) {
	if f.countFailedSince != nil {
		return f.countFailedSince(since)
	}
	return 0, nil
}

func (f *fakeJobStore) ListCompletedSince(ctx context.Context, since time.Time, limit int) ([]*model.Job, error) {
	if f.listCompletedSince != nil {
		return f.listCompletedSince(since, limit)
	}
	return nil, nil
}

func (f *fakeJobStore) RecentFailures(ctx context.Context, limit int) ([]*model.Job, error) {
	if f.recentFailures != nil {
		return f.recentFailures(limit)
	}
	return nil, nil
}

func (f *fakeJobStore) LatestByType(ctx context.Context, jobType model.JobType) (*model.Job, error) {
	f.latestCalls = append(f.latestCalls, jobType)
	if f.latestByType != nil {
		return f.latestByType(jobType)
	}
	return nil, nil
}

func (f *fakeJobStore) Create(ctx context.Context, job *model.Job) error {
	f.created = append(f.created, job)
	return nil
}

type fakeQueueStats struct {
	perQueue map[string]model.QueueCounts
	err      error
}

func (f *fakeQueueStats) QueueStats(ctx context.Context, name string) (model.QueueCounts, error) {
	if f.err != nil {
		return model.QueueCounts{}, f.err
	}
	return f.perQueue[name], nil
}

type fakeBreakers struct {
	statuses map[string]model.BreakerStatus
	err      error
}

func (f *fakeBreakers) AllStatus(ctx context.Context) (map[string]model.BreakerStatus, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.statuses, nil
}

func newTestService(jobs *fakeJobStore, queues *fakeQueueStats, breakers *fakeBreakers) *OperationsService {
	if queues == nil {
		queues = &fakeQueueStats{}
	}
	if breakers == nil {
		breakers = &fakeBreakers{}
	}
	svc := NewOperationsService(jobs, queues, breakers, schedule.NewRegistry())
	svc.now = func() time.Time { return testNow }
	return svc
}

func TestSuccessRate(t *testing.T) {
	tests := []struct {
		name      string
		completed int64
		failed    int64
		expected  int
	}{
		{name: "empty window is perfect", completed: 0, failed: 0, expected: 100},
		{name: "rounds to nearest", completed: 50, failed: 2, expected: 96},
		{name: "rounds half up", completed: 1, failed: 1, expected: 50},
		{name: "low rate", completed: 1, failed: 2, expected: 33},
		{name: "boundary at ninety", completed: 9, failed: 1, expected: 90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, successRate(tt.completed, tt.failed))
		})
	}
}

func TestAvgDurationMs(t *testing.T) {
	job := func(durationMs int64) *model.Job {
		started := testNow.Add(-time.Hour)
		completed := started.Add(time.Duration(durationMs) * time.Millisecond)
		return &model.Job{StartedAt: &started, CompletedAt: &completed}
	}

	assert.Equal(t, int64(120000), avgDurationMs([]*model.Job{job(60000), job(120000), job(180000)}))
	assert.Equal(t, int64(0), avgDurationMs(nil))

	// Rows missing a timestamp are skipped, not counted as zero.
	incomplete := &model.Job{StartedAt: nil, CompletedAt: nil}
	assert.Equal(t, int64(60000), avgDurationMs([]*model.Job{job(60000), incomplete}))
}

func TestClassifyHealth(t *testing.T) {
	tests := []struct {
		name         string
		failedToday  int64
		openCircuits int
		successRate  int
		expected     model.HealthLevel
	}{
		{name: "all clear", failedToday: 0, openCircuits: 0, successRate: 100, expected: model.HealthHealthy},
		{name: "failures over fifty are critical", failedToday: 55, openCircuits: 0, successRate: 100, expected: model.HealthCritical},
		{name: "two open circuits are critical regardless", failedToday: 0, openCircuits: 2, successRate: 100, expected: model.HealthCritical},
		{name: "failures over ten degrade", failedToday: 15, openCircuits: 0, successRate: 100, expected: model.HealthDegraded},
		{name: "fifty failures with one open circuit is only degraded", failedToday: 50, openCircuits: 1, successRate: 100, expected: model.HealthDegraded},
		{name: "one open circuit degrades", failedToday: 0, openCircuits: 1, successRate: 100, expected: model.HealthDegraded},
		{name: "low success rate degrades", failedToday: 0, openCircuits: 0, successRate: 89, expected: model.HealthDegraded},
		{name: "boundaries stay healthy", failedToday: 10, openCircuits: 0, successRate: 90, expected: model.HealthHealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, classifyHealth(tt.failedToday, tt.openCircuits, tt.successRate))
		})
	}
}

func TestQueueHealth(t *testing.T) {
	tests := []struct {
		name     string
		counts   model.QueueCounts
		expected model.QueueHealth
	}{
		{name: "failed over ten is critical", counts: model.QueueCounts{Failed: 15}, expected: model.QueueHealthCritical},
		{name: "backlog over hundred warns", counts: model.QueueCounts{Waiting: 150}, expected: model.QueueHealthWarning},
		{name: "paused overrides failures", counts: model.QueueCounts{Failed: 15, Waiting: 150, Paused: true}, expected: model.QueueHealthPaused},
		{name: "failures override backlog", counts: model.QueueCounts{Failed: 15, Waiting: 150}, expected: model.QueueHealthCritical},
		{name: "boundaries are healthy", counts: model.QueueCounts{Failed: 10, Waiting: 100}, expected: model.QueueHealthHealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, queueHealth(tt.counts))
		})
	}
}

func TestTruncateError(t *testing.T) {
	assert.Nil(t, truncateError(nil))

	short := "boom"
	assert.Equal(t, &short, truncateError(&short))

	long := strings.Repeat("x", 250)
	truncated := truncateError(&long)
	require.NotNil(t, truncated)
	assert.Len(t, []rune(*truncated), 200)

	exact := strings.Repeat("y", 200)
	assert.Equal(t, &exact, truncateError(&exact))
}

func TestBuildSnapshot_Metrics(t *testing.T) {
	startOfToday := time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC)
	last24h := testNow.Add(-24 * time.Hour)
	lastHour := testNow.Add(-time.Hour)

	started := testNow.Add(-2 * time.Hour)
	completed := started.Add(90 * time.Second)

	jobs := &fakeJobStore{
		countByStatus: func(status model.JobStatus) (int64, error) {
			require.Equal(t, model.JobStatusRunning, status)
			return 4, nil
		},
		countCompletedSince: func(since time.Time) (int64, error) {
			switch {
			case since.Equal(startOfToday):
				return 30, nil
			case since.Equal(last24h):
				return 50, nil
			case since.Equal(lastHour):
				return 7, nil
			}
			t.Errorf("unexpected completed-since window: %v", since)
			return 0, nil
		},
		countFailedSince: func(since time.Time) (int64, error) {
			switch {
			case since.Equal(startOfToday):
				return 12, nil
			case since.Equal(last24h):
				return 2, nil
			}
			t.Errorf("unexpected failed-since window: %v", since)
			return 0, nil
		},
		listCompletedSince: func(since time.Time, limit int) ([]*model.Job, error) {
			assert.Equal(t, 100, limit)
			return []*model.Job{{StartedAt: &started, CompletedAt: &completed}}, nil
		},
	}

	snap, err := newTestService(jobs, nil, nil).BuildSnapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(4), snap.Metrics.ActiveNow)
	assert.Equal(t, int64(30), snap.Metrics.CompletedToday)
	assert.Equal(t, int64(12), snap.Metrics.FailedToday)
	assert.Equal(t, 96, snap.Metrics.SuccessRate) // round(50/52*100)
	assert.Equal(t, int64(90000), snap.Metrics.AvgDurationMs)
	assert.Equal(t, int64(7), snap.Metrics.ThroughputPerHour)

	// 12 failures today with a healthy success rate: degraded.
	assert.Equal(t, model.HealthDegraded, snap.Health)
}

func TestBuildSnapshot_QueueTotalsAndHealth(t *testing.T) {
	queues := &fakeQueueStats{perQueue: map[string]model.QueueCounts{
		model.QueueContent: {Waiting: 120, Active: 2, Completed: 10, Delayed: 1},
		model.QueueSEO:     {Failed: 15, Completed: 5},
		model.QueueGSC:     {Paused: true, Waiting: 3},
		model.QueueSite:    {Waiting: 7, Active: 1},
	}}

	snap, err := newTestService(&fakeJobStore{}, queues, nil).BuildSnapshot(context.Background())
	require.NoError(t, err)

	require.Len(t, snap.Queues, 7)
	byName := make(map[string]model.QueueSnapshot)
	for _, q := range snap.Queues {
		byName[q.Name] = q
	}

	assert.Equal(t, model.QueueHealthWarning, byName[model.QueueContent].Health)
	assert.Equal(t, model.QueueHealthCritical, byName[model.QueueSEO].Health)
	assert.Equal(t, model.QueueHealthPaused, byName[model.QueueGSC].Health)
	assert.Equal(t, model.QueueHealthHealthy, byName[model.QueueSite].Health)

	assert.Equal(t, model.QueueTotals{Waiting: 130, Active: 3, Completed: 15, Failed: 15, Delayed: 1}, snap.QueueTotals)
}

func TestBuildSnapshot_QueueBackendDown(t *testing.T) {
	queues := &fakeQueueStats{err: errors.New("redis unreachable")}

	snap, err := newTestService(&fakeJobStore{}, queues, nil).BuildSnapshot(context.Background())
	require.NoError(t, err)

	require.Len(t, snap.Queues, 7)
	for _, q := range snap.Queues {
		assert.Equal(t, 0, q.Waiting)
		assert.Equal(t, 0, q.Active)
		assert.Equal(t, 0, q.Failed)
		assert.False(t, q.Paused)
		assert.Equal(t, model.QueueHealthHealthy, q.Health)
	}
	assert.Equal(t, model.QueueTotals{}, snap.QueueTotals)
}

func TestBuildSnapshot_BreakerOutageDefaultsEmpty(t *testing.T) {
	breakers := &fakeBreakers{err: errors.New("status store down")}

	snap, err := newTestService(&fakeJobStore{}, nil, breakers).BuildSnapshot(context.Background())
	require.NoError(t, err)

	require.NotNil(t, snap.CircuitBreakers)
	assert.Empty(t, snap.CircuitBreakers)
	// The outage contributes zero open circuits to the verdict.
	assert.Equal(t, model.HealthHealthy, snap.Health)
}

func TestBuildSnapshot_OpenCircuits(t *testing.T) {
	breakers := &fakeBreakers{statuses: map[string]model.BreakerStatus{
		"booking-api": {State: model.BreakerOpen},
		"gsc":         {State: model.BreakerOpen},
		"dns":         {State: model.BreakerClosed},
	}}

	snap, err := newTestService(&fakeJobStore{}, nil, breakers).BuildSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.HealthCritical, snap.Health)
	assert.Len(t, snap.CircuitBreakers, 3)
}

func TestBuildSnapshot_CoreStatsFatal(t *testing.T) {
	jobs := &fakeJobStore{
		countByStatus: func(model.JobStatus) (int64, error) {
			return 0, errors.New("mysql gone")
		},
	}

	snap, err := newTestService(jobs, nil, nil).BuildSnapshot(context.Background())
	require.Error(t, err)
	assert.Nil(t, snap)
}

func TestBuildSnapshot_RecentFailures(t *testing.T) {
	longError := strings.Repeat("e", 250)
	site := "Lisbon Tours"
	failedAt := testNow.Add(-10 * time.Minute)

	jobs := &fakeJobStore{
		recentFailures: func(limit int) ([]*model.Job, error) {
			assert.Equal(t, 10, limit)
			return []*model.Job{
				{ID: "j1", Type: model.JobTypeContentRefresh, Error: &longError, Attempts: 3, SiteName: &site, UpdatedAt: failedAt},
				{ID: "j2", Type: model.JobTypeGSCSync, Error: nil, Attempts: 1, UpdatedAt: failedAt},
			}, nil
		},
	}

	snap, err := newTestService(jobs, nil, nil).BuildSnapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.RecentFailures, 2)

	first := snap.RecentFailures[0]
	require.NotNil(t, first.Error)
	assert.Len(t, []rune(*first.Error), 200)
	assert.Equal(t, &site, first.SiteName)
	assert.Equal(t, failedAt, first.FailedAt)

	// Missing error text stays null.
	assert.Nil(t, snap.RecentFailures[1].Error)
}

func TestBuildSnapshot_ScheduledJobs(t *testing.T) {
	lastCreated := testNow.Add(-9 * time.Hour)
	lastCompleted := testNow.Add(-8 * time.Hour)

	jobs := &fakeJobStore{
		latestByType: func(jobType model.JobType) (*model.Job, error) {
			switch jobType {
			case model.JobTypeContentRefresh:
				return &model.Job{
					Status:      model.JobStatusCompleted,
					CreatedAt:   lastCreated,
					CompletedAt: &lastCompleted,
				}, nil
			case model.JobTypeGSCSync:
				return nil, errors.New("store rejected type")
			}
			return nil, nil
		},
	}

	snap, err := newTestService(jobs, nil, nil).BuildSnapshot(context.Background())
	require.NoError(t, err)

	byLabel := make(map[string]model.ScheduledJob)
	for _, entry := range snap.ScheduledJobs {
		byLabel[entry.JobType] = entry
	}

	// Untracked worker-internal types never hit the store.
	for _, call := range jobs.latestCalls {
		assert.NotEqual(t, model.JobTypeAutonomousRoadmap, call)
		assert.NotEqual(t, model.JobTypeWeeklyBlogGenerate, call)
	}
	assert.Nil(t, byLabel["AUTONOMOUS_ROADMAP"].LastRun)
	assert.Nil(t, byLabel["WEEKLY_BLOG_GENERATE"].LastRun)

	// The deep variant is matched on the stripped type.
	deep, ok := byLabel["SEO_OPPORTUNITY_SCAN (deep)"]
	require.True(t, ok)
	assert.Contains(t, jobs.latestCalls, model.JobTypeSEOOpportunityScan)
	assert.Nil(t, deep.LastRun)

	// One failing lookup leaves only that entry empty.
	assert.Nil(t, byLabel["GSC_SYNC"].LastRun)
	refresh := byLabel["CONTENT_REFRESH"]
	require.NotNil(t, refresh.LastRun)
	assert.Equal(t, model.JobStatusCompleted, refresh.LastRun.Status)
	assert.Equal(t, lastCreated, refresh.LastRun.CreatedAt)
	require.NotNil(t, refresh.LastRun.CompletedAt)
	assert.Equal(t, lastCompleted, *refresh.LastRun.CompletedAt)

	// NextRun is populated for parseable schedules.
	require.NotNil(t, refresh.NextRun)
	assert.True(t, refresh.NextRun.After(testNow))
}
