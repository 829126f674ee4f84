package jobs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"tripops/pkg/breaker"
	"tripops/pkg/config"
	"tripops/pkg/logger"
)

// ProbeJob periodically pings each configured external service through its
// circuit breaker, so breaker state reflects upstream reachability even when
// no worker traffic is flowing.
type ProbeJob struct {
	breakers *breaker.Registry
	services []config.ProbeService
	interval time.Duration
	client   *http.Client
}

// NewProbeJob creates the external service probe job.
func NewProbeJob(breakers *breaker.Registry, cfg config.ProbeConfig) *ProbeJob {
	return &ProbeJob{
		breakers: breakers,
		services: cfg.Services,
		interval: time.Duration(cfg.IntervalSeconds) * time.Second,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}
}

func (j *ProbeJob) Name() string {
	return "external-service-probe"
}

func (j *ProbeJob) Interval() time.Duration {
	return j.interval
}

// Run probes every configured service. A probe that fails or comes back with
// a 5xx counts as a breaker failure; anything else counts as a success. An
// already-open breaker skips the request entirely.
func (j *ProbeJob) Run(ctx context.Context) error {
	for _, svc := range j.services {
		err := j.breakers.Do(ctx, svc.Name, func(ctx context.Context) error {
			return j.probe(ctx, svc.URL)
		})
		switch {
		case errors.Is(err, breaker.ErrOpen):
			logger.DebugCtx(ctx, "probe skipped, breaker open, service: %s", svc.Name)
		case err != nil:
			logger.WarnCtx(ctx, "probe failed, service: %s, err: %v", svc.Name, err)
		}
	}
	return nil
}

func (j *ProbeJob) probe(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := j.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("service responded %d", resp.StatusCode)
	}
	return nil
}
