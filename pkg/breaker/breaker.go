// Package breaker guards calls to external services with per-service circuit
// breakers. State lives in Redis so every replica of the service sees the
// same verdicts.
package breaker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"tripops/internal/model"
	"tripops/pkg/logger"

	"github.com/go-redis/redis/v8"
)

// ErrOpen is returned when a call is rejected because the breaker is open.
var ErrOpen = errors.New("circuit open")

// ErrUnknownService is returned for services the registry was not configured with.
var ErrUnknownService = errors.New("unknown service")

const keyPrefix = "breaker:"

// Hash fields per service.
const (
	fieldState     = "state"
	fieldOpenedAt  = "opened_at"
	fieldFailures  = "failures"
	fieldSuccesses = "successes"
	fieldStreak    = "streak" // consecutive failures since last success
)

// Registry tracks one breaker per configured external service.
type Registry struct {
	rdb       *redis.Client
	services  map[string]struct{}
	ordered   []string
	threshold int64
	cooldown  time.Duration
}

// NewRegistry creates a breaker registry for the given service names.
func NewRegistry(rdb *redis.Client, services []string, failureThreshold int, cooldown time.Duration) *Registry {
	known := make(map[string]struct{}, len(services))
	for _, name := range services {
		known[name] = struct{}{}
	}
	return &Registry{
		rdb:       rdb,
		services:  known,
		ordered:   append([]string(nil), services...),
		threshold: int64(failureThreshold),
		cooldown:  cooldown,
	}
}

// Do runs fn through the service's breaker. While the breaker is open and the
// cooldown has not elapsed, fn is not invoked and ErrOpen is returned; after
// the cooldown one trial call is let through. If the breaker state itself
// cannot be read, the call proceeds unguarded.
func (r *Registry) Do(ctx context.Context, service string, fn func(ctx context.Context) error) error {
	if _, ok := r.services[service]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownService, service)
	}

	state, openedAt, err := r.loadState(ctx, service)
	if err != nil {
		logger.WarnCtx(ctx, "breaker state unavailable for %s, calling unguarded: %v", service, err)
		return fn(ctx)
	}

	if state == model.BreakerOpen {
		if time.Since(openedAt) < r.cooldown {
			return fmt.Errorf("%w: %s", ErrOpen, service)
		}
		// Cooldown elapsed: half-open trial.
		state = model.BreakerHalfOpen
		r.setState(ctx, service, model.BreakerHalfOpen, time.Time{})
	}

	if err := fn(ctx); err != nil {
		r.recordFailure(ctx, service, state)
		return err
	}
	r.recordSuccess(ctx, service, state)
	return nil
}

// AllStatus returns the current status of every registered breaker.
func (r *Registry) AllStatus(ctx context.Context) (map[string]model.BreakerStatus, error) {
	statuses := make(map[string]model.BreakerStatus, len(r.ordered))
	for _, service := range r.ordered {
		fields, err := r.rdb.HGetAll(ctx, keyPrefix+service).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to read breaker state for %s: %w", service, err)
		}
		statuses[service] = model.BreakerStatus{
			State: stateOrClosed(fields[fieldState]),
			Metrics: model.BreakerMetrics{
				Failures:  parseCounter(fields[fieldFailures]),
				Successes: parseCounter(fields[fieldSuccesses]),
			},
		}
	}
	return statuses, nil
}

// Reset closes the breaker for one service and clears its counters.
func (r *Registry) Reset(ctx context.Context, service string) error {
	if _, ok := r.services[service]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownService, service)
	}
	if err := r.rdb.Del(ctx, keyPrefix+service).Err(); err != nil {
		return fmt.Errorf("failed to reset breaker for %s: %w", service, err)
	}
	logger.InfoCtx(ctx, "circuit breaker reset, service: %s", service)
	return nil
}

func (r *Registry) loadState(ctx context.Context, service string) (string, time.Time, error) {
	fields, err := r.rdb.HGetAll(ctx, keyPrefix+service).Result()
	if err != nil {
		return "", time.Time{}, err
	}

	state := stateOrClosed(fields[fieldState])
	var openedAt time.Time
	if raw := fields[fieldOpenedAt]; raw != "" {
		if unix, err := strconv.ParseInt(raw, 10, 64); err == nil {
			openedAt = time.Unix(unix, 0)
		}
	}
	return state, openedAt, nil
}

func (r *Registry) setState(ctx context.Context, service, state string, openedAt time.Time) {
	values := map[string]interface{}{fieldState: state}
	if !openedAt.IsZero() {
		values[fieldOpenedAt] = openedAt.Unix()
	}
	if err := r.rdb.HSet(ctx, keyPrefix+service, values).Err(); err != nil {
		logger.WarnCtx(ctx, "failed to persist breaker state for %s: %v", service, err)
	}
}

func (r *Registry) recordFailure(ctx context.Context, service, state string) {
	key := keyPrefix + service
	if err := r.rdb.HIncrBy(ctx, key, fieldFailures, 1).Err(); err != nil {
		logger.WarnCtx(ctx, "failed to record breaker failure for %s: %v", service, err)
		return
	}
	streak, err := r.rdb.HIncrBy(ctx, key, fieldStreak, 1).Result()
	if err != nil {
		return
	}

	// A failed half-open trial reopens immediately; a closed breaker opens
	// once the failure streak reaches the threshold.
	if state == model.BreakerHalfOpen || streak >= r.threshold {
		r.setState(ctx, service, model.BreakerOpen, time.Now())
		logger.WarnCtx(ctx, "circuit breaker opened, service: %s, streak: %d", service, streak)
	}
}

func (r *Registry) recordSuccess(ctx context.Context, service, state string) {
	key := keyPrefix + service
	if err := r.rdb.HIncrBy(ctx, key, fieldSuccesses, 1).Err(); err != nil {
		logger.WarnCtx(ctx, "failed to record breaker success for %s: %v", service, err)
		return
	}
	r.rdb.HSet(ctx, key, fieldStreak, 0)

	if state != model.BreakerClosed {
		r.setState(ctx, service, model.BreakerClosed, time.Time{})
		logger.InfoCtx(ctx, "circuit breaker closed, service: %s", service)
	}
}

func stateOrClosed(raw string) string {
	switch raw {
	case model.BreakerOpen, model.BreakerHalfOpen, model.BreakerClosed:
		return raw
	default:
		return model.BreakerClosed
	}
}

func parseCounter(raw string) int64 {
	if raw == "" {
		return 0
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
