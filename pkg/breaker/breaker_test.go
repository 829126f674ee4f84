package breaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"tripops/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T, threshold int, cooldown time.Duration) *Registry {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRegistry(client, []string{"booking-api", "gsc"}, threshold, cooldown)
}

var errUpstream = errors.New("upstream boom")

func TestDo_UnknownService(t *testing.T) {
	reg := newTestRegistry(t, 3, time.Minute)

	err := reg.Do(context.Background(), "nope", func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrUnknownService)
}

func TestDo_OpensAfterThreshold(t *testing.T) {
	reg := newTestRegistry(t, 3, time.Minute)
	ctx := context.Background()

	fail := func(ctx context.Context) error { return errUpstream }
	for i := 0; i < 3; i++ {
		err := reg.Do(ctx, "booking-api", fail)
		assert.ErrorIs(t, err, errUpstream)
	}

	// Breaker is open now; fn must not be invoked.
	called := false
	err := reg.Do(ctx, "booking-api", func(ctx context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)

	statuses, err := reg.AllStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.BreakerOpen, statuses["booking-api"].State)
	assert.Equal(t, int64(3), statuses["booking-api"].Metrics.Failures)
}

func TestDo_SuccessResetsStreak(t *testing.T) {
	reg := newTestRegistry(t, 3, time.Minute)
	ctx := context.Background()

	fail := func(ctx context.Context) error { return errUpstream }
	ok := func(ctx context.Context) error { return nil }

	require.Error(t, reg.Do(ctx, "booking-api", fail))
	require.Error(t, reg.Do(ctx, "booking-api", fail))
	require.NoError(t, reg.Do(ctx, "booking-api", ok))
	require.Error(t, reg.Do(ctx, "booking-api", fail))
	require.Error(t, reg.Do(ctx, "booking-api", fail))

	// Streak never reached 3 in a row, breaker stays closed.
	statuses, err := reg.AllStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.BreakerClosed, statuses["booking-api"].State)
	assert.Equal(t, int64(4), statuses["booking-api"].Metrics.Failures)
	assert.Equal(t, int64(1), statuses["booking-api"].Metrics.Successes)
}

func TestDo_HalfOpenTrialClosesOnSuccess(t *testing.T) {
	reg := newTestRegistry(t, 1, 20*time.Millisecond)
	ctx := context.Background()

	require.Error(t, reg.Do(ctx, "gsc", func(ctx context.Context) error { return errUpstream }))
	assert.ErrorIs(t, reg.Do(ctx, "gsc", func(ctx context.Context) error { return nil }), ErrOpen)

	// Wait out the cooldown; the trial call should run and close the breaker.
	time.Sleep(40 * time.Millisecond)
	require.NoError(t, reg.Do(ctx, "gsc", func(ctx context.Context) error { return nil }))

	statuses, err := reg.AllStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.BreakerClosed, statuses["gsc"].State)
}

func TestDo_HalfOpenTrialReopensOnFailure(t *testing.T) {
	reg := newTestRegistry(t, 1, 20*time.Millisecond)
	ctx := context.Background()

	require.Error(t, reg.Do(ctx, "gsc", func(ctx context.Context) error { return errUpstream }))

	time.Sleep(40 * time.Millisecond)
	require.Error(t, reg.Do(ctx, "gsc", func(ctx context.Context) error { return errUpstream }))

	// Trial failed, immediately rejected again.
	assert.ErrorIs(t, reg.Do(ctx, "gsc", func(ctx context.Context) error { return nil }), ErrOpen)
}

func TestReset(t *testing.T) {
	reg := newTestRegistry(t, 1, time.Minute)
	ctx := context.Background()

	require.Error(t, reg.Do(ctx, "booking-api", func(ctx context.Context) error { return errUpstream }))

	require.NoError(t, reg.Reset(ctx, "booking-api"))

	statuses, err := reg.AllStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.BreakerClosed, statuses["booking-api"].State)
	assert.Equal(t, int64(0), statuses["booking-api"].Metrics.Failures)

	assert.ErrorIs(t, reg.Reset(ctx, "nope"), ErrUnknownService)
}

func TestAllStatus_DefaultsClosed(t *testing.T) {
	reg := newTestRegistry(t, 3, time.Minute)

	statuses, err := reg.AllStatus(context.Background())
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	for _, status := range statuses {
		assert.Equal(t, model.BreakerClosed, status.State)
		assert.Equal(t, int64(0), status.Metrics.Failures)
		assert.Equal(t, int64(0), status.Metrics.Successes)
	}
}
