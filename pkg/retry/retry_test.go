package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/code-payments/custody-server/pkg/retry/backoff"
)

func TestRetry_RealSleep(t *testing.T) {
	start := time.Now()
	attempts, err := Retry(
		func() error { return errUnavailable },
		Limit(3),
		Backoff(backoff.Constant(100*time.Millisecond), time.Second),
	)
	elapsed := time.Since(start)

	assert.Equal(t, errUnavailable, err)
	assert.EqualValues(t, 3, attempts)
	assert.GreaterOrEqual(t, int64(elapsed), int64(200*time.Millisecond))
	assert.Less(t, int64(elapsed), int64(time.Second))
}

func TestRetrier(t *testing.T) {
	recordSleeps(t)

	fatal := errors.New("fatal")
	r := NewRetrier(Limit(4), NonRetriableErrors(fatal), Backoff(backoff.Constant(time.Second), time.Second))

	attempts, err := r.Retry(func() error { return nil })
	assert.NoError(t, err)
	assert.EqualValues(t, 1, attempts)

	attempts, err = r.Retry(func() error { return fatal })
	assert.Equal(t, fatal, err)
	assert.EqualValues(t, 1, attempts)

	var calls int
	attempts, err = r.Retry(func() error {
		calls++
		if calls == 3 {
			return nil
		}
		return errUnavailable
	})
	assert.NoError(t, err)
	assert.EqualValues(t, 3, attempts)

	attempts, err = r.Retry(func() error { return errUnavailable })
	assert.Equal(t, errUnavailable, err)
	assert.EqualValues(t, 4, attempts)
}

func TestRetry_Context(t *testing.T) {
	slept := recordSleeps(t)

	ctx, cancel := context.WithCancel(context.Background())
	attempts, err := Retry(
		func() error {
			if len(*slept) == 3 {
				cancel()
			}
			return errUnavailable
		},
		Context(ctx),
		Backoff(backoff.Constant(time.Millisecond), time.Second),
	)
	assert.Equal(t, errUnavailable, err)
	assert.EqualValues(t, 4, attempts)
	assert.Len(t, *slept, 3)
}
