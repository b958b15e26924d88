package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type limitedErr struct{}

func (limitedErr) Error() string     { return "429 too many requests" }
func (limitedErr) RateLimited() bool { return true }

var errBoom = errors.New("boom")

func recordingPolicy(retries int, waits *[]time.Duration) Policy {
	return Policy{
		MaxRetries:   retries,
		InitialDelay: time.Millisecond,
		OnRetry: func(_ int, wait time.Duration, _ error) {
			*waits = append(*waits, wait)
		},
	}
}

func TestDoSucceedsFirstTry(t *testing.T) {
	calls := 0

	got, err := Do(context.Background(), Policy{MaxRetries: 3}, func(context.Context) (string, error) {
		calls++
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 1, calls)
}

func TestDoRateLimitBacksOffExponentially(t *testing.T) {
	var waits []time.Duration

	calls := 0

	got, err := Do(context.Background(), recordingPolicy(5, &waits), func(context.Context) (int, error) {
		calls++
		if calls <= 3 {
			return 0, limitedErr{}
		}

		return calls, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 4, got)
	assert.Equal(t, []time.Duration{time.Millisecond, 2 * time.Millisecond, 4 * time.Millisecond}, waits)
}

func TestDoOtherErrorsUseConstantDelay(t *testing.T) {
	var waits []time.Duration

	calls := 0

	_, err := Do(context.Background(), recordingPolicy(3, &waits), func(context.Context) (int, error) {
		calls++
		return 0, errBoom
	})

	require.ErrorIs(t, err, errBoom)
	assert.Equal(t, 4, calls)
	assert.Equal(t, []time.Duration{time.Millisecond, time.Millisecond, time.Millisecond}, waits)
}

func TestDoMixedErrors(t *testing.T) {
	var waits []time.Duration

	errs := []error{limitedErr{}, errBoom, limitedErr{}, nil}
	calls := 0

	_, err := Do(context.Background(), recordingPolicy(5, &waits), func(context.Context) (int, error) {
		e := errs[calls]
		calls++

		return 0, e
	})

	require.NoError(t, err)
	assert.Equal(t, []time.Duration{time.Millisecond, time.Millisecond, 2 * time.Millisecond}, waits)
}

func TestDoMaxDelayCapsBackoff(t *testing.T) {
	var waits []time.Duration

	p := recordingPolicy(4, &waits)
	p.MaxDelay = 2 * time.Millisecond

	_, err := Do(context.Background(), p, func(context.Context) (int, error) {
		return 0, limitedErr{}
	})

	require.Error(t, err)
	assert.True(t, IsRateLimited(err))
	assert.Equal(t, []time.Duration{time.Millisecond, 2 * time.Millisecond, 2 * time.Millisecond, 2 * time.Millisecond}, waits)
}

func TestDoReturnsLastValue(t *testing.T) {
	calls := 0

	got, err := Do(context.Background(), Policy{MaxRetries: 2}, func(context.Context) (int, error) {
		calls++
		return calls * 10, errBoom
	})

	require.ErrorIs(t, err, errBoom)
	assert.Equal(t, 30, got)
}

func TestDoStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0

	_, err := Do(ctx, Policy{MaxRetries: 10, InitialDelay: time.Hour}, func(context.Context) (int, error) {
		calls++
		cancel()

		return 0, errBoom
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDoPermanentErrorStopsRetries(t *testing.T) {
	var waits []time.Duration

	calls := 0

	_, err := Do(context.Background(), recordingPolicy(5, &waits), func(context.Context) (int, error) {
		calls++

		return 0, Permanent(errBoom)
	})

	require.ErrorIs(t, err, errBoom)
	assert.NotErrorAs(t, err, new(*PermanentError))
	assert.Equal(t, 1, calls)
	assert.Empty(t, waits)
}

func TestPermanentNil(t *testing.T) {
	assert.NoError(t, Permanent(nil))
}

func TestIsRateLimited(t *testing.T) {
	assert.True(t, IsRateLimited(limitedErr{}))
	assert.True(t, IsRateLimited(errors.Join(errBoom, limitedErr{})))
	assert.False(t, IsRateLimited(errBoom))
	assert.False(t, IsRateLimited(nil))
}
