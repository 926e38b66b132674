package backoff

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return fmt.Errorf("transient")
		}
		return nil
	}, func(error) bool { return true })

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryStopsOnNonRetryableError(t *testing.T) {
	calls := 0
	fatal := fmt.Errorf("fatal")
	err := Retry(context.Background(), 5, time.Millisecond, func() error {
		calls++
		return fatal
	}, func(error) bool { return false })

	assert.Equal(t, fatal, err)
	assert.Equal(t, 1, calls)
}

func TestRetryExhaustsBudget(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		return fmt.Errorf("attempt %d", calls)
	}, func(error) bool { return true })

	require.EqualError(t, err, "attempt 3")
	assert.Equal(t, 3, calls)
}

func TestRetryAbandonsWaitOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	start := time.Now()
	err := Retry(ctx, 5, time.Hour, func() error {
		calls++
		cancel()
		return fmt.Errorf("transient")
	}, func(error) bool { return true })

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Less(t, time.Since(start), time.Second)
}
