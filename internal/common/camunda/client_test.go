package camunda

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"green-finance-risk/internal/common/logger"
)

func TestRetryWithBackoff(t *testing.T) {
	rc := &RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := retryWithBackoff(context.Background(), rc, logger.NewNoOpLogger(), "op", func() error {
			calls++
			if calls < 3 {
				return errors.New("connection refused")
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		calls := 0
		err := retryWithBackoff(context.Background(), rc, logger.NewNoOpLogger(), "op", func() error {
			calls++
			return errors.New("unavailable")
		})
		assert.ErrorContains(t, err, "op failed after 4 attempts")
		assert.Equal(t, 4, calls)
	})

	t.Run("stops when context is done", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		slow := &RetryConfig{MaxRetries: 5, BaseDelay: time.Hour}
		err := retryWithBackoff(ctx, slow, logger.NewNoOpLogger(), "op", func() error {
			return errors.New("unavailable")
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestNewClientWithConfig_RequiresAddress(t *testing.T) {
	_, err := NewClientWithConfig(context.Background(), &ClientConfig{}, logger.NewNoOpLogger())
	assert.Error(t, err)
}
