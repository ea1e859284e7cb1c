package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emagsync_api/internal/core/models"
)

func TestAcquireRespectsCeilingUnderConcurrency(t *testing.T) {
	limiter := NewLimiter(models.AccountMain, Ceilings{
		models.ClassDefault: {PerSecond: 3, PerMinute: 180},
		models.ClassOrders:  {PerSecond: 12, PerMinute: 720},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var granted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if err := limiter.Acquire(ctx, models.ClassDefault); err != nil {
					return
				}
				granted.Add(1)
			}
		}()
	}
	wg.Wait()

	// A full bucket plus two seconds of refill at 3 req/s can never exceed
	// nine grants inside the observation window.
	assert.LessOrEqual(t, granted.Load(), int32(9))
	assert.Greater(t, granted.Load(), int32(0))
}

func TestAcquireCancelledWaitConsumesNoToken(t *testing.T) {
	limiter := NewLimiter(models.AccountFBE, Ceilings{
		models.ClassDefault: {PerSecond: 1, PerMinute: 60},
	})

	// Drain the bucket.
	require.NoError(t, limiter.Acquire(context.Background(), models.ClassDefault))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- limiter.Acquire(ctx, models.ClassDefault)
	}()
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled Acquire did not return")
	}

	// The abandoned wait must not have consumed the next token: a fresh
	// acquire still succeeds within the refill horizon.
	ctx2, cancel2 := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel2()
	require.NoError(t, limiter.Acquire(ctx2, models.ClassDefault))
}

func TestCancelDuringJitterWindowRefundsTokens(t *testing.T) {
	limiter := NewLimiter(models.AccountMain, Ceilings{
		models.ClassDefault: {PerSecond: 1, PerMinute: 60},
	})

	// Cancel while the grant sits in the jitter window, after the buckets
	// already handed out their tokens.
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()
	require.ErrorIs(t, limiter.Acquire(ctx, models.ClassDefault), context.Canceled)

	// With the tokens refunded a fresh acquire needs only the jitter window;
	// an unrefunded bucket at 1 req/s would blow the deadline.
	ctx2, cancel2 := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel2()
	require.NoError(t, limiter.Acquire(ctx2, models.ClassDefault))
}

func TestUnknownClassFallsBackToDefault(t *testing.T) {
	limiter := NewLimiter(models.AccountMain, DefaultCeilings())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, limiter.Acquire(ctx, models.ResourceClass("campaigns")))
}

func TestPenalizeDelaysNextGrant(t *testing.T) {
	limiter := NewLimiter(models.AccountMain, Ceilings{
		models.ClassDefault: {PerSecond: 2, PerMinute: 120},
	})
	limiter.Penalize(models.ClassDefault)

	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	require.NoError(t, limiter.Acquire(ctx, models.ClassDefault))
	assert.GreaterOrEqual(t, time.Since(start), 200*time.Millisecond)
}
