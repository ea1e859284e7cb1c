// Package ratelimit enforces the marketplace request budgets. Every account
// owns one Limiter; every Limiter owns one dual token bucket per resource
// class. Both the per-second and the per-minute window are enforced at once,
// whichever is tighter.
package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"emagsync_api/internal/core/models"
	"emagsync_api/metrics"
)

// Ceiling is one resource-class budget.
type Ceiling struct {
	PerSecond int
	PerMinute int
}

// Ceilings maps every resource class to its budget.
type Ceilings map[models.ResourceClass]Ceiling

// DefaultCeilings returns the documented marketplace budgets.
func DefaultCeilings() Ceilings {
	return Ceilings{
		models.ClassOrders:  {PerSecond: 12, PerMinute: 720},
		models.ClassDefault: {PerSecond: 3, PerMinute: 180},
	}
}

const (
	jitterMin = 20 * time.Millisecond
	jitterMax = 150 * time.Millisecond
)

// bucket combines the two windows of one resource class. The per-second
// limiter caps bursts, the per-minute limiter caps the rolling minute;
// together they never grant more than either ceiling.
type bucket struct {
	second *rate.Limiter
	minute *rate.Limiter
}

// Limiter is the per-account bucket set. Safe for concurrent use; waiting is
// first-come-first-served and a cancelled wait consumes no token.
type Limiter struct {
	account models.AccountName
	buckets map[models.ResourceClass]*bucket

	mu   sync.Mutex
	rand *rand.Rand
}

func NewLimiter(account models.AccountName, ceilings Ceilings) *Limiter {
	l := &Limiter{
		account: account,
		buckets: make(map[models.ResourceClass]*bucket, len(ceilings)),
		rand:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for class, c := range ceilings {
		// One second's worth of burst on the minute window keeps the
		// combined grant rate inside both ceilings.
		minuteBurst := c.PerMinute / 60
		if minuteBurst < 1 {
			minuteBurst = 1
		}
		l.buckets[class] = &bucket{
			second: rate.NewLimiter(rate.Limit(c.PerSecond), c.PerSecond),
			minute: rate.NewLimiter(rate.Every(time.Minute/time.Duration(c.PerMinute)), minuteBurst),
		}
	}
	return l
}

// Acquire blocks the calling goroutine until a token is available for the
// class, then applies a small random jitter so concurrently running jobs do
// not fire in lockstep. Unknown classes fall back to the default budget.
// Tokens are held as reservations until the grant completes: an abandoned
// wait, jitter window included, returns them to the buckets.
func (l *Limiter) Acquire(ctx context.Context, class models.ResourceClass) error {
	b, ok := l.buckets[class]
	if !ok {
		class = models.ClassDefault
		b = l.buckets[class]
	}

	start := time.Now()
	minuteRes := b.minute.Reserve()
	secondRes := b.second.Reserve()

	delay := minuteRes.Delay()
	if d := secondRes.Delay(); d > delay {
		delay = d
	}
	delay += jitterMin + time.Duration(l.randInt63n(int64(jitterMax-jitterMin)))

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		metrics.RecordLimiterWait(string(l.account), string(class), time.Since(start))
		return nil
	case <-ctx.Done():
		secondRes.Cancel()
		minuteRes.Cancel()
		return ctx.Err()
	}
}

// Penalize empties the local per-second estimate for the class. Called when
// the marketplace rejects a request for rate reasons despite a local grant,
// so the next attempts back off for roughly a full window.
func (l *Limiter) Penalize(class models.ResourceClass) {
	b, ok := l.buckets[class]
	if !ok {
		b = l.buckets[models.ClassDefault]
	}
	now := time.Now()
	b.second.AllowN(now, b.second.Burst())
	b.minute.AllowN(now, b.minute.Burst())
}

func (l *Limiter) randInt63n(n int64) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rand.Int63n(n)
}
