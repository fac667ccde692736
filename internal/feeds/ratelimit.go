// SPDX-FileCopyrightText: 2025 The Pacsea Authors
// SPDX-License-Identifier: EUPL-1.2

package feeds

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pacsea/pacsea/internal/logger"
	"golang.org/x/sync/semaphore"
)

const (
	initialBackoff = 500 * time.Millisecond
	maxBackoff     = 60 * time.Second
)

// Limiter serializes requests per host and applies exponential backoff
// per source. One permit per host keeps concurrent tasks from piling
// onto archlinux.org even when their delays have elapsed.
type Limiter struct {
	mu    sync.Mutex
	hosts map[string]*semaphore.Weighted
	next  map[string]time.Time
	bo    map[string]*backoff.ExponentialBackOff
	delay map[string]time.Duration
	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// NewLimiter builds a limiter with one permit per host.
func NewLimiter() *Limiter {
	return &Limiter{
		hosts: make(map[string]*semaphore.Weighted),
		next:  make(map[string]time.Time),
		bo:    make(map[string]*backoff.ExponentialBackOff),
		delay: make(map[string]time.Duration),
		now:   time.Now,
		sleep: sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (l *Limiter) host(name string) *semaphore.Weighted {
	l.mu.Lock()
	defer l.mu.Unlock()

	sem, ok := l.hosts[name]
	if !ok {
		sem = semaphore.NewWeighted(1)
		l.hosts[name] = sem
	}

	return sem
}

func (l *Limiter) backoffFor(source string) *backoff.ExponentialBackOff {
	// Caller holds l.mu.
	b, ok := l.bo[source]
	if !ok {
		b = backoff.NewExponentialBackOff()
		b.InitialInterval = initialBackoff
		b.MaxInterval = maxBackoff
		b.Multiplier = 2
		b.RandomizationFactor = 0
		b.MaxElapsedTime = 0 // never give up; the caller decides
		b.Reset()
		l.bo[source] = b
	}

	return b
}

// Acquire takes the host permit and waits out any backoff window for
// the source. Release must be called when the HTTP call completes.
func (l *Limiter) Acquire(ctx context.Context, host, source string) error {
	if err := l.host(host).Acquire(ctx, 1); err != nil {
		return err
	}

	l.mu.Lock()
	wait := l.next[source].Sub(l.now())
	l.mu.Unlock()

	if err := l.sleep(ctx, wait); err != nil {
		l.host(host).Release(1)

		return err
	}

	return nil
}

// Release returns the host permit.
func (l *Limiter) Release(host string) {
	l.host(host).Release(1)
}

// Failure records a failed request. retryAfter is the server-provided
// minimum delay in seconds (0 when absent); when present it wins over
// the doubled backoff. Returns the delay applied.
func (l *Limiter) Failure(source string, retryAfter int) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	delay := l.backoffFor(source).NextBackOff()
	if delay > maxBackoff || delay < 0 {
		delay = maxBackoff
	}

	if serverDelay := time.Duration(retryAfter) * time.Second; serverDelay > delay {
		delay = serverDelay
	}

	// Backoff durations never shrink without an intervening success.
	if delay < l.delay[source] {
		delay = l.delay[source]
	}

	l.delay[source] = delay
	l.next[source] = l.now().Add(delay)

	logger.Warn("feed fetch backoff", logger.Fields{"source": source, "delay": delay, "retry_after": retryAfter})

	return delay
}

// Success resets the backoff state of a source.
func (l *Limiter) Success(source string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.backoffFor(source).Reset()
	l.delay[source] = 0
	l.next[source] = time.Time{}
}

// NextAllowed reports the earliest time a request for source may be
// issued.
func (l *Limiter) NextAllowed(source string) time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.next[source]
}

// SetClock injects a fake clock and sleep for tests.
func (l *Limiter) SetClock(now func() time.Time, sleep func(context.Context, time.Duration) error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
	l.sleep = sleep
}
