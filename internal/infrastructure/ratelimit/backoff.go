// Package ratelimit tracks upstream throttling per operation and
// computes exponential backoff windows so callers can degrade to stale
// cache instead of hammering the provider.
package ratelimit

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"leadhub/internal/domain"
)

const (
	baseDelay  = 1 * time.Second
	maxDelay   = 8 * time.Second
	multiplier = 2
	// limitedThreshold is the attempt count after which an operation
	// is considered actively rate-limited.
	limitedThreshold = 3
)

// opState is the throttle bookkeeping for one operation key.
type opState struct {
	attempts   int
	resetAt    time.Time
	retryAfter time.Duration
}

// Backoff implements domain.BackoffHandler. State is per-process and
// best-effort; see DESIGN.md for the single-instance decision.
type Backoff struct {
	mu     sync.Mutex
	ops    map[string]*opState
	logger *slog.Logger

	now func() time.Time
}

// NewBackoff creates a backoff handler.
func NewBackoff(logger *slog.Logger) *Backoff {
	return &Backoff{
		ops:    make(map[string]*opState),
		logger: logger,
		now:    time.Now,
	}
}

// RecordRateLimit notes a throttled response for op. A positive
// retryAfter from the server overrides the computed delay.
func (b *Backoff) RecordRateLimit(op string, retryAfter time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	st, ok := b.ops[op]
	if !ok {
		st = &opState{}
		b.ops[op] = st
	}
	st.attempts++
	st.retryAfter = retryAfter

	delay := computeDelay(st.attempts)
	if retryAfter > 0 {
		delay = retryAfter
	}
	st.resetAt = b.now().Add(delay)

	b.logger.Warn("rate limit recorded",
		"operation", op,
		"attempt", st.attempts,
		"delay_ms", delay.Milliseconds())
}

// RecordSuccess clears throttle state for op.
func (b *Backoff) RecordSuccess(op string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.ops, op)
}

// IsRateLimited reports whether op is inside an active backoff window.
// The window opens once the attempt count reaches the threshold and
// auto-clears when the reset time passes.
func (b *Backoff) IsRateLimited(op string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	st, ok := b.ops[op]
	if !ok {
		return false
	}
	if b.now().After(st.resetAt) {
		delete(b.ops, op)
		return false
	}
	return st.attempts >= limitedThreshold
}

// Delay returns the current backoff delay for op.
func (b *Backoff) Delay(op string) time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	st, ok := b.ops[op]
	if !ok {
		return 0
	}
	if st.retryAfter > 0 {
		return st.retryAfter
	}
	return computeDelay(st.attempts)
}

// computeDelay grows the delay exponentially and caps it.
func computeDelay(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	delay := baseDelay
	for i := 1; i < attempts; i++ {
		delay *= multiplier
		if delay >= maxDelay {
			return maxDelay
		}
	}
	if delay > maxDelay {
		return maxDelay
	}
	return delay
}

// IsRateLimitSignal classifies an upstream response as throttling.
// Providers signal it inconsistently: a 429 status, an error code, or
// a message substring.
func IsRateLimitSignal(statusCode int, errCode, message string) bool {
	if statusCode == http.StatusTooManyRequests {
		return true
	}
	if errCode == "rate_limit_exceeded" {
		return true
	}
	msg := strings.ToLower(message)
	return strings.Contains(msg, "rate limit") || strings.Contains(msg, "too many requests")
}

var _ domain.BackoffHandler = (*Backoff)(nil)
