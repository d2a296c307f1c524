package hwinfo

import (
	"sync"
	"time"
)

// BreakerState is the state of the refresh circuit breaker.
type BreakerState int

const (
	// BreakerClosed lets every polling cycle refresh the hardware.
	BreakerClosed BreakerState = iota
	// BreakerOpen skips polling cycles until the cool-down has elapsed.
	BreakerOpen
	// BreakerHalfOpen lets trial refreshes through to test recovery.
	BreakerHalfOpen
)

// String returns the string representation of the breaker state.
func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig tunes the circuit breaker that guards the polling thread.
// A refresh counts as failed when no hardware item could be updated, which
// is what an unreachable remote host looks like.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failed refreshes that
	// open the breaker. Default: 5
	FailureThreshold int

	// SuccessThreshold is the number of successful trial refreshes that
	// close it again. Default: 2
	SuccessThreshold int

	// CoolDown is how long the breaker stays open. Default: 30 seconds
	CoolDown time.Duration

	// OnStateChange is called asynchronously on every transition.
	OnStateChange func(from, to BreakerState)
}

// DefaultBreakerConfig returns the breaker defaults.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		CoolDown:         30 * time.Second,
	}
}

// BreakerStats is a point-in-time copy of the breaker counters.
type BreakerStats struct {
	State         BreakerState
	Failures      int
	TotalFailures int64
	TotalSkipped  int64
	LastFailure   time.Time
	LastError     error
}

// breaker stops the poller from hammering a source that keeps failing.
type breaker struct {
	config BreakerConfig
	now    func() time.Time

	mu            sync.Mutex
	state         BreakerState
	failures      int
	successes     int
	totalFailures int64
	totalSkipped  int64
	lastFailure   time.Time
	lastErr       error
}

func newBreaker(config BreakerConfig) *breaker {
	def := DefaultBreakerConfig()
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = def.FailureThreshold
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = def.SuccessThreshold
	}
	if config.CoolDown <= 0 {
		config.CoolDown = def.CoolDown
	}
	return &breaker{config: config, now: time.Now}
}

// allow reports whether the next refresh may run. Rejected cycles are
// counted as skipped.
func (b *breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == BreakerOpen {
		if b.now().Sub(b.lastFailure) < b.config.CoolDown {
			b.totalSkipped++
			return false
		}
		b.transitionTo(BreakerHalfOpen)
	}
	return true
}

// record feeds the outcome of one refresh into the breaker.
func (b *breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		b.failures = 0
		if b.state == BreakerHalfOpen {
			b.successes++
			if b.successes >= b.config.SuccessThreshold {
				b.transitionTo(BreakerClosed)
			}
		}
		return
	}

	b.failures++
	b.totalFailures++
	b.lastFailure = b.now()
	b.lastErr = err

	switch b.state {
	case BreakerClosed:
		if b.failures >= b.config.FailureThreshold {
			b.transitionTo(BreakerOpen)
		}
	case BreakerHalfOpen:
		// Any failed trial reopens the breaker.
		b.transitionTo(BreakerOpen)
	}
}

func (b *breaker) stats() BreakerStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BreakerStats{
		State:         b.state,
		Failures:      b.failures,
		TotalFailures: b.totalFailures,
		TotalSkipped:  b.totalSkipped,
		LastFailure:   b.lastFailure,
		LastError:     b.lastErr,
	}
}

func (b *breaker) reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.transitionTo(BreakerClosed)
}

// transitionTo must be called with mu held.
func (b *breaker) transitionTo(next BreakerState) {
	if b.state == next {
		return
	}
	prev := b.state
	b.state = next
	b.successes = 0
	if b.config.OnStateChange != nil {
		go b.config.OnStateChange(prev, next)
	}
}
