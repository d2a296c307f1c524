// Package bench times repeated hardware queries and reports how often their
// results changed.
package bench

import "time"

// Stopwatch measures elapsed time across one or more start/stop intervals.
type Stopwatch struct {
	now     func() time.Time
	started time.Time
	elapsed time.Duration
	running bool
}

// NewStopwatch returns a stopped Stopwatch reading the wall clock.
func NewStopwatch() *Stopwatch {
	return &Stopwatch{now: time.Now}
}

// StartNew returns a running Stopwatch.
func StartNew() *Stopwatch {
	sw := NewStopwatch()
	sw.Start()
	return sw
}

// Start begins or resumes timing. Starting a running stopwatch is a no-op.
func (sw *Stopwatch) Start() {
	if sw.running {
		return
	}
	sw.started = sw.now()
	sw.running = true
}

// Stop ends the current interval and adds it to the elapsed total.
func (sw *Stopwatch) Stop() {
	if !sw.running {
		return
	}
	sw.elapsed += sw.now().Sub(sw.started)
	sw.running = false
}

// Elapsed returns the total measured time, including a running interval.
func (sw *Stopwatch) Elapsed() time.Duration {
	if sw.running {
		return sw.elapsed + sw.now().Sub(sw.started)
	}
	return sw.elapsed
}

// Running reports whether an interval is open.
func (sw *Stopwatch) Running() bool {
	return sw.running
}

// Reset stops the stopwatch and clears the elapsed time.
func (sw *Stopwatch) Reset() {
	sw.elapsed = 0
	sw.running = false
}
