package bench

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// QueryFunc returns one rendering of the queried hardware report.
type QueryFunc func() (string, error)

// Runner repeats a query, sleeping Delay before each call and timing only
// the call itself.
type Runner struct {
	// Label names the report in output, e.g. "CPU Info".
	Label string
	// Iterations is the number of timed calls.
	Iterations int
	// Delay is slept before every call.
	Delay time.Duration
	// Query is the call being timed.
	Query QueryFunc
	// OnIteration, if set, is called after every timed call.
	OnIteration func(i int, elapsed time.Duration, changed bool)

	newStopwatch func() *Stopwatch
	sleep        func(ctx context.Context, d time.Duration) error
}

// ErrNoQuery is returned by Run when Query is nil.
var ErrNoQuery = errors.New("bench: no query function")

// Run executes the loop. The first result counts as a change, since it
// differs from the empty previous result. Run stops at the first failing
// query or when ctx is canceled.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if r.Query == nil {
		return nil, ErrNoQuery
	}
	if r.Iterations <= 0 {
		return nil, fmt.Errorf("bench: iterations must be positive, got %d", r.Iterations)
	}

	newStopwatch := r.newStopwatch
	if newStopwatch == nil {
		newStopwatch = NewStopwatch
	}
	sleep := r.sleep
	if sleep == nil {
		sleep = sleepContext
	}

	res := &Result{Label: r.Label, Iterations: r.Iterations}
	previous := ""
	for i := 0; i < r.Iterations; i++ {
		if err := sleep(ctx, r.Delay); err != nil {
			return res, err
		}

		sw := newStopwatch()
		sw.Start()
		out, err := r.Query()
		sw.Stop()
		if err != nil {
			return res, fmt.Errorf("iteration %d: %w", i+1, err)
		}

		changed := out != previous
		if changed {
			res.Changes++
			previous = out
		}
		res.record(sw.Elapsed())

		if r.OnIteration != nil {
			r.OnIteration(i, sw.Elapsed(), changed)
		}
	}
	return res, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
