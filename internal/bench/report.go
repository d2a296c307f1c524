package bench

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Result holds the timings of one Runner.Run.
type Result struct {
	Label      string
	Iterations int
	// Completed counts timed calls that returned; it is below Iterations
	// when Run stopped early.
	Completed int
	Changes   int
	Total     time.Duration
	Min       time.Duration
	Max       time.Duration
}

func (r *Result) record(d time.Duration) {
	if r.Completed == 0 || d < r.Min {
		r.Min = d
	}
	if d > r.Max {
		r.Max = d
	}
	r.Total += d
	r.Completed++
}

// Average returns the mean call duration over the completed iterations.
func (r *Result) Average() time.Duration {
	if r.Completed == 0 {
		return 0
	}
	return r.Total / time.Duration(r.Completed)
}

// WriteText writes the change count, the average call time in
// microseconds and the total call time in milliseconds:
//
//	CPU Info changed 100 times.
//	Average Execution Time: 152.31 µs
//	Execution Time: 15.23 ms
func (r *Result) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%s changed %d times.\nAverage Execution Time: %.2f µs\nExecution Time: %.2f ms\n",
		r.Label, r.Changes, micros(r.Average()), millis(r.Total))
	return err
}

// jsonReport is the JSON form of a Result.
type jsonReport struct {
	Label      string  `json:"label"`
	Iterations int     `json:"iterations"`
	Completed  int     `json:"completed"`
	Changes    int     `json:"changes"`
	TotalMs    float64 `json:"total_ms"`
	AverageUs  float64 `json:"average_us"`
	MinUs      float64 `json:"min_us"`
	MaxUs      float64 `json:"max_us"`
}

// WriteJSON writes the result as one indented JSON object.
func (r *Result) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonReport{
		Label:      r.Label,
		Iterations: r.Iterations,
		Completed:  r.Completed,
		Changes:    r.Changes,
		TotalMs:    millis(r.Total),
		AverageUs:  micros(r.Average()),
		MinUs:      micros(r.Min),
		MaxUs:      micros(r.Max),
	})
}

func micros(d time.Duration) float64 { return float64(d) / float64(time.Microsecond) }
func millis(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }
