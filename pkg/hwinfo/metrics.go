package hwinfo

import (
	"expvar"
	"sync/atomic"
	"time"
)

// Metrics collects operational counters for a HardwareInfo handle. They can
// be exposed through expvar's /debug/vars endpoint with RegisterExpvar.
//
// Thread-safe for concurrent use.
type Metrics struct {
	// Counters
	cpuQueries    atomic.Int64
	memoryQueries atomic.Int64
	pollCycles    atomic.Int64
	pollErrors    atomic.Int64
	pollSkipped   atomic.Int64
	queryErrors   atomic.Int64

	// Latency tracking (stored as nanoseconds)
	queryLatencyNs    atomic.Int64
	queryLatencyCount atomic.Int64
	pollLatencyNs     atomic.Int64
	pollLatencyCount  atomic.Int64

	// Gauges
	polling atomic.Int32

	registered atomic.Bool
}

// NewMetrics creates a new Metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RegisterExpvar publishes the metrics under the "hwinfo_" prefix.
// Safe to call multiple times; subsequent calls are no-ops. Only one
// Metrics instance per process can be registered.
func (m *Metrics) RegisterExpvar() {
	if m.registered.Swap(true) {
		return
	}

	expvar.Publish("hwinfo_cpu_queries_total", expvar.Func(func() any { return m.cpuQueries.Load() }))
	expvar.Publish("hwinfo_memory_queries_total", expvar.Func(func() any { return m.memoryQueries.Load() }))
	expvar.Publish("hwinfo_poll_cycles_total", expvar.Func(func() any { return m.pollCycles.Load() }))
	expvar.Publish("hwinfo_poll_errors_total", expvar.Func(func() any { return m.pollErrors.Load() }))
	expvar.Publish("hwinfo_poll_skipped_total", expvar.Func(func() any { return m.pollSkipped.Load() }))
	expvar.Publish("hwinfo_query_errors_total", expvar.Func(func() any { return m.queryErrors.Load() }))
	expvar.Publish("hwinfo_polling", expvar.Func(func() any { return m.polling.Load() }))
	expvar.Publish("hwinfo_query_latency_avg_us", expvar.Func(func() any {
		return float64(safeDivide(m.queryLatencyNs.Load(), m.queryLatencyCount.Load())) / float64(time.Microsecond)
	}))
	expvar.Publish("hwinfo_poll_latency_avg_us", expvar.Func(func() any {
		return float64(safeDivide(m.pollLatencyNs.Load(), m.pollLatencyCount.Load())) / float64(time.Microsecond)
	}))
}

// MetricsSnapshot is a point-in-time copy of all metrics.
type MetricsSnapshot struct {
	CPUQueries    int64
	MemoryQueries int64
	PollCycles    int64
	PollErrors    int64
	PollSkipped   int64
	QueryErrors   int64

	Polling bool

	QueryLatencyAvg time.Duration
	PollLatencyAvg  time.Duration
}

// Snapshot returns a point-in-time copy of all metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		CPUQueries:      m.cpuQueries.Load(),
		MemoryQueries:   m.memoryQueries.Load(),
		PollCycles:      m.pollCycles.Load(),
		PollErrors:      m.pollErrors.Load(),
		PollSkipped:     m.pollSkipped.Load(),
		QueryErrors:     m.queryErrors.Load(),
		Polling:         m.polling.Load() > 0,
		QueryLatencyAvg: safeDivide(m.queryLatencyNs.Load(), m.queryLatencyCount.Load()),
		PollLatencyAvg:  safeDivide(m.pollLatencyNs.Load(), m.pollLatencyCount.Load()),
	}
}

func (m *Metrics) incrementCPUQueries()    { m.cpuQueries.Add(1) }
func (m *Metrics) incrementMemoryQueries() { m.memoryQueries.Add(1) }
func (m *Metrics) incrementQueryErrors()   { m.queryErrors.Add(1) }
func (m *Metrics) incrementPollErrors()    { m.pollErrors.Add(1) }
func (m *Metrics) incrementPollSkipped()   { m.pollSkipped.Add(1) }

func (m *Metrics) setPolling(on bool) {
	if on {
		m.polling.Store(1)
	} else {
		m.polling.Store(0)
	}
}

// recordQueryLatency records the duration of one Get*Info call.
func (m *Metrics) recordQueryLatency(d time.Duration) {
	m.queryLatencyNs.Add(d.Nanoseconds())
	m.queryLatencyCount.Add(1)
}

// recordPoll records one completed polling cycle.
func (m *Metrics) recordPoll(d time.Duration) {
	m.pollCycles.Add(1)
	m.pollLatencyNs.Add(d.Nanoseconds())
	m.pollLatencyCount.Add(1)
}

// Reset clears all metrics. Useful for testing.
func (m *Metrics) Reset() {
	m.cpuQueries.Store(0)
	m.memoryQueries.Store(0)
	m.pollCycles.Store(0)
	m.pollErrors.Store(0)
	m.pollSkipped.Store(0)
	m.queryErrors.Store(0)
	m.queryLatencyNs.Store(0)
	m.queryLatencyCount.Store(0)
	m.pollLatencyNs.Store(0)
	m.pollLatencyCount.Store(0)
	m.polling.Store(0)
}

// safeDivide performs safe division, returning 0 for divide by zero.
func safeDivide(total, count int64) time.Duration {
	if count == 0 {
		return 0
	}
	return time.Duration(total / count)
}
