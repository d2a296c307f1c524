package hwinfo

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opd-ai/go-hwinfo/internal/hardware"
	"github.com/opd-ai/go-hwinfo/internal/platform"
)

// HardwareInfo is a handle on the sensor tree of one machine. It is safe for
// concurrent use from multiple goroutines.
type HardwareInfo struct {
	computer *hardware.Computer
	groups   Groups
	timeout  time.Duration
	logger   Logger
	metrics  *Metrics
	breaker  *breaker
	items    int

	// mu guards the cached snapshot, the accumulated reports and closed.
	mu       sync.RWMutex
	snapshot hardware.Snapshot
	cpuInfo  *CPUInfo
	memInfo  MemoryInfo
	closed   bool

	// Outcome of the last SaveAllHardware, for Health.
	lastRefresh time.Time
	lastErr     error

	// pollMu serializes polling start and stop; active mirrors polling
	// for lock-free reads on the query path.
	pollMu  sync.Mutex
	polling bool
	active  atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New opens the hardware groups selected in opts and returns a handle.
//
// Example:
//
//	h, err := hwinfo.New(hwinfo.DefaultOptions())
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer h.Close()
//	info, err := h.GetCPUInfo()
func New(opts Options) (*HardwareInfo, error) {
	if !opts.Groups.Any() {
		return nil, fmt.Errorf("no hardware group enabled: %w", ErrHardwareDisabled)
	}

	p := opts.Platform
	if p == nil {
		var err error
		p, err = newPlatform(opts.Remote)
		if err != nil {
			return nil, err
		}
	}

	h := &HardwareInfo{
		computer: hardware.NewComputer(p, opts.Groups),
		groups:   opts.Groups,
		timeout:  opts.UpdateTimeout,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		breaker:  newBreaker(opts.Breaker),
		cpuInfo:  newCPUInfo(),
	}
	if h.timeout <= 0 {
		h.timeout = DefaultUpdateTimeout
	}
	if h.logger == nil {
		h.logger = NopLogger()
	}
	if h.metrics == nil {
		h.metrics = NewMetrics()
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()
	if err := h.computer.Open(ctx); err != nil {
		return nil, fmt.Errorf("open hardware: %w", err)
	}

	items := h.computer.Hardware()
	h.items = len(items)
	h.logger.Info("hardware opened", "platform", p.Name(), "items", len(items))
	for _, item := range items {
		h.logger.Debug("hardware item", "name", item.Name(), "type", item.Type(), "id", item.Identifier())
	}
	return h, nil
}

func newPlatform(remote *RemoteConfig) (Platform, error) {
	if remote != nil {
		p, err := platform.NewRemotePlatform(*remote)
		if err != nil {
			return nil, fmt.Errorf("remote platform: %w", err)
		}
		return p, nil
	}
	p, err := platform.NewPlatform()
	if err != nil {
		return nil, fmt.Errorf("platform: %w", err)
	}
	return p, nil
}

// Metrics returns the metrics collector of this handle.
func (h *HardwareInfo) Metrics() *Metrics {
	return h.metrics
}

// Hardware returns the names and types of the opened hardware items.
func (h *HardwareInfo) Hardware() []hardware.HardwareSnapshot {
	return h.computer.Snapshot().Hardware
}

// GetCPUInfo returns the CPU report as indented JSON. Without polling the
// CPU hardware is refreshed first; with polling the cached snapshot is used.
// Values missing from the current snapshot keep their last reported value.
func (h *HardwareInfo) GetCPUInfo() (string, error) {
	start := time.Now()
	defer func() { h.metrics.recordQueryLatency(time.Since(start)) }()
	h.metrics.incrementCPUQueries()

	if !h.groups.CPU {
		h.metrics.incrementQueryErrors()
		return "", fmt.Errorf("cpu info: %w", ErrHardwareDisabled)
	}
	items, err := h.itemsOfType(hardware.TypeCPU)
	if err != nil {
		h.metrics.incrementQueryErrors()
		return "", fmt.Errorf("cpu info: %w", err)
	}

	h.mu.Lock()
	h.cpuInfo.merge(items)
	report := h.cpuInfo.clone()
	h.mu.Unlock()

	return marshalReport(report)
}

// GetMemoryInfo returns the memory report as indented JSON, refreshed the
// same way as GetCPUInfo.
func (h *HardwareInfo) GetMemoryInfo() (string, error) {
	start := time.Now()
	defer func() { h.metrics.recordQueryLatency(time.Since(start)) }()
	h.metrics.incrementMemoryQueries()

	if !h.groups.Memory {
		h.metrics.incrementQueryErrors()
		return "", fmt.Errorf("memory info: %w", ErrHardwareDisabled)
	}
	items, err := h.itemsOfType(hardware.TypeMemory)
	if err != nil {
		h.metrics.incrementQueryErrors()
		return "", fmt.Errorf("memory info: %w", err)
	}

	h.mu.Lock()
	h.memInfo.merge(items)
	report := h.memInfo
	h.mu.Unlock()

	return marshalReport(report)
}

// CPUInfo returns the CPU report as a struct.
func (h *HardwareInfo) CPUInfo() (*CPUInfo, error) {
	if _, err := h.GetCPUInfo(); err != nil {
		return nil, err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cpuInfo.clone(), nil
}

// MemoryInfo returns the memory report as a struct.
func (h *HardwareInfo) MemoryInfo() (MemoryInfo, error) {
	if _, err := h.GetMemoryInfo(); err != nil {
		return MemoryInfo{}, err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.memInfo, nil
}

// itemsOfType returns snapshots of the hardware of type t, from the poller's
// cache when polling is active and freshly updated otherwise.
func (h *HardwareInfo) itemsOfType(t hardware.HardwareType) ([]hardware.HardwareSnapshot, error) {
	h.mu.RLock()
	closed := h.closed
	cached := h.snapshot
	h.mu.RUnlock()
	if closed {
		return nil, ErrClosed
	}

	if h.isPolling() {
		return cached.OfType(t), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	var out []hardware.HardwareSnapshot
	for _, item := range h.computer.Hardware() {
		if item.Type() != t {
			continue
		}
		if err := item.Update(ctx); err != nil {
			return nil, fmt.Errorf("update %s: %w", item.Identifier(), err)
		}
		out = append(out, hardware.SnapshotOf(item))
	}
	return out, nil
}

// SaveAllHardware refreshes every opened hardware item once and stores the
// result as the cached snapshot. Items that fail keep their previous
// sensors; their errors are returned as an *UpdateError.
func (h *HardwareInfo) SaveAllHardware() error {
	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		return ErrClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	start := time.Now()
	err := h.computer.Update(ctx)
	snap := h.computer.Snapshot()

	h.mu.Lock()
	h.snapshot = snap
	h.lastRefresh = time.Now()
	h.lastErr = err
	h.mu.Unlock()

	h.metrics.recordPoll(time.Since(start))
	if err != nil {
		h.metrics.incrementPollErrors()
		return err
	}
	return nil
}

// Snapshot returns the cached snapshot stored by the last SaveAllHardware.
func (h *HardwareInfo) Snapshot() hardware.Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.snapshot
}

// Close stops polling and releases the platform. Further calls return
// ErrClosed. Safe to call multiple times.
func (h *HardwareInfo) Close() error {
	h.pollMu.Lock()
	h.stopPolling()
	h.mu.Lock()
	wasClosed := h.closed
	h.closed = true
	h.mu.Unlock()
	h.pollMu.Unlock()
	if wasClosed {
		return nil
	}

	if err := h.computer.Close(); err != nil {
		return fmt.Errorf("close hardware: %w", err)
	}
	h.logger.Debug("hardware closed")
	return nil
}
