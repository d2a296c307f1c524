// Package profiling wraps runtime/pprof for the benchmark command and
// measures the allocations and goroutines a profiled run leaves behind.
package profiling

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"sync"
	"time"
)

// Errors returned by Start and Stop.
var (
	ErrRunning    = errors.New("profiler is already running")
	ErrNotRunning = errors.New("profiler is not running")
)

// Config holds configuration for the profiler.
type Config struct {
	// CPUProfilePath is the file path for CPU profile output.
	// If empty, CPU profiling is disabled.
	CPUProfilePath string

	// MemProfilePath is the file path for the heap profile written on Stop.
	// If empty, no heap profile is written.
	MemProfilePath string
}

// ProfilingEnabled returns true if any profile file is configured.
func (c Config) ProfilingEnabled() bool {
	return c.CPUProfilePath != "" || c.MemProfilePath != ""
}

// Usage is the resource use between Start and Stop.
type Usage struct {
	Duration       time.Duration
	Mallocs        uint64 // heap objects allocated
	AllocBytes     uint64 // bytes allocated
	NumGC          uint32 // garbage collections
	GoroutineDelta int    // goroutines left running minus those at Start
}

// String formats u on one line.
func (u Usage) String() string {
	return fmt.Sprintf("duration=%v allocs=%d bytes=%s gc=%d goroutines=%+d",
		u.Duration, u.Mallocs, FormatBytes(u.AllocBytes), u.NumGC, u.GoroutineDelta)
}

// Profiler records one profiling session at a time. It is safe for
// concurrent use.
type Profiler struct {
	config  Config
	cpuFile *os.File
	running bool
	started time.Time
	before  runtime.MemStats
	gorouts int
	mu      sync.Mutex
}

// New creates a new Profiler with the given configuration.
// The profiler is not started automatically; call Start to begin profiling.
func New(config Config) *Profiler {
	return &Profiler{config: config}
}

// Start begins CPU profiling if a CPU profile path was configured and
// records the baseline for Usage.
func (p *Profiler) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return ErrRunning
	}

	if p.config.CPUProfilePath != "" {
		f, err := os.Create(p.config.CPUProfilePath)
		if err != nil {
			return fmt.Errorf("failed to create CPU profile file: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			return fmt.Errorf("failed to start CPU profile: %w", err)
		}
		p.cpuFile = f
	}

	p.gorouts = runtime.NumGoroutine()
	runtime.ReadMemStats(&p.before)
	p.started = time.Now()
	p.running = true
	return nil
}

// Stop ends the session. It stops CPU profiling, writes the heap profile if
// configured and returns the resources used since Start. Errors from the
// profile files are joined; Usage is valid either way.
func (p *Profiler) Stop() (Usage, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return Usage{}, ErrNotRunning
	}

	var after runtime.MemStats
	runtime.ReadMemStats(&after)
	usage := Usage{
		Duration:       time.Since(p.started),
		Mallocs:        after.Mallocs - p.before.Mallocs,
		AllocBytes:     after.TotalAlloc - p.before.TotalAlloc,
		NumGC:          after.NumGC - p.before.NumGC,
		GoroutineDelta: runtime.NumGoroutine() - p.gorouts,
	}

	var errs []error
	if p.cpuFile != nil {
		pprof.StopCPUProfile()
		if err := p.cpuFile.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close CPU profile file: %w", err))
		}
		p.cpuFile = nil
	}
	if p.config.MemProfilePath != "" {
		if err := WriteHeapProfile(p.config.MemProfilePath); err != nil {
			errs = append(errs, err)
		}
	}

	p.running = false
	return usage, errors.Join(errs...)
}

// IsRunning returns true if the profiler is currently running.
func (p *Profiler) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// WriteHeapProfile writes a heap profile to path after forcing a garbage
// collection.
func WriteHeapProfile(path string) error {
	runtime.GC()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create memory profile file: %w", err)
	}
	defer f.Close()

	if err := pprof.WriteHeapProfile(f); err != nil {
		return fmt.Errorf("failed to write memory profile: %w", err)
	}
	return nil
}

// Byte size constants for memory formatting
const (
	KB = 1024
	MB = KB * 1024
	GB = MB * 1024
)

// FormatBytes renders n with a binary unit suffix.
func FormatBytes(n uint64) string {
	switch {
	case n >= GB:
		return fmt.Sprintf("%.2f GB", float64(n)/GB)
	case n >= MB:
		return fmt.Sprintf("%.2f MB", float64(n)/MB)
	case n >= KB:
		return fmt.Sprintf("%.2f KB", float64(n)/KB)
	default:
		return fmt.Sprintf("%d B", n)
	}
}
