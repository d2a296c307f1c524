package platform

import (
	"context"
)

// Platform defines the interface for an OS-specific source of hardware data.
type Platform interface {
	// Name returns the platform identifier (e.g., "linux", "portable", "remote-linux").
	Name() string

	// Initialize prepares the platform for data collection.
	// Returns an error if the platform cannot be initialized.
	Initialize(ctx context.Context) error

	// Close releases any platform-specific resources.
	Close() error

	// CPU returns the CPU metrics provider for this platform.
	CPU() CPUProvider

	// Memory returns the memory metrics provider for this platform.
	Memory() MemoryProvider

	// Sensors returns the hardware sensors provider for this platform.
	// Returns nil if sensor monitoring is not supported.
	Sensors() SensorProvider
}

// CPUProvider defines the interface for CPU metrics collection.
type CPUProvider interface {
	// Usage returns usage percentages keyed by logical CPU number.
	// The first call after construction reports zero for every CPU.
	Usage() (map[int]float64, error)

	// TotalUsage returns the aggregate CPU usage percentage.
	TotalUsage() (float64, error)

	// Frequency returns current frequencies in MHz keyed by logical CPU number.
	Frequency() (map[int]float64, error)

	// Info returns static CPU information (model, cores, etc.).
	Info() (*CPUInfo, error)

	// Topology returns the online logical CPUs sorted by ID.
	Topology() ([]LogicalCPU, error)
}

// MemoryProvider defines the interface for memory metrics collection.
type MemoryProvider interface {
	// Stats returns current memory statistics.
	Stats() (*MemoryStats, error)

	// SwapStats returns swap/page file statistics.
	SwapStats() (*SwapStats, error)
}

// SensorProvider defines the interface for hardware sensor metrics collection.
type SensorProvider interface {
	// Temperatures returns all temperature sensor readings in °C.
	Temperatures() ([]SensorReading, error)

	// Fans returns all fan speed sensor readings in RPM.
	Fans() ([]SensorReading, error)

	// Voltages returns all voltage sensor readings in volts.
	Voltages() ([]SensorReading, error)

	// Power returns power draw readings in watts. Energy-counter based
	// sources only report a zone once two samples exist.
	Power() ([]SensorReading, error)
}

// CPUInfo contains static CPU information.
type CPUInfo struct {
	Model     string
	Vendor    string
	Cores     int
	Threads   int
	CacheSize int64 // in bytes
}

// LogicalCPU places one logical CPU on its physical core and package.
type LogicalCPU struct {
	ID        int
	CoreID    int
	PackageID int
}

// MemoryStats contains memory usage statistics.
type MemoryStats struct {
	Total       uint64
	Used        uint64
	Free        uint64
	Available   uint64
	Cached      uint64
	Buffers     uint64
	UsedPercent float64
}

// SwapStats contains swap/page file statistics.
type SwapStats struct {
	Total       uint64
	Used        uint64
	Free        uint64
	UsedPercent float64
}

// SensorReading contains a sensor reading with metadata.
type SensorReading struct {
	Device   string // source device, e.g. "hwmon3"; readings of one chip share it
	Name     string // chip or zone name, e.g. "coretemp", "intel-rapl"
	Label    string
	Value    float64
	Unit     string
	Critical float64 // threshold value (0 if not available)
}
