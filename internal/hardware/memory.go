package hardware

import (
	"context"
	"fmt"
	"sync"

	"github.com/opd-ai/go-hwinfo/internal/platform"
)

// Memory sensor names.
const (
	SensorMemory                 = "Memory"
	SensorMemoryUsed             = "Memory Used"
	SensorMemoryAvailable        = "Memory Available"
	SensorVirtualMemory          = "Virtual Memory"
	SensorVirtualMemoryUsed      = "Virtual Memory Used"
	SensorVirtualMemoryAvailable = "Virtual Memory Available"
)

const bytesPerGiB = 1024 * 1024 * 1024

// memoryHardware reports physical memory and virtual memory (RAM plus swap)
// as load percentages and GiB amounts.
type memoryHardware struct {
	memory  platform.MemoryProvider
	sensors *sensorSet
	mu      sync.Mutex
}

func newMemoryHardware(memory platform.MemoryProvider) *memoryHardware {
	return &memoryHardware{memory: memory, sensors: newSensorSet()}
}

func (m *memoryHardware) Name() string       { return "Generic Memory" }
func (m *memoryHardware) Type() HardwareType { return TypeMemory }
func (m *memoryHardware) Identifier() string { return "/ram" }
func (m *memoryHardware) Sensors() []Sensor  { return m.sensors.snapshot() }

func (m *memoryHardware) Update(ctx context.Context) error {
	return m.refresh(ctx)
}

func (m *memoryHardware) refresh(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stats, err := m.memory.Stats()
	if err != nil {
		return fmt.Errorf("memory stats: %w", err)
	}
	if stats.Total == 0 {
		return fmt.Errorf("memory stats: total memory is zero")
	}

	m.sensors.begin()

	used := usedBytes(stats)
	available := stats.Total - used
	m.sensors.set(SensorLoad, SensorMemory, percent(used, stats.Total))
	m.sensors.set(SensorData, SensorMemoryUsed, toGiB(used))
	m.sensors.set(SensorData, SensorMemoryAvailable, toGiB(available))

	// Swap failures only drop the virtual memory sensors.
	swap, err := m.memory.SwapStats()
	if err != nil {
		return nil
	}
	virtualTotal := stats.Total + swap.Total
	virtualUsed := used + swap.Used
	if virtualUsed > virtualTotal {
		virtualUsed = virtualTotal
	}
	m.sensors.set(SensorLoad, SensorVirtualMemory, percent(virtualUsed, virtualTotal))
	m.sensors.set(SensorData, SensorVirtualMemoryUsed, toGiB(virtualUsed))
	m.sensors.set(SensorData, SensorVirtualMemoryAvailable, toGiB(virtualTotal-virtualUsed))
	return nil
}

// usedBytes prefers Total - Available, which counts reclaimable cache as
// free, and falls back to the provider's Used figure.
func usedBytes(stats *platform.MemoryStats) uint64 {
	if stats.Available > 0 && stats.Available <= stats.Total {
		return stats.Total - stats.Available
	}
	if stats.Used > stats.Total {
		return stats.Total
	}
	return stats.Used
}

func percent(part, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

func toGiB(b uint64) float64 {
	return float64(b) / bytesPerGiB
}
