package platform

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/sensors"
)

// portablePlatform implements Platform on top of gopsutil for operating
// systems without procfs. Fan, voltage and power sensors are not available.
type portablePlatform struct {
	mu      sync.RWMutex
	ctx     context.Context
	cancel  context.CancelFunc
	cpu     CPUProvider
	memory  MemoryProvider
	sensors SensorProvider
	gpus    GPUProvider
}

// NewPortablePlatform creates a gopsutil-backed platform.
func NewPortablePlatform() Platform {
	return &portablePlatform{}
}

func (p *portablePlatform) Name() string {
	return "portable"
}

func (p *portablePlatform) Initialize(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.ctx, p.cancel = lifetimeContext(ctx)
	p.cpu = &portableCPUProvider{ctx: p.ctx}
	p.memory = &portableMemoryProvider{ctx: p.ctx}
	p.sensors = &portableSensorProvider{ctx: p.ctx}
	p.gpus = localNvidiaSMI(p.ctx)
	return nil
}

func (p *portablePlatform) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
	}
	return nil
}

func (p *portablePlatform) CPU() CPUProvider {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cpu
}

func (p *portablePlatform) Memory() MemoryProvider {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.memory
}

func (p *portablePlatform) Sensors() SensorProvider {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.sensors
}

func (p *portablePlatform) GPUs() GPUProvider {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.gpus
}

// portableCPUProvider implements CPUProvider with gopsutil/cpu.
type portableCPUProvider struct {
	ctx context.Context
}

// Usage uses a zero interval, so gopsutil reports the delta since the
// previous call.
func (c *portableCPUProvider) Usage() (map[int]float64, error) {
	percents, err := cpu.PercentWithContext(c.ctx, 0, true)
	if err != nil {
		return nil, fmt.Errorf("cpu percent: %w", err)
	}
	usages := make(map[int]float64, len(percents))
	for i, v := range percents {
		usages[i] = v
	}
	return usages, nil
}

func (c *portableCPUProvider) TotalUsage() (float64, error) {
	percents, err := cpu.PercentWithContext(c.ctx, 0, false)
	if err != nil {
		return 0, fmt.Errorf("cpu percent: %w", err)
	}
	if len(percents) == 0 {
		return 0, nil
	}
	return percents[0], nil
}

// Frequency reports per-CPU clocks when gopsutil returns one InfoStat per
// logical CPU, otherwise the package clock for every CPU.
func (c *portableCPUProvider) Frequency() (map[int]float64, error) {
	infos, err := cpu.InfoWithContext(c.ctx)
	if err != nil {
		return nil, fmt.Errorf("cpu info: %w", err)
	}
	logical, err := cpu.CountsWithContext(c.ctx, true)
	if err != nil {
		return nil, fmt.Errorf("cpu counts: %w", err)
	}

	freqs := make(map[int]float64, logical)
	if len(infos) == 0 {
		return freqs, nil
	}
	for i := 0; i < logical; i++ {
		if len(infos) == logical {
			freqs[i] = infos[i].Mhz
		} else {
			freqs[i] = infos[0].Mhz
		}
	}
	return freqs, nil
}

func (c *portableCPUProvider) Info() (*CPUInfo, error) {
	infos, err := cpu.InfoWithContext(c.ctx)
	if err != nil {
		return nil, fmt.Errorf("cpu info: %w", err)
	}
	physical, _ := cpu.CountsWithContext(c.ctx, false)
	logical, _ := cpu.CountsWithContext(c.ctx, true)

	info := &CPUInfo{Cores: physical, Threads: logical}
	if len(infos) > 0 {
		info.Model = strings.TrimSpace(infos[0].ModelName)
		info.Vendor = infos[0].VendorID
		info.CacheSize = int64(infos[0].CacheSize) * 1024
	}
	return info, nil
}

// Topology assumes logical CPUs are numbered core by core, which holds for
// the Windows and macOS schedulers gopsutil reads from.
func (c *portableCPUProvider) Topology() ([]LogicalCPU, error) {
	logical, err := cpu.CountsWithContext(c.ctx, true)
	if err != nil {
		return nil, fmt.Errorf("cpu counts: %w", err)
	}
	physical, err := cpu.CountsWithContext(c.ctx, false)
	if err != nil || physical <= 0 {
		physical = logical
	}
	return sequentialTopology(logical, physical), nil
}

// sequentialTopology spreads logical CPUs evenly across physical cores.
func sequentialTopology(logical, physical int) []LogicalCPU {
	perCore := 1
	if physical > 0 && logical > physical {
		perCore = logical / physical
	}
	cpus := make([]LogicalCPU, logical)
	for i := range cpus {
		cpus[i] = LogicalCPU{ID: i, CoreID: i / perCore}
	}
	return cpus
}

// portableMemoryProvider implements MemoryProvider with gopsutil/mem.
type portableMemoryProvider struct {
	ctx context.Context
}

func (m *portableMemoryProvider) Stats() (*MemoryStats, error) {
	vm, err := mem.VirtualMemoryWithContext(m.ctx)
	if err != nil {
		return nil, fmt.Errorf("virtual memory: %w", err)
	}
	return &MemoryStats{
		Total:       vm.Total,
		Used:        vm.Used,
		Free:        vm.Free,
		Available:   vm.Available,
		Cached:      vm.Cached,
		Buffers:     vm.Buffers,
		UsedPercent: vm.UsedPercent,
	}, nil
}

func (m *portableMemoryProvider) SwapStats() (*SwapStats, error) {
	sw, err := mem.SwapMemoryWithContext(m.ctx)
	if err != nil {
		return nil, fmt.Errorf("swap memory: %w", err)
	}
	return &SwapStats{
		Total:       sw.Total,
		Used:        sw.Used,
		Free:        sw.Free,
		UsedPercent: sw.UsedPercent,
	}, nil
}

// portableSensorProvider implements SensorProvider with gopsutil/sensors.
type portableSensorProvider struct {
	ctx context.Context
}

// Temperatures tolerates partial results: gopsutil returns readings
// together with warnings when some sensors cannot be read.
func (s *portableSensorProvider) Temperatures() ([]SensorReading, error) {
	temps, err := sensors.TemperaturesWithContext(s.ctx)
	if err != nil && len(temps) == 0 {
		return nil, fmt.Errorf("sensors temperatures: %w", err)
	}

	readings := make([]SensorReading, 0, len(temps))
	for _, t := range temps {
		name, label := splitSensorKey(t.SensorKey)
		readings = append(readings, SensorReading{
			Device:   name,
			Name:     name,
			Label:    label,
			Value:    t.Temperature,
			Unit:     "°C",
			Critical: t.Critical,
		})
	}
	return readings, nil
}

func (s *portableSensorProvider) Fans() ([]SensorReading, error) {
	return []SensorReading{}, nil
}

func (s *portableSensorProvider) Voltages() ([]SensorReading, error) {
	return []SensorReading{}, nil
}

func (s *portableSensorProvider) Power() ([]SensorReading, error) {
	return []SensorReading{}, nil
}

// splitSensorKey turns gopsutil keys such as "coretemp_package_id_0" into a
// chip name and a hwmon-style label ("coretemp", "Package id 0").
func splitSensorKey(key string) (string, string) {
	name, rest, ok := strings.Cut(key, "_")
	if !ok || rest == "" {
		return key, key
	}
	label := strings.ReplaceAll(rest, "_", " ")
	return name, strings.ToUpper(label[:1]) + label[1:]
}
