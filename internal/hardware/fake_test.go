package hardware

import (
	"context"
	"math"
	"testing"

	"github.com/opd-ai/go-hwinfo/internal/platform"
)

type fakeCPU struct {
	total    float64
	usage    map[int]float64
	freqs    map[int]float64
	info     *platform.CPUInfo
	topology []platform.LogicalCPU
	err      error
}

func (f *fakeCPU) Usage() (map[int]float64, error)     { return f.usage, f.err }
func (f *fakeCPU) TotalUsage() (float64, error)        { return f.total, f.err }
func (f *fakeCPU) Frequency() (map[int]float64, error) { return f.freqs, nil }
func (f *fakeCPU) Info() (*platform.CPUInfo, error)    { return f.info, nil }
func (f *fakeCPU) Topology() ([]platform.LogicalCPU, error) {
	return f.topology, nil
}

type fakeMemory struct {
	stats *platform.MemoryStats
	swap  *platform.SwapStats
	err   error
}

func (f *fakeMemory) Stats() (*platform.MemoryStats, error) { return f.stats, f.err }
func (f *fakeMemory) SwapStats() (*platform.SwapStats, error) {
	if f.swap == nil {
		return nil, context.DeadlineExceeded
	}
	return f.swap, nil
}

type fakeSensors struct {
	temps, fans, volts, power []platform.SensorReading
	reads                     int
}

func (f *fakeSensors) Temperatures() ([]platform.SensorReading, error) {
	f.reads++
	return f.temps, nil
}
func (f *fakeSensors) Fans() ([]platform.SensorReading, error)     { return f.fans, nil }
func (f *fakeSensors) Voltages() ([]platform.SensorReading, error) { return f.volts, nil }
func (f *fakeSensors) Power() ([]platform.SensorReading, error)    { return f.power, nil }

type fakePlatform struct {
	cpu         *fakeCPU
	memory      *fakeMemory
	sensors     *fakeSensors
	initialized bool
	closed      bool
}

func (f *fakePlatform) Name() string { return "fake" }
func (f *fakePlatform) Initialize(ctx context.Context) error {
	f.initialized = true
	return nil
}
func (f *fakePlatform) Close() error {
	f.closed = true
	return nil
}

func (f *fakePlatform) CPU() platform.CPUProvider {
	if f.cpu == nil {
		return nil
	}
	return f.cpu
}

func (f *fakePlatform) Memory() platform.MemoryProvider {
	if f.memory == nil {
		return nil
	}
	return f.memory
}

func (f *fakePlatform) Sensors() platform.SensorProvider {
	if f.sensors == nil {
		return nil
	}
	return f.sensors
}

// newTestPlatform describes a 2-core, 4-thread Intel machine with 16 GiB of
// RAM and 4 GiB of swap.
func newTestPlatform() *fakePlatform {
	return &fakePlatform{
		cpu: &fakeCPU{
			total: 40,
			usage: map[int]float64{0: 10, 1: 20, 2: 30, 3: 100},
			freqs: map[int]float64{0: 3400, 1: 3300, 2: 2000, 3: 2100},
			info:  &platform.CPUInfo{Model: "Intel(R) Core(TM) i5-8250U CPU @ 1.60GHz"},
			topology: []platform.LogicalCPU{
				{ID: 0, CoreID: 0}, {ID: 1, CoreID: 1},
				{ID: 2, CoreID: 0}, {ID: 3, CoreID: 1},
			},
		},
		memory: &fakeMemory{
			stats: &platform.MemoryStats{Total: 16 * bytesPerGiB, Available: 4 * bytesPerGiB},
			swap:  &platform.SwapStats{Total: 4 * bytesPerGiB, Used: 1 * bytesPerGiB},
		},
		sensors: &fakeSensors{
			temps: []platform.SensorReading{
				{Device: "hwmon1", Name: "coretemp", Label: "Package id 0", Value: 55},
				{Device: "hwmon1", Name: "coretemp", Label: "Core 0", Value: 50},
				{Device: "hwmon1", Name: "coretemp", Label: "Core 4", Value: 60},
				{Device: "hwmon2", Name: "nct6798", Label: "SYSTIN", Value: 35},
				{Device: "hwmon3", Name: "nvme", Label: "Composite", Value: 41},
			},
			fans: []platform.SensorReading{
				{Device: "hwmon2", Name: "nct6798", Label: "fan2", Value: 950},
			},
			volts: []platform.SensorReading{
				{Device: "hwmon2", Name: "nct6798", Label: "Vcore", Value: 1.2},
			},
			power: []platform.SensorReading{
				{Device: "intel-rapl", Name: "intel-rapl", Label: "package-0", Value: 15},
				{Device: "intel-rapl", Name: "intel-rapl", Label: "core", Value: 5},
			},
		},
	}
}

func findSensor(t *testing.T, sensors []Sensor, typ SensorType, name string) Sensor {
	t.Helper()
	for _, s := range sensors {
		if s.Type == typ && s.Name == name {
			return s
		}
	}
	t.Fatalf("sensor %s/%q not found in %d sensors", typ, name, len(sensors))
	return Sensor{}
}

func assertValue(t *testing.T, s Sensor, want float64) {
	t.Helper()
	if s.Value == nil {
		t.Fatalf("sensor %q has no value, want %v", s.Name, want)
	}
	if math.Abs(*s.Value-want) > 1e-9 {
		t.Errorf("sensor %q = %v, want %v", s.Name, *s.Value, want)
	}
}
