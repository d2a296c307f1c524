package hwinfo

import (
	"testing"

	"github.com/opd-ai/go-hwinfo/internal/hardware"
)

func value(v float64) *float64 { return &v }

func cpuItem(sensors ...hardware.Sensor) []hardware.HardwareSnapshot {
	return []hardware.HardwareSnapshot{{
		Name:       "AMD Ryzen 7 5800X",
		Type:       hardware.TypeCPU,
		Identifier: "/cpu/0",
		Sensors:    sensors,
	}}
}

func TestCPUInfo_MergeClassifies(t *testing.T) {
	info := newCPUInfo()
	info.merge(cpuItem(
		hardware.Sensor{Name: "CPU Total", Type: hardware.SensorLoad, Value: value(12)},
		hardware.Sensor{Name: "CPU Core Max", Type: hardware.SensorLoad, Value: value(40)},
		hardware.Sensor{Name: "CPU Core #1", Type: hardware.SensorLoad, Value: value(40)},
		hardware.Sensor{Name: "CPU Package", Type: hardware.SensorTemperature, Value: value(61)},
		hardware.Sensor{Name: "Core Max", Type: hardware.SensorTemperature, Value: value(63)},
		hardware.Sensor{Name: "Core Average", Type: hardware.SensorTemperature, Value: value(58)},
		hardware.Sensor{Name: "CPU Core #1", Type: hardware.SensorClock, Value: value(4200)},
		hardware.Sensor{Name: "Bus Speed", Type: hardware.SensorClock, Value: value(100)},
		hardware.Sensor{Name: "CPU Core", Type: hardware.SensorVoltage, Value: value(1.25)},
		hardware.Sensor{Name: "CPU Core #1", Type: hardware.SensorVoltage, Value: value(1.2)},
		hardware.Sensor{Name: "CPU Package", Type: hardware.SensorPower, Value: value(65)},
		hardware.Sensor{Name: "CPU Cores", Type: hardware.SensorPower, Value: value(40)},
		hardware.Sensor{Name: "CCD #1", Type: hardware.SensorTemperature, Value: value(55)},
	))

	checks := []struct {
		name string
		got  Number
		want Number
	}{
		{"CPUUsage", info.CPUUsage, 12},
		{"MaxCoreUsage", info.MaxCoreUsage, 40},
		{"CoreLoad", info.CoreLoad["CPU Core #1"], 40},
		{"PackageTemperature", info.PackageTemperature, 61},
		{"MaxTemperature", info.MaxTemperature, 63},
		{"AverageTemperature", info.AverageTemperature, 58},
		{"CoreClock", info.CoreClock["CPU Core #1"], 4200},
		{"BusSpeed", info.BusSpeed, 100},
		{"CPUVoltage", info.CPUVoltage, 1.25},
		{"CoreVoltage", info.CoreVoltage["CPU Core #1"], 1.2},
		{"PackagePower", info.PackagePower, 65},
		{"CoresPower", info.CoresPower, 40},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
	if info.Name != "AMD Ryzen 7 5800X" {
		t.Errorf("Name = %q", info.Name)
	}
	if _, ok := info.CoreTemperature["CCD #1"]; ok {
		t.Error("CCD temperature should not be reported as a core temperature")
	}
	if len(info.CoreLoad) != 1 {
		t.Errorf("CoreLoad = %v, want only CPU Core #1", info.CoreLoad)
	}
}

func TestCPUInfo_MergeKeepsPreviousValues(t *testing.T) {
	info := newCPUInfo()
	info.merge(cpuItem(
		hardware.Sensor{Name: "CPU Package", Type: hardware.SensorTemperature, Value: value(50)},
		hardware.Sensor{Name: "CPU Core #1", Type: hardware.SensorLoad, Value: value(10)},
	))
	info.merge(cpuItem(
		hardware.Sensor{Name: "CPU Package", Type: hardware.SensorTemperature},
		hardware.Sensor{Name: "CPU Core #1", Type: hardware.SensorLoad, Value: value(30)},
	))

	if info.PackageTemperature != 50 {
		t.Errorf("PackageTemperature = %v, want 50 kept from the first merge", info.PackageTemperature)
	}
	if info.CoreLoad["CPU Core #1"] != 30 {
		t.Errorf("CoreLoad = %v, want 30", info.CoreLoad["CPU Core #1"])
	}
}

func TestCPUInfo_CountCores(t *testing.T) {
	info := newCPUInfo()
	info.merge(cpuItem(
		hardware.Sensor{Name: "CPU Core #1 Thread #1", Type: hardware.SensorLoad, Value: value(1)},
		hardware.Sensor{Name: "CPU Core #1 Thread #2", Type: hardware.SensorLoad, Value: value(2)},
		hardware.Sensor{Name: "CPU Core #2 Thread #1", Type: hardware.SensorLoad, Value: value(3)},
		hardware.Sensor{Name: "CPU Core #65", Type: hardware.SensorLoad, Value: value(4)},
		hardware.Sensor{Name: "CPU Core #0", Type: hardware.SensorLoad, Value: value(5)},
	))

	if info.Cores != 2 {
		t.Errorf("Cores = %d, want 2", info.Cores)
	}
	if info.Threads != 5 {
		t.Errorf("Threads = %d, want 5", info.Threads)
	}
}

func TestCPUInfo_CloneIsDeep(t *testing.T) {
	info := newCPUInfo()
	info.CoreLoad["CPU Core #1"] = 5

	c := info.clone()
	c.CoreLoad["CPU Core #1"] = 99
	if info.CoreLoad["CPU Core #1"] != 5 {
		t.Error("clone shares CoreLoad with the original")
	}
}

func TestLeadingInt(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"3 Thread #2", 3, true},
		{"12", 12, true},
		{"", 0, false},
		{"x1", 0, false},
	}

	for _, tt := range tests {
		got, ok := leadingInt(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("leadingInt(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestMemoryInfo_Merge(t *testing.T) {
	var m MemoryInfo
	m.merge([]hardware.HardwareSnapshot{{
		Name: "Generic Memory",
		Type: hardware.TypeMemory,
		Sensors: []hardware.Sensor{
			{Name: "Memory", Type: hardware.SensorLoad, Value: value(50)},
			{Name: "Memory Used", Type: hardware.SensorData, Value: value(8)},
			{Name: "Memory Available", Type: hardware.SensorData, Value: value(8)},
		},
	}})

	if m.TotalMemory != 16 || m.MemoryUsage != 50 {
		t.Errorf("merge() = %+v", m)
	}
	if m.UsedVirtualMemory != 0 {
		t.Errorf("UsedVirtualMemory = %v, want 0 without swap sensors", m.UsedVirtualMemory)
	}
}
