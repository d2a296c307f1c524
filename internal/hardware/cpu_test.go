package hardware

import (
	"testing"

	"github.com/opd-ai/go-hwinfo/internal/platform"
)

func TestCPUDisplayName(t *testing.T) {
	tests := []struct {
		model string
		want  string
	}{
		{"Intel(R) Core(TM) i5-8250U CPU @ 1.60GHz", "Intel Core i5-8250U"},
		{"AMD Ryzen 7 5800X 8-Core Processor", "AMD Ryzen 7 5800X"},
		{"AMD Ryzen 7 PRO 4750U with Radeon Graphics", "AMD Ryzen 7 PRO 4750U"},
		{"Intel(R) Xeon(R) CPU E5-2680 v4 @ 2.40GHz", "Intel Xeon E5-2680 v4"},
		{"Apple M2", "Apple M2"},
		{"", "Generic CPU"},
	}
	for _, tt := range tests {
		if got := cpuDisplayName(tt.model); got != tt.want {
			t.Errorf("cpuDisplayName(%q) = %q, want %q", tt.model, got, tt.want)
		}
	}
}

func TestBuildSlots(t *testing.T) {
	t.Run("without SMT", func(t *testing.T) {
		slots := buildSlots([]platform.LogicalCPU{
			{ID: 1, CoreID: 4}, {ID: 0, CoreID: 0},
		})
		want := []string{"CPU Core #1", "CPU Core #2"}
		for i, s := range slots {
			if s.name != want[i] {
				t.Errorf("slots[%d].name = %q, want %q", i, s.name, want[i])
			}
		}
		if slots[1].id != 1 {
			t.Errorf("core with id 4 should map to logical CPU 1, got %d", slots[1].id)
		}
	})

	t.Run("multi package", func(t *testing.T) {
		slots := buildSlots([]platform.LogicalCPU{
			{ID: 0, CoreID: 0, PackageID: 1},
			{ID: 1, CoreID: 0, PackageID: 0},
			{ID: 2, CoreID: 0, PackageID: 1},
			{ID: 3, CoreID: 0, PackageID: 0},
		})
		want := []struct {
			id   int
			name string
		}{
			{1, "CPU Core #1 Thread #1"},
			{3, "CPU Core #1 Thread #2"},
			{0, "CPU Core #2 Thread #1"},
			{2, "CPU Core #2 Thread #2"},
		}
		if len(slots) != len(want) {
			t.Fatalf("got %d slots, want %d", len(slots), len(want))
		}
		for i, w := range want {
			if slots[i].id != w.id || slots[i].name != w.name {
				t.Errorf("slots[%d] = {%d %q}, want {%d %q}", i, slots[i].id, slots[i].name, w.id, w.name)
			}
		}
	})
}

func TestCPUTemperatures_AMD(t *testing.T) {
	c := &cpuHardware{sensors: newSensorSet()}
	c.applyTemperatures([]platform.SensorReading{
		{Device: "hwmon0", Name: "k10temp", Label: "Tctl", Value: 70},
		{Device: "hwmon0", Name: "k10temp", Label: "Tccd1", Value: 62},
		{Device: "hwmon0", Name: "k10temp", Label: "Tccd2", Value: 64},
	})
	sensors := c.sensors.snapshot()
	assertValue(t, findSensor(t, sensors, SensorTemperature, "CPU Package"), 70)
	assertValue(t, findSensor(t, sensors, SensorTemperature, "CCD #1"), 62)
	assertValue(t, findSensor(t, sensors, SensorTemperature, "CCD #2"), 64)

	c = &cpuHardware{sensors: newSensorSet()}
	c.applyTemperatures([]platform.SensorReading{
		{Device: "hwmon0", Name: "k10temp", Label: "Tctl", Value: 80},
		{Device: "hwmon0", Name: "k10temp", Label: "Tdie", Value: 70},
	})
	assertValue(t, findSensor(t, c.sensors.snapshot(), SensorTemperature, "CPU Package"), 70)
}

func TestCPUTemperatures_GenericFallback(t *testing.T) {
	c := &cpuHardware{sensors: newSensorSet()}
	c.applyTemperatures([]platform.SensorReading{
		{Device: "acpitz", Name: "acpitz", Label: "temp1", Value: 30},
		{Device: "applesmc", Name: "applesmc", Label: "CPU Die", Value: 48},
	})
	assertValue(t, findSensor(t, c.sensors.snapshot(), SensorTemperature, "CPU Package"), 48)
}

func TestCPUPower_Zenpower(t *testing.T) {
	c := &cpuHardware{sensors: newSensorSet()}
	c.applyPower([]platform.SensorReading{
		{Device: "hwmon2", Name: "zenpower", Label: "SVI2_P_Core", Value: 42},
		{Device: "intel-rapl", Name: "intel-rapl", Label: "package-1", Value: 99},
	})
	sensors := c.sensors.snapshot()
	assertValue(t, findSensor(t, sensors, SensorPower, "CPU Cores"), 42)
	if len(sensors) != 1 {
		t.Errorf("second package power should be ignored, got %d sensors", len(sensors))
	}
}

func TestLabelNumber(t *testing.T) {
	if n, ok := labelNumber("Core 12", "Core "); !ok || n != 12 {
		t.Errorf("labelNumber(Core 12) = %d, %v", n, ok)
	}
	if _, ok := labelNumber("Core x", "Core "); ok {
		t.Error("labelNumber should reject non-numeric suffix")
	}
	if _, ok := labelNumber("Package id 0", "Core "); ok {
		t.Error("labelNumber should reject other prefixes")
	}
}
