// Package hardware models the machine as a tree of hardware items, each
// carrying typed sensors, and refreshes it from a platform.Platform.
package hardware

import (
	"context"
	"fmt"
	"strings"
)

// HardwareType classifies a hardware item.
type HardwareType int

const (
	TypeCPU HardwareType = iota
	TypeMemory
	TypeMotherboard
	TypeGPUNvidia
	TypeGPUAmd
	TypeGPUIntel
	TypeStorage
	TypeNetwork
	TypeCooler
)

var hardwareTypeNames = [...]string{
	TypeCPU:         "Cpu",
	TypeMemory:      "Memory",
	TypeMotherboard: "Motherboard",
	TypeGPUNvidia:   "GpuNvidia",
	TypeGPUAmd:      "GpuAmd",
	TypeGPUIntel:    "GpuIntel",
	TypeStorage:     "Storage",
	TypeNetwork:     "Network",
	TypeCooler:      "Cooler",
}

// String returns the display name used in sensor dumps.
func (t HardwareType) String() string {
	if t < 0 || int(t) >= len(hardwareTypeNames) {
		return "Unknown"
	}
	return hardwareTypeNames[t]
}

// IsGPU reports whether t is one of the GPU vendor types.
func (t HardwareType) IsGPU() bool {
	return t == TypeGPUNvidia || t == TypeGPUAmd || t == TypeGPUIntel
}

// SensorType classifies a sensor and fixes its unit.
type SensorType int

const (
	SensorVoltage     SensorType = iota // V
	SensorClock                         // MHz
	SensorTemperature                   // °C
	SensorLoad                          // %
	SensorFan                           // RPM
	SensorPower                         // W
	SensorData                          // GiB
	SensorControl                       // %
)

var sensorTypeNames = [...]string{
	SensorVoltage:     "Voltage",
	SensorClock:       "Clock",
	SensorTemperature: "Temperature",
	SensorLoad:        "Load",
	SensorFan:         "Fan",
	SensorPower:       "Power",
	SensorData:        "Data",
	SensorControl:     "Control",
}

var sensorTypeUnits = [...]string{
	SensorVoltage:     "V",
	SensorClock:       "MHz",
	SensorTemperature: "°C",
	SensorLoad:        "%",
	SensorFan:         "RPM",
	SensorPower:       "W",
	SensorData:        "GiB",
	SensorControl:     "%",
}

func (t SensorType) String() string {
	if t < 0 || int(t) >= len(sensorTypeNames) {
		return "Unknown"
	}
	return sensorTypeNames[t]
}

// Unit returns the unit every value of this type is expressed in.
func (t SensorType) Unit() string {
	if t < 0 || int(t) >= len(sensorTypeUnits) {
		return ""
	}
	return sensorTypeUnits[t]
}

// ParseSensorType resolves a sensor type name case-insensitively.
func ParseSensorType(name string) (SensorType, bool) {
	for i, n := range sensorTypeNames {
		if strings.EqualFold(n, name) {
			return SensorType(i), true
		}
	}
	return 0, false
}

// Sensor is a point-in-time copy of one sensor. Value is nil when the last
// update did not produce a reading; Min and Max track every value seen since
// the hardware was opened.
type Sensor struct {
	Name  string
	Type  SensorType
	Value *float64
	Min   *float64
	Max   *float64
}

// HasValue reports whether the sensor produced a reading in the last update.
func (s Sensor) HasValue() bool {
	return s.Value != nil
}

// Hardware is one item of the sensor tree.
type Hardware interface {
	Name() string
	Type() HardwareType
	// Identifier is a stable path such as "/cpu/0" or "/hwmon/hwmon3".
	Identifier() string
	// Update refreshes every sensor of this item.
	Update(ctx context.Context) error
	// Sensors returns copies of the current sensors ordered by type.
	Sensors() []Sensor
}

// Groups selects which hardware groups a Computer opens.
type Groups struct {
	CPU         bool `yaml:"cpu" json:"cpu"`
	Memory      bool `yaml:"memory" json:"memory"`
	Motherboard bool `yaml:"motherboard" json:"motherboard"`
	Controller  bool `yaml:"controller" json:"controller"`
	GPU         bool `yaml:"gpu" json:"gpu"`
	Network     bool `yaml:"network" json:"network"`
	Storage     bool `yaml:"storage" json:"storage"`
}

// DefaultGroups enables CPU and memory only.
func DefaultGroups() Groups {
	return Groups{CPU: true, Memory: true}
}

// AllGroups enables every group.
func AllGroups() Groups {
	return Groups{
		CPU:         true,
		Memory:      true,
		Motherboard: true,
		Controller:  true,
		GPU:         true,
		Network:     true,
		Storage:     true,
	}
}

// Any reports whether at least one group is enabled.
func (g Groups) Any() bool {
	return g.CPU || g.Memory || g.Motherboard || g.Controller || g.GPU || g.Network || g.Storage
}

// ParseGroups builds Groups from group names such as "cpu" or "gpu". The
// name "all" enables every group.
func ParseGroups(names []string) (Groups, error) {
	var g Groups
	for _, raw := range names {
		switch name := strings.ToLower(strings.TrimSpace(raw)); name {
		case "":
		case "all":
			g = AllGroups()
		case "cpu":
			g.CPU = true
		case "memory", "mem":
			g.Memory = true
		case "motherboard":
			g.Motherboard = true
		case "controller":
			g.Controller = true
		case "gpu":
			g.GPU = true
		case "network":
			g.Network = true
		case "storage":
			g.Storage = true
		default:
			return Groups{}, fmt.Errorf("unknown hardware group %q", raw)
		}
	}
	return g, nil
}
