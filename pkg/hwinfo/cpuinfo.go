package hwinfo

import (
	"strconv"
	"strings"

	"github.com/opd-ai/go-hwinfo/internal/hardware"
)

// maxCoreNumber bounds the core numbers counted in CPUInfo.Cores.
const maxCoreNumber = 64

// CPUInfo is the report returned by GetCPUInfo. Fields are declared in
// byte order of their JSON keys; map keys are sensor names.
type CPUInfo struct {
	AverageTemperature Number            `json:"AverageTemperature"`
	BusSpeed           Number            `json:"BusSpeed"`
	CPUUsage           Number            `json:"CPUUsage"`
	CPUVoltage         Number            `json:"CPUVoltage"`
	CoreClock          map[string]Number `json:"CoreClock"`
	CoreLoad           map[string]Number `json:"CoreLoad"`
	CoreTemperature    map[string]Number `json:"CoreTemperature"`
	CoreVoltage        map[string]Number `json:"CoreVoltage"`
	Cores              int               `json:"Cores"`
	CoresPower         Number            `json:"CoresPower"`
	MaxCoreUsage       Number            `json:"MaxCoreUsage"`
	MaxTemperature     Number            `json:"MaxTemperature"`
	Name               string            `json:"Name"`
	PackagePower       Number            `json:"PackagePower"`
	PackageTemperature Number            `json:"PackageTemperature"`
	Threads            int               `json:"Threads"`
}

func newCPUInfo() *CPUInfo {
	return &CPUInfo{
		CoreClock:       make(map[string]Number),
		CoreLoad:        make(map[string]Number),
		CoreTemperature: make(map[string]Number),
		CoreVoltage:     make(map[string]Number),
	}
}

// clone returns a deep copy.
func (c *CPUInfo) clone() *CPUInfo {
	out := *c
	out.CoreClock = cloneNumbers(c.CoreClock)
	out.CoreLoad = cloneNumbers(c.CoreLoad)
	out.CoreTemperature = cloneNumbers(c.CoreTemperature)
	out.CoreVoltage = cloneNumbers(c.CoreVoltage)
	return &out
}

func cloneNumbers(m map[string]Number) map[string]Number {
	out := make(map[string]Number, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// merge folds the sensors of CPU hardware into c. Fields whose sensors have
// no value keep what an earlier merge stored; Cores and Threads are
// recounted from CoreLoad.
func (c *CPUInfo) merge(items []hardware.HardwareSnapshot) {
	for _, h := range items {
		c.Name = h.Name
		for _, s := range h.Sensors {
			if s.Value == nil {
				continue
			}
			c.apply(s.Type, s.Name, Number(*s.Value))
		}
		c.countCores()
	}
}

func (c *CPUInfo) apply(typ hardware.SensorType, name string, v Number) {
	switch typ {
	case hardware.SensorLoad:
		switch {
		case name == hardware.SensorCPUTotal:
			c.CPUUsage = v
		case strings.HasPrefix(name, hardware.SensorCPUCoreMax):
			c.MaxCoreUsage = v
		case strings.HasPrefix(name, hardware.SensorCPUCore):
			c.CoreLoad[name] = v
		}
	case hardware.SensorTemperature:
		switch {
		case name == hardware.SensorCoreMax:
			c.MaxTemperature = v
		case name == hardware.SensorCPUPackage:
			c.PackageTemperature = v
		case name == hardware.SensorCoreAverage:
			c.AverageTemperature = v
		case strings.HasPrefix(name, hardware.SensorCPUCore):
			c.CoreTemperature[name] = v
		}
	case hardware.SensorClock:
		switch {
		case strings.HasPrefix(name, hardware.SensorCPUCore):
			c.CoreClock[name] = v
		case name == hardware.SensorBusSpeed:
			c.BusSpeed = v
		}
	case hardware.SensorVoltage:
		switch {
		case strings.HasPrefix(name, hardware.SensorCPUCore+" #"):
			c.CoreVoltage[name] = v
		case name == hardware.SensorCPUCore:
			c.CPUVoltage = v
		}
	case hardware.SensorPower:
		switch name {
		case hardware.SensorCPUPackage:
			c.PackagePower = v
		case hardware.SensorCPUCores:
			c.CoresPower = v
		}
	}
}

// countCores counts distinct core numbers among "CPU Core #N..." loads.
// Threads is the number of load entries.
func (c *CPUInfo) countCores() {
	var seen [maxCoreNumber]bool
	cores := 0
	prefix := hardware.SensorCPUCore + " #"
	for name := range c.CoreLoad {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		n, ok := leadingInt(name[len(prefix):])
		if !ok || n < 1 || n > maxCoreNumber || seen[n-1] {
			continue
		}
		seen[n-1] = true
		cores++
	}
	c.Cores = cores
	c.Threads = len(c.CoreLoad)
}

// leadingInt parses the decimal number at the start of s, as in
// "3 Thread #2".
func leadingInt(s string) (int, bool) {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
