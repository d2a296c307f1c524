package hwinfo

import "github.com/opd-ai/go-hwinfo/internal/hardware"

// MemoryInfo is the report returned by GetMemoryInfo. Amounts are GiB,
// usages are percentages. Virtual memory is RAM plus swap.
type MemoryInfo struct {
	AvailableMemory        Number `json:"AvailableMemory"`
	AvailableVirtualMemory Number `json:"AvailableVirtualMemory"`
	MemoryUsage            Number `json:"MemoryUsage"`
	TotalMemory            Number `json:"TotalMemory"`
	UsedMemory             Number `json:"UsedMemory"`
	UsedVirtualMemory      Number `json:"UsedVirtualMemory"`
	VirtualMemoryUsage     Number `json:"VirtualMemoryUsage"`
}

// merge folds memory hardware sensors into m. Like CPUInfo, fields without
// a current value keep the previous one.
func (m *MemoryInfo) merge(items []hardware.HardwareSnapshot) {
	for _, h := range items {
		for _, s := range h.Sensors {
			if s.Value == nil {
				continue
			}
			v := Number(*s.Value)
			switch {
			case s.Type == hardware.SensorLoad && s.Name == hardware.SensorMemory:
				m.MemoryUsage = v
			case s.Type == hardware.SensorLoad && s.Name == hardware.SensorVirtualMemory:
				m.VirtualMemoryUsage = v
			case s.Type == hardware.SensorData && s.Name == hardware.SensorMemoryUsed:
				m.UsedMemory = v
			case s.Type == hardware.SensorData && s.Name == hardware.SensorMemoryAvailable:
				m.AvailableMemory = v
			case s.Type == hardware.SensorData && s.Name == hardware.SensorVirtualMemoryUsed:
				m.UsedVirtualMemory = v
			case s.Type == hardware.SensorData && s.Name == hardware.SensorVirtualMemoryAvailable:
				m.AvailableVirtualMemory = v
			}
		}
	}
	m.TotalMemory = m.UsedMemory + m.AvailableMemory
}
