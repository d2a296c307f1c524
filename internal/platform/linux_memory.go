package platform

import (
	"fmt"
)

const procMemInfoPath = "/proc/meminfo"

// linuxMemoryProvider implements MemoryProvider by reading /proc/meminfo.
type linuxMemoryProvider struct {
	src fileSource
}

func newLinuxMemoryProvider(src fileSource) *linuxMemoryProvider {
	return &linuxMemoryProvider{src: src}
}

func (m *linuxMemoryProvider) readMemInfo() (map[string]uint64, error) {
	output, err := m.src.ReadFile(procMemInfoPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", procMemInfoPath, err)
	}
	values := parseMemInfo(output)
	if _, ok := values["MemTotal"]; !ok {
		return nil, fmt.Errorf("unexpected %s format: no MemTotal", procMemInfoPath)
	}
	return values, nil
}

func (m *linuxMemoryProvider) Stats() (*MemoryStats, error) {
	values, err := m.readMemInfo()
	if err != nil {
		return nil, err
	}
	return memoryStatsFromInfo(values), nil
}

func (m *linuxMemoryProvider) SwapStats() (*SwapStats, error) {
	values, err := m.readMemInfo()
	if err != nil {
		return nil, err
	}
	return swapStatsFromInfo(values), nil
}
