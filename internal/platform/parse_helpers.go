package platform

import (
	"fmt"
	"strconv"
	"strings"
)

// bytesPerKB is the unit /proc/meminfo reports in.
const bytesPerKB = 1024

// parseProcStat parses /proc/stat content into the aggregate "cpu" line and
// the per-CPU "cpuN" lines keyed by N.
func parseProcStat(output string) (cpuTimes, map[int]cpuTimes, error) {
	var total cpuTimes
	var haveTotal bool
	perCPU := make(map[int]cpuTimes)

	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 5 || !strings.HasPrefix(fields[0], "cpu") {
			continue
		}

		times := parseCPULine(fields[1:])
		if fields[0] == "cpu" {
			total = times
			haveTotal = true
			continue
		}

		n, err := strconv.Atoi(strings.TrimPrefix(fields[0], "cpu"))
		if err != nil {
			continue
		}
		perCPU[n] = times
	}

	if !haveTotal {
		return cpuTimes{}, nil, fmt.Errorf("unexpected /proc/stat format: no aggregate cpu line")
	}
	return total, perCPU, nil
}

// parseCPULine parses the counters following the "cpuN" label. Older
// kernels omit the trailing columns; missing values are zero.
func parseCPULine(fields []string) cpuTimes {
	values := make([]uint64, 8)
	for i := 0; i < len(values) && i < len(fields); i++ {
		values[i] = parseUint64(fields[i])
	}
	return cpuTimes{
		user:    values[0],
		nice:    values[1],
		system:  values[2],
		idle:    values[3],
		iowait:  values[4],
		irq:     values[5],
		softirq: values[6],
		steal:   values[7],
	}
}

// parseMemInfo parses /proc/meminfo content into a map of byte values.
func parseMemInfo(output string) map[string]uint64 {
	values := make(map[string]uint64)
	for _, line := range strings.Split(output, "\n") {
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		valueStr := strings.TrimSuffix(strings.TrimSpace(parts[1]), " kB")
		value, err := strconv.ParseUint(valueStr, 10, 64)
		if err != nil {
			continue
		}

		if value > ^uint64(0)/bytesPerKB {
			continue
		}
		values[key] = value * bytesPerKB
	}
	return values
}

// memoryStatsFromInfo derives MemoryStats from parsed /proc/meminfo values.
func memoryStatsFromInfo(values map[string]uint64) *MemoryStats {
	stats := &MemoryStats{
		Total:     values["MemTotal"],
		Free:      values["MemFree"],
		Available: values["MemAvailable"],
		Buffers:   values["Buffers"],
		Cached:    values["Cached"],
	}
	stats.Used = calculateUsedMemory(stats.Total, stats.Free, stats.Buffers, stats.Cached)
	if stats.Total > 0 {
		stats.UsedPercent = float64(stats.Used) / float64(stats.Total) * 100.0
	}
	return stats
}

// swapStatsFromInfo derives SwapStats from parsed /proc/meminfo values.
func swapStatsFromInfo(values map[string]uint64) *SwapStats {
	stats := &SwapStats{
		Total: values["SwapTotal"],
		Free:  values["SwapFree"],
	}
	if stats.Total > stats.Free {
		stats.Used = stats.Total - stats.Free
	}
	if stats.Total > 0 {
		stats.UsedPercent = float64(stats.Used) / float64(stats.Total) * 100
	}
	return stats
}

// calculateUsedMemory calculates used memory using stepwise subtraction
// to prevent underflow.
func calculateUsedMemory(total, free, buffers, cached uint64) uint64 {
	if total < free {
		return 0
	}
	remaining := total - free
	if remaining < buffers {
		return remaining
	}
	remaining -= buffers
	if remaining < cached {
		return total - free
	}
	return remaining - cached
}

// cpuinfoEntry holds the /proc/cpuinfo fields of one "processor" block.
type cpuinfoEntry struct {
	processor  int
	model      string
	vendor     string
	mhz        float64
	physicalID int
	coreID     int
	cpuCores   int
	siblings   int
	cacheBytes int64
	hasCoreID  bool
}

// parseCPUInfo splits /proc/cpuinfo content into per-processor entries.
func parseCPUInfo(output string) []cpuinfoEntry {
	var entries []cpuinfoEntry
	var cur *cpuinfoEntry

	for _, line := range strings.Split(output, "\n") {
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if key == "processor" {
			n, err := strconv.Atoi(value)
			if err != nil {
				cur = nil
				continue
			}
			entries = append(entries, cpuinfoEntry{processor: n})
			cur = &entries[len(entries)-1]
			continue
		}
		if cur == nil {
			continue
		}

		switch key {
		case "model name", "Processor":
			cur.model = value
		case "vendor_id", "CPU implementer":
			if cur.vendor == "" {
				cur.vendor = value
			}
		case "cpu MHz":
			if f, err := strconv.ParseFloat(value, 64); err == nil {
				cur.mhz = f
			}
		case "physical id":
			cur.physicalID, _ = strconv.Atoi(value)
		case "core id":
			if n, err := strconv.Atoi(value); err == nil {
				cur.coreID = n
				cur.hasCoreID = true
			}
		case "cpu cores":
			cur.cpuCores, _ = strconv.Atoi(value)
		case "siblings":
			cur.siblings, _ = strconv.Atoi(value)
		case "cache size":
			// e.g. "8192 KB"
			if f := strings.Fields(value); len(f) >= 1 {
				if size, err := strconv.ParseInt(f[0], 10, 64); err == nil {
					cur.cacheBytes = size * 1024
				}
			}
		}
	}
	return entries
}

// cpuInfoFromEntries summarises parsed /proc/cpuinfo entries.
func cpuInfoFromEntries(entries []cpuinfoEntry) *CPUInfo {
	info := &CPUInfo{}
	for _, e := range entries {
		if info.Model == "" {
			info.Model = e.model
		}
		if info.Vendor == "" {
			info.Vendor = e.vendor
		}
		if info.Cores == 0 && e.cpuCores > 0 {
			info.Cores = e.cpuCores
		}
		if info.Threads == 0 && e.siblings > 0 {
			info.Threads = e.siblings
		}
		if info.CacheSize == 0 {
			info.CacheSize = e.cacheBytes
		}
	}

	if info.Cores == 0 {
		info.Cores = len(entries)
	}
	if info.Threads == 0 {
		info.Threads = len(entries)
	}
	return info
}
