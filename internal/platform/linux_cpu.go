package platform

import (
	"fmt"
	"path"
	"sort"
	"strconv"
	"sync"
)

const (
	procStatPath = "/proc/stat"
	procInfoPath = "/proc/cpuinfo"
	sysCPUPath   = "/sys/devices/system/cpu"
)

// aggregateCPU is the prevStats key for the aggregate "cpu" line.
const aggregateCPU = -1

// linuxCPUProvider implements CPUProvider by reading /proc/stat, /proc/cpuinfo
// and /sys/devices/system/cpu from a local or remote source.
type linuxCPUProvider struct {
	mu        sync.Mutex
	src       fileSource
	prevStats map[int]cpuTimes
}

func newLinuxCPUProvider(src fileSource) *linuxCPUProvider {
	return &linuxCPUProvider{
		src:       src,
		prevStats: make(map[int]cpuTimes),
	}
}

func (c *linuxCPUProvider) readProcStat() (cpuTimes, map[int]cpuTimes, error) {
	output, err := c.src.ReadFile(procStatPath)
	if err != nil {
		return cpuTimes{}, nil, fmt.Errorf("reading %s: %w", procStatPath, err)
	}
	return parseProcStat(output)
}

func (c *linuxCPUProvider) Usage() (map[int]float64, error) {
	_, perCPU, err := c.readProcStat()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	usages := make(map[int]float64, len(perCPU))
	for cpuNum, current := range perCPU {
		prev, exists := c.prevStats[cpuNum]
		c.prevStats[cpuNum] = current
		if !exists {
			usages[cpuNum] = 0
			continue
		}
		usages[cpuNum] = calculateUsage(prev, current)
	}
	return usages, nil
}

func (c *linuxCPUProvider) TotalUsage() (float64, error) {
	total, _, err := c.readProcStat()
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	prev, exists := c.prevStats[aggregateCPU]
	c.prevStats[aggregateCPU] = total
	if !exists {
		return 0, nil
	}
	return calculateUsage(prev, total), nil
}

// Frequency prefers cpufreq's scaling_cur_freq (kHz) and falls back to the
// "cpu MHz" lines of /proc/cpuinfo.
func (c *linuxCPUProvider) Frequency() (map[int]float64, error) {
	ids, err := c.onlineCPUs()
	if err != nil {
		return nil, err
	}

	freqs := make(map[int]float64, len(ids))
	for _, id := range ids {
		p := path.Join(sysCPUPath, "cpu"+strconv.Itoa(id), "cpufreq", "scaling_cur_freq")
		if khz, ok := readUint64(c.src, p); ok {
			freqs[id] = float64(khz) / 1000.0
		}
	}
	if len(freqs) > 0 {
		return freqs, nil
	}

	output, err := c.src.ReadFile(procInfoPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", procInfoPath, err)
	}
	for _, e := range parseCPUInfo(output) {
		if e.mhz > 0 {
			freqs[e.processor] = e.mhz
		}
	}
	return freqs, nil
}

func (c *linuxCPUProvider) Info() (*CPUInfo, error) {
	output, err := c.src.ReadFile(procInfoPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", procInfoPath, err)
	}
	return cpuInfoFromEntries(parseCPUInfo(output)), nil
}

// Topology resolves core and package IDs from sysfs, then /proc/cpuinfo.
// A CPU with no topology data is treated as its own core on package 0.
func (c *linuxCPUProvider) Topology() ([]LogicalCPU, error) {
	ids, err := c.onlineCPUs()
	if err != nil {
		return nil, err
	}

	var fromInfo map[int]cpuinfoEntry
	cpus := make([]LogicalCPU, 0, len(ids))
	for _, id := range ids {
		dir := path.Join(sysCPUPath, "cpu"+strconv.Itoa(id), "topology")
		coreID, okCore := readInt(c.src, path.Join(dir, "core_id"))
		pkgID, okPkg := readInt(c.src, path.Join(dir, "physical_package_id"))

		if !okCore || !okPkg {
			if fromInfo == nil {
				fromInfo = c.cpuinfoByProcessor()
			}
			if e, ok := fromInfo[id]; ok && e.hasCoreID {
				coreID, pkgID = e.coreID, e.physicalID
			} else {
				coreID, pkgID = id, 0
			}
		}

		cpus = append(cpus, LogicalCPU{ID: id, CoreID: coreID, PackageID: pkgID})
	}
	return cpus, nil
}

func (c *linuxCPUProvider) cpuinfoByProcessor() map[int]cpuinfoEntry {
	m := make(map[int]cpuinfoEntry)
	output, err := c.src.ReadFile(procInfoPath)
	if err != nil {
		return m
	}
	for _, e := range parseCPUInfo(output) {
		m[e.processor] = e
	}
	return m
}

// onlineCPUs lists the logical CPUs /proc/stat reports, sorted.
func (c *linuxCPUProvider) onlineCPUs() ([]int, error) {
	_, perCPU, err := c.readProcStat()
	if err != nil {
		return nil, err
	}
	ids := make([]int, 0, len(perCPU))
	for id := range perCPU {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}
