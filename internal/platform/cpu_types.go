package platform

// cpuTimes stores raw CPU time values for calculating CPU usage.
// This type is shared between local and remote procfs providers.
type cpuTimes struct {
	user    uint64
	nice    uint64
	system  uint64
	idle    uint64
	iowait  uint64
	irq     uint64
	softirq uint64
	steal   uint64
}

// total returns the total CPU time.
func (c cpuTimes) total() uint64 {
	return c.user + c.nice + c.system + c.idle + c.iowait + c.irq + c.softirq + c.steal
}

// idleTime returns the idle CPU time.
func (c cpuTimes) idleTime() uint64 {
	return c.idle + c.iowait
}

// calculateUsage calculates CPU usage percentage from two cpuTimes snapshots.
// Counter resets (current behind previous) report zero.
func calculateUsage(prev, current cpuTimes) float64 {
	prevTotal, currentTotal := prev.total(), current.total()
	if currentTotal <= prevTotal {
		return 0
	}
	totalDelta := currentTotal - prevTotal

	var idleDelta uint64
	if current.idleTime() > prev.idleTime() {
		idleDelta = current.idleTime() - prev.idleTime()
	}
	if idleDelta > totalDelta {
		return 0
	}

	usage := 100.0 * float64(totalDelta-idleDelta) / float64(totalDelta)
	if usage > 100 {
		return 100
	}
	return usage
}
