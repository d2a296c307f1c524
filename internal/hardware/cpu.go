package hardware

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/opd-ai/go-hwinfo/internal/platform"
)

// CPU sensor names shared with consumers of the sensor tree.
const (
	SensorCPUTotal     = "CPU Total"
	SensorCPUCoreMax   = "CPU Core Max"
	SensorCPUPackage   = "CPU Package"
	SensorCPUCores     = "CPU Cores"
	SensorCPUCore      = "CPU Core"
	SensorCoreMax      = "Core Max"
	SensorCoreAverage  = "Core Average"
	SensorBusSpeed     = "Bus Speed"
	cpuCoreSensorBase  = "CPU Core #"
	genericCPUName     = "Generic CPU"
	cpuIdentifierFirst = "/cpu/0"
)

var (
	cpuClockSuffix   = regexp.MustCompile(`\s*@\s*[\d.]+\s*[GM]Hz.*$`)
	cpuGraphicsTail  = regexp.MustCompile(`\s+with\s+Radeon.*$`)
	cpuCoreCountWord = regexp.MustCompile(`\s+\S+-Core\b`)
	cpuNameNoise     = strings.NewReplacer(
		"(R)", "", "(r)", "", "(TM)", "", "(tm)", "",
		" CPU", "", " Processor", "",
	)
)

// cpuDisplayName shortens a marketing model string, e.g.
// "Intel(R) Core(TM) i5-8250U CPU @ 1.60GHz" becomes "Intel Core i5-8250U".
func cpuDisplayName(model string) string {
	name := cpuClockSuffix.ReplaceAllString(model, "")
	name = cpuGraphicsTail.ReplaceAllString(name, "")
	name = cpuNameNoise.Replace(name)
	name = cpuCoreCountWord.ReplaceAllString(name, "")
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return genericCPUName
	}
	return name
}

// logicalSlot maps one logical CPU to its sensor name.
type logicalSlot struct {
	id     int
	core   int // 1-based, ordered by package then core id
	thread int // 1-based within the core
	name   string
}

// buildSlots numbers cores in (package, core id) order. Thread suffixes are
// only used when some core runs more than one thread.
func buildSlots(topology []platform.LogicalCPU) []logicalSlot {
	type coreKey struct{ pkg, core int }
	byCore := make(map[coreKey][]int)
	for _, l := range topology {
		k := coreKey{pkg: l.PackageID, core: l.CoreID}
		byCore[k] = append(byCore[k], l.ID)
	}

	keys := make([]coreKey, 0, len(byCore))
	smt := false
	for k, ids := range byCore {
		keys = append(keys, k)
		if len(ids) > 1 {
			smt = true
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].pkg != keys[j].pkg {
			return keys[i].pkg < keys[j].pkg
		}
		return keys[i].core < keys[j].core
	})

	slots := make([]logicalSlot, 0, len(topology))
	for c, k := range keys {
		ids := byCore[k]
		sort.Ints(ids)
		for t, id := range ids {
			slot := logicalSlot{id: id, core: c + 1, thread: t + 1}
			if smt {
				slot.name = fmt.Sprintf("%s%d Thread #%d", cpuCoreSensorBase, slot.core, slot.thread)
			} else {
				slot.name = fmt.Sprintf("%s%d", cpuCoreSensorBase, slot.core)
			}
			slots = append(slots, slot)
		}
	}
	return slots
}

// cpuHardware exposes load, clock, temperature, voltage and power sensors
// of every CPU package as one hardware item.
type cpuHardware struct {
	name    string
	cpu     platform.CPUProvider
	sampler *sensorSampler
	sensors *sensorSet

	mu    sync.Mutex
	slots []logicalSlot
}

func newCPUHardware(cpu platform.CPUProvider, sampler *sensorSampler) *cpuHardware {
	name := genericCPUName
	if info, err := cpu.Info(); err == nil && info != nil {
		name = cpuDisplayName(info.Model)
	}
	return &cpuHardware{
		name:    name,
		cpu:     cpu,
		sampler: sampler,
		sensors: newSensorSet(),
	}
}

func (c *cpuHardware) Name() string       { return c.name }
func (c *cpuHardware) Type() HardwareType { return TypeCPU }
func (c *cpuHardware) Identifier() string { return cpuIdentifierFirst }
func (c *cpuHardware) Sensors() []Sensor  { return c.sensors.snapshot() }

func (c *cpuHardware) Update(ctx context.Context) error {
	c.sampler.nextPass()
	return c.refresh(ctx)
}

func (c *cpuHardware) refresh(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	total, err := c.cpu.TotalUsage()
	if err != nil {
		return fmt.Errorf("total usage: %w", err)
	}
	usage, err := c.cpu.Usage()
	if err != nil {
		return fmt.Errorf("per-cpu usage: %w", err)
	}
	if len(c.slots) != len(usage) {
		c.slots = c.loadSlots(usage)
	}

	c.sensors.begin()
	c.sensors.set(SensorLoad, SensorCPUTotal, total)

	maxLoad, haveLoad := 0.0, false
	for _, slot := range c.slots {
		v, ok := usage[slot.id]
		if !ok {
			continue
		}
		c.sensors.set(SensorLoad, slot.name, v)
		if !haveLoad || v > maxLoad {
			maxLoad = v
		}
		haveLoad = true
	}
	if haveLoad {
		c.sensors.set(SensorLoad, SensorCPUCoreMax, maxLoad)
	}

	if freqs, err := c.cpu.Frequency(); err == nil {
		c.applyClocks(freqs)
	}

	frame := c.sampler.sample()
	c.applyTemperatures(frame.temperatures)
	c.applyVoltages(frame.voltages)
	c.applyPower(frame.power)
	return nil
}

// loadSlots reads the topology, falling back to one core per logical CPU.
func (c *cpuHardware) loadSlots(usage map[int]float64) []logicalSlot {
	topology, err := c.cpu.Topology()
	if err != nil || len(topology) == 0 {
		topology = make([]platform.LogicalCPU, 0, len(usage))
		for id := range usage {
			topology = append(topology, platform.LogicalCPU{ID: id, CoreID: id})
		}
	}
	return buildSlots(topology)
}

// applyClocks reports one clock per core, taken from its first thread.
func (c *cpuHardware) applyClocks(freqs map[int]float64) {
	done := make(map[int]bool)
	for _, slot := range c.slots {
		if done[slot.core] {
			continue
		}
		mhz, ok := freqs[slot.id]
		if !ok || mhz <= 0 {
			continue
		}
		c.sensors.set(SensorClock, fmt.Sprintf("%s%d", cpuCoreSensorBase, slot.core), mhz)
		done[slot.core] = true
	}
}

type coreTemperature struct {
	device string
	index  int
	value  float64
}

func (c *cpuHardware) applyTemperatures(readings []platform.SensorReading) {
	var (
		cores    []coreTemperature
		havePkg  bool
		tctl     float64
		haveTctl bool
	)
	setPackage := func(v float64) {
		c.sensors.set(SensorTemperature, SensorCPUPackage, v)
		havePkg = true
	}

	for _, r := range readings {
		switch r.Name {
		case "coretemp":
			if id, ok := labelNumber(r.Label, "Package id "); ok {
				if id == 0 {
					setPackage(r.Value)
				}
				continue
			}
			if k, ok := labelNumber(r.Label, "Core "); ok {
				cores = append(cores, coreTemperature{device: r.Device, index: k, value: r.Value})
			}
		case "k10temp", "zenpower":
			switch {
			case r.Label == "Tdie":
				setPackage(r.Value)
			case r.Label == "Tctl":
				tctl, haveTctl = r.Value, true
			case strings.HasPrefix(r.Label, "Tccd"):
				if n, ok := labelNumber(r.Label, "Tccd"); ok {
					c.sensors.set(SensorTemperature, fmt.Sprintf("CCD #%d", n), r.Value)
				}
			}
		case "cpu_thermal", "cpu-thermal", "soc_thermal":
			if !havePkg {
				setPackage(r.Value)
			}
		}
	}
	if !havePkg && haveTctl {
		setPackage(tctl)
	}
	if !havePkg {
		for _, r := range readings {
			label := strings.ToLower(r.Label)
			if strings.Contains(label, "cpu") || strings.Contains(label, "package") {
				setPackage(r.Value)
				break
			}
		}
	}

	if len(cores) == 0 {
		return
	}
	sort.SliceStable(cores, func(i, j int) bool {
		if cores[i].device != cores[j].device {
			return cores[i].device < cores[j].device
		}
		return cores[i].index < cores[j].index
	})
	maxTemp, sum := cores[0].value, 0.0
	for i, ct := range cores {
		c.sensors.set(SensorTemperature, fmt.Sprintf("%s%d", cpuCoreSensorBase, i+1), ct.value)
		if ct.value > maxTemp {
			maxTemp = ct.value
		}
		sum += ct.value
	}
	c.sensors.set(SensorTemperature, SensorCoreMax, maxTemp)
	c.sensors.set(SensorTemperature, SensorCoreAverage, sum/float64(len(cores)))
}

var cpuVoltageLabels = map[string]bool{
	"vcore":     true,
	"cpu core":  true,
	"cpu vcore": true,
	"vddcr_cpu": true,
	"vddcr cpu": true,
	"svi2_core": true,
	"cpu_vcore": true,
}

func (c *cpuHardware) applyVoltages(readings []platform.SensorReading) {
	for _, r := range readings {
		if cpuVoltageLabels[strings.ToLower(r.Label)] {
			c.sensors.set(SensorVoltage, SensorCPUCore, r.Value)
			return
		}
	}
}

func (c *cpuHardware) applyPower(readings []platform.SensorReading) {
	for _, r := range readings {
		switch r.Name {
		case "intel-rapl":
			switch {
			case r.Label == "package-0":
				c.sensors.set(SensorPower, SensorCPUPackage, r.Value)
			case r.Label == "core":
				c.sensors.set(SensorPower, SensorCPUCores, r.Value)
			case r.Label == "uncore":
				c.sensors.set(SensorPower, "CPU Graphics", r.Value)
			case r.Label == "dram":
				c.sensors.set(SensorPower, "CPU Memory", r.Value)
			}
		case "zenpower":
			switch r.Label {
			case "SVI2_P_Core":
				c.sensors.set(SensorPower, SensorCPUCores, r.Value)
			case "SVI2_P_SoC":
				c.sensors.set(SensorPower, "CPU SoC", r.Value)
			}
		}
	}
}

// labelNumber parses the number following prefix, as in "Core 3".
func labelNumber(label, prefix string) (int, bool) {
	if !strings.HasPrefix(label, prefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(label, prefix)))
	if err != nil {
		return 0, false
	}
	return n, true
}
