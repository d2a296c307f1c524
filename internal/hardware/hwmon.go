package hardware

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/opd-ai/go-hwinfo/internal/platform"
)

var errNoReadings = errors.New("device produced no readings")

// CPU chips feed the CPU item and never become hardware of their own.
var cpuChips = map[string]bool{
	"coretemp":    true,
	"k10temp":     true,
	"zenpower":    true,
	"cpu_thermal": true,
	"cpu-thermal": true,
	"soc_thermal": true,
	"intel-rapl":  true,
}

// Short prefixes must be followed by a separator so that, for example,
// "xe" does not claim "xeon".
var chipPrefixes = []struct {
	prefix string
	typ    HardwareType
	strict bool
}{
	{"amdgpu", TypeGPUAmd, false},
	{"radeon", TypeGPUAmd, false},
	{"nouveau", TypeGPUNvidia, false},
	{"nvidia", TypeGPUNvidia, false},
	{"i915", TypeGPUIntel, false},
	{"xe", TypeGPUIntel, true},
	{"nvme", TypeStorage, false},
	{"drivetemp", TypeStorage, false},
	{"corsair", TypeCooler, false},
	{"nzxt", TypeCooler, false},
	{"kraken", TypeCooler, false},
	{"aquacomputer", TypeCooler, false},
	{"d5next", TypeCooler, false},
	{"iwlwifi", TypeNetwork, false},
	{"r8169", TypeNetwork, false},
	{"mlx", TypeNetwork, true},
	{"bnxt", TypeNetwork, false},
	{"ixgbe", TypeNetwork, false},
	{"igb", TypeNetwork, true},
	{"atlantic", TypeNetwork, false},
}

// classifyChip maps a hwmon chip name to a hardware type. ok is false for
// chips owned by the CPU item. Unknown chips belong to the motherboard.
func classifyChip(name string) (HardwareType, bool) {
	if cpuChips[name] {
		return 0, false
	}
	for _, p := range chipPrefixes {
		if !strings.HasPrefix(name, p.prefix) {
			continue
		}
		rest := name[len(p.prefix):]
		if !p.strict || rest == "" || rest[0] == '_' || rest[0] == '-' || isDigitRune(rune(rest[0])) {
			return p.typ, true
		}
	}
	return TypeMotherboard, true
}

func isDigitRune(r rune) bool { return r >= '0' && r <= '9' }

// enabled reports whether groups selects hardware of type t.
func (g Groups) enabled(t HardwareType) bool {
	switch {
	case t == TypeCPU:
		return g.CPU
	case t == TypeMemory:
		return g.Memory
	case t == TypeMotherboard:
		return g.Motherboard
	case t.IsGPU():
		return g.GPU
	case t == TypeStorage:
		return g.Storage
	case t == TypeNetwork:
		return g.Network
	case t == TypeCooler:
		return g.Controller
	}
	return false
}

// hwmonHardware exposes the channels of one sensor chip.
type hwmonHardware struct {
	name    string
	typ     HardwareType
	device  string
	sampler *sensorSampler
	sensors *sensorSet
}

func (h *hwmonHardware) Name() string       { return h.name }
func (h *hwmonHardware) Type() HardwareType { return h.typ }
func (h *hwmonHardware) Identifier() string { return "/hwmon/" + h.device }
func (h *hwmonHardware) Sensors() []Sensor  { return h.sensors.snapshot() }

func (h *hwmonHardware) Update(ctx context.Context) error {
	h.sampler.nextPass()
	return h.refresh(ctx)
}

func (h *hwmonHardware) refresh(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	frame := h.sampler.sample()
	h.sensors.begin()
	n := 0
	n += h.apply(SensorTemperature, frame.temperatures)
	n += h.apply(SensorFan, frame.fans)
	n += h.apply(SensorVoltage, frame.voltages)
	n += h.apply(SensorPower, frame.power)
	if n == 0 {
		return errNoReadings
	}
	return nil
}

func (h *hwmonHardware) apply(typ SensorType, readings []platform.SensorReading) int {
	n := 0
	for _, r := range readings {
		if r.Device != h.device {
			continue
		}
		h.sensors.set(typ, r.Label, r.Value)
		n++
	}
	return n
}

// discoverChips creates one hardware item per sensor device in frame whose
// type is enabled in groups. Items are ordered by device; repeated chip
// names get a "#n" suffix.
func discoverChips(frame sensorFrame, groups Groups, sampler *sensorSampler) []Hardware {
	chips := make(map[string]string) // device -> chip name
	for _, set := range [][]platform.SensorReading{frame.temperatures, frame.fans, frame.voltages, frame.power} {
		for _, r := range set {
			if r.Device == "" {
				continue
			}
			chips[r.Device] = r.Name
		}
	}

	devices := make([]string, 0, len(chips))
	for dev := range chips {
		devices = append(devices, dev)
	}
	sort.Slice(devices, func(i, j int) bool {
		return deviceLess(devices[i], devices[j])
	})

	seen := make(map[string]int)
	var items []Hardware
	for _, dev := range devices {
		chip := chips[dev]
		typ, ok := classifyChip(chip)
		if !ok || !groups.enabled(typ) {
			continue
		}
		seen[chip]++
		name := chip
		if seen[chip] > 1 {
			name = fmt.Sprintf("%s #%d", chip, seen[chip])
		}
		items = append(items, &hwmonHardware{
			name:    name,
			typ:     typ,
			device:  dev,
			sampler: sampler,
			sensors: newSensorSet(),
		})
	}
	return items
}

// deviceLess orders "hwmon2" before "hwmon10".
func deviceLess(a, b string) bool {
	ta, tb := strings.TrimRightFunc(a, isDigitRune), strings.TrimRightFunc(b, isDigitRune)
	if ta != tb || len(a) == len(b) {
		return a < b
	}
	return len(a) < len(b)
}
