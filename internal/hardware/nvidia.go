package hardware

import (
	"context"
	"fmt"
	"math"

	"github.com/opd-ai/go-hwinfo/internal/platform"
)

// Sensor names of NVIDIA GPUs.
const (
	SensorGPUCore             = "GPU Core"
	SensorGPUMemory           = "GPU Memory"
	SensorGPUMemoryController = "GPU Memory Controller"
	SensorGPUPackage          = "GPU Package"
	SensorGPUPowerLimit       = "GPU Power Limit"
	SensorGPUFan              = "GPU Fan"
	SensorGPUMemoryUsed       = "GPU Memory Used"
	SensorGPUMemoryFree       = "GPU Memory Free"
	SensorGPUMemoryTotal      = "GPU Memory Total"
)

const mibPerGiB = 1024

// nvidiaHardware exposes one GPU reported by nvidia-smi.
type nvidiaHardware struct {
	index   int
	name    string
	sampler *sensorSampler
	sensors *sensorSet
}

func (h *nvidiaHardware) Name() string       { return h.name }
func (h *nvidiaHardware) Type() HardwareType { return TypeGPUNvidia }
func (h *nvidiaHardware) Identifier() string { return fmt.Sprintf("/gpu-nvidia/%d", h.index) }
func (h *nvidiaHardware) Sensors() []Sensor  { return h.sensors.snapshot() }

func (h *nvidiaHardware) Update(ctx context.Context) error {
	h.sampler.nextPass()
	return h.refresh(ctx)
}

func (h *nvidiaHardware) refresh(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	gpus, err := h.sampler.nvidia()
	if err != nil {
		return err
	}
	for _, g := range gpus {
		if g.Index == h.index {
			h.apply(g)
			return nil
		}
	}
	return fmt.Errorf("gpu %d no longer reported", h.index)
}

func (h *nvidiaHardware) apply(g platform.NvidiaGPU) {
	h.sensors.begin()
	set := func(typ SensorType, name string, v float64) {
		if !math.IsNaN(v) {
			h.sensors.set(typ, name, v)
		}
	}
	set(SensorTemperature, SensorGPUCore, g.Temperature)
	set(SensorLoad, SensorGPUCore, g.LoadCore)
	set(SensorLoad, SensorGPUMemoryController, g.LoadMemory)
	if g.MemoryTotal > 0 {
		set(SensorLoad, SensorGPUMemory, 100*g.MemoryUsed/g.MemoryTotal)
	}
	set(SensorClock, SensorGPUCore, g.ClockCore)
	set(SensorClock, SensorGPUMemory, g.ClockMemory)
	set(SensorPower, SensorGPUPackage, g.PowerDraw)
	set(SensorPower, SensorGPUPowerLimit, g.PowerLimit)
	set(SensorControl, SensorGPUFan, g.FanSpeed)
	set(SensorData, SensorGPUMemoryUsed, g.MemoryUsed/mibPerGiB)
	set(SensorData, SensorGPUMemoryFree, g.MemoryFree/mibPerGiB)
	set(SensorData, SensorGPUMemoryTotal, g.MemoryTotal/mibPerGiB)
}

// discoverNvidia creates one item per GPU of the first nvidia-smi read.
// A failing read yields no items.
func discoverNvidia(sampler *sensorSampler) []Hardware {
	sampler.nextPass()
	gpus, err := sampler.nvidia()
	if err != nil {
		return nil
	}
	items := make([]Hardware, 0, len(gpus))
	for _, g := range gpus {
		h := &nvidiaHardware{
			index:   g.Index,
			name:    g.Name,
			sampler: sampler,
			sensors: newSensorSet(),
		}
		h.apply(g)
		items = append(items, h)
	}
	return items
}
