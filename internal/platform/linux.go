package platform

import (
	"context"
	"sync"
)

// linuxPlatform implements Platform for Linux systems over procfs and sysfs.
type linuxPlatform struct {
	mu      sync.RWMutex
	src     fileSource
	ctx     context.Context
	cancel  context.CancelFunc
	cpu     CPUProvider
	memory  MemoryProvider
	sensors SensorProvider
	gpus    GPUProvider
}

// NewLinuxPlatform creates a new Linux platform implementation.
func NewLinuxPlatform() Platform {
	return &linuxPlatform{src: newLocalSource("")}
}

// NewLinuxPlatformAt creates a Linux platform that reads /proc and /sys below
// root instead of the filesystem root. Used for tests and container hosts
// that mount the host's procfs elsewhere.
func NewLinuxPlatformAt(root string) Platform {
	return &linuxPlatform{src: newLocalSource(root)}
}

func (p *linuxPlatform) Name() string {
	return "linux"
}

func (p *linuxPlatform) Initialize(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.ctx, p.cancel = lifetimeContext(ctx)

	p.cpu = newLinuxCPUProvider(p.src)
	p.memory = newLinuxMemoryProvider(p.src)
	p.sensors = newLinuxSensorProvider(p.src)
	if local, ok := p.src.(*localSource); ok && local.root == "" {
		p.gpus = localNvidiaSMI(p.ctx)
	}

	return nil
}

func (p *linuxPlatform) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
	}
	return nil
}

func (p *linuxPlatform) CPU() CPUProvider {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cpu
}

func (p *linuxPlatform) Memory() MemoryProvider {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.memory
}

func (p *linuxPlatform) Sensors() SensorProvider {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.sensors
}

func (p *linuxPlatform) GPUs() GPUProvider {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.gpus
}
