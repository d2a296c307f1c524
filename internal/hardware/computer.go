package hardware

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/opd-ai/go-hwinfo/internal/platform"
)

// refresher is implemented by every hardware item of this package. It
// updates the item against the sampler's current pass.
type refresher interface {
	refresh(ctx context.Context) error
}

// Computer owns a platform and the hardware items opened on it.
type Computer struct {
	mu       sync.RWMutex
	platform platform.Platform
	groups   Groups
	sampler  *sensorSampler
	hardware []Hardware
	open     bool
}

// NewComputer creates a closed Computer for the given platform.
func NewComputer(p platform.Platform, groups Groups) *Computer {
	return &Computer{platform: p, groups: groups}
}

// Groups returns the hardware groups selected at construction.
func (c *Computer) Groups() Groups {
	return c.groups
}

// IsOpen reports whether Open succeeded and Close has not been called.
func (c *Computer) IsOpen() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.open
}

// Open initializes the platform and discovers hardware for every enabled
// group. Opening an open computer is a no-op.
func (c *Computer) Open(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.open {
		return nil
	}
	if err := c.platform.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize %s platform: %w", c.platform.Name(), err)
	}

	c.sampler = newSensorSampler(c.platform.Sensors())
	var items []Hardware
	if c.groups.CPU && c.platform.CPU() != nil {
		items = append(items, newCPUHardware(c.platform.CPU(), c.sampler))
	}
	if c.groups.Memory && c.platform.Memory() != nil {
		items = append(items, newMemoryHardware(c.platform.Memory()))
	}
	g := c.groups
	if g.Motherboard || g.Controller || g.GPU || g.Network || g.Storage {
		c.sampler.nextPass()
		items = append(items, discoverChips(c.sampler.sample(), g, c.sampler)...)
	}
	if src, ok := c.platform.(platform.GPUSource); ok && g.GPU && src.GPUs() != nil {
		c.sampler.gpus = src.GPUs()
		items = append(items, discoverNvidia(c.sampler)...)
	}

	c.hardware = items
	c.open = true
	return nil
}

// Close releases the platform. The hardware list is kept so a final
// snapshot stays readable.
func (c *Computer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.open {
		return nil
	}
	c.open = false
	if err := c.platform.Close(); err != nil {
		return fmt.Errorf("close %s platform: %w", c.platform.Name(), err)
	}
	return nil
}

// Hardware returns the opened hardware items in discovery order.
func (c *Computer) Hardware() []Hardware {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Hardware, len(c.hardware))
	copy(out, c.hardware)
	return out
}

// Update refreshes every hardware item. Failing items are reported in an
// *UpdateError and keep their previous sensors.
func (c *Computer) Update(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.open {
		return ErrNotOpen
	}

	c.sampler.nextPass()
	var errs []*ComponentError
	for _, h := range c.hardware {
		var err error
		if r, ok := h.(refresher); ok {
			err = r.refresh(ctx)
		} else {
			err = h.Update(ctx)
		}
		if err == nil {
			continue
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		errs = append(errs, NewComponentError(h, err))
	}
	if len(errs) > 0 {
		return &UpdateError{Errors: errs}
	}
	return nil
}

// HardwareSnapshot is a copy of one hardware item and its sensors.
type HardwareSnapshot struct {
	Name       string
	Type       HardwareType
	Identifier string
	Sensors    []Sensor
}

// Snapshot is an immutable copy of the whole sensor tree.
type Snapshot struct {
	Taken    time.Time
	Hardware []HardwareSnapshot
}

// Snapshot copies the current state of every hardware item.
func (c *Computer) Snapshot() Snapshot {
	items := c.Hardware()
	snap := Snapshot{
		Taken:    time.Now(),
		Hardware: make([]HardwareSnapshot, 0, len(items)),
	}
	for _, h := range items {
		snap.Hardware = append(snap.Hardware, SnapshotOf(h))
	}
	return snap
}

// SnapshotOf copies a single hardware item.
func SnapshotOf(h Hardware) HardwareSnapshot {
	return HardwareSnapshot{
		Name:       h.Name(),
		Type:       h.Type(),
		Identifier: h.Identifier(),
		Sensors:    h.Sensors(),
	}
}

// OfType returns the hardware items of type t.
func (s Snapshot) OfType(t HardwareType) []HardwareSnapshot {
	var out []HardwareSnapshot
	for _, h := range s.Hardware {
		if h.Type == t {
			out = append(out, h)
		}
	}
	return out
}
