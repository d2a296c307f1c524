package hwinfo

import (
	"time"

	"github.com/opd-ai/go-hwinfo/internal/hardware"
	"github.com/opd-ai/go-hwinfo/internal/platform"
)

// Types re-exported so callers outside this module can fill in Options.
type (
	// Groups selects the hardware groups to open.
	Groups = hardware.Groups
	// Platform is a source of hardware data.
	Platform = platform.Platform
	// RemoteConfig describes an SSH target.
	RemoteConfig = platform.RemoteConfig
	// PasswordAuth authenticates to a remote host with a password.
	PasswordAuth = platform.PasswordAuth
	// KeyAuth authenticates to a remote host with a private key file.
	KeyAuth = platform.KeyAuth
	// AgentAuth authenticates to a remote host through SSH_AUTH_SOCK.
	AgentAuth = platform.AgentAuth
	// Snapshot is a copy of the whole sensor tree.
	Snapshot = hardware.Snapshot
	// HardwareSnapshot is a copy of one hardware item.
	HardwareSnapshot = hardware.HardwareSnapshot
	// Sensor is a copy of one sensor.
	Sensor = hardware.Sensor
)

// DefaultUpdateTimeout bounds a single refresh of all hardware.
const DefaultUpdateTimeout = 5 * time.Second

// Options configures a HardwareInfo handle.
type Options struct {
	// Groups selects which hardware groups are opened. At least one must
	// be enabled.
	Groups Groups

	// Platform overrides the data source. If nil, Remote is used when set,
	// otherwise the platform for the running OS.
	Platform Platform

	// Remote queries a Linux host over SSH instead of the local machine.
	Remote *RemoteConfig

	// UpdateTimeout bounds each refresh. Zero means DefaultUpdateTimeout.
	UpdateTimeout time.Duration

	// Logger receives diagnostics. If nil, nothing is logged.
	Logger Logger

	// Metrics collects operational counters. If nil, a private instance
	// is created.
	Metrics *Metrics

	// Breaker tunes the circuit breaker of the polling thread. Zero fields
	// take the DefaultBreakerConfig values.
	Breaker BreakerConfig
}

// DefaultOptions enables the CPU and memory groups on the local machine.
func DefaultOptions() Options {
	return Options{
		Groups:        hardware.DefaultGroups(),
		UpdateTimeout: DefaultUpdateTimeout,
	}
}
