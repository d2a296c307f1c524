package config

import "github.com/opd-ai/go-hwinfo/internal/hardware"

// Default values for configuration options.
const (
	// DefaultPollIntervalMs is the default polling interval.
	DefaultPollIntervalMs = 50
	// DefaultWarmUpMs is the default sleep before the hwinfo query.
	DefaultWarmUpMs = 600
	// DefaultIterations is the default number of hwbench iterations.
	DefaultIterations = 100
	// DefaultDelayMs is the default sleep before each hwbench iteration.
	DefaultDelayMs = 100
	// DefaultUpdateTimeoutMs bounds one refresh of all hardware.
	DefaultUpdateTimeoutMs = 5000
	// DefaultSSHPort is used when a remote section leaves the port unset.
	DefaultSSHPort = 22
)

// DefaultConfig returns a Config with the CPU and memory groups enabled,
// polling on at 50 ms and a 600 ms warm-up, and a 100 x 100 ms benchmark.
func DefaultConfig() Config {
	return Config{
		Hardware: hardware.DefaultGroups(),
		Polling: PollingConfig{
			Enabled:    true,
			IntervalMs: DefaultPollIntervalMs,
			WarmUpMs:   DefaultWarmUpMs,
		},
		Query: QueryMemory,
		Bench: BenchConfig{
			Iterations: DefaultIterations,
			DelayMs:    DefaultDelayMs,
			Query:      QueryCPU,
		},
		UpdateTimeoutMs: DefaultUpdateTimeoutMs,
	}
}

// applyRemoteDefaults fills unset remote fields.
func applyRemoteDefaults(r *RemoteConfig) {
	if r == nil {
		return
	}
	if r.Port == 0 {
		r.Port = DefaultSSHPort
	}
	if r.Auth == "" {
		r.Auth = "agent"
	}
}
