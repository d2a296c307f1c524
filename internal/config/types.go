// Package config provides configuration data structures for go-hwinfo.
// A configuration selects the hardware groups to open, the polling and
// benchmark timings of the command-line tools and an optional remote host.
// It can be written as Lua, YAML or JSON with comments.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/opd-ai/go-hwinfo/internal/hardware"
	"github.com/opd-ai/go-hwinfo/internal/platform"
)

// Config represents the complete go-hwinfo configuration.
type Config struct {
	// Hardware selects the hardware groups to open.
	Hardware hardware.Groups `yaml:"hardware" json:"hardware"`
	// Polling configures the background refresh thread.
	Polling PollingConfig `yaml:"polling" json:"polling"`
	// Query selects what the hwinfo command prints.
	Query Query `yaml:"query" json:"query" validate:"omitempty,oneof=cpu memory all"`
	// Bench configures the hwbench timing loop.
	Bench BenchConfig `yaml:"bench" json:"bench"`
	// Remote queries a Linux host over SSH when set.
	Remote *RemoteConfig `yaml:"remote,omitempty" json:"remote,omitempty"`
	// UpdateTimeoutMs bounds one refresh of all hardware.
	UpdateTimeoutMs int `yaml:"update_timeout_ms" json:"update_timeout_ms" validate:"gte=0,lte=60000"`
}

// PollingConfig holds the background polling settings.
type PollingConfig struct {
	// Enabled starts StartSaveAllHardwareThread before querying.
	Enabled bool `yaml:"enabled" json:"enabled"`
	// IntervalMs is the polling interval in milliseconds.
	IntervalMs int `yaml:"interval_ms" json:"interval_ms" validate:"required_if=Enabled true,gte=0,lte=3600000"`
	// WarmUpMs is how long hwinfo sleeps before its query.
	WarmUpMs int `yaml:"warm_up_ms" json:"warm_up_ms" validate:"gte=0,lte=600000"`
	// FailureThreshold is the number of consecutive failed refreshes after
	// which polling pauses. Zero means the library default.
	FailureThreshold int `yaml:"failure_threshold" json:"failure_threshold" validate:"gte=0,lte=1000"`
	// CoolDownMs is how long polling pauses. Zero means the library default.
	CoolDownMs int `yaml:"cool_down_ms" json:"cool_down_ms" validate:"gte=0,lte=3600000"`
}

// BenchConfig holds the hwbench loop settings.
type BenchConfig struct {
	// Iterations is the number of timed queries.
	Iterations int `yaml:"iterations" json:"iterations" validate:"gte=1,lte=1000000"`
	// DelayMs is the sleep before each timed query.
	DelayMs int `yaml:"delay_ms" json:"delay_ms" validate:"gte=0,lte=600000"`
	// Query is the report being timed.
	Query Query `yaml:"query" json:"query" validate:"omitempty,oneof=cpu memory"`
}

// RemoteConfig describes an SSH target.
type RemoteConfig struct {
	Host string `yaml:"host" json:"host" validate:"required,hostname_rfc1123|ip"`
	Port int    `yaml:"port" json:"port" validate:"gte=0,lte=65535"`
	User string `yaml:"user" json:"user" validate:"required"`
	// Auth is "agent", "key" or "password". Empty means agent.
	Auth           string `yaml:"auth" json:"auth" validate:"omitempty,oneof=agent key password"`
	KeyFile        string `yaml:"key_file" json:"key_file" validate:"required_if=Auth key"`
	Passphrase     string `yaml:"passphrase" json:"passphrase"`
	Password       string `yaml:"password" json:"password" validate:"required_if=Auth password"`
	KnownHostsFile string `yaml:"known_hosts_file" json:"known_hosts_file"`
	TimeoutMs      int    `yaml:"timeout_ms" json:"timeout_ms" validate:"gte=0"`
}

// Query selects the report printed by hwinfo.
type Query string

// Query values.
const (
	QueryCPU    Query = "cpu"
	QueryMemory Query = "memory"
	QueryAll    Query = "all"
)

// ParseQuery converts a string to a Query, case-insensitively.
func ParseQuery(s string) (Query, error) {
	switch q := Query(strings.ToLower(strings.TrimSpace(s))); q {
	case QueryCPU, QueryMemory, QueryAll:
		return q, nil
	default:
		return "", fmt.Errorf("unknown query %q (expected cpu, memory or all)", s)
	}
}

// PollInterval returns the polling interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Polling.IntervalMs) * time.Millisecond
}

// WarmUp returns the warm-up delay as a duration.
func (c *Config) WarmUp() time.Duration {
	return time.Duration(c.Polling.WarmUpMs) * time.Millisecond
}

// CoolDown returns the breaker cool-down as a duration.
func (c *Config) CoolDown() time.Duration {
	return time.Duration(c.Polling.CoolDownMs) * time.Millisecond
}

// UpdateTimeout returns the refresh timeout, zero meaning the default.
func (c *Config) UpdateTimeout() time.Duration {
	return time.Duration(c.UpdateTimeoutMs) * time.Millisecond
}

// PlatformConfig converts the remote section into a platform.RemoteConfig.
// Returns nil when no remote host is configured.
func (c *Config) PlatformConfig() (*platform.RemoteConfig, error) {
	r := c.Remote
	if r == nil || r.Host == "" {
		return nil, nil
	}

	out := &platform.RemoteConfig{
		Host:           r.Host,
		Port:           r.Port,
		User:           r.User,
		KnownHostsPath: r.KnownHostsFile,
		CommandTimeout: time.Duration(r.TimeoutMs) * time.Millisecond,
	}
	switch r.Auth {
	case "", "agent":
		out.AuthMethod = platform.AgentAuth{}
	case "key":
		out.AuthMethod = platform.KeyAuth{PrivateKeyPath: r.KeyFile, Passphrase: r.Passphrase}
	case "password":
		out.AuthMethod = platform.PasswordAuth{Password: r.Password}
	default:
		return nil, fmt.Errorf("remote.auth: unknown method %q", r.Auth)
	}
	return out, nil
}

// ParseRemoteTarget parses "user@host[:port]" into a RemoteConfig using
// agent authentication.
func ParseRemoteTarget(target string) (*RemoteConfig, error) {
	user, hostPort, ok := strings.Cut(target, "@")
	if !ok || user == "" || hostPort == "" {
		return nil, fmt.Errorf("remote target %q: expected user@host[:port]", target)
	}

	r := &RemoteConfig{User: user, Host: hostPort, Auth: "agent"}
	if host, port, found := strings.Cut(hostPort, ":"); found {
		n, err := strconv.Atoi(port)
		if err != nil || n <= 0 || n > 65535 {
			return nil, fmt.Errorf("remote target %q: invalid port %q", target, port)
		}
		r.Host, r.Port = host, n
	}
	return r, nil
}
