package platform

import (
	"fmt"
	"runtime"
	"time"
)

// NewPlatform creates the appropriate Platform implementation for the current OS.
func NewPlatform() (Platform, error) {
	return NewPlatformForOS(runtime.GOOS)
}

// NewPlatformForOS creates a Platform implementation for the specified OS.
// Linux reads procfs and sysfs directly; every other OS gopsutil supports
// uses the portable implementation.
func NewPlatformForOS(goos string) (Platform, error) {
	switch goos {
	case "linux", "android":
		return NewLinuxPlatform(), nil
	case "windows", "darwin", "freebsd", "openbsd", "netbsd", "solaris", "aix":
		return NewPortablePlatform(), nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", goos)
	}
}

// NewRemotePlatform creates a Platform that collects data from a remote Linux
// system via SSH. The remote system only needs a shell with cat and ls;
// procfs and sysfs content is parsed locally.
func NewRemotePlatform(config RemoteConfig) (Platform, error) {
	p, err := newSSHPlatform(config)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// RemoteConfig specifies connection parameters for remote monitoring.
type RemoteConfig struct {
	// Host is the hostname or IP address of the remote system.
	Host string

	// Port is the SSH port (default: 22).
	Port int

	// User is the SSH username.
	User string

	// AuthMethod specifies how to authenticate.
	AuthMethod AuthMethod

	// KnownHostsPath enables host key verification against a known_hosts file.
	// Empty disables verification.
	KnownHostsPath string

	// CommandTimeout is the timeout for individual commands (default: 5s).
	CommandTimeout time.Duration

	// DialTimeout bounds the TCP connect and SSH handshake (default: 10s).
	DialTimeout time.Duration

	// KeepAliveInterval is the interval between keepalive probes
	// (default: 30s). Negative disables keepalives.
	KeepAliveInterval time.Duration
}

// AuthMethod defines SSH authentication methods.
type AuthMethod interface {
	isAuthMethod()
}

// PasswordAuth authenticates using a password.
type PasswordAuth struct {
	Password string
}

func (PasswordAuth) isAuthMethod() {}

// KeyAuth authenticates using an SSH private key.
type KeyAuth struct {
	PrivateKeyPath string
	Passphrase     string // optional, for encrypted keys
}

func (KeyAuth) isAuthMethod() {}

// AgentAuth authenticates using the SSH agent.
type AgentAuth struct{}

func (AgentAuth) isAuthMethod() {}
