package platform

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

// sshPlatform implements Platform for remote Linux systems via SSH.
// It reads procfs and sysfs through cat/ls on the remote host and parses
// the output locally with the same providers the local platform uses.
type sshPlatform struct {
	config     RemoteConfig
	conn       *sshConn
	ctx        context.Context
	cancel     context.CancelFunc
	mu         sync.RWMutex
	cmdTimeout time.Duration

	cpu     CPUProvider
	memory  MemoryProvider
	sensors SensorProvider
	gpus    GPUProvider
}

// newSSHPlatform creates a new SSH-based remote platform.
func newSSHPlatform(config RemoteConfig) (*sshPlatform, error) {
	if config.Host == "" {
		return nil, fmt.Errorf("host is required")
	}
	if config.User == "" {
		return nil, fmt.Errorf("user is required")
	}
	if config.AuthMethod == nil {
		return nil, fmt.Errorf("authentication method is required")
	}

	if config.Port == 0 {
		config.Port = 22
	}
	if config.CommandTimeout == 0 {
		config.CommandTimeout = 5 * time.Second
	}
	if config.DialTimeout == 0 {
		config.DialTimeout = 10 * time.Second
	}
	if config.KeepAliveInterval == 0 {
		config.KeepAliveInterval = 30 * time.Second
	}

	return &sshPlatform{
		config:     config,
		cmdTimeout: config.CommandTimeout,
	}, nil
}

func (p *sshPlatform) Name() string {
	return "remote-linux"
}

func (p *sshPlatform) Initialize(ctx context.Context) error {
	p.ctx, p.cancel = lifetimeContext(ctx)

	sshConfig, err := p.buildSSHConfig()
	if err != nil {
		return fmt.Errorf("failed to build SSH config: %w", err)
	}

	addr := net.JoinHostPort(p.config.Host, strconv.Itoa(p.config.Port))
	conn := newSSHConn(addr, sshConfig, p.config.KeepAliveInterval)
	if err := conn.connect(ctx); err != nil {
		return err
	}

	p.mu.Lock()
	p.conn = conn
	p.mu.Unlock()

	osName, err := p.runCommand("uname -s")
	if err != nil {
		p.Close()
		return fmt.Errorf("failed to detect remote OS: %w", err)
	}
	if !strings.EqualFold(strings.TrimSpace(osName), "linux") {
		p.Close()
		return fmt.Errorf("unsupported remote OS: %s", strings.TrimSpace(osName))
	}

	p.initProviders(p)
	return nil
}

// initProviders wires the procfs providers to a command runner and probes
// for nvidia-smi on the remote host.
func (p *sshPlatform) initProviders(runner commandRunner) {
	src := newRemoteSource(runner)
	var gpus GPUProvider
	if _, err := runner.runCommand("command -v nvidia-smi"); err == nil {
		gpus = newNvidiaSMI(runner)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.cpu = newLinuxCPUProvider(src)
	p.memory = newLinuxMemoryProvider(src)
	p.sensors = newLinuxSensorProvider(src)
	p.gpus = gpus
}

func (p *sshPlatform) buildSSHConfig() (*ssh.ClientConfig, error) {
	authMethods, err := p.authMethods()
	if err != nil {
		return nil, err
	}

	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if p.config.KnownHostsPath != "" {
		hostKeyCallback, err = knownhosts.New(p.config.KnownHostsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load known_hosts: %w", err)
		}
	}

	return &ssh.ClientConfig{
		User:            p.config.User,
		Auth:            authMethods,
		HostKeyCallback: hostKeyCallback,
		Timeout:         p.config.DialTimeout,
	}, nil
}

func (p *sshPlatform) authMethods() ([]ssh.AuthMethod, error) {
	switch auth := p.config.AuthMethod.(type) {
	case PasswordAuth:
		return []ssh.AuthMethod{ssh.Password(auth.Password)}, nil
	case KeyAuth:
		key, err := os.ReadFile(auth.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read private key: %w", err)
		}
		var signer ssh.Signer
		if auth.Passphrase != "" {
			signer, err = ssh.ParsePrivateKeyWithPassphrase(key, []byte(auth.Passphrase))
		} else {
			signer, err = ssh.ParsePrivateKey(key)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
		return []ssh.AuthMethod{ssh.PublicKeys(signer)}, nil
	case AgentAuth:
		socket := os.Getenv("SSH_AUTH_SOCK")
		if socket == "" {
			return nil, fmt.Errorf("SSH_AUTH_SOCK not set")
		}
		// Defer the agent connection until the handshake asks for keys
		return []ssh.AuthMethod{ssh.PublicKeysCallback(func() ([]ssh.Signer, error) {
			agentConn, err := net.Dial("unix", socket)
			if err != nil {
				return nil, fmt.Errorf("failed to connect to SSH agent: %w", err)
			}
			defer agentConn.Close()

			signers, err := agent.NewClient(agentConn).Signers()
			if err != nil {
				return nil, fmt.Errorf("failed to get signers from SSH agent: %w", err)
			}
			return signers, nil
		})}, nil
	default:
		return nil, fmt.Errorf("unsupported auth method type: %T", auth)
	}
}

// runCommand executes a command on the remote system and returns the output.
func (p *sshPlatform) runCommand(cmd string) (string, error) {
	p.mu.RLock()
	conn := p.conn
	p.mu.RUnlock()

	if conn == nil {
		return "", fmt.Errorf("SSH client not connected")
	}

	session, err := conn.session()
	if err != nil {
		return "", err
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	done := make(chan error, 1)
	go func() {
		done <- session.Run(cmd)
	}()

	timer := time.NewTimer(p.cmdTimeout)
	defer timer.Stop()

	select {
	case err := <-done:
		if err != nil {
			return "", fmt.Errorf("command failed: %w (stderr: %s)", err, strings.TrimSpace(stderr.String()))
		}
		return stdout.String(), nil
	case <-timer.C:
		_ = session.Signal(ssh.SIGKILL)
		_ = session.Close()
		return "", fmt.Errorf("command timed out after %v", p.cmdTimeout)
	case <-p.done():
		_ = session.Signal(ssh.SIGKILL)
		_ = session.Close()
		return "", p.ctx.Err()
	}
}

func (p *sshPlatform) done() <-chan struct{} {
	if p.ctx == nil {
		return nil
	}
	return p.ctx.Done()
}

// ConnectionStats reports the state of the SSH connection.
func (p *sshPlatform) ConnectionStats() ConnectionStats {
	p.mu.RLock()
	conn := p.conn
	p.mu.RUnlock()
	if conn == nil {
		return ConnectionStats{State: ConnectionStateDisconnected}
	}
	return conn.Stats()
}

func (p *sshPlatform) Close() error {
	if p.cancel != nil {
		p.cancel()
	}
	p.mu.Lock()
	conn := p.conn
	p.conn = nil
	p.mu.Unlock()
	if conn != nil {
		return conn.close()
	}
	return nil
}

func (p *sshPlatform) CPU() CPUProvider {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cpu
}

func (p *sshPlatform) Memory() MemoryProvider {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.memory
}

func (p *sshPlatform) Sensors() SensorProvider {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.sensors
}

func (p *sshPlatform) GPUs() GPUProvider {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.gpus
}
