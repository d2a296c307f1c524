package platform

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
)

// ConnectionState represents the current state of the SSH connection.
type ConnectionState int32

const (
	// ConnectionStateDisconnected indicates no active connection.
	ConnectionStateDisconnected ConnectionState = iota
	// ConnectionStateConnected indicates an active healthy connection.
	ConnectionStateConnected
	// ConnectionStateReconnecting indicates the connection broke and the
	// next command will dial again once the backoff has elapsed.
	ConnectionStateReconnecting
	// ConnectionStateClosed indicates Close was called.
	ConnectionStateClosed
)

// String returns the string representation of a ConnectionState.
func (s ConnectionState) String() string {
	switch s {
	case ConnectionStateDisconnected:
		return "disconnected"
	case ConnectionStateConnected:
		return "connected"
	case ConnectionStateReconnecting:
		return "reconnecting"
	case ConnectionStateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ConnectionStats provides statistics about the SSH connection.
type ConnectionStats struct {
	State            ConnectionState
	ConnectedSince   time.Time
	Reconnects       int64
	FailedDials      int64
	LastError        error
	KeepalivesSent   int64
	KeepalivesFailed int64
}

// errBackoff is returned while a broken connection waits to redial.
var errBackoff = errors.New("ssh: waiting to reconnect")

type dialFunc func(network, addr string, config *ssh.ClientConfig) (*ssh.Client, error)

// sshConn owns the SSH client of a remote platform. A broken connection is
// redialled lazily by the next command, no sooner than an exponential
// backoff after the last failed dial, so a polling loop never blocks on a
// dead host for longer than one dial timeout.
type sshConn struct {
	address   string
	config    *ssh.ClientConfig
	dial      dialFunc
	now       func() time.Time
	keepAlive time.Duration

	initialBackoff time.Duration
	maxBackoff     time.Duration

	mu        sync.Mutex
	client    *ssh.Client
	state     ConnectionState
	failures  int
	nextDial  time.Time
	stats     ConnectionStats
	stopCh    chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func newSSHConn(address string, config *ssh.ClientConfig, keepAlive time.Duration) *sshConn {
	return &sshConn{
		address:        address,
		config:         config,
		dial:           ssh.Dial,
		now:            time.Now,
		keepAlive:      keepAlive,
		initialBackoff: time.Second,
		maxBackoff:     time.Minute,
		stopCh:         make(chan struct{}),
	}
}

// connect performs the first dial. Unlike later redials its error is
// returned directly so a bad address or credential fails construction.
func (c *sshConn) connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.dialLocked(); err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.address, err)
	}
	if c.keepAlive > 0 {
		c.wg.Add(1)
		go c.keepaliveLoop()
	}
	return nil
}

func (c *sshConn) dialLocked() error {
	client, err := c.dial("tcp", c.address, c.config)
	if err != nil {
		c.failures++
		c.stats.FailedDials++
		c.stats.LastError = err
		c.nextDial = c.now().Add(calculateBackoff(c.failures, c.initialBackoff, c.maxBackoff))
		return err
	}
	if c.state == ConnectionStateReconnecting {
		c.stats.Reconnects++
	}
	c.client = client
	c.state = ConnectionStateConnected
	c.failures = 0
	c.stats.ConnectedSince = c.now()
	return nil
}

// session opens a session, redialling first when the connection is broken.
func (c *sshConn) session() (*ssh.Session, error) {
	c.mu.Lock()
	switch c.state {
	case ConnectionStateClosed:
		c.mu.Unlock()
		return nil, fmt.Errorf("SSH client not connected")
	case ConnectionStateDisconnected, ConnectionStateReconnecting:
		if c.now().Before(c.nextDial) {
			c.mu.Unlock()
			return nil, errBackoff
		}
		if err := c.dialLocked(); err != nil {
			c.mu.Unlock()
			return nil, fmt.Errorf("reconnect to %s: %w", c.address, err)
		}
	}
	client := c.client
	c.mu.Unlock()

	s, err := client.NewSession()
	if err != nil {
		c.markBroken(client, err)
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return s, nil
}

// markBroken drops client if it is still current and err looks like a
// transport failure.
func (c *sshConn) markBroken(client *ssh.Client, err error) {
	if !isConnectionError(err) {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != client || c.state != ConnectionStateConnected {
		return
	}
	_ = c.client.Close()
	c.client = nil
	c.state = ConnectionStateReconnecting
	c.stats.LastError = err
	c.nextDial = c.now()
}

func (c *sshConn) keepaliveLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.sendKeepalive()
		}
	}
}

// sendKeepalive probes the server with a global request. Any reply,
// including a rejection, proves the transport is alive.
func (c *sshConn) sendKeepalive() {
	c.mu.Lock()
	client := c.client
	c.mu.Unlock()
	if client == nil {
		return
	}

	done := make(chan error, 1)
	go func() {
		_, _, err := client.SendRequest("keepalive@openssh.com", true, nil)
		done <- err
	}()

	timer := time.NewTimer(c.keepAlive)
	defer timer.Stop()

	var err error
	select {
	case err = <-done:
	case <-timer.C:
		err = errors.New("keepalive timeout")
	case <-c.stopCh:
		return
	}

	c.mu.Lock()
	if err != nil {
		c.stats.KeepalivesFailed++
	} else {
		c.stats.KeepalivesSent++
	}
	c.mu.Unlock()
	if err != nil {
		c.markBroken(client, err)
	}
}

// State returns the current connection state.
func (c *sshConn) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Stats returns current connection statistics.
func (c *sshConn) Stats() ConnectionStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.State = c.state
	return s
}

func (c *sshConn) close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.stopCh)
		c.wg.Wait()

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.client != nil {
			err = c.client.Close()
			c.client = nil
		}
		c.state = ConnectionStateClosed
	})
	return err
}

var connectionErrorPatterns = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"timeout",
	"eof",
	"use of closed network connection",
	"no route to host",
	"network is unreachable",
}

// isConnectionError reports whether err indicates a dead transport rather
// than a failing remote command.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, p := range connectionErrorPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// calculateBackoff doubles initial for every failed attempt after the
// first, capped at max.
func calculateBackoff(attempt int, initial, max time.Duration) time.Duration {
	if attempt <= 1 {
		return initial
	}
	delay := initial
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= max {
			return max
		}
	}
	return delay
}
