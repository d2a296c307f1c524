//go:build integration

package platform

import (
	"context"
	"os"
	"testing"
	"time"
)

// TestSSHRemoteIntegration runs the remote platform against a real SSH server.
// It requires:
//   - SSH_TEST_HOST: hostname or IP address of the server
//   - SSH_TEST_USER: SSH username
//   - SSH_TEST_KEY: path to a private key, or SSH_TEST_PASSWORD
func TestSSHRemoteIntegration(t *testing.T) {
	host := os.Getenv("SSH_TEST_HOST")
	user := os.Getenv("SSH_TEST_USER")
	keyPath := os.Getenv("SSH_TEST_KEY")
	password := os.Getenv("SSH_TEST_PASSWORD")

	if host == "" || user == "" {
		t.Skip("SSH_TEST_HOST and SSH_TEST_USER must be set for integration tests")
	}

	var authMethod AuthMethod
	switch {
	case keyPath != "":
		authMethod = KeyAuth{PrivateKeyPath: keyPath}
	case password != "":
		authMethod = PasswordAuth{Password: password}
	default:
		t.Skip("Either SSH_TEST_KEY or SSH_TEST_PASSWORD must be set for integration tests")
	}

	p, err := NewRemotePlatform(RemoteConfig{
		Host:           host,
		User:           user,
		AuthMethod:     authMethod,
		CommandTimeout: 10 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewRemotePlatform() failed: %v", err)
	}
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := p.Initialize(ctx); err != nil {
		t.Fatalf("Initialize() failed: %v", err)
	}

	t.Run("CPU", func(t *testing.T) {
		info, err := p.CPU().Info()
		if err != nil {
			t.Fatalf("Info() failed: %v", err)
		}
		t.Logf("model %q, %d cores, %d threads", info.Model, info.Cores, info.Threads)

		if _, err := p.CPU().TotalUsage(); err != nil {
			t.Fatalf("TotalUsage() failed: %v", err)
		}
		time.Sleep(200 * time.Millisecond)
		usage, err := p.CPU().TotalUsage()
		if err != nil {
			t.Fatalf("TotalUsage() failed: %v", err)
		}
		if usage < 0 || usage > 100 {
			t.Errorf("TotalUsage() = %v, want 0..100", usage)
		}

		topo, err := p.CPU().Topology()
		if err != nil || len(topo) == 0 {
			t.Errorf("Topology() = %v, %v", topo, err)
		}
	})

	t.Run("Memory", func(t *testing.T) {
		stats, err := p.Memory().Stats()
		if err != nil {
			t.Fatalf("Stats() failed: %v", err)
		}
		if stats.Total == 0 {
			t.Error("Total = 0")
		}
	})

	t.Run("Sensors", func(t *testing.T) {
		temps, err := p.Sensors().Temperatures()
		if err != nil {
			t.Fatalf("Temperatures() failed: %v", err)
		}
		t.Logf("%d temperature readings", len(temps))
	})

	t.Run("Connection", func(t *testing.T) {
		rp, ok := p.(interface{ ConnectionStats() ConnectionStats })
		if !ok {
			t.Fatal("remote platform does not report connection stats")
		}
		if s := rp.ConnectionStats(); s.State != ConnectionStateConnected {
			t.Errorf("State = %v, want connected", s.State)
		}
	})
}
