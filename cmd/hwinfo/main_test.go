package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/opd-ai/go-hwinfo/internal/config"
	"github.com/opd-ai/go-hwinfo/internal/testutil"
)

func useFakeMachine(t *testing.T) {
	t.Helper()
	orig := newHandle
	newHandle = testutil.NewFunc(t)
	t.Cleanup(func() { newHandle = orig })
}

func runHwinfo(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestVersionFlag(t *testing.T) {
	code, out, _ := runHwinfo(t, "--version")
	if code != 0 || out != "hwinfo version "+Version+"\n" {
		t.Errorf("run(--version) = %d, %q", code, out)
	}
}

func TestHelpAndBadFlags(t *testing.T) {
	if code, _, errOut := runHwinfo(t, "--help"); code != 0 || !strings.Contains(errOut, "--poll-interval") {
		t.Errorf("run(--help) = %d, usage %q", code, errOut)
	}
	if code, _, _ := runHwinfo(t, "--bogus"); code != 1 {
		t.Errorf("run(--bogus) = %d, want 1", code)
	}
}

func TestRun_Reports(t *testing.T) {
	useFakeMachine(t)

	tests := []struct {
		name    string
		args    []string
		want    []string
		notWant []string
	}{
		{
			name:    "memory by default",
			args:    []string{"--warm-up", "0"},
			want:    []string{`"TotalMemory": 16.0,`, `"MemoryUsage": 75.0,`},
			notWant: []string{`"CPUUsage"`},
		},
		{
			name: "cpu without polling",
			args: []string{"--warm-up", "0", "--no-poll", "--query", "cpu"},
			want: []string{`"Name": "Intel Core i5-8250U"`, `"PackageTemperature": 45.0`},
		},
		{
			name: "cpu and memory",
			args: []string{"--warm-up", "10", "-q", "all", "--poll-interval", "5"},
			want: []string{`"Cores": 2`, `"UsedVirtualMemory": 13.0`},
		},
		{
			name: "every sensor",
			args: []string{"--warm-up", "0", "--print-all"},
			want: []string{"Hardware: Generic Memory, HardwareType: Memory, Sensor: Memory, Value: 75, Type: Load"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out, errOut := runHwinfo(t, tt.args...)
			if code != 0 {
				t.Fatalf("run(%v) = %d, stderr: %s", tt.args, code, errOut)
			}
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q:\n%s", w, out)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(out, w) {
					t.Errorf("output unexpectedly contains %q", w)
				}
			}
		})
	}
}

func TestRun_Errors(t *testing.T) {
	useFakeMachine(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"bad query", []string{"--query", "gpu"}, "unknown query"},
		{"negative warm-up", []string{"--warm-up", "-1"}, "must not be negative"},
		{"cpu group disabled", []string{"--warm-up", "0", "--hardware", "memory", "-q", "cpu"}, "disabled"},
		{"watch without file", []string{"--watch"}, "needs a configuration file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, errOut := runHwinfo(t, tt.args...)
			if code != 1 || !strings.Contains(errOut, tt.want) {
				t.Errorf("run(%v) = %d, stderr %q; want 1 and %q", tt.args, code, errOut, tt.want)
			}
		})
	}
}

func TestRun_CanceledDuringWarmUp(t *testing.T) {
	useFakeMachine(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var stdout, stderr bytes.Buffer
	if code := run(ctx, []string{"--warm-up", "5000"}, &stdout, &stderr); code != 0 {
		t.Errorf("run() = %d, stderr: %s", code, stderr.String())
	}
	if stdout.Len() != 0 {
		t.Errorf("canceled run printed %q", stdout.String())
	}
}

// syncBuffer is a bytes.Buffer safe for a writer and a polling reader.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func waitFor(t *testing.T, b *syncBuffer, want string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(b.String(), want) {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %q in:\n%s", want, b.String())
}

func TestRun_WatchReprintsOnChange(t *testing.T) {
	useFakeMachine(t)

	path := filepath.Join(t.TempDir(), "hwinfo.yaml")
	write := func(content string) {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("query: memory\npolling:\n  enabled: false\n  warm_up_ms: 0\n")

	ctx, cancel := context.WithCancel(context.Background())
	var stdout, stderr syncBuffer
	done := make(chan int, 1)
	go func() { done <- run(ctx, []string{"-c", path, "--watch"}, &stdout, &stderr) }()

	waitFor(t, &stdout, `"TotalMemory"`)
	// Give the watcher time to register before the change.
	time.Sleep(100 * time.Millisecond)
	write("query: cpu\npolling:\n  enabled: false\n  warm_up_ms: 0\n")
	waitFor(t, &stdout, `"CPUUsage"`)

	cancel()
	select {
	case code := <-done:
		if code != 0 {
			t.Errorf("run() = %d, stderr: %s", code, stderr.String())
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run() did not return after cancel")
	}
}

func TestPendingConfig_KeepsNewest(t *testing.T) {
	pending := make(pendingConfig, 1)
	first := &config.Config{Query: config.QueryMemory}
	second := &config.Config{Query: config.QueryCPU}

	// Two reloads land while the loop is busy printing.
	pending.replace(first)
	pending.replace(second)

	select {
	case got := <-pending:
		if got != second {
			t.Errorf("applied query %q, want the newest (%q)", got.Query, second.Query)
		}
	default:
		t.Fatal("no pending configuration")
	}
	select {
	case got := <-pending:
		t.Errorf("stale configuration %q still queued", got.Query)
	default:
	}
}
