package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/opd-ai/go-hwinfo/internal/testutil"
)

func useFakeMachine(t *testing.T) {
	t.Helper()
	orig := newHandle
	newHandle = testutil.NewFunc(t)
	t.Cleanup(func() { newHandle = orig })
}

func runBench(t *testing.T, ctx context.Context, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(ctx, args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestVersionFlag(t *testing.T) {
	code, out, _ := runBench(t, context.Background(), "-v")
	if code != 0 || out != "hwbench version "+Version+"\n" {
		t.Errorf("run(-v) = %d, %q", code, out)
	}
}

var textReport = regexp.MustCompile(`^CPU Info changed [1-9][0-9]* times\.
Average Execution Time: [0-9]+\.[0-9]{2} µs
Execution Time: [0-9]+\.[0-9]{2} ms
$`)

func TestRun_TextReport(t *testing.T) {
	useFakeMachine(t)

	code, out, errOut := runBench(t, context.Background(), "-n", "3", "--delay", "0", "--poll-interval", "5")
	if code != 0 {
		t.Fatalf("run() = %d, stderr: %s", code, errOut)
	}
	if !textReport.MatchString(out) {
		t.Errorf("unexpected report:\n%s", out)
	}
}

func TestRun_JSONMemoryReport(t *testing.T) {
	useFakeMachine(t)

	code, out, errOut := runBench(t, context.Background(),
		"--iterations", "4", "--delay", "1", "--query", "memory", "--json", "--no-poll")
	if code != 0 {
		t.Fatalf("run() = %d, stderr: %s", code, errOut)
	}

	var report struct {
		Label      string  `json:"label"`
		Iterations int     `json:"iterations"`
		Completed  int     `json:"completed"`
		Changes    int     `json:"changes"`
		AverageUs  float64 `json:"average_us"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	// The fake memory counters never move, so only the first result counts.
	if report.Label != "Memory Info" || report.Iterations != 4 || report.Completed != 4 || report.Changes != 1 {
		t.Errorf("report = %+v", report)
	}
	if report.AverageUs <= 0 {
		t.Errorf("AverageUs = %v, want > 0", report.AverageUs)
	}
}

func TestRun_Verbose(t *testing.T) {
	useFakeMachine(t)

	code, _, errOut := runBench(t, context.Background(), "-n", "2", "--delay", "0", "--verbose")
	if code != 0 {
		t.Fatalf("run() = %d, stderr: %s", code, errOut)
	}
	if !strings.Contains(errOut, "iteration 1:") || !strings.Contains(errOut, "iteration 2:") {
		t.Errorf("stderr missing iteration lines:\n%s", errOut)
	}
}

func TestRun_Profiles(t *testing.T) {
	useFakeMachine(t)

	dir := t.TempDir()
	cpuPath := filepath.Join(dir, "cpu.pprof")
	memPath := filepath.Join(dir, "mem.pprof")
	code, _, errOut := runBench(t, context.Background(),
		"-n", "2", "--delay", "0", "--cpuprofile", cpuPath, "--memprofile", memPath)
	if code != 0 {
		t.Fatalf("run() = %d, stderr: %s", code, errOut)
	}
	for _, p := range []string{cpuPath, memPath} {
		if info, err := os.Stat(p); err != nil || info.Size() == 0 {
			t.Errorf("profile %s not written: %v", p, err)
		}
	}
}

func TestRun_Errors(t *testing.T) {
	useFakeMachine(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"query all", []string{"--query", "all"}, "must be cpu or memory"},
		{"zero iterations", []string{"-n", "0"}, "bench.iterations"},
		{"cpu disabled", []string{"-n", "1", "--delay", "0", "--hardware", "memory"}, "disabled"},
		{"bad flag", []string{"--frobnicate"}, "unknown flag"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, errOut := runBench(t, context.Background(), tt.args...)
			if code != 1 || !strings.Contains(errOut, tt.want) {
				t.Errorf("run(%v) = %d, stderr %q; want 1 and %q", tt.args, code, errOut, tt.want)
			}
		})
	}
}

func TestRun_Interrupted(t *testing.T) {
	useFakeMachine(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	code, out, errOut := runBench(t, ctx, "-n", "5", "--delay", "1000")
	if code != 0 {
		t.Fatalf("run() = %d, stderr: %s", code, errOut)
	}
	if !strings.Contains(errOut, "Interrupted after 0 of 5 iterations") {
		t.Errorf("stderr = %q", errOut)
	}
	if !strings.HasPrefix(out, "CPU Info changed 0 times.") {
		t.Errorf("stdout = %q", out)
	}
}
