//go:build integration

package hwinfo

import (
	"encoding/json"
	"runtime"
	"testing"
	"time"
)

// These tests read the sensors of the machine running them.

func openHost(t *testing.T, groups Groups) *HardwareInfo {
	t.Helper()
	opts := DefaultOptions()
	opts.Groups = groups
	h, err := New(opts)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	t.Cleanup(func() { h.Close() })
	return h
}

func TestHost_CPUAndMemory(t *testing.T) {
	h := openHost(t, DefaultOptions().Groups)

	if err := h.StartSaveAllHardwareThread(50); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	time.Sleep(300 * time.Millisecond)

	out, err := h.GetCPUInfo()
	if err != nil {
		t.Fatalf("GetCPUInfo() failed: %v", err)
	}
	var cpu struct {
		Name     string
		Cores    int
		Threads  int
		CPUUsage *float64
	}
	if err := json.Unmarshal([]byte(out), &cpu); err != nil {
		t.Fatalf("GetCPUInfo() is not JSON: %v\n%s", err, out)
	}
	if cpu.Name == "" || cpu.CPUUsage == nil {
		t.Errorf("CPU report incomplete:\n%s", out)
	}
	if cpu.Threads > 0 && cpu.Threads != runtime.NumCPU() {
		t.Logf("Threads = %d, runtime.NumCPU() = %d", cpu.Threads, runtime.NumCPU())
	}

	mem, err := h.MemoryInfo()
	if err != nil {
		t.Fatalf("MemoryInfo() failed: %v", err)
	}
	if mem.TotalMemory <= 0 {
		t.Errorf("TotalMemory = %v, want > 0", mem.TotalMemory)
	}

	if check := h.Health(); check.Status == HealthUnhealthy {
		t.Errorf("Health() = %+v", check)
	}
}

func TestHost_AllGroups(t *testing.T) {
	h := openHost(t, Groups{CPU: true, Memory: true, Motherboard: true, Controller: true, GPU: true, Network: true, Storage: true})
	if err := h.SaveAllHardware(); err != nil && AsUpdateError(err) == nil {
		t.Fatalf("SaveAllHardware() failed: %v", err)
	}
	for _, item := range h.Snapshot().Hardware {
		t.Logf("%s %s (%s): %d sensors", item.Type, item.Name, item.Identifier, len(item.Sensors))
	}
}
