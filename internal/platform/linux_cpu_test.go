package platform

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

// writeTree creates files below root from a map of host path to content.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for p, content := range files {
		full := filepath.Join(root, p)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("failed to create directory for %s: %v", p, err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", p, err)
		}
	}
}

const testCPUInfo = `processor	: 0
vendor_id	: GenuineIntel
model name	: Intel(R) Core(TM) i5-8250U CPU @ 1.60GHz
cpu MHz		: 1800.000
cache size	: 6144 KB
physical id	: 0
siblings	: 4
core id		: 0
cpu cores	: 2

processor	: 1
vendor_id	: GenuineIntel
model name	: Intel(R) Core(TM) i5-8250U CPU @ 1.60GHz
cpu MHz		: 1900.000
physical id	: 0
core id		: 1

processor	: 2
vendor_id	: GenuineIntel
model name	: Intel(R) Core(TM) i5-8250U CPU @ 1.60GHz
cpu MHz		: 2000.000
physical id	: 0
core id		: 0

processor	: 3
vendor_id	: GenuineIntel
model name	: Intel(R) Core(TM) i5-8250U CPU @ 1.60GHz
cpu MHz		: 2100.000
physical id	: 0
core id		: 1
`

func TestLinuxCPUProvider_TotalUsage(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"/proc/stat": "cpu  100 0 50 850 0 0 0 0 0 0\ncpu0 50 0 25 425 0 0 0 0\ncpu1 50 0 25 425 0 0 0 0\n",
	})

	provider := newLinuxCPUProvider(newLocalSource(root))

	usage, err := provider.TotalUsage()
	if err != nil {
		t.Fatalf("First TotalUsage() failed: %v", err)
	}
	if usage != 0 {
		t.Errorf("First TotalUsage() = %v, want 0", usage)
	}

	writeTree(t, root, map[string]string{
		"/proc/stat": "cpu  200 0 100 900 0 0 0 0 0 0\ncpu0 100 0 50 450 0 0 0 0\ncpu1 100 0 50 450 0 0 0 0\n",
	})

	usage, err = provider.TotalUsage()
	if err != nil {
		t.Fatalf("Second TotalUsage() failed: %v", err)
	}

	// totalDelta = 1200 - 1000 = 200, idleDelta = 900 - 850 = 50
	// usage = 100 * (200 - 50) / 200 = 75
	if math.Abs(usage-75.0) > 0.01 {
		t.Errorf("Second TotalUsage() = %v, want 75.0", usage)
	}
}

func TestLinuxCPUProvider_Usage(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"/proc/stat": "cpu  0 0 0 0 0 0 0 0\ncpu0 100 0 0 100 0 0 0 0\ncpu1 100 0 0 100 0 0 0 0\n",
	})
	provider := newLinuxCPUProvider(newLocalSource(root))

	first, err := provider.Usage()
	if err != nil {
		t.Fatalf("Usage() failed: %v", err)
	}
	if len(first) != 2 || first[0] != 0 || first[1] != 0 {
		t.Errorf("first Usage() = %v, want zeros for cpu0 and cpu1", first)
	}

	writeTree(t, root, map[string]string{
		"/proc/stat": "cpu  0 0 0 0 0 0 0 0\ncpu0 200 0 0 100 0 0 0 0\ncpu1 125 0 0 175 0 0 0 0\n",
	})
	second, err := provider.Usage()
	if err != nil {
		t.Fatalf("Usage() failed: %v", err)
	}

	tests := map[int]float64{0: 100, 1: 25}
	for cpu, want := range tests {
		if math.Abs(second[cpu]-want) > 0.01 {
			t.Errorf("Usage()[%d] = %v, want %v", cpu, second[cpu], want)
		}
	}
}

func TestLinuxCPUProvider_MissingProcStat(t *testing.T) {
	provider := newLinuxCPUProvider(newLocalSource(t.TempDir()))
	if _, err := provider.TotalUsage(); err == nil {
		t.Error("TotalUsage() expected error for missing /proc/stat")
	}
	if _, err := provider.Topology(); err == nil {
		t.Error("Topology() expected error for missing /proc/stat")
	}
}

func TestLinuxCPUProvider_Info(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"/proc/cpuinfo": testCPUInfo})
	provider := newLinuxCPUProvider(newLocalSource(root))

	info, err := provider.Info()
	if err != nil {
		t.Fatalf("Info() failed: %v", err)
	}
	if info.Model != "Intel(R) Core(TM) i5-8250U CPU @ 1.60GHz" {
		t.Errorf("Model = %q", info.Model)
	}
	if info.Vendor != "GenuineIntel" {
		t.Errorf("Vendor = %q, want GenuineIntel", info.Vendor)
	}
	if info.Cores != 2 {
		t.Errorf("Cores = %d, want 2", info.Cores)
	}
	if info.Threads != 4 {
		t.Errorf("Threads = %d, want 4", info.Threads)
	}
	if info.CacheSize != 6144*1024 {
		t.Errorf("CacheSize = %d, want %d", info.CacheSize, 6144*1024)
	}
}

func TestLinuxCPUProvider_TopologyFromSysfs(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"/proc/stat": "cpu  1 1 1 1\ncpu0 1 1 1 1\ncpu1 1 1 1 1\ncpu2 1 1 1 1\ncpu3 1 1 1 1\n",
		"/sys/devices/system/cpu/cpu0/topology/core_id":             "0\n",
		"/sys/devices/system/cpu/cpu0/topology/physical_package_id": "0\n",
		"/sys/devices/system/cpu/cpu1/topology/core_id":             "1\n",
		"/sys/devices/system/cpu/cpu1/topology/physical_package_id": "0\n",
		"/sys/devices/system/cpu/cpu2/topology/core_id":             "0\n",
		"/sys/devices/system/cpu/cpu2/topology/physical_package_id": "0\n",
		"/sys/devices/system/cpu/cpu3/topology/core_id":             "1\n",
		"/sys/devices/system/cpu/cpu3/topology/physical_package_id": "0\n",
	})
	provider := newLinuxCPUProvider(newLocalSource(root))

	cpus, err := provider.Topology()
	if err != nil {
		t.Fatalf("Topology() failed: %v", err)
	}
	want := []LogicalCPU{
		{ID: 0, CoreID: 0}, {ID: 1, CoreID: 1}, {ID: 2, CoreID: 0}, {ID: 3, CoreID: 1},
	}
	if len(cpus) != len(want) {
		t.Fatalf("Topology() returned %d CPUs, want %d", len(cpus), len(want))
	}
	for i := range want {
		if cpus[i] != want[i] {
			t.Errorf("cpus[%d] = %+v, want %+v", i, cpus[i], want[i])
		}
	}
}

func TestLinuxCPUProvider_TopologyFallbacks(t *testing.T) {
	t.Run("cpuinfo", func(t *testing.T) {
		root := t.TempDir()
		writeTree(t, root, map[string]string{
			"/proc/stat":    "cpu  1 1 1 1\ncpu0 1 1 1 1\ncpu1 1 1 1 1\ncpu2 1 1 1 1\ncpu3 1 1 1 1\n",
			"/proc/cpuinfo": testCPUInfo,
		})
		cpus, err := newLinuxCPUProvider(newLocalSource(root)).Topology()
		if err != nil {
			t.Fatalf("Topology() failed: %v", err)
		}
		if cpus[2].CoreID != 0 || cpus[3].CoreID != 1 {
			t.Errorf("Topology() = %+v, want core ids from /proc/cpuinfo", cpus)
		}
	})

	t.Run("none", func(t *testing.T) {
		root := t.TempDir()
		writeTree(t, root, map[string]string{
			"/proc/stat": "cpu  1 1 1 1\ncpu0 1 1 1 1\ncpu1 1 1 1 1\n",
		})
		cpus, err := newLinuxCPUProvider(newLocalSource(root)).Topology()
		if err != nil {
			t.Fatalf("Topology() failed: %v", err)
		}
		for _, c := range cpus {
			if c.CoreID != c.ID || c.PackageID != 0 {
				t.Errorf("cpu %d = %+v, want its own core on package 0", c.ID, c)
			}
		}
	})
}

func TestLinuxCPUProvider_Frequency(t *testing.T) {
	t.Run("cpufreq", func(t *testing.T) {
		root := t.TempDir()
		writeTree(t, root, map[string]string{
			"/proc/stat": "cpu  1 1 1 1\ncpu0 1 1 1 1\ncpu1 1 1 1 1\n",
			"/sys/devices/system/cpu/cpu0/cpufreq/scaling_cur_freq": "3400000\n",
			"/sys/devices/system/cpu/cpu1/cpufreq/scaling_cur_freq": "800000\n",
		})
		freqs, err := newLinuxCPUProvider(newLocalSource(root)).Frequency()
		if err != nil {
			t.Fatalf("Frequency() failed: %v", err)
		}
		if freqs[0] != 3400 || freqs[1] != 800 {
			t.Errorf("Frequency() = %v, want map[0:3400 1:800]", freqs)
		}
	})

	t.Run("cpuinfo", func(t *testing.T) {
		root := t.TempDir()
		writeTree(t, root, map[string]string{
			"/proc/stat":    "cpu  1 1 1 1\ncpu0 1 1 1 1\n",
			"/proc/cpuinfo": testCPUInfo,
		})
		freqs, err := newLinuxCPUProvider(newLocalSource(root)).Frequency()
		if err != nil {
			t.Fatalf("Frequency() failed: %v", err)
		}
		if freqs[0] != 1800 || freqs[3] != 2100 {
			t.Errorf("Frequency() = %v, want cpu MHz values", freqs)
		}
	})
}

func TestCalculateUsage(t *testing.T) {
	tests := []struct {
		name    string
		prev    cpuTimes
		current cpuTimes
		want    float64
	}{
		{"no change", cpuTimes{user: 10, idle: 10}, cpuTimes{user: 10, idle: 10}, 0},
		{"all busy", cpuTimes{user: 10, idle: 10}, cpuTimes{user: 20, idle: 10}, 100},
		{"half busy", cpuTimes{user: 10, idle: 10}, cpuTimes{user: 15, idle: 15}, 50},
		{"iowait is idle", cpuTimes{}, cpuTimes{system: 1, iowait: 3}, 25},
		{"counter reset", cpuTimes{user: 100, idle: 100}, cpuTimes{user: 1, idle: 1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := calculateUsage(tt.prev, tt.current); math.Abs(got-tt.want) > 0.01 {
				t.Errorf("calculateUsage() = %v, want %v", got, tt.want)
			}
		})
	}
}
