// Package testutil builds fake procfs and sysfs trees for command tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/opd-ai/go-hwinfo/internal/platform"
	"github.com/opd-ai/go-hwinfo/pkg/hwinfo"
)

// MachineTree is a two-core Intel machine with 16 GiB of memory, 4 GiB of
// swap and coretemp readings.
func MachineTree() map[string]string {
	return map[string]string{
		"/proc/stat": "cpu  100 0 100 800 0 0 0 0\n" +
			"cpu0 50 0 50 400 0 0 0 0\n" +
			"cpu1 50 0 50 400 0 0 0 0\n",
		"/proc/meminfo": "MemTotal:       16777216 kB\n" +
			"MemFree:         2097152 kB\n" +
			"MemAvailable:    4194304 kB\n" +
			"Buffers:          524288 kB\n" +
			"Cached:          1572864 kB\n" +
			"SwapTotal:       4194304 kB\n" +
			"SwapFree:        3145728 kB\n",
		"/proc/cpuinfo": "processor\t: 0\nvendor_id\t: GenuineIntel\nmodel name\t: Intel(R) Core(TM) i5-8250U CPU @ 1.60GHz\n" +
			"physical id\t: 0\ncore id\t\t: 0\ncpu MHz\t\t: 1800.000\n\n" +
			"processor\t: 1\nvendor_id\t: GenuineIntel\nmodel name\t: Intel(R) Core(TM) i5-8250U CPU @ 1.60GHz\n" +
			"physical id\t: 0\ncore id\t\t: 1\ncpu MHz\t\t: 2400.000\n\n",
		"/sys/devices/system/cpu/cpu0/topology/core_id":             "0\n",
		"/sys/devices/system/cpu/cpu0/topology/physical_package_id": "0\n",
		"/sys/devices/system/cpu/cpu1/topology/core_id":             "1\n",
		"/sys/devices/system/cpu/cpu1/topology/physical_package_id": "0\n",
		"/sys/class/hwmon/hwmon0/name":                              "coretemp\n",
		"/sys/class/hwmon/hwmon0/temp1_input":                       "45000\n",
		"/sys/class/hwmon/hwmon0/temp1_label":                       "Package id 0\n",
		"/sys/class/hwmon/hwmon0/temp2_input":                       "43000\n",
		"/sys/class/hwmon/hwmon0/temp2_label":                       "Core 0\n",
		"/sys/class/hwmon/hwmon0/temp3_input":                       "47000\n",
		"/sys/class/hwmon/hwmon0/temp3_label":                       "Core 1\n",
	}
}

// WriteTree creates files below root from a map of host path to content.
func WriteTree(t testing.TB, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", p, err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}
}

// NewFunc returns a replacement for hwinfo.New that reads MachineTree from
// a temporary directory instead of the running machine.
func NewFunc(t testing.TB) func(hwinfo.Options) (*hwinfo.HardwareInfo, error) {
	t.Helper()
	root := t.TempDir()
	WriteTree(t, root, MachineTree())
	return func(opts hwinfo.Options) (*hwinfo.HardwareInfo, error) {
		opts.Platform = platform.NewLinuxPlatformAt(root)
		opts.Remote = nil
		return hwinfo.New(opts)
	}
}
