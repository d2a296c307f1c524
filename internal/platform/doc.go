// Package platform provides the data sources behind the hardware sensor tree.
//
// Each implementation of Platform hands out a CPUProvider, a MemoryProvider and
// a SensorProvider. Three implementations exist:
//
//   - Linux: procfs and sysfs (/proc/stat, /proc/cpuinfo, /proc/meminfo,
//     /sys/devices/system/cpu, /sys/class/hwmon, /sys/class/powercap)
//   - Portable: gopsutil, used on Windows, macOS and the BSDs
//   - Remote: the Linux providers driven over SSH with cat and ls
//
// The Linux providers read through a fileSource, so the same parsing code
// serves the local filesystem, a relocated root (NewLinuxPlatformAt) and a
// remote shell.
//
// All three also implement GPUSource, whose GPUs is nil unless nvidia-smi
// is available.
//
// # Usage
//
//	p, err := platform.NewPlatform()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := p.Initialize(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//	defer p.Close()
//
//	total, _ := p.CPU().TotalUsage()
//	memStats, _ := p.Memory().Stats()
//	fmt.Printf("CPU: %.1f%%, Memory: %.1f%%\n", total, memStats.UsedPercent)
//
// # Thread Safety
//
// All Platform and Provider implementations are safe for concurrent use.
package platform
