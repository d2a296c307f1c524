// Package hwinfo provides the public API for querying the hardware sensors
// of the local machine or of a Linux host reached over SSH.
//
// # Basic Usage
//
//	h, err := hwinfo.New(hwinfo.DefaultOptions())
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer h.Close()
//
//	out, err := h.GetCPUInfo()
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(out)
//
// [HardwareInfo.GetCPUInfo] and [HardwareInfo.GetMemoryInfo] return JSON
// reports indented with four spaces. [HardwareInfo.CPUInfo] and
// [HardwareInfo.MemoryInfo] return the same reports as structs.
//
// # Polling
//
// Without polling, every query refreshes the hardware it needs. After
// [HardwareInfo.StartSaveAllHardwareThread] a background goroutine refreshes
// all opened hardware on a fixed interval and queries read its cached
// snapshot. When refreshes keep failing, for example because a remote host
// went away, a circuit breaker pauses polling; see [BreakerConfig] and
// [HardwareInfo.Health].
//
// # Hardware Groups
//
// [Options.Groups] selects what is opened. CPU and memory are enabled by
// default. The motherboard, controller, GPU, network and storage groups open
// one item per matching hwmon chip; with the GPU group, NVIDIA cards are
// read through nvidia-smi.
//
// All methods are safe for concurrent use.
package hwinfo
