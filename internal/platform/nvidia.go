package platform

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// NvidiaGPU is one GPU as reported by nvidia-smi. Fields the driver does
// not support are NaN.
type NvidiaGPU struct {
	Index  int
	UUID   string
	Name   string
	Driver string

	Temperature float64 // °C
	LoadCore    float64 // %
	LoadMemory  float64 // %
	FanSpeed    float64 // %
	PowerDraw   float64 // W
	PowerLimit  float64 // W
	ClockCore   float64 // MHz
	ClockMemory float64 // MHz

	MemoryUsed  float64 // MiB
	MemoryTotal float64 // MiB
	MemoryFree  float64 // MiB
}

// GPUProvider reports NVIDIA GPUs. The proprietary driver exposes no hwmon
// chip, so nvidia-smi is the only source.
type GPUProvider interface {
	NvidiaGPUs() ([]NvidiaGPU, error)
}

// GPUSource is implemented by platforms that can query NVIDIA GPUs. GPUs
// returns nil when nvidia-smi is not available.
type GPUSource interface {
	GPUs() GPUProvider
}

const nvidiaSmiFields = "index,uuid,name,driver_version,temperature.gpu,utilization.gpu,utilization.memory," +
	"fan.speed,power.draw,power.limit,clocks.gr,clocks.mem,memory.used,memory.total,memory.free"

const nvidiaSmiCommand = "nvidia-smi --query-gpu=" + nvidiaSmiFields + " --format=csv,noheader,nounits"

// nvidiaSMI runs nvidia-smi through a command runner, locally or over SSH.
type nvidiaSMI struct {
	runner commandRunner
}

func newNvidiaSMI(runner commandRunner) *nvidiaSMI {
	return &nvidiaSMI{runner: runner}
}

func (n *nvidiaSMI) NvidiaGPUs() ([]NvidiaGPU, error) {
	out, err := n.runner.runCommand(nvidiaSmiCommand)
	if err != nil {
		return nil, fmt.Errorf("nvidia-smi: %w", err)
	}
	return parseNvidiaSmi(out)
}

// parseNvidiaSmi parses the CSV output of nvidiaSmiCommand, one GPU per line.
func parseNvidiaSmi(output string) ([]NvidiaGPU, error) {
	want := len(strings.Split(nvidiaSmiFields, ","))
	var gpus []NvidiaGPU
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) != want {
			return nil, fmt.Errorf("nvidia-smi: expected %d fields, got %d in %q", want, len(fields), line)
		}
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		index, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("nvidia-smi: bad index %q", fields[0])
		}
		gpus = append(gpus, NvidiaGPU{
			Index:       index,
			UUID:        fields[1],
			Name:        fields[2],
			Driver:      fields[3],
			Temperature: smiFloat(fields[4]),
			LoadCore:    smiFloat(fields[5]),
			LoadMemory:  smiFloat(fields[6]),
			FanSpeed:    smiFloat(fields[7]),
			PowerDraw:   smiFloat(fields[8]),
			PowerLimit:  smiFloat(fields[9]),
			ClockCore:   smiFloat(fields[10]),
			ClockMemory: smiFloat(fields[11]),
			MemoryUsed:  smiFloat(fields[12]),
			MemoryTotal: smiFloat(fields[13]),
			MemoryFree:  smiFloat(fields[14]),
		})
	}
	return gpus, nil
}

// smiFloat parses a numeric field; "[N/A]" and "[Not Supported]" become NaN.
func smiFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// execRunner runs commands on the local machine without a shell, so the
// command line must not contain quoting.
type execRunner struct {
	ctx     context.Context
	timeout time.Duration
}

func (r execRunner) runCommand(cmd string) (string, error) {
	args := strings.Fields(cmd)
	if len(args) == 0 {
		return "", fmt.Errorf("empty command")
	}
	ctx, cancel := context.WithTimeout(r.ctx, r.timeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, args[0], args[1:]...).Output()
	if err != nil {
		return "", fmt.Errorf("command failed: %w", err)
	}
	return string(out), nil
}

// localNvidiaSMI returns a provider when nvidia-smi is on PATH, else nil.
func localNvidiaSMI(ctx context.Context) GPUProvider {
	if _, err := exec.LookPath("nvidia-smi"); err != nil {
		return nil
	}
	return newNvidiaSMI(execRunner{ctx: ctx, timeout: 5 * time.Second})
}
