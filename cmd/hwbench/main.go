// Package main provides the hwbench command, which times repeated CPU or
// memory queries against the hardware sensor tree and reports how often the
// result changed and how long a query took on average.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/opd-ai/go-hwinfo/internal/bench"
	"github.com/opd-ai/go-hwinfo/internal/cli"
	"github.com/opd-ai/go-hwinfo/internal/config"
	"github.com/opd-ai/go-hwinfo/internal/profiling"
	"github.com/opd-ai/go-hwinfo/pkg/hwinfo"
)

// Version is the current version of hwbench.
// This default value can be overridden at build time using:
//
//	go build -ldflags "-X main.Version=x.y.z"
var Version = "0.1.0-dev"

// newHandle opens the hardware handle; tests replace it.
var newHandle = hwinfo.New

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var (
		common     cli.CommonFlags
		iterations int
		delay      int
		query      string
		cpuProfile string
		memProfile string
		jsonOut    bool
		verbose    bool
		version    bool
	)
	flagSet := pflag.NewFlagSet("hwbench", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	common.AddFlags(flagSet)
	flagSet.IntVarP(&iterations, "iterations", "n", config.DefaultIterations, "number of timed queries")
	flagSet.IntVar(&delay, "delay", config.DefaultDelayMs, "milliseconds to sleep before each query")
	flagSet.StringVarP(&query, "query", "q", "", "query to time: cpu or memory (default cpu)")
	flagSet.StringVar(&cpuProfile, "cpuprofile", "", "write CPU profile to file")
	flagSet.StringVar(&memProfile, "memprofile", "", "write memory profile to file")
	flagSet.BoolVar(&jsonOut, "json", false, "print the result as JSON")
	flagSet.BoolVar(&verbose, "verbose", false, "print one line per iteration to stderr")
	flagSet.BoolVarP(&version, "version", "v", false, "print version and exit")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 1
	}

	if version {
		fmt.Fprintf(stdout, "hwbench version %s\n", Version)
		return 0
	}

	cfg, err := common.Load(flagSet)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if flagSet.Changed("iterations") {
		cfg.Bench.Iterations = iterations
	}
	if flagSet.Changed("delay") {
		cfg.Bench.DelayMs = delay
	}
	if flagSet.Changed("query") {
		q, err := config.ParseQuery(query)
		if err != nil || q == config.QueryAll {
			fmt.Fprintf(stderr, "Error: --query must be cpu or memory, got %q\n", query)
			return 1
		}
		cfg.Bench.Query = q
	}
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	logger := common.NewLogger(stderr)
	opts, err := cli.Options(cfg, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	h, err := newHandle(opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error creating hardware handle: %v\n", err)
		return 1
	}
	defer h.Close()

	if cfg.Polling.Enabled {
		if err := h.StartSaveAllHardwareThread(cfg.Polling.IntervalMs); err != nil {
			fmt.Fprintf(stderr, "Failed to start polling: %v\n", err)
			return 1
		}
	}

	runner := newRunner(h, cfg)
	if verbose {
		runner.OnIteration = func(i int, elapsed time.Duration, changed bool) {
			fmt.Fprintf(stderr, "iteration %d: %v changed=%t\n", i+1, elapsed, changed)
		}
	}

	profConfig := profiling.Config{CPUProfilePath: cpuProfile, MemProfilePath: memProfile}
	profiler := profiling.New(profConfig)
	if profConfig.ProfilingEnabled() {
		if err := profiler.Start(); err != nil {
			fmt.Fprintf(stderr, "Failed to start profiling: %v\n", err)
			return 1
		}
	}

	result, runErr := runner.Run(ctx)

	if profConfig.ProfilingEnabled() {
		usage, err := profiler.Stop()
		if err != nil {
			fmt.Fprintf(stderr, "Warning: failed to stop profiling: %v\n", err)
		}
		logger.Info("profiling finished", "usage", usage.String())
	}

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			fmt.Fprintf(stderr, "Interrupted after %d of %d iterations\n", result.Completed, result.Iterations)
		} else {
			fmt.Fprintf(stderr, "Error: %v\n", runErr)
			return 1
		}
	}

	if jsonOut {
		err = result.WriteJSON(stdout)
	} else {
		err = result.WriteText(stdout)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// newRunner builds the timing loop for the configured query.
func newRunner(h *hwinfo.HardwareInfo, cfg *config.Config) *bench.Runner {
	r := &bench.Runner{
		Label:      "CPU Info",
		Iterations: cfg.Bench.Iterations,
		Delay:      time.Duration(cfg.Bench.DelayMs) * time.Millisecond,
		Query:      h.GetCPUInfo,
	}
	if cfg.Bench.Query == config.QueryMemory {
		r.Label = "Memory Info"
		r.Query = h.GetMemoryInfo
	}
	return r
}
