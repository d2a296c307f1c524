// Package main provides the hwinfo command, which opens the hardware sensor
// tree, lets the background poller warm up and prints a JSON report of the
// CPU or memory state.
package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/opd-ai/go-hwinfo/internal/cli"
	"github.com/opd-ai/go-hwinfo/internal/config"
	"github.com/opd-ai/go-hwinfo/pkg/hwinfo"
)

// Version is the current version of hwinfo.
// This default value can be overridden at build time using:
//
//	go build -ldflags "-X main.Version=x.y.z"
var Version = "0.1.0-dev"

// newHandle opens the hardware handle; tests replace it to serve a fake
// /proc and /sys tree.
var newHandle = hwinfo.New

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	common      cli.CommonFlags
	query       string
	warmUp      int
	printAll    bool
	watch       bool
	metricsAddr string
	version     bool
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var opts options
	flagSet := pflag.NewFlagSet("hwinfo", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	opts.common.AddFlags(flagSet)
	flagSet.StringVarP(&opts.query, "query", "q", "", "report to print: cpu, memory or all (default memory)")
	flagSet.IntVar(&opts.warmUp, "warm-up", config.DefaultWarmUpMs, "milliseconds to wait before querying")
	flagSet.BoolVar(&opts.printAll, "print-all", false, "print every sensor instead of a report")
	flagSet.BoolVarP(&opts.watch, "watch", "w", false, "keep running and print again whenever the config file changes")
	flagSet.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve expvar metrics on this address (e.g. localhost:9090)")
	flagSet.BoolVarP(&opts.version, "version", "v", false, "print version and exit")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 1
	}

	if opts.version {
		fmt.Fprintf(stdout, "hwinfo version %s\n", Version)
		return 0
	}

	cfg, err := loadConfig(&opts, flagSet)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	r := &reporter{
		stdout:   stdout,
		logger:   opts.common.NewLogger(stderr),
		metrics:  hwinfo.NewMetrics(),
		printAll: opts.printAll,
	}

	if opts.metricsAddr != "" {
		shutdown, err := serveMetrics(opts.metricsAddr, r.metrics)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		defer shutdown()
	}

	if opts.watch {
		if opts.common.ConfigPath == "" {
			fmt.Fprintln(stderr, "Error: --watch needs a configuration file (-c)")
			return 1
		}
		err = r.watch(ctx, cfg, opts.common.ConfigPath, func(c *config.Config) error {
			if err := opts.common.Apply(c, flagSet); err != nil {
				return err
			}
			return overrideConfig(c, &opts, flagSet)
		})
	} else {
		err = r.report(ctx, cfg)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// loadConfig reads the configuration and applies every flag override.
func loadConfig(opts *options, flagSet *pflag.FlagSet) (*config.Config, error) {
	cfg, err := opts.common.Load(flagSet)
	if err != nil {
		return nil, err
	}
	if err := overrideConfig(cfg, opts, flagSet); err != nil {
		return nil, err
	}
	return cfg, nil
}

// overrideConfig applies the hwinfo-specific flags. It is also applied to
// every reloaded configuration so that flags keep winning over the file.
func overrideConfig(cfg *config.Config, opts *options, flagSet *pflag.FlagSet) error {
	if flagSet.Changed("query") {
		q, err := config.ParseQuery(opts.query)
		if err != nil {
			return err
		}
		cfg.Query = q
	}
	if flagSet.Changed("warm-up") {
		if opts.warmUp < 0 {
			return fmt.Errorf("--warm-up must not be negative")
		}
		cfg.Polling.WarmUpMs = opts.warmUp
	}
	return nil
}

// reporter opens a handle for a configuration and prints its report.
type reporter struct {
	stdout   io.Writer
	logger   hwinfo.Logger
	metrics  *hwinfo.Metrics
	printAll bool
}

// report runs one query cycle: open, start polling, warm up, print, close.
func (r *reporter) report(ctx context.Context, cfg *config.Config) error {
	opts, err := cli.Options(cfg, r.logger)
	if err != nil {
		return err
	}
	opts.Metrics = r.metrics

	h, err := newHandle(opts)
	if err != nil {
		return fmt.Errorf("creating hardware handle: %w", err)
	}
	defer h.Close()

	if cfg.Polling.Enabled {
		if err := h.StartSaveAllHardwareThread(cfg.Polling.IntervalMs); err != nil {
			return fmt.Errorf("starting polling: %w", err)
		}
	}

	if err := sleepContext(ctx, cfg.WarmUp()); err != nil {
		return err
	}
	if check := h.Health(); check.Status == hwinfo.HealthUnhealthy {
		r.logger.Warn("hardware unhealthy", "message", check.Message, "breaker", check.Breaker.State.String())
	}
	return r.print(h, cfg.Query)
}

func (r *reporter) print(h *hwinfo.HardwareInfo, q config.Query) error {
	if r.printAll {
		return h.PrintAllHardware(r.stdout)
	}

	queries := []func() (string, error){h.GetMemoryInfo}
	switch q {
	case config.QueryCPU:
		queries = []func() (string, error){h.GetCPUInfo}
	case config.QueryAll:
		queries = []func() (string, error){h.GetCPUInfo, h.GetMemoryInfo}
	}
	for _, query := range queries {
		out, err := query()
		if err != nil {
			return err
		}
		fmt.Fprintln(r.stdout, out)
	}
	return nil
}

// watch prints once, then again after every change of the configuration
// file or SIGHUP, until ctx is canceled. Reload errors are logged and the
// previous configuration stays in effect.
func (r *reporter) watch(ctx context.Context, cfg *config.Config, path string, adjust func(*config.Config) error) error {
	if err := r.report(ctx, cfg); err != nil {
		return err
	}

	reloads := make(pendingConfig, 1)
	watcher, err := config.NewWatcher(path, config.DefaultWatchDebounce,
		reloads.replace,
		func(err error) { r.logger.Warn("configuration reload failed", "path", path, "error", err) },
	)
	if err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}
	watcher.Start()
	defer watcher.Stop()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return nil
		case next := <-reloads:
			if err := adjust(next); err != nil {
				r.logger.Warn("configuration rejected", "error", err)
				continue
			}
			cfg = next
		case <-hup:
		}
		r.logger.Info("configuration reloaded", "path", path)
		if err := r.report(ctx, cfg); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			r.logger.Error("query failed", "error", err)
		}
	}
}

// pendingConfig holds at most one reloaded configuration that the watch
// loop has not applied yet.
type pendingConfig chan *config.Config

// replace queues c, discarding a queued configuration that is now stale.
func (p pendingConfig) replace(c *config.Config) {
	select {
	case <-p:
	default:
	}
	select {
	case p <- c:
	default:
	}
}

// serveMetrics exposes expvar's /debug/vars on addr until the returned
// function is called.
func serveMetrics(addr string, m *hwinfo.Metrics) (func(), error) {
	m.RegisterExpvar()

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/debug/vars", expvar.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() { _ = srv.Serve(ln) }()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
