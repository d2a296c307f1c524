// Package cli holds the flag handling shared by the hwinfo and hwbench
// commands: loading a configuration file, applying command-line overrides
// and turning the result into hwinfo.Options.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/opd-ai/go-hwinfo/internal/config"
	"github.com/opd-ai/go-hwinfo/internal/hardware"
	"github.com/opd-ai/go-hwinfo/pkg/hwinfo"
)

// CommonFlags are the flags both commands accept.
type CommonFlags struct {
	ConfigPath   string
	Hardware     []string
	Remote       string
	PollInterval int
	NoPoll       bool
	Debug        bool
	LogJSON      bool
}

// AddFlags registers the common flags on flagSet.
func (f *CommonFlags) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVarP(&f.ConfigPath, "config", "c", "", "configuration file (.lua, .yaml, .json)")
	flagSet.StringSliceVar(&f.Hardware, "hardware", nil,
		"hardware groups to open: cpu, memory, motherboard, controller, gpu, network, storage or all")
	flagSet.StringVar(&f.Remote, "remote", "", "query a remote Linux host over SSH (user@host[:port])")
	flagSet.IntVar(&f.PollInterval, "poll-interval", config.DefaultPollIntervalMs, "polling interval in milliseconds")
	flagSet.BoolVar(&f.NoPoll, "no-poll", false, "do not start the background polling thread")
	flagSet.BoolVar(&f.Debug, "debug", false, "log debug diagnostics to stderr")
	flagSet.BoolVar(&f.LogJSON, "log-json", false, "log JSON records to stderr")
}

// Load reads the configuration file, or the defaults when none was given,
// and applies the flags the user set explicitly.
func (f *CommonFlags) Load(flagSet *pflag.FlagSet) (*config.Config, error) {
	cfg, err := LoadConfig(f.ConfigPath)
	if err != nil {
		return nil, err
	}
	if err := f.Apply(cfg, flagSet); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Apply overrides cfg with every flag changed on flagSet and validates the
// result. A nil flagSet applies all non-zero flag values.
func (f *CommonFlags) Apply(cfg *config.Config, flagSet *pflag.FlagSet) error {
	changed := func(name string, nonZero bool) bool {
		if flagSet == nil {
			return nonZero
		}
		return flagSet.Changed(name)
	}

	if changed("hardware", len(f.Hardware) > 0) {
		groups, err := hardware.ParseGroups(f.Hardware)
		if err != nil {
			return err
		}
		cfg.Hardware = groups
	}
	if changed("remote", f.Remote != "") {
		remote, err := config.ParseRemoteTarget(f.Remote)
		if err != nil {
			return err
		}
		if cfg.Remote != nil {
			// Keep credentials from the file for the same user.
			if cfg.Remote.User == remote.User {
				remote.Auth = cfg.Remote.Auth
				remote.KeyFile = cfg.Remote.KeyFile
				remote.Passphrase = cfg.Remote.Passphrase
				remote.Password = cfg.Remote.Password
			}
			remote.KnownHostsFile = cfg.Remote.KnownHostsFile
			remote.TimeoutMs = cfg.Remote.TimeoutMs
		}
		if remote.Port == 0 {
			remote.Port = config.DefaultSSHPort
		}
		cfg.Remote = remote
	}
	if changed("poll-interval", f.PollInterval != 0) {
		cfg.Polling.IntervalMs = f.PollInterval
	}
	if changed("no-poll", f.NoPoll) {
		cfg.Polling.Enabled = !f.NoPoll
	}
	return config.Validate(cfg)
}

// LoadConfig parses the file at path. An empty path yields the defaults.
func LoadConfig(path string) (*config.Config, error) {
	if path == "" {
		cfg := config.DefaultConfig()
		return &cfg, nil
	}

	parser, err := config.NewParser()
	if err != nil {
		return nil, err
	}
	defer parser.Close()

	cfg, err := parser.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	return cfg, nil
}

// Options converts cfg into the options of a HardwareInfo handle.
func Options(cfg *config.Config, logger hwinfo.Logger) (hwinfo.Options, error) {
	opts := hwinfo.DefaultOptions()
	opts.Groups = cfg.Hardware
	if d := cfg.UpdateTimeout(); d > 0 {
		opts.UpdateTimeout = d
	}
	opts.Logger = logger
	opts.Breaker = hwinfo.BreakerConfig{
		FailureThreshold: cfg.Polling.FailureThreshold,
		CoolDown:         cfg.CoolDown(),
	}
	if logger != nil {
		opts.Breaker.OnStateChange = func(from, to hwinfo.BreakerState) {
			logger.Warn("polling breaker changed state", "from", from.String(), "to", to.String())
		}
	}

	remote, err := cfg.PlatformConfig()
	if err != nil {
		return hwinfo.Options{}, err
	}
	opts.Remote = remote
	return opts, nil
}

// NewLogger returns the diagnostics logger for a command. Only warnings are
// shown unless debug is set. Output is JSON when asked for, or when w is
// not a terminal.
func (f *CommonFlags) NewLogger(w io.Writer) hwinfo.Logger {
	level := slog.LevelWarn
	if f.Debug {
		level = slog.LevelDebug
	}
	options := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if f.LogJSON || !isTerminal(w) {
		handler = slog.NewJSONHandler(w, options)
	} else {
		handler = slog.NewTextHandler(w, options)
	}
	return hwinfo.NewSlogAdapter(slog.New(handler))
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}
