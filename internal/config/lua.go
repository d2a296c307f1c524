package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/arnodel/golua/lib"
	rt "github.com/arnodel/golua/runtime"
)

// LuaConfigParser parses Lua configuration files. The script assigns a
// table to hwinfo.config:
//
//	hwinfo.config = {
//	    cpu = true,
//	    memory = true,
//	    poll = true,
//	    poll_interval = 50,
//	    bench_query = "memory",
//	    remote = { host = "nas", user = "admin" },
//	}
type LuaConfigParser struct {
	runtime *rt.Runtime
	cleanup func()
	mu      sync.Mutex
}

// NewLuaConfigParser creates a new LuaConfigParser with a fresh Lua runtime.
func NewLuaConfigParser() (*LuaConfigParser, error) {
	return NewLuaConfigParserWithOutput(io.Discard)
}

// NewLuaConfigParserWithOutput creates a LuaConfigParser whose print output
// goes to stdout.
func NewLuaConfigParserWithOutput(stdout io.Writer) (*LuaConfigParser, error) {
	if stdout == nil {
		stdout = os.Stdout
	}

	runtime := rt.New(stdout)
	cleanup := lib.LoadAll(runtime)

	return &LuaConfigParser{
		runtime: runtime,
		cleanup: cleanup,
	}, nil
}

// Parse executes a Lua configuration and extracts hwinfo.config.
func (p *LuaConfigParser) Parse(content []byte) (*Config, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.initGlobal()

	closure, err := p.runtime.CompileAndLoadLuaChunk(
		"config",
		content,
		rt.TableValue(p.runtime.GlobalEnv()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compile Lua configuration: %w", err)
	}

	ctx := rt.RuntimeContextDef{
		HardLimits: rt.RuntimeResources{
			Cpu:    10_000_000,
			Memory: 50 * 1024 * 1024, // 50 MB
		},
	}
	p.runtime.PushContext(ctx)
	defer p.runtime.PopContext()

	thread := p.runtime.MainThread()
	if _, err := rt.Call1(thread, rt.FunctionValue(closure)); err != nil {
		return nil, fmt.Errorf("failed to execute Lua configuration: %w", err)
	}

	return p.extractConfig()
}

// initGlobal resets the hwinfo global table before each run.
func (p *LuaConfigParser) initGlobal() {
	hw := rt.NewTable()
	hw.Set(rt.StringValue("config"), rt.TableValue(rt.NewTable()))
	p.runtime.GlobalEnv().Set(rt.StringValue("hwinfo"), rt.TableValue(hw))
}

func (p *LuaConfigParser) extractConfig() (*Config, error) {
	cfg := DefaultConfig()

	hwVal := p.runtime.GlobalEnv().Get(rt.StringValue("hwinfo"))
	if hwVal == rt.NilValue {
		return &cfg, nil
	}
	hw, ok := hwVal.TryTable()
	if !ok {
		return nil, fmt.Errorf("hwinfo is not a table")
	}

	configVal := hw.Get(rt.StringValue("config"))
	if configVal == rt.NilValue {
		return &cfg, nil
	}
	table, ok := configVal.TryTable()
	if !ok {
		return nil, fmt.Errorf("hwinfo.config is not a table")
	}
	if err := extractConfigTable(&cfg, table); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func extractConfigTable(cfg *Config, table *rt.Table) error {
	groups := []struct {
		key    string
		target *bool
	}{
		{"cpu", &cfg.Hardware.CPU},
		{"memory", &cfg.Hardware.Memory},
		{"motherboard", &cfg.Hardware.Motherboard},
		{"controller", &cfg.Hardware.Controller},
		{"gpu", &cfg.Hardware.GPU},
		{"network", &cfg.Hardware.Network},
		{"storage", &cfg.Hardware.Storage},
		{"poll", &cfg.Polling.Enabled},
	}
	for _, g := range groups {
		if val := getTableBool(table, g.key); val != nil {
			*g.target = *val
		}
	}

	ints := []struct {
		key    string
		target *int
	}{
		{"poll_interval", &cfg.Polling.IntervalMs},
		{"warm_up", &cfg.Polling.WarmUpMs},
		{"failure_threshold", &cfg.Polling.FailureThreshold},
		{"cool_down", &cfg.Polling.CoolDownMs},
		{"iterations", &cfg.Bench.Iterations},
		{"iteration_delay", &cfg.Bench.DelayMs},
		{"update_timeout", &cfg.UpdateTimeoutMs},
	}
	for _, i := range ints {
		if val := getTableInt(table, i.key); val != nil {
			*i.target = *val
		}
	}

	if val := getTableString(table, "query"); val != nil {
		q, err := ParseQuery(*val)
		if err != nil {
			return fmt.Errorf("invalid query: %w", err)
		}
		cfg.Query = q
	}
	if val := getTableString(table, "bench_query"); val != nil {
		q, err := ParseQuery(*val)
		if err != nil || q == QueryAll {
			return fmt.Errorf("invalid bench_query: %q", *val)
		}
		cfg.Bench.Query = q
	}

	if remoteVal := table.Get(rt.StringValue("remote")); remoteVal != rt.NilValue {
		remote, ok := remoteVal.TryTable()
		if !ok {
			return fmt.Errorf("remote must be a table")
		}
		cfg.Remote = extractRemote(remote)
	}
	return nil
}

func extractRemote(table *rt.Table) *RemoteConfig {
	r := &RemoteConfig{}
	strs := []struct {
		key    string
		target *string
	}{
		{"host", &r.Host},
		{"user", &r.User},
		{"auth", &r.Auth},
		{"key_file", &r.KeyFile},
		{"passphrase", &r.Passphrase},
		{"password", &r.Password},
		{"known_hosts_file", &r.KnownHostsFile},
	}
	for _, s := range strs {
		if val := getTableString(table, s.key); val != nil {
			*s.target = *val
		}
	}
	if val := getTableInt(table, "port"); val != nil {
		r.Port = *val
	}
	if val := getTableInt(table, "timeout"); val != nil {
		r.TimeoutMs = *val
	}
	return r
}

// Close releases resources associated with the parser's Lua runtime.
func (p *LuaConfigParser) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cleanup != nil {
		p.cleanup()
		p.cleanup = nil
	}
	return nil
}

// getTableBool retrieves a boolean value from a Lua table.
// Returns nil if the key doesn't exist or is not a boolean.
func getTableBool(table *rt.Table, key string) *bool {
	val := table.Get(rt.StringValue(key))
	if val == rt.NilValue {
		return nil
	}

	if b, ok := val.TryBool(); ok {
		return &b
	}

	// Handle string "yes"/"no" style values
	if s, ok := val.TryString(); ok {
		b := parseBool(s)
		return &b
	}

	return nil
}

// getTableString retrieves a string value from a Lua table.
func getTableString(table *rt.Table, key string) *string {
	val := table.Get(rt.StringValue(key))
	if val == rt.NilValue {
		return nil
	}

	if s, ok := val.TryString(); ok {
		return &s
	}

	return nil
}

// getTableInt retrieves an int value from a Lua table.
// Floats are truncated.
func getTableInt(table *rt.Table, key string) *int {
	val := table.Get(rt.StringValue(key))
	if val == rt.NilValue {
		return nil
	}

	if n, ok := val.TryInt(); ok {
		i := int(n)
		return &i
	}

	if f, ok := val.TryFloat(); ok {
		i := int(f)
		return &i
	}

	return nil
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "true", "1", "on":
		return true
	default:
		return false
	}
}
