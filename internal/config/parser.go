package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Format identifies a configuration file syntax.
type Format string

// Supported formats.
const (
	FormatLua  Format = "lua"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ParseFormat converts a format name or file extension to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "lua":
		return FormatLua, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "json", "jsonc":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown config format: %s (expected lua, yaml or json)", s)
	}
}

// Parser reads configuration files in any supported format, then expands
// environment references, applies defaults and validates the result.
type Parser struct {
	luaParser *LuaConfigParser
}

// NewParser creates a new Parser.
func NewParser() (*Parser, error) {
	luaParser, err := NewLuaConfigParser()
	if err != nil {
		return nil, fmt.Errorf("failed to create Lua parser: %w", err)
	}
	return &Parser{luaParser: luaParser}, nil
}

// ParseFile reads and parses a configuration file. The format comes from
// the extension, or from the content when the extension is unknown.
func (p *Parser) ParseFile(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	format, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		format = detectFormat(content)
	}
	cfg, err := p.ParseFormat(content, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseFromFS reads and parses a configuration file from fsys.
func (p *Parser) ParseFromFS(fsys fs.FS, path string) (*Config, error) {
	content, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config from FS %s: %w", path, err)
	}
	return p.Parse(content)
}

// ParseReader parses configuration from r in the given format.
func (p *Parser) ParseReader(r io.Reader, format Format) (*Config, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return p.ParseFormat(content, format)
}

// Parse parses content, detecting its format.
func (p *Parser) Parse(content []byte) (*Config, error) {
	return p.ParseFormat(content, detectFormat(content))
}

// ParseFormat parses content in the given format.
func (p *Parser) ParseFormat(content []byte, format Format) (*Config, error) {
	var (
		cfg *Config
		err error
	)
	switch format {
	case FormatLua:
		cfg, err = p.luaParser.Parse(content)
	case FormatYAML:
		cfg, err = parseYAML(content)
	case FormatJSON:
		cfg, err = parseJSONC(content)
	default:
		return nil, fmt.Errorf("unknown config format: %s", format)
	}
	if err != nil {
		return nil, err
	}

	ExpandEnvConfig(cfg)
	applyRemoteDefaults(cfg.Remote)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Close releases resources associated with the parser.
func (p *Parser) Close() error {
	if p.luaParser != nil {
		return p.luaParser.Close()
	}
	return nil
}

// luaConfigPattern matches an assignment to hwinfo.config at the start of a
// line, which marks a Lua configuration.
var luaConfigPattern = regexp.MustCompile(`(?m)^\s*hwinfo\.config\s*=`)

// detectFormat guesses the format of content without a file name.
func detectFormat(content []byte) Format {
	if luaConfigPattern.Match(content) {
		return FormatLua
	}
	trimmed := bytes.TrimSpace(content)
	for bytes.HasPrefix(trimmed, []byte("//")) {
		_, rest, _ := bytes.Cut(trimmed, []byte("\n"))
		trimmed = bytes.TrimSpace(rest)
	}
	if bytes.HasPrefix(trimmed, []byte("{")) {
		return FormatJSON
	}
	return FormatYAML
}

// parseYAML decodes YAML over the defaults. Unknown keys are errors.
func parseYAML(content []byte) (*Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing YAML configuration: %w", err)
	}
	return &cfg, nil
}

// parseJSONC decodes JSON with comments and trailing commas over the
// defaults. Unknown keys are errors.
func parseJSONC(content []byte) (*Config, error) {
	cfg := DefaultConfig()
	dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(content)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing JSON configuration: %w", err)
	}
	return &cfg, nil
}
