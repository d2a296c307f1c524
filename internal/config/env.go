package config

import (
	"os"
	"regexp"
	"strings"
)

// envVarPattern matches environment variable references in configuration values.
// Supports formats:
//   - ${VAR_NAME} - standard shell-like format
//   - ${VAR_NAME:-default} - with default value if unset or empty
//   - $VAR_NAME - simple format (word characters only)
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([a-zA-Z_][a-zA-Z0-9_]*)`)

// ExpandEnv expands environment variable references in a string.
// Unknown or unset variables without defaults are replaced with empty string.
func ExpandEnv(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if strings.HasPrefix(match, "${") && strings.HasSuffix(match, "}") {
			inner := match[2 : len(match)-1]

			if name, def, ok := strings.Cut(inner, ":-"); ok {
				if val := os.Getenv(name); val != "" {
					return val
				}
				return def
			}
			return os.Getenv(inner)
		}

		return os.Getenv(match[1:])
	})
}

// ExpandEnvConfig expands environment variables in the string values of
// the remote section. Passwords and key files usually come from the
// environment rather than the file itself.
func ExpandEnvConfig(cfg *Config) {
	if cfg == nil || cfg.Remote == nil {
		return
	}

	r := cfg.Remote
	for _, s := range []*string{
		&r.Host,
		&r.User,
		&r.Auth,
		&r.KeyFile,
		&r.Passphrase,
		&r.Password,
		&r.KnownHostsFile,
	} {
		*s = ExpandEnv(*s)
	}
}
