package config

import "testing"

func TestExpandEnv(t *testing.T) {
	t.Setenv("TEST_HWINFO_VAR", "test_value")
	t.Setenv("TEST_HWINFO_EMPTY", "")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"no variables", "plain text", "plain text"},
		{"braced", "prefix ${TEST_HWINFO_VAR} suffix", "prefix test_value suffix"},
		{"simple", "prefix $TEST_HWINFO_VAR suffix", "prefix test_value suffix"},
		{"unset becomes empty", "a${UNSET_HWINFO_12345}b", "ab"},
		{"unset with default", "${UNSET_HWINFO_12345:-fallback}", "fallback"},
		{"empty uses default", "${TEST_HWINFO_EMPTY:-fallback}", "fallback"},
		{"set ignores default", "${TEST_HWINFO_VAR:-fallback}", "test_value"},
		{"multiple", "$TEST_HWINFO_VAR/${TEST_HWINFO_VAR}", "test_value/test_value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExpandEnv(tt.input); got != tt.expected {
				t.Errorf("ExpandEnv(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestExpandEnvConfig(t *testing.T) {
	t.Setenv("TEST_HWINFO_PASSWORD", "s3cret")
	t.Setenv("TEST_HWINFO_HOST", "nas")

	cfg := DefaultConfig()
	cfg.Remote = &RemoteConfig{
		Host:     "${TEST_HWINFO_HOST}",
		User:     "${TEST_HWINFO_USER:-admin}",
		Auth:     "password",
		Password: "$TEST_HWINFO_PASSWORD",
	}
	ExpandEnvConfig(&cfg)

	if cfg.Remote.Host != "nas" || cfg.Remote.User != "admin" || cfg.Remote.Password != "s3cret" {
		t.Errorf("Remote = %+v", cfg.Remote)
	}

	// No remote section is a no-op.
	ExpandEnvConfig(&Config{})
	ExpandEnvConfig(nil)
}

func TestParseExpandsEnv(t *testing.T) {
	t.Setenv("TEST_HWINFO_USER", "monitor")

	p := newTestParser(t)
	cfg, err := p.ParseFormat([]byte("remote:\n  host: box\n  user: ${TEST_HWINFO_USER}\n"), FormatYAML)
	if err != nil {
		t.Fatalf("ParseFormat failed: %v", err)
	}
	if cfg.Remote.User != "monitor" {
		t.Errorf("User = %q, want monitor", cfg.Remote.User)
	}
}
