package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestExpandEnvVars(t *testing.T) {
	os.Setenv("TEST_VAR", "hello")
	defer os.Unsetenv("TEST_VAR")

	tests := []struct {
		input    string
		expected string
	}{
		{"${TEST_VAR}", "hello"},
		{"${TEST_VAR:default}", "hello"},
		{"${UNSET_VAR:fallback}", "fallback"},
		{"${UNSET_VAR}", ""},
		{"no vars here", "no vars here"},
		{"prefix-${TEST_VAR}-suffix", "prefix-hello-suffix"},
	}

	for _, tt := range tests {
		got := expandEnvVars(tt.input)
		if got != tt.expected {
			t.Errorf("expandEnvVars(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestLoadFile(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "test-config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpFile.Name())

	content := `
server:
  host: "0.0.0.0"
  port: 9999
rate_limit:
  max: 25
  window: 30m
`
	if _, err := tmpFile.WriteString(content); err != nil {
		t.Fatal(err)
	}
	tmpFile.Close()

	var cfg Config
	if err := LoadFile(tmpFile.Name(), &cfg); err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Server.Port != 9999 {
		t.Errorf("expected port 9999, got %d", cfg.Server.Port)
	}
	if cfg.RateLimit.Max != 25 {
		t.Errorf("expected rate limit max 25, got %d", cfg.RateLimit.Max)
	}
	if cfg.RateLimit.Window != 30*time.Minute {
		t.Errorf("expected window 30m, got %s", cfg.RateLimit.Window)
	}
}

func TestLoadFile_WithEnvVars(t *testing.T) {
	os.Setenv("TEST_GOVINFO_KEY", "demo-key")
	defer os.Unsetenv("TEST_GOVINFO_KEY")

	tmpFile, err := os.CreateTemp("", "test-config-env-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpFile.Name())

	content := `
govinfo:
  api_key: "${TEST_GOVINFO_KEY}"
openai:
  model: "${TEST_MODEL:gpt-4o-mini}"
`
	if _, err := tmpFile.WriteString(content); err != nil {
		t.Fatal(err)
	}
	tmpFile.Close()

	var cfg Config
	if err := LoadFile(tmpFile.Name(), &cfg); err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.GovInfo.APIKey != "demo-key" {
		t.Errorf("expected api_key demo-key, got %s", cfg.GovInfo.APIKey)
	}
	if cfg.OpenAI.Model != "gpt-4o-mini" {
		t.Errorf("expected default model gpt-4o-mini, got %s", cfg.OpenAI.Model)
	}
}

func TestValidate_MissingCredentialsFatal(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error for missing credentials")
	}
	if !strings.Contains(err.Error(), "GOV_INFO_API_KEY") {
		t.Errorf("expected GOV_INFO_API_KEY in error, got %v", err)
	}
	if !strings.Contains(err.Error(), "OPENAI_API_KEY") {
		t.Errorf("expected OPENAI_API_KEY in error, got %v", err)
	}
}

func TestValidate_OK(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GovInfo.APIKey = "k"
	cfg.OpenAI.APIKey = "k"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestValidate_RetryBounds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GovInfo.APIKey = "k"
	cfg.OpenAI.APIKey = "k"
	cfg.Retry.MaxDelay = 500 * time.Millisecond
	cfg.Retry.InitialDelay = 1 * time.Second

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when max_delay < initial_delay")
	}
}
