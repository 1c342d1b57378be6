package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("RCP_TEST_KEY", "sk-test-123")
	os.Unsetenv("RCP_TEST_MISSING")

	cases := []struct {
		in   string
		want string
	}{
		{`"apiKey": "${RCP_TEST_KEY}"`, `"apiKey": "sk-test-123"`},
		{`"model": "${RCP_TEST_MISSING:-gpt-4o-mini}"`, `"model": "gpt-4o-mini"`},
		{`"value": "${RCP_TEST_MISSING}"`, `"value": ""`},
		{`no vars here`, `no vars here`},
		{`"set": "${RCP_TEST_KEY:-fallback}"`, `"set": "sk-test-123"`},
	}
	for _, tc := range cases {
		if got := ExpandEnvVars(tc.in); got != tc.want {
			t.Errorf("ExpandEnvVars(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestLoadFillsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	body := `{
  "llm": {"apiKey": "sk-abc"},
  "knowledge": {"path": "kb.txt"}
}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.APIKey != "sk-abc" {
		t.Errorf("apiKey = %q", cfg.LLM.APIKey)
	}
	if cfg.LLM.Model != "gpt-4o-mini" {
		t.Errorf("model default not applied: %q", cfg.LLM.Model)
	}
	if cfg.Channels.Gateway.Host != "0.0.0.0" {
		t.Errorf("gateway host default not applied: %q", cfg.Channels.Gateway.Host)
	}
	if cfg.Calendar.CalendarID != "primary" {
		t.Errorf("calendarId default not applied: %q", cfg.Calendar.CalendarID)
	}
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("RCP_TEST_PORT_KEY", "sk-from-env")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	body := `{"llm": {"apiKey": "${RCP_TEST_PORT_KEY}"}, "knowledge": {"path": "kb.txt"}}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.APIKey != "sk-from-env" {
		t.Errorf("apiKey = %q, want env value", cfg.LLM.APIKey)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config { return Defaults() }

	t.Run("defaults pass", func(t *testing.T) {
		if err := Validate(valid()); err != nil {
			t.Fatalf("Validate(Defaults()) = %v", err)
		}
	})

	t.Run("bad log level", func(t *testing.T) {
		cfg := valid()
		cfg.General.LogLevel = "verbose"
		if err := Validate(cfg); err == nil || !strings.Contains(err.Error(), "logLevel") {
			t.Fatalf("err = %v", err)
		}
	})

	t.Run("bad port", func(t *testing.T) {
		cfg := valid()
		cfg.Channels.Gateway.Port = 0
		if err := Validate(cfg); err == nil {
			t.Fatal("expected error for port 0")
		}
	})

	t.Run("telegram without token", func(t *testing.T) {
		cfg := valid()
		cfg.Channels.Telegram.Enabled = true
		cfg.Channels.Telegram.Token = ""
		if err := Validate(cfg); err == nil || !strings.Contains(err.Error(), "telegram") {
			t.Fatalf("err = %v", err)
		}
	})

	t.Run("history without path", func(t *testing.T) {
		cfg := valid()
		cfg.History.Enabled = true
		cfg.History.DBPath = ""
		if err := Validate(cfg); err == nil {
			t.Fatal("expected error for empty history path")
		}
	})
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.json")
	cfg := Defaults()
	cfg.LLM.APIKey = "sk-save"
	cfg.Knowledge.Path = "kb.txt"

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.LLM.APIKey != "sk-save" {
		t.Errorf("round trip lost apiKey: %q", loaded.LLM.APIKey)
	}
}
