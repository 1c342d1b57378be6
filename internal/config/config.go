// Package config loads and validates the service configuration: a JSON file
// with ${VAR} / ${VAR:-default} environment expansion, falling back to
// environment-driven defaults when no file exists.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Config is the root configuration for the receptionist service.
type Config struct {
	General   GeneralConfig   `json:"general"`
	LLM       LLMConfig       `json:"llm"`
	Speech    SpeechConfig    `json:"speech"`
	Calendar  CalendarConfig  `json:"calendar"`
	Knowledge KnowledgeConfig `json:"knowledge"`
	Channels  ChannelsConfig  `json:"channels"`
	History   HistoryConfig   `json:"history"`
	Metrics   MetricsConfig   `json:"metrics"`
}

type GeneralConfig struct {
	LogLevel    string   `json:"logLevel"`
	LogFile     string   `json:"logFile,omitempty"`
	ProfilePath string   `json:"profilePath,omitempty"` // business profile YAML; empty = built-in defaults
	IntentCues  []string `json:"intentCues,omitempty"`  // empty = canonical cues
}

// LLMConfig points the conversation engine at an OpenAI-compatible API.
type LLMConfig struct {
	APIKey         string `json:"apiKey"`
	APIBase        string `json:"apiBase,omitempty"`
	Model          string `json:"model,omitempty"`
	TimeoutSeconds int    `json:"timeoutSeconds,omitempty"`
}

// SpeechConfig configures the transcription and synthesis backends. Base URL
// overrides point either capability at a self-hosted proxy; the API key
// falls back to the LLM key when unset.
type SpeechConfig struct {
	APIKey          string `json:"apiKey,omitempty"`
	TranscribeBase  string `json:"transcribeBase,omitempty"`
	SynthesizeBase  string `json:"synthesizeBase,omitempty"`
	TranscribeModel string `json:"transcribeModel,omitempty"`
	SynthesizeModel string `json:"synthesizeModel,omitempty"`
	Voice           string `json:"voice,omitempty"`
	Language        string `json:"language,omitempty"`
	TimeoutSeconds  int    `json:"timeoutSeconds,omitempty"`
}

type CalendarConfig struct {
	CredentialsFile string `json:"credentialsFile"`
	CalendarID      string `json:"calendarId,omitempty"`
}

type KnowledgeConfig struct {
	Path string `json:"path"`
}

type ChannelsConfig struct {
	Gateway  GatewayConfig  `json:"gateway"`
	Telegram TelegramConfig `json:"telegram"`
	CLI      CLIConfig      `json:"cli"`
}

// GatewayConfig is the HTTP server hosting the chat, SMS, and voice
// webhooks plus the static audio directory.
type GatewayConfig struct {
	Host          string `json:"host"`
	Port          int    `json:"port"`
	PublicBaseURL string `json:"publicBaseUrl,omitempty"` // absolute base for audio playback URLs
	StaticDir     string `json:"staticDir"`
	ArtifactTTL   int    `json:"artifactTtlMinutes,omitempty"` // prune synthesized audio after this many minutes
}

type TelegramConfig struct {
	Enabled bool   `json:"enabled"`
	Token   string `json:"token,omitempty"`
}

type CLIConfig struct {
	Enabled bool `json:"enabled"`
}

type HistoryConfig struct {
	Enabled bool   `json:"enabled"`
	DBPath  string `json:"dbPath,omitempty"`
}

// MetricsConfig toggles the /metrics endpoint on the gateway.
type MetricsConfig struct {
	Enabled bool `json:"enabled"`
}

// DefaultConfigDir returns ~/.receptionist.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".receptionist"
	}
	return filepath.Join(home, ".receptionist")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

// Load reads, env-expands, and validates the config file at path. Values the
// file omits keep their defaults.
func Load(path string) (*Config, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	data = []byte(ExpandEnvVars(string(data)))

	cfg := Defaults()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}

	cfg.History.DBPath = expandPath(cfg.History.DBPath)
	cfg.General.LogFile = expandPath(cfg.General.LogFile)
	cfg.Knowledge.Path = expandPath(cfg.Knowledge.Path)
	cfg.Calendar.CredentialsFile = expandPath(cfg.Calendar.CredentialsFile)
	cfg.Channels.Gateway.StaticDir = expandPath(cfg.Channels.Gateway.StaticDir)
	cfg.General.ProfilePath = expandPath(cfg.General.ProfilePath)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// Save writes the config as indented JSON.
func Save(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}

// envVarPattern matches ${VAR} and ${VAR:-default}.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment value, using the
// ${VAR:-default} fallback when the variable is unset or empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		if val := os.Getenv(groups[1]); val != "" {
			return val
		}
		if len(groups) >= 3 {
			return groups[2]
		}
		return ""
	})
}

// expandPath resolves a leading ~/ to the user's home directory.
func expandPath(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// Validate rejects configurations the service cannot start with.
func Validate(cfg *Config) error {
	switch cfg.General.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logLevel %q (debug|info|warn|error)", cfg.General.LogLevel)
	}

	port := cfg.Channels.Gateway.Port
	if port < 1 || port > 65535 {
		return fmt.Errorf("invalid gateway port %d", port)
	}

	if cfg.Knowledge.Path == "" {
		return fmt.Errorf("knowledge.path is required")
	}
	if cfg.Channels.Gateway.StaticDir == "" {
		return fmt.Errorf("channels.gateway.staticDir is required")
	}
	if cfg.Channels.Telegram.Enabled && cfg.Channels.Telegram.Token == "" {
		return fmt.Errorf("channels.telegram.token is required when telegram is enabled")
	}
	if cfg.History.Enabled && cfg.History.DBPath == "" {
		return fmt.Errorf("history.dbPath is required when history is enabled")
	}
	if cfg.Channels.Gateway.ArtifactTTL < 0 {
		return fmt.Errorf("artifactTtlMinutes must not be negative")
	}
	return nil
}
