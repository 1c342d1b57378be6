package config

import (
	"os"
	"path/filepath"
	"strconv"
)

// Defaults builds a runnable configuration from the environment alone, so
// the service can start without a config file during development.
func Defaults() *Config {
	port := 5000
	if v, err := strconv.Atoi(os.Getenv("PORT")); err == nil && v > 0 {
		port = v
	}

	dir := DefaultConfigDir()

	return &Config{
		General: GeneralConfig{
			LogLevel: "info",
		},
		LLM: LLMConfig{
			APIKey:         os.Getenv("OPENAI_API_KEY"),
			Model:          "gpt-4o-mini",
			TimeoutSeconds: 60,
		},
		Speech: SpeechConfig{
			TranscribeModel: "whisper-1",
			SynthesizeModel: "tts-1",
			Voice:           "alloy",
			TimeoutSeconds:  120,
		},
		Calendar: CalendarConfig{
			CredentialsFile: os.Getenv("GOOGLE_CREDENTIALS_PATH"),
			CalendarID:      "primary",
		},
		Knowledge: KnowledgeConfig{
			Path: "knowledge.txt",
		},
		Channels: ChannelsConfig{
			Gateway: GatewayConfig{
				Host:        "0.0.0.0",
				Port:        port,
				StaticDir:   "static",
				ArtifactTTL: 60,
			},
			Telegram: TelegramConfig{
				Token: os.Getenv("TELEGRAM_TOKEN"),
			},
		},
		History: HistoryConfig{
			Enabled: true,
			DBPath:  filepath.Join(dir, "history.db"),
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}
