package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"receptionist/internal/audio"
	"receptionist/internal/business"
	"receptionist/internal/calendar"
	"receptionist/internal/channel"
	"receptionist/internal/config"
	"receptionist/internal/domain"
	"receptionist/internal/engine"
	"receptionist/internal/history"
	"receptionist/internal/intent"
	"receptionist/internal/knowledge"
	"receptionist/internal/metrics"
	"receptionist/internal/provider"
	"receptionist/internal/schedule"
	"receptionist/internal/speech"
)

var (
	version    = "0.1.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
)

func main() {
	// .env is optional; environment wins when both set a variable.
	_ = godotenv.Load()

	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:   "receptionist",
		Short: "AI receptionist for small businesses",
		Long:  "Answers customer questions from a knowledge base and books calendar appointments, over chat, SMS, voice, and Telegram.",
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.json (default: ~/.receptionist/config.json)")

	root.AddCommand(initCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(chatCmd())
	root.AddCommand(doctorCmd())
	root.AddCommand(historyCmd())
	root.AddCommand(configCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfigPath returns the config path from --config flag or default.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

func loadConfig() *config.Config {
	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Warn("config not found, using defaults", "path", cfgPath, "err", err)
		return config.Defaults()
	}
	return cfg
}

func setupLogger(cfg *config.Config) error {
	var level slog.Level
	switch cfg.General.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var out io.Writer = os.Stderr
	if cfg.General.LogFile != "" {
		f, err := os.OpenFile(cfg.General.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		out = f
	}
	logger = slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
	return nil
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			if _, err := os.Stat(cfgPath); err == nil {
				return fmt.Errorf("config already exists at %s", cfgPath)
			}
			cfg := config.Defaults()
			if err := config.Save(cfgPath, cfg); err != nil {
				return err
			}
			logger.Info("initialized", "config", cfgPath)
			return nil
		},
	}
}

// runtime bundles everything the channels share.
type runtime struct {
	cfg     *config.Config
	profile *business.Profile
	engine  *engine.Engine
	speech  *speech.Bridge
	store   *history.Store // nil when history disabled
	metrics *metrics.Collector
}

func (rt *runtime) Close() {
	if rt.store != nil {
		rt.store.Close()
	}
}

// buildRuntime wires the engine and its dependencies from config. The
// calendar client is optional: without credentials, appointment requests get
// the fallback reply instead of a booking.
func buildRuntime(ctx context.Context, cfg *config.Config) (*runtime, error) {
	profile := business.DefaultProfile()
	if cfg.General.ProfilePath != "" {
		var err error
		profile, err = business.LoadProfile(cfg.General.ProfilePath)
		if err != nil {
			return nil, fmt.Errorf("load business profile: %w", err)
		}
	}

	kb, err := knowledge.Load(cfg.Knowledge.Path)
	if err != nil {
		return nil, fmt.Errorf("load knowledge base: %w", err)
	}
	if kb.Empty() {
		logger.Warn("knowledge base is empty", "path", cfg.Knowledge.Path)
	}

	completer := provider.NewChatClient(provider.ChatConfig{
		APIKey:  cfg.LLM.APIKey,
		APIBase: cfg.LLM.APIBase,
		Model:   cfg.LLM.Model,
		Timeout: time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
		Logger:  logger,
	})

	var booker domain.CalendarBooker
	if cfg.Calendar.CredentialsFile != "" {
		booker, err = calendar.NewGoogleBooker(ctx, calendar.GoogleConfig{
			CredentialsFile: cfg.Calendar.CredentialsFile,
			CalendarID:      cfg.Calendar.CalendarID,
			Logger:          logger,
		})
		if err != nil {
			return nil, fmt.Errorf("calendar client: %w", err)
		}
	} else {
		logger.Warn("calendar credentials not configured, appointment booking disabled")
	}

	var store *history.Store
	if cfg.History.Enabled {
		store, err = history.NewStore(cfg.History.DBPath, logger)
		if err != nil {
			return nil, fmt.Errorf("history store: %w", err)
		}
	}

	collector := metrics.NewCollector()

	var recorder engine.Recorder
	if store != nil {
		recorder = store
	}
	eng := engine.New(engine.Config{
		Classifier: intent.New(cfg.General.IntentCues),
		Parser:     schedule.NewParser(profile.Location(), profile.SlotDuration()),
		Booker:     booker,
		Completer:  completer,
		Knowledge:  kb,
		Profile:    profile,
		Recorder:   recorder,
		Metrics:    collector,
		Logger:     logger,
	})

	var bridge *speech.Bridge
	speechKey := cfg.Speech.APIKey
	if speechKey == "" {
		speechKey = cfg.LLM.APIKey
	}
	if speechKey != "" {
		artifacts, err := audio.NewStore(cfg.Channels.Gateway.StaticDir, "/static")
		if err != nil {
			return nil, fmt.Errorf("audio store: %w", err)
		}
		bridge = speech.NewBridge(speech.Config{
			Transcriber: provider.NewWhisperClient(provider.WhisperConfig{
				APIKey:   speechKey,
				APIBase:  cfg.Speech.TranscribeBase,
				Model:    cfg.Speech.TranscribeModel,
				Language: cfg.Speech.Language,
				Timeout:  time.Duration(cfg.Speech.TimeoutSeconds) * time.Second,
				Logger:   logger,
			}),
			Synthesizer: provider.NewTTSClient(provider.TTSConfig{
				APIKey:  speechKey,
				APIBase: cfg.Speech.SynthesizeBase,
				Model:   cfg.Speech.SynthesizeModel,
				Voice:   cfg.Speech.Voice,
				Timeout: time.Duration(cfg.Speech.TimeoutSeconds) * time.Second,
				Logger:  logger,
			}),
			Artifacts: artifacts,
			Logger:    logger,
		})
	}

	return &runtime{
		cfg:     cfg,
		profile: profile,
		engine:  eng,
		speech:  bridge,
		store:   store,
		metrics: collector,
	}, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP gateway and enabled channels",
		Long:  "Starts the chat/SMS/voice webhooks and, when enabled, the Telegram poller. Press Ctrl+C to stop.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			if err := setupLogger(cfg); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt, err := buildRuntime(ctx, cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			var metricsHandler http.Handler
			if cfg.Metrics.Enabled {
				metricsHandler = rt.metrics.Handler()
			}

			gw := channel.NewGateway(channel.GatewayConfig{
				Host:          cfg.Channels.Gateway.Host,
				Port:          cfg.Channels.Gateway.Port,
				PublicBaseURL: cfg.Channels.Gateway.PublicBaseURL,
				StaticDir:     cfg.Channels.Gateway.StaticDir,
				ArtifactTTL:   time.Duration(cfg.Channels.Gateway.ArtifactTTL) * time.Minute,
				Handler:       rt.engine,
				Speech:        rt.speech,
				Profile:       rt.profile,
				Metrics:       metricsHandler,
				Logger:        logger,
			})

			if cfg.Channels.Telegram.Enabled {
				tg := channel.NewTelegram(channel.TelegramChannelConfig{
					Token:   cfg.Channels.Telegram.Token,
					Handler: rt.engine,
					Profile: rt.profile,
					Logger:  logger,
				})
				go func() {
					if err := tg.Start(ctx); err != nil {
						logger.Error("telegram channel error", "err", err)
					}
				}()
				logger.Info("telegram channel enabled")
			}

			return gw.Start(ctx)
		},
	}
}

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Talk to the receptionist in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			if err := setupLogger(cfg); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt, err := buildRuntime(ctx, cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			cli := channel.NewCLI(channel.CLISessionConfig{
				Handler: rt.engine,
				Profile: rt.profile,
				Logger:  logger,
			})
			return cli.Start(ctx)
		},
	}
}

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect stored conversations and bookings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "recent",
		Short: "Show the most recent exchanges",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			if !cfg.History.Enabled {
				return fmt.Errorf("history is disabled in config")
			}
			store, err := history.NewStore(cfg.History.DBPath, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			exchanges, err := store.RecentExchanges(cmd.Context(), 20)
			if err != nil {
				return err
			}
			for _, ex := range exchanges {
				fmt.Printf("[%s] %s %s: %q -> %q\n",
					ex.CreatedAt.Format(time.RFC3339), ex.Channel, ex.Intent, ex.Inbound, ex.Reply)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "bookings",
		Short: "Show upcoming bookings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			if !cfg.History.Enabled {
				return fmt.Errorf("history is disabled in config")
			}
			store, err := history.NewStore(cfg.History.DBPath, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			bookings, err := store.UpcomingBookings(cmd.Context(), 20)
			if err != nil {
				return err
			}
			for _, b := range bookings {
				fmt.Printf("%s  %s -> %s  %q\n",
					b.EventID, b.StartAt.Format(time.RFC3339), b.EndAt.Format(time.RFC3339), b.RawText)
			}
			return nil
		},
	})

	return cmd
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective config (secrets redacted)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			redacted := *cfg
			if redacted.LLM.APIKey != "" {
				redacted.LLM.APIKey = "***"
			}
			if redacted.Speech.APIKey != "" {
				redacted.Speech.APIKey = "***"
			}
			if redacted.Channels.Telegram.Token != "" {
				redacted.Channels.Telegram.Token = "***"
			}
			data, _ := json.MarshalIndent(redacted, "", "  ")
			fmt.Println(string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show config file path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(resolveConfigPath())
		},
	})

	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("receptionist", version)
		},
	}
}
