package main

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"receptionist/internal/config"
	"receptionist/internal/knowledge"
	"receptionist/internal/provider"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run diagnostic checks on the installation",
		Long: `Verifies that the configuration, knowledge base, chat API, calendar
credentials, and history database are correctly set up. Reports pass/fail
for each check.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			fmt.Printf("Receptionist Doctor v%s\n", version)
			fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

			passed := 0
			failed := 0
			warned := 0

			// 1. Config file exists
			if _, err := os.Stat(cfgPath); err != nil {
				printFail("Config file", fmt.Sprintf("not found at %s", cfgPath))
				fmt.Printf("\nRun 'receptionist init' to create a default configuration.\n")
				return nil
			}
			printPass("Config file", cfgPath)
			passed++

			// 2. Config loads and validates
			cfg, err := config.Load(cfgPath)
			if err != nil {
				printFail("Config validation", err.Error())
				fmt.Printf("\n%d passed, 1 failed\n", passed)
				return nil
			}
			printPass("Config validation", "valid")
			passed++

			// 3. Knowledge base readable
			if kb, err := knowledge.Load(cfg.Knowledge.Path); err != nil {
				printFail("Knowledge base", err.Error())
				failed++
			} else if kb.Empty() {
				printWarn("Knowledge base", fmt.Sprintf("%s is empty", cfg.Knowledge.Path))
				warned++
			} else {
				printPass("Knowledge base", fmt.Sprintf("%s (%d bytes)", cfg.Knowledge.Path, len(kb.Text())))
				passed++
			}

			// 4. Chat API reachable
			if cfg.LLM.APIKey == "" {
				printFail("Chat API", "no API key configured")
				failed++
			} else {
				client := provider.NewChatClient(provider.ChatConfig{
					APIKey:  cfg.LLM.APIKey,
					APIBase: cfg.LLM.APIBase,
					Model:   cfg.LLM.Model,
					Timeout: 10 * time.Second,
					Logger:  logger,
				})
				ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
				if err := client.Healthy(ctx); err != nil {
					printFail("Chat API", err.Error())
					failed++
				} else {
					printPass("Chat API", "reachable")
					passed++
				}
				cancel()
			}

			// 5. Calendar credentials
			if cfg.Calendar.CredentialsFile == "" {
				printWarn("Calendar", "no credentials file, booking disabled")
				warned++
			} else if _, err := os.Stat(cfg.Calendar.CredentialsFile); err != nil {
				printFail("Calendar", fmt.Sprintf("credentials file not found: %s", cfg.Calendar.CredentialsFile))
				failed++
			} else {
				printPass("Calendar", cfg.Calendar.CredentialsFile)
				passed++
			}

			// 6. History database writable
			if cfg.History.Enabled {
				if err := checkDatabase(cfg.History.DBPath); err != nil {
					printFail("History database", err.Error())
					failed++
				} else {
					printPass("History database", cfg.History.DBPath)
					passed++
				}
			}

			// 7. Gateway port free
			if err := checkPort(cfg.Channels.Gateway.Port); err != nil {
				printWarn("Gateway port", fmt.Sprintf("port %d may be in use: %v", cfg.Channels.Gateway.Port, err))
				warned++
			} else {
				printPass("Gateway port", fmt.Sprintf(":%d available", cfg.Channels.Gateway.Port))
				passed++
			}

			// 8. Static directory writable
			if err := os.MkdirAll(cfg.Channels.Gateway.StaticDir, 0o755); err != nil {
				printFail("Static dir", err.Error())
				failed++
			} else {
				printPass("Static dir", cfg.Channels.Gateway.StaticDir)
				passed++
			}

			// 9. Telegram token present when enabled
			if cfg.Channels.Telegram.Enabled {
				if cfg.Channels.Telegram.Token == "" {
					printFail("Telegram", "enabled but no token configured")
					failed++
				} else {
					printPass("Telegram", "token configured")
					passed++
				}
			}

			fmt.Printf("\n━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
			fmt.Printf("Results: %d passed, %d warnings, %d failed\n", passed, warned, failed)
			if failed > 0 {
				fmt.Printf("\nPlease fix the failed checks before serving traffic.\n")
				return fmt.Errorf("%d check(s) failed", failed)
			}
			if warned > 0 {
				fmt.Printf("\nThe receptionist should work but consider fixing the warnings.\n")
			} else {
				fmt.Printf("\nAll checks passed!\n")
			}
			return nil
		},
	}
}

func checkDatabase(dbPath string) error {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("cannot create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return fmt.Errorf("cannot open: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("cannot ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS _doctor_test (id INTEGER PRIMARY KEY)"); err != nil {
		return fmt.Errorf("not writable: %w", err)
	}
	db.ExecContext(ctx, "DROP TABLE IF EXISTS _doctor_test")
	return nil
}

func checkPort(port int) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return err
	}
	ln.Close()
	return nil
}

func printPass(check, detail string) {
	fmt.Printf("  [PASS] %-20s %s\n", check, detail)
}

func printFail(check, detail string) {
	fmt.Printf("  [FAIL] %-20s %s\n", check, detail)
}

func printWarn(check, detail string) {
	fmt.Printf("  [WARN] %-20s %s\n", check, detail)
}
