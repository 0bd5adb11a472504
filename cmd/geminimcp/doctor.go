package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"geminimcp/internal/config"
	"geminimcp/internal/tool"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run diagnostic checks on your gemini-mcp installation",
		Long: `Verifies that the configuration, the Gemini CLI, prompt template overrides,
and the history database are correctly set up. Reports pass/fail for each check.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			fmt.Printf("gemini-mcp Doctor v%s\n", version)
			fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

			passed := 0
			failed := 0
			warned := 0

			// 1. Config file exists
			if _, err := os.Stat(cfgPath); err != nil {
				printFail("Config file", fmt.Sprintf("not found at %s", cfgPath))
				failed++
				fmt.Printf("\nRun 'gemini-mcp init' to create a default configuration.\n")
				return nil
			}
			printPass("Config file", cfgPath)
			passed++

			// 2. Config loads and validates
			cfg, err := config.Load(cfgPath)
			if err != nil {
				printFail("Config validation", err.Error())
				failed++
			} else {
				printPass("Config validation", "valid")
				passed++
			}

			if cfg == nil {
				fmt.Printf("\n%d passed, %d failed\n", passed, failed)
				return nil
			}

			// 3. Gemini CLI on the search path
			if binPath, err := exec.LookPath(cfg.Gemini.Binary); err != nil {
				printFail("Gemini CLI", fmt.Sprintf("%q not found on PATH", cfg.Gemini.Binary))
				failed++
			} else {
				printPass("Gemini CLI", binPath)
				passed++

				if out, err := probeVersion(cfg.Gemini.Binary); err != nil {
					printWarn("Gemini CLI probe", fmt.Sprintf("'%s --version' failed: %v", cfg.Gemini.Binary, err))
					warned++
				} else {
					printPass("Gemini CLI probe", out)
					passed++
				}
			}

			// 4. Template overrides parse
			if cfg.Templates.Path == "" {
				printPass("Templates", "built-in only")
				passed++
			} else if _, err := os.Stat(cfg.Templates.Path); err != nil {
				printWarn("Templates", fmt.Sprintf("no override file at %s (using built-ins)", cfg.Templates.Path))
				warned++
			} else {
				quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
				if err := tool.LoadOverrides(cfg.Templates.Path, tool.BuiltinAuditTemplates(), tool.BuiltinAnalysisTemplates(), quiet); err != nil {
					printFail("Templates", err.Error())
					failed++
				} else {
					printPass("Templates", cfg.Templates.Path)
					passed++
				}
			}

			// 5. History database writable
			if !cfg.History.Enabled {
				printWarn("History", "disabled in config")
				warned++
			} else if err := checkDatabase(cfg.History.DBPath); err != nil {
				printFail("History", err.Error())
				failed++
			} else {
				printPass("History", cfg.History.DBPath)
				passed++
			}

			// 6. Working directory override exists
			if cfg.Gemini.WorkingDir != "" {
				if info, err := os.Stat(cfg.Gemini.WorkingDir); err != nil {
					printFail("Working directory", fmt.Sprintf("not found: %s", cfg.Gemini.WorkingDir))
					failed++
				} else if !info.IsDir() {
					printFail("Working directory", fmt.Sprintf("not a directory: %s", cfg.Gemini.WorkingDir))
					failed++
				} else {
					printPass("Working directory", cfg.Gemini.WorkingDir)
					passed++
				}
			}

			// 7. Log file writable
			if cfg.General.LogFile != "" {
				if err := os.MkdirAll(filepath.Dir(cfg.General.LogFile), 0o755); err != nil {
					printWarn("Log file", fmt.Sprintf("cannot create log directory: %v", err))
					warned++
				} else {
					printPass("Log file", cfg.General.LogFile)
					passed++
				}
			}

			// Summary
			fmt.Printf("\n━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
			fmt.Printf("Results: %d passed, %d warnings, %d failed\n", passed, warned, failed)
			if failed > 0 {
				fmt.Printf("\nPlease fix the failed checks before running gemini-mcp.\n")
				return fmt.Errorf("%d check(s) failed", failed)
			}
			if warned > 0 {
				fmt.Printf("\ngemini-mcp should work but consider fixing the warnings.\n")
			} else {
				fmt.Printf("\nAll checks passed! gemini-mcp is ready to serve.\n")
			}
			return nil
		},
	}
}

// probeVersion runs `<binary> --version` with a short deadline to prove the
// CLI actually executes, not just that it exists on the search path.
func probeVersion(binary string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, binary, "--version").Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
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

	// Try a write.
	if _, err := db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS _doctor_test (id INTEGER PRIMARY KEY)"); err != nil {
		return fmt.Errorf("not writable: %w", err)
	}
	db.ExecContext(ctx, "DROP TABLE IF EXISTS _doctor_test")

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
