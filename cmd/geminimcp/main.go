package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"geminimcp/internal/config"
	"geminimcp/internal/domain"
	"geminimcp/internal/gemini"
	"geminimcp/internal/history"
	"geminimcp/internal/prompt"
	"geminimcp/internal/server"
	"geminimcp/internal/tool"

	"github.com/spf13/cobra"
)

var (
	version    = "1.0.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
)

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:   "gemini-mcp",
		Short: "MCP server exposing Gemini CLI codebase analysis tools",
		Long:  "gemini-mcp bridges MCP clients to the Gemini CLI: structured tool calls become supervised gemini runs with @-annotated paths and captured output.",
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.json (default: ~/.gemini-mcp/config.json)")

	root.AddCommand(initCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(doctorCmd())
	root.AddCommand(toolsCmd())
	root.AddCommand(promptsCmd())
	root.AddCommand(historyCmd())
	root.AddCommand(configCmd())
	root.AddCommand(installCmd())
	root.AddCommand(uninstallCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			if _, err := os.Stat(cfgPath); err == nil {
				return fmt.Errorf("config already exists at %s", cfgPath)
			}
			if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
				return err
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

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve MCP over stdio",
		Long:  "Starts the MCP server on stdin/stdout. Stdout carries only protocol frames; all logs go to stderr or the configured log file. This is the command MCP clients spawn.",
		RunE:  runServe,
	}
}

// resolveConfigPath returns the config path from --config flag or default.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

func runServe(cmd *cobra.Command, args []string) error {
	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Warn("config not found, using defaults", "path", cfgPath, "err", err)
		cfg = config.Defaults()
	}

	logger = buildLogger(cfg)

	// Graceful shutdown on signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	audit := tool.BuiltinAuditTemplates()
	analysis := tool.BuiltinAnalysisTemplates()
	if err := tool.LoadOverrides(cfg.Templates.Path, audit, analysis, logger); err != nil {
		return err
	}

	var recorder domain.InvocationRecorder
	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.DBPath, history.Options{
			RetentionDays: cfg.History.RetentionDays,
			Logger:        logger,
		})
		if err != nil {
			logger.Warn("invocation history disabled", "path", cfg.History.DBPath, "err", err)
		} else {
			defer store.Close()
			recorder = store
		}
	}

	runner := gemini.NewRunner(gemini.Config{
		TimeoutSeconds: cfg.Gemini.TimeoutSeconds,
		WorkingDir:     cfg.Gemini.WorkingDir,
		Env:            cfg.Gemini.Env,
		Logger:         logger,
	})

	registry := tool.NewRegistry(runner, tool.Options{
		Binary:    cfg.Gemini.Binary,
		ExtraArgs: geminiExtraArgs(cfg),
		Audit:     audit,
		Analysis:  analysis,
		Recorder:  recorder,
		Logger:    logger,
	})
	catalog := prompt.NewCatalog(logger)

	srv := server.New(registry, catalog, server.Options{Version: version, Logger: logger})
	logger.Info("serving MCP over stdio", "tools", len(registry.Names()), "binary", cfg.Gemini.Binary)
	return srv.ServeStdio(ctx)
}

// geminiExtraArgs assembles the arguments inserted between the binary and -p:
// the model selector first, then any user-configured extras.
func geminiExtraArgs(cfg *config.Config) []string {
	var extra []string
	if cfg.Gemini.Model != "" {
		extra = append(extra, "-m", cfg.Gemini.Model)
	}
	return append(extra, cfg.Gemini.ExtraArgs...)
}

// buildLogger creates the process logger. Stdout belongs to the MCP transport,
// so logs go to stderr or the configured log file.
func buildLogger(cfg *config.Config) *slog.Logger {
	var w io.Writer = os.Stderr
	if cfg.General.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.General.LogFile), 0o755); err != nil {
			logger.Warn("cannot create log directory, using stderr", "path", cfg.General.LogFile, "err", err)
		} else if f, err := os.OpenFile(cfg.General.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err != nil {
			logger.Warn("cannot open log file, using stderr", "path", cfg.General.LogFile, "err", err)
		} else {
			w = f
		}
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel(cfg.General.LogLevel)}))
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// loadOrDefaults loads the config file, falling back to defaults so read-only
// commands work on a fresh machine.
func loadOrDefaults() *config.Config {
	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Debug("using default config", "path", cfgPath, "err", err)
		return config.Defaults()
	}
	return cfg
}

func toolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the MCP tools this server exposes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadOrDefaults()
			audit := tool.BuiltinAuditTemplates()
			analysis := tool.BuiltinAnalysisTemplates()
			if err := tool.LoadOverrides(cfg.Templates.Path, audit, analysis, logger); err != nil {
				return err
			}
			// nil runner: listing never dispatches.
			registry := tool.NewRegistry(nil, tool.Options{Audit: audit, Analysis: analysis, Logger: logger})
			for _, def := range registry.Definitions() {
				fmt.Println(def.Name)
				fmt.Printf("  %s\n", def.Description)
				for _, a := range def.Arguments {
					req := "optional"
					if a.Required {
						req = "required"
					}
					line := fmt.Sprintf("    %-20s %-6s %-8s %s", a.Name, a.Type, req, a.Description)
					if len(a.Enum) > 0 {
						line += fmt.Sprintf(" (one of: %s)", strings.Join(a.Enum, ", "))
					}
					fmt.Println(line)
				}
				fmt.Println()
			}
			return nil
		},
	}
}

func promptsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prompts",
		Short: "List the MCP prompts this server exposes",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog := prompt.NewCatalog(logger)
			for _, def := range catalog.Definitions() {
				fmt.Println(def.Name)
				fmt.Printf("  %s\n", def.Description)
				for _, a := range def.Arguments {
					req := "optional"
					if a.Required {
						req = "required"
					}
					fmt.Printf("    %-20s %-8s %s\n", a.Name, req, a.Description)
				}
				fmt.Println()
			}
			return nil
		},
	}
}

func historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent tool invocations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadOrDefaults()
			if !cfg.History.Enabled {
				fmt.Println("History is disabled. Enable it with: gemini-mcp config set history.enabled true")
				return nil
			}
			store, err := history.Open(cfg.History.DBPath, history.Options{
				RetentionDays: cfg.History.RetentionDays,
				Logger:        logger,
			})
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			records, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Println("No invocations recorded yet.")
				return nil
			}
			for _, rec := range records {
				status := "ok"
				if rec.ExitCode != 0 {
					status = fmt.Sprintf("exit %d", rec.ExitCode)
				}
				fmt.Printf("%s  %-30s %-8s %8s  %s\n",
					rec.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					rec.Tool,
					status,
					rec.Duration.Round(time.Millisecond),
					firstLine(rec.Prompt),
				)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of records to show")
	return cmd
}

// firstLine trims a prompt to a single short line for table display.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 60 {
		s = s[:60] + "..."
	}
	return s
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the gemini-mcp version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("gemini-mcp v%s\n", version)
		},
	}
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and modify configuration",
		Long:  "Get, set, and list configuration values. Changes are saved to the config file.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get [path]",
		Short: "Get a config value (e.g. gemini.binary)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			val, err := config.GetByPath(cfg, args[0])
			if err != nil {
				return err
			}
			data, _ := json.MarshalIndent(val, "", "  ")
			fmt.Println(string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set [path] [value]",
		Short: "Set a config value (e.g. gemini.model gemini-2.5-pro)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := config.SetByPath(cfg, args[0], args[1]); err != nil {
				return fmt.Errorf("set value: %w", err)
			}
			if err := config.Save(cfgPath, cfg); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			logger.Info("config updated", "path", args[0], "value", args[1], "file", cfgPath)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all config values",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			sanitized := config.Sanitize(cfg)
			data, _ := json.MarshalIndent(sanitized, "", "  ")
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
