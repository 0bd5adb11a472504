package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Config is the root configuration for the gemini-mcp server.
type Config struct {
	General   GeneralConfig   `json:"general"`
	Gemini    GeminiConfig    `json:"gemini"`
	Templates TemplatesConfig `json:"templates"`
	History   HistoryConfig   `json:"history"`
}

type GeneralConfig struct {
	LogLevel string `json:"logLevel"`
	LogFile  string `json:"logFile,omitempty"` // optional log file path (stderr when empty)
}

// GeminiConfig controls how the Gemini CLI is located and invoked.
type GeminiConfig struct {
	Binary         string            `json:"binary"`                   // program name or absolute path
	Model          string            `json:"model,omitempty"`          // passed as -m when set
	ExtraArgs      FlexStringList    `json:"extraArgs,omitempty"`      // inserted before -p on every run
	Env            map[string]string `json:"env,omitempty"`            // extra environment for the spawned process
	TimeoutSeconds int               `json:"timeoutSeconds"`           // 0 disables the per-run deadline
	WorkingDir     string            `json:"workingDir,omitempty"`     // default working directory for runs
}

// TemplatesConfig points at an optional YAML file overriding the built-in
// audit and analysis prompt templates.
type TemplatesConfig struct {
	Path string `json:"path,omitempty"`
}

// HistoryConfig controls the local invocation log.
type HistoryConfig struct {
	Enabled       bool   `json:"enabled"`
	DBPath        string `json:"dbPath"`
	RetentionDays int    `json:"retentionDays"` // 0 keeps records forever
}

// FlexStringList is a []string that can unmarshal from JSON arrays containing
// both strings and numbers (e.g. ["--debug", 1] both become "--debug", "1").
type FlexStringList []string

func (f *FlexStringList) UnmarshalJSON(data []byte) error {
	// Try []string first
	var ss []string
	if err := json.Unmarshal(data, &ss); err == nil {
		*f = ss
		return nil
	}
	// Fallback: array of mixed types
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	result := make([]string, 0, len(raw))
	for _, item := range raw {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			result = append(result, s)
			continue
		}
		var n float64
		if err := json.Unmarshal(item, &n); err == nil {
			result = append(result, strconv.FormatInt(int64(n), 10))
			continue
		}
		result = append(result, string(item))
	}
	*f = result
	return nil
}

// DefaultConfigDir returns the default config directory (~/.gemini-mcp).
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".gemini-mcp"
	}
	return filepath.Join(home, ".gemini-mcp")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

func Load(path string) (*Config, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot resolve home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	// Substitute environment variables: ${VAR} and ${VAR:-default}
	data = []byte(ExpandEnvVars(string(data)))

	cfg := Defaults()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	cfg.General.LogFile = ExpandPath(cfg.General.LogFile)
	cfg.Gemini.WorkingDir = ExpandPath(cfg.Gemini.WorkingDir)
	cfg.Templates.Path = ExpandPath(cfg.Templates.Path)
	cfg.History.DBPath = ExpandPath(cfg.History.DBPath)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// Supports default values: ${VAR:-default} uses "default" when VAR is unset or empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultVal := ""
		hasDefault := len(groups) >= 3 && groups[2] != ""
		if hasDefault {
			defaultVal = groups[2]
		}

		val, exists := os.LookupEnv(varName)
		if !exists || val == "" {
			if hasDefault {
				return defaultVal
			}
			return match // Keep original if no env var and no default
		}
		return val
	})
}

func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// Validate checks that the config has valid values.
func Validate(cfg *Config) error {
	var errs []string

	switch cfg.General.LogLevel {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		errs = append(errs, "general.logLevel must be one of: debug, info, warn, error")
	}

	if strings.TrimSpace(cfg.Gemini.Binary) == "" {
		errs = append(errs, "gemini.binary must not be empty")
	}
	if cfg.Gemini.TimeoutSeconds < 0 {
		errs = append(errs, "gemini.timeoutSeconds must be >= 0 (0 disables the deadline)")
	}
	for _, arg := range cfg.Gemini.ExtraArgs {
		if strings.TrimSpace(arg) == "" {
			errs = append(errs, "gemini.extraArgs must not contain empty entries")
			break
		}
	}

	if cfg.History.Enabled && cfg.History.DBPath == "" {
		errs = append(errs, "history.dbPath is required when history is enabled")
	}
	if cfg.History.RetentionDays < 0 {
		errs = append(errs, "history.retentionDays must be >= 0 (0 keeps records forever)")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ExpandPath resolves ~/ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
