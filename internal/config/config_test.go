package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// --- Validate ---

func TestValidate_ValidConfig(t *testing.T) {
	cfg := Defaults()
	if err := Validate(cfg); err != nil {
		t.Fatalf("expected valid config, got: %v", err)
	}
}

func TestValidate_EmptyBinary(t *testing.T) {
	cfg := Defaults()
	cfg.Gemini.Binary = ""
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for empty gemini.binary")
	}

	cfg.Gemini.Binary = "   "
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for blank gemini.binary")
	}
}

func TestValidate_NegativeTimeout(t *testing.T) {
	cfg := Defaults()
	cfg.Gemini.TimeoutSeconds = -1
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for negative timeout")
	}
}

func TestValidate_ZeroTimeout_DisablesDeadline(t *testing.T) {
	cfg := Defaults()
	cfg.Gemini.TimeoutSeconds = 0
	if err := Validate(cfg); err != nil {
		t.Fatalf("timeoutSeconds=0 should be valid: %v", err)
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := Defaults()
	cfg.General.LogLevel = "verbose"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for invalid log level")
	}
}

func TestValidate_ValidLogLevels(t *testing.T) {
	for _, level := range []string{"", "debug", "info", "warn", "error"} {
		cfg := Defaults()
		cfg.General.LogLevel = level
		if err := Validate(cfg); err != nil {
			t.Fatalf("log level %q should be valid: %v", level, err)
		}
	}
}

func TestValidate_EmptyExtraArg(t *testing.T) {
	cfg := Defaults()
	cfg.Gemini.ExtraArgs = FlexStringList{"--debug", " "}
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for blank extraArgs entry")
	}
}

func TestValidate_HistoryEnabledWithoutPath(t *testing.T) {
	cfg := Defaults()
	cfg.History.Enabled = true
	cfg.History.DBPath = ""
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for enabled history without dbPath")
	}
}

func TestValidate_NegativeRetention(t *testing.T) {
	cfg := Defaults()
	cfg.History.RetentionDays = -1
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for negative retentionDays")
	}
}

// --- Load / Save ---

func TestLoadSave_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	original := Defaults()
	original.Gemini.Binary = "gemini-test"

	if err := Save(path, original); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if loaded.Gemini.Binary != "gemini-test" {
		t.Fatalf("expected 'gemini-test', got %q", loaded.Gemini.Binary)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.json")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	os.WriteFile(path, []byte("{not json}"), 0o644)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestLoad_ValidatesConfig(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "config.json")
	// Invalid: empty binary
	content := `{
		"gemini": {
			"binary": ""
		}
	}`
	if err := os.WriteFile(cfgFile, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(cfgFile)
	if err == nil {
		t.Fatal("expected validation error for empty binary")
	}
}

// --- Accessor ---

func TestGetByPath_ValidPaths(t *testing.T) {
	cfg := Defaults()

	val, err := GetByPath(cfg, "gemini.binary")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if val != "gemini" {
		t.Fatalf("expected 'gemini', got %v", val)
	}
}

func TestGetByPath_InvalidPath(t *testing.T) {
	cfg := Defaults()
	_, err := GetByPath(cfg, "nonexistent.path")
	if err == nil {
		t.Fatal("expected error for nonexistent path")
	}
}

func TestSetByPath_ValidPath(t *testing.T) {
	cfg := Defaults()
	if err := SetByPath(cfg, "gemini.binary", "gemini-2"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if cfg.Gemini.Binary != "gemini-2" {
		t.Fatalf("expected 'gemini-2', got %q", cfg.Gemini.Binary)
	}
}

func TestSetByPath_BoolConversion(t *testing.T) {
	cfg := Defaults()
	if err := SetByPath(cfg, "history.enabled", "false"); err != nil {
		t.Fatalf("set bool: %v", err)
	}
	if cfg.History.Enabled {
		t.Fatal("expected history.enabled=false")
	}
}

func TestSetByPath_IntConversion(t *testing.T) {
	cfg := Defaults()
	if err := SetByPath(cfg, "gemini.timeoutSeconds", "60"); err != nil {
		t.Fatalf("set int: %v", err)
	}
	if cfg.Gemini.TimeoutSeconds != 60 {
		t.Fatalf("expected 60, got %d", cfg.Gemini.TimeoutSeconds)
	}
}

// --- Sanitize ---

func TestSanitize_MasksSecretEnvValues(t *testing.T) {
	cfg := Defaults()
	cfg.Gemini.Env = map[string]string{
		"GEMINI_API_KEY":       "sk-1234567890abcdefghijklmnop",
		"GOOGLE_CLOUD_PROJECT": "my-project",
	}

	sanitized := Sanitize(cfg)

	if sanitized.Gemini.Env["GEMINI_API_KEY"] == cfg.Gemini.Env["GEMINI_API_KEY"] {
		t.Fatal("API key should be masked")
	}
	if sanitized.Gemini.Env["GOOGLE_CLOUD_PROJECT"] != "my-project" {
		t.Fatal("non-secret env values should pass through")
	}
	// Verify original is untouched
	if cfg.Gemini.Env["GEMINI_API_KEY"] != "sk-1234567890abcdefghijklmnop" {
		t.Fatal("original config should not be modified")
	}
}

func TestSanitize_ShortSecret(t *testing.T) {
	cfg := Defaults()
	cfg.Gemini.Env = map[string]string{"API_KEY": "short"}
	sanitized := Sanitize(cfg)
	if sanitized.Gemini.Env["API_KEY"] != "***" {
		t.Fatalf("short secret should be '***', got %q", sanitized.Gemini.Env["API_KEY"])
	}
}

// --- ListPaths ---

func TestListPaths_ReturnsAllLeaves(t *testing.T) {
	cfg := Defaults()
	paths := ListPaths(cfg)
	if len(paths) == 0 {
		t.Fatal("expected non-empty paths")
	}

	// Check some known paths exist
	for _, expected := range []string{"gemini.binary", "general.logLevel", "history.enabled"} {
		if _, ok := paths[expected]; !ok {
			t.Errorf("missing expected path: %s", expected)
		}
	}
}

// --- FlexStringList ---

func TestFlexStringList_MixedTypes(t *testing.T) {
	input := `["--debug", 1, "--sandbox", 2.0]`
	var list FlexStringList
	if err := json.Unmarshal([]byte(input), &list); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(list) != 4 {
		t.Fatalf("expected 4 items, got %d", len(list))
	}
	if list[0] != "--debug" || list[2] != "--sandbox" {
		t.Fatal("string items mismatch")
	}
	if list[1] != "1" || list[3] != "2" {
		t.Fatalf("number conversion mismatch: %v", list)
	}
}

func TestFlexStringList_PureStrings(t *testing.T) {
	input := `["a", "b", "c"]`
	var list FlexStringList
	if err := json.Unmarshal([]byte(input), &list); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(list) != 3 || list[0] != "a" {
		t.Fatalf("unexpected: %v", list)
	}
}

func TestFlexStringList_InvalidJSON(t *testing.T) {
	var list FlexStringList
	err := json.Unmarshal([]byte(`not json`), &list)
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

// --- ExpandEnvVars ---

func TestExpandEnvVars_SimpleSubstitution(t *testing.T) {
	t.Setenv("TEST_GEMINI_BIN", "/opt/gemini/bin/gemini")
	result := ExpandEnvVars(`{"binary": "${TEST_GEMINI_BIN}"}`)
	expected := `{"binary": "/opt/gemini/bin/gemini"}`
	if result != expected {
		t.Fatalf("expected %q, got %q", expected, result)
	}
}

func TestExpandEnvVars_DefaultValue(t *testing.T) {
	// Ensure the var is unset
	os.Unsetenv("NONEXISTENT_VAR_12345")
	result := ExpandEnvVars(`{"binary": "${NONEXISTENT_VAR_12345:-gemini}"}`)
	expected := `{"binary": "gemini"}`
	if result != expected {
		t.Fatalf("expected %q, got %q", expected, result)
	}
}

func TestExpandEnvVars_SetVarOverridesDefault(t *testing.T) {
	t.Setenv("MY_TIMEOUT", "120")
	result := ExpandEnvVars(`{"timeoutSeconds": "${MY_TIMEOUT:-300}"}`)
	expected := `{"timeoutSeconds": "120"}`
	if result != expected {
		t.Fatalf("expected %q, got %q", expected, result)
	}
}

func TestExpandEnvVars_MultipleVars(t *testing.T) {
	t.Setenv("BIN_DIR", "/usr/local/bin")
	t.Setenv("BIN_NAME", "gemini")
	result := ExpandEnvVars(`"${BIN_DIR}/${BIN_NAME}"`)
	expected := `"/usr/local/bin/gemini"`
	if result != expected {
		t.Fatalf("expected %q, got %q", expected, result)
	}
}

func TestExpandEnvVars_UnsetVarNoDefault_KeepsOriginal(t *testing.T) {
	os.Unsetenv("TOTALLY_UNSET_VAR_XYZ")
	result := ExpandEnvVars(`"${TOTALLY_UNSET_VAR_XYZ}"`)
	expected := `"${TOTALLY_UNSET_VAR_XYZ}"`
	if result != expected {
		t.Fatalf("expected %q, got %q", expected, result)
	}
}

func TestExpandEnvVars_EmptyVarUsesDefault(t *testing.T) {
	t.Setenv("EMPTY_VAR", "")
	result := ExpandEnvVars(`"${EMPTY_VAR:-fallback}"`)
	expected := `"fallback"`
	if result != expected {
		t.Fatalf("expected %q, got %q", expected, result)
	}
}

func TestExpandEnvVars_NoVarsInInput(t *testing.T) {
	input := `{"key": "value", "number": 42}`
	result := ExpandEnvVars(input)
	if result != input {
		t.Fatalf("expected no change, got %q", result)
	}
}

func TestExpandEnvVars_DollarSignWithoutBraces(t *testing.T) {
	input := `"$HOME is not substituted"`
	result := ExpandEnvVars(input)
	if result != input {
		t.Fatalf("expected no change for bare $VAR, got %q", result)
	}
}

func TestLoad_WithEnvVarSubstitution(t *testing.T) {
	t.Setenv("TEST_GEMINI_MODEL", "gemini-2.5-pro")

	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "config.json")
	content := `{
		"gemini": {
			"binary": "gemini",
			"model": "${TEST_GEMINI_MODEL}",
			"timeoutSeconds": 300
		}
	}`
	if err := os.WriteFile(cfgFile, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgFile)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Gemini.Model != "gemini-2.5-pro" {
		t.Fatalf("expected model 'gemini-2.5-pro', got %q", cfg.Gemini.Model)
	}
}

// --- Defaults ---

func TestDefaults_ReturnsValidConfig(t *testing.T) {
	cfg := Defaults()
	if cfg == nil {
		t.Fatal("defaults returned nil")
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("defaults should be valid: %v", err)
	}
	if cfg.Gemini.Binary != "gemini" {
		t.Fatalf("default binary should be 'gemini', got %q", cfg.Gemini.Binary)
	}
	if cfg.Gemini.TimeoutSeconds != 300 {
		t.Fatalf("default timeout should be 300, got %d", cfg.Gemini.TimeoutSeconds)
	}
}
