package tool

import (
	"fmt"
	"log/slog"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// TemplateTable is a named set of canned prompt texts. A lookup miss falls
// back to the table's default entry, so callers always get usable text.
type TemplateTable struct {
	name       string
	defaultKey string
	order      []string
	entries    map[string]string
}

func newTemplateTable(name, defaultKey string) *TemplateTable {
	return &TemplateTable{
		name:       name,
		defaultKey: defaultKey,
		entries:    make(map[string]string),
	}
}

func (t *TemplateTable) set(key, text string) {
	if _, ok := t.entries[key]; !ok {
		t.order = append(t.order, key)
	}
	t.entries[key] = text
}

// Resolve returns the template text for category, or the default entry's text
// when the category is unknown.
func (t *TemplateTable) Resolve(category string) string {
	if text, ok := t.entries[category]; ok {
		return text
	}
	return t.entries[t.defaultKey]
}

// Categories returns the known category keys in declaration order.
func (t *TemplateTable) Categories() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// DefaultCategory returns the key used when a lookup misses.
func (t *TemplateTable) DefaultCategory() string { return t.defaultKey }

// BuiltinAuditTemplates returns the security audit prompt table.
// Unrecognized audit types resolve to the "general" entry.
func BuiltinAuditTemplates() *TemplateTable {
	t := newTemplateTable("audit", "general")
	t.set("sql_injection", "Analyze this code for SQL injection vulnerabilities. Show how user inputs are sanitized and whether prepared statements or ORMs are used properly.")
	t.set("xss", "Check for Cross-Site Scripting (XSS) vulnerabilities. Look for proper input sanitization and output encoding.")
	t.set("auth", "Analyze the authentication and authorization implementation. Check for JWT handling, session management, and access controls.")
	t.set("general", "Perform a general security audit. Look for common vulnerabilities like hardcoded secrets, insecure configurations, and improper error handling.")
	t.set("input_validation", "Analyze input validation throughout the codebase. Check how user inputs are validated and sanitized.")
	return t
}

// BuiltinAnalysisTemplates returns the architecture analysis prompt table.
// Unrecognized analysis types resolve to the "overview" entry.
func BuiltinAnalysisTemplates() *TemplateTable {
	t := newTemplateTable("analysis", "overview")
	t.set("overview", "Provide a high-level overview of this codebase architecture. Describe the main components, layers, and how they interact.")
	t.set("dependencies", "Analyze the dependencies in this codebase. Show the dependency graph and identify any potential issues or circular dependencies.")
	t.set("patterns", "Identify the architectural patterns and design patterns used in this codebase. Explain how they're implemented.")
	t.set("structure", "Analyze the project structure and organization. Evaluate if it follows best practices and suggest improvements.")
	t.set("coupling", "Analyze the coupling between different modules and components. Identify tightly coupled areas that could be refactored.")
	return t
}

// templateOverrides is the schema of the optional templates YAML file.
// Known keys replace built-in texts; new keys become selectable categories.
type templateOverrides struct {
	Audit    map[string]string `yaml:"audit"`
	Analysis map[string]string `yaml:"analysis"`
}

// LoadOverrides merges user template texts from a YAML file over the built-in
// tables. A missing file is fine; a malformed one fails the load so bad
// templates surface at startup instead of mid-dispatch.
func LoadOverrides(path string, audit, analysis *TemplateTable, logger *slog.Logger) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug("template override file does not exist, using built-ins", "path", path)
			return nil
		}
		return fmt.Errorf("cannot read template overrides %s: %w", path, err)
	}

	var ov templateOverrides
	if err := yaml.Unmarshal(data, &ov); err != nil {
		return fmt.Errorf("cannot parse template overrides %s: %w", path, err)
	}

	merged := 0
	merged += mergeOverrides(audit, ov.Audit, logger)
	merged += mergeOverrides(analysis, ov.Analysis, logger)
	if merged > 0 {
		logger.Info("loaded template overrides", "path", path, "entries", merged)
	}
	return nil
}

func mergeOverrides(table *TemplateTable, entries map[string]string, logger *slog.Logger) int {
	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	merged := 0
	for _, key := range keys {
		text := entries[key]
		if text == "" {
			logger.Warn("skipping empty template override", "table", table.name, "category", key)
			continue
		}
		table.set(key, text)
		merged++
	}
	return merged
}
