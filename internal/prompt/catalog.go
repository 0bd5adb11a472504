// Package prompt provides the catalog of canned analysis workflows. Each
// catalog entry expands to an instruction message telling the calling agent
// which tool to invoke and with which arguments; the catalog itself never
// dispatches anything.
package prompt

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"geminimcp/internal/domain"
)

// builder renders the instruction payload for one catalog entry. Required
// arguments are validated before build runs.
type builder func(args map[string]string) domain.PromptPayload

type entry struct {
	def   domain.PromptDefinition
	build builder
}

// Catalog is the static registry of workflow prompts. It is populated once at
// construction and read-only afterwards.
type Catalog struct {
	entries map[string]entry
	order   []string
	logger  *slog.Logger
}

func NewCatalog(logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Catalog{
		entries: make(map[string]entry),
		logger:  logger,
	}
	c.registerBuiltins()
	return c
}

func (c *Catalog) register(def domain.PromptDefinition, build builder) {
	c.entries[def.Name] = entry{def: def, build: build}
	c.order = append(c.order, def.Name)
	c.logger.Debug("registered prompt", "name", def.Name)
}

// Definitions returns the prompt catalog in registration order.
func (c *Catalog) Definitions() []domain.PromptDefinition {
	defs := make([]domain.PromptDefinition, 0, len(c.order))
	for _, name := range c.order {
		defs = append(defs, c.entries[name].def)
	}
	return defs
}

// Get expands the named prompt with the given arguments. An unknown name is a
// hard error wrapping domain.ErrUnknownPrompt; a missing required argument is
// a *domain.MissingArgumentError.
func (c *Catalog) Get(name string, args map[string]string) (domain.PromptPayload, error) {
	e, ok := c.entries[name]
	if !ok {
		return domain.PromptPayload{}, fmt.Errorf("%w: %s", domain.ErrUnknownPrompt, name)
	}
	for _, a := range e.def.Arguments {
		if a.Required && strings.TrimSpace(args[a.Name]) == "" {
			return domain.PromptPayload{}, &domain.MissingArgumentError{Tool: name, Argument: a.Name}
		}
	}
	return e.build(args), nil
}

// instruct renders the standard "call this tool" message. Tool arguments are
// JSON-encoded with sorted keys, so the output is deterministic.
func instruct(description, toolName string, toolArgs map[string]any) domain.PromptPayload {
	encoded, err := json.Marshal(toolArgs)
	if err != nil {
		encoded = []byte("{}")
	}
	return domain.PromptPayload{
		Description: description,
		Messages: []domain.PromptMessage{
			{
				Role: "user",
				Text: fmt.Sprintf("Use the %s tool with arguments: %s", toolName, encoded),
			},
		},
	}
}

// splitPaths turns a comma-separated prompt argument into a path list.
func splitPaths(s string) []string {
	parts := strings.Split(s, ",")
	paths := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

func (c *Catalog) registerBuiltins() {
	c.register(domain.PromptDefinition{
		Name:        "analyze_codebase",
		Description: "Analyze a directory tree with Gemini's large context window",
		Arguments: []domain.PromptArgument{
			{Name: "directory", Description: "Directory to analyze", Required: true},
			{Name: "focus", Description: "What to focus the analysis on (optional)"},
		},
	}, func(args map[string]string) domain.PromptPayload {
		prompt := args["focus"]
		if prompt == "" {
			prompt = "Analyze this codebase. Describe what it does, the main components, and anything unusual worth knowing about."
		}
		return instruct(
			fmt.Sprintf("Codebase analysis of %s", args["directory"]),
			"gemini_analyze_directories",
			map[string]any{
				"directories": []string{args["directory"]},
				"prompt":      prompt,
			},
		)
	})

	c.register(domain.PromptDefinition{
		Name:        "security_review",
		Description: "Run a security audit over the given paths",
		Arguments: []domain.PromptArgument{
			{Name: "paths", Description: "Comma-separated files or directories to audit", Required: true},
			{Name: "audit_type", Description: "Audit category (sql_injection, xss, auth, general, input_validation)"},
		},
	}, func(args map[string]string) domain.PromptPayload {
		auditType := args["audit_type"]
		if auditType == "" {
			auditType = "general"
		}
		return instruct(
			fmt.Sprintf("Security review (%s)", auditType),
			"gemini_security_audit",
			map[string]any{
				"audit_type": auditType,
				"paths":      splitPaths(args["paths"]),
			},
		)
	})

	c.register(domain.PromptDefinition{
		Name:        "verify_feature",
		Description: "Check whether a feature is implemented in the codebase",
		Arguments: []domain.PromptArgument{
			{Name: "feature_name", Description: "Feature to look for (e.g. 'rate limiting')", Required: true},
			{Name: "search_paths", Description: "Comma-separated files or directories to search", Required: true},
		},
	}, func(args map[string]string) domain.PromptPayload {
		return instruct(
			fmt.Sprintf("Verify implementation of %s", args["feature_name"]),
			"gemini_verify_implementation",
			map[string]any{
				"feature_name": args["feature_name"],
				"search_paths": splitPaths(args["search_paths"]),
			},
		)
	})

	c.register(domain.PromptDefinition{
		Name:        "architecture_overview",
		Description: "Produce an architecture analysis of the given paths",
		Arguments: []domain.PromptArgument{
			{Name: "paths", Description: "Comma-separated files or directories to analyze", Required: true},
			{Name: "analysis_type", Description: "Analysis category (overview, dependencies, patterns, structure, coupling)"},
		},
	}, func(args map[string]string) domain.PromptPayload {
		analysisType := args["analysis_type"]
		if analysisType == "" {
			analysisType = "overview"
		}
		return instruct(
			fmt.Sprintf("Architecture analysis (%s)", analysisType),
			"gemini_architecture_analysis",
			map[string]any{
				"analysis_type": analysisType,
				"paths":         splitPaths(args["paths"]),
			},
		)
	})
}
