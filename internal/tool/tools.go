package tool

import "geminimcp/internal/domain"

// verifyPromptFormat synthesizes the default verification prompt when the
// caller does not supply one.
const verifyPromptFormat = "Has %s been implemented in this codebase? Show me the relevant files and functions if it exists, or confirm if it's missing."

// defaultHandlers builds the dispatch table rows for the six analysis tools.
// Enum values for the template-backed tools come from the tables, so override
// files that add categories extend the published schema too.
func defaultHandlers(audit, analysis *TemplateTable) []handler {
	return []handler{
		{
			def: domain.ToolDefinition{
				Name:        "gemini_analyze_files",
				Description: "Analyze specific files using Gemini CLI with @ syntax",
				Arguments: []domain.ArgumentSpec{
					{Name: "files", Type: "array", Description: "List of file paths to analyze (relative to current working directory)", Required: true},
					{Name: "prompt", Type: "string", Description: "Analysis prompt to send to Gemini", Required: true},
					{Name: "working_directory", Type: "string", Description: "Working directory to run gemini command from (optional, defaults to current directory)"},
				},
			},
			pathArg:   "files",
			pathStyle: pathStyleFiles,
			source:    promptFromArg,
			promptArg: "prompt",
		},
		{
			def: domain.ToolDefinition{
				Name:        "gemini_analyze_directories",
				Description: "Analyze entire directories using Gemini CLI with @ syntax",
				Arguments: []domain.ArgumentSpec{
					{Name: "directories", Type: "array", Description: "List of directory paths to analyze", Required: true},
					{Name: "prompt", Type: "string", Description: "Analysis prompt to send to Gemini", Required: true},
					{Name: "working_directory", Type: "string", Description: "Working directory to run gemini command from (optional)"},
				},
			},
			pathArg:   "directories",
			pathStyle: pathStyleDirs,
			source:    promptFromArg,
			promptArg: "prompt",
		},
		{
			def: domain.ToolDefinition{
				Name:        "gemini_analyze_all_files",
				Description: "Analyze all files in current directory using Gemini CLI --all_files flag",
				Arguments: []domain.ArgumentSpec{
					{Name: "prompt", Type: "string", Description: "Analysis prompt to send to Gemini", Required: true},
					{Name: "working_directory", Type: "string", Description: "Working directory to run gemini command from (optional)"},
				},
			},
			pathStyle: pathStyleNone,
			source:    promptFromArg,
			promptArg: "prompt",
			allFiles:  true,
		},
		{
			def: domain.ToolDefinition{
				Name:        "gemini_verify_implementation",
				Description: "Verify if specific features/patterns are implemented in the codebase",
				Arguments: []domain.ArgumentSpec{
					{Name: "feature_name", Type: "string", Description: "Name of the feature to verify (e.g., 'dark mode', 'JWT authentication')", Required: true},
					{Name: "search_paths", Type: "array", Description: "List of directories/files to search in", Required: true},
					{Name: "verification_prompt", Type: "string", Description: "Custom verification prompt (optional)"},
					{Name: "working_directory", Type: "string", Description: "Working directory to run gemini command from (optional)"},
				},
			},
			pathArg:    "search_paths",
			pathStyle:  pathStyleProbe,
			source:     promptFromFeature,
			promptArg:  "verification_prompt",
			featureArg: "feature_name",
		},
		{
			def: domain.ToolDefinition{
				Name:        "gemini_security_audit",
				Description: "Perform security analysis of the codebase using Gemini",
				Arguments: []domain.ArgumentSpec{
					{Name: "audit_type", Type: "string", Description: "Type of security audit to perform", Required: true, Enum: audit.Categories()},
					{Name: "paths", Type: "array", Description: "Paths to audit (files or directories)", Required: true},
					{Name: "working_directory", Type: "string", Description: "Working directory to run gemini command from (optional)"},
				},
			},
			pathArg:     "paths",
			pathStyle:   pathStyleProbe,
			source:      promptFromTemplate,
			categoryArg: "audit_type",
			table:       audit,
		},
		{
			def: domain.ToolDefinition{
				Name:        "gemini_architecture_analysis",
				Description: "Analyze codebase architecture and patterns using Gemini",
				Arguments: []domain.ArgumentSpec{
					{Name: "analysis_type", Type: "string", Description: "Type of architectural analysis", Required: true, Enum: analysis.Categories()},
					{Name: "paths", Type: "array", Description: "Paths to analyze", Required: true},
					{Name: "working_directory", Type: "string", Description: "Working directory to run gemini command from (optional)"},
				},
			},
			pathArg:     "paths",
			pathStyle:   pathStyleProbe,
			source:      promptFromTemplate,
			categoryArg: "analysis_type",
			table:       analysis,
		},
	}
}
