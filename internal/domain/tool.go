package domain

import (
	"context"
	"fmt"
)

// ArgumentSpec describes a single tool argument in the wire schema.
type ArgumentSpec struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"` // "string" | "array"
	Description string   `json:"description"`
	Required    bool     `json:"required"`
	Enum        []string `json:"enum,omitempty"`
}

// ToolDefinition describes one analysis tool: wire name, description, and
// its ordered argument schema. Definitions are built once and never mutated.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Arguments   []ArgumentSpec `json:"arguments"`
}

// RequiredArguments returns the names of required arguments in schema order.
func (d ToolDefinition) RequiredArguments() []string {
	var names []string
	for _, a := range d.Arguments {
		if a.Required {
			names = append(names, a.Name)
		}
	}
	return names
}

// ExecutionResult is the captured outcome of one CLI run. ExitCode 0 means
// success and Stdout carries the analysis; any other value means failure and
// Stderr carries the diagnostic.
type ExecutionResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

func (r ExecutionResult) Success() bool { return r.ExitCode == 0 }

// Runner executes an assembled command vector. argv[0] is the program name as
// resolved through the search path; workdir may be empty for the process default.
// Implementations never return an error: every failure mode is folded into the
// result so callers see one shape.
type Runner interface {
	Run(ctx context.Context, argv []string, workdir string) ExecutionResult
}

// MissingArgumentError reports a call that omitted a required argument. It is
// a request-level fault, not an execution failure. Tool dispatch and the
// prompt catalog both return it; Tool carries the tool or prompt name.
type MissingArgumentError struct {
	Tool     string
	Argument string
}

func (e *MissingArgumentError) Error() string {
	return fmt.Sprintf("%s: missing required argument %q", e.Tool, e.Argument)
}
