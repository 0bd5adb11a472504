package tool

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"geminimcp/internal/domain"
)

// maxRecordedText caps the prompt and stderr sizes persisted per invocation.
const maxRecordedText = 4096

// promptSource selects where a handler's prompt text comes from.
type promptSource int

const (
	promptFromArg      promptSource = iota // verbatim from the prompt argument
	promptFromTemplate                     // template table keyed by a category argument
	promptFromFeature                      // synthesized from feature_name unless overridden
)

// handler is one row of the dispatch table: a declarative recipe interpreted
// by Registry.Dispatch.
type handler struct {
	def         domain.ToolDefinition
	pathArg     string // argument holding the path list ("" when none)
	pathStyle   pathStyle
	source      promptSource
	promptArg   string // prompt argument, or the override argument for promptFromFeature
	featureArg  string // feature name argument (promptFromFeature only)
	categoryArg string // template selector argument (promptFromTemplate only)
	table       *TemplateTable
	allFiles    bool // insert --all_files before -p
}

// Options configure the dispatch table.
type Options struct {
	Binary    string   // program name for the command vector (default "gemini")
	ExtraArgs []string // inserted after the binary on every run
	Audit     *TemplateTable
	Analysis  *TemplateTable
	Recorder  domain.InvocationRecorder // optional, best-effort
	Logger    *slog.Logger
}

// Registry is the explicit dispatch table for the analysis tools. It is built
// once at startup and read-only afterwards, so concurrent dispatches share it
// without locking.
type Registry struct {
	binary    string
	extraArgs []string
	runner    domain.Runner
	recorder  domain.InvocationRecorder
	handlers  map[string]handler
	order     []string
	logger    *slog.Logger
}

func NewRegistry(runner domain.Runner, opts Options) *Registry {
	if opts.Binary == "" {
		opts.Binary = "gemini"
	}
	if opts.Audit == nil {
		opts.Audit = BuiltinAuditTemplates()
	}
	if opts.Analysis == nil {
		opts.Analysis = BuiltinAnalysisTemplates()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := &Registry{
		binary:    opts.Binary,
		extraArgs: opts.ExtraArgs,
		runner:    runner,
		recorder:  opts.Recorder,
		handlers:  make(map[string]handler),
		logger:    logger,
	}
	for _, h := range defaultHandlers(opts.Audit, opts.Analysis) {
		r.handlers[h.def.Name] = h
		r.order = append(r.order, h.def.Name)
		logger.Debug("registered tool", "name", h.def.Name)
	}
	return r
}

// Definitions returns the tool catalog in registration order.
func (r *Registry) Definitions() []domain.ToolDefinition {
	defs := make([]domain.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.handlers[name].def)
	}
	return defs
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Dispatch routes one tool call through its handler row: validate required
// arguments, annotate paths, resolve the prompt, run the CLI, translate the
// result. An unknown tool gets a tolerant text response with a nil error; a
// missing required argument is a hard *domain.MissingArgumentError. Execution
// failures come back as "Error: " + stderr text, never as error values.
func (r *Registry) Dispatch(ctx context.Context, name string, args map[string]any) (string, error) {
	h, ok := r.handlers[name]
	if !ok {
		r.logger.Warn("unknown tool requested", "name", name)
		return fmt.Sprintf("Unknown tool: %s", name), nil
	}

	for _, req := range h.def.RequiredArguments() {
		if v, present := args[req]; !present || v == nil {
			return "", &domain.MissingArgumentError{Tool: name, Argument: req}
		}
	}

	prompt := r.resolvePrompt(h, args)
	tokens := annotateAll(stringListArg(args, h.pathArg), h.pathStyle)
	full := prompt
	if len(tokens) > 0 {
		full = strings.Join(tokens, " ") + " " + prompt
	}

	argv := r.commandVector(h, full)
	workdir := stringArg(args, "working_directory")

	start := time.Now()
	res := r.runner.Run(ctx, argv, workdir)
	elapsed := time.Since(start)

	r.logger.Info("tool dispatched",
		"tool", name,
		"exit_code", res.ExitCode,
		"duration_ms", elapsed.Milliseconds(),
	)
	r.record(ctx, name, full, workdir, res, elapsed)

	if !res.Success() {
		return "Error: " + res.Stderr, nil
	}
	return res.Stdout, nil
}

func (r *Registry) resolvePrompt(h handler, args map[string]any) string {
	switch h.source {
	case promptFromTemplate:
		return h.table.Resolve(stringArg(args, h.categoryArg))
	case promptFromFeature:
		if override := stringArg(args, h.promptArg); override != "" {
			return override
		}
		return fmt.Sprintf(verifyPromptFormat, stringArg(args, h.featureArg))
	default:
		return stringArg(args, h.promptArg)
	}
}

func (r *Registry) commandVector(h handler, prompt string) []string {
	argv := make([]string, 0, len(r.extraArgs)+4)
	argv = append(argv, r.binary)
	argv = append(argv, r.extraArgs...)
	if h.allFiles {
		argv = append(argv, "--all_files")
	}
	return append(argv, "-p", prompt)
}

// record persists the invocation when a recorder is configured. It is
// detached from request cancellation; failures only log.
func (r *Registry) record(ctx context.Context, toolName, prompt, workdir string, res domain.ExecutionResult, elapsed time.Duration) {
	if r.recorder == nil {
		return
	}
	rec := domain.InvocationRecord{
		Tool:       toolName,
		Prompt:     truncate(prompt, maxRecordedText),
		WorkingDir: workdir,
		ExitCode:   res.ExitCode,
		Stderr:     truncate(res.Stderr, maxRecordedText),
		Duration:   elapsed,
	}
	if err := r.recorder.Record(context.WithoutCancel(ctx), rec); err != nil {
		r.logger.Warn("cannot record invocation", "tool", toolName, "err", err)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "... (truncated)"
}

// stringArg returns the string value at key, or "" when absent or not a string.
func stringArg(args map[string]any, key string) string {
	if args == nil {
		return ""
	}
	s, _ := args[key].(string)
	return s
}

// stringListArg returns the list value at key. JSON decoding hands arrays
// over as []any; []string is accepted too so callers can pass literals.
func stringListArg(args map[string]any, key string) []string {
	if args == nil || key == "" {
		return nil
	}
	switch v := args[key].(type) {
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			} else {
				out = append(out, fmt.Sprint(item))
			}
		}
		return out
	default:
		return nil
	}
}
