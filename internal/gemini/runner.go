// Package gemini locates and supervises the external Gemini CLI process.
package gemini

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"geminimcp/internal/domain"
)

// notFoundMessage is returned when the availability probe fails. The main
// command is never spawned in that case.
const notFoundMessage = "Gemini CLI not found. Please install gemini CLI first."

// exitTimedOut mirrors the exit code the coreutils timeout command uses.
const exitTimedOut = 124

// lookPath is swapped in tests to simulate a missing binary.
var lookPath = exec.LookPath

type Config struct {
	TimeoutSeconds int               // 0 disables the per-run deadline
	WorkingDir     string            // default working directory for runs
	Env            map[string]string // extra environment for the spawned process
	Logger         *slog.Logger
}

// Runner executes assembled command vectors with captured output. Every Run
// re-probes the search path before spawning; nothing is cached between calls.
type Runner struct {
	timeout time.Duration
	workdir string
	env     []string
	logger  *slog.Logger
}

func NewRunner(cfg Config) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	env := make([]string, 0, len(cfg.Env))
	for k, v := range cfg.Env {
		env = append(env, k+"="+v)
	}
	return &Runner{
		timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		workdir: cfg.WorkingDir,
		env:     env,
		logger:  logger,
	}
}

// Run probes for argv[0] on the search path, then spawns it with stdout and
// stderr fully captured. All failure modes fold into the result: probe miss,
// spawn error, nonzero exit, and timeout each produce a nonzero ExitCode with
// a diagnostic in Stderr. The caller never sees an error value.
func (r *Runner) Run(ctx context.Context, argv []string, workdir string) domain.ExecutionResult {
	if len(argv) == 0 {
		return domain.ExecutionResult{ExitCode: 1, Stderr: "Error running gemini command: empty command vector"}
	}

	if _, err := lookPath(argv[0]); err != nil {
		r.logger.Warn("binary not found on search path", "binary", argv[0], "err", err)
		return domain.ExecutionResult{ExitCode: 1, Stderr: notFoundMessage}
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	if workdir == "" {
		workdir = r.workdir
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = workdir
	if len(r.env) > 0 {
		cmd.Env = append(os.Environ(), r.env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	result := domain.ExecutionResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	switch {
	case err == nil:
		// exit 0, stdout carries the analysis
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		result.ExitCode = exitTimedOut
		result.Stderr = fmt.Sprintf("gemini command timed out after %s", r.timeout)
	case errors.Is(ctx.Err(), context.Canceled):
		result.ExitCode = 130
		result.Stderr = "gemini command cancelled"
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			if result.Stderr == "" {
				result.Stderr = err.Error()
			}
		} else {
			result.ExitCode = 1
			result.Stderr = fmt.Sprintf("Error running gemini command: %v", err)
		}
	}

	r.logger.Debug("gemini run finished",
		"binary", argv[0],
		"exit_code", result.ExitCode,
		"duration_ms", elapsed.Milliseconds(),
	)
	return result
}
