package domain

import (
	"context"
	"time"
)

// InvocationRecord is one persisted tool dispatch: what ran, how it ended,
// and how long it took. Prompt and Stderr are stored truncated.
type InvocationRecord struct {
	ID         int64         `json:"id"`
	Tool       string        `json:"tool"`
	Prompt     string        `json:"prompt"`
	WorkingDir string        `json:"workingDir,omitempty"`
	ExitCode   int           `json:"exitCode"`
	Stderr     string        `json:"stderr,omitempty"`
	Duration   time.Duration `json:"duration"`
	CreatedAt  time.Time     `json:"createdAt"`
}

// InvocationRecorder persists dispatch outcomes. Recording is best-effort:
// a failed Record must never change the tool response the caller sees.
type InvocationRecorder interface {
	Record(ctx context.Context, rec InvocationRecord) error
}
