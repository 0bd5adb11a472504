package domain

import "errors"

// ErrUnknownPrompt is returned when a requested prompt name is not in the
// catalog. Unlike unknown tool names, unknown prompts are hard errors.
var ErrUnknownPrompt = errors.New("unknown prompt")

// PromptArgument describes a single named argument of a catalog prompt.
type PromptArgument struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// PromptDefinition describes one canned workflow prompt.
type PromptDefinition struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Arguments   []PromptArgument `json:"arguments"`
}

// PromptMessage is one chat message in an expanded prompt.
type PromptMessage struct {
	Role string `json:"role"` // "user" | "assistant"
	Text string `json:"text"`
}

// PromptPayload is what a prompt request expands to: instruction messages for
// the calling agent. The catalog only generates text; it never dispatches tools.
type PromptPayload struct {
	Description string
	Messages    []PromptMessage
}
