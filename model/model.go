package model

import (
	"context"

	"github.com/YMiemie-cy/Multi-Agent-Chatbox/core"
)

// ChatMessage is one entry of the ordered message list sent to a provider.
// Role follows the wire contract (system, user, assistant), not the session
// roles.
type ChatMessage struct {
	Role    string
	Content core.Content
}

// Wire roles accepted by providers.
const (
	ChatRoleSystem    = "system"
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// SystemMessage builds a system-role text entry.
func SystemMessage(text string) ChatMessage {
	return ChatMessage{Role: ChatRoleSystem, Content: core.TextContent{Text: text}}
}

// UserMessage builds a user-role text entry.
func UserMessage(text string) ChatMessage {
	return ChatMessage{Role: ChatRoleUser, Content: core.TextContent{Text: text}}
}

// AssistantMessage builds an assistant-role text entry.
func AssistantMessage(text string) ChatMessage {
	return ChatMessage{Role: ChatRoleAssistant, Content: core.TextContent{Text: text}}
}

// Text returns the textual portion of the entry's content.
func (m ChatMessage) Text() string { return core.PlainText(m.Content) }

// UserMultimodalMessage builds a user-role entry carrying mixed parts.
func UserMultimodalMessage(parts ...core.Part) ChatMessage {
	return ChatMessage{Role: ChatRoleUser, Content: core.MultimodalContent{Parts: parts}}
}

// Request captures a single normalized model invocation.
type Request struct {
	Model       string
	Messages    []ChatMessage
	MaxTokens   int64
	Temperature float64
}

// Provider performs the actual remote call for one vendor API. Adapters must
// classify their failures through the package error taxonomy (AuthError,
// RateLimitError, APIError) so the client's retry predicate works uniformly.
type Provider interface {
	// Name returns the provider tag used for agent routing.
	Name() string

	// Complete performs a buffered invocation returning the final text.
	Complete(ctx context.Context, req Request) (string, error)

	// Stream performs an incremental invocation. Text fragments arrive on
	// the first channel; the channels are closed when the upstream signals
	// completion. A mid-stream failure is delivered on the error channel
	// before close. Cancelling ctx stops upstream reads.
	Stream(ctx context.Context, req Request) (<-chan string, <-chan error)
}
