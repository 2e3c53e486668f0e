// Package llm provides the chat-completion client used by every agent.
// The backend is treated as an opaque, fallible text oracle: callers must
// never assume a reply parses as the shape they asked for.
package llm

import "context"

// Role values for chat messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role-tagged entry in a chat transcript.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request describes a single completion call.
type Request struct {
	Messages    []Message
	Temperature float32
	MaxTokens   int
	// JSONMode asks the backend for a JSON object response. Advisory
	// only; replies still go through guarded parsing.
	JSONMode bool
}

// Client is the completion interface consumed by the agents.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// PermanentError marks a failure that retrying will not fix, such as a
// rejected request or an exceeded context window.
type PermanentError struct {
	Reason string
	Err    error
}

func (e *PermanentError) Error() string {
	if e.Err != nil {
		return "permanent: " + e.Reason + ": " + e.Err.Error()
	}
	return "permanent: " + e.Reason
}

func (e *PermanentError) Unwrap() error { return e.Err }
