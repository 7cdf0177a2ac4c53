package ai

import "context"

// AI is the hosted language model. It knows nothing about Telegram or history storage.
type AI interface {
	GetReply(ctx context.Context, history []Message) (string, error)
}

// Message is a provider-neutral dialog entry.
type Message struct {
	Role string // "user" | "assistant" | "system"
	Text string
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)
