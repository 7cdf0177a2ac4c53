package bot

import (
	"context"

	"github.com/Denis-Leo777/Google-AI-sub000/internal/extract"
)

// AttachmentRef points at a file that still has to be downloaded.
type AttachmentRef struct {
	FileID string
	MIME   string
	Name   string
	Size   int
}

// Inbound is one user message, transport details stripped.
type Inbound struct {
	UserID    int64
	ChatID    int64
	Username  string
	FirstName string

	Text    string
	Command string
	Args    string

	Caption    string
	Attachment *AttachmentRef
}

// Outbound delivers replies back to the chat.
type Outbound interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendTyping(ctx context.Context, chatID int64) error
}

// Fetcher downloads attachment bytes, at most maxBytes of them.
type Fetcher interface {
	Fetch(ctx context.Context, fileID string, maxBytes int) ([]byte, error)
}

type Extractor interface {
	Extract(ctx context.Context, att extract.Attachment) (string, error)
	MaxBytes() int
}

// Service routes by message type and always yields exactly one reply.
type Service interface {
	Handle(ctx context.Context, in Inbound) string
}
