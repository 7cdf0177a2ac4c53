package history

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MaxTurns is the number of turns kept per user after every answer.
const MaxTurns = 20

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message of a conversation. Stores hand out copies, so a
// Turn never changes once created.
type Turn struct {
	ID        string
	Role      Role
	Text      string
	CreatedAt time.Time
}

func NewTurn(role Role, text string) Turn {
	return Turn{
		ID:        uuid.NewString(),
		Role:      role,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
}

// Store holds conversation history keyed by user id.
// An absent key behaves as an empty history.
type Store interface {
	Get(ctx context.Context, userID int64) ([]Turn, error)
	Append(ctx context.Context, userID int64, turns ...Turn) error
	// Truncate keeps only the last maxLen turns; maxLen <= 0 empties the history.
	Truncate(ctx context.Context, userID int64, maxLen int) error
}
