package users

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("users: not found")

type User struct {
	ID        int64
	Username  string
	FirstName string
	FirstSeen time.Time
	LastSeen  time.Time
	Messages  int64
}

// Repo remembers who has talked to the bot.
type Repo interface {
	// Touch upserts u, bumps its message counter and sets LastSeen.
	Touch(ctx context.Context, u User) error
	Get(ctx context.Context, id int64) (User, error)
	Count(ctx context.Context) (int, error)
	Close() error
}
