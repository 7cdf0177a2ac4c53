package users

import (
	"context"
	"strings"
	"sync"
	"time"
)

type memoryRepo struct {
	mu    sync.RWMutex
	users map[int64]User
	now   func() time.Time
}

func NewMemoryRepo() Repo {
	return &memoryRepo{
		users: make(map[int64]User),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (r *memoryRepo) Touch(_ context.Context, u User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	cur, ok := r.users[u.ID]
	if !ok {
		cur = User{ID: u.ID, FirstSeen: now}
	}
	cur.Username = u.Username
	cur.FirstName = u.FirstName
	cur.LastSeen = now
	cur.Messages++
	r.users[u.ID] = cur
	return nil
}

func (r *memoryRepo) Get(_ context.Context, id int64) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *memoryRepo) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users), nil
}

func (r *memoryRepo) Close() error { return nil }

// NewRepo creates a postgres-backed repo when configured, otherwise in-memory.
func NewRepo(ctx context.Context, databaseURL string) (Repo, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return NewMemoryRepo(), nil
	}
	return NewPostgresRepo(ctx, databaseURL)
}
