package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
)

type repo struct {
	db *sql.DB
}

const schema = `
	CREATE TABLE IF NOT EXISTS bot_users (
		id         BIGINT PRIMARY KEY,
		username   TEXT NOT NULL DEFAULT '',
		first_name TEXT NOT NULL DEFAULT '',
		first_seen TIMESTAMPTZ NOT NULL DEFAULT now(),
		last_seen  TIMESTAMPTZ NOT NULL DEFAULT now(),
		messages   BIGINT NOT NULL DEFAULT 0
	)
`

func NewPostgresRepo(ctx context.Context, dsn string) (Repo, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &repo{db: db}, nil
}

func (r *repo) Touch(ctx context.Context, u User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO bot_users (id, username, first_name, messages)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (id) DO UPDATE SET
			username   = EXCLUDED.username,
			first_name = EXCLUDED.first_name,
			last_seen  = now(),
			messages   = bot_users.messages + 1
	`,
		u.ID,
		u.Username,
		u.FirstName,
	)
	if err != nil {
		return fmt.Errorf("touch user %d: %w", u.ID, err)
	}
	return nil
}

func (r *repo) Get(ctx context.Context, id int64) (User, error) {
	var u User
	err := r.db.QueryRowContext(ctx, `
		SELECT id, username, first_name, first_seen, last_seen, messages
		FROM bot_users
		WHERE id = $1
	`, id).Scan(
		&u.ID,
		&u.Username,
		&u.FirstName,
		&u.FirstSeen,
		&u.LastSeen,
		&u.Messages,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("get user %d: %w", id, err)
	}
	return u, nil
}

func (r *repo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM bot_users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (r *repo) Close() error {
	return r.db.Close()
}
