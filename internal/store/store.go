package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS chat_turns (
	id         uuid PRIMARY KEY,
	session_id uuid NOT NULL,
	seq        integer NOT NULL,
	role       text NOT NULL,
	content    text NOT NULL,
	created_at timestamptz NOT NULL DEFAULT now(),
	cleared_at timestamptz
);
CREATE INDEX IF NOT EXISTS chat_turns_session_idx ON chat_turns (session_id, seq) WHERE cleared_at IS NULL;

CREATE TABLE IF NOT EXISTS generations (
	id            uuid PRIMARY KEY,
	action        text NOT NULL,
	language_id   text NOT NULL,
	outcome       text NOT NULL,
	status_code   integer NOT NULL DEFAULT 0,
	prompt_len    integer NOT NULL,
	generated_len integer NOT NULL,
	duration_ms   bigint NOT NULL,
	created_at    timestamptz NOT NULL
);`

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Migrate creates the archive tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (s *Store) Close() {
	s.pool.Close()
}
