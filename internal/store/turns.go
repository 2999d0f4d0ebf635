package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/MikeSquared-Agency/codemanager/internal/openai"
)

type TurnRow struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	Seq       int
	Role      string
	Content   string
	CreatedAt time.Time
}

// RecordTurn archives one chat turn.
func (s *Store) RecordTurn(ctx context.Context, sessionID string, seq int, msg openai.Message) error {
	sid, err := uuid.Parse(sessionID)
	if err != nil {
		return fmt.Errorf("parse session id: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO chat_turns (id, session_id, seq, role, content, created_at)
		VALUES ($1, $2, $3, $4, $5, now())`,
		uuid.New(), sid, seq, msg.Role, msg.Content,
	)
	if err != nil {
		return fmt.Errorf("insert chat turn: %w", err)
	}
	return nil
}

// ClearSession marks every live turn of the session as cleared. Rows are
// kept for audit.
func (s *Store) ClearSession(ctx context.Context, sessionID string) error {
	sid, err := uuid.Parse(sessionID)
	if err != nil {
		return fmt.Errorf("parse session id: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		UPDATE chat_turns SET cleared_at = now()
		WHERE session_id = $1 AND cleared_at IS NULL`,
		sid,
	)
	if err != nil {
		return fmt.Errorf("clear chat turns: %w", err)
	}
	return nil
}

// SessionTurns returns the live (uncleared) turns of a session in order.
func (s *Store) SessionTurns(ctx context.Context, sessionID uuid.UUID) ([]TurnRow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, session_id, seq, role, content, created_at
		FROM chat_turns
		WHERE session_id = $1 AND cleared_at IS NULL
		ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query chat turns: %w", err)
	}
	defer rows.Close()

	var turns []TurnRow
	for rows.Next() {
		var t TurnRow
		if err := rows.Scan(&t.ID, &t.SessionID, &t.Seq, &t.Role, &t.Content, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}
