package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/MikeSquared-Agency/codemanager/internal/actions"
)

// RecordGeneration stores the summary of one editor action request.
func (s *Store) RecordGeneration(ctx context.Context, g actions.Generation) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO generations (id, action, language_id, outcome, status_code, prompt_len, generated_len, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		g.ID, string(g.Action), g.LanguageID, g.Outcome, g.StatusCode, g.PromptLen, g.GeneratedLen, g.DurationMS, g.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert generation: %w", err)
	}
	return nil
}

// GenerationCounts returns the number of generations per outcome.
func (s *Store) GenerationCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.pool.Query(ctx, `SELECT outcome, count(*) FROM generations GROUP BY outcome`)
	if err != nil {
		return nil, fmt.Errorf("query generation counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, fmt.Errorf("scan generation count: %w", err)
		}
		counts[outcome] = n
	}
	return counts, rows.Err()
}

// GetGeneration fetches one generation record by ID.
func (s *Store) GetGeneration(ctx context.Context, id uuid.UUID) (*actions.Generation, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, action, language_id, outcome, status_code, prompt_len, generated_len, duration_ms, created_at
		FROM generations WHERE id = $1`, id)

	var g actions.Generation
	var action string
	err := row.Scan(&g.ID, &action, &g.LanguageID, &g.Outcome, &g.StatusCode, &g.PromptLen, &g.GeneratedLen, &g.DurationMS, &g.CreatedAt)
	if err != nil {
		return nil, err
	}
	g.Action = actions.Action(action)
	return &g, nil
}
