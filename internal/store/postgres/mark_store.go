package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quantframe/simtrader/internal/domain"
)

// MarkStore implements domain.MarkStore using PostgreSQL.
type MarkStore struct {
	pool *pgxpool.Pool
}

// NewMarkStore creates a new MarkStore backed by the given connection pool.
func NewMarkStore(pool *pgxpool.Pool) *MarkStore {
	return &MarkStore{pool: pool}
}

// DeleteMarks removes every mark for the market/label pair.
func (s *MarkStore) DeleteMarks(ctx context.Context, market, label string) error {
	const query = `DELETE FROM chart_marks WHERE market = $1 AND mark_label = $2`

	if _, err := s.pool.Exec(ctx, query, market, label); err != nil {
		return fmt.Errorf("postgres: delete marks %s/%s: %w", market, label, err)
	}
	return nil
}

// AddMark inserts one chart annotation.
func (s *MarkStore) AddMark(ctx context.Context, m domain.ChartMark) error {
	const query = `
		INSERT INTO chart_marks (
			market, code, mark_time, mark_label, mark_text, shape, color
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.pool.Exec(ctx, query,
		m.Market, m.Code, m.Datetime, m.Label, m.Text, m.Shape, m.Color,
	)
	if err != nil {
		return fmt.Errorf("postgres: add mark %s/%s: %w", m.Market, m.Code, err)
	}
	return nil
}
