// Package history records completed quiz results so the home screen can show
// progress over time.
package history

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/projectlearn/vocaquiz/internal/domain"
	"github.com/projectlearn/vocaquiz/internal/event"
)

type Config struct {
	EventBus *event.Bus
	DB       *pgxpool.Pool
}

type Service struct {
	eb *event.Bus
	db *pgxpool.Pool
}

func NewService(c Config) *Service {
	s := &Service{
		eb: c.EventBus,
		db: c.DB,
	}

	s.eb.Subscribe(domain.EventNameQuizCompleted, func(ctx context.Context, e event.Event) error {
		return s.RecordResult(ctx, e.(domain.EventQuizCompleted))
	})

	return s
}

// RecordResult stores one completed quiz outcome.
func (s *Service) RecordResult(ctx context.Context, e domain.EventQuizCompleted) error {
	const stmt = `
INSERT INTO quiz_results (session_id, mode, difficulty, score, total, percentage, completed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7);`

	r := e.Result
	_, err := s.db.Exec(ctx, stmt,
		r.SessionID, r.Mode, r.Difficulty, r.Score, r.Total, r.Percentage, r.CompletedAt)
	return err
}

type ListResultsRequest struct {
	Limit int32
}

// ListResults returns the most recent quiz results, newest first.
func (s *Service) ListResults(ctx context.Context, req ListResultsRequest) ([]domain.QuizResult, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}

	const stmt = `
SELECT session_id, mode, difficulty, score, total, percentage, completed_at
FROM quiz_results
ORDER BY completed_at DESC
LIMIT $1;`

	rows, err := s.db.Query(ctx, stmt, limit)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.QuizResult, error) {
		var res domain.QuizResult
		err := r.Scan(&res.SessionID, &res.Mode, &res.Difficulty,
			&res.Score, &res.Total, &res.Percentage, &res.CompletedAt)
		return res, err
	})
}

// AverageAccuracy returns the mean percentage across all recorded quizzes,
// zero when nothing has been recorded yet.
func (s *Service) AverageAccuracy(ctx context.Context) (decimal.Decimal, error) {
	const stmt = `SELECT COALESCE(AVG(percentage), 0) FROM quiz_results;`

	var avg decimal.Decimal
	if err := s.db.QueryRow(ctx, stmt).Scan(&avg); err != nil {
		return decimal.Zero, err
	}

	return avg.Round(1), nil
}
