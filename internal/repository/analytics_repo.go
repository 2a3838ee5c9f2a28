package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"habitd/internal/model"
)

type AnalyticsRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewAnalyticsRepository(db *pgxpool.Pool, logger *zap.Logger) *AnalyticsRepository {
	return &AnalyticsRepository{db: db, logger: logger}
}

// CompletionsByDate counts completed records per date over the caller's
// habits, ascending by date. The join on habits.user_id scopes the query
// to the caller, so asking about another user's habit simply yields no
// rows.
func (r *AnalyticsRepository) CompletionsByDate(ctx context.Context, userID int, f model.AnalyticsFilter) ([]model.AnalyticsBucket, error) {
	query := `
        SELECT r.date, COUNT(r.id)
        FROM habit_records r
        JOIN habits h ON h.id = r.habit_id
        WHERE h.user_id = $1 AND r.completed = TRUE
    `
	args := []any{userID}

	if f.HabitID != nil {
		args = append(args, *f.HabitID)
		query += fmt.Sprintf(" AND r.habit_id = $%d", len(args))
	}
	if f.StartDate != nil {
		args = append(args, *f.StartDate)
		query += fmt.Sprintf(" AND r.date >= $%d", len(args))
	}
	if f.EndDate != nil {
		args = append(args, *f.EndDate)
		query += fmt.Sprintf(" AND r.date <= $%d", len(args))
	}
	query += " GROUP BY r.date ORDER BY r.date"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to run analytics query", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var buckets []model.AnalyticsBucket
	for rows.Next() {
		var b model.AnalyticsBucket
		if err := rows.Scan(&b.Date, &b.CompletedCount); err != nil {
			return nil, err
		}
		buckets = append(buckets, b)
	}

	return buckets, rows.Err()
}
