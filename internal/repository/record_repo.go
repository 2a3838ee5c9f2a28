package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"habitd/internal/apperr"
	"habitd/internal/model"
)

const recordConflictMsg = "record for this date already exists"

type RecordRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewRecordRepository(db *pgxpool.Pool, logger *zap.Logger) *RecordRepository {
	return &RecordRepository{db: db, logger: logger}
}

func (r *RecordRepository) Insert(ctx context.Context, rec *model.HabitRecord) error {
	query := `
        INSERT INTO habit_records (habit_id, date, completed, completed_at)
        VALUES ($1, $2, $3, $4)
        RETURNING id
    `
	err := r.db.QueryRow(ctx, query,
		rec.HabitID,
		rec.Date,
		rec.Completed,
		rec.CompletedAt,
	).Scan(&rec.ID)

	if err != nil {
		r.logger.Error("Failed to insert record",
			zap.Int("habit_id", rec.HabitID),
			zap.String("date", rec.Date.String()),
			zap.Error(err),
		)
		return apperr.FromDB(err, "record not found", recordConflictMsg)
	}

	return nil
}

func (r *RecordRepository) ListByHabit(ctx context.Context, habitID int, f model.RecordFilter) ([]model.HabitRecord, error) {
	query := `
        SELECT id, habit_id, date, completed, completed_at
        FROM habit_records
        WHERE habit_id = $1
    `
	args := []any{habitID}

	if f.DateGTE != nil {
		args = append(args, *f.DateGTE)
		query += fmt.Sprintf(" AND date >= $%d", len(args))
	}
	if f.DateLTE != nil {
		args = append(args, *f.DateLTE)
		query += fmt.Sprintf(" AND date <= $%d", len(args))
	}
	if f.Completed != nil {
		args = append(args, *f.Completed)
		query += fmt.Sprintf(" AND completed = $%d", len(args))
	}
	query += " ORDER BY date"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.HabitRecord
	for rows.Next() {
		var rec model.HabitRecord
		if err := rows.Scan(&rec.ID, &rec.HabitID, &rec.Date, &rec.Completed, &rec.CompletedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

func (r *RecordRepository) FindByID(ctx context.Context, id int) (*model.HabitRecord, error) {
	query := `
        SELECT id, habit_id, date, completed, completed_at
        FROM habit_records
        WHERE id = $1
    `

	var rec model.HabitRecord
	err := r.db.QueryRow(ctx, query, id).Scan(&rec.ID, &rec.HabitID, &rec.Date, &rec.Completed, &rec.CompletedAt)
	if err != nil {
		return nil, apperr.FromDB(err, "record not found", "")
	}
	return &rec, nil
}

func (r *RecordRepository) Update(ctx context.Context, rec *model.HabitRecord) error {
	query := `
        UPDATE habit_records
        SET date = $2, completed = $3, completed_at = $4
        WHERE id = $1
    `
	tag, err := r.db.Exec(ctx, query, rec.ID, rec.Date, rec.Completed, rec.CompletedAt)
	if err != nil {
		return apperr.FromDB(err, "record not found", recordConflictMsg)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("record not found")
	}
	return nil
}

func (r *RecordRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM habit_records WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("record not found")
	}
	return nil
}
