package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"habitd/internal/apperr"
	"habitd/internal/model"
)

type HabitRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewHabitRepository(db *pgxpool.Pool, logger *zap.Logger) *HabitRepository {
	return &HabitRepository{db: db, logger: logger}
}

func (r *HabitRepository) Insert(ctx context.Context, h *model.Habit) error {
	r.logger.Debug("Inserting habit",
		zap.Int("user_id", h.UserID),
		zap.String("name", h.Name),
	)

	query := `
        INSERT INTO habits (user_id, name, description, start_date, is_active)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at
    `
	err := r.db.QueryRow(ctx, query,
		h.UserID,
		h.Name,
		h.Description,
		h.StartDate,
		h.IsActive,
	).Scan(&h.ID, &h.CreatedAt)

	if err != nil {
		r.logger.Error("Failed to insert habit", zap.Error(err))
		return apperr.FromDB(err, "habit not found", "habit already exists")
	}

	return nil
}

func (r *HabitRepository) ListByUser(ctx context.Context, userID int) ([]model.Habit, error) {
	query := `
        SELECT id, user_id, name, description, start_date, is_active, created_at
        FROM habits
        WHERE user_id = $1
        ORDER BY created_at DESC
    `

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error("Failed to list habits", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var habits []model.Habit
	for rows.Next() {
		var h model.Habit
		if err := rows.Scan(
			&h.ID,
			&h.UserID,
			&h.Name,
			&h.Description,
			&h.StartDate,
			&h.IsActive,
			&h.CreatedAt,
		); err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}

	return habits, rows.Err()
}

func (r *HabitRepository) FindByID(ctx context.Context, id int) (*model.Habit, error) {
	query := `
        SELECT id, user_id, name, description, start_date, is_active, created_at
        FROM habits
        WHERE id = $1
    `

	var h model.Habit
	err := r.db.QueryRow(ctx, query, id).Scan(
		&h.ID,
		&h.UserID,
		&h.Name,
		&h.Description,
		&h.StartDate,
		&h.IsActive,
		&h.CreatedAt,
	)
	if err != nil {
		return nil, apperr.FromDB(err, "habit not found", "")
	}
	return &h, nil
}

func (r *HabitRepository) Update(ctx context.Context, h *model.Habit) error {
	query := `
        UPDATE habits
        SET name = $2, description = $3, start_date = $4, is_active = $5
        WHERE id = $1
    `
	tag, err := r.db.Exec(ctx, query, h.ID, h.Name, h.Description, h.StartDate, h.IsActive)
	if err != nil {
		r.logger.Error("Failed to update habit", zap.Int("id", h.ID), zap.Error(err))
		return apperr.FromDB(err, "habit not found", "habit already exists")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("habit not found")
	}
	return nil
}

// Delete removes a habit; schedules and records go with it via ON DELETE
// CASCADE.
func (r *HabitRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM habits WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete habit", zap.Int("id", id), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("habit not found")
	}

	r.logger.Info("Habit deleted", zap.Int("id", id))
	return nil
}
