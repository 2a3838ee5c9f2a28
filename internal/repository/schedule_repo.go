package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"habitd/internal/apperr"
	"habitd/internal/model"
)

const scheduleConflictMsg = "schedule for this day of week already exists"

type ScheduleRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewScheduleRepository(db *pgxpool.Pool, logger *zap.Logger) *ScheduleRepository {
	return &ScheduleRepository{db: db, logger: logger}
}

func (r *ScheduleRepository) Insert(ctx context.Context, s *model.HabitSchedule) error {
	query := `
        INSERT INTO habit_schedules (habit_id, day_of_week, remind_hour, remind_minute)
        VALUES ($1, $2, $3, $4)
        RETURNING id
    `
	err := r.db.QueryRow(ctx, query,
		s.HabitID,
		s.DayOfWeek,
		s.RemindHour,
		s.RemindMinute,
	).Scan(&s.ID)

	if err != nil {
		r.logger.Error("Failed to insert schedule",
			zap.Int("habit_id", s.HabitID),
			zap.Int("day_of_week", s.DayOfWeek),
			zap.Error(err),
		)
		return apperr.FromDB(err, "schedule not found", scheduleConflictMsg)
	}

	return nil
}

func (r *ScheduleRepository) ListByHabit(ctx context.Context, habitID int) ([]model.HabitSchedule, error) {
	query := `
        SELECT id, habit_id, day_of_week, remind_hour, remind_minute
        FROM habit_schedules
        WHERE habit_id = $1
        ORDER BY day_of_week
    `

	rows, err := r.db.Query(ctx, query, habitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schedules []model.HabitSchedule
	for rows.Next() {
		var s model.HabitSchedule
		if err := rows.Scan(&s.ID, &s.HabitID, &s.DayOfWeek, &s.RemindHour, &s.RemindMinute); err != nil {
			return nil, err
		}
		schedules = append(schedules, s)
	}

	return schedules, rows.Err()
}

func (r *ScheduleRepository) FindByID(ctx context.Context, id int) (*model.HabitSchedule, error) {
	query := `
        SELECT id, habit_id, day_of_week, remind_hour, remind_minute
        FROM habit_schedules
        WHERE id = $1
    `

	var s model.HabitSchedule
	err := r.db.QueryRow(ctx, query, id).Scan(&s.ID, &s.HabitID, &s.DayOfWeek, &s.RemindHour, &s.RemindMinute)
	if err != nil {
		return nil, apperr.FromDB(err, "schedule not found", "")
	}
	return &s, nil
}

func (r *ScheduleRepository) Update(ctx context.Context, s *model.HabitSchedule) error {
	query := `
        UPDATE habit_schedules
        SET day_of_week = $2, remind_hour = $3, remind_minute = $4
        WHERE id = $1
    `
	tag, err := r.db.Exec(ctx, query, s.ID, s.DayOfWeek, s.RemindHour, s.RemindMinute)
	if err != nil {
		return apperr.FromDB(err, "schedule not found", scheduleConflictMsg)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("schedule not found")
	}
	return nil
}

func (r *ScheduleRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM habit_schedules WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("schedule not found")
	}
	return nil
}
