package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"habitd/internal/model"
)

type TriggerRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewTriggerRepository(db *pgxpool.Pool, logger *zap.Logger) *TriggerRepository {
	return &TriggerRepository{db: db, logger: logger}
}

// Upsert creates or replaces the trigger row keyed by name. Calling it
// again with the same values is a no-op.
func (r *TriggerRepository) Upsert(ctx context.Context, t *model.ReminderTrigger) error {
	query := `
        INSERT INTO reminder_triggers
            (name, minute, hour, day_of_week, day_of_month, month_of_year, timezone, task, args, enabled)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        ON CONFLICT (name) DO UPDATE SET
            minute = EXCLUDED.minute,
            hour = EXCLUDED.hour,
            day_of_week = EXCLUDED.day_of_week,
            day_of_month = EXCLUDED.day_of_month,
            month_of_year = EXCLUDED.month_of_year,
            timezone = EXCLUDED.timezone,
            task = EXCLUDED.task,
            args = EXCLUDED.args,
            enabled = EXCLUDED.enabled
        RETURNING id
    `
	err := r.db.QueryRow(ctx, query,
		t.Name,
		t.Minute,
		t.Hour,
		t.DayOfWeek,
		t.DayOfMonth,
		t.MonthOfYear,
		t.Timezone,
		t.Task,
		t.Args,
		t.Enabled,
	).Scan(&t.ID)

	if err != nil {
		r.logger.Error("Failed to upsert trigger", zap.String("name", t.Name), zap.Error(err))
		return err
	}

	r.logger.Debug("Trigger synchronized",
		zap.String("name", t.Name),
		zap.Bool("enabled", t.Enabled),
	)
	return nil
}

// DeleteByName removes a trigger. Deleting a name that does not exist is
// not an error.
func (r *TriggerRepository) DeleteByName(ctx context.Context, name string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM reminder_triggers WHERE name = $1`, name)
	if err != nil {
		r.logger.Error("Failed to delete trigger", zap.String("name", name), zap.Error(err))
		return err
	}
	return nil
}

// ListEnabled returns every enabled trigger for the scheduler's tick.
func (r *TriggerRepository) ListEnabled(ctx context.Context) ([]model.ReminderTrigger, error) {
	query := `
        SELECT id, name, minute, hour, day_of_week, day_of_month, month_of_year,
               timezone, task, args, enabled
        FROM reminder_triggers
        WHERE enabled = TRUE
    `

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var triggers []model.ReminderTrigger
	for rows.Next() {
		var t model.ReminderTrigger
		if err := rows.Scan(
			&t.ID,
			&t.Name,
			&t.Minute,
			&t.Hour,
			&t.DayOfWeek,
			&t.DayOfMonth,
			&t.MonthOfYear,
			&t.Timezone,
			&t.Task,
			&t.Args,
			&t.Enabled,
		); err != nil {
			return nil, err
		}
		triggers = append(triggers, t)
	}

	return triggers, rows.Err()
}
