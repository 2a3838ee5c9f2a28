package service

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"habitd/internal/model"
	mqcontracts "habitd/contracts/mq"
)

// Schedules number days with Monday=0; crontab numbers them with
// Sunday=0. The remap is a fixed lookup table in both directions so the
// wrap-around (Sunday: 6 -> "0") stays visible instead of hiding in
// modular arithmetic.
var dayToCron = map[int]string{
	0: "1", // Monday
	1: "2",
	2: "3",
	3: "4",
	4: "5",
	5: "6",
	6: "0", // Sunday
}

var cronToDay = map[string]int{
	"1": 0,
	"2": 1,
	"3": 2,
	"4": 3,
	"5": 4,
	"6": 5,
	"0": 6,
}

// TriggerName derives the deterministic trigger name for a schedule.
func TriggerName(scheduleID int) string {
	return fmt.Sprintf("remind_habit_%d", scheduleID)
}

// TriggerStore is the slice of trigger persistence TriggerSync needs.
type TriggerStore interface {
	Upsert(ctx context.Context, t *model.ReminderTrigger) error
	DeleteByName(ctx context.Context, name string) error
}

// TriggerSync keeps reminder triggers in step with habit schedules. The
// handlers call it explicitly after each successful schedule mutation;
// there is no hidden save hook.
type TriggerSync struct {
	triggers TriggerStore
	timezone string
	logger   *zap.Logger
}

func NewTriggerSync(triggers TriggerStore, timezone string, logger *zap.Logger) *TriggerSync {
	return &TriggerSync{triggers: triggers, timezone: timezone, logger: logger}
}

// Sync ensures exactly one trigger exists for the schedule: named from
// the schedule ID, firing at the schedule's weekday and time, enabled iff
// the owning habit is active, and invoking the reminder job with
// [user_id, habit_id].
func (s *TriggerSync) Sync(ctx context.Context, habit *model.Habit, sched *model.HabitSchedule) error {
	args, err := json.Marshal([]int{habit.UserID, habit.ID})
	if err != nil {
		return err
	}

	t := &model.ReminderTrigger{
		Name:        TriggerName(sched.ID),
		Minute:      fmt.Sprintf("%d", sched.RemindMinute),
		Hour:        fmt.Sprintf("%d", sched.RemindHour),
		DayOfWeek:   dayToCron[sched.DayOfWeek],
		DayOfMonth:  "*",
		MonthOfYear: "*",
		Timezone:    s.timezone,
		Task:        mqcontracts.RoutingKeyHabitReminder,
		Args:        string(args),
		Enabled:     habit.IsActive,
	}

	if err := s.triggers.Upsert(ctx, t); err != nil {
		return fmt.Errorf("failed to sync trigger %s: %w", t.Name, err)
	}

	s.logger.Debug("Schedule trigger synchronized",
		zap.String("name", t.Name),
		zap.String("day_of_week", t.DayOfWeek),
		zap.Bool("enabled", t.Enabled),
	)
	return nil
}

// SyncAll re-syncs every schedule of a habit, used when the habit's
// active flag changes.
func (s *TriggerSync) SyncAll(ctx context.Context, habit *model.Habit, schedules []model.HabitSchedule) error {
	for i := range schedules {
		if err := s.Sync(ctx, habit, &schedules[i]); err != nil {
			return err
		}
	}
	return nil
}

// Remove deletes the schedule's trigger by name. A missing trigger is
// not an error.
func (s *TriggerSync) Remove(ctx context.Context, scheduleID int) error {
	return s.triggers.DeleteByName(ctx, TriggerName(scheduleID))
}
