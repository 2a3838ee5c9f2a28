package service

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"habitd/internal/model"
	mqcontracts "habitd/contracts/mq"
)

type fakeTriggerStore struct {
	triggers map[string]model.ReminderTrigger
	upserts  int
	deletes  []string
}

func newFakeTriggerStore() *fakeTriggerStore {
	return &fakeTriggerStore{triggers: make(map[string]model.ReminderTrigger)}
}

func (f *fakeTriggerStore) Upsert(_ context.Context, t *model.ReminderTrigger) error {
	f.upserts++
	f.triggers[t.Name] = *t
	return nil
}

func (f *fakeTriggerStore) DeleteByName(_ context.Context, name string) error {
	// Absence of the trigger is not an error, mirroring DELETE semantics.
	f.deletes = append(f.deletes, name)
	delete(f.triggers, name)
	return nil
}

func (f *fakeTriggerStore) ListEnabled(_ context.Context) ([]model.ReminderTrigger, error) {
	var out []model.ReminderTrigger
	for _, t := range f.triggers {
		if t.Enabled {
			out = append(out, t)
		}
	}
	return out, nil
}

func TestSyncCreatesTrigger(t *testing.T) {
	store := newFakeTriggerStore()
	sync := NewTriggerSync(store, "Europe/Kyiv", zap.NewNop())

	habit := &model.Habit{ID: 7, UserID: 3, Name: "Morning run", IsActive: true}
	sched := &model.HabitSchedule{ID: 15, HabitID: 7, DayOfWeek: 2, RemindHour: 10, RemindMinute: 15}

	if err := sync.Sync(context.Background(), habit, sched); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	if len(store.triggers) != 1 {
		t.Fatalf("expected 1 trigger, got %d", len(store.triggers))
	}

	trig, ok := store.triggers["remind_habit_15"]
	if !ok {
		t.Fatal("trigger remind_habit_15 not found")
	}
	if trig.Hour != "10" || trig.Minute != "15" {
		t.Errorf("time fields = %s:%s, want 10:15", trig.Hour, trig.Minute)
	}
	if trig.DayOfWeek != "3" {
		t.Errorf("day_of_week = %q, want %q (Wednesday remapped)", trig.DayOfWeek, "3")
	}
	if trig.DayOfMonth != "*" || trig.MonthOfYear != "*" {
		t.Errorf("expected wildcard day_of_month/month_of_year, got %q/%q", trig.DayOfMonth, trig.MonthOfYear)
	}
	if trig.Timezone != "Europe/Kyiv" {
		t.Errorf("timezone = %q", trig.Timezone)
	}
	if trig.Task != mqcontracts.RoutingKeyHabitReminder {
		t.Errorf("task = %q", trig.Task)
	}
	if trig.Args != "[3,7]" {
		t.Errorf("args = %q, want [user_id, habit_id]", trig.Args)
	}
	if !trig.Enabled {
		t.Error("trigger should be enabled for an active habit")
	}
}

func TestSyncDayOfWeekRemap(t *testing.T) {
	// Monday=0 internally maps to crontab "1"; Sunday=6 wraps to "0".
	want := map[int]string{0: "1", 1: "2", 2: "3", 3: "4", 4: "5", 5: "6", 6: "0"}

	store := newFakeTriggerStore()
	sync := NewTriggerSync(store, "UTC", zap.NewNop())
	habit := &model.Habit{ID: 1, UserID: 1, IsActive: true}

	for day, cron := range want {
		sched := &model.HabitSchedule{ID: 100 + day, HabitID: 1, DayOfWeek: day, RemindHour: 9}
		if err := sync.Sync(context.Background(), habit, sched); err != nil {
			t.Fatalf("Sync(day=%d): %v", day, err)
		}
		got := store.triggers[TriggerName(sched.ID)].DayOfWeek
		if got != cron {
			t.Errorf("day %d remapped to %q, want %q", day, got, cron)
		}
		// The table must invert cleanly.
		if back := cronToDay[got]; back != day {
			t.Errorf("cron %q maps back to %d, want %d", got, back, day)
		}
	}
}

func TestSyncIsIdempotent(t *testing.T) {
	store := newFakeTriggerStore()
	sync := NewTriggerSync(store, "UTC", zap.NewNop())

	habit := &model.Habit{ID: 2, UserID: 5, IsActive: true}
	sched := &model.HabitSchedule{ID: 9, HabitID: 2, DayOfWeek: 0, RemindHour: 8, RemindMinute: 30}

	if err := sync.Sync(context.Background(), habit, sched); err != nil {
		t.Fatalf("first Sync: %v", err)
	}
	first := store.triggers[TriggerName(9)]

	if err := sync.Sync(context.Background(), habit, sched); err != nil {
		t.Fatalf("second Sync: %v", err)
	}

	if len(store.triggers) != 1 {
		t.Fatalf("second sync duplicated the trigger: %d rows", len(store.triggers))
	}
	if store.triggers[TriggerName(9)] != first {
		t.Error("second sync with identical inputs changed the trigger")
	}
}

func TestSyncDisablesTriggerForInactiveHabit(t *testing.T) {
	store := newFakeTriggerStore()
	sync := NewTriggerSync(store, "UTC", zap.NewNop())

	habit := &model.Habit{ID: 2, UserID: 5, IsActive: true}
	sched := &model.HabitSchedule{ID: 9, HabitID: 2, DayOfWeek: 4, RemindHour: 20}

	if err := sync.Sync(context.Background(), habit, sched); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	habit.IsActive = false
	if err := sync.SyncAll(context.Background(), habit, []model.HabitSchedule{*sched}); err != nil {
		t.Fatalf("SyncAll: %v", err)
	}

	if store.triggers[TriggerName(9)].Enabled {
		t.Error("trigger should be disabled after the habit is deactivated")
	}
}

func TestRemove(t *testing.T) {
	store := newFakeTriggerStore()
	sync := NewTriggerSync(store, "UTC", zap.NewNop())

	habit := &model.Habit{ID: 1, UserID: 1, IsActive: true}
	sched := &model.HabitSchedule{ID: 4, HabitID: 1, DayOfWeek: 1}
	if err := sync.Sync(context.Background(), habit, sched); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	if err := sync.Remove(context.Background(), 4); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok := store.triggers[TriggerName(4)]; ok {
		t.Error("trigger still present after Remove")
	}

	// Removing a schedule that has no trigger is a no-op.
	if err := sync.Remove(context.Background(), 999); err != nil {
		t.Errorf("Remove(missing) = %v, want nil", err)
	}
}
