package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"go.uber.org/zap"

	"habitd/internal/model"
	mqcontracts "habitd/contracts/mq"
)

type fakePublisher struct {
	published []struct {
		key     string
		payload any
	}
	err error
}

func (f *fakePublisher) Publish(routingKey string, payload any) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, struct {
		key     string
		payload any
	}{routingKey, payload})
	return nil
}

type fakeDeduper struct {
	seen map[string]bool
}

func (f *fakeDeduper) AcquireOnce(_ context.Context, scope, key string) bool {
	if f.seen == nil {
		f.seen = make(map[string]bool)
	}
	k := scope + ":" + key
	if f.seen[k] {
		return false
	}
	f.seen[k] = true
	return true
}

func (f *fakeDeduper) Release(_ context.Context, scope, key string) {
	delete(f.seen, scope+":"+key)
}

func weeklyTrigger(name, minute, hour, day string) model.ReminderTrigger {
	return model.ReminderTrigger{
		Name:        name,
		Minute:      minute,
		Hour:        hour,
		DayOfWeek:   day,
		DayOfMonth:  "*",
		MonthOfYear: "*",
		Task:        mqcontracts.RoutingKeyHabitReminder,
		Args:        "[3,7]",
		Enabled:     true,
	}
}

func TestMatches(t *testing.T) {
	// 2025-07-02 is a Wednesday; crontab day_of_week "3".
	wednesday := time.Date(2025, 7, 2, 10, 15, 0, 0, time.UTC)

	tests := []struct {
		name    string
		trigger model.ReminderTrigger
		now     time.Time
		want    bool
	}{
		{"exact match", weeklyTrigger("a", "15", "10", "3"), wednesday, true},
		{"wrong minute", weeklyTrigger("a", "16", "10", "3"), wednesday, false},
		{"wrong hour", weeklyTrigger("a", "15", "11", "3"), wednesday, false},
		{"wrong weekday", weeklyTrigger("a", "15", "10", "4"), wednesday, false},
		{"wildcards match", weeklyTrigger("a", "*", "*", "*"), wednesday, true},
		{
			"sunday is crontab zero",
			weeklyTrigger("a", "0", "8", "0"),
			time.Date(2025, 7, 6, 8, 0, 0, 0, time.UTC), // Sunday
			true,
		},
		{
			"day_of_month constraint respected",
			model.ReminderTrigger{Minute: "15", Hour: "10", DayOfWeek: "3", DayOfMonth: "9", MonthOfYear: "*"},
			wednesday,
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matches(tt.trigger, tt.now); got != tt.want {
				t.Errorf("matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTickEnqueuesMatchingTriggers(t *testing.T) {
	store := newFakeTriggerStore()
	store.triggers["remind_habit_1"] = weeklyTrigger("remind_habit_1", "15", "10", "3")
	store.triggers["remind_habit_2"] = weeklyTrigger("remind_habit_2", "45", "22", "3")

	pub := &fakePublisher{}
	sched := NewScheduler(store, pub, &fakeDeduper{}, time.UTC, zap.NewNop())

	now := time.Date(2025, 7, 2, 10, 15, 0, 0, time.UTC) // Wednesday 10:15
	sched.Tick(context.Background(), now)

	if len(pub.published) != 1 {
		t.Fatalf("published %d jobs, want 1", len(pub.published))
	}
	if pub.published[0].key != mqcontracts.RoutingKeyHabitReminder {
		t.Errorf("routing key = %q", pub.published[0].key)
	}

	payload, ok := pub.published[0].payload.(mqcontracts.HabitReminderPayload)
	if !ok {
		t.Fatalf("payload type %T", pub.published[0].payload)
	}
	if payload.UserID != 3 || payload.HabitID != 7 {
		t.Errorf("payload = %+v, want user 3 habit 7", payload)
	}
}

func TestTickDeduplicatesWithinADay(t *testing.T) {
	store := newFakeTriggerStore()
	store.triggers["remind_habit_1"] = weeklyTrigger("remind_habit_1", "15", "10", "3")

	pub := &fakePublisher{}
	sched := NewScheduler(store, pub, &fakeDeduper{}, time.UTC, zap.NewNop())

	now := time.Date(2025, 7, 2, 10, 15, 0, 0, time.UTC)
	sched.Tick(context.Background(), now)
	sched.Tick(context.Background(), now.Add(30*time.Second)) // same minute, second tick

	if len(pub.published) != 1 {
		t.Fatalf("published %d jobs, want 1 (dedup failed)", len(pub.published))
	}
}

func TestTickRetriesAfterPublishFailure(t *testing.T) {
	store := newFakeTriggerStore()
	store.triggers["remind_habit_1"] = weeklyTrigger("remind_habit_1", "15", "10", "3")

	pub := &fakePublisher{err: context.DeadlineExceeded}
	ded := &fakeDeduper{}
	sched := NewScheduler(store, pub, ded, time.UTC, zap.NewNop())

	now := time.Date(2025, 7, 2, 10, 15, 0, 0, time.UTC)
	sched.Tick(context.Background(), now)
	if len(pub.published) != 0 {
		t.Fatalf("published %d jobs through a failing publisher", len(pub.published))
	}

	// Broker recovers; the next tick in the same minute must still fire.
	pub.err = nil
	sched.Tick(context.Background(), now.Add(30*time.Second))
	if len(pub.published) != 1 {
		t.Fatalf("published %d jobs after recovery, want 1 (dedup key not released)", len(pub.published))
	}
}

func TestTickSkipsMalformedArgs(t *testing.T) {
	trig := weeklyTrigger("remind_habit_1", "15", "10", "3")
	trig.Args = "not json"
	store := newFakeTriggerStore()
	store.triggers[trig.Name] = trig

	pub := &fakePublisher{}
	sched := NewScheduler(store, pub, &fakeDeduper{}, time.UTC, zap.NewNop())

	sched.Tick(context.Background(), time.Date(2025, 7, 2, 10, 15, 0, 0, time.UTC))

	if len(pub.published) != 0 {
		t.Errorf("published %d jobs for malformed args, want 0", len(pub.published))
	}
}

func TestReminderPayloadWireFormat(t *testing.T) {
	b, err := json.Marshal(mqcontracts.HabitReminderPayload{UserID: 3, HabitID: 7})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"user_id":3,"habit_id":7}`
	if string(b) != want {
		t.Errorf("payload = %s, want %s", b, want)
	}
}
