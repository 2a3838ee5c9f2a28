package service

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"go.uber.org/zap"

	"habitd/internal/model"
	mqcontracts "habitd/contracts/mq"
	"habitd/pkg/metrics"
	"habitd/pkg/trace"
)

// JobPublisher is satisfied by *mq.Publisher.
type JobPublisher interface {
	Publish(routingKey string, payload any) error
}

// TriggerLister is the read side of trigger persistence.
type TriggerLister interface {
	ListEnabled(ctx context.Context) ([]model.ReminderTrigger, error)
}

// OnceAcquirer is satisfied by *dedup.Deduper.
type OnceAcquirer interface {
	AcquireOnce(ctx context.Context, scope, key string) bool
	Release(ctx context.Context, scope, key string)
}

// Scheduler is the beat process: every tick it evaluates the enabled
// reminder triggers against the current time and enqueues one reminder
// job per matching trigger. Redis dedup keeps a trigger from firing more
// than once per day even if ticks overlap its minute.
type Scheduler struct {
	triggers  TriggerLister
	publisher JobPublisher
	deduper   OnceAcquirer
	loc       *time.Location
	logger    *zap.Logger
}

func NewScheduler(
	triggers TriggerLister,
	publisher JobPublisher,
	deduper OnceAcquirer,
	loc *time.Location,
	logger *zap.Logger,
) *Scheduler {
	return &Scheduler{
		triggers:  triggers,
		publisher: publisher,
		deduper:   deduper,
		loc:       loc,
		logger:    logger,
	}
}

// Run ticks until ctx is cancelled. The tick interval is shorter than a
// minute so a trigger's minute is never skipped; dedup absorbs the
// double evaluation.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("Scheduler started", zap.String("timezone", s.loc.String()))

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler stopped")
			return
		case <-ticker.C:
			s.Tick(ctx, time.Now().In(s.loc))
		}
	}
}

// Tick evaluates all enabled triggers against now.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) {
	triggers, err := s.triggers.ListEnabled(ctx)
	if err != nil {
		s.logger.Error("Failed to list enabled triggers", zap.Error(err))
		return
	}

	for _, t := range triggers {
		if !matches(t, now) {
			continue
		}

		// One firing per trigger per calendar day.
		dedupKey := t.Name + ":" + now.Format("2006-01-02")
		if !s.deduper.AcquireOnce(ctx, "scheduler", dedupKey) {
			continue
		}

		if err := s.fire(t); err != nil {
			// Give the day's key back so a later tick can retry;
			// otherwise the failed publish would eat the whole day.
			s.deduper.Release(ctx, "scheduler", dedupKey)
			s.logger.Error("Failed to enqueue reminder job",
				zap.String("trigger", t.Name),
				zap.Error(err),
			)
			continue
		}

		metrics.RemindersEnqueued.Inc()
		s.logger.Info("Reminder job enqueued",
			zap.String("trigger", t.Name),
			zap.String("task", t.Task),
		)
	}
}

func (s *Scheduler) fire(t model.ReminderTrigger) error {
	var args []int
	if err := json.Unmarshal([]byte(t.Args), &args); err != nil || len(args) != 2 {
		s.logger.Error("Trigger has malformed args",
			zap.String("trigger", t.Name),
			zap.String("args", t.Args),
		)
		return nil // nothing to retry, skip permanently
	}

	payload := mqcontracts.HabitReminderPayload{
		UserID:  args[0],
		HabitID: args[1],
		TraceID: trace.NewTraceID(),
	}
	return s.publisher.Publish(t.Task, payload)
}

// matches reports whether the trigger's crontab fields select now. All
// fields are exact matches against the current time except "*", which
// matches anything. Day-of-week uses crontab numbering, which is the
// same Sunday=0 numbering as time.Weekday.
func matches(t model.ReminderTrigger, now time.Time) bool {
	if !fieldMatches(t.Minute, now.Minute()) {
		return false
	}
	if !fieldMatches(t.Hour, now.Hour()) {
		return false
	}
	if !fieldMatches(t.DayOfWeek, int(now.Weekday())) {
		return false
	}
	if !fieldMatches(t.DayOfMonth, now.Day()) {
		return false
	}
	if !fieldMatches(t.MonthOfYear, int(now.Month())) {
		return false
	}
	return true
}

func fieldMatches(field string, value int) bool {
	if field == "*" {
		return true
	}
	return field == strconv.Itoa(value)
}
