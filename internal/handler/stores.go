package handler

import (
	"context"

	"habitd/internal/model"
	"habitd/internal/util"
)

// Store interfaces live with the handlers that consume them; the pgx
// repositories satisfy them and tests substitute in-memory fakes.

type HabitStore interface {
	Insert(ctx context.Context, h *model.Habit) error
	ListByUser(ctx context.Context, userID int) ([]model.Habit, error)
	FindByID(ctx context.Context, id int) (*model.Habit, error)
	Update(ctx context.Context, h *model.Habit) error
	Delete(ctx context.Context, id int) error
}

type ScheduleStore interface {
	Insert(ctx context.Context, s *model.HabitSchedule) error
	ListByHabit(ctx context.Context, habitID int) ([]model.HabitSchedule, error)
	FindByID(ctx context.Context, id int) (*model.HabitSchedule, error)
	Update(ctx context.Context, s *model.HabitSchedule) error
	Delete(ctx context.Context, id int) error
}

type RecordStore interface {
	Insert(ctx context.Context, r *model.HabitRecord) error
	ListByHabit(ctx context.Context, habitID int, f model.RecordFilter) ([]model.HabitRecord, error)
	FindByID(ctx context.Context, id int) (*model.HabitRecord, error)
	Update(ctx context.Context, r *model.HabitRecord) error
	Delete(ctx context.Context, id int) error
}

type AnalyticsStore interface {
	CompletionsByDate(ctx context.Context, userID int, f model.AnalyticsFilter) ([]model.AnalyticsBucket, error)
}

// TriggerSyncer is satisfied by *service.TriggerSync. Handlers call it
// explicitly after successful schedule mutations.
type TriggerSyncer interface {
	Sync(ctx context.Context, habit *model.Habit, sched *model.HabitSchedule) error
	SyncAll(ctx context.Context, habit *model.Habit, schedules []model.HabitSchedule) error
	Remove(ctx context.Context, scheduleID int) error
}

// OutboxReplayer is satisfied by *outbox.ReplayService.
type OutboxReplayer interface {
	ReplayEvent(ctx context.Context, eventID int64) error
	ReplayFailedEvents(ctx context.Context, limit int) (int, error)
}

// AuthService is satisfied by *service.AuthService.
type AuthService interface {
	Register(ctx context.Context, username, email, password string) (*model.User, util.TokenPair, error)
	Login(ctx context.Context, username, password string) (util.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (util.TokenPair, error)
	Verify(ctx context.Context, userID int, token string) error
}
