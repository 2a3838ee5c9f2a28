package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"habitd/internal/apperr"
	"habitd/internal/mailer"
	"habitd/internal/model"
	"habitd/pkg/metrics"
)

type ReminderUserStore interface {
	FindByID(ctx context.Context, id int) (*model.User, error)
}

type ReminderHabitStore interface {
	FindByID(ctx context.Context, id int) (*model.Habit, error)
}

// ReminderService sends one reminder email about one habit. It runs
// unattended on the worker, so it re-resolves the user and habit itself
// and swallows missing or foreign entities: those report sent=false with
// a nil error instead of propagating, since redelivery cannot fix them.
type ReminderService struct {
	users  ReminderUserStore
	habits ReminderHabitStore
	mailer mailer.Mailer
	logger *zap.Logger
}

func NewReminderService(
	users ReminderUserStore,
	habits ReminderHabitStore,
	m mailer.Mailer,
	logger *zap.Logger,
) *ReminderService {
	return &ReminderService{users: users, habits: habits, mailer: m, logger: logger}
}

// SendHabitReminder returns whether an email was sent. Transport errors
// come back as errors so the job queue can retry; everything else is
// swallowed after logging.
func (s *ReminderService) SendHabitReminder(ctx context.Context, userID, habitID int) (bool, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			s.logger.Warn("Reminder skipped: user missing", zap.Int("user_id", userID))
			return false, nil
		}
		return false, err
	}

	habit, err := s.habits.FindByID(ctx, habitID)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			s.logger.Warn("Reminder skipped: habit missing", zap.Int("habit_id", habitID))
			return false, nil
		}
		return false, err
	}

	if habit.UserID != user.ID {
		s.logger.Warn("Reminder skipped: habit does not belong to user",
			zap.Int("user_id", userID),
			zap.Int("habit_id", habitID),
		)
		return false, nil
	}

	msg := mailer.Message{
		To:      user.Email,
		Subject: "Habit Tracker: habit reminder",
		Body:    fmt.Sprintf("Hi %s, don't forget to complete your habit: %s", user.Username, habit.Name),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return false, fmt.Errorf("failed to send reminder email: %w", err)
	}

	metrics.EmailsSent.WithLabelValues("reminder").Inc()
	s.logger.Info("Reminder email sent",
		zap.Int("user_id", userID),
		zap.Int("habit_id", habitID),
		zap.String("habit", habit.Name),
	)
	return true, nil
}
