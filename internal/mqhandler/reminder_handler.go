package mqhandler

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	contracts "habitd/contracts/mq"
	"habitd/pkg/logger"
	"habitd/pkg/metrics"
	"habitd/pkg/trace"
)

// ReminderSender is satisfied by *service.ReminderService.
type ReminderSender interface {
	SendHabitReminder(ctx context.Context, userID, habitID int) (bool, error)
}

// DeadLetterer parks unprocessable messages; satisfied by *mq.Publisher.
type DeadLetterer interface {
	PublishToDLQ(routingKey string, payload []byte, originalError string) error
}

// ReminderHandler consumes habit reminder jobs and turns them into
// emails.
type ReminderHandler struct {
	reminders ReminderSender
	dlq       DeadLetterer
	logger    *zap.Logger
}

func NewReminderHandler(reminders ReminderSender, dlq DeadLetterer, logger *zap.Logger) *ReminderHandler {
	return &ReminderHandler{reminders: reminders, dlq: dlq, logger: logger}
}

// Handle processes one reminder job. A malformed payload is parked on
// the DLQ and acked, since redelivery cannot fix it; a transport failure
// is returned so the broker redelivers.
func (h *ReminderHandler) Handle(ctx context.Context, body json.RawMessage) error {
	var payload contracts.HabitReminderPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		h.deadLetter(contracts.RoutingKeyHabitReminder, body, err)
		metrics.RemindersProcessed.WithLabelValues("failed").Inc()
		return nil
	}

	if payload.TraceID != "" {
		ctx = trace.WithContext(ctx, payload.TraceID)
	}
	log := logger.WithTrace(ctx, h.logger).With(
		zap.Int("user_id", payload.UserID),
		zap.Int("habit_id", payload.HabitID),
	)

	sent, err := h.reminders.SendHabitReminder(ctx, payload.UserID, payload.HabitID)
	if err != nil {
		log.Error("Failed to send habit reminder", zap.Error(err))
		metrics.RemindersProcessed.WithLabelValues("failed").Inc()
		return err
	}
	if !sent {
		log.Info("Reminder skipped")
		metrics.RemindersProcessed.WithLabelValues("skipped").Inc()
		return nil
	}

	log.Info("Reminder sent")
	metrics.RemindersProcessed.WithLabelValues("sent").Inc()
	return nil
}

func (h *ReminderHandler) deadLetter(routingKey string, body json.RawMessage, cause error) {
	h.logger.Error("Malformed payload, parking on DLQ",
		zap.String("routing_key", routingKey),
		zap.Error(cause),
	)
	if err := h.dlq.PublishToDLQ(routingKey, body, cause.Error()); err != nil {
		h.logger.Error("Failed to publish to DLQ, message lost",
			zap.String("routing_key", routingKey),
			zap.Error(err),
		)
	}
}
