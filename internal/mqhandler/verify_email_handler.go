package mqhandler

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	contracts "habitd/contracts/mq"
	"habitd/internal/mailer"
	"habitd/pkg/logger"
	"habitd/pkg/metrics"
	"habitd/pkg/trace"
)

// VerifyEmailHandler consumes verification jobs emitted on
// registration and mails out the activation link.
type VerifyEmailHandler struct {
	mail   mailer.Mailer
	dlq    DeadLetterer
	logger *zap.Logger
}

func NewVerifyEmailHandler(mail mailer.Mailer, dlq DeadLetterer, logger *zap.Logger) *VerifyEmailHandler {
	return &VerifyEmailHandler{mail: mail, dlq: dlq, logger: logger}
}

func (h *VerifyEmailHandler) Handle(ctx context.Context, body json.RawMessage) error {
	var payload contracts.VerifyEmailPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		h.logger.Error("Malformed verification payload, parking on DLQ", zap.Error(err))
		if dlqErr := h.dlq.PublishToDLQ(contracts.RoutingKeyVerifyEmail, body, err.Error()); dlqErr != nil {
			h.logger.Error("Failed to publish to DLQ, message lost", zap.Error(dlqErr))
		}
		return nil
	}

	if payload.TraceID != "" {
		ctx = trace.WithContext(ctx, payload.TraceID)
	}
	log := logger.WithTrace(ctx, h.logger).With(zap.Int("user_id", payload.UserID))

	msg := mailer.Message{
		To:      payload.Email,
		Subject: "Verify your email",
		Body: fmt.Sprintf(
			"Hi %s, welcome! Please verify your email by visiting: %s",
			payload.Username, payload.VerifyURL,
		),
	}
	if err := h.mail.Send(ctx, msg); err != nil {
		log.Error("Failed to send verification email", zap.Error(err))
		return err
	}

	metrics.EmailsSent.WithLabelValues("verification").Inc()
	log.Info("Verification email sent")
	return nil
}
