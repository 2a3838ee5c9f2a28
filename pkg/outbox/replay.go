package outbox

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"habitd/pkg/mq"
)

// ReplayService re-publishes outbox events the dispatcher has marked
// failed. It backs the admin replay endpoints; the dispatcher itself
// never touches failed events again.
type ReplayService struct {
	repo      *Repository
	publisher *mq.Publisher
	logger    *zap.Logger
}

func NewReplayService(repo *Repository, publisher *mq.Publisher, logger *zap.Logger) *ReplayService {
	return &ReplayService{repo: repo, publisher: publisher, logger: logger}
}

// ReplayEvent re-publishes one event by ID and marks it sent. A publish
// failure bumps the retry bookkeeping and returns the error.
func (s *ReplayService) ReplayEvent(ctx context.Context, eventID int64) error {
	event, err := s.repo.GetEventByID(ctx, eventID)
	if err != nil {
		return err
	}

	// Payload is already serialized; publish it verbatim.
	if err := s.publisher.Publish(event.RoutingKey, event.Payload); err != nil {
		if markErr := s.repo.MarkAsFailed(ctx, eventID, 1); markErr != nil {
			return fmt.Errorf("failed to publish and to record it: %w (mark error: %v)", err, markErr)
		}
		return fmt.Errorf("failed to publish event %d: %w", eventID, err)
	}

	if err := s.repo.MarkAsSent(ctx, eventID); err != nil {
		return err
	}

	s.logger.Info("Outbox event replayed",
		zap.Int64("event_id", eventID),
		zap.String("routing_key", event.RoutingKey),
	)
	return nil
}

// ReplayFailedEvents replays every failed event up to limit, returning
// how many went through. Individual failures are logged and skipped so
// one poison event cannot block the rest.
func (s *ReplayService) ReplayFailedEvents(ctx context.Context, limit int) (int, error) {
	events, err := s.repo.GetFailedEvents(ctx, limit)
	if err != nil {
		return 0, err
	}

	replayed := 0
	for _, event := range events {
		if err := s.ReplayEvent(ctx, event.ID); err != nil {
			s.logger.Warn("Failed to replay outbox event",
				zap.Int64("event_id", event.ID),
				zap.Error(err),
			)
			continue
		}
		replayed++
	}

	return replayed, nil
}
