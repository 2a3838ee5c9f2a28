package outbox

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
)

// EventInserter is the write side of the outbox; satisfied by
// *Repository.
type EventInserter interface {
	InsertEvent(ctx context.Context, tx pgx.Tx, event *Event) error
}

// InsertEventInTx marshals payload and writes a pending event inside tx.
func InsertEventInTx(
	ctx context.Context,
	tx pgx.Tx,
	repo EventInserter,
	aggregateType string,
	aggregateID *int64,
	routingKey string,
	payload any,
) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	event := &Event{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		RoutingKey:    routingKey,
		Payload:       payloadJSON,
		Status:        "pending",
	}

	return repo.InsertEvent(ctx, tx, event)
}
