package runtime

import (
	"context"
	"log/slog"

	"mentorlink/contract"
	"mentorlink/domain"
	"mentorlink/domain/event"
)

// Dispatcher pushes a freshly persisted message to the recipient's active
// session. At-most-once, best-effort: an absent recipient or a dead sink
// is not an error here, the durable copy is already in the store and will
// be visible on the recipient's next fetch.
type Dispatcher struct {
	registry contract.IRegistry
	log      *slog.Logger
}

func NewDispatcher(registry contract.IRegistry, log *slog.Logger) *Dispatcher {
	return &Dispatcher{registry: registry, log: log}
}

func (d *Dispatcher) Dispatch(ctx context.Context, message domain.Message) {
	sink, ok := d.registry.Sink(message.RecipientID)
	if !ok {
		return
	}
	err := sink.Consume(ctx, event.MessageDelivered{
		ID:           message.ID,
		SenderID:     message.SenderID,
		RecipientID:  message.RecipientID,
		Body:         message.Body,
		Attachment:   message.Attachment,
		ConnectionID: message.ConnectionID,
		At:           message.CreatedAt,
	})
	if err != nil {
		// No retry. The session looked alive but its transport is gone;
		// the disconnect path will clean the registry up.
		d.log.Warn("realtime push failed",
			"message_id", message.ID,
			"recipient", message.RecipientID,
			"error", err)
	}
}
