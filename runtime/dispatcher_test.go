package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"mentorlink/domain"
	"mentorlink/domain/event"
)

type failingSink struct{}

func (failingSink) Consume(ctx context.Context, e event.DomainEvent) error {
	return fmt.Errorf("transport closed")
}

func deliveredMessage() domain.Message {
	return domain.Message{
		ID:           uuid.New(),
		SenderID:     "mentee-1",
		RecipientID:  "mentor-1",
		Body:         "hello",
		ConnectionID: uuid.New(),
		CreatedAt:    time.Now().UTC(),
	}
}

func TestDispatcher_PushesToOnlineRecipient(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default(), 8)
	sink := &recordingSink{}
	registry.Register("mentor-1", uuid.New(), sink)

	dispatcher := NewDispatcher(registry, slog.Default())
	message := deliveredMessage()
	dispatcher.Dispatch(context.Background(), message)

	req.Len(sink.events, 1)
	delivered, ok := sink.events[0].(event.MessageDelivered)
	req.True(ok)
	req.Equal(message.ID, delivered.ID)
	req.Equal(message.ConnectionID, delivered.ConnectionID)
	req.Equal("hello", delivered.Body)
}

func TestDispatcher_OfflineRecipientIsSilentlySkipped(t *testing.T) {
	registry := NewRegistry(slog.Default(), 8)
	dispatcher := NewDispatcher(registry, slog.Default())

	// Nobody is online; dispatch must return without error or panic.
	dispatcher.Dispatch(context.Background(), deliveredMessage())
}

func TestDispatcher_SinkFailureIsNotRetried(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default(), 8)
	registry.Register("mentor-1", uuid.New(), failingSink{})

	dispatcher := NewDispatcher(registry, slog.Default())
	dispatcher.Dispatch(context.Background(), deliveredMessage())

	// The session stays registered; cleanup belongs to the disconnect path.
	req.True(registry.IsOnline("mentor-1"))
}
