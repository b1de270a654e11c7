// Package sink bridges the dispatcher to transport sessions through
// buffered channels.
package sink

import (
	"context"

	"mentorlink/domain/event"
)

// ChannelSink is the per-session push buffer. The websocket write loop
// drains Events; the dispatcher and presence broadcaster feed it.
type ChannelSink struct {
	events chan event.DomainEvent
}

func NewChannelSink(bufferSize int) *ChannelSink {
	return &ChannelSink{events: make(chan event.DomainEvent, bufferSize)}
}

// Consume hands an event to the session without ever blocking the caller.
// A full buffer drops the event: pushes are best-effort, durability lives
// in the message store.
func (s *ChannelSink) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case s.events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// Events exposes the drain side for the session's write loop.
func (s *ChannelSink) Events() <-chan event.DomainEvent {
	return s.events
}
