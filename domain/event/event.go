// Package event defines the events that flow from the core to connected
// transport sessions.
package event

import (
	"time"

	"github.com/google/uuid"
)

type DomainEvent interface {
	Kind() string
}

// MessageDelivered is pushed to a recipient's active session right after
// the message has been persisted. Delivery is best-effort; the durable
// copy is always visible on the next fetch.
type MessageDelivered struct {
	ID           uuid.UUID
	SenderID     string
	RecipientID  string
	Body         string
	Attachment   string
	ConnectionID uuid.UUID
	At           time.Time
}

func (m MessageDelivered) Kind() string { return "message" }

// PresenceChanged carries a snapshot of every currently online user.
// It is broadcast to all sessions on each connect and disconnect.
type PresenceChanged struct {
	OnlineUserIDs []string
	At            time.Time
}

func (p PresenceChanged) Kind() string { return "presence" }
