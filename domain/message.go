// This file defines Message entities and related rules.
// Messages are immutable once created and are retained even if the
// connection that authorized them is later removed.
package domain

import (
	"github.com/google/uuid"
	"time"
)

// Message represents an immutable chat message between two connected users.
// ConnectionID references the accepted connection that authorized creation.
type Message struct {
	ID           uuid.UUID
	SenderID     string
	RecipientID  string
	Body         string
	Attachment   string // opaque media reference, empty when absent
	ConnectionID uuid.UUID
	CreatedAt    time.Time
}

// Empty reports whether the message carries neither text nor attachment.
func (m Message) Empty() bool {
	return m.Body == "" && m.Attachment == ""
}
