package domain

import (
	"time"

	"github.com/google/uuid"
)

// ConnectionState is the approval state of a mentor-mentee relationship.
// There is no rejected state: rejection deletes the record so the mentee
// may request again later.
type ConnectionState string

const (
	ConnectionPending  ConnectionState = "pending"
	ConnectionAccepted ConnectionState = "accepted"
)

// Connection is the persistent record of a mentor-mentee relationship.
// It is created directionally (a mentee requests a mentor) but once
// accepted the pair is directionless: either side may send messages
// or remove the connection.
type Connection struct {
	ID        uuid.UUID
	MentorID  string
	MenteeID  string
	State     ConnectionState
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Covers reports whether the connection links exactly the unordered pair {a, b}.
func (c Connection) Covers(a, b string) bool {
	return (c.MentorID == a && c.MenteeID == b) ||
		(c.MentorID == b && c.MenteeID == a)
}

// Counterpart returns the other side of the relationship.
func (c Connection) Counterpart(userID string) string {
	if c.MentorID == userID {
		return c.MenteeID
	}
	return c.MentorID
}

// PairKey builds a canonical key for an unordered user pair.
// Both orderings of the same pair map to the same key, which keeps
// message storage and lookup symmetric without duplicating query logic.
func PairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}
