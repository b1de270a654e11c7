// Package domain contains core concepts of the mentoring chat system.
// This file defines users and the closed set of roles they may hold.
// No runtime, network, or UI logic should be added here.
package domain

import "fmt"

// Role is the closed set of user roles. The connection state machine
// checks roles exhaustively; free-form strings are rejected at parse time.
type Role string

const (
	RoleMentor Role = "mentor"
	RoleMentee Role = "mentee"
)

// ParseRole validates a raw role tag against the closed enumeration.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleMentor:
		return RoleMentor, nil
	case RoleMentee:
		return RoleMentee, nil
	default:
		return "", fmt.Errorf("unknown role %q", raw)
	}
}

// User is referenced by connections and messages, never mutated here.
// Accounts are created by the registration flow.
type User struct {
	ID       string
	FullName string
	Email    string
	Role     Role
}
