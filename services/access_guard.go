package services

import (
	stderrors "errors"

	"mentorlink/domain"
	"mentorlink/errors"
	"mentorlink/repositories"
)

// AccessGuard gates every message read and write on an accepted connection
// between the two parties. Whatever the true state of the pair (no record,
// pending, or a lookup failure), callers get the same ErrUnauthorized so
// relationship existence never leaks to unauthorized parties.
type AccessGuard struct {
	connections repositories.IConnectionRepository
}

func NewAccessGuard(connections repositories.IConnectionRepository) *AccessGuard {
	return &AccessGuard{connections: connections}
}

// Authorize returns the accepted connection covering {requester, counterpart}.
// The lookup is symmetric: either party may sit on the mentor side of the
// stored record.
func (g *AccessGuard) Authorize(requesterID, counterpartID string) (domain.Connection, error) {
	record, err := g.connections.FindByPair(requesterID, counterpartID)
	if stderrors.Is(err, errors.ErrNotFound) {
		return domain.Connection{}, errors.ErrUnauthorized
	}
	if err != nil {
		// Genuine storage failures keep their identity; only the absence
		// of an accepted record is flattened to Unauthorized.
		return domain.Connection{}, err
	}
	if record.State != string(domain.ConnectionAccepted) {
		return domain.Connection{}, errors.ErrUnauthorized
	}
	return record.ToDomain(), nil
}
