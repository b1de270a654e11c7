package services

import (
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"mentorlink/domain"
	"mentorlink/errors"
	"mentorlink/repositories"
)

type IConnectionService interface {
	Request(menteeID, mentorID string) (domain.Connection, error)
	Accept(mentorID, menteeID string) (domain.Connection, error)
	Reject(mentorID, menteeID string) error
	Remove(actorID, otherID string) error
	ListAcceptedCounterparts(userID string) ([]domain.User, error)
	ListPendingRequests(mentorID string) ([]domain.User, error)
	ListMentors(menteeID string) ([]MentorOverview, error)
}

// MentorOverview pairs a mentor with the relationship state the viewing
// mentee currently has with them ("none", "pending" or "accepted").
type MentorOverview struct {
	Mentor domain.User
	Status string
}

// ConnectionService is the relationship state machine. Every transition
// re-evaluates its guards from current store state; nothing is retried and
// nothing silently no-ops.
type ConnectionService struct {
	users       repositories.IUserRepository
	connections repositories.IConnectionRepository
	log         *slog.Logger
}

func NewConnectionService(users repositories.IUserRepository,
	connections repositories.IConnectionRepository, log *slog.Logger) *ConnectionService {
	return &ConnectionService{users: users, connections: connections, log: log}
}

// Request creates a pending connection from a mentee to a mentor.
// Legal only when no record exists for the pair. Role guards are checked
// against the user directory, then the store's uniqueness constraint
// settles any race with a concurrent request for the same pair.
func (s *ConnectionService) Request(menteeID, mentorID string) (domain.Connection, error) {
	actor, err := s.users.GetUser(menteeID)
	if err != nil {
		return domain.Connection{}, err
	}
	if domain.Role(actor.Role) != domain.RoleMentee {
		return domain.Connection{}, errors.ErrInvalidRole
	}

	target, err := s.users.GetUser(mentorID)
	if err != nil {
		return domain.Connection{}, err
	}
	if domain.Role(target.Role) != domain.RoleMentor {
		return domain.Connection{}, errors.ErrInvalidRole
	}

	now := time.Now().UTC()
	record := repositories.Connection{
		ID:        uuid.New(),
		MentorID:  mentorID,
		MenteeID:  menteeID,
		State:     string(domain.ConnectionPending),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err = s.connections.Insert(record); err != nil {
		return domain.Connection{}, err
	}
	s.log.Info("connection requested", "mentee", menteeID, "mentor", mentorID)
	return record.ToDomain(), nil
}

// Accept transitions a pending record to accepted. Only the mentor named
// on the record may accept; a record already transitioned or deleted by a
// concurrent call surfaces as ErrNotFound.
func (s *ConnectionService) Accept(mentorID, menteeID string) (domain.Connection, error) {
	record, err := s.pendingRecord(mentorID, menteeID)
	if err != nil {
		return domain.Connection{}, err
	}
	updated, err := s.connections.UpdateState(record.MentorID, record.MenteeID, domain.ConnectionAccepted)
	if err != nil {
		return domain.Connection{}, err
	}
	s.log.Info("connection accepted", "mentor", mentorID, "mentee", menteeID)
	return updated.ToDomain(), nil
}

// Reject deletes a pending record, returning the pair to the blank state
// so the mentee may request again later. Guards are symmetric to Accept.
func (s *ConnectionService) Reject(mentorID, menteeID string) error {
	record, err := s.pendingRecord(mentorID, menteeID)
	if err != nil {
		return err
	}
	if err = s.connections.Delete(record.MentorID, record.MenteeID); err != nil {
		return err
	}
	s.log.Info("connection rejected", "mentor", mentorID, "mentee", menteeID)
	return nil
}

// pendingRecord loads the pair's record and applies the shared guards of
// Accept and Reject: the record must be pending and the acting party must
// be the mentor named on it.
func (s *ConnectionService) pendingRecord(mentorID, menteeID string) (repositories.Connection, error) {
	record, err := s.connections.FindByPair(mentorID, menteeID)
	if err != nil {
		return repositories.Connection{}, err
	}
	if record.State != string(domain.ConnectionPending) {
		// An accepted record is not a pending request.
		return repositories.Connection{}, errors.ErrNotFound
	}
	if record.MentorID != mentorID {
		return repositories.Connection{}, errors.ErrForbidden
	}
	return record, nil
}

// Remove deletes an accepted connection. Either party may invoke it.
// Messages already exchanged are deliberately retained.
func (s *ConnectionService) Remove(actorID, otherID string) error {
	record, err := s.connections.FindByPair(actorID, otherID)
	if err != nil {
		return err
	}
	if record.State != string(domain.ConnectionAccepted) {
		return errors.ErrNotFound
	}
	if err = s.connections.Delete(record.MentorID, record.MenteeID); err != nil {
		return err
	}
	s.log.Info("connection removed", "actor", actorID, "other", otherID)
	return nil
}

// ListAcceptedCounterparts returns the users the given user can currently
// exchange messages with, i.e. the other side of every accepted record.
func (s *ConnectionService) ListAcceptedCounterparts(userID string) ([]domain.User, error) {
	records, err := s.connections.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	accepted := lo.Filter(records, func(r repositories.Connection, _ int) bool {
		return r.State == string(domain.ConnectionAccepted)
	})
	return s.resolveCounterparts(userID, accepted)
}

// ListPendingRequests returns the mentees waiting on the mentor's answer.
func (s *ConnectionService) ListPendingRequests(mentorID string) ([]domain.User, error) {
	actor, err := s.users.GetUser(mentorID)
	if err != nil {
		return nil, err
	}
	if domain.Role(actor.Role) != domain.RoleMentor {
		return nil, errors.ErrInvalidRole
	}
	records, err := s.connections.ListByUser(mentorID)
	if err != nil {
		return nil, err
	}
	pending := lo.Filter(records, func(r repositories.Connection, _ int) bool {
		return r.State == string(domain.ConnectionPending) && r.MentorID == mentorID
	})
	return s.resolveCounterparts(mentorID, pending)
}

// ListMentors returns every mentor in the directory, annotated with the
// viewing mentee's relationship status toward them.
func (s *ConnectionService) ListMentors(menteeID string) ([]MentorOverview, error) {
	actor, err := s.users.GetUser(menteeID)
	if err != nil {
		return nil, err
	}
	if domain.Role(actor.Role) != domain.RoleMentee {
		return nil, errors.ErrInvalidRole
	}

	mentors, err := s.users.ListByRole(domain.RoleMentor)
	if err != nil {
		return nil, err
	}
	records, err := s.connections.ListByUser(menteeID)
	if err != nil {
		return nil, err
	}
	byMentor := lo.KeyBy(records, func(r repositories.Connection) string {
		return r.MentorID
	})

	return lo.Map(mentors, func(mentor repositories.User, _ int) MentorOverview {
		status := "none"
		if record, ok := byMentor[mentor.ID]; ok {
			status = record.State
		}
		return MentorOverview{Mentor: mentor.ToDomain(), Status: status}
	}), nil
}

func (s *ConnectionService) resolveCounterparts(userID string, records []repositories.Connection) ([]domain.User, error) {
	users := make([]domain.User, 0, len(records))
	for _, record := range records {
		counterpart, err := s.users.GetUser(record.ToDomain().Counterpart(userID))
		if err != nil {
			if stderrors.Is(err, errors.ErrNotFound) {
				// Directory and store can drift; skip rather than fail the list.
				s.log.Warn("counterpart missing from directory", "connection", record.ID)
				continue
			}
			return nil, err
		}
		users = append(users, counterpart.ToDomain())
	}
	return users, nil
}
