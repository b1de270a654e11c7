//go:generate go run go.uber.org/mock/mockgen -source=connection.go -destination=../mocks/mock_connection_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"mentorlink/domain"
	"mentorlink/errors"
)

// IConnectionRepository persists mentor-mentee relationship records.
// The ordered (mentor, mentee) pair is the primary key, which makes a
// duplicate request to the same mentor impossible by construction.
type IConnectionRepository interface {
	Insert(conn Connection) error
	FindByPair(a, b string) (Connection, error)
	UpdateState(mentorID, menteeID string, state domain.ConnectionState) (Connection, error)
	Delete(mentorID, menteeID string) error
	ListByUser(userID string) ([]Connection, error)
}

type ConnectionRepository struct {
	db *badger.DB
}

func NewConnectionRepository(db *badger.DB) IConnectionRepository {
	return &ConnectionRepository{db: db}
}

// Connection is the repository-level representation of a relationship record.
type Connection struct {
	ID        uuid.UUID `json:"id"`
	MentorID  string    `json:"mentor_id"`
	MenteeID  string    `json:"mentee_id"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c Connection) ToDomain() domain.Connection {
	return domain.Connection{
		ID:        c.ID,
		MentorID:  c.MentorID,
		MenteeID:  c.MenteeID,
		State:     domain.ConnectionState(c.State),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func FromDomain(conn domain.Connection) Connection {
	return Connection{
		ID:        conn.ID,
		MentorID:  conn.MentorID,
		MenteeID:  conn.MenteeID,
		State:     string(conn.State),
		CreatedAt: conn.CreatedAt,
		UpdatedAt: conn.UpdatedAt,
	}
}

// connKey is the primary key, "conn:{mentor}:{mentee}".
// connRefKey is a reverse index, "connref:{mentee}:{mentor}", so that a
// mentee's connections can be listed by prefix scan too.
func connKey(mentorID, menteeID string) []byte {
	return []byte(fmt.Sprintf("conn:%s:%s", mentorID, menteeID))
}

func connRefKey(mentorID, menteeID string) []byte {
	return []byte(fmt.Sprintf("connref:%s:%s", menteeID, mentorID))
}

// Insert persists a new relationship record.
// The existence check and the writes share one transaction, so two
// simultaneous requests for the same pair cannot both commit: the loser
// observes either the existing record (sentinel by its state) or a commit
// conflict, which degrades to ErrAlreadyRequested rather than a duplicate.
func (r ConnectionRepository) Insert(conn Connection) error {
	data, err := json.Marshal(conn)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}

	key := connKey(conn.MentorID, conn.MenteeID)
	err = r.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err == nil {
			var existing Connection
			if err = item.Value(func(val []byte) error {
				return json.Unmarshal(val, &existing)
			}); err != nil {
				return err
			}
			if existing.State == string(domain.ConnectionAccepted) {
				return errors.ErrAlreadyConnected
			}
			return errors.ErrAlreadyRequested
		}
		if !stderrors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err = txn.Set(key, data); err != nil {
			return err
		}
		return txn.Set(connRefKey(conn.MentorID, conn.MenteeID), key)
	})
	if stderrors.Is(err, badger.ErrConflict) {
		// The concurrent request won the race; same outcome as a duplicate.
		return errors.ErrAlreadyRequested
	}
	return wrapStorage(err)
}

// FindByPair returns the record covering the unordered pair {a, b}.
// Both key orderings are probed: once accepted the relationship is
// directionless, so callers must not need to know who the mentor is.
func (r ConnectionRepository) FindByPair(a, b string) (Connection, error) {
	var record Connection
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(connKey(a, b))
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			item, err = txn.Get(connKey(b, a))
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})
	if err != nil {
		return Connection{}, wrapStorage(err)
	}
	return record, nil
}

// UpdateState transitions the record for the ordered (mentor, mentee) pair.
// A concurrent transition or deletion surfaces as ErrNotFound: exactly one
// racer succeeds, the other re-evaluates against the new state.
func (r ConnectionRepository) UpdateState(mentorID, menteeID string, state domain.ConnectionState) (Connection, error) {
	var record Connection
	key := connKey(mentorID, menteeID)
	err := r.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		if err = item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		}); err != nil {
			return err
		}
		record.State = string(state)
		record.UpdatedAt = time.Now().UTC()
		data, err := json.Marshal(record)
		if err != nil {
			return err
		}
		return txn.Set(key, data)
	})
	if stderrors.Is(err, badger.ErrConflict) {
		return Connection{}, errors.ErrNotFound
	}
	if err != nil {
		return Connection{}, wrapStorage(err)
	}
	return record, nil
}

// Delete removes the record and its reverse index entry.
func (r ConnectionRepository) Delete(mentorID, menteeID string) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		key := connKey(mentorID, menteeID)
		if _, err := txn.Get(key); err != nil {
			return err
		}
		if err := txn.Delete(key); err != nil {
			return err
		}
		return txn.Delete(connRefKey(mentorID, menteeID))
	})
	if stderrors.Is(err, badger.ErrConflict) {
		return errors.ErrNotFound
	}
	return wrapStorage(err)
}

// ListByUser returns every record the user appears in, on either side.
// Mentor-side records come from the primary prefix, mentee-side records
// from the reverse index resolved back to primary keys.
func (r ConnectionRepository) ListByUser(userID string) ([]Connection, error) {
	var records []Connection
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)

		asMentor := []byte("conn:" + userID + ":")
		for it.Seek(asMentor); it.ValidForPrefix(asMentor); it.Next() {
			record, err := decodeConnection(it.Item())
			if err != nil {
				it.Close()
				return err
			}
			records = append(records, record)
		}

		var primaryKeys [][]byte
		asMentee := []byte("connref:" + userID + ":")
		for it.Seek(asMentee); it.ValidForPrefix(asMentee); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				primaryKeys = append(primaryKeys, append([]byte(nil), val...))
				return nil
			})
			if err != nil {
				it.Close()
				return err
			}
		}
		it.Close()

		for _, key := range primaryKeys {
			item, err := txn.Get(key)
			if err != nil {
				return err
			}
			record, err := decodeConnection(item)
			if err != nil {
				return err
			}
			records = append(records, record)
		}
		return nil
	})
	if err != nil {
		return nil, wrapStorage(err)
	}
	return records, nil
}

func decodeConnection(item *badger.Item) (Connection, error) {
	var record Connection
	err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &record)
	})
	return record, err
}
