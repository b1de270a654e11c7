//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"mentorlink/domain"
)

type IMessageRepository interface {
	StoreMessage(message DiskMessage) error
	QueryByPair(a, b string) ([]DiskMessage, error)
}

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) IMessageRepository {
	return MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

// DiskMessage is the persistence representation of a chat message.
type DiskMessage struct {
	ID           uuid.UUID `json:"id"`
	SenderID     string    `json:"sender_id"`
	RecipientID  string    `json:"recipient_id"`
	Body         string    `json:"body,omitempty"`
	Attachment   string    `json:"attachment,omitempty"`
	ConnectionID uuid.UUID `json:"connection_id"`
	At           time.Time `json:"at"`
}

func (m DiskMessage) ToDomain() domain.Message {
	return domain.Message{
		ID:           m.ID,
		SenderID:     m.SenderID,
		RecipientID:  m.RecipientID,
		Body:         m.Body,
		Attachment:   m.Attachment,
		ConnectionID: m.ConnectionID,
		CreatedAt:    m.At,
	}
}

func FromDomainMessage(msg domain.Message) DiskMessage {
	return DiskMessage{
		ID:           msg.ID,
		SenderID:     msg.SenderID,
		RecipientID:  msg.RecipientID,
		Body:         msg.Body,
		Attachment:   msg.Attachment,
		ConnectionID: msg.ConnectionID,
		At:           msg.CreatedAt,
	}
}

// StoreMessage persists a message in BadgerDB.
// The key is formatted as "msg:{pair_key}:{timestamp_padded}:{uuid}" to:
//  1. Keep both directions of a conversation under one prefix, since the
//     pair key is canonical for the unordered {sender, recipient} pair.
//  2. Ensure chronological sorting using 19-digit zero padding
//     (lexicographical order).
//  3. Prevent data loss by using UUID as a collision disconnector if two
//     messages arrive at the same nanosecond.
func (m MessageRepository) StoreMessage(message DiskMessage) error {
	key := fmt.Sprintf("msg:%s:%019d:%s",
		domain.PairKey(message.SenderID, message.RecipientID),
		message.At.UnixNano(),
		message.ID,
	)
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
	return wrapStorage(err)
}

// QueryByPair retrieves the conversation between two users, oldest first.
// Thanks to the padded timestamp in the key, a forward prefix scan yields
// messages already sorted by creation time. When limitMessages is set, the
// scan stops after that many messages.
func (m MessageRepository) QueryByPair(a, b string) ([]DiskMessage, error) {
	var messages []DiskMessage
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("msg:%s:", domain.PairKey(a, b)))
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(messages) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d messages reached", *m.limitMessages))
				break
			}
			err := it.Item().Value(func(val []byte) error {
				var message DiskMessage
				if err := json.Unmarshal(val, &message); err != nil {
					return err
				}
				messages = append(messages, message)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, wrapStorage(err)
	}
	return messages, nil
}
