package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"mentorlink/contract"
	"mentorlink/domain"
	"mentorlink/errors"
	"mentorlink/repositories"
)

type IChatService interface {
	SendMessage(ctx context.Context, cmd SendMessageCommand) (domain.Message, error)
	FetchMessages(viewerID, counterpartID string) ([]domain.Message, error)
}

// SendMessageCommand carries a sending intent. Attachment holds the raw
// media bytes as uploaded; it is sniffed and re-encoded as an opaque
// data reference before storage.
type SendMessageCommand struct {
	SenderID    string
	RecipientID string
	Body        string
	Attachment  []byte
}

// ChatService authorizes, persists and dispatches chat messages. Delivery
// to a live session is best-effort; durability comes from the store alone.
type ChatService struct {
	guard      *AccessGuard
	messages   repositories.IMessageRepository
	dispatcher contract.IDispatcher
	log        *slog.Logger
}

func NewChatService(guard *AccessGuard, messages repositories.IMessageRepository,
	dispatcher contract.IDispatcher, log *slog.Logger) *ChatService {
	return &ChatService{guard: guard, messages: messages, dispatcher: dispatcher, log: log}
}

// SendMessage persists a message bound to the accepted connection that
// authorized it, then hands it to the dispatcher for realtime push.
// The connection reference is resolved at creation time and never revised:
// removing the connection later does not unsend anything.
func (s *ChatService) SendMessage(ctx context.Context, cmd SendMessageCommand) (domain.Message, error) {
	if cmd.Body == "" && len(cmd.Attachment) == 0 {
		return domain.Message{}, errors.ErrEmptyMessage
	}

	attachment, err := encodeAttachment(cmd.Attachment)
	if err != nil {
		return domain.Message{}, err
	}

	conn, err := s.guard.Authorize(cmd.SenderID, cmd.RecipientID)
	if err != nil {
		return domain.Message{}, err
	}

	message := domain.Message{
		ID:           uuid.New(),
		SenderID:     cmd.SenderID,
		RecipientID:  cmd.RecipientID,
		Body:         cmd.Body,
		Attachment:   attachment,
		ConnectionID: conn.ID,
		CreatedAt:    time.Now().UTC(),
	}
	if err = s.messages.StoreMessage(repositories.FromDomainMessage(message)); err != nil {
		return domain.Message{}, err
	}

	s.dispatcher.Dispatch(ctx, message)
	return message, nil
}

// FetchMessages returns the full conversation between viewer and
// counterpart, oldest first, after the same authorization check as send.
func (s *ChatService) FetchMessages(viewerID, counterpartID string) ([]domain.Message, error) {
	if _, err := s.guard.Authorize(viewerID, counterpartID); err != nil {
		return nil, err
	}
	diskMessages, err := s.messages.QueryByPair(viewerID, counterpartID)
	if err != nil {
		return nil, err
	}
	return lo.Map(diskMessages, func(m repositories.DiskMessage, _ int) domain.Message {
		return m.ToDomain()
	}), nil
}

// encodeAttachment sniffs the media type and produces the stored opaque
// reference. Only images are allowed, mirroring the upload policy of the
// surrounding application.
func encodeAttachment(data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	mime := mimetype.Detect(data)
	if !strings.HasPrefix(mime.String(), "image/") {
		return "", fmt.Errorf("%w: %s", errors.ErrUnsupportedAttachment, mime.String())
	}
	return fmt.Sprintf("data:%s;base64,%s", mime.String(),
		base64.StdEncoding.EncodeToString(data)), nil
}
