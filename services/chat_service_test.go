package services

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"mentorlink/domain"
	"mentorlink/errors"
	"mentorlink/mocks"
	"mentorlink/repositories"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

func newChatFixture(t *testing.T) (*ChatService, *mocks.MockIConnectionRepository,
	*mocks.MockIMessageRepository, *mocks.MockIDispatcher) {
	ctrl := gomock.NewController(t)
	mockConnections := mocks.NewMockIConnectionRepository(ctrl)
	mockMessages := mocks.NewMockIMessageRepository(ctrl)
	mockDispatcher := mocks.NewMockIDispatcher(ctrl)
	svc := NewChatService(NewAccessGuard(mockConnections), mockMessages, mockDispatcher, slog.Default())
	return svc, mockConnections, mockMessages, mockDispatcher
}

func TestChatService_SendMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("persists and dispatches a message on an accepted connection", func(t *testing.T) {
		req := require.New(t)
		svc, mockConnections, mockMessages, mockDispatcher := newChatFixture(t)
		record := storedConnection("mentor-1", "mentee-1", domain.ConnectionAccepted)

		mockConnections.EXPECT().FindByPair("mentee-1", "mentor-1").Return(record, nil)
		mockMessages.EXPECT().
			StoreMessage(gomock.Any()).
			Do(func(m repositories.DiskMessage) {
				req.Equal("mentee-1", m.SenderID)
				req.Equal("mentor-1", m.RecipientID)
				req.Equal("hello", m.Body)
				req.Equal(record.ID, m.ConnectionID)
			}).
			Return(nil)
		mockDispatcher.EXPECT().Dispatch(ctx, gomock.Any())

		message, err := svc.SendMessage(ctx, SendMessageCommand{
			SenderID:    "mentee-1",
			RecipientID: "mentor-1",
			Body:        "hello",
		})
		req.NoError(err)
		req.Equal(record.ID, message.ConnectionID)
	})

	t.Run("rejects an empty message before touching the store", func(t *testing.T) {
		req := require.New(t)
		svc, _, _, _ := newChatFixture(t)

		_, err := svc.SendMessage(ctx, SendMessageCommand{SenderID: "a", RecipientID: "b"})
		req.ErrorIs(err, errors.ErrEmptyMessage)
	})

	t.Run("denies a sender without an accepted connection", func(t *testing.T) {
		req := require.New(t)
		svc, mockConnections, _, _ := newChatFixture(t)
		mockConnections.EXPECT().FindByPair("stranger", "mentor-1").
			Return(repositories.Connection{}, errors.ErrNotFound)

		_, err := svc.SendMessage(ctx, SendMessageCommand{
			SenderID:    "stranger",
			RecipientID: "mentor-1",
			Body:        "hi",
		})
		req.ErrorIs(err, errors.ErrUnauthorized)
	})

	t.Run("encodes an image attachment as a data reference", func(t *testing.T) {
		req := require.New(t)
		svc, mockConnections, mockMessages, mockDispatcher := newChatFixture(t)
		record := storedConnection("mentor-1", "mentee-1", domain.ConnectionAccepted)

		mockConnections.EXPECT().FindByPair("mentee-1", "mentor-1").Return(record, nil)
		mockMessages.EXPECT().
			StoreMessage(gomock.Any()).
			Do(func(m repositories.DiskMessage) {
				req.True(strings.HasPrefix(m.Attachment, "data:image/png;base64,"))
			}).
			Return(nil)
		mockDispatcher.EXPECT().Dispatch(ctx, gomock.Any())

		_, err := svc.SendMessage(ctx, SendMessageCommand{
			SenderID:    "mentee-1",
			RecipientID: "mentor-1",
			Attachment:  pngHeader,
		})
		req.NoError(err)
	})

	t.Run("rejects a non-image attachment", func(t *testing.T) {
		req := require.New(t)
		svc, _, _, _ := newChatFixture(t)

		_, err := svc.SendMessage(ctx, SendMessageCommand{
			SenderID:    "mentee-1",
			RecipientID: "mentor-1",
			Attachment:  []byte("plain text pretending to be media"),
		})
		req.ErrorIs(err, errors.ErrUnsupportedAttachment)
	})
}

func TestChatService_FetchMessages(t *testing.T) {
	t.Run("returns the conversation after authorization", func(t *testing.T) {
		req := require.New(t)
		svc, mockConnections, mockMessages, _ := newChatFixture(t)
		record := storedConnection("mentor-1", "mentee-1", domain.ConnectionAccepted)

		mockConnections.EXPECT().FindByPair("mentor-1", "mentee-1").Return(record, nil)
		mockMessages.EXPECT().QueryByPair("mentor-1", "mentee-1").Return([]repositories.DiskMessage{
			{ID: uuid.New(), SenderID: "mentee-1", RecipientID: "mentor-1", Body: "first"},
			{ID: uuid.New(), SenderID: "mentor-1", RecipientID: "mentee-1", Body: "second"},
		}, nil)

		messages, err := svc.FetchMessages("mentor-1", "mentee-1")
		req.NoError(err)
		req.Len(messages, 2)
		req.Equal("first", messages[0].Body)
	})

	t.Run("denies a viewer without an accepted connection", func(t *testing.T) {
		req := require.New(t)
		svc, mockConnections, mockMessages, _ := newChatFixture(t)

		mockConnections.EXPECT().FindByPair("stranger", "mentor-1").
			Return(repositories.Connection{}, errors.ErrNotFound)
		mockMessages.EXPECT().QueryByPair(gomock.Any(), gomock.Any()).Times(0)

		_, err := svc.FetchMessages("stranger", "mentor-1")
		req.ErrorIs(err, errors.ErrUnauthorized)
	})
}
