package test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"mentorlink/auth"
	"mentorlink/domain"
	"mentorlink/domain/event"
	"mentorlink/errors"
	"mentorlink/repositories"
	"mentorlink/runtime"
	"mentorlink/services"
	"mentorlink/sink"
)

type fixture struct {
	users       repositories.IUserRepository
	authService services.IAuthService
	connections services.IConnectionService
	chat        services.IChatService
	registry    *runtime.Registry
}

func newFixture(t *testing.T) fixture {
	req := require.New(t)
	// Reduced to 16 Mo for testing (avoid 20 Go of storage)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).
		WithLoggingLevel(badger.ERROR).
		WithValueLogFileSize(16 << 20))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })

	log := slog.Default()
	users := repositories.NewUserRepository(db)
	connections := repositories.NewConnectionRepository(db)
	messages := repositories.NewMessageRepository(db, log, lo.ToPtr(100))
	registry := runtime.NewRegistry(log, 16)
	dispatcher := runtime.NewDispatcher(registry, log)
	tokens := auth.NewTokenIssuer("integration-secret")

	return fixture{
		users:       users,
		authService: services.NewAuthService(users, tokens, time.Hour),
		connections: services.NewConnectionService(users, connections, log),
		chat: services.NewChatService(
			services.NewAccessGuard(connections), messages, dispatcher, log),
		registry: registry,
	}
}

func (f fixture) registerUser(t *testing.T, fullName, email, role string) string {
	req := require.New(t)
	_, err := f.authService.Register(fullName, email, "ComplexPass123!", role)
	req.NoError(err)
	record, err := f.users.GetUserByEmail(email)
	req.NoError(err)
	return record.ID
}

func Test_Scenario_MentorshipLifecycle(t *testing.T) {
	ctx := context.Background()
	req := require.New(t)
	f := newFixture(t)

	mentor := f.registerUser(t, "Grace Hopper", "grace@example.com", "mentor")
	mentee := f.registerUser(t, "Alan Kay", "alan@example.com", "mentee")
	stranger := f.registerUser(t, "Eve Intrusive", "eve@example.com", "mentee")

	// 1. Messaging is closed before any relationship exists.
	_, err := f.chat.SendMessage(ctx, services.SendMessageCommand{
		SenderID: mentee, RecipientID: mentor, Body: "hello?",
	})
	req.ErrorIs(err, errors.ErrUnauthorized)

	// 2. The mentee requests the mentor; the pair is now pending.
	conn, err := f.connections.Request(mentee, mentor)
	req.NoError(err)
	req.Equal(domain.ConnectionPending, conn.State)

	// A second request for the same pair is refused.
	_, err = f.connections.Request(mentee, mentor)
	req.ErrorIs(err, errors.ErrAlreadyRequested)

	// Pending is still not enough to message.
	_, err = f.chat.SendMessage(ctx, services.SendMessageCommand{
		SenderID: mentee, RecipientID: mentor, Body: "too early",
	})
	req.ErrorIs(err, errors.ErrUnauthorized)

	// 3. The mentor sees the pending request and accepts it.
	pending, err := f.connections.ListPendingRequests(mentor)
	req.NoError(err)
	req.Len(pending, 1)
	req.Equal(mentee, pending[0].ID)

	accepted, err := f.connections.Accept(mentor, mentee)
	req.NoError(err)
	req.Equal(domain.ConnectionAccepted, accepted.State)

	// 4. The recipient is online; messages flow both ways and are pushed.
	mentorSink := sink.NewChannelSink(16)
	mentorSession := uuid.New()
	f.registry.Register(mentor, mentorSession, mentorSink)

	sent, err := f.chat.SendMessage(ctx, services.SendMessageCommand{
		SenderID: mentee, RecipientID: mentor, Body: "thanks for accepting",
	})
	req.NoError(err)
	req.Equal(accepted.ID, sent.ConnectionID)

	select {
	case e := <-mentorSink.Events():
		delivered, ok := e.(event.MessageDelivered)
		req.True(ok)
		req.Equal(sent.ID, delivered.ID)
	case <-time.After(time.Second):
		req.Fail("expected a realtime push to the online mentor")
	}

	_, err = f.chat.SendMessage(ctx, services.SendMessageCommand{
		SenderID: mentor, RecipientID: mentee, Body: "happy to help",
	})
	req.NoError(err)

	// 5. A stranger still cannot read or write, and cannot tell the pair exists.
	_, err = f.chat.SendMessage(ctx, services.SendMessageCommand{
		SenderID: stranger, RecipientID: mentor, Body: "let me in",
	})
	req.ErrorIs(err, errors.ErrUnauthorized)
	_, err = f.chat.FetchMessages(stranger, mentor)
	req.ErrorIs(err, errors.ErrUnauthorized)

	// 6. Both parties read the conversation oldest first.
	history, err := f.chat.FetchMessages(mentor, mentee)
	req.NoError(err)
	req.Len(history, 2)
	req.Equal("thanks for accepting", history[0].Body)
	req.Equal("happy to help", history[1].Body)

	// 7. Removing the connection closes the channel but keeps the history
	// in the store for whoever regains access later.
	req.NoError(f.connections.Remove(mentee, mentor))
	_, err = f.chat.SendMessage(ctx, services.SendMessageCommand{
		SenderID: mentee, RecipientID: mentor, Body: "one more thing",
	})
	req.ErrorIs(err, errors.ErrUnauthorized)
	_, err = f.chat.FetchMessages(mentor, mentee)
	req.ErrorIs(err, errors.ErrUnauthorized)

	// 8. The pair may reconnect, and the old conversation is still there.
	_, err = f.connections.Request(mentee, mentor)
	req.NoError(err)
	_, err = f.connections.Accept(mentor, mentee)
	req.NoError(err)

	history, err = f.chat.FetchMessages(mentee, mentor)
	req.NoError(err)
	req.Len(history, 2)
}

func Test_Scenario_RejectionLeavesNoTrace(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	mentor := f.registerUser(t, "Grace Hopper", "grace@example.com", "mentor")
	mentee := f.registerUser(t, "Alan Kay", "alan@example.com", "mentee")

	_, err := f.connections.Request(mentee, mentor)
	req.NoError(err)

	// Only the mentor may answer the request.
	req.ErrorIs(f.connections.Reject(mentee, mentor), errors.ErrForbidden)
	req.NoError(f.connections.Reject(mentor, mentee))

	// The rejection deleted the record, so the mentee may ask again.
	conn, err := f.connections.Request(mentee, mentor)
	req.NoError(err)
	req.Equal(domain.ConnectionPending, conn.State)
}

func Test_Scenario_PresenceFollowsSessions(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	mentor := f.registerUser(t, "Grace Hopper", "grace@example.com", "mentor")

	sessionID := uuid.New()
	f.registry.Register(mentor, sessionID, sink.NewChannelSink(4))
	req.True(f.registry.IsOnline(mentor))
	req.Equal([]string{mentor}, f.registry.OnlineUsers())

	// A stale session id cannot take the live session offline.
	f.registry.Unregister(mentor, uuid.New())
	req.True(f.registry.IsOnline(mentor))

	f.registry.Unregister(mentor, sessionID)
	req.False(f.registry.IsOnline(mentor))
	req.Empty(f.registry.OnlineUsers())
}
