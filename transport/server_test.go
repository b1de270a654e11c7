package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"mentorlink/auth"
	"mentorlink/repositories"
	"mentorlink/runtime"
	"mentorlink/services"
)

func newTestServer(t *testing.T) *httptest.Server {
	req := require.New(t)
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
	tokens := auth.NewTokenIssuer("transport-test-secret")

	server := NewServer(log, tokens,
		services.NewAuthService(users, tokens, time.Hour),
		services.NewConnectionService(users, connections, log),
		services.NewChatService(services.NewAccessGuard(connections), messages, dispatcher, log),
		registry,
		Config{SessionBufferSize: 16, KeepAliveInterval: time.Minute})

	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return ts
}

// call performs a JSON request and returns the status code and parsed body.
func call(t *testing.T, ts *httptest.Server, method, path, token string, payload any) (int, gjson.Result) {
	req := require.New(t)
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		req.NoError(err)
		body = bytes.NewReader(data)
	}
	httpReq, err := http.NewRequest(method, ts.URL+path, body)
	req.NoError(err)
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.Client().Do(httpReq)
	req.NoError(err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	req.NoError(err)
	return resp.StatusCode, gjson.ParseBytes(raw)
}

func registerAccount(t *testing.T, ts *httptest.Server, fullName, email, role string) string {
	req := require.New(t)
	status, body := call(t, ts, http.MethodPost, "/api/auth/register", "", map[string]string{
		"full_name": fullName,
		"email":     email,
		"password":  "ComplexPass123!",
		"role":      role,
	})
	req.Equal(http.StatusCreated, status)
	token := body.Get("token").String()
	req.NotEmpty(token)
	return token
}

func TestServer_AuthFlow(t *testing.T) {
	req := require.New(t)
	ts := newTestServer(t)

	registerAccount(t, ts, "Grace Hopper", "grace@example.com", "mentor")

	// Duplicate email is refused.
	status, _ := call(t, ts, http.MethodPost, "/api/auth/register", "", map[string]string{
		"full_name": "Grace Again",
		"email":     "grace@example.com",
		"password":  "ComplexPass123!",
		"role":      "mentor",
	})
	req.Equal(http.StatusBadRequest, status)

	// Login round trip.
	status, body := call(t, ts, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "grace@example.com",
		"password": "ComplexPass123!",
	})
	req.Equal(http.StatusOK, status)
	req.NotEmpty(body.Get("token").String())

	// Wrong password gets the same generic rejection.
	status, _ = call(t, ts, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "grace@example.com",
		"password": "WrongPassword1!",
	})
	req.Equal(http.StatusForbidden, status)

	// Protected routes demand a token.
	status, _ = call(t, ts, http.MethodGet, "/api/connections", "", nil)
	req.Equal(http.StatusUnauthorized, status)
}

func TestServer_ConnectionAndMessagingFlow(t *testing.T) {
	req := require.New(t)
	ts := newTestServer(t)

	mentorToken := registerAccount(t, ts, "Grace Hopper", "grace@example.com", "mentor")
	menteeToken := registerAccount(t, ts, "Alan Kay", "alan@example.com", "mentee")
	strangerToken := registerAccount(t, ts, "Eve Intrusive", "eve@example.com", "mentee")

	// The mentee discovers the mentor in the directory.
	status, body := call(t, ts, http.MethodGet, "/api/mentors", menteeToken, nil)
	req.Equal(http.StatusOK, status)
	req.Len(body.Array(), 1)
	mentorID := body.Get("0.id").String()
	req.Equal("none", body.Get("0.status").String())

	// Messaging before any relationship is uniformly rejected.
	status, _ = call(t, ts, http.MethodPost, "/api/messages/"+mentorID, menteeToken,
		map[string]string{"body": "hello?"})
	req.Equal(http.StatusForbidden, status)

	// Request, then the mentor accepts.
	status, _ = call(t, ts, http.MethodPost, "/api/connections/request/"+mentorID, menteeToken, nil)
	req.Equal(http.StatusCreated, status)

	status, body = call(t, ts, http.MethodGet, "/api/connections/pending", mentorToken, nil)
	req.Equal(http.StatusOK, status)
	req.Len(body.Array(), 1)
	menteeID := body.Get("0.id").String()

	status, body = call(t, ts, http.MethodPost, "/api/connections/accept/"+menteeID, mentorToken, nil)
	req.Equal(http.StatusOK, status)
	req.Equal("accepted", body.Get("state").String())

	// Messages now flow and come back oldest first.
	status, _ = call(t, ts, http.MethodPost, "/api/messages/"+mentorID, menteeToken,
		map[string]string{"body": "thanks for accepting"})
	req.Equal(http.StatusCreated, status)
	status, _ = call(t, ts, http.MethodPost, "/api/messages/"+menteeID, mentorToken,
		map[string]string{"body": "happy to help"})
	req.Equal(http.StatusCreated, status)

	status, body = call(t, ts, http.MethodGet, "/api/messages/"+menteeID, mentorToken, nil)
	req.Equal(http.StatusOK, status)
	req.Len(body.Array(), 2)
	req.Equal("thanks for accepting", body.Get("0.body").String())
	req.Equal("happy to help", body.Get("1.body").String())

	// A stranger reads and writes nothing, and cannot tell the pair exists.
	status, _ = call(t, ts, http.MethodGet, "/api/messages/"+mentorID, strangerToken, nil)
	req.Equal(http.StatusForbidden, status)

	// Removal closes the channel.
	status, _ = call(t, ts, http.MethodDelete, "/api/connections/"+mentorID, menteeToken, nil)
	req.Equal(http.StatusNoContent, status)
	status, _ = call(t, ts, http.MethodPost, "/api/messages/"+mentorID, menteeToken,
		map[string]string{"body": "one more"})
	req.Equal(http.StatusForbidden, status)
}

func TestServer_WebsocketDelivery(t *testing.T) {
	req := require.New(t)
	ts := newTestServer(t)

	mentorToken := registerAccount(t, ts, "Grace Hopper", "grace@example.com", "mentor")
	menteeToken := registerAccount(t, ts, "Alan Kay", "alan@example.com", "mentee")

	_, body := call(t, ts, http.MethodGet, "/api/mentors", menteeToken, nil)
	mentorID := body.Get("0.id").String()
	call(t, ts, http.MethodPost, "/api/connections/request/"+mentorID, menteeToken, nil)
	_, body = call(t, ts, http.MethodGet, "/api/connections/pending", mentorToken, nil)
	menteeID := body.Get("0.id").String()
	call(t, ts, http.MethodPost, "/api/connections/accept/"+menteeID, mentorToken, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := strings.Replace(ts.URL, "http://", "ws://", 1)
	conn, _, err := websocket.Dial(ctx, fmt.Sprintf("%s/ws?token=%s", wsURL, mentorToken), nil)
	req.NoError(err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	// Wait for the server side of the handshake to register the session.
	req.Eventually(func() bool {
		_, online := call(t, ts, http.MethodGet, "/api/online", menteeToken, nil)
		return len(online.Array()) == 1
	}, 2*time.Second, 20*time.Millisecond)

	status, _ := call(t, ts, http.MethodPost, "/api/messages/"+mentorID, menteeToken,
		map[string]string{"body": "realtime hello"})
	req.Equal(http.StatusCreated, status)

	_, frame, err := conn.Read(ctx)
	req.NoError(err)
	req.Equal("message", gjson.GetBytes(frame, "type").String())
	req.Equal("realtime hello", gjson.GetBytes(frame, "body").String())
	req.Equal(mentorID, gjson.GetBytes(frame, "recipient_id").String())
}

func TestServer_WebsocketDisconnectClearsPresence(t *testing.T) {
	req := require.New(t)
	ts := newTestServer(t)

	mentorToken := registerAccount(t, ts, "Grace Hopper", "grace@example.com", "mentor")
	menteeToken := registerAccount(t, ts, "Alan Kay", "alan@example.com", "mentee")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := strings.Replace(ts.URL, "http://", "ws://", 1)
	conn, _, err := websocket.Dial(ctx, fmt.Sprintf("%s/ws?token=%s", wsURL, mentorToken), nil)
	req.NoError(err)

	req.Eventually(func() bool {
		_, online := call(t, ts, http.MethodGet, "/api/online", menteeToken, nil)
		return len(online.Array()) == 1
	}, 2*time.Second, 20*time.Millisecond)

	// A clean client close must tear the whole session down and free the
	// presence slot, not just end the read side.
	req.NoError(conn.Close(websocket.StatusNormalClosure, ""))

	req.Eventually(func() bool {
		_, online := call(t, ts, http.MethodGet, "/api/online", menteeToken, nil)
		return len(online.Array()) == 0
	}, 2*time.Second, 20*time.Millisecond)
}
