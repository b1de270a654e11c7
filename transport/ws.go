package transport

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"mentorlink/domain/event"
	"mentorlink/services"
	"mentorlink/sink"
)

// wireFrame is the envelope for every outbound websocket frame.
type wireFrame struct {
	Type         string    `json:"type"`
	ID           string    `json:"id,omitempty"`
	SenderID     string    `json:"sender_id,omitempty"`
	RecipientID  string    `json:"recipient_id,omitempty"`
	Body         string    `json:"body,omitempty"`
	Attachment   string    `json:"attachment,omitempty"`
	ConnectionID string    `json:"connection_id,omitempty"`
	Online       []string  `json:"online,omitempty"`
	At           time.Time `json:"at,omitempty"`
	Error        string    `json:"error,omitempty"`
}

// handleWebSocket upgrades the connection, registers the session in the
// presence registry, and runs until the client disconnects. Registration
// and unregistration are the only places presence state changes.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "session terminated")

	userID := callerID(r)
	sessionID := uuid.New()
	sessionSink := sink.NewChannelSink(s.config.SessionBufferSize)

	s.registry.Register(userID, sessionID, sessionSink)
	defer s.registry.Unregister(userID, sessionID)

	s.log.Info("session opened", "user_id", userID, "session_id", sessionID)
	defer s.log.Info("session closed", "user_id", userID, "session_id", sessionID)

	// The request context is not cancelled when the client goes away (the
	// connection is hijacked), so the session owns its own cancellation:
	// whichever loop exits first takes the other one down with it.
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	writeDone := make(chan struct{})
	go func() {
		defer close(writeDone)
		s.writeLoop(ctx, conn, sessionSink)
		cancel()
	}()

	s.readLoop(ctx, conn, userID)
	cancel()
	<-writeDone
	conn.Close(websocket.StatusNormalClosure, "")
}

// writeLoop drains the session sink and pushes frames to the client. It
// also owns liveness: sessions may be listen-only, so an idle peer is
// probed with a ping instead of being cut off by a read deadline.
func (s *Server) writeLoop(ctx context.Context, conn *websocket.Conn, sessionSink *sink.ChannelSink) {
	keepalive := time.NewTicker(s.config.KeepAliveInterval)
	defer keepalive.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-keepalive.C:
			pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				s.log.Warn("keepalive ping failed", "error", err)
				return
			}
		case e := <-sessionSink.Events():
			frame, ok := toWireFrame(e)
			if !ok {
				continue
			}
			data, err := json.Marshal(frame)
			if err != nil {
				s.log.Error("frame encoding failed", "error", err)
				continue
			}
			if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
				s.log.Warn("frame write failed", "error", err)
				return
			}
		}
	}
}

// readLoop consumes inbound frames. The only accepted client frame is a
// send intent; everything else the client does goes through the HTTP API.
// Reads block on the session context: a silent client is legitimate, and
// a dead one is detected by the write loop's keepalive ping.
func (s *Server) readLoop(ctx context.Context, conn *websocket.Conn, userID string) {
	for {
		typ, reader, err := conn.Reader(ctx)
		if err != nil {
			return
		}
		if typ != websocket.MessageText {
			continue
		}
		payload, err := io.ReadAll(reader)
		if err != nil {
			return
		}
		s.handleInboundFrame(ctx, conn, userID, payload)
	}
}

func (s *Server) handleInboundFrame(ctx context.Context, conn *websocket.Conn, userID string, payload []byte) {
	if gjson.GetBytes(payload, "type").String() != "send" {
		return
	}
	attachment, err := base64.StdEncoding.DecodeString(gjson.GetBytes(payload, "attachment").String())
	if err != nil {
		s.writeErrorFrame(ctx, conn, "invalid attachment encoding")
		return
	}
	_, err = s.chat.SendMessage(ctx, services.SendMessageCommand{
		SenderID:    userID,
		RecipientID: gjson.GetBytes(payload, "to").String(),
		Body:        gjson.GetBytes(payload, "body").String(),
		Attachment:  attachment,
	})
	if err != nil {
		s.writeErrorFrame(ctx, conn, err.Error())
	}
}

func (s *Server) writeErrorFrame(ctx context.Context, conn *websocket.Conn, message string) {
	data, err := json.Marshal(wireFrame{Type: "error", Error: message, At: time.Now().UTC()})
	if err != nil {
		return
	}
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		s.log.Warn("error frame write failed", "error", err)
	}
}

func toWireFrame(e event.DomainEvent) (wireFrame, bool) {
	switch evt := e.(type) {
	case event.MessageDelivered:
		return wireFrame{
			Type:         "message",
			ID:           evt.ID.String(),
			SenderID:     evt.SenderID,
			RecipientID:  evt.RecipientID,
			Body:         evt.Body,
			Attachment:   evt.Attachment,
			ConnectionID: evt.ConnectionID.String(),
			At:           evt.At,
		}, true
	case event.PresenceChanged:
		return wireFrame{
			Type:   "presence",
			Online: evt.OnlineUserIDs,
			At:     evt.At,
		}, true
	default:
		return wireFrame{}, false
	}
}
