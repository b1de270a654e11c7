// Package transport exposes the core over HTTP and WebSocket: a JSON API
// for accounts, connections and messages, and a /ws endpoint for realtime
// delivery. It plays the role the Express routes and socket server play in
// the surrounding application.
package transport

import (
	"log/slog"
	"net/http"
	"time"

	"mentorlink/auth"
	"mentorlink/contract"
	"mentorlink/services"
)

type Config struct {
	SessionBufferSize int
	KeepAliveInterval time.Duration
}

type Server struct {
	log         *slog.Logger
	tokens      *auth.TokenIssuer
	authService services.IAuthService
	connections services.IConnectionService
	chat        services.IChatService
	registry    contract.IRegistry
	config      Config
}

func NewServer(log *slog.Logger, tokens *auth.TokenIssuer,
	authService services.IAuthService, connections services.IConnectionService,
	chat services.IChatService, registry contract.IRegistry, config Config) *Server {
	return &Server{
		log:         log,
		tokens:      tokens,
		authService: authService,
		connections: connections,
		chat:        chat,
		registry:    registry,
		config:      config,
	}
}

// Handler wires all routes. Everything below /api except auth requires a
// valid bearer token; /ws authenticates the same way before upgrading.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)

	mux.Handle("POST /api/connections/request/{mentorID}", s.authenticated(s.handleRequestConnection))
	mux.Handle("POST /api/connections/accept/{menteeID}", s.authenticated(s.handleAcceptConnection))
	mux.Handle("POST /api/connections/reject/{menteeID}", s.authenticated(s.handleRejectConnection))
	mux.Handle("DELETE /api/connections/{userID}", s.authenticated(s.handleRemoveConnection))
	mux.Handle("GET /api/connections", s.authenticated(s.handleListCounterparts))
	mux.Handle("GET /api/connections/pending", s.authenticated(s.handleListPending))
	mux.Handle("GET /api/mentors", s.authenticated(s.handleListMentors))

	mux.Handle("GET /api/messages/{userID}", s.authenticated(s.handleFetchMessages))
	mux.Handle("POST /api/messages/{userID}", s.authenticated(s.handleSendMessage))

	mux.Handle("GET /api/online", s.authenticated(s.handleOnlineUsers))

	mux.Handle("GET /ws", s.authenticated(s.handleWebSocket))

	return mux
}
