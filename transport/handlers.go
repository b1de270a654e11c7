package transport

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/samber/lo"

	"mentorlink/domain"
	"mentorlink/errors"
	"mentorlink/services"
)

type registerRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type sendMessageRequest struct {
	Body       string `json:"body,omitempty"`
	Attachment string `json:"attachment,omitempty"` // base64 media payload
}

type messageResponse struct {
	ID           string    `json:"id"`
	SenderID     string    `json:"sender_id"`
	RecipientID  string    `json:"recipient_id"`
	Body         string    `json:"body,omitempty"`
	Attachment   string    `json:"attachment,omitempty"`
	ConnectionID string    `json:"connection_id"`
	CreatedAt    time.Time `json:"created_at"`
}

type connectionResponse struct {
	ID        string    `json:"id"`
	MentorID  string    `json:"mentor_id"`
	MenteeID  string    `json:"mentee_id"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type userResponse struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type mentorOverviewResponse struct {
	userResponse
	Status string `json:"status"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	token, err := s.authService.Register(req.FullName, req.Email, req.Password, req.Role)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, tokenResponse{Token: string(token)})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	token, err := s.authService.Login(req.Email, req.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, tokenResponse{Token: string(token)})
}

func (s *Server) handleRequestConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := s.connections.Request(callerID(r), r.PathValue("mentorID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toConnectionResponse(conn))
}

func (s *Server) handleAcceptConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := s.connections.Accept(callerID(r), r.PathValue("menteeID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toConnectionResponse(conn))
}

func (s *Server) handleRejectConnection(w http.ResponseWriter, r *http.Request) {
	if err := s.connections.Reject(callerID(r), r.PathValue("menteeID")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveConnection(w http.ResponseWriter, r *http.Request) {
	if err := s.connections.Remove(callerID(r), r.PathValue("userID")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCounterparts(w http.ResponseWriter, r *http.Request) {
	users, err := s.connections.ListAcceptedCounterparts(callerID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, lo.Map(users, toUserResponse))
}

func (s *Server) handleListPending(w http.ResponseWriter, r *http.Request) {
	users, err := s.connections.ListPendingRequests(callerID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, lo.Map(users, toUserResponse))
}

func (s *Server) handleListMentors(w http.ResponseWriter, r *http.Request) {
	overviews, err := s.connections.ListMentors(callerID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, lo.Map(overviews, func(o services.MentorOverview, _ int) mentorOverviewResponse {
		return mentorOverviewResponse{
			userResponse: toUserResponse(o.Mentor, 0),
			Status:       o.Status,
		}
	}))
}

func (s *Server) handleFetchMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := s.chat.FetchMessages(callerID(r), r.PathValue("userID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, lo.Map(messages, toMessageResponse))
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	attachment, err := base64.StdEncoding.DecodeString(req.Attachment)
	if err != nil {
		http.Error(w, "invalid attachment encoding", http.StatusBadRequest)
		return
	}
	message, err := s.chat.SendMessage(r.Context(), services.SendMessageCommand{
		SenderID:    callerID(r),
		RecipientID: r.PathValue("userID"),
		Body:        req.Body,
		Attachment:  attachment,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toMessageResponse(message, 0))
}

func (s *Server) handleOnlineUsers(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.registry.OnlineUsers())
}

func toConnectionResponse(conn domain.Connection) connectionResponse {
	return connectionResponse{
		ID:        conn.ID.String(),
		MentorID:  conn.MentorID,
		MenteeID:  conn.MenteeID,
		State:     string(conn.State),
		CreatedAt: conn.CreatedAt,
		UpdatedAt: conn.UpdatedAt,
	}
}

func toMessageResponse(m domain.Message, _ int) messageResponse {
	return messageResponse{
		ID:           m.ID.String(),
		SenderID:     m.SenderID,
		RecipientID:  m.RecipientID,
		Body:         m.Body,
		Attachment:   m.Attachment,
		ConnectionID: m.ConnectionID.String(),
		CreatedAt:    m.CreatedAt,
	}
}

func toUserResponse(u domain.User, _ int) userResponse {
	return userResponse{
		ID:       u.ID,
		FullName: u.FullName,
		Email:    u.Email,
		Role:     string(u.Role),
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("response encoding failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := errors.MapToStatusCode(err)
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "error", err)
		http.Error(w, "internal server error", status)
		return
	}
	http.Error(w, err.Error(), status)
}
