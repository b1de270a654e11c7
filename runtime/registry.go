// Package runtime owns the in-process realtime state: the presence
// registry and the dispatcher that routes fresh messages to live sessions.
// No other component may touch the presence map.
package runtime

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"mentorlink/contract"
	"mentorlink/domain/event"
)

type session struct {
	id   uuid.UUID
	sink contract.EventSink
}

// Registry maps a user identity to their single active transport session.
// Single-slot semantics: a second session from the same user overwrites the
// first (last write wins), matching the behavior this system inherits.
// Entries have no TTL; cleanup is purely event-driven on disconnect.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]session
	changes  chan event.PresenceChanged
	log      *slog.Logger
}

func NewRegistry(log *slog.Logger, changeBuffer int) *Registry {
	return &Registry{
		sessions: make(map[string]session),
		changes:  make(chan event.PresenceChanged, changeBuffer),
		log:      log,
	}
}

// Register records the user's active session, replacing any prior one,
// and emits a presence snapshot for broadcast.
func (r *Registry) Register(userID string, sessionID uuid.UUID, sink contract.EventSink) {
	r.mu.Lock()
	if prev, ok := r.sessions[userID]; ok && prev.id != sessionID {
		r.log.Warn("session replaced", "user_id", userID, "old_session", prev.id, "new_session", sessionID)
	}
	r.sessions[userID] = session{id: sessionID, sink: sink}
	snapshot := r.snapshotLocked()
	r.mu.Unlock()

	r.emit(snapshot)
}

// Unregister removes the entry only if the stored session still matches,
// so a stale disconnect cannot clobber a newer session's entry.
func (r *Registry) Unregister(userID string, sessionID uuid.UUID) {
	r.mu.Lock()
	current, ok := r.sessions[userID]
	if !ok || current.id != sessionID {
		r.mu.Unlock()
		return
	}
	delete(r.sessions, userID)
	snapshot := r.snapshotLocked()
	r.mu.Unlock()

	r.emit(snapshot)
}

// Sink returns the push channel of the user's active session, if any.
func (r *Registry) Sink(userID string) (contract.EventSink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.sessions[userID]
	if !ok {
		return nil, false
	}
	return entry.sink, true
}

func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.sessions[userID]
	return ok
}

// OnlineUsers returns a sorted snapshot of all registered identities.
func (r *Registry) OnlineUsers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

// Changes streams a presence snapshot per register/unregister, consumed by
// the broadcast worker.
func (r *Registry) Changes() <-chan event.PresenceChanged {
	return r.changes
}

func (r *Registry) snapshotLocked() []string {
	users := make([]string, 0, len(r.sessions))
	for userID := range r.sessions {
		users = append(users, userID)
	}
	sort.Strings(users)
	return users
}

func (r *Registry) emit(snapshot []string) {
	select {
	case r.changes <- event.PresenceChanged{OnlineUserIDs: snapshot, At: time.Now().UTC()}:
	default:
		// A full channel only delays presence indicators, never presence
		// truth: IsOnline reads the map directly.
		r.log.Warn("presence change dropped, broadcast channel full")
	}
}
