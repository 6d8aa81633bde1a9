package ws

import (
	"sync"

	"sketchwall-server-go/internal/platform/logging"
)

// SessionHub tracks the active websocket sessions for a transport
// instance. Audience-group fan-out is handled one level up; this hub only
// owns session lifetimes.
type SessionHub struct {
	logger   *logging.Logger
	sessions sync.Map // map[string]*Session
}

// NewSessionHub builds a fresh session hub.
func NewSessionHub(logger *logging.Logger) *SessionHub {
	return &SessionHub{
		logger: logger,
	}
}

// Register adds a new session to the hub.
func (h *SessionHub) Register(session *Session) {
	if session == nil {
		return
	}
	h.sessions.Store(session.ID(), session)
}

// Unregister removes the session from the hub.
func (h *SessionHub) Unregister(id string) {
	if id == "" {
		return
	}
	h.sessions.Delete(id)
}

// CloseAll terminates all active sessions and waits for their shutdown.
func (h *SessionHub) CloseAll(reason error) {
	if reason == nil {
		reason = ErrSessionShutdown
	}

	h.sessions.Range(func(key, value any) bool {
		if session, ok := value.(*Session); ok {
			session.Close(reason)
		}
		h.sessions.Delete(key)
		return true
	})
}

// Count exposes the number of active websocket sessions.
func (h *SessionHub) Count() int {
	count := 0
	h.sessions.Range(func(key, value any) bool {
		count++
		return true
	})
	return count
}
