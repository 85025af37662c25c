package chat

import (
	"sync"

	"github.com/hyperjump/kiku/internal/models"
)

// Session is the ephemeral in-memory turn list for the active conversation.
// It exists for immediate display and export; the durable history store is
// the source of truth, and the session is never read back into it.
type Session struct {
	mu    sync.Mutex
	turns []models.ConversationTurn
}

// NewSession returns an empty session.
func NewSession() *Session {
	return &Session{}
}

// Append adds a turn to the session.
func (s *Session) Append(turn models.ConversationTurn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, turn)
}

// Turns returns a copy of the session's turns in order.
func (s *Session) Turns() []models.ConversationTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ConversationTurn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Len returns the number of turns.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns)
}
