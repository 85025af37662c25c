package chat

import (
	"testing"
	"time"

	"github.com/hyperjump/kiku/internal/models"
)

func TestSession_AppendAndTurns(t *testing.T) {
	s := NewSession()
	if s.Len() != 0 {
		t.Error("new session should be empty")
	}
	s.Append(models.ConversationTurn{Question: "q1", Answer: "a1", Timestamp: time.Now()})
	s.Append(models.ConversationTurn{Question: "q2", Answer: "a2", Timestamp: time.Now()})

	turns := s.Turns()
	if len(turns) != 2 || turns[0].Question != "q1" || turns[1].Question != "q2" {
		t.Errorf("got %v", turns)
	}

	// The returned slice is a copy.
	turns[0].Question = "mutated"
	if s.Turns()[0].Question != "q1" {
		t.Error("Turns must return a copy")
	}
}
