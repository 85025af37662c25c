package models

import "time"

// Responder labels distinguish canned replies from model-generated answers
// in the conversation log.
const (
	ResponderAssistant = "Assistant"
	ResponderModel     = "Google AI"
)

// DateLayout is the calendar-date key used for history buckets.
const DateLayout = "2006-01-02"

// ConversationTurn is one question/answer exchange. Immutable once created.
// JSON field names follow the on-disk history format.
type ConversationTurn struct {
	ID        string    `json:"id,omitempty"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Responder string    `json:"model"`
	Timestamp time.Time `json:"timestamp"`
	Documents string    `json:"pdfs"`
}

// Date returns the history bucket key for the turn (YYYY-MM-DD).
func (t ConversationTurn) Date() string {
	return t.Timestamp.Format(DateLayout)
}
