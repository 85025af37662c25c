// Package history persists per-user, date-partitioned conversation logs.
package history

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hyperjump/kiku/internal/models"
)

// Store is a per-user durable conversation log, organized as an append-only
// sequence of turns per calendar date. Turns within a date bucket are never
// reordered or mutated after append.
type Store interface {
	// Append adds turn to its date bucket for userID, creating the user log
	// and bucket as needed, and persists before returning.
	Append(ctx context.Context, userID string, turn models.ConversationTurn) error
	// List returns the full durable log for userID: date -> ordered turns.
	List(ctx context.Context, userID string) (map[string][]models.ConversationTurn, error)
	// Delete removes one date bucket, or the entire log when date is empty.
	// Deleting a bucket or log that does not exist is a no-op.
	Delete(ctx context.Context, userID string, date string) error
	Close() error
}

const exportSeparator = "--------------------------------------------------"

// FormatTurns serializes turns into the flat line-oriented export block
// offered for download.
func FormatTurns(turns []models.ConversationTurn) string {
	var b strings.Builder
	for _, turn := range turns {
		fmt.Fprintf(&b, "Question: %s\n", turn.Question)
		fmt.Fprintf(&b, "Answer: %s\n", turn.Answer)
		fmt.Fprintf(&b, "Model: %s\n", turn.Responder)
		fmt.Fprintf(&b, "Timestamp: %s\n", turn.Timestamp.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(&b, "PDFs: %s\n", turn.Documents)
		b.WriteString(exportSeparator)
		b.WriteByte('\n')
	}
	return b.String()
}

// FormatLog serializes a full date->turns log in ascending date order.
func FormatLog(log map[string][]models.ConversationTurn) string {
	dates := make([]string, 0, len(log))
	for date := range log {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	var b strings.Builder
	for _, date := range dates {
		b.WriteString(FormatTurns(log[date]))
	}
	return b.String()
}
