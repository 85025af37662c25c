package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/kiku/internal/models"
)

// SQLiteStore keeps the conversation log row-per-turn in SQLite, keyed by
// (user_id, date, seq). Writes from different users never contend; writes
// from the same user serialize on the database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at dbPath and initializes
// the schema. Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, models.Errorf(models.KindPersistenceFailure, "create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, models.Errorf(models.KindPersistenceFailure, "open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, models.Errorf(models.KindPersistenceFailure, "enable WAL: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, models.Errorf(models.KindPersistenceFailure, "initialize schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS conversation_turns (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		date TEXT NOT NULL,
		seq INTEGER NOT NULL,
		question TEXT NOT NULL,
		answer TEXT NOT NULL,
		responder TEXT NOT NULL,
		timestamp TIMESTAMP NOT NULL,
		documents TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_turns_user_date ON conversation_turns(user_id, date, seq);
	`
	_, err := db.Exec(schema)
	return err
}

// Append inserts turn as the next sequence number in its date bucket.
func (s *SQLiteStore) Append(ctx context.Context, userID string, turn models.ConversationTurn) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Errorf(models.KindPersistenceFailure, "begin append: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	date := turn.Date()
	var seq int64
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM conversation_turns WHERE user_id = ? AND date = ?`,
		userID, date,
	).Scan(&seq)
	if err != nil {
		return models.Errorf(models.KindPersistenceFailure, "next seq: %w", err)
	}

	id := turn.ID
	if id == "" {
		id = fmt.Sprintf("%s_%s_%d", userID, date, seq)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO conversation_turns (id, user_id, date, seq, question, answer, responder, timestamp, documents)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, userID, date, seq, turn.Question, turn.Answer, turn.Responder, turn.Timestamp, turn.Documents,
	)
	if err != nil {
		return models.Errorf(models.KindPersistenceFailure, "insert turn: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return models.Errorf(models.KindPersistenceFailure, "commit append: %w", err)
	}
	return nil
}

// List returns the user's full log grouped by date, each bucket in append
// order.
func (s *SQLiteStore) List(ctx context.Context, userID string) (map[string][]models.ConversationTurn, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, date, question, answer, responder, timestamp, documents
		 FROM conversation_turns WHERE user_id = ? ORDER BY date, seq`,
		userID,
	)
	if err != nil {
		return nil, models.Errorf(models.KindPersistenceFailure, "list history: %w", err)
	}
	defer rows.Close()

	log := make(map[string][]models.ConversationTurn)
	for rows.Next() {
		var turn models.ConversationTurn
		var date string
		if err := rows.Scan(&turn.ID, &date, &turn.Question, &turn.Answer, &turn.Responder, &turn.Timestamp, &turn.Documents); err != nil {
			return nil, models.Errorf(models.KindPersistenceFailure, "scan turn: %w", err)
		}
		log[date] = append(log[date], turn)
	}
	if err := rows.Err(); err != nil {
		return nil, models.Errorf(models.KindPersistenceFailure, "list history: %w", err)
	}
	return log, nil
}

// Delete removes one date bucket, or every row for the user when date is
// empty. Deleting nothing is a no-op.
func (s *SQLiteStore) Delete(ctx context.Context, userID string, date string) error {
	var err error
	if date == "" {
		_, err = s.db.ExecContext(ctx, `DELETE FROM conversation_turns WHERE user_id = ?`, userID)
	} else {
		_, err = s.db.ExecContext(ctx, `DELETE FROM conversation_turns WHERE user_id = ? AND date = ?`, userID, date)
	}
	if err != nil {
		return models.Errorf(models.KindPersistenceFailure, "delete history: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
