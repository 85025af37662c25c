package history

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hyperjump/kiku/internal/models"
)

// DiskStore keeps one JSON file per user under a root directory. Writes
// replace the file atomically (temp file plus rename), so readers never
// observe a partial log.
type DiskStore struct {
	root string
	mu   sync.Mutex
}

// NewDiskStore creates the root directory if needed and returns the store.
func NewDiskStore(root string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, models.Errorf(models.KindPersistenceFailure, "create history dir: %w", err)
	}
	return &DiskStore{root: root}, nil
}

// Append adds turn to its date bucket in the user's log file.
func (s *DiskStore) Append(ctx context.Context, userID string, turn models.ConversationTurn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log, err := s.load(userID)
	if err != nil {
		return err
	}
	date := turn.Date()
	log[date] = append(log[date], turn)
	return s.save(userID, log)
}

// List returns the user's full log. A user with no log yields an empty map.
func (s *DiskStore) List(ctx context.Context, userID string) (map[string][]models.ConversationTurn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(userID)
}

// Delete removes one date bucket, or the whole log when date is empty.
// Missing buckets and missing logs are no-ops.
func (s *DiskStore) Delete(ctx context.Context, userID string, date string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if date == "" {
		if err := os.Remove(s.path(userID)); err != nil && !os.IsNotExist(err) {
			return models.Errorf(models.KindPersistenceFailure, "delete history for %s: %w", userID, err)
		}
		return nil
	}
	log, err := s.load(userID)
	if err != nil {
		return err
	}
	if _, ok := log[date]; !ok {
		return nil
	}
	delete(log, date)
	return s.save(userID, log)
}

// Close is a no-op for DiskStore.
func (s *DiskStore) Close() error {
	return nil
}

func (s *DiskStore) path(userID string) string {
	return filepath.Join(s.root, sanitizeUserID(userID)+".json")
}

func (s *DiskStore) load(userID string) (map[string][]models.ConversationTurn, error) {
	data, err := os.ReadFile(s.path(userID))
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string][]models.ConversationTurn), nil
		}
		return nil, models.Errorf(models.KindPersistenceFailure, "read history for %s: %w", userID, err)
	}
	var log map[string][]models.ConversationTurn
	if err := json.Unmarshal(data, &log); err != nil {
		return nil, models.Errorf(models.KindPersistenceFailure, "parse history for %s: %w", userID, err)
	}
	if log == nil {
		log = make(map[string][]models.ConversationTurn)
	}
	return log, nil
}

func (s *DiskStore) save(userID string, log map[string][]models.ConversationTurn) error {
	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return models.Errorf(models.KindPersistenceFailure, "marshal history for %s: %w", userID, err)
	}
	path := s.path(userID)
	tmp, err := os.CreateTemp(s.root, ".history-*")
	if err != nil {
		return models.Errorf(models.KindPersistenceFailure, "write history for %s: %w", userID, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return models.Errorf(models.KindPersistenceFailure, "write history for %s: %w", userID, err)
	}
	if err := tmp.Close(); err != nil {
		return models.Errorf(models.KindPersistenceFailure, "write history for %s: %w", userID, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return models.Errorf(models.KindPersistenceFailure, "replace history for %s: %w", userID, err)
	}
	return nil
}

// sanitizeUserID makes a user identity safe as a file name component.
func sanitizeUserID(userID string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", "..", "_", ":", "_", " ", "_")
	id := replacer.Replace(userID)
	if id == "" {
		id = "_anonymous"
	}
	return id
}
