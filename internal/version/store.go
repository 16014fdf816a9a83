package version

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oddslock/oddslock/internal/domain"
)

// Store persists the current version record and its bump history.
type Store interface {
	// Load returns the current record, or (nil, nil) when none exists.
	Load(ctx context.Context) (*domain.VersionRecord, error)
	// Save persists rec as current and appends it to the bump history.
	Save(ctx context.Context, rec domain.VersionRecord) error
}

// FileStore keeps the version record as JSON in a state directory, with
// an append-only JSONL bump history alongside it.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) recordPath() string  { return filepath.Join(s.dir, "decision_version.json") }
func (s *FileStore) historyPath() string { return filepath.Join(s.dir, "decision_version_history.jsonl") }

func (s *FileStore) Load(_ context.Context) (*domain.VersionRecord, error) {
	raw, err := os.ReadFile(s.recordPath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read version record: %w", err)
	}

	var rec domain.VersionRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("version record corrupt: %w", err)
	}
	return &rec, nil
}

func (s *FileStore) Save(_ context.Context, rec domain.VersionRecord) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state dir: %w", err)
	}

	raw, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal version record: %w", err)
	}
	if err := os.WriteFile(s.recordPath(), raw, 0o644); err != nil {
		return fmt.Errorf("failed to write version record: %w", err)
	}

	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal history line: %w", err)
	}
	f, err := os.OpenFile(s.historyPath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open version history: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to append version history: %w", err)
	}
	return nil
}
