package history

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/Iron-Ham/tomate/internal/errors"
	"github.com/Iron-Ham/tomate/internal/logging"
)

// TOMLStore keeps history in a TOML file made of [[pomodoros]] tables.
// Append writes only the new table, so existing bytes are never rewritten.
type TOMLStore struct {
	path   string
	logger *logging.Logger
}

type entryFile struct {
	StartedAt   time.Time `toml:"started_at"`
	EndedAt     time.Time `toml:"ended_at"`
	Tags        []string  `toml:"tags"`
	Description string    `toml:"description,omitempty"`
}

type historyFile struct {
	Pomodoros []entryFile `toml:"pomodoros"`
}

// NewTOMLStore returns a TOMLStore for the file at path.
func NewTOMLStore(path string, logger *logging.Logger) *TOMLStore {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &TOMLStore{path: path, logger: logger}
}

// Path returns the history file path.
func (s *TOMLStore) Path() string {
	return s.path
}

// Append adds e to the end of the file and syncs it to disk.
func (s *TOMLStore) Append(ctx context.Context, e Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tags := e.Tags
	if tags == nil {
		tags = []string{}
	}
	data, err := toml.Marshal(historyFile{Pomodoros: []entryFile{{
		StartedAt:   e.StartedAt,
		EndedAt:     e.EndedAt,
		Tags:        tags,
		Description: e.Description,
	}}})
	if err != nil {
		return fmt.Errorf("failed to encode history entry: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return errors.NewStorageError("mkdir", filepath.Dir(s.path), err)
	}

	_, statErr := os.Stat(s.path)
	created := os.IsNotExist(statErr)

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return errors.NewStorageError("open", s.path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return errors.NewStorageError("stat", s.path, err)
	}
	if info.Size() > 0 {
		data = append([]byte("\n"), data...)
	}

	if _, err := f.Write(data); err != nil {
		return errors.NewStorageError("append", s.path, err)
	}
	if err := f.Sync(); err != nil {
		return errors.NewStorageError("sync", s.path, err)
	}
	if created {
		if err := syncDir(filepath.Dir(s.path)); err != nil {
			return errors.NewStorageError("sync", filepath.Dir(s.path), err)
		}
	}

	s.logger.Debug("history entry appended", "path", s.path, "started_at", e.StartedAt)
	return nil
}

// List parses the whole file. A missing file yields no entries.
func (s *TOMLStore) List(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, errors.NewStorageError("read", s.path, err)
	}

	var hf historyFile
	if err := toml.Unmarshal(data, &hf); err != nil {
		return nil, errors.NewStateError(s.path, err)
	}

	entries := make([]Entry, 0, len(hf.Pomodoros))
	for _, p := range hf.Pomodoros {
		entries = append(entries, Entry{
			StartedAt:   p.StartedAt,
			EndedAt:     p.EndedAt,
			Tags:        p.Tags,
			Description: p.Description,
		})
	}
	return entries, nil
}

// Purge removes the history file.
func (s *TOMLStore) Purge(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.NewStorageError("delete", s.path, err)
	}
	s.logger.Info("history purged", "path", s.path)
	return nil
}

// syncDir flushes dir's entries so a newly created file survives a crash.
func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}

// Close is a no-op; the file is opened per call.
func (s *TOMLStore) Close() error {
	return nil
}
