package session

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/Iron-Ham/tomate/internal/errors"
	"github.com/Iron-Ham/tomate/internal/logging"
)

// Store persists at most one Record in a TOML file. Writes replace the file
// atomically, so readers that don't take the lock never observe a partial
// record.
type Store struct {
	path   string
	logger *logging.Logger
}

// NewStore returns a Store for the session file at path. A nil logger
// discards log output.
func NewStore(path string, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Store{path: path, logger: logger}
}

// Path returns the session file path.
func (s *Store) Path() string {
	return s.path
}

// Lock acquires the exclusive cross-process lock on <path>.lock. The caller
// must Unlock it.
func (s *Store) Lock() (*FileLock, error) {
	fl := NewFileLock(s.path + ".lock")
	acquired, err := fl.TryLock()
	if err != nil {
		return nil, errors.NewStorageError("lock", fl.Path(), err)
	}
	if acquired {
		return fl, nil
	}

	s.logger.Debug("waiting for session lock", "path", fl.Path())
	if err := fl.Lock(); err != nil {
		return nil, errors.NewStorageError("lock", fl.Path(), err)
	}
	return fl, nil
}

// Load reads the current record. It returns (nil, nil) when no session file
// exists and a *errors.StateError when the file cannot be parsed or holds an
// invalid record. A corrupt file is left untouched.
func (s *Store) Load() (*Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.NewStorageError("read", s.path, err)
	}

	var f recordFile
	if err := toml.Unmarshal(data, &f); err != nil {
		s.logger.Warn("session file is corrupt", "path", s.path, "error", err.Error())
		return nil, errors.NewStateError(s.path, err)
	}

	rec, err := f.toRecord()
	if err == nil {
		err = rec.Validate()
	}
	if err != nil {
		s.logger.Warn("session file is invalid", "path", s.path, "error", err.Error())
		return nil, errors.NewStateError(s.path, err)
	}
	return rec, nil
}

// Save writes rec, replacing any existing record.
func (s *Store) Save(rec *Record) error {
	data, err := toml.Marshal(rec.toFile())
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return errors.NewStorageError("mkdir", filepath.Dir(s.path), err)
	}
	if err := atomicWriteFile(s.path, data, 0644); err != nil {
		return errors.NewStorageError("write", s.path, err)
	}

	s.logger.Debug("session saved", "session_id", rec.ID, "notified", rec.Notified)
	return nil
}

// Delete removes the session file. A missing file is not an error.
func (s *Store) Delete() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.NewStorageError("delete", s.path, err)
	}
	return nil
}

// Discard removes the session file without reading it. It is the way out of
// a corrupt session file.
func (s *Store) Discard() error {
	if err := s.Delete(); err != nil {
		return err
	}
	s.logger.Warn("session file discarded", "path", s.path)
	return nil
}

// atomicWriteFile writes data to a temp file in the target's directory,
// syncs it, renames it over path and syncs the directory.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	success = true

	return syncDir(filepath.Dir(path))
}

// syncDir flushes dir's entries so a rename or create inside it survives a
// crash.
func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("failed to open directory: %w", err)
	}
	defer d.Close()
	if err := d.Sync(); err != nil {
		return fmt.Errorf("failed to sync directory: %w", err)
	}
	return nil
}
