// Package history archives completed Pomodoros. Entries are append-only:
// once written they are never modified, and List returns them in the order
// they were appended.
//
// Two backends are available:
//   - TOMLStore appends one [[pomodoros]] table per entry to a plain file.
//   - SQLiteStore keeps one row per entry in a pomodoros table.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/Iron-Ham/tomate/internal/logging"
)

// Entry is one archived Pomodoro.
type Entry struct {
	StartedAt   time.Time `json:"started_at" yaml:"started_at"`
	EndedAt     time.Time `json:"ended_at" yaml:"ended_at"`
	Tags        []string  `json:"tags" yaml:"tags"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
}

// Duration returns how long the Pomodoro actually ran.
func (e Entry) Duration() time.Duration {
	d := e.EndedAt.Sub(e.StartedAt)
	if d < 0 {
		return 0
	}
	return d
}

// Store is an append-only log of completed Pomodoros.
type Store interface {
	// Append durably adds e after all existing entries.
	Append(ctx context.Context, e Entry) error
	// List returns every entry, oldest first. A store with no data yields
	// an empty slice.
	List(ctx context.Context) ([]Entry, error)
	// Purge deletes every entry.
	Purge(ctx context.Context) error
	// Close releases resources held by the store.
	Close() error
}

// Backend names accepted by Open.
const (
	BackendTOML   = "toml"
	BackendSQLite = "sqlite"
)

// Open returns the Store for backend, persisting to path.
func Open(backend, path string, logger *logging.Logger) (Store, error) {
	if logger == nil {
		logger = logging.NopLogger()
	}
	switch backend {
	case BackendTOML, "":
		return NewTOMLStore(path, logger), nil
	case BackendSQLite:
		return OpenSQLiteStore(path, logger)
	default:
		return nil, fmt.Errorf("unknown history backend %q", backend)
	}
}
