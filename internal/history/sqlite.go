package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Iron-Ham/tomate/internal/errors"
	"github.com/Iron-Ham/tomate/internal/logging"
)

// SchemaVersion is the current schema version of the history database.
const SchemaVersion = 1

// SQLiteStore keeps history in a SQLite database, one row per entry.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *logging.Logger
}

// OpenSQLiteStore opens (or creates) the database at path and applies
// migrations.
func OpenSQLiteStore(path string, logger *logging.Logger) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("open history: empty db path")
	}
	if logger == nil {
		logger = logging.NopLogger()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.NewStorageError("mkdir", filepath.Dir(path), err)
	}

	dsn := "file:" + path + "?mode=rwc&_pragma=busy_timeout(5000)&_pragma=synchronous(FULL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.NewStorageError("open", path, err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		// A file that exists but is not a database is corrupt state.
		if _, statErr := os.Stat(path); statErr == nil {
			return nil, errors.NewStateError(path, err)
		}
		return nil, errors.NewStorageError("open", path, err)
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, errors.NewStateError(path, err)
	}

	return &SQLiteStore{db: db, path: path, logger: logger}, nil
}

func migrate(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY);`); err != nil {
		return fmt.Errorf("migrate: create schema_migrations: %w", err)
	}

	var current int
	if err := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations;`).Scan(&current); err != nil {
		return fmt.Errorf("migrate: read current version: %w", err)
	}
	if current >= SchemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("migrate: begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS pomodoros (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			tags TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT ''
		);
	`); err != nil {
		return fmt.Errorf("migrate: create pomodoros table: %w", err)
	}

	if _, err := tx.Exec(`INSERT INTO schema_migrations(version) VALUES (?);`, SchemaVersion); err != nil {
		return fmt.Errorf("migrate: record schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migrate: commit transaction: %w", err)
	}
	return nil
}

// Path returns the database path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Append inserts e. The row is committed before Append returns.
func (s *SQLiteStore) Append(ctx context.Context, e Entry) error {
	tags := e.Tags
	if tags == nil {
		tags = []string{}
	}
	encoded, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO pomodoros(started_at, ended_at, tags, description) VALUES (?, ?, ?, ?);`,
		e.StartedAt.Format(time.RFC3339Nano),
		e.EndedAt.Format(time.RFC3339Nano),
		string(encoded),
		e.Description,
	)
	if err != nil {
		return errors.NewStorageError("insert", s.path, err)
	}

	s.logger.Debug("history entry appended", "path", s.path, "started_at", e.StartedAt)
	return nil
}

// List returns every row ordered by insertion.
func (s *SQLiteStore) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT started_at, ended_at, tags, description FROM pomodoros ORDER BY id;`)
	if err != nil {
		return nil, errors.NewStorageError("query", s.path, err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var startedAt, endedAt, tags string
		var e Entry
		if err := rows.Scan(&startedAt, &endedAt, &tags, &e.Description); err != nil {
			return nil, errors.NewStorageError("scan", s.path, err)
		}
		if e.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, errors.NewStateError(s.path, err)
		}
		if e.EndedAt, err = time.Parse(time.RFC3339Nano, endedAt); err != nil {
			return nil, errors.NewStateError(s.path, err)
		}
		if err := json.Unmarshal([]byte(tags), &e.Tags); err != nil {
			return nil, errors.NewStateError(s.path, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageError("query", s.path, err)
	}
	return entries, nil
}

// Purge deletes every row.
func (s *SQLiteStore) Purge(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM pomodoros;`); err != nil {
		return errors.NewStorageError("delete", s.path, err)
	}
	s.logger.Info("history purged", "path", s.path)
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
