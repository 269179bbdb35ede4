// Package store persists method snapshots in a SQLite database, keyed by
// their content hash.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite"

	"github.com/mohanaraosv/commons-bcel-sub001/snapshot"
)

var log = commonlog.GetLogger("jbc.store")

// ErrNotFound indicates the requested snapshot doesn't exist.
var ErrNotFound = errors.New("snapshot not found")

// Store is a content-addressed snapshot store. It is safe for concurrent
// use.
type Store struct {
	db   *sql.DB
	path string
}

// Entry describes a stored snapshot without its payload.
type Entry struct {
	Hash       snapshot.Hash
	Class      string
	Name       string
	Descriptor string
	CodeLength int
	Created    time.Time
}

const schema = `CREATE TABLE IF NOT EXISTS methods (
	hash TEXT PRIMARY KEY,
	class TEXT NOT NULL,
	name TEXT NOT NULL,
	descriptor TEXT NOT NULL,
	code_length INTEGER NOT NULL,
	data BLOB NOT NULL,
	created INTEGER NOT NULL
)`

// Open opens or creates the store at path. The special path ":memory:"
// opens a private in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// SQLite allows one writer; a single connection also keeps ":memory:"
	// from opening a fresh empty database per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the database path the store was opened with.
func (s *Store) Path() string { return s.path }

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Put stores m and returns its content hash. Storing the same method twice
// is a no-op.
func (s *Store) Put(m *snapshot.Method) (snapshot.Hash, error) {
	data, err := snapshot.Marshal(m)
	if err != nil {
		return snapshot.Hash{}, err
	}
	h := snapshot.HashOf(data)

	res, err := s.db.Exec(
		`INSERT OR IGNORE INTO methods (hash, class, name, descriptor, code_length, data, created)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		h.String(), m.Class, m.Name, m.Descriptor, len(m.Code), data, time.Now().Unix(),
	)
	if err != nil {
		return snapshot.Hash{}, fmt.Errorf("saving snapshot: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		log.Infof("stored %s.%s%s as %s", m.Class, m.Name, m.Descriptor, h.Short())
	}
	return h, nil
}

// Get loads the snapshot with the given hash.
func (s *Store) Get(h snapshot.Hash) (*snapshot.Method, error) {
	var data []byte
	err := s.db.QueryRow("SELECT data FROM methods WHERE hash = ?", h.String()).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying snapshot: %w", err)
	}
	return snapshot.Unmarshal(data)
}

// Has reports whether a snapshot with the given hash is stored.
func (s *Store) Has(h snapshot.Hash) (bool, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM methods WHERE hash = ?", h.String()).Scan(&n); err != nil {
		return false, fmt.Errorf("querying snapshot: %w", err)
	}
	return n > 0, nil
}

// Delete removes the snapshot with the given hash.
func (s *Store) Delete(h snapshot.Hash) error {
	res, err := s.db.Exec("DELETE FROM methods WHERE hash = ?", h.String())
	if err != nil {
		return fmt.Errorf("deleting snapshot: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns every stored snapshot ordered by class, name and descriptor.
func (s *Store) List() ([]Entry, error) {
	rows, err := s.db.Query(`SELECT hash, class, name, descriptor, code_length, created
		FROM methods ORDER BY class, name, descriptor, hash`)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			hash    string
			created int64
		)
		if err := rows.Scan(&hash, &e.Class, &e.Name, &e.Descriptor, &e.CodeLength, &created); err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		if e.Hash, err = snapshot.ParseHash(hash); err != nil {
			return nil, err
		}
		e.Created = time.Unix(created, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
