package internal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// Store is the namespaced key-value abstraction every other component
// persists through. Keys are opaque strings; values are JSON documents.
// Read reports absence through the second return value, never as an error.
// Write failures come back as *WriteError and are non-fatal for callers:
// the in-memory state stays authoritative for the session.
type Store interface {
	Read(key string) ([]byte, bool, error)
	Write(key string, value []byte) error
	Remove(key string) error
	Keys(prefix string) ([]string, error)
	Close() error
}

// Storage key scheme, matching the shape the web client used in the
// browser's localStorage. The user identifier namespaces everything so two
// accounts on the same machine never collide.
const userKey = "user"

func conversationsKey(userID string) string {
	return "conversations_" + userID
}

func currentConversationKey(userID string) string {
	return "currentConversation_" + userID
}

func messagesKey(userID, conversationID string) string {
	return "messages_" + userID + "_" + conversationID
}

func messagesKeyPrefix(userID string) string {
	return "messages_" + userID + "_"
}

// KVStore implements Store over a single localKV table in SQLite.
type KVStore struct {
	db   *sql.DB
	path string
}

// OpenStore opens (creating if needed) the local store at path.
func OpenStore(path string) (*KVStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, &StorageError{Path: path, Op: "open", Err: err}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &StorageError{Path: path, Op: "open", Err: err}
	}

	store := &KVStore{db: db, path: path}
	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// OpenMemoryStore opens a throwaway in-memory store. Used by tests and by
// commands that must not touch disk.
func OpenMemoryStore() (*KVStore, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, &StorageError{Path: ":memory:", Op: "open", Err: err}
	}

	store := &KVStore{db: db, path: ":memory:"}
	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// NewKVStore wraps an already-open database, creating the localKV table if
// it is missing. Close releases the wrapped handle.
func NewKVStore(db *sql.DB) (*KVStore, error) {
	store := &KVStore{db: db, path: "(external)"}
	if err := store.init(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *KVStore) init() error {
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS localKV (
		key TEXT PRIMARY KEY,
		value TEXT
	)`
	if _, err := s.db.Exec(createTableSQL); err != nil {
		return &StorageError{Path: s.path, Op: "open", Err: err}
	}
	return nil
}

// Read returns the value stored under key, or ok=false if the key is absent.
func (s *KVStore) Read(key string) ([]byte, bool, error) {
	var value sql.NullString
	err := s.db.QueryRow("SELECT value FROM localKV WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &StorageError{Path: s.path, Op: "read", Err: err}
	}
	if !value.Valid {
		return nil, false, nil
	}
	return []byte(value.String), true, nil
}

// Write upserts value under key. A refused write (quota, read-only volume)
// comes back as *WriteError; no retry is attempted.
func (s *KVStore) Write(key string, value []byte) error {
	_, err := s.db.Exec(
		"INSERT INTO localKV (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, string(value))
	if err != nil {
		return &WriteError{Key: key, Err: err}
	}
	return nil
}

// Remove deletes key. Removing an absent key is not an error.
func (s *KVStore) Remove(key string) error {
	if _, err := s.db.Exec("DELETE FROM localKV WHERE key = ?", key); err != nil {
		return &StorageError{Path: s.path, Op: "remove", Err: err}
	}
	return nil
}

// Keys returns all keys starting with prefix, in lexicographic order.
func (s *KVStore) Keys(prefix string) ([]string, error) {
	pattern := likeEscape(prefix) + "%"
	rows, err := s.db.Query(
		"SELECT key FROM localKV WHERE key LIKE ? ESCAPE '\\' ORDER BY key", pattern)
	if err != nil {
		return nil, &StorageError{Path: s.path, Op: "read", Err: err}
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, &StorageError{Path: s.path, Op: "read", Err: err}
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Path: s.path, Op: "read", Err: err}
	}

	return keys, nil
}

// Close closes the underlying database.
func (s *KVStore) Close() error {
	return s.db.Close()
}

// Path returns the filesystem path the store was opened with.
func (s *KVStore) Path() string {
	return s.path
}

// likeEscape escapes LIKE metacharacters so a prefix containing "_" (every
// key does) matches literally.
func likeEscape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}

// DefaultStorePath returns the default location of the local store,
// ~/.zaynchat/zaynchat.db.
func DefaultStorePath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".zaynchat", "zaynchat.db"), nil
}
